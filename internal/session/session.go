package session

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const CookieName = "ventosa_session"

const (
	MethodCalculate = "calculate"
	MethodManual    = "manual"
)

// State is what one user carries between steps: the force per cup and the
// cup count it was computed for.
type State struct {
	Force    *float64 `json:"force,omitempty"`
	CupCount int      `json:"cup_count,omitempty"`
	Method   string   `json:"method,omitempty"`
}

func (s State) HasForce() bool { return s.Force != nil }

func (s *State) SetCalculated(force float64, cups int) {
	s.Force = &force
	s.CupCount = cups
	s.Method = MethodCalculate
}

// SetManual keeps the previous cup count.
func (s *State) SetManual(force float64) {
	s.Force = &force
	s.Method = MethodManual
}

type claims struct {
	State
	jwt.RegisteredClaims
}

// Store keeps State in an HMAC-signed cookie, so nothing is shared between
// sessions on the server.
type Store struct {
	key    []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewStore(key []byte, ttl time.Duration, secure bool) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{key: key, ttl: ttl, secure: secure, now: time.Now}
}

// Load returns the zero State when the cookie is missing, expired or forged.
func (s *Store) Load(r *http.Request) State {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return State{}
	}
	var c claims
	token, err := jwt.ParseWithClaims(cookie.Value, &c, func(token *jwt.Token) (interface{}, error) {
		return s.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return State{}
	}
	return c.State
}

func (s *Store) Save(w http.ResponseWriter, st State) error {
	now := s.now()
	expiration := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		State: st,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiration),
		},
	})
	tokenString, err := token.SignedString(s.key)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    tokenString,
		Expires:  expiration,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
