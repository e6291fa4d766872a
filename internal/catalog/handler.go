package catalog

import (
	"encoding/json"
	"errors"
	"net/http"

	"Ventosa/internal/observability"
	"Ventosa/internal/session"

	"go.uber.org/zap"
)

var ErrNoForce = errors.New("no force calculated or entered yet")

const NoMatchesMessage = "No suction cups meet the exact requirements."

type SearchRequest struct {
	Material      string   `json:"material"`
	Surface       string   `json:"surface"`
	Application   string   `json:"application"`
	Tolerance     string   `json:"tolerance,omitempty"`
	RequiredForce *float64 `json:"required_force,omitempty"`
}

type SearchResponse struct {
	RequiredForce float64         `json:"required_force"`
	Policy        TolerancePolicy `json:"policy"`
	Count         int             `json:"count"`
	Columns       []string        `json:"columns"`
	Rows          []Row           `json:"rows"`
	Message       string          `json:"message,omitempty"`
}

// Resolve turns a search request plus the session state into filter
// criteria. An explicit required_force wins over the session value.
func Resolve(st session.State, req SearchRequest, def TolerancePolicy) (Criteria, TolerancePolicy, error) {
	policy := def
	if req.Tolerance != "" {
		p, err := ParsePolicy(req.Tolerance)
		if err != nil {
			return Criteria{}, "", err
		}
		policy = p
	}
	var force float64
	switch {
	case req.RequiredForce != nil:
		force = *req.RequiredForce
	case st.HasForce():
		force = *st.Force
	default:
		return Criteria{}, "", ErrNoForce
	}
	return Criteria{
		RequiredForce: force,
		Material:      req.Material,
		Surface:       req.Surface,
		Application:   req.Application,
	}, policy, nil
}

type Handler struct {
	Catalog  Catalog
	Policy   TolerancePolicy
	Sessions *session.Store
	Metrics  *observability.Collector
	Log      *zap.Logger
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	crit, policy, err := Resolve(h.Sessions.Load(r), req, h.Policy)
	if errors.Is(err, ErrNoForce) {
		http.Error(w, "Determine the suction force first", http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res := h.Catalog.Filter(crit, policy)
	h.Metrics.ObserveSearch(string(policy), res.Len())
	h.Log.Debug("catalog search",
		zap.Float64("required_force", crit.RequiredForce),
		zap.String("policy", string(policy)),
		zap.Int("matches", res.Len()))

	out := SearchResponse{
		RequiredForce: crit.RequiredForce,
		Policy:        policy,
		Count:         res.Len(),
		Columns:       res.Columns,
		Rows:          res.Rows,
	}
	if res.Len() == 0 {
		out.Message = NoMatchesMessage
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}
