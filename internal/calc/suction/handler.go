package suction

import (
	"encoding/json"
	"errors"
	"net/http"

	"Ventosa/internal/config"
	"Ventosa/internal/observability"
	"Ventosa/internal/session"

	"go.uber.org/zap"
)

// CalcRequest carries the form selections; coefficients arrive by name and
// are resolved against the option tables.
type CalcRequest struct {
	MassKg           float64 `json:"mass_kg"`
	AccelerationMps2 float64 `json:"acceleration_mps2"`
	CupCount         int     `json:"cup_count"`
	Pick             string  `json:"pick"`
	Movement         string  `json:"movement"`
	SurfaceType      string  `json:"surface_type"`
	SafetyFactor     string  `json:"safety_factor"`
}

type ManualRequest struct {
	ForceN float64 `json:"force_n"`
}

type Handler struct {
	Options  config.Options
	Sessions *session.Store
	Metrics  *observability.Collector
	Log      *zap.Logger
}

func (h *Handler) Calc(w http.ResponseWriter, r *http.Request) {
	var req CalcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	in, msg := h.resolve(req)
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	res, err := Calculate(in)
	h.Metrics.ObserveCalculation(string(in.Pick), string(in.Movement), err)
	if errors.Is(err, ErrInvalidAcceleration) {
		http.Error(w, "Acceleration cannot be 0. Enter a valid value.", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.Log.Warn("force calculation failed", zap.Error(err))
		http.Error(w, "Calculation error", http.StatusBadRequest)
		return
	}

	st := h.Sessions.Load(r)
	st.SetCalculated(res.ForcePerCupN, res.CupCount)
	if err := h.Sessions.Save(w, st); err != nil {
		h.Log.Error("save session", zap.Error(err))
		http.Error(w, "Session error", http.StatusInternalServerError)
		return
	}
	h.Log.Debug("force calculated",
		zap.Float64("force_per_cup_n", res.ForcePerCupN),
		zap.Int("cups", res.CupCount),
		zap.String("pick", string(res.Pick)),
		zap.String("movement", string(res.Movement)))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

func (h *Handler) Manual(w http.ResponseWriter, r *http.Request) {
	var req ManualRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if req.ForceN < 0 {
		http.Error(w, "Force must not be negative", http.StatusBadRequest)
		return
	}

	st := h.Sessions.Load(r)
	st.SetManual(req.ForceN)
	if err := h.Sessions.Save(w, st); err != nil {
		h.Log.Error("save session", zap.Error(err))
		http.Error(w, "Session error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(st)
}

// resolve maps the request onto Input; a non-empty message is the
// validation error shown to the user.
func (h *Handler) resolve(req CalcRequest) (Input, string) {
	if req.CupCount < 1 {
		return Input{}, "Cup count must be at least 1"
	}
	if req.MassKg < 0 || req.AccelerationMps2 < 0 {
		return Input{}, "Mass and acceleration must not be negative"
	}
	pick, err := ParsePick(req.Pick)
	if err != nil {
		return Input{}, err.Error()
	}
	mov, err := ParseMovement(req.Movement)
	if err != nil {
		return Input{}, err.Error()
	}
	sf, okSurface := h.Options.SurfaceFactor(req.SurfaceType)
	k, okSafety := h.Options.SafetyFactor(req.SafetyFactor)
	if !okSurface || !okSafety {
		return Input{}, "Select all parameters required for the calculation"
	}
	return Input{
		MassKg:           req.MassKg,
		AccelerationMps2: req.AccelerationMps2,
		CupCount:         req.CupCount,
		SafetyFactor:     k,
		SurfaceFactor:    sf,
		Pick:             pick,
		Movement:         mov,
	}, ""
}
