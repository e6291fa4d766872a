package suction

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"Ventosa/internal/config"
	"Ventosa/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newHandler() *Handler {
	return &Handler{
		Options:  config.DefaultOptions(),
		Sessions: session.NewStore([]byte("test-key"), time.Hour, false),
		Log:      zap.NewNop(),
	}
}

func post(t *testing.T, fn http.HandlerFunc, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(b))
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	fn(rec, req)
	return rec
}

func validRequest() CalcRequest {
	return CalcRequest{
		MassKg:           10,
		AccelerationMps2: 2,
		CupCount:         4,
		Pick:             "Vertical",
		Movement:         "Dirección Vertical",
		SurfaceType:      "Madera, cristal, metal, piedra",
		SafetyFactor:     "Piezas críticas, heterogéneas o porosas",
	}
}

func sessionFrom(t *testing.T, h *Handler, rec *httptest.ResponseRecorder) session.State {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return h.Sessions.Load(req)
}

func TestCalcStoresForceInSession(t *testing.T) {
	h := newHandler()
	rec := post(t, h.Calc, validRequest())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.InDelta(t, 81.075, res.ForcePerCupN, 1e-9)

	st := sessionFrom(t, h, rec)
	require.True(t, st.HasForce())
	assert.InDelta(t, 81.075, *st.Force, 1e-9)
	assert.Equal(t, 4, st.CupCount)
	assert.Equal(t, session.MethodCalculate, st.Method)
}

func TestCalcZeroAcceleration(t *testing.T) {
	h := newHandler()
	req := validRequest()
	req.AccelerationMps2 = 0
	rec := post(t, h.Calc, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Acceleration cannot be 0")
	assert.Empty(t, rec.Result().Cookies())
}

func TestCalcRequiresCoefficients(t *testing.T) {
	h := newHandler()
	req := validRequest()
	req.SafetyFactor = "Seleccionar"
	rec := post(t, h.Calc, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Select all parameters")
}

func TestCalcRejectsBadBounds(t *testing.T) {
	h := newHandler()
	for name, mutate := range map[string]func(*CalcRequest){
		"no cups":        func(r *CalcRequest) { r.CupCount = 0 },
		"negative mass":  func(r *CalcRequest) { r.MassKg = -1 },
		"negative accel": func(r *CalcRequest) { r.AccelerationMps2 = -2 },
		"bad pick":       func(r *CalcRequest) { r.Pick = "sideways" },
	} {
		req := validRequest()
		mutate(&req)
		rec := post(t, h.Calc, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
}

func TestManualKeepsCupCount(t *testing.T) {
	h := newHandler()
	calc := post(t, h.Calc, validRequest())
	require.Equal(t, http.StatusOK, calc.Code)

	rec := post(t, h.Manual, ManualRequest{ForceN: 200}, calc.Result().Cookies()...)
	require.Equal(t, http.StatusOK, rec.Code)

	st := sessionFrom(t, h, rec)
	require.True(t, st.HasForce())
	assert.Equal(t, 200.0, *st.Force)
	assert.Equal(t, 4, st.CupCount)
	assert.Equal(t, session.MethodManual, st.Method)
}

func TestManualRejectsNegative(t *testing.T) {
	rec := post(t, newHandler().Manual, ManualRequest{ForceN: -5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
