package batch

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	suction "Ventosa/internal/calc/suction"
	"Ventosa/internal/observability"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func item() suction.Input {
	return suction.Input{
		MassKg:           10,
		AccelerationMps2: 2,
		CupCount:         4,
		SafetyFactor:     1.5,
		SurfaceFactor:    0.5,
		Pick:             suction.PickVertical,
		Movement:         suction.MovementVertical,
	}
}

func TestCalculate_ReportsFailuresInPlace(t *testing.T) {
	zeroAccel := item()
	zeroAccel.AccelerationMps2 = 0
	noCups := item()
	noCups.CupCount = 0

	res, err := Calculate([]suction.Input{item(), zeroAccel, noCups})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Count)
	assert.Equal(t, 2, res.Failed)

	require.NotNil(t, res.Results[0].Result)
	assert.InDelta(t, 81.075, res.Results[0].Result.ForcePerCupN, 1e-9)
	assert.Equal(t, suction.ErrInvalidAcceleration.Error(), res.Results[1].Error)
	assert.Nil(t, res.Results[1].Result)
	assert.NotEmpty(t, res.Results[2].Error)
}

func TestCalculate_Empty(t *testing.T) {
	_, err := Calculate(nil)
	assert.ErrorIs(t, err, ErrNoItems)
}

var header = []string{"mass_kg", "acceleration_mps2", "cup_count", "pick", "movement", "surface_factor", "safety_factor"}

func TestParseSheet(t *testing.T) {
	inputs, skipped, err := ParseSheet([][]string{
		header,
		{"10", "2", "4", "Vertical", "2 Direcciones y rotación", "0,5", "1.5"},
		{"ten", "2", "4", "vertical", "vertical", "0.5", "1.5"},
		{"10", "2"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	require.Len(t, inputs, 1)
	assert.Equal(t, suction.MovementTwoDirRotation, inputs[0].Movement)
	assert.Equal(t, 0.5, inputs[0].SurfaceFactor)
}

func TestParseSheet_MissingColumn(t *testing.T) {
	_, _, err := ParseSheet([][]string{{"mass_kg"}, {"1"}})
	assert.Error(t, err)
}

func TestCalcHandler(t *testing.T) {
	h := &Handler{Log: zap.NewNop()}
	b, err := json.Marshal(Input{Items: []suction.Input{item()}})
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	h.Calc(rec, httptest.NewRequest(http.MethodPost, "/api/force/batch", bytes.NewReader(b)))
	require.Equal(t, http.StatusOK, rec.Code)

	var res Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, 1, res.Count)
}

func TestCalcHandler_FormLabels(t *testing.T) {
	metrics, err := observability.NewCollector(prometheus.NewRegistry())
	require.NoError(t, err)
	h := &Handler{Metrics: metrics, Log: zap.NewNop()}

	body := `{"items":[
		{"mass_kg":10,"acceleration_mps2":2,"cup_count":4,"safety_factor":1.5,"surface_factor":0.5,"pick":"Vertical","movement":"Dirección Vertical"},
		{"mass_kg":10,"acceleration_mps2":2,"cup_count":4,"safety_factor":1.5,"surface_factor":0.5,"pick":"x1","movement":"y1"},
		{"mass_kg":10,"acceleration_mps2":2,"cup_count":4,"safety_factor":1.5,"surface_factor":0.5,"pick":"x2","movement":"y2"}
	]}`
	rec := httptest.NewRecorder()
	h.Calc(rec, httptest.NewRequest(http.MethodPost, "/api/force/batch", bytes.NewBufferString(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, 3, res.Count)
	assert.Equal(t, 2, res.Failed)
	require.NotNil(t, res.Results[0].Result)
	assert.InDelta(t, 81.075, res.Results[0].Result.ForcePerCupN, 1e-9)
	assert.Equal(t, suction.PickVertical, res.Results[0].Result.Pick)
	assert.Equal(t, suction.MovementVertical, res.Results[0].Result.Movement)

	assert.Equal(t, 2, testutil.CollectAndCount(metrics.Calculations))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Calculations.WithLabelValues("vertical", "vertical", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Calculations.WithLabelValues(observability.UnknownLabel, observability.UnknownLabel, "error")))
}

func TestImportHandler(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"mass_kg", "acceleration_mps2", "cup_count", "pick", "movement", "surface_factor", "safety_factor"},
		{10, 2, 4, "vertical", "two_directions_rotation", 0.5, 1.5},
		{"x", 2, 4, "vertical", "vertical", 0.5, 1.5},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "inputs.xlsx")
	require.NoError(t, err)
	_, err = f.WriteTo(part)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/force/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	(&Handler{Log: zap.NewNop()}).Import(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, 1, res.Skipped)
	assert.InDelta(t, 36.7875, res.Results[0].Result.ForcePerCupN, 1e-9)
}

func TestImportHandler_NoFile(t *testing.T) {
	rec := httptest.NewRecorder()
	(&Handler{Log: zap.NewNop()}).Import(rec, httptest.NewRequest(http.MethodPost, "/api/force/import", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
