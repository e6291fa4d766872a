package batch

import (
	"encoding/json"
	"errors"
	"net/http"

	suction "Ventosa/internal/calc/suction"
	"Ventosa/internal/observability"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const MaxUploadSize = 10 << 20

var errItem = errors.New("batch item failed")

type Handler struct {
	Metrics *observability.Collector
	Log     *zap.Logger
}

func (h *Handler) Calc(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	res, err := Calculate(input.Items)
	if err != nil {
		http.Error(w, "Calculation error", http.StatusBadRequest)
		return
	}
	h.observe(input.Items, res)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

// Import calculates every row of an uploaded .xlsx workbook.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "File required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	f, err := excelize.OpenReader(file)
	if err != nil {
		http.Error(w, "Invalid file", http.StatusBadRequest)
		return
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		http.Error(w, "Empty sheet", http.StatusBadRequest)
		return
	}
	items, skipped, err := ParseSheet(rows)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := Calculate(items)
	if err != nil {
		http.Error(w, "No valid rows", http.StatusBadRequest)
		return
	}
	res.Skipped = skipped
	h.observe(items, res)
	h.Log.Info("batch import", zap.Int("rows", res.Count), zap.Int("failed", res.Failed), zap.Int("skipped", skipped))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

func (h *Handler) observe(items []suction.Input, res Result) {
	for _, ir := range res.Results {
		in := items[ir.Index]
		var err error
		if ir.Error != "" {
			err = errItem
		}
		pick, movement := metricLabels(in)
		h.Metrics.ObserveCalculation(pick, movement, err)
	}
}

// metricLabels returns the canonical pick and movement, or
// observability.UnknownLabel for values the parsers reject.
func metricLabels(in suction.Input) (string, string) {
	pick, movement := observability.UnknownLabel, observability.UnknownLabel
	if p, err := suction.ParsePick(string(in.Pick)); err == nil {
		pick = string(p)
	}
	if m, err := suction.ParseMovement(string(in.Movement)); err == nil {
		movement = string(m)
	}
	return pick, movement
}
