package batch

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	suction "Ventosa/internal/calc/suction"
)

var ErrNoItems = errors.New("no items")

type Input struct {
	Items []suction.Input `json:"items"`
}

type ItemResult struct {
	Index  int             `json:"index"`
	Result *suction.Result `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type Result struct {
	Count   int          `json:"count"`
	Failed  int          `json:"failed"`
	Skipped int          `json:"skipped,omitempty"`
	Results []ItemResult `json:"results"`
}

// Calculate runs every item; a failing item is reported in place and the
// rest still run.
func Calculate(items []suction.Input) (Result, error) {
	if len(items) == 0 {
		return Result{}, ErrNoItems
	}
	out := Result{Results: make([]ItemResult, 0, len(items))}
	for i, item := range items {
		ir := ItemResult{Index: i}
		res, err := calculateOne(item)
		if err != nil {
			ir.Error = err.Error()
			out.Failed++
		} else {
			ir.Result = &res
		}
		out.Results = append(out.Results, ir)
	}
	out.Count = len(out.Results)
	return out, nil
}

func calculateOne(in suction.Input) (suction.Result, error) {
	in, err := normalize(in)
	if err != nil {
		return suction.Result{}, err
	}
	if in.CupCount < 1 {
		return suction.Result{}, fmt.Errorf("cup count must be at least 1")
	}
	if in.MassKg < 0 {
		return suction.Result{}, fmt.Errorf("mass must not be negative")
	}
	if in.SurfaceFactor <= 0 || in.SafetyFactor <= 0 {
		return suction.Result{}, fmt.Errorf("surface and safety factors must be positive")
	}
	return suction.Calculate(in)
}

// normalize maps form labels such as "Dirección Vertical" to the canonical
// pick and movement values.
func normalize(in suction.Input) (suction.Input, error) {
	var err error
	if in.Pick, err = suction.ParsePick(string(in.Pick)); err != nil {
		return in, err
	}
	if in.Movement, err = suction.ParseMovement(string(in.Movement)); err != nil {
		return in, err
	}
	return in, nil
}

// Sheet columns, matched case-insensitively against the header row.
var sheetColumns = []string{
	"mass_kg", "acceleration_mps2", "cup_count", "pick", "movement", "surface_factor", "safety_factor",
}

// ParseSheet maps a header row plus data rows to inputs. Rows that cannot be
// parsed are skipped and counted.
func ParseSheet(rows [][]string) ([]suction.Input, int, error) {
	if len(rows) < 2 {
		return nil, 0, fmt.Errorf("empty sheet")
	}
	index := make(map[string]int)
	for i, h := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range sheetColumns {
		if _, ok := index[c]; !ok {
			return nil, 0, fmt.Errorf("missing column %q", c)
		}
	}

	var inputs []suction.Input
	skipped := 0
	for _, row := range rows[1:] {
		in, err := parseRow(row, index)
		if err != nil {
			skipped++
			continue
		}
		inputs = append(inputs, in)
	}
	return inputs, skipped, nil
}

func parseRow(row []string, index map[string]int) (suction.Input, error) {
	cell := func(name string) string {
		i := index[name]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	var in suction.Input
	var err error
	if in.MassKg, err = toFloat(cell("mass_kg")); err != nil {
		return in, err
	}
	if in.AccelerationMps2, err = toFloat(cell("acceleration_mps2")); err != nil {
		return in, err
	}
	if in.CupCount, err = strconv.Atoi(cell("cup_count")); err != nil {
		return in, err
	}
	if in.Pick, err = suction.ParsePick(cell("pick")); err != nil {
		return in, err
	}
	if in.Movement, err = suction.ParseMovement(cell("movement")); err != nil {
		return in, err
	}
	if in.SurfaceFactor, err = toFloat(cell("surface_factor")); err != nil {
		return in, err
	}
	if in.SafetyFactor, err = toFloat(cell("safety_factor")); err != nil {
		return in, err
	}
	return in, nil
}

func toFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
}
