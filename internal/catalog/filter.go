package catalog

import (
	"fmt"
	"strings"
)

// Unselected is the dropdown placeholder; it counts as no selection.
const Unselected = "Seleccionar"

// UpperBandFraction is the headroom allowed above the required force under
// PolicyUpperBand20.
const UpperBandFraction = 0.20

func UpperBound(required float64) float64 {
	return required + required*UpperBandFraction
}

type TolerancePolicy string

const (
	PolicyNone        TolerancePolicy = "none"
	PolicyUpperBand20 TolerancePolicy = "upper_band_20"
)

func ParsePolicy(s string) (TolerancePolicy, error) {
	switch TolerancePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyNone:
		return PolicyNone, nil
	case PolicyUpperBand20, "band20":
		return PolicyUpperBand20, nil
	}
	return "", fmt.Errorf("unknown tolerance policy %q", s)
}

type Criteria struct {
	RequiredForce float64 `json:"required_force"`
	Material      string  `json:"material,omitempty"`
	Surface       string  `json:"surface,omitempty"`
	Application   string  `json:"application,omitempty"`
}

type predicate func(Row) bool

// Filter keeps the rows that satisfy every active criterion, in catalog
// order. The receiver is not modified.
func (c Catalog) Filter(crit Criteria, policy TolerancePolicy) Catalog {
	var preds []predicate

	if c.HasColumn(ColSuctionForce) {
		lo := crit.RequiredForce
		hi := UpperBound(lo)
		banded := policy == PolicyUpperBand20
		preds = append(preds, func(r Row) bool {
			if r.SuctionForce == nil {
				return false
			}
			f := *r.SuctionForce
			return f >= lo && (!banded || f <= hi)
		})
	}
	if p := contains(c, ColMaterial, crit.Material, func(r Row) *string { return r.Material }); p != nil {
		preds = append(preds, p)
	}
	if p := contains(c, ColSurface, crit.Surface, func(r Row) *string { return r.Surface }); p != nil {
		preds = append(preds, p)
	}
	if p := contains(c, ColApplications, crit.Application, func(r Row) *string { return r.Applications }); p != nil {
		preds = append(preds, p)
	}

	out := Catalog{Columns: c.Columns, known: c.known}
	if len(preds) == 0 {
		out.Rows = make([]Row, len(c.Rows))
		copy(out.Rows, c.Rows)
		return out
	}
	out.Rows = make([]Row, 0)
	for _, r := range c.Rows {
		if matchAll(preds, r) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// contains builds a case-insensitive substring predicate, or nil when the
// selection is empty or the column is absent.
func contains(c Catalog, column, want string, field func(Row) *string) predicate {
	want = strings.TrimSpace(want)
	if !Selected(want) || !c.HasColumn(column) {
		return nil
	}
	needle := strings.ToLower(want)
	return func(r Row) bool {
		v := field(r)
		return v != nil && strings.Contains(strings.ToLower(*v), needle)
	}
}

func matchAll(preds []predicate, r Row) bool {
	for _, p := range preds {
		if !p(r) {
			return false
		}
	}
	return true
}

func Selected(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != Unselected
}
