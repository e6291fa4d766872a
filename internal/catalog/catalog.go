package catalog

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Canonical column names. Spreadsheets may use the aliases in columnAliases.
const (
	ColSuctionForce = "suction_force"
	ColMaterial     = "material"
	ColSurface      = "surface"
	ColApplications = "applications"
)

var columnAliases = map[string]string{
	"fuerza_succion": ColSuctionForce,
	"superficie":     ColSurface,
	"aplicaciones":   ColApplications,
}

// Row is one product. Nil fields are empty or unreadable cells.
type Row struct {
	SuctionForce *float64          `json:"suction_force"`
	Material     *string           `json:"material"`
	Surface      *string           `json:"surface"`
	Applications *string           `json:"applications"`
	Attributes   map[string]string `json:"attributes"`
}

// Catalog is read-only reference data: lower-cased source column names in
// sheet order plus the rows.
type Catalog struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
	known   map[string]bool
}

func (c Catalog) Len() int { return len(c.Rows) }

// HasColumn reports whether a canonical column was present in the source.
func (c Catalog) HasColumn(name string) bool { return c.known[name] }

// New builds a catalog from already parsed rows.
func New(columns []string, rows []Row) Catalog {
	known := make(map[string]bool)
	for _, h := range columns {
		switch c := canonicalName(strings.ToLower(strings.TrimSpace(h))); c {
		case ColSuctionForce, ColMaterial, ColSurface, ColApplications:
			known[c] = true
		}
	}
	return Catalog{Columns: columns, Rows: rows, known: known}
}

// FromTable builds a catalog from a header row followed by data rows, the
// shape returned by spreadsheet and SQL readers. Short rows are padded.
// Blank headers are dropped, and when two headers name the same column
// (an alias included) the leftmost one wins.
func FromTable(table [][]string) Catalog {
	if len(table) == 0 {
		return Catalog{known: map[string]bool{}}
	}
	type column struct {
		index     int
		name      string
		canonical string
	}
	var cols []column
	seen := make(map[string]bool)
	known := make(map[string]bool)
	for i, h := range table[0] {
		h = strings.ToLower(strings.TrimSpace(h))
		c := canonicalName(h)
		if h == "" || seen[c] {
			continue
		}
		seen[c] = true
		cols = append(cols, column{index: i, name: h, canonical: c})
		switch c {
		case ColSuctionForce, ColMaterial, ColSurface, ColApplications:
			known[c] = true
		}
	}

	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.name
	}
	rows := make([]Row, 0, len(table)-1)
	for _, cells := range table[1:] {
		if blank(cells) {
			continue
		}
		row := Row{Attributes: make(map[string]string, len(cols))}
		for _, c := range cols {
			cell := ""
			if c.index < len(cells) {
				cell = strings.TrimSpace(cells[c.index])
			}
			row.Attributes[c.name] = cell
			row.set(c.canonical, cell)
		}
		rows = append(rows, row)
	}
	return Catalog{Columns: header, Rows: rows, known: known}
}

func (r *Row) set(column, cell string) {
	if cell == "" {
		return
	}
	switch column {
	case ColSuctionForce:
		if v, err := parseNumber(cell); err == nil {
			r.SuctionForce = &v
		}
	case ColMaterial:
		r.Material = &cell
	case ColSurface:
		r.Surface = &cell
	case ColApplications:
		r.Applications = &cell
	}
}

func canonicalName(h string) string {
	h = strings.ReplaceAll(h, " ", "_")
	if c, ok := columnAliases[h]; ok {
		return c
	}
	return h
}

var errNotFinite = errors.New("not a finite number")

// parseNumber accepts a decimal comma as exported by Spanish locales. Inf and
// NaN spellings are rejected.
func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		v, err = strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	}
	if err != nil {
		return 0, err
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, errNotFinite
	}
	return v, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
