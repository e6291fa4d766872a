package config

import (
	"fmt"
	"os"
	"strings"

	"Ventosa/internal/catalog"

	"gopkg.in/yaml.v3"
)

type Coefficient struct {
	Name  string  `yaml:"name" json:"name"`
	Value float64 `yaml:"value" json:"value"`
}

// Options holds the named coefficient tables and the catalog dropdown lists.
// Slices keep the presentation order.
type Options struct {
	SafetyFactors []Coefficient `yaml:"safety_factors" json:"safety_factors"`
	SurfaceTypes  []Coefficient `yaml:"surface_types" json:"surface_types"`
	Materials     []string      `yaml:"materials" json:"materials"`
	Surfaces      []string      `yaml:"surfaces" json:"surfaces"`
	Applications  []string      `yaml:"applications" json:"applications"`
}

func DefaultOptions() Options {
	return Options{
		SafetyFactors: []Coefficient{
			{Name: "Piezas críticas, heterogéneas o porosas", Value: 1.5},
			{Name: "Rugosas", Value: 2.0},
		},
		SurfaceTypes: []Coefficient{
			{Name: "Aceitada", Value: 0.1},
			{Name: "Mojada", Value: 0.2},
			{Name: "Madera, cristal, metal, piedra", Value: 0.5},
			{Name: "Rugosa", Value: 0.6},
		},
		Materials: []string{"NBR", "Silicona", "HT1", "Elastodur", "EPDM", "NK"},
		Surfaces:  []string{"Plana", "Irregular", "Curva", "Flexible"},
		Applications: []string{
			"Bolsas", "Capsulas", "Carton", "Chapa", "Chapa con fuerte abombamiento",
			"Con companesacion de altura", "Geometrias complejas", "Ligeramente rugosas",
			"Lisas", "Láminas", "Muy rugosas", "Papel", "Piezas alargadas",
			"Piezas estrechas", "Piezas estructuradas", "Plastico",
		},
	}
}

// LoadOptions reads a YAML option file. Sections missing from the file keep
// their defaults; an empty path returns the defaults.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	if path == "" {
		return opts, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("read options %s: %w", path, err)
	}
	var file Options
	if err := yaml.Unmarshal(data, &file); err != nil {
		return opts, fmt.Errorf("parse options %s: %w", path, err)
	}
	if len(file.SafetyFactors) > 0 {
		opts.SafetyFactors = file.SafetyFactors
	}
	if len(file.SurfaceTypes) > 0 {
		opts.SurfaceTypes = file.SurfaceTypes
	}
	if len(file.Materials) > 0 {
		opts.Materials = file.Materials
	}
	if len(file.Surfaces) > 0 {
		opts.Surfaces = file.Surfaces
	}
	if len(file.Applications) > 0 {
		opts.Applications = file.Applications
	}
	if err := opts.validate(); err != nil {
		return DefaultOptions(), fmt.Errorf("options %s: %w", path, err)
	}
	return opts, nil
}

func (o Options) validate() error {
	for _, c := range o.SurfaceTypes {
		if c.Value <= 0 {
			return fmt.Errorf("surface type %q must be positive", c.Name)
		}
	}
	for _, c := range o.SafetyFactors {
		if c.Value <= 0 {
			return fmt.Errorf("safety factor %q must be positive", c.Name)
		}
	}
	return nil
}

func (o Options) SafetyFactor(name string) (float64, bool) {
	return lookup(o.SafetyFactors, name)
}

func (o Options) SurfaceFactor(name string) (float64, bool) {
	return lookup(o.SurfaceTypes, name)
}

func lookup(table []Coefficient, name string) (float64, bool) {
	if !catalog.Selected(name) {
		return 0, false
	}
	name = strings.TrimSpace(name)
	for _, c := range table {
		if strings.EqualFold(c.Name, name) {
			return c.Value, true
		}
	}
	return 0, false
}
