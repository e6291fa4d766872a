package suction

import (
	"errors"
	"fmt"
	"strings"
)

const Gravity = 9.81

var (
	ErrInvalidAcceleration    = errors.New("acceleration cannot be 0")
	ErrUnsupportedCombination = errors.New("unsupported pick/movement combination")
)

type Pick string

const (
	PickVertical   Pick = "vertical"
	PickHorizontal Pick = "horizontal"
)

type Movement string

const (
	MovementVertical       Movement = "vertical"
	MovementHorizontal     Movement = "horizontal"
	MovementTwoDirRotation Movement = "two_directions_rotation"
)

type Input struct {
	MassKg           float64  `json:"mass_kg"`
	AccelerationMps2 float64  `json:"acceleration_mps2"`
	CupCount         int      `json:"cup_count"`
	SafetyFactor     float64  `json:"safety_factor"`
	SurfaceFactor    float64  `json:"surface_factor"`
	Pick             Pick     `json:"pick"`
	Movement         Movement `json:"movement"`
}

type Result struct {
	ForcePerCupN float64  `json:"force_per_cup_n"`
	TotalForceN  float64  `json:"total_force_n"`
	CupCount     int      `json:"cup_count"`
	Pick         Pick     `json:"pick"`
	Movement     Movement `json:"movement"`
	Notes        string   `json:"notes"`
}

type caseKey struct {
	pick     Pick
	movement Movement
}

// totalForce returns the holding force for all cups together.
type totalForce func(m, a, k, sf float64) float64

func accelPlusSlip(m, a, k, sf float64) float64 { return m * (a + Gravity/sf) * k }

func accelPlusGravity(m, a, k, _ float64) float64 { return m * (a + Gravity) * k }

func rotation(m, a, k, sf float64) float64 { return (m / sf) * (Gravity / a) * k }

var formulas = map[caseKey]totalForce{
	{PickVertical, MovementVertical}:         accelPlusSlip,
	{PickVertical, MovementHorizontal}:       accelPlusSlip,
	{PickVertical, MovementTwoDirRotation}:   rotation,
	{PickHorizontal, MovementVertical}:       accelPlusGravity,
	{PickHorizontal, MovementHorizontal}:     accelPlusSlip,
	{PickHorizontal, MovementTwoDirRotation}: rotation,
}

// ForcePerCup returns the required suction force per cup in newtons. Only a
// zero acceleration is rejected; callers validate the remaining bounds.
func ForcePerCup(in Input) (float64, error) {
	total, err := totalFor(in)
	if err != nil {
		return 0, err
	}
	return total / float64(in.CupCount), nil
}

func Calculate(in Input) (Result, error) {
	total, err := totalFor(in)
	if err != nil {
		return Result{}, err
	}
	return Result{
		ForcePerCupN: total / float64(in.CupCount),
		TotalForceN:  total,
		CupCount:     in.CupCount,
		Pick:         in.Pick,
		Movement:     in.Movement,
		Notes:        "Theoretical holding force per cup, safety factor included.",
	}, nil
}

func totalFor(in Input) (float64, error) {
	if in.AccelerationMps2 == 0 {
		return 0, ErrInvalidAcceleration
	}
	f, ok := formulas[caseKey{in.Pick, in.Movement}]
	if !ok {
		return 0, fmt.Errorf("%w: %s/%s", ErrUnsupportedCombination, in.Pick, in.Movement)
	}
	return f(in.MassKg, in.AccelerationMps2, in.SafetyFactor, in.SurfaceFactor), nil
}

// ParsePick accepts the canonical value or the form label ("Vertical").
func ParsePick(s string) (Pick, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vertical":
		return PickVertical, nil
	case "horizontal":
		return PickHorizontal, nil
	}
	return "", fmt.Errorf("unknown pick orientation %q", s)
}

// ParseMovement accepts the canonical value or a form label such as
// "Dirección Vertical" or "2 Direcciones y rotación".
func ParseMovement(s string) (Movement, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vertical", "dirección vertical", "direccion vertical":
		return MovementVertical, nil
	case "horizontal", "dirección horizontal", "direccion horizontal":
		return MovementHorizontal, nil
	case "two_directions_rotation", "2 direcciones y rotación", "2 direcciones y rotacion":
		return MovementTwoDirRotation, nil
	}
	return "", fmt.Errorf("unknown movement %q", s)
}
