package main

import "fmt"

// Falloff shape names accepted in tunables
const (
	FalloffFlat   = "flat"
	FalloffLinear = "linear"
	FalloffSmooth = "smooth"
)

// Falloff scales a radius write by normalized distance d from the centre (0 at centre, 1 at edge)
type Falloff func(d float64) float64

// ParseFalloff maps a tunable name to its shape. The empty name means flat.
func ParseFalloff(name string) (Falloff, error) {
	switch name {
	case "", FalloffFlat:
		return func(float64) float64 { return 1 }, nil
	case FalloffLinear:
		return func(d float64) float64 { return 1 - Clamp(d, 0, 1) }, nil
	case FalloffSmooth:
		return func(d float64) float64 {
			d = Clamp(d, 0, 1)
			return 1 - d*d*(3-2*d)
		}, nil
	}
	return nil, fmt.Errorf("unknown falloff %q (want %s, %s or %s)", name, FalloffFlat, FalloffLinear, FalloffSmooth)
}

// FalloffFunc is ParseFalloff for names known to be valid
func FalloffFunc(name string) Falloff {
	f, err := ParseFalloff(name)
	if err != nil {
		panic(err)
	}
	return f
}
