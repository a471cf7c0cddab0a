package chase

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// RawActionDim is the width of a raw action: (noop, +x, -x, +y, -y).
const RawActionDim = 5

// DefaultSensitivity scales raw actions when none is configured.
const DefaultSensitivity = 5.0

// Reshape turns a raw action into a planar force scaled by sensitivity.
func Reshape(raw []float64, sensitivity float64) (Vec2, error) {
	if len(raw) != RawActionDim {
		return Vec2{}, fmt.Errorf("%w: raw action has %d components, want %d", ErrDimensionMismatch, len(raw), RawActionDim)
	}
	return Vec2{raw[1] - raw[2], raw[3] - raw[4]}.Scale(sensitivity), nil
}

// Jitter perturbs an action with isotropic Gaussian noise centred on it.
type Jitter struct {
	normal distuv.Normal
}

func NewJitter(sigma float64, src rand.Source) *Jitter {
	return &Jitter{normal: distuv.Normal{Mu: 0, Sigma: sigma, Src: src}}
}

func (j *Jitter) Perturb(a Vec2) Vec2 {
	if j == nil || j.normal.Sigma == 0 {
		return a
	}
	return Vec2{a[0] + j.normal.Rand(), a[1] + j.normal.Rand()}
}

// JoinActions lays wolf and sheep actions out in entity ID order.
func JoinActions(wolves, sheep []Vec2) []Vec2 {
	out := make([]Vec2, 0, len(wolves)+len(sheep))
	out = append(out, wolves...)
	return append(out, sheep...)
}
