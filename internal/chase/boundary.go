package chase

import "math"

// Boundary reflects entities that leave an axis-aligned box.
type Boundary struct {
	XMin, XMax float64
	YMin, YMax float64
}

// SquareBoundary is the [-half, half]^2 arena.
func SquareBoundary(half float64) Boundary {
	return Boundary{XMin: -half, XMax: half, YMin: -half, YMax: half}
}

// Reflect mirrors each out-of-range coordinate about the crossed wall and
// points the matching velocity component back inside. A coordinate exactly on
// a wall maps to itself.
func (b Boundary) Reflect(pos, vel Vec2) (Vec2, Vec2) {
	pos[0], vel[0] = reflectAxis(pos[0], vel[0], b.XMin, b.XMax)
	pos[1], vel[1] = reflectAxis(pos[1], vel[1], b.YMin, b.YMax)
	return pos, vel
}

func reflectAxis(p, v, lo, hi float64) (float64, float64) {
	adjusted, vel := p, v
	if p >= hi {
		adjusted = 2*hi - p
		vel = -math.Abs(v)
	}
	if p <= lo {
		adjusted = 2*lo - p
		vel = math.Abs(v)
	}
	return adjusted, vel
}

// Apply reflects every entity; capture streaks pass through untouched.
func (b Boundary) Apply(s State) State {
	out := make(State, len(s))
	for id, e := range s {
		e.Pos, e.Vel = b.Reflect(e.Pos, e.Vel)
		out[id] = e
	}
	return out
}
