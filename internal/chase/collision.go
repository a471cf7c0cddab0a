package chase

import "math"

const (
	DefaultContactMargin = 0.001
	DefaultContactForce  = 100.0
)

// Contact is the soft-penalty contact model. The repulsion never vanishes:
// it decays smoothly with separation and grows sharply on interpenetration.
type Contact struct {
	Margin float64 `yaml:"margin"`
	Force  float64 `yaml:"force"`
}

func DefaultContact() Contact {
	return Contact{Margin: DefaultContactMargin, Force: DefaultContactForce}
}

// Between returns the force on each entity of the pair; nil marks an
// immovable entity. The two forces are equal and opposite.
func (c Contact) Between(pos1, pos2 Vec2, size1, size2 float64, movable1, movable2 bool) (*Vec2, *Vec2) {
	diff := pos1.Sub(pos2)
	dist := diff.Norm()
	minDist := size1 + size2
	penetration := softplus(-(dist-minDist)/c.Margin) * c.Margin

	force := diff.Scale(c.Force / dist * penetration)

	var f1, f2 *Vec2
	if movable1 {
		f1 = &force
	}
	if movable2 {
		neg := force.Scale(-1)
		f2 = &neg
	}
	return f1, f2
}

// softplus computes log(1+e^x) as logaddexp(0, x).
func softplus(x float64) float64 {
	if x > 0 {
		return x + math.Log1p(math.Exp(-x))
	}
	return math.Log1p(math.Exp(x))
}

// Killzone decides collisions for capture and reward purposes: two disks
// collide when closer than the sum of their radii times Ratio.
type Killzone struct {
	Ratio float64 `yaml:"ratio"`
}

func DefaultKillzone() Killzone { return Killzone{Ratio: 1.0} }

func (k Killzone) Collides(pos1, pos2 Vec2, size1, size2 float64) bool {
	return pos1.Dist(pos2) < (size1+size2)*k.Ratio
}
