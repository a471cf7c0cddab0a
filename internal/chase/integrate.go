package chase

const (
	DefaultDamping = 0.25
	DefaultDt      = 0.05
)

// Integrator advances movable entities by one damped semi-implicit Euler step.
//
// CapUsesPreDampingVelocity selects which speed the cap compares against.
// Unset, the damped and forced velocity is tested and rescaled to exactly
// MaxSpeed. Set, the incoming velocity is tested and the new velocity is
// divided by that incoming speed, so the result is not exactly MaxSpeed.
// Both behaviours exist in trained policies and must stay reproducible.
type Integrator struct {
	Damping                   float64 `yaml:"damping"`
	Dt                        float64 `yaml:"dt"`
	CapUsesPreDampingVelocity bool    `yaml:"cap_uses_pre_damping_velocity"`
}

func DefaultIntegrator() Integrator {
	return Integrator{Damping: DefaultDamping, Dt: DefaultDt}
}

func (in Integrator) Integrate(acc *Accumulator, s State, bodies []Properties) State {
	next := make(State, len(s))
	for id, e := range s {
		body := bodies[id]
		if !body.Movable {
			next[id] = e
			continue
		}

		vel := e.Vel.Scale(1 - in.Damping)
		if f, ok := acc.At(id); ok {
			vel = vel.Add(f.Scale(in.Dt / body.Mass))
		}

		if body.Capped() {
			speed := vel.Norm()
			if in.CapUsesPreDampingVelocity {
				speed = e.Vel.Norm()
			}
			if speed > body.MaxSpeed {
				vel = vel.Scale(body.MaxSpeed / speed)
			}
		}

		next[id] = EntityState{
			Pos:    e.Pos.Add(vel.Scale(in.Dt)),
			Vel:    vel,
			Streak: e.Streak,
		}
	}
	return next
}
