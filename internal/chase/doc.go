// Package chase implements the wolf/sheep pursuit world: a discrete-time,
// continuous-space simulator of point-mass disks in a square arena.
//
// The package is organized around a single tick:
//
//   - [ActionForce]: writes agent control forces into an [Accumulator]
//   - [Contact]: smooth pairwise repulsion accumulated by [ApplyEnvironmentForce]
//   - [Integrator]: damped semi-implicit Euler step with per-entity speed caps
//   - [Boundary]: reflective arena walls
//   - [CaptureTracker]: consecutive-capture streaks and kill events for sheep
//
// [RewardPolicy] implementations and [Observer] consume the resulting states.
// [Env] wires the pieces into the Reset/Step/Observe/Reward surface.
//
// # Example
//
//	env, _ := chase.NewEnv(chase.DefaultParams(), 42, wolfReward)
//	s, _ := env.Reset(2)
//	next, kills, _ := env.Step(s, wolfActions, sheepActions)
//	r, _ := env.Reward(wolfReward, s, chase.JoinActions(wolfActions, sheepActions), next)
//
// # Thread Safety
//
// An [Env] owns its random source and capture table and is NOT safe for
// concurrent use. Run independent episodes on independent Env instances.
package chase
