// Package metrics accumulates per-episode statistics from chase transitions.
// Every metric follows the same cycle: Reset, Observe once per tick, then
// Value.
package metrics
