// Package viz renders chase episodes in the terminal.
//
// The package implements a Bubble Tea viewer over a braille [Canvas]:
//
//   - [Model]: live episode or recorded replay with time travel
//   - [Canvas]: braille pixel grid with per-cell colour
//   - [RewardChart], [KillTimeline]: asciigraph charts for stored runs
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Restart the episode (live only)
//	T     - Cycle colour themes
//	+/-   - Faster/slower playback
//	?     - Show help overlay
//	[ ]   - Time travel (rewind/forward)
package viz
