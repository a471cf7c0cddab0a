package chase

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// ResetParams configures initial-configuration sampling.
//
// With BlockAware unset sheep are resampled while closer than MinDistance to
// any wolf and blocks are placed without constraints. With BlockAware set the
// wolf-sheep test becomes inclusive (<=), blocks keep MinDistanceBlocks from
// each other and BlockSize from every edge, and a non-positive BlockSize
// removes the blocks entirely.
//
// MaxAttempts bounds each rejection loop; zero keeps sampling forever.
type ResetParams struct {
	NumWolves         int
	NumBlocks         int
	MapSize           float64
	MinDistance       float64
	MinDistanceBlocks float64
	BlockSize         float64
	BlockAware        bool
	MaxAttempts       int
}

type Resetter struct {
	params ResetParams
	pos    distuv.Uniform
	vel    distuv.Uniform
}

func NewResetter(p ResetParams, src rand.Source) *Resetter {
	return &Resetter{
		params: p,
		pos:    distuv.Uniform{Min: -p.MapSize, Max: p.MapSize, Src: src},
		vel:    distuv.Uniform{Min: 0, Max: 1, Src: src},
	}
}

// Roster returns the partition a Reset with numSheep will produce.
func (r *Resetter) Roster(numSheep int) Roster {
	blocks := r.params.NumBlocks
	if r.params.BlockAware && r.params.BlockSize <= 0 {
		blocks = 0
	}
	return Roster{NumWolves: r.params.NumWolves, NumSheep: numSheep, NumBlocks: blocks}
}

func (r *Resetter) Reset(numSheep int) (State, error) {
	if numSheep < 0 {
		return nil, fmt.Errorf("%w: negative sheep count %d", ErrConfiguration, numSheep)
	}
	roster := r.Roster(numSheep)

	wolves := make([]Vec2, roster.NumWolves)
	for i := range wolves {
		wolves[i] = r.samplePos()
	}
	sheep := make([]Vec2, roster.NumSheep)
	for i := range sheep {
		sheep[i] = r.samplePos()
	}
	blocks := make([]Vec2, roster.NumBlocks)
	for i := range blocks {
		blocks[i] = r.samplePos()
	}

	for i := range sheep {
		pos, err := r.resample(sheep[i], func(p Vec2) bool { return r.tooCloseToWolves(p, wolves) })
		if err != nil {
			return nil, fmt.Errorf("sheep %d: %w", i, err)
		}
		sheep[i] = pos
	}

	if r.params.BlockAware {
		for j := range blocks {
			pos, err := r.resample(blocks[j], func(p Vec2) bool { return r.badBlock(p, j, blocks) })
			if err != nil {
				return nil, fmt.Errorf("block %d: %w", j, err)
			}
			blocks[j] = pos
		}
	}

	state := make(State, 0, roster.NumEntities())
	for _, p := range wolves {
		state = append(state, EntityState{Pos: p})
	}
	for _, p := range sheep {
		state = append(state, EntityState{Pos: p, Vel: Vec2{r.vel.Rand(), r.vel.Rand()}})
	}
	for _, p := range blocks {
		state = append(state, EntityState{Pos: p})
	}
	return state, nil
}

func (r *Resetter) samplePos() Vec2 {
	return Vec2{round2(r.pos.Rand()), round2(r.pos.Rand())}
}

func (r *Resetter) resample(pos Vec2, reject func(Vec2) bool) (Vec2, error) {
	for attempt := 1; reject(pos); attempt++ {
		if r.params.MaxAttempts > 0 && attempt > r.params.MaxAttempts {
			return pos, fmt.Errorf("%w: no valid position after %d attempts", ErrConfiguration, r.params.MaxAttempts)
		}
		pos = r.samplePos()
	}
	return pos, nil
}

func (r *Resetter) tooCloseToWolves(p Vec2, wolves []Vec2) bool {
	for _, w := range wolves {
		d := p.Dist(w)
		if d < r.params.MinDistance || (r.params.BlockAware && d == r.params.MinDistance) {
			return true
		}
	}
	return false
}

func (r *Resetter) badBlock(p Vec2, self int, blocks []Vec2) bool {
	for k, b := range blocks {
		if k != self && p.Dist(b) <= r.params.MinDistanceBlocks {
			return true
		}
	}
	for _, c := range p {
		if r.params.MapSize-math.Abs(c) < r.params.BlockSize {
			return true
		}
	}
	return false
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
