package episode

import "math/rand/v2"

func newSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed*31+7)
}
