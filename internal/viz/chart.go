package viz

import (
	"github.com/guptarohit/asciigraph"
)

// RewardChart plots team rewards per tick for both sides.
func RewardChart(wolf, sheep []float64, w, h int) string {
	series := make([][]float64, 0, 2)
	legends := make([]string, 0, 2)
	colors := make([]asciigraph.AnsiColor, 0, 2)
	if len(wolf) > 0 {
		series = append(series, wolf)
		legends = append(legends, "wolves")
		colors = append(colors, asciigraph.Red)
	}
	if len(sheep) > 0 {
		series = append(series, sheep)
		legends = append(legends, "sheep")
		colors = append(colors, asciigraph.White)
	}
	if len(series) == 0 {
		return ""
	}
	return asciigraph.PlotMany(series,
		asciigraph.Height(h),
		asciigraph.Width(w),
		asciigraph.SeriesColors(colors...),
		asciigraph.SeriesLegends(legends...),
		asciigraph.Caption("team reward per tick"),
	)
}

// KillTimeline plots the cumulative kill count over ticks.
func KillTimeline(ticks int, killTicks []int, w, h int) string {
	if ticks <= 0 {
		return ""
	}
	perTick := make([]float64, ticks)
	for _, t := range killTicks {
		if t >= 0 && t < ticks {
			perTick[t]++
		}
	}
	cum := make([]float64, ticks)
	total := 0.0
	for i, k := range perTick {
		total += k
		cum[i] = total
	}
	return asciigraph.Plot(cum, asciigraph.Height(h), asciigraph.Width(w), asciigraph.Caption("cumulative kills"))
}
