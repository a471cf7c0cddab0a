// Package export renders saved episodes as standalone SVG images.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/chasesim/internal/chase"
	"github.com/san-kum/chasesim/internal/viz"
)

// CanvasToSVG converts a Braille canvas to SVG, one circle per lit
// sub-pixel in the cell's colour.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2
	height := float64(canvas.Height) * scale * 4

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	pixelMap := [4][2]int{
		{0x01, 0x08},
		{0x02, 0x10},
		{0x04, 0x20},
		{0x40, 0x80},
	}
	dotRadius := scale * 0.4

	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			r := canvas.Grid[row][col]
			if r <= 0x2800 {
				continue
			}
			pattern := int(r - 0x2800)
			fill := string(canvas.Colors[row][col])
			if fill == "" {
				fill = "#00ff00"
			}

			baseX := float64(col) * scale * 2
			baseY := float64(row) * scale * 4
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&pixelMap[dy][dx] != 0 {
						cx := baseX + float64(dx)*scale + scale/2
						cy := baseY + float64(dy)*scale + scale/2
						fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\" fill=\"%s\"/>\n", cx, cy, dotRadius, fill)
					}
				}
			}
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// TrajectoryToSVG draws every agent's path over the episode, the blocks, and
// each entity at its final position. Sheep that were caught at some point
// get a marker where their streak first became non-zero.
func TrajectoryToSVG(sc *chase.Scene, frames []chase.State, mapSize float64, size int, theme viz.Theme) string {
	if len(frames) == 0 || mapSize <= 0 {
		return ""
	}
	r := sc.Roster
	scale := float64(size) / (2 * mapSize)
	px := func(p chase.Vec2) (float64, float64) {
		return (p[0] + mapSize) * scale, (mapSize - p[1]) * scale
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a" stroke="%s" stroke-width="2"/>
`, size, size, size, size, theme.Wall)

	last := frames[len(frames)-1]
	for _, id := range r.Blocks() {
		x, y := px(last[id].Pos)
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\" fill=\"%s\"/>\n", x, y, sc.Bodies[id].Size*scale, theme.Block)
	}

	for id := range r.NumAgents() {
		color := theme.Wolf
		if r.Kind(id) == chase.Sheep {
			color = theme.Sheep
		}

		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" stroke-opacity="0.6" d="`, color)
		for i, s := range frames {
			x, y := px(s[id].Pos)
			if i == 0 {
				fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			}
		}
		sb.WriteString("\"/>\n")

		x, y := px(last[id].Pos)
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\" fill=\"%s\"/>\n", x, y, sc.Bodies[id].Size*scale, color)

		if r.Kind(id) == chase.Sheep {
			if tick := firstCaught(frames, id); tick >= 0 {
				cx, cy := px(frames[tick][id].Pos)
				fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\" fill=\"none\" stroke=\"%s\" stroke-width=\"2\"/>\n",
					cx, cy, sc.Bodies[id].Size*scale*1.5, theme.Accent)
			}
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func firstCaught(frames []chase.State, id int) int {
	for i, s := range frames {
		if s[id].Streak > 0 {
			return i
		}
	}
	return -1
}
