package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/nanosim/internal/dynamo"
	"github.com/san-kum/nanosim/internal/timeline"
	"github.com/san-kum/nanosim/internal/viz"
)

// Stroke colors match viz.Pens.
var strokes = []string{"#ffd700", "#00a8cc", "#ff6b6b", "#5fd068"}

func stroke(i int) string { return strokes[i%len(strokes)] }

// CanvasToSVG converts a Braille canvas to SVG format, one circle per lit
// dot colored by the pen that lit it.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2
	height := float64(canvas.Height) * scale * 4

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	bits := [4][2]int{
		{0x01, 0x08},
		{0x02, 0x10},
		{0x04, 0x20},
		{0x40, 0x80},
	}
	dotRadius := scale * 0.4

	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			pattern := int(canvas.Grid[row][col] - 0x2800)
			if pattern <= 0 {
				continue
			}
			fill := "#00ff00"
			if pen := canvas.Ink[row][col]; pen >= 0 {
				fill = stroke(pen)
			}
			baseX := float64(col) * scale * 2
			baseY := float64(row) * scale * 4
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&bits[dy][dx] == 0 {
						continue
					}
					cx := baseX + float64(dx)*scale + scale/2
					cy := baseY + float64(dy)*scale + scale/2
					sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>
`, cx, cy, dotRadius, fill))
				}
			}
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// TrajectoryToSVG draws every agent's committed path from a timeline, one
// colored polyline per agent in sorted id order. Returns "" if no agent
// has at least two states.
func TrajectoryToSVG(recs []timeline.Record, width, height int) string {
	tracks := viz.Tracks(recs)
	ids := make([]dynamo.AgentID, 0, len(tracks))
	for id, states := range tracks {
		if len(states) >= 2 {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return ""
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	b := viz.Fit(tracks)
	rangeX := b.MaxX - b.MinX
	rangeY := b.MaxY - b.MinY

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for i, id := range ids {
		sb.WriteString(fmt.Sprintf(`<path id="%s" fill="none" stroke="%s" stroke-width="1.5" d="M`, id, stroke(i)))
		for j, st := range tracks[id] {
			x := (st.X - b.MinX) / rangeX * float64(width)
			y := float64(height) - (st.Y-b.MinY)/rangeY*float64(height)
			if j == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString("</svg>")
	return sb.String()
}
