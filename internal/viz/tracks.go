package viz

import (
	"fmt"
	"sort"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/nanosim/internal/dynamo"
	"github.com/san-kum/nanosim/internal/timeline"
)

// Tracks splits a timeline into per-agent trajectories. Records come
// ordered by lower bound and an agent's own records never overlap, so each
// track is in commit order, starting with the sentinel's initial state.
func Tracks(recs []timeline.Record) map[dynamo.AgentID][]dynamo.State {
	out := make(map[dynamo.AgentID][]dynamo.State)
	for _, rec := range recs {
		for id, st := range rec.Payload {
			out[id] = append(out[id], st)
		}
	}
	return out
}

// Fields are the per-state quantities that can be plotted.
var Fields = map[string]func(dynamo.State) float64{
	"x":         func(s dynamo.State) float64 { return s.X },
	"y":         func(s dynamo.State) float64 { return s.Y },
	"vx":        func(s dynamo.State) float64 { return s.VX },
	"vy":        func(s dynamo.State) float64 { return s.VY },
	"speed":     func(s dynamo.State) float64 { return s.Velocity().Norm() },
	"time_step": func(s dynamo.State) float64 { return s.TimeStep },
}

func FieldNames() []string {
	names := make([]string, 0, len(Fields))
	for k := range Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Series extracts one field along a track.
func Series(states []dynamo.State, field string) ([]float64, error) {
	f, ok := Fields[field]
	if !ok {
		return nil, fmt.Errorf("unknown field %q", field)
	}
	vals := make([]float64, len(states))
	for i, st := range states {
		vals[i] = f(st)
	}
	return vals, nil
}

// Separation is the distance between two tracks sampled at each of b's
// committed times, using a's latest state not after that time.
func Separation(a, b []dynamo.State) []float64 {
	var out []float64
	j := 0
	for _, sb := range b {
		for j+1 < len(a) && a[j+1].Time <= sb.Time {
			j++
		}
		if j >= len(a) {
			break
		}
		out = append(out, a[j].Position().Sub(sb.Position()).Norm())
	}
	return out
}

// Chart renders values as an ASCII line chart; empty input gives "".
func Chart(values []float64, caption string, width, height int) string {
	if len(values) == 0 {
		return ""
	}
	opts := []asciigraph.Option{asciigraph.Height(height), asciigraph.Caption(caption)}
	if width > 0 {
		opts = append(opts, asciigraph.Width(width))
	}
	return asciigraph.Plot(values, opts...)
}

// Orbits draws every track onto a fresh canvas, one pen per agent in
// sorted id order.
func Orbits(tracks map[dynamo.AgentID][]dynamo.State, width, height int) *Canvas {
	c := NewCanvas(width, height)
	b := Fit(tracks)
	for i, id := range sortedIDs(tracks) {
		c.Trace(b, tracks[id], i)
	}
	return c
}

func sortedIDs(tracks map[dynamo.AgentID][]dynamo.State) []dynamo.AgentID {
	ids := make([]dynamo.AgentID, 0, len(tracks))
	for id := range tracks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
