package analysis

import (
	"errors"
	"math"

	"github.com/san-kum/nanosim/internal/dynamo"
)

var ErrNoOrbit = errors.New("no finite separations")

// Apsides are the closest and farthest separations seen along an orbit.
type Apsides struct {
	Periapsis, Apoapsis float64
}

// Observe widens the apsides to include r; first resets them to r.
func (a *Apsides) Observe(r float64, first bool) {
	if first {
		a.Periapsis, a.Apoapsis = r, r
		return
	}
	a.Periapsis = math.Min(a.Periapsis, r)
	a.Apoapsis = math.Max(a.Apoapsis, r)
}

// Eccentricity is (ra - rp) / (ra + rp); 0 for an empty orbit.
func (a Apsides) Eccentricity() float64 {
	sum := a.Apoapsis + a.Periapsis
	if !(sum > 0) {
		return 0
	}
	return (a.Apoapsis - a.Periapsis) / sum
}

// ApsidesOf scans separations, ignoring non-finite ones.
func ApsidesOf(distances []float64) (Apsides, error) {
	var a Apsides
	n := 0
	for _, r := range distances {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		a.Observe(r, n == 0)
		n++
	}
	if n == 0 {
		return Apsides{}, ErrNoOrbit
	}
	return a, nil
}

// Eccentricity estimates orbital eccentricity from the extreme separations.
func Eccentricity(distances []float64) (float64, error) {
	a, err := ApsidesOf(distances)
	if err != nil {
		return 0, err
	}
	return a.Eccentricity(), nil
}

// SpeedStats summarizes the average speed between consecutive states.
type SpeedStats struct {
	Mean, Max, Min float64
	Samples        int
	total          float64
}

// Add records |to - from| / (to.Time - from.Time). Pairs without a
// positive time gap or with a non-finite speed are ignored.
func (s *SpeedStats) Add(from, to dynamo.State) bool {
	dt := to.Time - from.Time
	if !(dt > 0) {
		return false
	}
	v := to.Position().Sub(from.Position()).Norm() / dt
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	if s.Samples == 0 {
		s.Max, s.Min = v, v
	} else {
		s.Max = math.Max(s.Max, v)
		s.Min = math.Min(s.Min, v)
	}
	s.total += v
	s.Samples++
	s.Mean = s.total / float64(s.Samples)
	return true
}

// Speeds runs SpeedStats over a track in commit order.
func Speeds(track []dynamo.State) SpeedStats {
	var s SpeedStats
	for i := 1; i < len(track); i++ {
		s.Add(track[i-1], track[i])
	}
	return s
}
