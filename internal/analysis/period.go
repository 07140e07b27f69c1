package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/nanosim/internal/dynamo"
	"github.com/san-kum/nanosim/internal/timeline"
)

var ErrNoPeriod = errors.New("no periodic component")

// Resample reads the universe at n evenly spaced times in [from, to). The
// timeline is piecewise constant, so each sample is the state committed
// for the interval covering that instant.
func Resample(r *timeline.Reader, from, to float64, n int) []dynamo.Universe {
	out := make([]dynamo.Universe, n)
	dt := (to - from) / float64(n)
	for i := range out {
		out[i] = r.Read(from + float64(i)*dt)
	}
	return out
}

// DominantPeriod returns the period of the strongest non-constant
// component of samples taken every dt. The peak bin is refined by
// parabolic interpolation.
func DominantPeriod(samples []float64, dt float64) (float64, error) {
	if len(samples) < 4 || !(dt > 0) {
		return 0, fmt.Errorf("need at least 4 samples and dt > 0: %w", ErrNoPeriod)
	}

	mean := 0.0
	for _, v := range samples {
		mean += v
	}
	mean /= float64(len(samples))
	centered := make([]float64, len(samples))
	for i, v := range samples {
		centered[i] = v - mean
	}

	ps := PowerSpectrum(centered)
	n := 2 * len(ps)
	peak := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[peak] {
			peak = k
		}
	}
	if ps[peak] < 1e-12 {
		return 0, ErrNoPeriod
	}

	bin := float64(peak)
	if peak+1 < len(ps) {
		a, b, c := ps[peak-1], ps[peak], ps[peak+1]
		if den := a - 2*b + c; den != 0 {
			bin += 0.5 * (a - c) / den
		}
	}
	// zero padding stretches the window to n samples
	return float64(n) * dt / bin, nil
}

// OrbitalPeriod estimates the period of dep around ref from a timeline,
// using dep's x offset from ref sampled on a uniform grid over [0, end).
// Samples where either agent is missing end the series.
func OrbitalPeriod(recs []timeline.Record, ref, dep dynamo.AgentID, end float64, n int) (float64, error) {
	if !(end > 0) || math.IsInf(end, 1) {
		return 0, fmt.Errorf("end %g: %w", end, dynamo.ErrInvalidRange)
	}
	st, err := timeline.Rebuild(recs)
	if err != nil {
		return 0, err
	}

	dt := end / float64(n)
	var xs []float64
	for _, u := range Resample(timeline.NewReader(st), 0, end, n) {
		a, okA := u[ref]
		b, okB := u[dep]
		if !okA || !okB {
			break
		}
		xs = append(xs, b.X-a.X)
	}
	return DominantPeriod(xs, dt)
}
