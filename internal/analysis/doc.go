// Package analysis extracts periodic structure from simulation timelines.
//
// Timelines are irregularly sampled, since every agent commits with its own
// random step. [Resample] reads them on a uniform grid so that [FFT] and
// [DominantPeriod] can be applied:
//
//	period, err := analysis.OrbitalPeriod(recs, dynamo.Planet, dynamo.Satellite, end, 1024)
package analysis
