// Package viz renders simulation timelines in the terminal.
//
// Trajectories are drawn on a braille [Canvas] (2x4 dots per cell) with one
// lipgloss pen per agent, series are charted with asciigraph, and [Model]
// is a Bubble Tea program that steps a live simulation.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	N     - Single iteration while paused
//	Q     - Quit
package viz
