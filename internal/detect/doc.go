// Package detect turns per-video signal data or game event logs into a
// ranked, non-overlapping set of highlight windows.
//
// The signal path runs audio energy and motion energy through min-max
// normalization, a weighted composite score, and peak selection. The event
// path maps kill timestamps straight to windows and takes precedence
// whenever events are available. Both paths end in the same window builder,
// which centers, clamps, and de-overlaps the final clip list.
package detect
