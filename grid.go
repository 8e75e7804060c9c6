package tahti

import "math"

// beatSubdivisions are the candidate grid intervals below one bar, finest
// first, as fractions of a beat (1/16th note up to a half note in 4/4).
var beatSubdivisions = []float64{0.0625, 0.125, 0.25, 0.5, 1, 2}

// GridSecondsSteps are the candidate grid intervals for seconds-mode
// overlays, finest first. The three finest steps only ever win at extreme
// zoom levels.
var GridSecondsSteps = []float64{
	0.0001, 0.0002, 0.0005, 0.001, 0.002, 0.005, 0.01, 0.02, 0.05,
	0.1, 0.2, 0.25, 0.5, 1, 2, 5, 10, 15, 30, 60,
}

// gridAlignTolerance is the window around a grid boundary that still counts
// as on the boundary, a thousandth of a beat on either side.
const gridAlignTolerance = 1e-3

// FindBeatSubdivision returns the finest beat subdivision that spans at
// least minSpacing pixels at the given zoom, or 0 when even two beats are
// too narrow.
func FindBeatSubdivision(pixelsPerBeat, minSpacing float64) float64 {
	for _, sub := range beatSubdivisions {
		if sub*pixelsPerBeat >= minSpacing {
			return sub
		}
	}
	return 0
}

// FindBarMultiple returns the smallest power-of-two bar count whose width is
// at least minSpacing pixels at the given zoom.
func FindBarMultiple(pixelsPerBeat float64, beatsPerBar int, minSpacing float64) int {
	if pixelsPerBeat <= 0 || beatsPerBar <= 0 {
		return 1
	}
	barWidth := float64(beatsPerBar) * pixelsPerBeat
	mult := 1
	for float64(mult)*barWidth < minSpacing && mult < 1<<16 {
		mult *= 2
	}
	return mult
}

// GridInterval returns the grid spacing in beats for the given quantize
// setting. Manual mode converts the note fraction directly (1/8 is half a
// beat); auto mode picks the finest beat subdivision that stays readable at
// the current zoom and falls back to whole-bar multiples when zoomed far
// out.
func GridInterval(g GridQuantize, pixelsPerBeat float64, beatsPerBar int, minSpacing float64) float64 {
	if !g.Auto {
		return 4 * float64(g.Numerator) / float64(g.Denominator)
	}
	if sub := FindBeatSubdivision(pixelsPerBeat, minSpacing); sub > 0 {
		return sub
	}
	return float64(beatsPerBar * FindBarMultiple(pixelsPerBeat, beatsPerBar, minSpacing))
}

// GridAlignsWithBars reports whether grid lines at the given interval land
// on bar starts: either the interval spans whole bars or it divides the bar
// evenly.
func GridAlignsWithBars(intervalBeats, barLengthBeats float64) bool {
	if intervalBeats <= 0 || barLengthBeats <= 0 {
		return false
	}
	if intervalBeats >= barLengthBeats {
		return true
	}
	r := math.Mod(barLengthBeats, intervalBeats)
	return r < gridAlignTolerance || intervalBeats-r < gridAlignTolerance
}

// GridAlignsWithBeats reports whether grid lines at the given interval land
// on beat starts.
func GridAlignsWithBeats(intervalBeats float64) bool {
	return GridAlignsWithBars(intervalBeats, 1)
}

// ClassifyBeatPosition reports whether a position (in beats) sits on a bar
// start and on a beat start. The tolerance is two-sided, so a position a
// hair before a bar line still classifies as that bar line.
func ClassifyBeatPosition(beats, barLengthBeats float64) (isBar, isBeat bool) {
	if barLengthBeats > 0 {
		inBar := math.Mod(beats, barLengthBeats)
		isBar = inBar < gridAlignTolerance || barLengthBeats-inBar < gridAlignTolerance
	}
	inBeat := math.Mod(beats, 1)
	isBeat = inBeat < gridAlignTolerance || 1-inBeat < gridAlignTolerance
	return isBar, isBeat
}
