package tahti

import (
	"fmt"
	"math"
)

// TicksPerBeat is the sub-beat resolution used by tick queries and
// bars.beats.ticks formatting, matching standard MIDI resolution.
const TicksPerBeat = 480

// BeatsToSeconds converts a beat count to a time. Non-positive tempos map
// everything to 0 rather than dividing by zero.
func BeatsToSeconds(beats, bpm float64) float64 {
	if bpm <= 0 {
		return 0
	}
	return beats * 60.0 / bpm
}

// SecondsToBeats converts a time to a beat count. Non-positive tempos map
// everything to 0.
func SecondsToBeats(seconds, bpm float64) float64 {
	if bpm <= 0 {
		return 0
	}
	return seconds * bpm / 60.0
}

// BarNumber returns the 1-indexed bar containing the given time.
func BarNumber(seconds, bpm float64, beatsPerBar int) int {
	beats := SecondsToBeats(seconds, bpm)
	return int(beats/float64(beatsPerBar)) + 1
}

// BeatInBar returns the 1-indexed beat within its bar at the given time.
func BeatInBar(seconds, bpm float64, beatsPerBar int) int {
	beats := SecondsToBeats(seconds, bpm)
	return int(math.Mod(beats, float64(beatsPerBar))) + 1
}

// BarStartTime returns the time at which the 1-indexed bar starts.
func BarStartTime(bar int, bpm float64, beatsPerBar int) float64 {
	return BeatsToSeconds(float64((bar-1)*beatsPerBar), bpm)
}

// TickInBeat returns the 0-based tick within the current beat, in the range
// [0, TicksPerBeat).
func TickInBeat(seconds, bpm float64) int {
	beats := SecondsToBeats(seconds, bpm)
	return int(math.Mod(beats, 1) * TicksPerBeat)
}

// FormatBarsBeats renders a position as 1-indexed "bar.beat.ticks", for
// example "1.1.000" or "4.3.240".
func FormatBarsBeats(seconds, bpm float64, beatsPerBar int) string {
	return fmt.Sprintf("%d.%d.%03d",
		BarNumber(seconds, bpm, beatsPerBar),
		BeatInBar(seconds, bpm, beatsPerBar),
		TickInBeat(seconds, bpm))
}

// FormatDurationBarsBeats renders a duration in prose, for example "2 bars",
// "1 bar 2 beats" or "0.50 beats" for sub-beat durations.
func FormatDurationBarsBeats(duration, bpm float64, beatsPerBar int) string {
	totalBeats := SecondsToBeats(duration, bpm)
	wholeBars := int(totalBeats / float64(beatsPerBar))
	wholeBeats := int(math.Mod(totalBeats, float64(beatsPerBar)))
	switch {
	case wholeBars > 0 && wholeBeats > 0:
		return fmt.Sprintf("%d bar%s %d beat%s",
			wholeBars, plural(wholeBars), wholeBeats, plural(wholeBeats))
	case wholeBars > 0:
		return fmt.Sprintf("%d bar%s", wholeBars, plural(wholeBars))
	case totalBeats >= 1:
		n := int(totalBeats)
		return fmt.Sprintf("%d beat%s", n, plural(n))
	default:
		return fmt.Sprintf("%.2f beats", totalBeats)
	}
}

// FormatDurationCompact renders a duration as "bars.beats" with one decimal
// of the beat remainder, for example "2.0.0" for two bars or "1.2.0" for a
// bar and two beats.
func FormatDurationCompact(duration, bpm float64, beatsPerBar int) string {
	totalBeats := SecondsToBeats(duration, bpm)
	wholeBars := int(totalBeats / float64(beatsPerBar))
	remaining := math.Mod(totalBeats, float64(beatsPerBar))
	return fmt.Sprintf("%d.%.1f", wholeBars, remaining)
}

// FormatBeatsAsBarsBeats renders a beat count as a 0-indexed
// "bars.beats.ticks" duration, for example "1.0.000" for one whole bar.
func FormatBeatsAsBarsBeats(totalBeats float64, beatsPerBar int) string {
	wholeBars := int(totalBeats / float64(beatsPerBar))
	remaining := math.Mod(totalBeats, float64(beatsPerBar))
	wholeBeats := int(remaining)
	ticks := int((remaining - float64(wholeBeats)) * TicksPerBeat)
	return fmt.Sprintf("%d.%d.%03d", wholeBars, wholeBeats, ticks)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// SnapToGrid rounds a time to the nearest multiple of the grid interval.
// Non-positive intervals leave the time unchanged.
func SnapToGrid(t, gridInterval float64) float64 {
	if gridInterval <= 0 {
		return t
	}
	return math.Round(t/gridInterval) * gridInterval
}

// WithinSnapRange reports whether t lies within threshold seconds of a grid
// line.
func WithinSnapRange(t, gridInterval, threshold float64) bool {
	if gridInterval <= 0 {
		return false
	}
	return math.Abs(SnapToGrid(t, gridInterval)-t) <= threshold
}

// MagneticSnap snaps t to the grid only when it is within threshold seconds
// of a grid line, otherwise returns it unchanged.
func MagneticSnap(t, gridInterval, threshold float64) float64 {
	if WithinSnapRange(t, gridInterval, threshold) {
		return SnapToGrid(t, gridInterval)
	}
	return t
}
