// Package tahti contains the data model of a DAW arrangement timeline: the
// current zoom and scroll of the timeline view, the playhead and transport
// status, the time selection, the loop and punch regions, tempo and time
// signature, display options and the named arrangement sections. The model is
// a plain value; all the queries on it are pure functions. Mutation happens
// through the timeline package, which dispatches messages against a State and
// notifies the interested parties of what changed.
package tahti

import (
	"fmt"
	"image/color"
	"math"
	"slices"
)

// LeftPadding is the number of pixels reserved to the left of time zero, so
// that the zero position never sits glued to the viewport edge. All
// pixel<->time conversions account for it.
const LeftPadding = 23

// TimeDisplayMode selects how time positions are formatted and which snap
// grid table is used.
type TimeDisplayMode int

const (
	DisplaySeconds TimeDisplayMode = iota
	DisplayBarsBeats
)

type (
	// ZoomState is the horizontal and vertical magnification of the timeline
	// view, together with its scroll offsets and viewport size. HorizontalZoom
	// is in pixels per beat, so zooming is stable under tempo changes.
	ZoomState struct {
		HorizontalZoom float64
		VerticalZoom   float64
		ScrollX        int
		ScrollY        int
		ViewportWidth  int
		ViewportHeight int
	}

	// Playhead tracks two positions: EditPosition is where editing operations
	// and playback starts happen, PlaybackPosition is where the transport
	// currently is. While stopped the two are kept equal. EditPositionBeats
	// is the authoritative musical position; EditPosition is its cached
	// wall-clock value at the current tempo.
	Playhead struct {
		EditPosition      float64
		EditPositionBeats float64
		PlaybackPosition  float64
		Playing           bool `yaml:",omitempty"`
		Recording         bool `yaml:",omitempty"`
	}

	// TimeSelection is a time range over a set of tracks. An empty
	// TrackIndices means the selection covers all tracks. A selection can be
	// visually hidden (after creating a loop from it) while its data stays
	// intact.
	TimeSelection struct {
		StartTime      float64
		EndTime        float64
		StartBeats     float64
		EndBeats       float64
		TrackIndices   []int `yaml:",flow"`
		VisuallyHidden bool  `yaml:",omitempty"`
	}

	// LoopRegion is the transport loop range. Invalid (cleared) regions have
	// negative start times.
	LoopRegion struct {
		StartTime  float64
		EndTime    float64
		StartBeats float64
		EndBeats   float64
		Enabled    bool `yaml:",omitempty"`
	}

	// PunchRegion is the punch-in/punch-out recording range, structurally a
	// loop region with separately toggleable ends.
	PunchRegion struct {
		StartTime  float64
		EndTime    float64
		StartBeats float64
		EndBeats   float64
		InEnabled  bool `yaml:",omitempty"`
		OutEnabled bool `yaml:",omitempty"`
	}

	// TempoState is the musical timebase: beats per minute and time
	// signature.
	TempoState struct {
		BPM                float64
		TimeSigNumerator   int
		TimeSigDenominator int
	}

	// GridQuantize selects the grid density: automatic (search for the
	// densest grid that stays readable at the current zoom) or a manual
	// note-value fraction.
	GridQuantize struct {
		Auto        bool
		Numerator   int
		Denominator int
	}

	// DisplayConfig holds the view options that affect formatting, snapping
	// and arrangement editing.
	DisplayConfig struct {
		TimeDisplayMode   TimeDisplayMode
		SnapEnabled       bool
		ArrangementLocked bool
		Grid              GridQuantize
	}

	// Section is a named, coloured arrangement region (intro, verse, ...).
	Section struct {
		StartTime float64
		EndTime   float64
		Name      string
		Colour    color.NRGBA `yaml:",flow"`
	}

	// State is the whole timeline model. It is a value: Copy returns a deep
	// copy and the undo history stores full copies.
	State struct {
		TimelineLength     float64
		EditCursorPosition float64
		Zoom               ZoomState
		Playhead           Playhead
		Selection          TimeSelection
		Loop               LoopRegion
		Punch              PunchRegion
		Tempo              TempoState
		Display            DisplayConfig
		Sections           []Section `yaml:",omitempty"`
		SelectedSection    int
	}
)

// DefaultSectionColour is used when a section is added without a colour.
var DefaultSectionColour = color.NRGBA{B: 0xFF, A: 0xFF}

// NewState returns a State with the built-in defaults: a five minute
// timeline at 120 BPM in 4/4, 10 pixels per beat in an 800x600 viewport,
// bars.beats display with snapping on and no selection, loop, punch or
// sections.
func NewState() State {
	return State{
		TimelineLength:     300,
		EditCursorPosition: -1,
		Zoom: ZoomState{
			HorizontalZoom: 10,
			VerticalZoom:   1,
			ViewportWidth:  800,
			ViewportHeight: 600,
		},
		Selection: TimeSelection{StartTime: -1, EndTime: -1, StartBeats: -1, EndBeats: -1},
		Loop:      LoopRegion{StartTime: -1, EndTime: -1, StartBeats: -1, EndBeats: -1},
		Punch:     PunchRegion{StartTime: -1, EndTime: -1, StartBeats: -1, EndBeats: -1},
		Tempo:     TempoState{BPM: 120, TimeSigNumerator: 4, TimeSigDenominator: 4},
		Display: DisplayConfig{
			TimeDisplayMode:   DisplayBarsBeats,
			SnapEnabled:       true,
			ArrangementLocked: true,
			Grid:              GridQuantize{Auto: true, Numerator: 1, Denominator: 4},
		},
		SelectedSection: -1,
	}
}

// Copy returns a deep copy of the state.
func (s *State) Copy() State {
	c := *s
	c.Selection.TrackIndices = slices.Clone(s.Selection.TrackIndices)
	c.Sections = slices.Clone(s.Sections)
	return c
}

// CurrentPosition is the position a position display should show: the
// playback position while playing, the edit position otherwise.
func (p *Playhead) CurrentPosition() float64 {
	if p.Playing {
		return p.PlaybackPosition
	}
	return p.EditPosition
}

// Active reports whether the selection holds a non-empty range.
func (t *TimeSelection) Active() bool {
	return t.StartTime >= 0 && t.EndTime > t.StartTime
}

// VisuallyActive reports whether the selection should be drawn.
func (t *TimeSelection) VisuallyActive() bool {
	return t.Active() && !t.VisuallyHidden
}

// AllTracks reports whether the selection spans every track.
func (t *TimeSelection) AllTracks() bool {
	return len(t.TrackIndices) == 0
}

// IncludesTrack reports whether the given track is part of the selection.
func (t *TimeSelection) IncludesTrack(track int) bool {
	return len(t.TrackIndices) == 0 || slices.Contains(t.TrackIndices, track)
}

func (t *TimeSelection) Duration() float64 {
	if !t.Active() {
		return 0
	}
	return t.EndTime - t.StartTime
}

// Clear resets the selection, including the visually-hidden flag.
func (t *TimeSelection) Clear() {
	*t = TimeSelection{StartTime: -1, EndTime: -1, StartBeats: -1, EndBeats: -1}
}

func (t *TimeSelection) HideVisually() { t.VisuallyHidden = true }
func (t *TimeSelection) ShowVisually() { t.VisuallyHidden = false }

// Valid reports whether the loop region holds a non-empty range.
func (l *LoopRegion) Valid() bool {
	return l.StartTime >= 0 && l.EndTime > l.StartTime
}

func (l *LoopRegion) Duration() float64 {
	if !l.Valid() {
		return 0
	}
	return l.EndTime - l.StartTime
}

func (l *LoopRegion) Clear() {
	*l = LoopRegion{StartTime: -1, EndTime: -1, StartBeats: -1, EndBeats: -1}
}

// Valid reports whether the punch region holds a non-empty range.
func (p *PunchRegion) Valid() bool {
	return p.StartTime >= 0 && p.EndTime > p.StartTime
}

func (p *PunchRegion) Duration() float64 {
	if !p.Valid() {
		return 0
	}
	return p.EndTime - p.StartTime
}

func (p *PunchRegion) Clear() {
	*p = PunchRegion{StartTime: -1, EndTime: -1, StartBeats: -1, EndBeats: -1}
}

// Enabled reports whether at least one side of the punch is armed.
func (p *PunchRegion) Enabled() bool {
	return p.InEnabled || p.OutEnabled
}

// SecondsPerBeat returns the wall-clock length of one beat, or 0 for a
// non-positive BPM.
func (t *TempoState) SecondsPerBeat() float64 {
	if t.BPM <= 0 {
		return 0
	}
	return 60.0 / t.BPM
}

func (t *TempoState) SecondsPerBar() float64 {
	return t.SecondsPerBeat() * float64(t.TimeSigNumerator)
}

// TimeToBars converts a time to a fractional bar count.
func (t *TempoState) TimeToBars(seconds float64) float64 {
	bar := t.SecondsPerBar()
	if bar <= 0 {
		return 0
	}
	return seconds / bar
}

// BarsToTime converts a fractional bar count to a time.
func (t *TempoState) BarsToTime(bars float64) float64 {
	return bars * t.SecondsPerBar()
}

func (s *Section) Duration() float64 {
	return s.EndTime - s.StartTime
}

// SecondsToBeats converts a time to beats at the current tempo.
func (s *State) SecondsToBeats(seconds float64) float64 {
	return SecondsToBeats(seconds, s.Tempo.BPM)
}

// BeatsToSeconds converts beats to a time at the current tempo.
func (s *State) BeatsToSeconds(beats float64) float64 {
	return BeatsToSeconds(beats, s.Tempo.BPM)
}

// PixelToTime converts a viewport x coordinate to a time, accounting for
// scroll and the left padding. Returns 0 when the zoom is degenerate.
func (s *State) PixelToTime(pixel int) float64 {
	z := s.Zoom.HorizontalZoom
	if z <= 0 {
		return 0
	}
	beats := float64(pixel+s.Zoom.ScrollX-LeftPadding) / z
	return BeatsToSeconds(beats, s.Tempo.BPM)
}

// PixelToTimeLocal converts a content x coordinate (no scroll applied) to a
// time.
func (s *State) PixelToTimeLocal(pixel int) float64 {
	z := s.Zoom.HorizontalZoom
	if z <= 0 {
		return 0
	}
	beats := float64(pixel-LeftPadding) / z
	return BeatsToSeconds(beats, s.Tempo.BPM)
}

// TimeToPixel converts a time to a viewport x coordinate.
func (s *State) TimeToPixel(t float64) int {
	beats := SecondsToBeats(t, s.Tempo.BPM)
	return int(beats*s.Zoom.HorizontalZoom) + LeftPadding - s.Zoom.ScrollX
}

// TimeToPixelLocal converts a time to a content x coordinate (no scroll).
func (s *State) TimeToPixelLocal(t float64) int {
	beats := SecondsToBeats(t, s.Tempo.BPM)
	return int(beats*s.Zoom.HorizontalZoom) + LeftPadding
}

// TimeDurationToPixels converts a duration to a pixel width.
func (s *State) TimeDurationToPixels(d float64) int {
	beats := SecondsToBeats(d, s.Tempo.BPM)
	return int(beats * s.Zoom.HorizontalZoom)
}

// SnapTimeToGrid rounds a time to the nearest grid line when snapping is
// enabled, otherwise returns it unchanged.
func (s *State) SnapTimeToGrid(t float64) float64 {
	if !s.Display.SnapEnabled {
		return t
	}
	return SnapToGrid(t, s.SnapInterval())
}

// snapSecondsSteps are the candidate snap intervals in seconds display mode,
// finest first.
var snapSecondsSteps = []float64{
	0.001, 0.002, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.25, 0.5,
	1, 2, 5, 10, 15, 30, 60,
}

// minSnapPixelSpacing is the narrowest a snap interval may appear on screen
// before the next coarser one is chosen.
const minSnapPixelSpacing = 50

// SnapInterval returns the current snap interval in seconds: the finest step
// of the active display mode's table that still spans at least 50 pixels at
// the current zoom.
func (s *State) SnapInterval() float64 {
	if s.Display.TimeDisplayMode == DisplaySeconds {
		for _, step := range snapSecondsSteps {
			if s.TimeDurationToPixels(step) >= minSnapPixelSpacing {
				return step
			}
		}
		return 1
	}
	for _, fraction := range beatSubdivisions {
		if s.Zoom.HorizontalZoom*fraction >= minSnapPixelSpacing {
			return s.Tempo.SecondsPerBeat() * fraction
		}
	}
	return s.Tempo.SecondsPerBar()
}

// FormatTimePosition renders a time for the ruler and position displays. In
// seconds mode the precision drops as the value grows; in bars.beats mode the
// format is 1-indexed bar.beat.subdivision with sixteenth subdivisions.
func (s *State) FormatTimePosition(t float64) string {
	if s.Display.TimeDisplayMode == DisplaySeconds {
		switch {
		case t < 10:
			return fmt.Sprintf("%.1fs", t)
		case t < 60:
			return fmt.Sprintf("%.0fs", t)
		default:
			return fmt.Sprintf("%d:%02d", int(t)/60, int(t)%60)
		}
	}
	totalBeats := SecondsToBeats(t, s.Tempo.BPM)
	num := float64(s.Tempo.TimeSigNumerator)
	bar := int(totalBeats/num) + 1
	beat := int(math.Mod(totalBeats, num)) + 1
	subdivision := int(math.Mod(totalBeats, 1)*4) + 1
	return fmt.Sprintf("%d.%d.%d", bar, beat, subdivision)
}

// ContentWidth is the pixel width of the scrollable content, at least one and
// a half viewports so there is always room to scroll a little past the end.
func (s *State) ContentWidth() int {
	totalBeats := SecondsToBeats(s.TimelineLength, s.Tempo.BPM)
	w := int(totalBeats * s.Zoom.HorizontalZoom)
	if minWidth := s.Zoom.ViewportWidth * 3 / 2; w < minWidth {
		w = minWidth
	}
	return w
}

// MaxScrollX is the largest allowed horizontal scroll offset.
func (s *State) MaxScrollX() int {
	if m := s.ContentWidth() - s.Zoom.ViewportWidth; m > 0 {
		return m
	}
	return 0
}

// MinZoom is the lowest sensible zoom for the current timeline: a quarter of
// the ratio that would fit the whole timeline exactly in the viewport. The
// configured absolute floor is applied on top of this by the dispatcher.
func (s *State) MinZoom() float64 {
	totalBeats := SecondsToBeats(s.TimelineLength, s.Tempo.BPM)
	if totalBeats <= 0 || s.Zoom.ViewportWidth <= 0 {
		return 0.1
	}
	return 0.25 * float64(s.Zoom.ViewportWidth) / totalBeats
}
