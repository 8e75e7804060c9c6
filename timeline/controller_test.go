package timeline_test

import (
	"math"
	"testing"

	"github.com/vsariola/tahti"
	"github.com/vsariola/tahti/config"
	"github.com/vsariola/tahti/timeline"
)

func newTestController() *timeline.Controller {
	return timeline.NewController(config.Default())
}

func closeEnough(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestControllerDefaults(t *testing.T) {
	c := newTestController()
	s := c.State()
	if s.TimelineLength != 300 {
		t.Errorf("TimelineLength = %v, want the configured 300", s.TimelineLength)
	}
	// the initial zoom fits the configured 60s view (120 beats) in the
	// 800 px viewport
	if !closeEnough(s.Zoom.HorizontalZoom, 800.0/120.0) {
		t.Errorf("HorizontalZoom = %v, want %v", s.Zoom.HorizontalZoom, 800.0/120.0)
	}
}

func TestSetZoomClamped(t *testing.T) {
	c := newTestController()
	c.Dispatch(timeline.SetZoomMsg{Zoom: 1e9})
	if got := c.State().Zoom.HorizontalZoom; got != 10000 {
		t.Errorf("zoom after huge request = %v, want the 10000 ceiling", got)
	}
	c.Dispatch(timeline.SetZoomMsg{Zoom: 1e-9})
	// the dynamic floor (a quarter of exact fit) is above the configured
	// 0.01 here: 800 px / 600 beats / 4
	if got := c.State().Zoom.HorizontalZoom; !closeEnough(got, 800.0/600.0/4) {
		t.Errorf("zoom after tiny request = %v, want %v", got, 800.0/600.0/4)
	}
}

func TestSetZoomIdempotent(t *testing.T) {
	c := newTestController()
	c.Dispatch(timeline.SetZoomMsg{Zoom: 50})
	var count counterListener
	c.AddListener(&count)
	c.Dispatch(timeline.SetZoomMsg{Zoom: 50})
	if count.calls != 0 {
		t.Errorf("dispatching the current zoom notified %d times, want 0", count.calls)
	}
	if c.CanUndo() {
		t.Error("a zoom dispatch grew the undo stack")
	}
}

func TestSetZoomAnchored(t *testing.T) {
	c := newTestController()
	const anchorTime, anchorX = 10.0, 400
	c.Dispatch(timeline.SetZoomAnchoredMsg{Zoom: 20, AnchorTime: anchorTime, AnchorScreenX: anchorX})
	s := c.State()
	if s.Zoom.HorizontalZoom != 20 {
		t.Fatalf("zoom = %v, want 20", s.Zoom.HorizontalZoom)
	}
	if got := s.TimeToPixel(anchorTime); got < anchorX-1 || got > anchorX+1 {
		t.Errorf("anchor moved: TimeToPixel(%v) = %v, want %v±1", anchorTime, got, anchorX)
	}
}

func TestSetZoomCentered(t *testing.T) {
	c := newTestController()
	const centerTime = 20.0
	c.Dispatch(timeline.SetZoomCenteredMsg{Zoom: 20, CenterTime: centerTime})
	s := c.State()
	want := s.Zoom.ViewportWidth / 2
	if got := s.TimeToPixel(centerTime); got < want-1 || got > want+1 {
		t.Errorf("TimeToPixel(center) = %v, want %v±1", got, want)
	}
}

func TestZoomToFit(t *testing.T) {
	c := newTestController()
	c.Dispatch(timeline.ZoomToFitMsg{StartTime: 10, EndTime: 20})
	s := c.State()
	// the range is 10s = 20 beats; no padding was asked for
	wantZoom := 800.0 / 20
	if !closeEnough(s.Zoom.HorizontalZoom, wantZoom) {
		t.Errorf("zoom = %v, want %v", s.Zoom.HorizontalZoom, wantZoom)
	}
	// the range start should sit just inside the left edge
	if px := s.TimeToPixel(10); px < tahti.LeftPadding || px > 100 {
		t.Errorf("range start at pixel %v, want it near the left edge", px)
	}
	// an empty range is a no-op
	before := s.Copy()
	c.Dispatch(timeline.ZoomToFitMsg{StartTime: 20, EndTime: 20})
	if c.State().Zoom != before.Zoom {
		t.Error("fitting an empty range changed the zoom")
	}
}

func TestZoomToFitUsesDefaultPadding(t *testing.T) {
	c := newTestController()
	c.Dispatch(timeline.ZoomToFitMsg{StartTime: 0, EndTime: 60, PaddingPercent: timeline.DefaultZoomPadding})
	wantZoom := 800.0 / (120 * 1.1)
	if got := c.State().Zoom.HorizontalZoom; !closeEnough(got, wantZoom) {
		t.Errorf("zoom = %v, want %v", got, wantZoom)
	}
}

func TestResetZoom(t *testing.T) {
	c := newTestController()
	c.Dispatch(timeline.SetZoomMsg{Zoom: 100})
	c.Dispatch(timeline.ScrollByDeltaMsg{DeltaX: 5000})
	c.Dispatch(timeline.ResetZoomMsg{})
	s := c.State()
	if s.Zoom.ScrollX != 0 {
		t.Errorf("scroll after reset = %v, want 0", s.Zoom.ScrollX)
	}
	wantZoom := (800.0 - tahti.LeftPadding) / 600.0
	if !closeEnough(s.Zoom.HorizontalZoom, wantZoom) {
		t.Errorf("zoom after reset = %v, want %v", s.Zoom.HorizontalZoom, wantZoom)
	}
}

func TestScrollClamping(t *testing.T) {
	c := newTestController()
	c.Dispatch(timeline.SetZoomMsg{Zoom: 10}) // content 6000 px, max scroll 5200
	c.Dispatch(timeline.SetScrollPositionMsg{ScrollX: 99999, ScrollY: -1})
	s := c.State()
	if s.Zoom.ScrollX != s.MaxScrollX() {
		t.Errorf("ScrollX = %v, want clamped to %v", s.Zoom.ScrollX, s.MaxScrollX())
	}
	c.Dispatch(timeline.SetScrollPositionMsg{ScrollX: 100, ScrollY: 40})
	c.Dispatch(timeline.SetScrollPositionMsg{ScrollX: 50, ScrollY: -1})
	if s.Zoom.ScrollY != 40 {
		t.Errorf("negative ScrollY overwrote the vertical scroll: %v", s.Zoom.ScrollY)
	}
	c.Dispatch(timeline.ScrollByDeltaMsg{DeltaX: -99999, DeltaY: -99999})
	if s.Zoom.ScrollX != 0 || s.Zoom.ScrollY != 0 {
		t.Errorf("scroll after big negative delta = (%v, %v), want (0, 0)", s.Zoom.ScrollX, s.Zoom.ScrollY)
	}
}

func TestScrollToTime(t *testing.T) {
	c := newTestController()
	c.Dispatch(timeline.SetZoomMsg{Zoom: 10})
	c.Dispatch(timeline.ScrollToTimeMsg{Time: 100, Center: true})
	s := c.State()
	want := s.Zoom.ViewportWidth / 2
	if got := s.TimeToPixel(100); got < want-1 || got > want+1 {
		t.Errorf("TimeToPixel(100) = %v, want %v±1 after centering scroll", got, want)
	}
}

func TestEditPlaybackCoupling(t *testing.T) {
	c := newTestController()
	c.Dispatch(timeline.SetEditPositionMsg{Position: 5})
	s := c.State()
	if s.Playhead.EditPosition != 5 || s.Playhead.PlaybackPosition != 5 {
		t.Fatalf("stopped positions = (%v, %v), want both 5", s.Playhead.EditPosition, s.Playhead.PlaybackPosition)
	}
	if !closeEnough(s.Playhead.EditPositionBeats, 10) {
		t.Errorf("EditPositionBeats = %v, want 10", s.Playhead.EditPositionBeats)
	}
	c.Dispatch(timeline.StartPlaybackMsg{})
	c.Dispatch(timeline.SetPlaybackPositionMsg{Position: 8})
	if s.Playhead.EditPosition != 5 {
		t.Errorf("edit position moved during playback: %v", s.Playhead.EditPosition)
	}
	if s.Playhead.PlaybackPosition != 8 {
		t.Errorf("playback position = %v, want 8", s.Playhead.PlaybackPosition)
	}
	c.Dispatch(timeline.StopPlaybackMsg{})
	if s.Playhead.Playing || s.Playhead.PlaybackPosition != 5 {
		t.Errorf("after stop: playing=%v playback=%v, want stopped at the edit position 5",
			s.Playhead.Playing, s.Playhead.PlaybackPosition)
	}
}

func TestStartPlaybackTwiceIsNoop(t *testing.T) {
	c := newTestController()
	c.Dispatch(timeline.StartPlaybackMsg{})
	var count counterListener
	c.AddListener(&count)
	c.Dispatch(timeline.StartPlaybackMsg{})
	if count.calls != 0 {
		t.Error("starting an already running transport notified listeners")
	}
	c.Dispatch(timeline.StopPlaybackMsg{})
	count.calls = 0
	c.Dispatch(timeline.StopPlaybackMsg{})
	if count.calls != 0 {
		t.Error("stopping an already stopped transport notified listeners")
	}
}

func TestStopDropsRecordArm(t *testing.T) {
	c := newTestController()
	c.Dispatch(timeline.StartRecordMsg{})
	c.Dispatch(timeline.StartPlaybackMsg{})
	if !c.State().Playhead.Recording {
		t.Fatal("record arm did not stick")
	}
	c.Dispatch(timeline.StopPlaybackMsg{})
	if c.State().Playhead.Recording {
		t.Error("stop should drop the record arm")
	}
}

func TestStartRecordToggles(t *testing.T) {
	c := newTestController()
	c.Dispatch(timeline.StartRecordMsg{})
	if !c.State().Playhead.Recording || c.State().Playhead.Playing {
		t.Error("record arm should toggle on without starting the transport")
	}
	c.Dispatch(timeline.StartRecordMsg{})
	if c.State().Playhead.Recording {
		t.Error("record arm should toggle back off")
	}
}

func TestMovePlayheadByDelta(t *testing.T) {
	c := newTestController()
	c.Dispatch(timeline.SetEditPositionMsg{Position: 5})
	c.Dispatch(timeline.MovePlayheadByDeltaMsg{DeltaSeconds: -10})
	s := c.State()
	if s.Playhead.EditPosition != 0 || s.Playhead.PlaybackPosition != 0 {
		t.Errorf("positions after moving past zero = (%v, %v), want (0, 0)",
			s.Playhead.EditPosition, s.Playhead.PlaybackPosition)
	}
	c.Dispatch(timeline.MovePlayheadByDeltaMsg{DeltaSeconds: 1e6})
	if s.Playhead.EditPosition != s.TimelineLength {
		t.Errorf("position after moving past the end = %v, want %v", s.Playhead.EditPosition, s.TimelineLength)
	}
}

func TestSetPlaybackState(t *testing.T) {
	c := newTestController()
	c.Dispatch(timeline.SetEditPositionMsg{Position: 12})
	c.Dispatch(timeline.SetPlaybackStateMsg{Playing: true, Recording: true})
	s := c.State()
	if !s.Playhead.Playing || !s.Playhead.Recording {
		t.Fatal("flags not applied")
	}
	if s.Playhead.PlaybackPosition != 12 {
		t.Errorf("playback position = %v, want synced to the edit position 12", s.Playhead.PlaybackPosition)
	}
	var count counterListener
	c.AddListener(&count)
	c.Dispatch(timeline.SetPlaybackStateMsg{Playing: true, Recording: true})
	if count.calls != 0 {
		t.Error("reasserting the current flags notified listeners")
	}
}

func TestSetEditCursor(t *testing.T) {
	c := newTestController()
	c.Dispatch(timeline.SetEditCursorMsg{Position: 10})
	if c.State().EditCursorPosition != 10 {
		t.Errorf("edit cursor = %v, want 10", c.State().EditCursorPosition)
	}
	c.Dispatch(timeline.SetEditCursorMsg{Position: 1e6})
	if c.State().EditCursorPosition != c.State().TimelineLength {
		t.Errorf("edit cursor past the end = %v, want clamped", c.State().EditCursorPosition)
	}
	c.Dispatch(timeline.SetEditCursorMsg{Position: -1})
	if c.State().EditCursorPosition != -1 {
		t.Errorf("edit cursor = %v, want the hidden sentinel -1", c.State().EditCursorPosition)
	}
	// any negative hides; fractions between -1 and 0 do not leak through
	c.Dispatch(timeline.SetEditCursorMsg{Position: 10})
	c.Dispatch(timeline.SetEditCursorMsg{Position: -0.5})
	if c.State().EditCursorPosition != -1 {
		t.Errorf("edit cursor = %v, want -0.5 normalized to -1", c.State().EditCursorPosition)
	}
}

func TestSelectionNormalization(t *testing.T) {
	c := newTestController()
	c.Dispatch(timeline.SetTimeSelectionMsg{StartTime: 350, EndTime: -20, TrackIndices: []int{2, 4}})
	sel := c.State().Selection
	if sel.StartTime != 0 || sel.EndTime != 300 {
		t.Errorf("selection = [%v, %v], want swapped and clamped to [0, 300]", sel.StartTime, sel.EndTime)
	}
	if !closeEnough(sel.StartBeats, 0) || !closeEnough(sel.EndBeats, 600) {
		t.Errorf("selection beats = [%v, %v], want [0, 600]", sel.StartBeats, sel.EndBeats)
	}
	if len(sel.TrackIndices) != 2 || sel.TrackIndices[0] != 2 {
		t.Errorf("TrackIndices = %v, want [2 4]", sel.TrackIndices)
	}
}

func TestSelectionCopiesTrackIndices(t *testing.T) {
	c := newTestController()
	tracks := []int{1}
	c.Dispatch(timeline.SetTimeSelectionMsg{StartTime: 0, EndTime: 10, TrackIndices: tracks})
	tracks[0] = 99
	if c.State().Selection.TrackIndices[0] != 1 {
		t.Error("selection aliases the caller's track slice")
	}
}

func TestClearSelection(t *testing.T) {
	c := newTestController()
	var count counterListener
	c.AddListener(&count)
	c.Dispatch(timeline.ClearTimeSelectionMsg{})
	if count.calls != 0 {
		t.Error("clearing an inactive selection notified listeners")
	}
	c.Dispatch(timeline.SetTimeSelectionMsg{StartTime: 1, EndTime: 2})
	c.Dispatch(timeline.ClearTimeSelectionMsg{})
	if c.State().Selection.Active() {
		t.Error("selection still active after clear")
	}
}

func TestCreateLoopFromSelection(t *testing.T) {
	c := newTestController()
	c.Dispatch(timeline.SetTimeSelectionMsg{StartTime: 10, EndTime: 20})
	c.Dispatch(timeline.CreateLoopFromSelectionMsg{})
	s := c.State()
	if s.Loop.StartTime != 10 || s.Loop.EndTime != 20 || !s.Loop.Enabled {
		t.Errorf("loop = [%v, %v] enabled=%v, want [10, 20] enabled", s.Loop.StartTime, s.Loop.EndTime, s.Loop.Enabled)
	}
	// the selection data survives, only its visibility changes
	if s.Selection.StartTime != 10 || s.Selection.EndTime != 20 {
		t.Error("selection data was not preserved")
	}
	if !s.Selection.Active() || s.Selection.VisuallyActive() {
		t.Error("selection should stay active but become visually hidden")
	}
	// selecting again shows the selection again
	c.Dispatch(timeline.SetTimeSelectionMsg{StartTime: 30, EndTime: 40})
	if !c.State().Selection.VisuallyActive() {
		t.Error("a fresh selection should be visible")
	}
}

func TestCreateLoopWithoutSelectionIsNoop(t *testing.T) {
	c := newTestController()
	c.Dispatch(timeline.CreateLoopFromSelectionMsg{})
	if c.State().Loop.Valid() {
		t.Error("a loop appeared out of an inactive selection")
	}
}

func TestSetLoopRegionMinimumDuration(t *testing.T) {
	c := newTestController()
	c.Dispatch(timeline.SetLoopRegionMsg{StartTime: 10, EndTime: 10.005})
	loop := c.State().Loop
	if loop.EndTime-loop.StartTime < 0.01 {
		t.Errorf("loop duration = %v, want at least 0.01", loop.EndTime-loop.StartTime)
	}
	if !loop.Enabled {
		t.Error("setting a loop region should enable a disabled loop")
	}
}

func TestSetLoopRegionSwapsAndClamps(t *testing.T) {
	c := newTestController()
	c.Dispatch(timeline.SetLoopRegionMsg{StartTime: 500, EndTime: 100})
	loop := c.State().Loop
	if loop.StartTime != 100 || loop.EndTime != 300 {
		t.Errorf("loop = [%v, %v], want [100, 300]", loop.StartTime, loop.EndTime)
	}
}

func TestLoopEnableRequiresValidRegion(t *testing.T) {
	c := newTestController()
	c.Dispatch(timeline.SetLoopEnabledMsg{Enabled: true})
	if c.State().Loop.Enabled {
		t.Error("enabled a loop with no region")
	}
	c.Dispatch(timeline.SetLoopRegionMsg{StartTime: 5, EndTime: 10})
	c.Dispatch(timeline.SetLoopEnabledMsg{Enabled: false})
	if c.State().Loop.Enabled {
		t.Error("could not disable the loop")
	}
}

func TestMoveLoopRegion(t *testing.T) {
	c := newTestController()
	c.Dispatch(timeline.SetLoopRegionMsg{StartTime: 10, EndTime: 20})
	c.Dispatch(timeline.MoveLoopRegionMsg{DeltaSeconds: 5})
	loop := c.State().Loop
	if loop.StartTime != 15 || loop.EndTime != 25 {
		t.Errorf("loop = [%v, %v], want [15, 25]", loop.StartTime, loop.EndTime)
	}
	// the duration survives a shove past either end
	c.Dispatch(timeline.MoveLoopRegionMsg{DeltaSeconds: 1e6})
	loop = c.State().Loop
	if loop.EndTime != 300 || !closeEnough(loop.Duration(), 10) {
		t.Errorf("loop = [%v, %v], want [290, 300]", loop.StartTime, loop.EndTime)
	}
	c.Dispatch(timeline.MoveLoopRegionMsg{DeltaSeconds: -1e6})
	loop = c.State().Loop
	if loop.StartTime != 0 || !closeEnough(loop.Duration(), 10) {
		t.Errorf("loop = [%v, %v], want [0, 10]", loop.StartTime, loop.EndTime)
	}
}

func TestPunchRegion(t *testing.T) {
	c := newTestController()
	c.Dispatch(timeline.SetPunchRegionMsg{StartTime: 20, EndTime: 10})
	punch := c.State().Punch
	if punch.StartTime != 10 || punch.EndTime != 20 {
		t.Errorf("punch = [%v, %v], want swapped to [10, 20]", punch.StartTime, punch.EndTime)
	}
	if !punch.InEnabled || !punch.OutEnabled {
		t.Error("setting a punch region should arm both ends")
	}
	c.Dispatch(timeline.SetPunchOutEnabledMsg{Enabled: false})
	punch = c.State().Punch
	if !punch.InEnabled || punch.OutEnabled {
		t.Error("punch ends should toggle independently")
	}
	c.Dispatch(timeline.ClearPunchRegionMsg{})
	if c.State().Punch.Valid() || c.State().Punch.Enabled() {
		t.Error("punch should clear and disarm")
	}
	// the toggles are ignored with no region
	c.Dispatch(timeline.SetPunchInEnabledMsg{Enabled: true})
	if c.State().Punch.InEnabled {
		t.Error("armed punch-in with no region")
	}
}

func TestSetTempoClamped(t *testing.T) {
	c := newTestController()
	c.Dispatch(timeline.SetTempoMsg{BPM: 1000})
	if got := c.State().Tempo.BPM; got != 999 {
		t.Errorf("BPM = %v, want 999", got)
	}
	c.Dispatch(timeline.SetTempoMsg{BPM: 1})
	if got := c.State().Tempo.BPM; got != 20 {
		t.Errorf("BPM = %v, want 20", got)
	}
}

func TestTempoChangeKeepsBeatsAuthoritative(t *testing.T) {
	c := newTestController()
	c.Dispatch(timeline.SetEditPositionMsg{Position: 10}) // 20 beats at 120
	c.Dispatch(timeline.SetTimeSelectionMsg{StartTime: 4, EndTime: 8})
	c.Dispatch(timeline.SetLoopRegionMsg{StartTime: 2, EndTime: 6})
	c.Dispatch(timeline.SetTempoMsg{BPM: 60})
	s := c.State()
	// every beat-anchored value keeps its musical position: seconds double
	if !closeEnough(s.Playhead.EditPosition, 20) || !closeEnough(s.Playhead.EditPositionBeats, 20) {
		t.Errorf("edit position = %vs / %v beats, want 20s / 20 beats", s.Playhead.EditPosition, s.Playhead.EditPositionBeats)
	}
	if !closeEnough(s.Playhead.PlaybackPosition, 20) {
		t.Errorf("playback position = %v, want synced to 20 while stopped", s.Playhead.PlaybackPosition)
	}
	if !closeEnough(s.Selection.StartTime, 8) || !closeEnough(s.Selection.EndTime, 16) {
		t.Errorf("selection = [%v, %v], want [8, 16]", s.Selection.StartTime, s.Selection.EndTime)
	}
	if !closeEnough(s.Loop.StartTime, 4) || !closeEnough(s.Loop.EndTime, 12) {
		t.Errorf("loop = [%v, %v], want [4, 12]", s.Loop.StartTime, s.Loop.EndTime)
	}
}

func TestSetTimeSignatureClamped(t *testing.T) {
	c := newTestController()
	c.Dispatch(timeline.SetTimeSignatureMsg{Numerator: 0, Denominator: 32})
	s := c.State()
	if s.Tempo.TimeSigNumerator != 1 || s.Tempo.TimeSigDenominator != 16 {
		t.Errorf("time signature = %v/%v, want 1/16", s.Tempo.TimeSigNumerator, s.Tempo.TimeSigDenominator)
	}
}

func TestDisplayToggles(t *testing.T) {
	c := newTestController()
	c.Dispatch(timeline.SetTimeDisplayModeMsg{Mode: tahti.DisplaySeconds})
	c.Dispatch(timeline.SetSnapEnabledMsg{Enabled: false})
	c.Dispatch(timeline.SetArrangementLockedMsg{Locked: false})
	c.Dispatch(timeline.SetGridQuantizeMsg{Auto: false, Numerator: 1, Denominator: 8})
	s := c.State()
	if s.Display.TimeDisplayMode != tahti.DisplaySeconds || s.Display.SnapEnabled ||
		s.Display.ArrangementLocked || s.Display.Grid.Auto || s.Display.Grid.Denominator != 8 {
		t.Errorf("display config not applied: %+v", s.Display)
	}
	var count counterListener
	c.AddListener(&count)
	c.Dispatch(timeline.SetSnapEnabledMsg{Enabled: false})
	c.Dispatch(timeline.SetGridQuantizeMsg{Auto: false, Numerator: 1, Denominator: 8})
	if count.calls != 0 {
		t.Error("reasserting the current display config notified listeners")
	}
}

func TestSections(t *testing.T) {
	c := newTestController()
	c.Dispatch(timeline.AddSectionMsg{Name: "Intro", StartTime: 0, EndTime: 20})
	c.Dispatch(timeline.AddSectionMsg{Name: "Verse", StartTime: 20, EndTime: 60})
	s := c.State()
	if len(s.Sections) != 2 {
		t.Fatalf("len(Sections) = %v, want 2", len(s.Sections))
	}
	if s.Sections[0].Colour != tahti.DefaultSectionColour {
		t.Errorf("section colour = %v, want the default blue", s.Sections[0].Colour)
	}
	c.Dispatch(timeline.SelectSectionMsg{Index: 1})
	c.Dispatch(timeline.RemoveSectionMsg{Index: 0})
	if s.SelectedSection != 0 {
		t.Errorf("SelectedSection = %v, want shifted down to 0", s.SelectedSection)
	}
	c.Dispatch(timeline.RemoveSectionMsg{Index: 0})
	if s.SelectedSection != -1 {
		t.Errorf("SelectedSection = %v, want -1 after its section went away", s.SelectedSection)
	}
	c.Dispatch(timeline.RemoveSectionMsg{Index: 5})
	if len(s.Sections) != 0 {
		t.Error("removing an out-of-range index should be a no-op")
	}
}

func TestAddSectionNormalizesRange(t *testing.T) {
	c := newTestController()
	c.Dispatch(timeline.AddSectionMsg{Name: "Backwards", StartTime: 40, EndTime: 10})
	c.Dispatch(timeline.AddSectionMsg{Name: "Tiny", StartTime: 50, EndTime: 50.2})
	// sections may run past the timeline end, though
	c.Dispatch(timeline.AddSectionMsg{Name: "Outro", StartTime: 290, EndTime: 320})
	s := c.State()
	if sec := s.Sections[0]; sec.StartTime != 10 || sec.EndTime != 40 {
		t.Errorf("inverted range became [%v, %v], want [10, 40]", sec.StartTime, sec.EndTime)
	}
	if sec := s.Sections[1]; sec.EndTime != 51 {
		t.Errorf("sub-second range ends at %v, want padded to 51", sec.EndTime)
	}
	if sec := s.Sections[2]; sec.EndTime != 320 {
		t.Errorf("section end = %v, want left at 320 past the timeline end", sec.EndTime)
	}
}

func TestMoveSection(t *testing.T) {
	c := newTestController()
	c.Dispatch(timeline.AddSectionMsg{Name: "Chorus", StartTime: 10, EndTime: 30})
	c.Dispatch(timeline.MoveSectionMsg{Index: 0, NewStartTime: 50})
	sec := c.State().Sections[0]
	if sec.StartTime != 50 || sec.EndTime != 70 {
		t.Errorf("section = [%v, %v], want [50, 70]", sec.StartTime, sec.EndTime)
	}
	// moving past the timeline end shrinks instead of spilling over
	c.Dispatch(timeline.MoveSectionMsg{Index: 0, NewStartTime: 290})
	sec = c.State().Sections[0]
	if sec.StartTime != 290 || sec.EndTime != 300 {
		t.Errorf("section = [%v, %v], want [290, 300]", sec.StartTime, sec.EndTime)
	}
	// even a move way past the end keeps the minimum length inside
	c.Dispatch(timeline.MoveSectionMsg{Index: 0, NewStartTime: 400})
	sec = c.State().Sections[0]
	if sec.StartTime != 299 || sec.EndTime != 300 {
		t.Errorf("section = [%v, %v], want [299, 300]", sec.StartTime, sec.EndTime)
	}
}

func TestResizeSectionMinimumLength(t *testing.T) {
	c := newTestController()
	c.Dispatch(timeline.AddSectionMsg{Name: "Bridge", StartTime: 10, EndTime: 30})
	// dragging the start edge almost onto the end pulls it back to a
	// one second section
	c.Dispatch(timeline.ResizeSectionMsg{Index: 0, NewStartTime: 29.9, NewEndTime: 30})
	sec := c.State().Sections[0]
	if !closeEnough(sec.EndTime-sec.StartTime, 1) {
		t.Errorf("section duration = %v, want the 1s minimum", sec.EndTime-sec.StartTime)
	}
	// collapsing both edges onto one point grows back to the minimum
	c.Dispatch(timeline.ResizeSectionMsg{Index: 0, NewStartTime: sec.StartTime, NewEndTime: sec.StartTime})
	sec = c.State().Sections[0]
	if !closeEnough(sec.EndTime-sec.StartTime, 1) {
		t.Errorf("section duration = %v, want the 1s minimum", sec.EndTime-sec.StartTime)
	}
}

func TestResizeSectionNormalizesRange(t *testing.T) {
	c := newTestController()
	c.Dispatch(timeline.AddSectionMsg{Name: "Bridge", StartTime: 10, EndTime: 30})
	// an inverted request is swapped, same as loop and selection edits
	c.Dispatch(timeline.ResizeSectionMsg{Index: 0, NewStartTime: 29, NewEndTime: 25})
	sec := c.State().Sections[0]
	if sec.StartTime != 25 || sec.EndTime != 29 {
		t.Errorf("section = [%v, %v], want swapped to [25, 29]", sec.StartTime, sec.EndTime)
	}
	// both edges inside a sub-minimum span anchor at the end edge
	c.Dispatch(timeline.ResizeSectionMsg{Index: 0, NewStartTime: 5, NewEndTime: 5.5})
	sec = c.State().Sections[0]
	if sec.StartTime != 4.5 || sec.EndTime != 5.5 {
		t.Errorf("section = [%v, %v], want [4.5, 5.5]", sec.StartTime, sec.EndTime)
	}
	// a collapse right at the timeline start pushes the end out instead
	c.Dispatch(timeline.ResizeSectionMsg{Index: 0, NewStartTime: 0, NewEndTime: 0.2})
	sec = c.State().Sections[0]
	if sec.StartTime != 0 || sec.EndTime != 1 {
		t.Errorf("section = [%v, %v], want [0, 1]", sec.StartTime, sec.EndTime)
	}
}

func TestSelectSection(t *testing.T) {
	c := newTestController()
	c.Dispatch(timeline.AddSectionMsg{Name: "A", StartTime: 0, EndTime: 10})
	c.Dispatch(timeline.SelectSectionMsg{Index: 0})
	if c.State().SelectedSection != 0 {
		t.Error("section not selected")
	}
	c.Dispatch(timeline.SelectSectionMsg{Index: -1})
	if c.State().SelectedSection != -1 {
		t.Error("section not deselected")
	}
	c.Dispatch(timeline.SelectSectionMsg{Index: 7})
	if c.State().SelectedSection != -1 {
		t.Error("selecting an out-of-range index should be a no-op")
	}
}

func TestViewportResized(t *testing.T) {
	c := newTestController()
	c.Dispatch(timeline.SetZoomMsg{Zoom: 10})
	c.Dispatch(timeline.ScrollByDeltaMsg{DeltaX: 99999}) // to max scroll 5200
	c.Dispatch(timeline.ViewportResizedMsg{Width: 4000, Height: 600})
	s := c.State()
	if s.Zoom.ViewportWidth != 4000 {
		t.Errorf("ViewportWidth = %v, want 4000", s.Zoom.ViewportWidth)
	}
	if s.Zoom.ScrollX > s.MaxScrollX() {
		t.Errorf("ScrollX = %v, want re-clamped to %v", s.Zoom.ScrollX, s.MaxScrollX())
	}
	var count counterListener
	c.AddListener(&count)
	c.Dispatch(timeline.ViewportResizedMsg{Width: 4000, Height: 600})
	if count.calls != 0 {
		t.Error("resizing to the current size notified listeners")
	}
}

func TestSetTimelineLength(t *testing.T) {
	c := newTestController()
	c.Dispatch(timeline.SetTimelineLengthMsg{Length: 120})
	c.Dispatch(timeline.SetZoomMsg{Zoom: 10})
	c.Dispatch(timeline.SetEditPositionMsg{Position: 100})
	c.Dispatch(timeline.SetLoopRegionMsg{StartTime: 50, EndTime: 110})
	c.Dispatch(timeline.ScrollByDeltaMsg{DeltaX: 99999})

	c.Dispatch(timeline.SetTimelineLengthMsg{Length: 60})
	s := c.State()
	if s.TimelineLength != 60 {
		t.Fatalf("TimelineLength = %v, want 60", s.TimelineLength)
	}
	if s.Playhead.EditPosition > 60 || s.Playhead.PlaybackPosition > 60 {
		t.Errorf("playhead = (%v, %v), want clamped to 60", s.Playhead.EditPosition, s.Playhead.PlaybackPosition)
	}
	if s.Loop.EndTime > 60 {
		t.Errorf("loop end = %v, want clamped to 60", s.Loop.EndTime)
	}
	if s.Zoom.ScrollX > s.MaxScrollX() {
		t.Errorf("ScrollX = %v, want re-clamped to %v", s.Zoom.ScrollX, s.MaxScrollX())
	}
}

func TestShorteningTimelinePastLoopClearsIt(t *testing.T) {
	c := newTestController()
	c.Dispatch(timeline.SetLoopRegionMsg{StartTime: 100, EndTime: 200})
	c.Dispatch(timeline.SetTimelineLengthMsg{Length: 50})
	if c.State().Loop.Valid() {
		t.Error("a loop entirely past the new end should clear")
	}
}
