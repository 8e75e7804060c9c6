package timeline

import (
	"image/color"
	"slices"

	"github.com/vsariola/tahti"
	"github.com/vsariola/tahti/config"
)

const (
	// minRegionDuration is the shortest loop or punch region that can be
	// set; degenerate and reversed ranges are stretched to it.
	minRegionDuration = 0.01
	// minSectionDuration is the shortest an arrangement section can be
	// resized to.
	minSectionDuration = 1.0

	defaultMaxUndo = 50
)

// Controller owns a State and is its only mutator. Every change goes
// through Dispatch, which routes the message to exactly one handler,
// snapshots the state first for undo-worthy messages, and fans out
// notifications for whatever the handler actually changed.
//
// The controller is synchronous and not safe for concurrent use: Dispatch
// runs the handler and every listener callback to completion before
// returning, and all calls are expected from the single goroutine that
// drives the user interface. Other goroutines talk to that goroutine
// through a Broker.
type Controller struct {
	state tahti.State

	undoStack []tahti.State
	redoStack []tahti.State
	maxUndo   int

	listeners       []Listener
	engineListeners []EngineListener

	zoomFloor   float64
	zoomCeiling float64
}

func NewController(cfg config.Config) *Controller {
	c := &Controller{
		state:       tahti.NewState(),
		maxUndo:     cfg.Undo.MaxStates,
		zoomFloor:   cfg.Zoom.Min,
		zoomCeiling: cfg.Zoom.Max,
	}
	if c.maxUndo < 1 {
		c.maxUndo = defaultMaxUndo
	}
	if c.zoomFloor <= 0 {
		c.zoomFloor = 0.01
	}
	if c.zoomCeiling < c.zoomFloor {
		c.zoomCeiling = 10000
	}
	if cfg.Timeline.Length > 0 {
		c.state.TimelineLength = cfg.Timeline.Length
	}
	// Start zoomed so that roughly the configured view duration fits the
	// viewport.
	if d := cfg.Timeline.ViewDuration; d > 0 && c.state.Zoom.ViewportWidth > 0 {
		if beats := c.state.SecondsToBeats(d); beats > 0 {
			c.state.Zoom.HorizontalZoom = float64(c.state.Zoom.ViewportWidth) / beats
		}
	}
	return c
}

// State returns the current timeline state for reading. All mutation goes
// through Dispatch.
func (c *Controller) State() *tahti.State {
	return &c.state
}

// Dispatch runs the handler for msg and notifies listeners of whatever
// changed. Undo-worthy messages push a snapshot before the handler runs,
// whether or not it ends up changing anything.
func (c *Controller) Dispatch(msg Msg) {
	if undoWorthy(msg) {
		c.pushUndoState()
	}
	changes := c.handle(msg)
	if changes != NoChange {
		c.notifyListeners(changes)
	}
}

// undoWorthy reports whether msg snapshots the state before it runs.
// Discrete edits do; continuous operations like zoom drags, scrolling and
// playhead motion would flood the stack, so they do not.
func undoWorthy(msg Msg) bool {
	switch msg.(type) {
	case SetLoopRegionMsg, ClearLoopRegionMsg, CreateLoopFromSelectionMsg,
		SetPunchRegionMsg, ClearPunchRegionMsg,
		ZoomToFitMsg, ResetZoomMsg,
		AddSectionMsg, RemoveSectionMsg, MoveSectionMsg, ResizeSectionMsg,
		SetTimelineLengthMsg:
		return true
	}
	return false
}

func (c *Controller) handle(msg Msg) ChangeFlags {
	switch m := msg.(type) {
	case SetZoomMsg:
		return c.setZoom(m)
	case SetZoomCenteredMsg:
		return c.setZoomCentered(m)
	case SetZoomAnchoredMsg:
		return c.setZoomAnchored(m)
	case ZoomToFitMsg:
		return c.zoomToFit(m)
	case ResetZoomMsg:
		return c.resetZoom()
	case SetScrollPositionMsg:
		return c.setScrollPosition(m)
	case ScrollByDeltaMsg:
		return c.scrollByDelta(m)
	case ScrollToTimeMsg:
		return c.scrollToTime(m)
	case SetEditPositionMsg:
		return c.setEditPosition(m)
	case SetPlayheadPositionMsg:
		return c.setEditPosition(SetEditPositionMsg{Position: m.Position})
	case SetPlaybackPositionMsg:
		return c.setPlaybackPosition(m)
	case StartPlaybackMsg:
		return c.startPlayback()
	case StopPlaybackMsg:
		return c.stopPlayback()
	case StartRecordMsg:
		return c.startRecord()
	case MovePlayheadByDeltaMsg:
		return c.movePlayheadByDelta(m)
	case SetPlaybackStateMsg:
		return c.setPlaybackState(m)
	case SetEditCursorMsg:
		return c.setEditCursor(m)
	case SetTimeSelectionMsg:
		return c.setTimeSelection(m)
	case ClearTimeSelectionMsg:
		return c.clearTimeSelection()
	case CreateLoopFromSelectionMsg:
		return c.createLoopFromSelection()
	case SetLoopRegionMsg:
		return c.setLoopRegion(m)
	case ClearLoopRegionMsg:
		return c.clearLoopRegion()
	case SetLoopEnabledMsg:
		return c.setLoopEnabled(m)
	case MoveLoopRegionMsg:
		return c.moveLoopRegion(m)
	case SetPunchRegionMsg:
		return c.setPunchRegion(m)
	case ClearPunchRegionMsg:
		return c.clearPunchRegion()
	case SetPunchInEnabledMsg:
		return c.setPunchInEnabled(m)
	case SetPunchOutEnabledMsg:
		return c.setPunchOutEnabled(m)
	case SetTempoMsg:
		return c.setTempo(m)
	case SetTimeSignatureMsg:
		return c.setTimeSignature(m)
	case SetTimeDisplayModeMsg:
		return c.setTimeDisplayMode(m)
	case SetSnapEnabledMsg:
		return c.setSnapEnabled(m)
	case SetArrangementLockedMsg:
		return c.setArrangementLocked(m)
	case SetGridQuantizeMsg:
		return c.setGridQuantize(m)
	case AddSectionMsg:
		return c.addSection(m)
	case RemoveSectionMsg:
		return c.removeSection(m)
	case MoveSectionMsg:
		return c.moveSection(m)
	case ResizeSectionMsg:
		return c.resizeSection(m)
	case SelectSectionMsg:
		return c.selectSection(m)
	case ViewportResizedMsg:
		return c.viewportResized(m)
	case SetTimelineLengthMsg:
		return c.setTimelineLength(m)
	default:
		return NoChange
	}
}

// AddListener registers l unless it is nil or already registered.
func (c *Controller) AddListener(l Listener) {
	if l == nil || slices.Contains(c.listeners, l) {
		return
	}
	c.listeners = append(c.listeners, l)
}

func (c *Controller) RemoveListener(l Listener) {
	if i := slices.Index(c.listeners, l); i >= 0 {
		c.listeners = slices.Delete(c.listeners, i, i+1)
	}
}

// AddEngineListener registers l unless it is nil or already registered.
func (c *Controller) AddEngineListener(l EngineListener) {
	if l == nil || slices.Contains(c.engineListeners, l) {
		return
	}
	c.engineListeners = append(c.engineListeners, l)
}

func (c *Controller) RemoveEngineListener(l EngineListener) {
	if i := slices.Index(c.engineListeners, l); i >= 0 {
		c.engineListeners = slices.Delete(c.engineListeners, i, i+1)
	}
}

func (c *Controller) notifyListeners(changes ChangeFlags) {
	for _, l := range c.listeners {
		if changes&(ZoomChange|ScrollChange) != NoChange {
			l.ZoomStateChanged(&c.state)
		}
		if changes&PlayheadChange != NoChange {
			l.PlayheadStateChanged(&c.state)
		}
		if changes&SelectionChange != NoChange {
			l.SelectionStateChanged(&c.state)
		}
		if changes&LoopChange != NoChange {
			l.LoopStateChanged(&c.state)
		}
		if changes&TempoChange != NoChange {
			l.TempoStateChanged(&c.state)
		}
		if changes&DisplayChange != NoChange {
			l.DisplayConfigChanged(&c.state)
		}
		l.TimelineStateChanged(&c.state)
	}
}

func (c *Controller) pushUndoState() {
	c.undoStack = append(c.undoStack, c.state.Copy())
	c.redoStack = c.redoStack[:0]
	c.limitUndoRedoLengths()
}

// Undo restores the state before the latest undo-worthy dispatch and
// reports whether there was one. Listeners are notified with AllChanges, as
// the restored snapshot is not diffed against the current state.
func (c *Controller) Undo() bool {
	if !c.CanUndo() {
		return false
	}
	c.redoStack = append(c.redoStack, c.state.Copy())
	c.state = c.undoStack[len(c.undoStack)-1]
	c.undoStack = c.undoStack[:len(c.undoStack)-1]
	c.limitUndoRedoLengths()
	c.notifyListeners(AllChanges)
	return true
}

func (c *Controller) CanUndo() bool {
	return len(c.undoStack) > 0
}

// Redo reapplies the latest undone snapshot and reports whether there was
// one.
func (c *Controller) Redo() bool {
	if !c.CanRedo() {
		return false
	}
	c.undoStack = append(c.undoStack, c.state.Copy())
	c.state = c.redoStack[len(c.redoStack)-1]
	c.redoStack = c.redoStack[:len(c.redoStack)-1]
	c.limitUndoRedoLengths()
	c.notifyListeners(AllChanges)
	return true
}

func (c *Controller) CanRedo() bool {
	return len(c.redoStack) > 0
}

func (c *Controller) ClearUndoHistory() {
	c.undoStack = c.undoStack[:0]
	c.redoStack = c.redoStack[:0]
}

// SetMaxUndo caps both stacks to n snapshots, trimming oldest-first if they
// are already longer. n below 1 is treated as 1.
func (c *Controller) SetMaxUndo(n int) {
	c.maxUndo = max(n, 1)
	c.limitUndoRedoLengths()
}

func (c *Controller) limitUndoRedoLengths() {
	if len(c.undoStack) >= c.maxUndo {
		c.undoStack = c.undoStack[len(c.undoStack)-c.maxUndo:]
	}
	if len(c.redoStack) >= c.maxUndo {
		c.redoStack = c.redoStack[len(c.redoStack)-c.maxUndo:]
	}
}

func (c *Controller) clampScroll() {
	c.state.Zoom.ScrollX = clamp(c.state.Zoom.ScrollX, 0, c.state.MaxScrollX())
	c.state.Zoom.ScrollY = max(c.state.Zoom.ScrollY, 0)
}

func (c *Controller) clampZoom(zoom float64) float64 {
	minZoom := max(c.state.MinZoom(), c.zoomFloor)
	return min(max(zoom, minZoom), c.zoomCeiling)
}

func clamp(a, low, high int) int {
	if a < low {
		return low
	}
	if a > high {
		return high
	}
	return a
}

func (c *Controller) setZoom(m SetZoomMsg) ChangeFlags {
	newZoom := c.clampZoom(m.Zoom)
	if newZoom == c.state.Zoom.HorizontalZoom {
		return NoChange
	}
	c.state.Zoom.HorizontalZoom = newZoom
	c.clampScroll()
	return ZoomChange | ScrollChange
}

func (c *Controller) setZoomCentered(m SetZoomCenteredMsg) ChangeFlags {
	newZoom := c.clampZoom(m.Zoom)
	// Scroll so that CenterTime lands in the middle of the viewport at the
	// new zoom.
	centerBeats := c.state.SecondsToBeats(m.CenterTime)
	contentX := int(centerBeats*newZoom) + tahti.LeftPadding
	c.state.Zoom.HorizontalZoom = newZoom
	c.state.Zoom.ScrollX = contentX - c.state.Zoom.ViewportWidth/2
	c.clampScroll()
	return ZoomChange | ScrollChange
}

func (c *Controller) setZoomAnchored(m SetZoomAnchoredMsg) ChangeFlags {
	newZoom := c.clampZoom(m.Zoom)
	// Scroll so that AnchorTime stays under the same screen x coordinate.
	anchorBeats := c.state.SecondsToBeats(m.AnchorTime)
	anchorX := int(anchorBeats*newZoom) + tahti.LeftPadding
	c.state.Zoom.HorizontalZoom = newZoom
	c.state.Zoom.ScrollX = anchorX - m.AnchorScreenX
	c.clampScroll()
	return ZoomChange | ScrollChange
}

func (c *Controller) zoomToFit(m ZoomToFitMsg) ChangeFlags {
	if m.EndTime <= m.StartTime {
		return NoChange
	}
	durationBeats := c.state.SecondsToBeats(m.EndTime - m.StartTime)
	paddingBeats := durationBeats * m.PaddingPercent
	fitZoom := float64(c.state.Zoom.ViewportWidth) / (durationBeats + paddingBeats*2)
	c.state.Zoom.HorizontalZoom = c.clampZoom(fitZoom)
	startBeats := c.state.SecondsToBeats(m.StartTime) - paddingBeats
	c.state.Zoom.ScrollX = max(0, int(startBeats*c.state.Zoom.HorizontalZoom))
	c.clampScroll()
	return ZoomChange | ScrollChange
}

func (c *Controller) resetZoom() ChangeFlags {
	if c.state.TimelineLength <= 0 || c.state.Zoom.ViewportWidth <= 0 {
		return NoChange
	}
	availableWidth := c.state.Zoom.ViewportWidth - tahti.LeftPadding
	beats := c.state.SecondsToBeats(c.state.TimelineLength)
	fitZoom := 1.0
	if beats > 0 {
		fitZoom = float64(availableWidth) / beats
	}
	c.state.Zoom.HorizontalZoom = c.clampZoom(fitZoom)
	c.state.Zoom.ScrollX = 0
	return ZoomChange | ScrollChange
}

func (c *Controller) setScrollPosition(m SetScrollPositionMsg) ChangeFlags {
	changed := false
	if m.ScrollX != c.state.Zoom.ScrollX {
		c.state.Zoom.ScrollX = m.ScrollX
		changed = true
	}
	// Negative y means leave the vertical scroll alone.
	if m.ScrollY >= 0 && m.ScrollY != c.state.Zoom.ScrollY {
		c.state.Zoom.ScrollY = m.ScrollY
		changed = true
	}
	if !changed {
		return NoChange
	}
	c.clampScroll()
	return ScrollChange
}

func (c *Controller) scrollByDelta(m ScrollByDeltaMsg) ChangeFlags {
	c.state.Zoom.ScrollX += m.DeltaX
	c.state.Zoom.ScrollY += m.DeltaY
	c.clampScroll()
	return ScrollChange
}

func (c *Controller) scrollToTime(m ScrollToTimeMsg) ChangeFlags {
	beats := c.state.SecondsToBeats(m.Time)
	targetX := int(beats*c.state.Zoom.HorizontalZoom) + tahti.LeftPadding
	if m.Center {
		targetX -= c.state.Zoom.ViewportWidth / 2
	}
	c.state.Zoom.ScrollX = targetX
	c.clampScroll()
	return ScrollChange
}

func (c *Controller) setEditPosition(m SetEditPositionMsg) ChangeFlags {
	newPos := min(max(m.Position, 0), c.state.TimelineLength)
	if newPos == c.state.Playhead.EditPosition {
		return NoChange
	}
	c.state.Playhead.EditPosition = newPos
	c.state.Playhead.EditPositionBeats = c.state.SecondsToBeats(newPos)
	if !c.state.Playhead.Playing {
		c.state.Playhead.PlaybackPosition = newPos
	}
	for _, l := range c.engineListeners {
		l.EditPositionChanged(newPos)
	}
	return PlayheadChange
}

func (c *Controller) setPlaybackPosition(m SetPlaybackPositionMsg) ChangeFlags {
	// Only the moving cursor updates; the edit position is the return
	// point and stays put.
	newPos := min(max(m.Position, 0), c.state.TimelineLength)
	if newPos == c.state.Playhead.PlaybackPosition {
		return NoChange
	}
	c.state.Playhead.PlaybackPosition = newPos
	return PlayheadChange
}

func (c *Controller) startPlayback() ChangeFlags {
	if c.state.Playhead.Playing {
		return NoChange
	}
	c.state.Playhead.Playing = true
	c.state.Playhead.PlaybackPosition = c.state.Playhead.EditPosition
	for _, l := range c.engineListeners {
		l.TransportPlay(c.state.Playhead.EditPosition)
	}
	return PlayheadChange
}

func (c *Controller) stopPlayback() ChangeFlags {
	if !c.state.Playhead.Playing {
		return NoChange
	}
	c.state.Playhead.Playing = false
	c.state.Playhead.Recording = false
	c.state.Playhead.PlaybackPosition = c.state.Playhead.EditPosition
	for _, l := range c.engineListeners {
		l.TransportStop(c.state.Playhead.EditPosition)
	}
	return PlayheadChange
}

func (c *Controller) startRecord() ChangeFlags {
	// Record is an arm toggle; whether the transport rolls is tracked
	// separately by Playing.
	c.state.Playhead.Recording = !c.state.Playhead.Recording
	return PlayheadChange
}

func (c *Controller) movePlayheadByDelta(m MovePlayheadByDeltaMsg) ChangeFlags {
	newPos := min(max(c.state.Playhead.EditPosition+m.DeltaSeconds, 0), c.state.TimelineLength)
	if newPos == c.state.Playhead.EditPosition {
		return NoChange
	}
	c.state.Playhead.EditPosition = newPos
	c.state.Playhead.EditPositionBeats = c.state.SecondsToBeats(newPos)
	if !c.state.Playhead.Playing {
		c.state.Playhead.PlaybackPosition = newPos
	}
	return PlayheadChange
}

func (c *Controller) setPlaybackState(m SetPlaybackStateMsg) ChangeFlags {
	changed := false
	if c.state.Playhead.Playing != m.Playing {
		c.state.Playhead.Playing = m.Playing
		c.state.Playhead.PlaybackPosition = c.state.Playhead.EditPosition
		changed = true
	}
	if c.state.Playhead.Recording != m.Recording {
		c.state.Playhead.Recording = m.Recording
		changed = true
	}
	if !changed {
		return NoChange
	}
	return PlayheadChange
}

func (c *Controller) setEditCursor(m SetEditCursorMsg) ChangeFlags {
	newPos := m.Position
	// any negative hides the cursor as the -1 sentinel; anything else
	// clamps to the timeline
	if newPos < 0 {
		newPos = -1
	} else {
		newPos = min(newPos, c.state.TimelineLength)
	}
	if newPos == c.state.EditCursorPosition {
		return NoChange
	}
	c.state.EditCursorPosition = newPos
	// The edit cursor is an editing visual, so it reports as a selection
	// change.
	return SelectionChange
}

func (c *Controller) setTimeSelection(m SetTimeSelectionMsg) ChangeFlags {
	start := min(max(m.StartTime, 0), c.state.TimelineLength)
	end := min(max(m.EndTime, 0), c.state.TimelineLength)
	if start > end {
		start, end = end, start
	}
	c.state.Selection.StartTime = start
	c.state.Selection.EndTime = end
	c.state.Selection.StartBeats = c.state.SecondsToBeats(start)
	c.state.Selection.EndBeats = c.state.SecondsToBeats(end)
	c.state.Selection.TrackIndices = slices.Clone(m.TrackIndices)
	c.state.Selection.VisuallyHidden = false
	return SelectionChange
}

func (c *Controller) clearTimeSelection() ChangeFlags {
	if !c.state.Selection.Active() {
		return NoChange
	}
	c.state.Selection.Clear()
	return SelectionChange
}

func (c *Controller) createLoopFromSelection() ChangeFlags {
	if !c.state.Selection.Active() {
		return NoChange
	}
	c.state.Loop.StartTime = c.state.Selection.StartTime
	c.state.Loop.EndTime = c.state.Selection.EndTime
	c.state.Loop.StartBeats = c.state.Selection.StartBeats
	c.state.Loop.EndBeats = c.state.Selection.EndBeats
	c.state.Loop.Enabled = true
	// Hide the selection visually but keep its data, so the transport can
	// still display the selected range.
	c.state.Selection.HideVisually()
	for _, l := range c.engineListeners {
		l.LoopRegionChanged(c.state.Loop.StartTime, c.state.Loop.EndTime, true)
	}
	return SelectionChange | LoopChange
}

func (c *Controller) setLoopRegion(m SetLoopRegionMsg) ChangeFlags {
	start := min(max(m.StartTime, 0), c.state.TimelineLength)
	end := min(max(m.EndTime, 0), c.state.TimelineLength)
	if start > end {
		start, end = end, start
	}
	if end-start < minRegionDuration {
		end = start + minRegionDuration
	}
	c.state.Loop.StartTime = start
	c.state.Loop.EndTime = end
	c.state.Loop.StartBeats = c.state.SecondsToBeats(start)
	c.state.Loop.EndBeats = c.state.SecondsToBeats(end)
	if !c.state.Loop.Enabled && c.state.Loop.Valid() {
		c.state.Loop.Enabled = true
	}
	for _, l := range c.engineListeners {
		l.LoopRegionChanged(start, end, c.state.Loop.Enabled)
	}
	return LoopChange
}

func (c *Controller) clearLoopRegion() ChangeFlags {
	if !c.state.Loop.Valid() {
		return NoChange
	}
	c.state.Loop.Clear()
	// The engine is not notified; it keeps its region until the next set
	// or until looping is disabled.
	return LoopChange
}

func (c *Controller) setLoopEnabled(m SetLoopEnabledMsg) ChangeFlags {
	if !c.state.Loop.Valid() {
		return NoChange
	}
	if c.state.Loop.Enabled == m.Enabled {
		return NoChange
	}
	c.state.Loop.Enabled = m.Enabled
	for _, l := range c.engineListeners {
		l.LoopEnabledChanged(m.Enabled)
	}
	return LoopChange
}

func (c *Controller) moveLoopRegion(m MoveLoopRegionMsg) ChangeFlags {
	if !c.state.Loop.Valid() {
		return NoChange
	}
	duration := c.state.Loop.Duration()
	// a tempo change can leave the loop longer than the timeline, so the
	// upper bound must not go negative
	maxStart := max(c.state.TimelineLength-duration, 0)
	newStart := min(max(c.state.Loop.StartTime+m.DeltaSeconds, 0), maxStart)
	c.state.Loop.StartTime = newStart
	c.state.Loop.EndTime = newStart + duration
	c.state.Loop.StartBeats = c.state.SecondsToBeats(newStart)
	c.state.Loop.EndBeats = c.state.SecondsToBeats(newStart + duration)
	return LoopChange
}

func (c *Controller) setPunchRegion(m SetPunchRegionMsg) ChangeFlags {
	start := min(max(m.StartTime, 0), c.state.TimelineLength)
	end := min(max(m.EndTime, 0), c.state.TimelineLength)
	if start > end {
		start, end = end, start
	}
	if end-start < minRegionDuration {
		end = start + minRegionDuration
	}
	c.state.Punch.StartTime = start
	c.state.Punch.EndTime = end
	c.state.Punch.StartBeats = c.state.SecondsToBeats(start)
	c.state.Punch.EndBeats = c.state.SecondsToBeats(end)
	if !c.state.Punch.Enabled() && c.state.Punch.Valid() {
		c.state.Punch.InEnabled = true
		c.state.Punch.OutEnabled = true
	}
	for _, l := range c.engineListeners {
		l.PunchRegionChanged(start, end, c.state.Punch.InEnabled, c.state.Punch.OutEnabled)
	}
	return PunchChange
}

func (c *Controller) clearPunchRegion() ChangeFlags {
	if !c.state.Punch.Valid() {
		return NoChange
	}
	c.state.Punch.Clear()
	for _, l := range c.engineListeners {
		l.PunchRegionChanged(-1, -1, false, false)
	}
	return PunchChange
}

func (c *Controller) setPunchInEnabled(m SetPunchInEnabledMsg) ChangeFlags {
	if !c.state.Punch.Valid() {
		return NoChange
	}
	if c.state.Punch.InEnabled == m.Enabled {
		return NoChange
	}
	c.state.Punch.InEnabled = m.Enabled
	for _, l := range c.engineListeners {
		l.PunchEnabledChanged(c.state.Punch.InEnabled, c.state.Punch.OutEnabled)
	}
	return PunchChange
}

func (c *Controller) setPunchOutEnabled(m SetPunchOutEnabledMsg) ChangeFlags {
	if !c.state.Punch.Valid() {
		return NoChange
	}
	if c.state.Punch.OutEnabled == m.Enabled {
		return NoChange
	}
	c.state.Punch.OutEnabled = m.Enabled
	for _, l := range c.engineListeners {
		l.PunchEnabledChanged(c.state.Punch.InEnabled, c.state.Punch.OutEnabled)
	}
	return PunchChange
}

func (c *Controller) setTempo(m SetTempoMsg) ChangeFlags {
	newBPM := min(max(m.BPM, 20), 999)
	if newBPM == c.state.Tempo.BPM {
		return NoChange
	}
	c.state.Tempo.BPM = newBPM

	// Beats are authoritative: every beat-anchored position keeps its
	// musical place and gets new seconds.
	extra := NoChange
	if c.state.Playhead.EditPosition > 0 {
		c.state.Playhead.EditPosition = tahti.BeatsToSeconds(c.state.Playhead.EditPositionBeats, newBPM)
		if !c.state.Playhead.Playing {
			c.state.Playhead.PlaybackPosition = c.state.Playhead.EditPosition
		}
		extra |= PlayheadChange
	}
	if c.state.Selection.Active() {
		c.state.Selection.StartTime = tahti.BeatsToSeconds(c.state.Selection.StartBeats, newBPM)
		c.state.Selection.EndTime = tahti.BeatsToSeconds(c.state.Selection.EndBeats, newBPM)
		extra |= SelectionChange
	}
	if c.state.Punch.Valid() {
		c.state.Punch.StartTime = tahti.BeatsToSeconds(c.state.Punch.StartBeats, newBPM)
		c.state.Punch.EndTime = tahti.BeatsToSeconds(c.state.Punch.EndBeats, newBPM)
		extra |= PunchChange
	}
	if c.state.Loop.Valid() {
		c.state.Loop.StartTime = tahti.BeatsToSeconds(c.state.Loop.StartBeats, newBPM)
		c.state.Loop.EndTime = tahti.BeatsToSeconds(c.state.Loop.EndBeats, newBPM)
		extra |= LoopChange
	}

	// the content width is tempo-dependent (zoom is pixels per beat), so
	// the scroll may need re-clamping
	oldScrollX := c.state.Zoom.ScrollX
	c.clampScroll()
	if c.state.Zoom.ScrollX != oldScrollX {
		extra |= ScrollChange
	}

	// The engine hears about the tempo first, so the repositioned regions
	// land on an engine that already runs at the new tempo.
	for _, l := range c.engineListeners {
		l.TempoChanged(newBPM)
	}
	if c.state.Loop.Valid() && c.state.Loop.Enabled {
		for _, l := range c.engineListeners {
			l.LoopRegionChanged(c.state.Loop.StartTime, c.state.Loop.EndTime, true)
		}
	}
	if c.state.Punch.Valid() && c.state.Punch.Enabled() {
		for _, l := range c.engineListeners {
			l.PunchRegionChanged(c.state.Punch.StartTime, c.state.Punch.EndTime,
				c.state.Punch.InEnabled, c.state.Punch.OutEnabled)
		}
	}

	return TempoChange | extra
}

func (c *Controller) setTimeSignature(m SetTimeSignatureMsg) ChangeFlags {
	num := clamp(m.Numerator, 1, 16)
	den := clamp(m.Denominator, 1, 16)
	if num == c.state.Tempo.TimeSigNumerator && den == c.state.Tempo.TimeSigDenominator {
		return NoChange
	}
	c.state.Tempo.TimeSigNumerator = num
	c.state.Tempo.TimeSigDenominator = den
	for _, l := range c.engineListeners {
		l.TimeSignatureChanged(num, den)
	}
	return TempoChange
}

func (c *Controller) setTimeDisplayMode(m SetTimeDisplayModeMsg) ChangeFlags {
	if c.state.Display.TimeDisplayMode == m.Mode {
		return NoChange
	}
	c.state.Display.TimeDisplayMode = m.Mode
	return DisplayChange
}

func (c *Controller) setSnapEnabled(m SetSnapEnabledMsg) ChangeFlags {
	if c.state.Display.SnapEnabled == m.Enabled {
		return NoChange
	}
	c.state.Display.SnapEnabled = m.Enabled
	return DisplayChange
}

func (c *Controller) setArrangementLocked(m SetArrangementLockedMsg) ChangeFlags {
	if c.state.Display.ArrangementLocked == m.Locked {
		return NoChange
	}
	c.state.Display.ArrangementLocked = m.Locked
	return DisplayChange
}

func (c *Controller) setGridQuantize(m SetGridQuantizeMsg) ChangeFlags {
	num := max(m.Numerator, 1)
	den := max(m.Denominator, 1)
	g := &c.state.Display.Grid
	if g.Auto == m.Auto && g.Numerator == num && g.Denominator == den {
		return NoChange
	}
	g.Auto = m.Auto
	g.Numerator = num
	g.Denominator = den
	return DisplayChange
}

func (c *Controller) addSection(m AddSectionMsg) ChangeFlags {
	colour := m.Colour
	if colour == (color.NRGBA{}) {
		colour = tahti.DefaultSectionColour
	}
	// The range may extend past the current timeline end; arrangements are
	// often sketched ahead. It just has to be ordered and non-degenerate.
	start, end := m.StartTime, m.EndTime
	if start > end {
		start, end = end, start
	}
	if end-start < minSectionDuration {
		end = start + minSectionDuration
	}
	c.state.Sections = append(c.state.Sections, tahti.Section{
		StartTime: start,
		EndTime:   end,
		Name:      m.Name,
		Colour:    colour,
	})
	return SectionsChange
}

func (c *Controller) removeSection(m RemoveSectionMsg) ChangeFlags {
	if m.Index < 0 || m.Index >= len(c.state.Sections) {
		return NoChange
	}
	c.state.Sections = slices.Delete(c.state.Sections, m.Index, m.Index+1)
	if c.state.SelectedSection == m.Index {
		c.state.SelectedSection = -1
	} else if c.state.SelectedSection > m.Index {
		c.state.SelectedSection--
	}
	return SectionsChange
}

func (c *Controller) moveSection(m MoveSectionMsg) ChangeFlags {
	if m.Index < 0 || m.Index >= len(c.state.Sections) {
		return NoChange
	}
	section := &c.state.Sections[m.Index]
	duration := section.Duration()
	// A move past the right edge shrinks the section rather than spilling
	// over, but the section keeps at least the minimum length inside the
	// timeline.
	newStart := min(max(m.NewStartTime, 0), max(c.state.TimelineLength-minSectionDuration, 0))
	newEnd := min(newStart+duration, c.state.TimelineLength)
	if newEnd <= newStart {
		// the timeline is too short to hold any section
		return NoChange
	}
	section.StartTime = newStart
	section.EndTime = newEnd
	return SectionsChange
}

func (c *Controller) resizeSection(m ResizeSectionMsg) ChangeFlags {
	if m.Index < 0 || m.Index >= len(c.state.Sections) {
		return NoChange
	}
	section := &c.state.Sections[m.Index]
	start := min(max(m.NewStartTime, 0), c.state.TimelineLength)
	end := min(max(m.NewEndTime, 0), c.state.TimelineLength)
	if start > end {
		start, end = end, start
	}
	if end-start < minSectionDuration {
		// The end edge anchors: pull the start back, and push the end out
		// only when the timeline start is in the way.
		start = max(end-minSectionDuration, 0)
		end = min(start+minSectionDuration, c.state.TimelineLength)
	}
	if end <= start {
		return NoChange
	}
	section.StartTime = start
	section.EndTime = end
	return SectionsChange
}

func (c *Controller) selectSection(m SelectSectionMsg) ChangeFlags {
	if m.Index < -1 || m.Index >= len(c.state.Sections) {
		return NoChange
	}
	if c.state.SelectedSection == m.Index {
		return NoChange
	}
	c.state.SelectedSection = m.Index
	return SectionsChange
}

func (c *Controller) viewportResized(m ViewportResizedMsg) ChangeFlags {
	changed := false
	if m.Width != c.state.Zoom.ViewportWidth {
		c.state.Zoom.ViewportWidth = m.Width
		changed = true
	}
	if m.Height != c.state.Zoom.ViewportHeight {
		c.state.Zoom.ViewportHeight = m.Height
		changed = true
	}
	if !changed {
		return NoChange
	}
	c.clampScroll()
	return ZoomChange | ScrollChange
}

func (c *Controller) setTimelineLength(m SetTimelineLengthMsg) ChangeFlags {
	newLength := max(m.Length, 0)
	if newLength == c.state.TimelineLength {
		return NoChange
	}
	c.state.TimelineLength = newLength

	if c.state.Playhead.EditPosition > newLength {
		c.state.Playhead.EditPosition = newLength
		c.state.Playhead.EditPositionBeats = c.state.SecondsToBeats(newLength)
	}
	c.state.Playhead.PlaybackPosition = min(c.state.Playhead.PlaybackPosition, newLength)

	if c.state.Loop.Valid() {
		if c.state.Loop.EndTime > newLength {
			c.state.Loop.EndTime = newLength
			c.state.Loop.EndBeats = c.state.SecondsToBeats(newLength)
		}
		if c.state.Loop.StartTime >= c.state.Loop.EndTime {
			c.state.Loop.Clear()
		}
	}
	if c.state.Punch.Valid() {
		if c.state.Punch.EndTime > newLength {
			c.state.Punch.EndTime = newLength
			c.state.Punch.EndBeats = c.state.SecondsToBeats(newLength)
		}
		if c.state.Punch.StartTime >= c.state.Punch.EndTime {
			c.state.Punch.Clear()
		}
	}

	c.clampScroll()
	return TimelineChange | ZoomChange | ScrollChange
}
