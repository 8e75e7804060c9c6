package timeline

import (
	"image/color"

	"github.com/vsariola/tahti"
)

// Msg is the closed set of messages a Controller dispatches. Every mutation
// of the timeline state goes through exactly one of these; there is no other
// way to change the state. The interface is sealed so the dispatch switch in
// controller.go stays exhaustive.
type Msg interface {
	timelineMsg()
}

// DefaultZoomPadding is the fraction of the zoomed range left visible on
// each side by ZoomToFitMsg when the caller has no opinion.
const DefaultZoomPadding = 0.05

type (
	// SetZoomMsg sets the horizontal zoom, keeping the scroll origin.
	SetZoomMsg struct {
		Zoom float64
	}

	// SetZoomCenteredMsg sets the zoom and scrolls so CenterTime stays at the
	// viewport centre.
	SetZoomCenteredMsg struct {
		Zoom       float64
		CenterTime float64
	}

	// SetZoomAnchoredMsg sets the zoom and scrolls so AnchorTime stays under
	// the viewport x coordinate AnchorScreenX.
	SetZoomAnchoredMsg struct {
		Zoom          float64
		AnchorTime    float64
		AnchorScreenX int
	}

	// ZoomToFitMsg zooms and scrolls so the given range fills the viewport,
	// padded by PaddingPercent of the range on both sides.
	ZoomToFitMsg struct {
		StartTime      float64
		EndTime        float64
		PaddingPercent float64
	}

	// ResetZoomMsg fits the whole timeline into the viewport and scrolls
	// home.
	ResetZoomMsg struct{}

	// SetScrollPositionMsg sets the scroll offsets. A negative ScrollY leaves
	// the vertical offset unchanged.
	SetScrollPositionMsg struct {
		ScrollX int
		ScrollY int
	}

	// ScrollByDeltaMsg scrolls relative to the current offsets.
	ScrollByDeltaMsg struct {
		DeltaX int
		DeltaY int
	}

	// ScrollToTimeMsg scrolls so the given time is visible, centred in the
	// viewport when Center is set.
	ScrollToTimeMsg struct {
		Time   float64
		Center bool
	}

	// ViewportResizedMsg records a new viewport size.
	ViewportResizedMsg struct {
		Width  int
		Height int
	}

	// SetEditPositionMsg moves the edit position. While stopped the playback
	// position follows it.
	SetEditPositionMsg struct {
		Position float64
	}

	// SetPlayheadPositionMsg is an alias of SetEditPositionMsg kept for
	// callers that predate the edit/playback split.
	SetPlayheadPositionMsg struct {
		Position float64
	}

	// SetPlaybackPositionMsg moves only the playback position. The position
	// poller sends these while the transport runs.
	SetPlaybackPositionMsg struct {
		Position float64
	}

	// StartPlaybackMsg starts the transport from the edit position.
	StartPlaybackMsg struct{}

	// StopPlaybackMsg stops the transport and returns the playback position
	// to the edit position.
	StopPlaybackMsg struct{}

	// StartRecordMsg toggles record arming. It does not start the transport.
	StartRecordMsg struct{}

	// MovePlayheadByDeltaMsg nudges the edit position by a signed amount of
	// seconds.
	MovePlayheadByDeltaMsg struct {
		DeltaSeconds float64
	}

	// SetEditCursorMsg places the edit cursor, -1 hides it.
	SetEditCursorMsg struct {
		Position float64
	}

	// SetPlaybackStateMsg forces the transport flags, for synchronizing to an
	// external transport authority.
	SetPlaybackStateMsg struct {
		Playing   bool
		Recording bool
	}

	// SetTimeSelectionMsg selects a time range on the given tracks (empty
	// means all tracks). A reversed range is swapped.
	SetTimeSelectionMsg struct {
		StartTime    float64
		EndTime      float64
		TrackIndices []int
	}

	// ClearTimeSelectionMsg drops the selection.
	ClearTimeSelectionMsg struct{}

	// CreateLoopFromSelectionMsg turns the current selection into the enabled
	// loop region and hides the selection visually, keeping its data.
	CreateLoopFromSelectionMsg struct{}

	// SetLoopRegionMsg sets the loop range, enforcing a minimum duration, and
	// enables the loop if it was disabled.
	SetLoopRegionMsg struct {
		StartTime float64
		EndTime   float64
	}

	// ClearLoopRegionMsg drops the loop region.
	ClearLoopRegionMsg struct{}

	// SetLoopEnabledMsg toggles looping; ignored while no valid region is
	// set.
	SetLoopEnabledMsg struct {
		Enabled bool
	}

	// MoveLoopRegionMsg shifts the loop region, preserving its duration.
	MoveLoopRegionMsg struct {
		DeltaSeconds float64
	}

	// SetPunchRegionMsg sets the punch range, enforcing a minimum duration,
	// and arms both punch ends if neither was enabled.
	SetPunchRegionMsg struct {
		StartTime float64
		EndTime   float64
	}

	// ClearPunchRegionMsg drops the punch region.
	ClearPunchRegionMsg struct{}

	// SetPunchInEnabledMsg toggles punch-in; ignored while no valid region is
	// set.
	SetPunchInEnabledMsg struct {
		Enabled bool
	}

	// SetPunchOutEnabledMsg toggles punch-out; ignored while no valid region
	// is set.
	SetPunchOutEnabledMsg struct {
		Enabled bool
	}

	// SetTempoMsg sets the tempo and recomputes the wall-clock value of every
	// beat-anchored position.
	SetTempoMsg struct {
		BPM float64
	}

	// SetTimeSignatureMsg sets the time signature.
	SetTimeSignatureMsg struct {
		Numerator   int
		Denominator int
	}

	// SetTimeDisplayModeMsg switches between seconds and bars.beats display.
	SetTimeDisplayModeMsg struct {
		Mode tahti.TimeDisplayMode
	}

	// SetSnapEnabledMsg toggles grid snapping.
	SetSnapEnabledMsg struct {
		Enabled bool
	}

	// SetArrangementLockedMsg toggles arrangement edit locking.
	SetArrangementLockedMsg struct {
		Locked bool
	}

	// SetGridQuantizeMsg sets the grid density selection.
	SetGridQuantizeMsg struct {
		Auto        bool
		Numerator   int
		Denominator int
	}

	// AddSectionMsg appends an arrangement section. A zero Colour picks the
	// default section colour.
	AddSectionMsg struct {
		Name      string
		StartTime float64
		EndTime   float64
		Colour    color.NRGBA
	}

	// RemoveSectionMsg deletes the section at Index.
	RemoveSectionMsg struct {
		Index int
	}

	// MoveSectionMsg moves a section to a new start, preserving its duration
	// where the timeline end allows.
	MoveSectionMsg struct {
		Index        int
		NewStartTime float64
	}

	// ResizeSectionMsg changes a section's edges, enforcing a minimum
	// length.
	ResizeSectionMsg struct {
		Index        int
		NewStartTime float64
		NewEndTime   float64
	}

	// SelectSectionMsg selects the section at Index, -1 deselects.
	SelectSectionMsg struct {
		Index int
	}

	// SetTimelineLengthMsg sets the timeline length and re-clamps every
	// position and region to it.
	SetTimelineLengthMsg struct {
		Length float64
	}
)

func (SetZoomMsg) timelineMsg() {}
func (SetZoomCenteredMsg) timelineMsg() {}
func (SetZoomAnchoredMsg) timelineMsg() {}
func (ZoomToFitMsg) timelineMsg() {}
func (ResetZoomMsg) timelineMsg() {}
func (SetScrollPositionMsg) timelineMsg() {}
func (ScrollByDeltaMsg) timelineMsg() {}
func (ScrollToTimeMsg) timelineMsg() {}
func (ViewportResizedMsg) timelineMsg() {}
func (SetEditPositionMsg) timelineMsg() {}
func (SetPlayheadPositionMsg) timelineMsg() {}
func (SetPlaybackPositionMsg) timelineMsg() {}
func (StartPlaybackMsg) timelineMsg() {}
func (StopPlaybackMsg) timelineMsg() {}
func (StartRecordMsg) timelineMsg() {}
func (MovePlayheadByDeltaMsg) timelineMsg() {}
func (SetEditCursorMsg) timelineMsg() {}
func (SetPlaybackStateMsg) timelineMsg() {}
func (SetTimeSelectionMsg) timelineMsg() {}
func (ClearTimeSelectionMsg) timelineMsg() {}
func (CreateLoopFromSelectionMsg) timelineMsg() {}
func (SetLoopRegionMsg) timelineMsg() {}
func (ClearLoopRegionMsg) timelineMsg() {}
func (SetLoopEnabledMsg) timelineMsg() {}
func (MoveLoopRegionMsg) timelineMsg() {}
func (SetPunchRegionMsg) timelineMsg() {}
func (ClearPunchRegionMsg) timelineMsg() {}
func (SetPunchInEnabledMsg) timelineMsg() {}
func (SetPunchOutEnabledMsg) timelineMsg() {}
func (SetTempoMsg) timelineMsg() {}
func (SetTimeSignatureMsg) timelineMsg() {}
func (SetTimeDisplayModeMsg) timelineMsg() {}
func (SetSnapEnabledMsg) timelineMsg() {}
func (SetArrangementLockedMsg) timelineMsg() {}
func (SetGridQuantizeMsg) timelineMsg() {}
func (AddSectionMsg) timelineMsg() {}
func (RemoveSectionMsg) timelineMsg() {}
func (MoveSectionMsg) timelineMsg() {}
func (ResizeSectionMsg) timelineMsg() {}
func (SelectSectionMsg) timelineMsg() {}
func (SetTimelineLengthMsg) timelineMsg() {}
