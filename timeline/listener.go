package timeline

import "github.com/vsariola/tahti"

// ChangeFlags tells which parts of the state a dispatched message touched.
// Handlers return them and the Controller uses them to pick which listener
// callbacks to fire.
type ChangeFlags uint32

const (
	ZoomChange ChangeFlags = 1 << iota
	ScrollChange
	PlayheadChange
	SelectionChange
	LoopChange
	TempoChange
	DisplayChange
	SectionsChange
	TimelineChange
	PunchChange
)

const (
	NoChange   ChangeFlags = 0
	AllChanges ChangeFlags = 0xFFFFFFFF
)

// Listener receives state change notifications after a dispatch. The
// specific callbacks fire first, gated by the change flags;
// TimelineStateChanged always fires last, once per dispatch that changed
// anything. The state pointer is only valid for the duration of the call
// and must not be mutated; listeners that need the value afterwards take a
// Copy.
type Listener interface {
	// TimelineStateChanged is called after every state change, after the
	// specific callbacks.
	TimelineStateChanged(state *tahti.State)
	// ZoomStateChanged is called when the zoom or the scroll changed.
	ZoomStateChanged(state *tahti.State)
	PlayheadStateChanged(state *tahti.State)
	SelectionStateChanged(state *tahti.State)
	LoopStateChanged(state *tahti.State)
	TempoStateChanged(state *tahti.State)
	DisplayConfigChanged(state *tahti.State)
}

// NopListener implements Listener with empty methods. Embed it to implement
// only the callbacks you care about.
type NopListener struct{}

func (NopListener) TimelineStateChanged(*tahti.State)  {}
func (NopListener) ZoomStateChanged(*tahti.State)      {}
func (NopListener) PlayheadStateChanged(*tahti.State)  {}
func (NopListener) SelectionStateChanged(*tahti.State) {}
func (NopListener) LoopStateChanged(*tahti.State)      {}
func (NopListener) TempoStateChanged(*tahti.State)     {}
func (NopListener) DisplayConfigChanged(*tahti.State)  {}

// EngineListener receives the transport side effects of a dispatch, inside
// the handler and before the Listener notifications. Implementations bridge
// the state machine to whatever produces sound; they must not dispatch
// further messages from within a callback.
type EngineListener interface {
	// TransportPlay is called when playback starts from the given position.
	TransportPlay(position float64)
	// TransportStop is called when playback stops; the playback position has
	// returned to returnPosition.
	TransportStop(returnPosition float64)
	// EditPositionChanged is called when the edit position moves by an
	// explicit set, so an engine can relocate.
	EditPositionChanged(position float64)
	TempoChanged(bpm float64)
	TimeSignatureChanged(numerator, denominator int)
	LoopRegionChanged(start, end float64, enabled bool)
	LoopEnabledChanged(enabled bool)
	PunchRegionChanged(start, end float64, punchIn, punchOut bool)
	PunchEnabledChanged(punchIn, punchOut bool)
}

// NopEngineListener implements EngineListener with empty methods, for
// embedding.
type NopEngineListener struct{}

func (NopEngineListener) TransportPlay(float64)                           {}
func (NopEngineListener) TransportStop(float64)                           {}
func (NopEngineListener) EditPositionChanged(float64)                     {}
func (NopEngineListener) TempoChanged(float64)                            {}
func (NopEngineListener) TimeSignatureChanged(int, int)                   {}
func (NopEngineListener) LoopRegionChanged(float64, float64, bool)        {}
func (NopEngineListener) LoopEnabledChanged(bool)                         {}
func (NopEngineListener) PunchRegionChanged(float64, float64, bool, bool) {}
func (NopEngineListener) PunchEnabledChanged(bool, bool)                  {}
