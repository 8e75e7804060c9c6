package timeline

import "time"

type (
	// PositionSource is where a Poller reads the engine transport position
	// from. Implementations must be callable from any goroutine; the
	// Metronome satisfies this with atomics.
	PositionSource interface {
		// PlaybackPosition returns the current playback position and
		// whether the transport is rolling.
		PlaybackPosition() (seconds float64, playing bool)
	}

	// Poller mirrors an engine's transport position into the timeline
	// state, sending messages through the broker on a fixed interval. It
	// is the expected writer of the moving playback cursor; everything
	// else dispatches edits.
	Poller struct {
		broker   *Broker
		source   PositionSource
		interval time.Duration
	}
)

const defaultPollInterval = 30 * time.Millisecond

// NewPoller returns a Poller reading from source every interval. An
// interval of zero or less falls back to 30ms.
func NewPoller(broker *Broker, source PositionSource, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Poller{broker: broker, source: source, interval: interval}
}

// Run polls until something is sent to broker.ClosePoller, then closes
// broker.FinishedPoller. Call it in its own goroutine.
//
// While the source plays, every tick sends the position. When the source
// stops on its own, a single stop message is sent; it also drops the
// record arm, same as an explicit stop. Sends are non-blocking and drop
// when the dispatch loop is behind, as the next tick supersedes them
// anyway.
func (p *Poller) Run() {
	defer close(p.broker.FinishedPoller)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	wasPlaying := false
	for {
		select {
		case <-ticker.C:
			pos, playing := p.source.PlaybackPosition()
			if playing {
				TrySend(p.broker.ToTimeline, Msg(SetPlaybackPositionMsg{Position: pos}))
			} else if wasPlaying {
				TrySend(p.broker.ToTimeline, Msg(SetPlaybackStateMsg{}))
			}
			wasPlaying = playing
		case <-p.broker.ClosePoller:
			return
		}
	}
}
