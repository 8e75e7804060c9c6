package timeline

import (
	"math"
	"sync/atomic"

	"github.com/viterin/vek/vek32"
)

// SampleRate is the fixed output rate of the Metronome.
const SampleRate = 44100

const (
	accentClickHz   = 1760
	normalClickHz   = 880
	accentClickGain = 0.5
	normalClickGain = 0.3
	clickDuration   = 0.05 // seconds
)

type (
	// Metronome is the transport engine, run on the audio thread. It owns
	// the playback position and renders a click track while playing, with
	// the first beat of every bar accented. It is controlled by messages
	// from the controller goroutine, produced by its own EngineListener
	// callbacks via the broker, and it publishes its position atomically
	// so that a Poller can mirror it back into the state.
	Metronome struct {
		NopEngineListener

		broker *Broker

		// the fields below are accessed only in Process, on the audio
		// thread
		bpm        float64
		timeSigNum int
		loopStart  float64
		loopEnd    float64
		looping    bool
		click      bool
		frame      int64
		clicks     []activeClick
		scratch    []float32

		accent []float32
		normal []float32

		pos     atomic.Int64
		playing atomic.Bool
	}

	// activeClick is a click that still has samples left to play.
	activeClick struct {
		wave  []float32
		start int64 // frame at which the first sample of wave plays
	}
)

type (
	transportPlayMsg struct{ position float64 }
	transportStopMsg struct{ position float64 }
	relocateMsg      struct{ position float64 }
	tempoMsg         struct{ bpm float64 }
	timeSigMsg       struct{ num, den int }
	loopMsg          struct {
		start, end float64
		enabled    bool
	}
	loopEnabledMsg struct{ enabled bool }
	clickMsg       struct{ enabled bool }
)

func NewMetronome(broker *Broker) *Metronome {
	return &Metronome{
		broker:     broker,
		bpm:        120,
		timeSigNum: 4,
		click:      true,
		accent:     synthesizeClick(accentClickHz, accentClickGain),
		normal:     synthesizeClick(normalClickHz, normalClickGain),
	}
}

// synthesizeClick renders one click: a sine that decays to -80 dB by its
// last sample.
func synthesizeClick(freq, gain float64) []float32 {
	n := int(clickDuration * SampleRate)
	wave := make([]float32, n)
	decay := math.Log(1e-4) / float64(n)
	for i := range wave {
		t := float64(i)
		wave[i] = float32(math.Sin(2 * math.Pi * freq * t / SampleRate) * math.Exp(decay*t))
	}
	vek32.MulNumber_Inplace(wave, float32(gain))
	return wave
}

func (m *Metronome) TransportPlay(position float64) {
	TrySend(m.broker.ToMetronome, any(transportPlayMsg{position}))
}

func (m *Metronome) TransportStop(returnPosition float64) {
	TrySend(m.broker.ToMetronome, any(transportStopMsg{returnPosition}))
}

func (m *Metronome) EditPositionChanged(position float64) {
	TrySend(m.broker.ToMetronome, any(relocateMsg{position}))
}

func (m *Metronome) TempoChanged(bpm float64) {
	TrySend(m.broker.ToMetronome, any(tempoMsg{bpm}))
}

func (m *Metronome) TimeSignatureChanged(numerator, denominator int) {
	TrySend(m.broker.ToMetronome, any(timeSigMsg{numerator, denominator}))
}

func (m *Metronome) LoopRegionChanged(start, end float64, enabled bool) {
	TrySend(m.broker.ToMetronome, any(loopMsg{start, end, enabled}))
}

func (m *Metronome) LoopEnabledChanged(enabled bool) {
	TrySend(m.broker.ToMetronome, any(loopEnabledMsg{enabled}))
}

// SetClickEnabled toggles the audible click. The transport keeps rolling
// either way.
func (m *Metronome) SetClickEnabled(enabled bool) {
	TrySend(m.broker.ToMetronome, any(clickMsg{enabled}))
}

// PlaybackPosition implements PositionSource from the atomics, so any
// goroutine may call it.
func (m *Metronome) PlaybackPosition() (seconds float64, playing bool) {
	return float64(m.pos.Load()) / SampleRate, m.playing.Load()
}

// Process fills the interleaved stereo buffer with the click track and
// advances the transport: pending messages first, then rendering. It runs
// in the audio callback and never blocks.
func (m *Metronome) Process(buf []float32) error {
	m.processMessages()
	if !m.playing.Load() {
		clear(buf)
		return nil
	}
	frames := len(buf) / 2
	if len(m.scratch) < frames {
		m.scratch = make([]float32, frames)
	}
	scratch := vek32.Zeros_Into(m.scratch, frames)
	rendered := 0
	for rendered < frames {
		n := frames - rendered
		if m.looping && m.loopEnd > m.loopStart {
			end := int64(m.loopEnd * SampleRate)
			if m.frame >= end {
				m.frame = int64(m.loopStart * SampleRate)
				m.clicks = m.clicks[:0]
			}
			if remaining := end - m.frame; remaining > 0 && int64(n) > remaining {
				n = int(remaining)
			}
		}
		m.renderClicks(scratch[rendered : rendered+n])
		m.frame += int64(n)
		rendered += n
	}
	for i := 0; i < frames; i++ {
		scratchVal := scratch[i]
		buf[2*i] = scratchVal
		buf[2*i+1] = scratchVal
	}
	if len(buf) > 2*frames {
		buf[len(buf)-1] = 0
	}
	m.pos.Store(m.frame)
	return nil
}

func (m *Metronome) processMessages() {
loop:
	for { // process new message
		select {
		case msg := <-m.broker.ToMetronome:
			switch msg := msg.(type) {
			case transportPlayMsg:
				m.playing.Store(true)
				m.seek(msg.position)
			case transportStopMsg:
				m.playing.Store(false)
				m.seek(msg.position)
			case relocateMsg:
				if !m.playing.Load() {
					m.seek(msg.position)
				}
			case tempoMsg:
				m.bpm = msg.bpm
			case timeSigMsg:
				m.timeSigNum = msg.num
			case loopMsg:
				m.loopStart = msg.start
				m.loopEnd = msg.end
				m.looping = msg.enabled
			case loopEnabledMsg:
				m.looping = msg.enabled
			case clickMsg:
				m.click = msg.enabled
			default:
				// ignore unknown messages
			}
		default:
			break loop
		}
	}
}

func (m *Metronome) seek(position float64) {
	m.frame = int64(position * SampleRate)
	m.clicks = m.clicks[:0]
	m.pos.Store(m.frame)
}

// renderClicks mixes the clicks overlapping out into it, first scheduling
// the beats that start inside the span. out is mono; the caller
// interleaves.
func (m *Metronome) renderClicks(out []float32) {
	n := int64(len(out))
	if n == 0 {
		return
	}
	if m.click && m.bpm > 0 {
		spb := 60.0 / m.bpm * SampleRate // samples per beat
		for b := int64(math.Ceil(float64(m.frame) / spb)); int64(float64(b)*spb) < m.frame+n; b++ {
			wave := m.normal
			if m.timeSigNum > 0 && b%int64(m.timeSigNum) == 0 {
				wave = m.accent
			}
			m.clicks = append(m.clicks, activeClick{wave: wave, start: int64(float64(b) * spb)})
		}
	}
	remaining := m.clicks[:0]
	for _, c := range m.clicks {
		srcOff := max(m.frame-c.start, 0)
		dstOff := max(c.start-m.frame, 0)
		cnt := min(int64(len(c.wave))-srcOff, n-dstOff)
		if cnt > 0 {
			vek32.Add_Inplace(out[dstOff:dstOff+cnt], c.wave[srcOff:srcOff+cnt])
		}
		if c.start+int64(len(c.wave)) > m.frame+n {
			remaining = append(remaining, c)
		}
	}
	m.clicks = remaining
}
