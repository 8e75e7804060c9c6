package gomidi

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"github.com/vsariola/tahti/timeline"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

type (
	// RTMIDIContext translates inbound MIDI realtime messages into
	// timeline messages: Start rewinds and begins playback, Continue
	// resumes, Stop stops, and a song position pointer relocates the
	// edit position. Channel messages and the timing clock are ignored.
	// It is also an EngineListener, so that registering it on the
	// controller keeps the song position conversion in sync with the
	// timeline tempo.
	RTMIDIContext struct {
		timeline.NopEngineListener

		driver             *rtmididrv.Driver
		currentIn          drivers.In
		inputDevices       []RTMIDIDevice
		devicesInitialized bool
		broker             *timeline.Broker
		bpmBits            atomic.Uint64
	}

	RTMIDIDevice struct {
		context *RTMIDIContext
		in      drivers.In
	}
)

// NewContext opens the driver. There's not much we can do if that fails,
// so driver == nil just means no devices are available.
func NewContext(broker *timeline.Broker) *RTMIDIContext {
	m := RTMIDIContext{broker: broker}
	m.SetBPM(120)
	m.driver, _ = rtmididrv.New()
	return &m
}

func (c *RTMIDIContext) InputDevices(yield func(timeline.MIDIDevice) bool) {
	if !c.devicesInitialized {
		c.initInputDevices()
	}
	for _, device := range c.inputDevices {
		if !yield(device) {
			break
		}
	}
}

func (c *RTMIDIContext) initInputDevices() {
	if c.driver == nil {
		return
	}
	ins, err := c.driver.Ins()
	if err != nil {
		return
	}
	for _, in := range ins {
		c.inputDevices = append(c.inputDevices, RTMIDIDevice{context: c, in: in})
	}
	c.devicesInitialized = true
}

// Open an input device, closing the currently open one if necessary.
func (d RTMIDIDevice) Open() error {
	c := d.context
	if c.currentIn == d.in {
		return nil
	}
	if c.driver == nil {
		return errors.New("no driver available")
	}
	if c.HasDeviceOpen() {
		c.currentIn.Close()
	}
	c.currentIn = d.in
	if err := d.in.Open(); err != nil {
		c.currentIn = nil
		return fmt.Errorf("opening MIDI input failed: %w", err)
	}
	if _, err := midi.ListenTo(d.in, c.HandleMessage); err != nil {
		d.in.Close()
		c.currentIn = nil
		return fmt.Errorf("listening to MIDI input failed: %w", err)
	}
	return nil
}

func (d RTMIDIDevice) String() string {
	return d.in.String()
}

func (c *RTMIDIContext) Close() {
	if c.driver == nil {
		return
	}
	if c.currentIn != nil && c.currentIn.IsOpen() {
		c.currentIn.Close()
	}
	c.driver.Close()
}

func (c *RTMIDIContext) HasDeviceOpen() bool {
	return c.currentIn != nil && c.currentIn.IsOpen()
}

// TryToOpenBy opens the first input whose name starts with namePrefix, or
// simply the first input found when takeFirst is set.
func (c *RTMIDIContext) TryToOpenBy(namePrefix string, takeFirst bool) error {
	if namePrefix == "" && !takeFirst {
		return nil
	}
	for input := range c.InputDevices {
		if takeFirst || strings.HasPrefix(input.String(), namePrefix) {
			return input.Open()
		}
	}
	if takeFirst {
		return errors.New("could not find any MIDI input")
	}
	return fmt.Errorf("could not find a MIDI input starting with %q", namePrefix)
}

// HandleMessage runs on the driver goroutine, so it only ever TrySends.
func (c *RTMIDIContext) HandleMessage(msg midi.Message, timestampms int32) {
	switch {
	case msg.Is(midi.StartMsg):
		timeline.TrySend(c.broker.ToTimeline, timeline.Msg(timeline.SetEditPositionMsg{Position: 0}))
		timeline.TrySend(c.broker.ToTimeline, timeline.Msg(timeline.StartPlaybackMsg{}))
	case msg.Is(midi.ContinueMsg):
		timeline.TrySend(c.broker.ToTimeline, timeline.Msg(timeline.StartPlaybackMsg{}))
	case msg.Is(midi.StopMsg):
		timeline.TrySend(c.broker.ToTimeline, timeline.Msg(timeline.StopPlaybackMsg{}))
	default:
		var spp uint16
		if msg.GetSPP(&spp) {
			position := SongPositionSeconds(spp, c.BPM())
			timeline.TrySend(c.broker.ToTimeline, timeline.Msg(timeline.SetEditPositionMsg{Position: position}))
		}
		// the timing clock and all channel messages are ignored
	}
}

// TempoChanged implements timeline.EngineListener.
func (c *RTMIDIContext) TempoChanged(bpm float64) {
	c.SetBPM(bpm)
}

// SetBPM sets the tempo used to convert song position pointers to
// seconds. Any goroutine may call it.
func (c *RTMIDIContext) SetBPM(bpm float64) {
	c.bpmBits.Store(math.Float64bits(bpm))
}

func (c *RTMIDIContext) BPM() float64 {
	return math.Float64frombits(c.bpmBits.Load())
}

// SongPositionSeconds converts a song position pointer, counted in MIDI
// beats of a sixteenth note each, to seconds at the given tempo.
func SongPositionSeconds(spp uint16, bpm float64) float64 {
	if bpm <= 0 {
		bpm = 120
	}
	return float64(spp) * 15 / bpm
}
