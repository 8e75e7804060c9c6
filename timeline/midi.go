package timeline

type (
	// MIDIContext is a source of MIDI transport input. Implementations
	// push timeline messages to a Broker as input arrives; the interface
	// itself only exposes device management.
	MIDIContext interface {
		InputDevices(yield func(MIDIDevice) bool)
		Close()
	}

	// MIDIDevice is an openable MIDI input port.
	MIDIDevice interface {
		Open() error
		String() string
	}
)
