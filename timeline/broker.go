package timeline

import (
	"time"
)

type (
	// Broker is the centralized message hub for the transport goroutines.
	// The poller and the MIDI bridge produce messages for the goroutine
	// that owns the Controller, and the engine side produces messages for
	// the metronome, consumed on the audio thread. Communication is
	// many-to-one, implemented with one channel per recipient. Senders use
	// TrySend, so a slow or stopped consumer drops messages instead of
	// blocking a real-time thread.
	//
	// For closing goroutines, the broker has two channels per goroutine:
	// CloseXXX and FinishedXXX. The CloseXXX channel has a capacity of 1,
	// so you can always send an empty message (struct{}{}) to it without
	// blocking. If the channel is already full, someone else has already
	// requested its closure and the goroutine is already closing, so
	// dropping the message is fine. FinishedXXX signals that a goroutine
	// has successfully closed and cleaned up. Nothing is ever sent to the
	// channel, it is only closed. You can wait until the goroutine is done
	// closing with "<-FinishedXXX", which for avoiding deadlocks can be
	// combined with a timeout:
	//    select {
	//      case <-FinishedXXX:
	//      case <-time.After(3 * time.Second):
	//    }
	Broker struct {
		// ToTimeline carries messages for the Controller. The owning
		// goroutine drains it and calls Dispatch; nothing else may touch
		// the Controller.
		ToTimeline chan Msg
		// ToMetronome carries messages for Metronome.Process, which
		// drains it with a type switch at the start of every audio
		// callback.
		ToMetronome chan any

		ClosePoller    chan struct{}
		FinishedPoller chan struct{}
	}
)

func NewBroker() *Broker {
	return &Broker{
		ToTimeline:     make(chan Msg, 1024),
		ToMetronome:    make(chan any, 1024),
		ClosePoller:    make(chan struct{}, 1),
		FinishedPoller: make(chan struct{}),
	}
}

// TrySend sends a value to a channel if it is not full. It is guaranteed to
// be non-blocking. Returns true if the value was sent, false otherwise.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}

// TimeoutReceive blocks until a value is received from a channel, or until
// t has passed. ok is false if the timeout occurred or the channel is
// closed.
func TimeoutReceive[T any](c <-chan T, t time.Duration) (v T, ok bool) {
	select {
	case v, ok = <-c:
		return v, ok
	case <-time.After(t):
		return v, false
	}
}
