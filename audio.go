package tahti

// AudioSink accepts interleaved stereo float32 samples. WriteAudio blocks
// when the destination is not ready to accept more.
type AudioSink interface {
	WriteAudio(buffer []float32) error
	Close() error
}

// AudioContext is a connection to an audio backend that can open outputs and
// drive a render callback. There should be at most one AudioContext at a
// time.
type AudioContext interface {
	Output() AudioSink

	// Play pulls audio from the callback and plays it until the returned
	// handle is closed. The callback runs on the audio goroutine and must
	// fill the whole buffer on every call.
	Play(callback func(buffer []float32) error) CloserWaiter

	Close() error
}

// CloserWaiter is a handle to ongoing playback: Close stops it, Wait blocks
// until playback has stopped.
type CloserWaiter interface {
	Close() error
	Wait()
}
