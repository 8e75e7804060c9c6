package oto

import (
	"fmt"
	"io"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/vsariola/tahti"
)

type (
	OtoContext oto.Context

	OtoOutput struct {
		player    *oto.Player
		pipe      *io.PipeWriter
		tmpBuffer []byte
	}
)

const otoBufferSize = 2048 // interleaved samples per render callback

// NewContext creates and initializes a new OtoContext, waiting until the
// backend is ready to play.
func NewContext() (*OtoContext, error) {
	op := &oto.NewContextOptions{
		SampleRate:   44100,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	}
	context, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return (*OtoContext)(context), nil
}

// Output returns a sink that plays everything pushed to it. Writes block
// when the device buffer is full.
func (c *OtoContext) Output() tahti.AudioSink {
	pr, pw := io.Pipe()
	player := (*oto.Context)(c).NewPlayer(pr)
	player.Play()
	return &OtoOutput{player: player, pipe: pw}
}

// Play pulls buffers of otoBufferSize samples from the callback until the
// returned handle is closed or the callback returns an error.
func (c *OtoContext) Play(callback func(buffer []float32) error) tahti.CloserWaiter {
	reader := &callbackReader{
		callback: callback,
		floats:   make([]float32, otoBufferSize),
	}
	player := (*oto.Context)(c).NewPlayer(reader)
	player.Play()
	return playerCloserWaiter{player: player}
}

func (c *OtoContext) Close() error {
	// the underlying context has no Close; suspending is the closest we get
	if err := (*oto.Context)(c).Suspend(); err != nil {
		return fmt.Errorf("cannot suspend oto context: %w", err)
	}
	return nil
}

func (o *OtoOutput) WriteAudio(floatBuffer []float32) error {
	// reuse the old capacity of tmpBuffer by setting its length to zero, and
	// save the result so we can reuse it next time
	o.tmpBuffer = FloatBufferToFloat32LE(floatBuffer, o.tmpBuffer[:0])
	if _, err := o.pipe.Write(o.tmpBuffer); err != nil {
		return fmt.Errorf("cannot write to player: %w", err)
	}
	return nil
}

func (o *OtoOutput) Close() error {
	o.pipe.Close()
	if err := o.player.Close(); err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return nil
}

// callbackReader adapts a fill-the-buffer callback to the io.Reader the
// player pulls from.
type callbackReader struct {
	callback func([]float32) error
	floats   []float32
	raw      []byte
	unread   []byte
	err      error
}

func (r *callbackReader) Read(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	if len(r.unread) == 0 {
		if err := r.callback(r.floats); err != nil {
			r.err = err
			return 0, err
		}
		r.raw = FloatBufferToFloat32LE(r.floats, r.raw[:0])
		r.unread = r.raw
	}
	n := copy(p, r.unread)
	r.unread = r.unread[n:]
	return n, nil
}

type playerCloserWaiter struct {
	player *oto.Player
}

func (p playerCloserWaiter) Close() error {
	if err := p.player.Close(); err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return nil
}

func (p playerCloserWaiter) Wait() {
	for p.player.IsPlaying() {
		time.Sleep(10 * time.Millisecond)
	}
}
