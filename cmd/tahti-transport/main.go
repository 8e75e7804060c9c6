package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig"
	"github.com/vsariola/tahti"
	"github.com/vsariola/tahti/config"
	"github.com/vsariola/tahti/oto"
	"github.com/vsariola/tahti/timeline"
	"github.com/vsariola/tahti/timeline/gomidi"
	"github.com/vsariola/tahti/version"
	"gopkg.in/yaml.v3"
)

const defaultFormat = `{{.Formatted}} ({{printf "%.3f" .Position}}s){{if .Playing}} >{{end}}{{if .Recording}} *{{end}}
`

var (
	lengthFlag    = flag.Float64("length", 0, "timeline length in seconds (0 = configured default)")
	bpmFlag       = flag.Float64("bpm", 0, "initial tempo in beats per minute")
	timeSigFlag   = flag.String("timesig", "", "initial time signature, e.g. 3/4")
	loopFlag      = flag.String("loop", "", "loop region as start:end in seconds, e.g. 8:16")
	clickFlag     = flag.Bool("click", true, "make the metronome click audible")
	midiInputFlag = flag.String("midi-input", "", "connect MIDI transport input to matching device name prefix (empty with the flag set takes the first device)")
	durationFlag  = flag.Float64("duration", 0, "seconds to run before exiting (0 = until interrupted)")
	formatFlag    = flag.String("format", defaultFormat, "Go template for transport update lines, with sprig functions available")
	dumpFlag      = flag.Bool("dump", false, "print the final timeline state as YAML on exit")
	wavFlag       = flag.String("wav", "", "render the click track to a .wav `file` instead of playing")
	pcmFlag       = flag.Bool("c", false, "convert audio to 16-bit signed PCM when outputting a .wav")
	versionFlag   = flag.Bool("v", false, "print version")
)

func main() {
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	tmpl, err := template.New("status").Funcs(sprig.TxtFuncMap()).Parse(*formatFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -format template: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Load()
	if cfg.YmlError != nil {
		log.Printf("config warning: %v", cfg.YmlError)
	}
	if isFlagPassed("length") {
		cfg.Timeline.Length = *lengthFlag
	}
	broker := timeline.NewBroker()
	controller := timeline.NewController(cfg)
	metronome := timeline.NewMetronome(broker)
	controller.AddEngineListener(metronome)
	if err := applyTransportFlags(controller); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	metronome.SetClickEnabled(*clickFlag)

	if *wavFlag != "" {
		if err := renderWav(controller, metronome, *wavFlag, *pcmFlag); err != nil {
			fmt.Fprintf(os.Stderr, "could not render %v: %v\n", *wavFlag, err)
			os.Exit(1)
		}
		dumpState(controller)
		return
	}

	audioContext, err := oto.NewContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not acquire oto AudioContext: %v\n", err)
		os.Exit(1)
	}
	defer audioContext.Close()

	midiContext := gomidi.NewContext(broker)
	defer midiContext.Close()
	controller.AddEngineListener(midiContext)
	if isFlagPassed("midi-input") {
		if err := midiContext.TryToOpenBy(*midiInputFlag, *midiInputFlag == ""); err != nil {
			log.Printf("MIDI input: %v", err)
		}
	}

	controller.AddListener(&consoleListener{tmpl: tmpl, out: os.Stdout})

	poller := timeline.NewPoller(broker, metronome, cfg.Transport.PollInterval())
	go poller.Run()

	playWaiter := audioContext.Play(metronome.Process)
	controller.Dispatch(timeline.StartPlaybackMsg{})

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	var timeout <-chan time.Time
	if *durationFlag > 0 {
		timeout = time.After(time.Duration(*durationFlag * float64(time.Second)))
	}
loop:
	for {
		select {
		case msg := <-broker.ToTimeline:
			controller.Dispatch(msg)
		case <-interrupt:
			break loop
		case <-timeout:
			break loop
		}
	}
	controller.Dispatch(timeline.StopPlaybackMsg{})
	close(broker.ClosePoller)
	timeline.TimeoutReceive(broker.FinishedPoller, time.Second)
	playWaiter.Close()
	dumpState(controller)
}

// applyTransportFlags dispatches the initial transport setup given on the
// command line.
func applyTransportFlags(controller *timeline.Controller) error {
	if isFlagPassed("bpm") {
		controller.Dispatch(timeline.SetTempoMsg{BPM: *bpmFlag})
	}
	if isFlagPassed("timesig") {
		num, den, err := parseTimeSignature(*timeSigFlag)
		if err != nil {
			return fmt.Errorf("invalid -timesig: %w", err)
		}
		controller.Dispatch(timeline.SetTimeSignatureMsg{Numerator: num, Denominator: den})
	}
	if isFlagPassed("loop") {
		start, end, err := parseLoop(*loopFlag)
		if err != nil {
			return fmt.Errorf("invalid -loop: %w", err)
		}
		controller.Dispatch(timeline.SetLoopRegionMsg{StartTime: start, EndTime: end})
	}
	return nil
}

// renderWav plays the transport offline and writes the resulting click
// track to a file. Without -duration it renders the whole timeline.
func renderWav(controller *timeline.Controller, metronome *timeline.Metronome, filename string, pcm16 bool) error {
	dur := *durationFlag
	if dur <= 0 {
		dur = controller.State().TimelineLength
	}
	controller.Dispatch(timeline.StartPlaybackMsg{})
	samples := 2 * int(dur*timeline.SampleRate)
	buffer := make([]float32, 0, samples)
	chunk := make([]float32, 8192)
	for len(buffer) < samples {
		if err := metronome.Process(chunk); err != nil {
			return err
		}
		buffer = append(buffer, chunk...)
	}
	controller.Dispatch(timeline.StopPlaybackMsg{})
	var data []byte
	if pcm16 {
		data = oto.FloatBufferTo16BitLE(buffer[:samples], nil)
	} else {
		data = oto.FloatBufferToFloat32LE(buffer[:samples], nil)
	}
	return os.WriteFile(filename, tahti.Wav(data, pcm16), 0644)
}

func dumpState(controller *timeline.Controller) {
	if !*dumpFlag {
		return
	}
	out, err := yaml.Marshal(controller.State())
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not dump state: %v\n", err)
		return
	}
	fmt.Print(string(out))
}

// status is the data the -format template is executed against.
type status struct {
	Position  float64
	Formatted string
	Playing   bool
	Recording bool
	BPM       float64
	Looping   bool
}

type consoleListener struct {
	timeline.NopListener
	tmpl *template.Template
	out  io.Writer
}

func (c *consoleListener) PlayheadStateChanged(state *tahti.State) {
	position := state.Playhead.CurrentPosition()
	data := status{
		Position:  position,
		Formatted: state.FormatTimePosition(position),
		Playing:   state.Playhead.Playing,
		Recording: state.Playhead.Recording,
		BPM:       state.Tempo.BPM,
		Looping:   state.Loop.Valid() && state.Loop.Enabled,
	}
	if err := c.tmpl.Execute(c.out, data); err != nil {
		log.Printf("format template failed: %v", err)
	}
}

func parseTimeSignature(s string) (num, den int, err error) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected N/D, got %q", s)
	}
	if num, err = strconv.Atoi(strings.TrimSpace(parts[0])); err != nil {
		return 0, 0, err
	}
	if den, err = strconv.Atoi(strings.TrimSpace(parts[1])); err != nil {
		return 0, 0, err
	}
	return num, den, nil
}

func parseLoop(s string) (start, end float64, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected start:end, got %q", s)
	}
	if start, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64); err != nil {
		return 0, 0, err
	}
	if end, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64); err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func isFlagPassed(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Tahti headless transport: a timeline monitor and metronome.\nUsage: %s [flags]\n", os.Args[0])
	flag.PrintDefaults()
}
