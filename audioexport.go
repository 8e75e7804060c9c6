package tahti

import (
	"bytes"
	"encoding/binary"
)

const wavSampleRate = 44100

// Wav wraps already-encoded interleaved stereo sample data into a WAV
// container. pcm16 tells whether data holds 16-bit integer or 32-bit IEEE
// float samples, matching the two encodings the oto package converters
// produce. Non-PCM data gets the format extension and fact chunk the WAV
// spec requires for it.
func Wav(data []byte, pcm16 bool) []byte {
	const channels = 2
	format, bytesPerSample := 3, 4 // IEEE float
	if pcm16 {
		format, bytesPerSample = 1, 2
	}
	fmtLength := 16
	factLength := 0
	if !pcm16 {
		fmtLength = 18 // adds the extension size field, with zero extension bytes
		factLength = 12
	}
	buf := new(bytes.Buffer)
	w := func(v any) { binary.Write(buf, binary.LittleEndian, v) }
	buf.WriteString("RIFF")
	w(uint32(4 + 8 + fmtLength + factLength + 8 + len(data)))
	buf.WriteString("WAVEfmt ")
	w(uint32(fmtLength))
	w(uint16(format))
	w(uint16(channels))
	w(uint32(wavSampleRate))
	w(uint32(wavSampleRate * channels * bytesPerSample))
	w(uint16(channels * bytesPerSample))
	w(uint16(8 * bytesPerSample))
	if !pcm16 {
		w(uint16(0))
		buf.WriteString("fact")
		w(uint32(4))
		w(uint32(len(data) / bytesPerSample)) // total sample count
	}
	buf.WriteString("data")
	w(uint32(len(data)))
	buf.Write(data)
	return buf.Bytes()
}
