package oto

import "math"

// FloatBufferTo16BitLE converts a []float32 buffer to a 16-bit little-endian
// integer buffer, clamping out-of-range samples.
func FloatBufferTo16BitLE(buff []float32, targetBuffer []byte) []byte {
	for _, v := range buff {
		var uv int16
		if v < -1.0 {
			uv = -math.MaxInt16
		} else if v > 1.0 {
			uv = math.MaxInt16
		} else {
			uv = int16(v * math.MaxInt16)
		}
		targetBuffer = append(targetBuffer, byte(uv&255), byte(uv>>8))
	}
	return targetBuffer
}

// FloatBufferToFloat32LE converts a []float32 buffer to its raw 32-bit
// little-endian bytes.
func FloatBufferToFloat32LE(buff []float32, targetBuffer []byte) []byte {
	for _, v := range buff {
		bits := math.Float32bits(v)
		targetBuffer = append(targetBuffer, byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24))
	}
	return targetBuffer
}
