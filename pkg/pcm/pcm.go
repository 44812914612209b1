// Package pcm converts between floating-point audio samples and the
// base64-wrapped 16-bit little-endian PCM form used on the wire.
package pcm

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// Sample rates used by the live session. Input is what the microphone
// ships upstream, output is what the model speaks back.
const (
	InputRate  = 16000
	OutputRate = 24000
)

// Blob is a transport envelope around encoded PCM bytes.
// MIMEType tags the sample rate so the remote end can interpret the data.
type Blob struct {
	Data     string `json:"data"`
	MIMEType string `json:"mimeType"`
}

// Encode converts float samples in [-1, 1] to a base64 PCM16LE blob
// tagged as mono audio at InputRate. Samples outside [-1, 1] are clamped.
func Encode(samples []float32) Blob {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(int16(s*32767)))
	}
	return Blob{
		Data:     base64.StdEncoding.EncodeToString(buf),
		MIMEType: fmt.Sprintf("audio/pcm;rate=%d", InputRate),
	}
}

// Decode strips the transport envelope and returns the raw PCM bytes.
// The sample rate is the caller's context; no mono/rate assumption is made.
func Decode(data string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("pcm: decode payload: %w", err)
	}
	return raw, nil
}

// BytesToFloat32 reinterprets raw bytes as PCM16LE samples rescaled to
// [-1, 1]. The scale mirrors Encode so a round trip stays within one
// quantization step; -32768 clamps to -1. A trailing incomplete sample
// is truncated silently.
func BytesToFloat32(data []byte) []float32 {
	samples := make([]float32, len(data)/2)
	for i := range samples {
		samples[i] = Int16ToFloat32(int16(binary.LittleEndian.Uint16(data[i*2:])))
	}
	return samples
}

// Int16ToFloat32 rescales one PCM16 sample to [-1, 1], inverting the
// 32767 scale used by Encode and Float32ToInt16.
func Int16ToFloat32(s int16) float32 {
	if s == -32768 {
		return -1
	}
	return float32(s) / 32767.0
}

// Int16ToBytes converts int16 samples to PCM16LE bytes.
func Int16ToBytes(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return data
}

// BytesToInt16 converts PCM16LE bytes to int16 samples. A trailing
// incomplete sample is truncated silently.
func BytesToInt16(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return samples
}

// Float32ToInt16 converts float samples in [-1, 1] to int16 with clamping.
func Float32ToInt16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		out[i] = int16(s * 32767)
	}
	return out
}

// Duration returns the playback duration in seconds of a sample count
// at the given rate.
func Duration(sampleCount, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(sampleCount) / float64(sampleRate)
}
