package pcm

import (
	"encoding/base64"
	"math"
	"testing"
)

func TestEncode_RoundTrip(t *testing.T) {
	in := []float32{0, 0.25, -0.25, 0.5, -0.5, 0.99, -0.99, 1, -1}

	blob := Encode(in)
	raw, err := Decode(blob.Data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	out := BytesToFloat32(raw)
	if len(out) != len(in) {
		t.Fatalf("Expected %d samples, got %d", len(in), len(out))
	}

	// Quantization error for 16-bit PCM
	const tolerance = 1.0 / 32767.0
	for i := range in {
		if diff := math.Abs(float64(out[i] - in[i])); diff > tolerance {
			t.Errorf("Sample %d: got %f, want %f (diff %f)", i, out[i], in[i], diff)
		}
	}
}

func TestEncode_ClampsOutOfRange(t *testing.T) {
	blob := Encode([]float32{2.0, -2.0})
	raw, err := Decode(blob.Data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	out := BytesToFloat32(raw)
	if out[0] <= 0.99 || out[0] > 1.0 {
		t.Errorf("Positive overflow not clamped: got %f", out[0])
	}
	if out[1] >= -0.99 || out[1] < -1.0 {
		t.Errorf("Negative overflow not clamped: got %f", out[1])
	}
}

func TestEncode_MIMEType(t *testing.T) {
	blob := Encode([]float32{0})
	if blob.MIMEType != "audio/pcm;rate=16000" {
		t.Errorf("Unexpected mime type: %q", blob.MIMEType)
	}
}

func TestDecode_InvalidBase64(t *testing.T) {
	if _, err := Decode("!!not-base64!!"); err == nil {
		t.Error("Expected error for invalid base64")
	}
}

func TestBytesToFloat32_SymmetricScale(t *testing.T) {
	// Decode must invert Encode's 32767 scale exactly, with the one
	// unreachable value -32768 clamped to -1.
	data := Int16ToBytes([]int16{32767, -32767, -32768, 16384})

	out := BytesToFloat32(data)
	if out[0] != 1 {
		t.Errorf("32767 decoded to %f, want 1", out[0])
	}
	if out[1] != -1 {
		t.Errorf("-32767 decoded to %f, want -1", out[1])
	}
	if out[2] != -1 {
		t.Errorf("-32768 decoded to %f, want -1 (clamped)", out[2])
	}
	if want := float32(16384) / 32767.0; out[3] != want {
		t.Errorf("16384 decoded to %f, want %f", out[3], want)
	}
}

func TestBytesToFloat32_OddLength(t *testing.T) {
	// 5 bytes = 2 complete samples + 1 dangling byte
	data := []byte{0x00, 0x40, 0x00, 0xC0, 0xFF}

	out := BytesToFloat32(data)
	if len(out) != 2 {
		t.Fatalf("Expected trailing byte truncated, got %d samples", len(out))
	}
}

func TestBytesToFloat32_Empty(t *testing.T) {
	if out := BytesToFloat32(nil); len(out) != 0 {
		t.Errorf("Expected no samples, got %d", len(out))
	}
	if out := BytesToFloat32([]byte{0x7F}); len(out) != 0 {
		t.Errorf("Expected single byte truncated, got %d samples", len(out))
	}
}

func TestInt16Conversions(t *testing.T) {
	in := []int16{0, 1, -1, 32767, -32768, 12345}

	data := Int16ToBytes(in)
	out := BytesToInt16(data)

	if len(out) != len(in) {
		t.Fatalf("Expected %d samples, got %d", len(in), len(out))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("Sample %d: got %d, want %d", i, out[i], in[i])
		}
	}
}

func TestEncode_WireFormatIsLittleEndian(t *testing.T) {
	blob := Encode([]float32{1.0})
	raw, _ := base64.StdEncoding.DecodeString(blob.Data)
	if len(raw) != 2 {
		t.Fatalf("Expected 2 bytes, got %d", len(raw))
	}
	// 32767 = 0x7FFF little-endian
	if raw[0] != 0xFF || raw[1] != 0x7F {
		t.Errorf("Expected FF 7F, got %02X %02X", raw[0], raw[1])
	}
}

func TestDuration(t *testing.T) {
	if d := Duration(24000, OutputRate); d != 1.0 {
		t.Errorf("Expected 1s, got %f", d)
	}
	if d := Duration(4096, InputRate); math.Abs(d-0.256) > 1e-9 {
		t.Errorf("Expected 0.256s, got %f", d)
	}
	if d := Duration(100, 0); d != 0 {
		t.Errorf("Expected 0 for zero rate, got %f", d)
	}
}
