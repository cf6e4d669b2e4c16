package pcm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/binaryphile/tonesynth/internal/apperr"
)

func TestSample_CastSemantics(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		bits int
		want int32
	}{
		{"full scale", 1, 16, 32767},
		{"negative full scale", -1, 16, -32767},
		{"truncates toward zero", 0.5, 16, 16383},
		{"negative truncates toward zero", -0.5, 16, -16383},
		{"small", 0.00001, 16, 0},
		{"wraps past full scale", 2, 16, -2},
		{"NaN is silence", math.NaN(), 16, 0},
		{"8-bit", 1, 8, 127},
		{"24-bit", -1, 24, -8388607},
		{"24-bit wraps", 1.5, 24, -4194306},
		{"32-bit saturates", 3, 32, math.MaxInt32},
		{"32-bit negative saturates", -3, 32, math.MinInt32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sample(tt.v, tt.bits); got != tt.want {
				t.Errorf("Sample(%v, %d) = %d, want %d", tt.v, tt.bits, got, tt.want)
			}
		})
	}
}

func TestMono_16BitLittleEndian(t *testing.T) {
	out, err := Mono([]float64{0, 1, -1, 0.5}, 16)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 8 {
		t.Fatalf("len = %d, want 8", len(out))
	}
	want := []int16{0, 32767, -32767, 16383}
	for i, w := range want {
		got := int16(binary.LittleEndian.Uint16(out[i*2:]))
		if got != w {
			t.Errorf("sample %d = %d, want %d", i, got, w)
		}
	}
	if out[2] != 0xFF || out[3] != 0x7F {
		t.Errorf("32767 bytes = % x, want ff 7f", out[2:4])
	}
}

func TestMono_OtherWidths(t *testing.T) {
	out, err := Mono([]float64{0, 1}, 8)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, []byte{128, 255}) {
		t.Errorf("8-bit = %v, want [128 255]", out)
	}

	out, err = Mono([]float64{-1}, 24)
	if err != nil {
		t.Fatal(err)
	}
	// -8388607 = 0x800001
	if !bytes.Equal(out, []byte{0x01, 0x00, 0x80}) {
		t.Errorf("24-bit = % x, want 01 00 80", out)
	}

	out, err = Mono([]float64{1}, 32)
	if err != nil {
		t.Fatal(err)
	}
	if binary.LittleEndian.Uint32(out) != math.MaxInt32 {
		t.Errorf("32-bit = % x", out)
	}
}

func TestMono_BadBitDepth(t *testing.T) {
	_, err := Mono([]float64{0}, 12)
	if !errors.Is(err, ErrBitDepth) {
		t.Errorf("err = %v, want ErrBitDepth", err)
	}
	if apperr.KindOf(err) != apperr.Validation {
		t.Errorf("kind = %v, want Validation", apperr.KindOf(err))
	}
}

func TestStereo_Interleaves(t *testing.T) {
	out, err := Stereo([]float64{1, 0}, []float64{-1, 0.5}, 16)
	if err != nil {
		t.Fatal(err)
	}
	want := []int16{32767, -32767, 0, 16383}
	if len(out) != len(want)*2 {
		t.Fatalf("len = %d, want %d", len(out), len(want)*2)
	}
	for i, w := range want {
		if got := int16(binary.LittleEndian.Uint16(out[i*2:])); got != w {
			t.Errorf("value %d = %d, want %d", i, got, w)
		}
	}
}

func TestStereo_LengthMismatch(t *testing.T) {
	out, err := Stereo([]float64{2, 2}, []float64{2, 2, 2}, 16)
	if !errors.Is(err, ErrChannelMismatch) {
		t.Errorf("err = %v, want ErrChannelMismatch", err)
	}
	if apperr.KindOf(err) != apperr.ShapeMismatch {
		t.Errorf("kind = %v, want ShapeMismatch", apperr.KindOf(err))
	}
	if out != nil {
		t.Error("expected no payload")
	}
}
