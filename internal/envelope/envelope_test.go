package envelope

import (
	"errors"
	"math"
	"testing"

	"github.com/binaryphile/tonesynth/internal/apperr"
	"github.com/binaryphile/tonesynth/internal/config"
)

const tol = 1e-9

func testAudio() config.Audio {
	return config.Audio{SampleRate: 22050, BitsPerSample: 16, DurationMs: 1000}
}

func TestAt_KeyPoints(t *testing.T) {
	tests := []ADSR{
		{AttackMs: 150, DecayEndMs: 1000, DecayEndLevel: 0.1},
		{AttackMs: 500, DecayEndMs: 4000, DecayEndLevel: 0.8},
		{AttackMs: 20, DecayEndMs: 300, DecayEndLevel: 0},
		{AttackMs: 1000, DecayEndMs: 2000, DecayEndLevel: 0.5},
	}
	for _, e := range tests {
		if got := e.At(0); got != 0 {
			t.Errorf("%+v: At(0) = %v, want 0", e, got)
		}
		if got := e.At(e.AttackMs / 1000); math.Abs(got-1) > tol {
			t.Errorf("%+v: At(attack) = %v, want 1", e, got)
		}
		if got := e.At(e.DecayEndMs / 1000); math.Abs(got-e.DecayEndLevel) > tol {
			t.Errorf("%+v: At(decayEnd) = %v, want %v", e, got, e.DecayEndLevel)
		}
	}
}

func TestAt_PeakIsMaximum(t *testing.T) {
	e := ADSR{AttackMs: 150, DecayEndMs: 1000, DecayEndLevel: 0.1}
	for ms := 0.0; ms <= 1000; ms += 5 {
		if v := e.At(ms / 1000); v > 1+tol {
			t.Fatalf("At(%v ms) = %v exceeds the peak", ms, v)
		}
	}
}

func TestCurve_MatchesClosedForm(t *testing.T) {
	audio := testAudio()
	e := ADSR{AttackMs: 150, DecayEndMs: 1000, DecayEndLevel: 0.1}

	curve, err := e.Curve(audio)
	if err != nil {
		t.Fatal(err)
	}
	if len(curve) != 22050 {
		t.Fatalf("len = %d, want 22050", len(curve))
	}
	if curve[0] != 0 {
		t.Errorf("curve[0] = %v, want 0", curve[0])
	}

	peak := int(e.AttackMs / 1000 * float64(audio.SampleRate))
	if math.Abs(curve[peak]-1) > tol {
		t.Errorf("curve[%d] = %v, want 1", peak, curve[peak])
	}
	for i := 0; i < peak; i += 97 {
		if want := e.At(float64(i) / 22050); math.Abs(curve[i]-want) > tol {
			t.Errorf("curve[%d] = %v, want %v", i, curve[i], want)
		}
	}

	// the last sample sits one step short of the decay end
	last := curve[len(curve)-1]
	if math.Abs(last-0.1) > 1e-3 {
		t.Errorf("last sample = %v, want about 0.1", last)
	}
}

func TestCurve_Validation(t *testing.T) {
	bad := []ADSR{
		{AttackMs: 1200, DecayEndMs: 1000, DecayEndLevel: 0.1},
		{AttackMs: 100, DecayEndMs: 1000, DecayEndLevel: 1},
		{AttackMs: -1, DecayEndMs: 1000, DecayEndLevel: 0.1},
		{AttackMs: 100, DecayEndMs: -1000, DecayEndLevel: 0.1},
		{AttackMs: 100, DecayEndMs: 1000, DecayEndLevel: -0.1},
		{AttackMs: math.NaN(), DecayEndMs: 1000, DecayEndLevel: 0.1},
	}
	for _, e := range bad {
		curve, err := e.Curve(testAudio())
		if !errors.Is(err, ErrParameters) {
			t.Errorf("%+v: err = %v, want ErrParameters", e, err)
		}
		if apperr.KindOf(err) != apperr.Validation {
			t.Errorf("%+v: kind = %v, want Validation", e, apperr.KindOf(err))
		}
		if curve != nil {
			t.Errorf("%+v: expected no curve", e)
		}
	}
}

func TestCurve_NoSessionDurationNeeded(t *testing.T) {
	e := ADSR{AttackMs: 100, DecayEndMs: 1000, DecayEndLevel: 0.2}

	curve, err := e.Curve(config.Audio{SampleRate: 8000, BitsPerSample: 16})
	if err != nil {
		t.Fatalf("Curve() error = %v", err)
	}
	if len(curve) != 8000 {
		t.Errorf("len = %d, want 8000", len(curve))
	}
}

func TestCurve_ZeroAttackRampsDown(t *testing.T) {
	e := ADSR{AttackMs: 0, DecayEndMs: 1000, DecayEndLevel: 0.5}
	curve, err := e.Curve(testAudio())
	if err != nil {
		t.Fatal(err)
	}
	if curve[0] != 1 {
		t.Errorf("curve[0] = %v, want 1", curve[0])
	}
	for i := 1; i < len(curve); i++ {
		if curve[i] > curve[i-1] || math.IsNaN(curve[i]) {
			t.Fatalf("curve[%d] = %v not decreasing", i, curve[i])
		}
	}
	if e.At(1) != 0.5 {
		t.Errorf("At(1) = %v, want 0.5", e.At(1))
	}
}

func TestCurve_AttackEqualsDecayHoldsPeak(t *testing.T) {
	e := ADSR{AttackMs: 500, DecayEndMs: 500, DecayEndLevel: 0.2}
	audio := config.Audio{SampleRate: 8000, BitsPerSample: 32, DurationMs: 1000}
	curve, err := e.Curve(audio)
	if err != nil {
		t.Fatal(err)
	}
	// 32-bit doubles the legacy length, but 500 ms truncates to zero seconds
	if len(curve) != 0 {
		t.Errorf("len = %d, want 0", len(curve))
	}

	e = ADSR{AttackMs: 1000, DecayEndMs: 1000, DecayEndLevel: 0.2}
	curve, err = e.Curve(audio)
	if err != nil {
		t.Fatal(err)
	}
	for i := 8000; i < len(curve); i++ {
		if curve[i] != 1 {
			t.Fatalf("curve[%d] = %v, want held peak 1", i, curve[i])
		}
	}
}

func TestApply(t *testing.T) {
	signal := []float64{1, -1, 0.5, 0.25, 9}
	gain := []float64{0, 0.5, 1, 0.5}

	out, err := Apply(signal, gain)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0, -0.5, 0.5, 0.125}
	if len(out) != len(want) {
		t.Fatalf("len = %d, want %d", len(out), len(want))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestApply_SignalTooShort(t *testing.T) {
	_, err := Apply([]float64{1}, []float64{1, 1})
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("err = %v, want ErrShapeMismatch", err)
	}
	if apperr.KindOf(err) != apperr.ShapeMismatch {
		t.Errorf("kind = %v, want ShapeMismatch", apperr.KindOf(err))
	}
}
