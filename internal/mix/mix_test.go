package mix

import (
	"errors"
	"math"
	"testing"

	"github.com/binaryphile/tonesynth/internal/apperr"
)

const eps = 1e-9

func constant(v float64, n int) []float64 {
	b := make([]float64, n)
	for i := range b {
		b[i] = v
	}
	return b
}

func equal(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > eps {
			return false
		}
	}
	return true
}

func TestConcat_LengthAndOrder(t *testing.T) {
	a := []float64{1, 2}
	b := []float64{}
	c := []float64{3, 4, 5}

	got := Concat(a, b, c)
	want := []float64{1, 2, 3, 4, 5}
	if !equal(got, want) {
		t.Errorf("Concat() = %v, want %v", got, want)
	}
	if len(Concat()) != 0 {
		t.Error("Concat() of nothing should be empty")
	}
}

func TestConcat_Associative(t *testing.T) {
	a := []float64{0.1, -0.2}
	b := []float64{0.3}
	c := []float64{-0.4, 0.5, 0.6}

	left := Concat(Concat(a, b), c)
	right := Concat(a, Concat(b, c))
	if !equal(left, right) {
		t.Errorf("concat(concat(a,b),c) = %v, concat(a,concat(b,c)) = %v", left, right)
	}
}

func TestNormalize_PeakAtMostOne(t *testing.T) {
	tests := []struct {
		name string
		bufs [][]float64
	}{
		{"one full-scale", [][]float64{constant(1, 8)}},
		{"one triangle peak", [][]float64{{0.5, 1, 1.5, 1}}},
		{"two full-scale", [][]float64{constant(1, 8), constant(1, 8)}},
		{"ragged", [][]float64{{0.9, -0.9, 0.9}, {0.9}, {-0.5, -0.7}}},
		{"five voices", [][]float64{
			constant(0.5, 4), constant(0.6, 4), constant(-0.3, 4), constant(0.9, 4), constant(0.2, 4),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Normalize(tt.bufs...)
			if err != nil {
				t.Fatal(err)
			}
			for i, v := range out {
				if math.Abs(v) > 1+eps {
					t.Fatalf("out[%d] = %v exceeds 1", i, v)
				}
			}
		})
	}
}

func TestNormalize_ScalesByPeak(t *testing.T) {
	out, err := Normalize([]float64{0.5, 1, -0.25}, []float64{0.5, 1})
	if err != nil {
		t.Fatal(err)
	}
	// sums 1, 2, -0.25; peak 2
	want := []float64{0.5, 1, -0.125}
	if !equal(out, want) {
		t.Errorf("Normalize() = %v, want %v", out, want)
	}
}

func TestNormalize_QuietSumUnscaled(t *testing.T) {
	out, err := Normalize([]float64{0.2, 0.1}, []float64{0.3, -0.4})
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0.5, -0.3}
	if !equal(out, want) {
		t.Errorf("Normalize() = %v, want %v", out, want)
	}
}

func TestNormalize_DoesNotMutateInputs(t *testing.T) {
	a := []float64{1, 1}
	b := []float64{1}
	Normalize(a, b)
	if a[0] != 1 || a[1] != 1 || len(b) != 1 || b[0] != 1 {
		t.Errorf("inputs changed: a=%v b=%v", a, b)
	}
}

// The single-input case returns that input, not the element after it.
func TestNormalize_SingleAbovePeakScaled(t *testing.T) {
	in := []float64{0.5, 1, 1.5, -0.75}

	out, err := Normalize(in)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1.0 / 3, 2.0 / 3, 1, -0.5}
	for i := range want {
		if math.Abs(out[i]-want[i]) > eps {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
	if in[2] != 1.5 {
		t.Error("input was modified")
	}
}

func TestSingleInput_ReturnsCopyOfFirst(t *testing.T) {
	in := []float64{0.25, -0.5}

	norm, err := Normalize(in)
	if err != nil || !equal(norm, in) {
		t.Errorf("Normalize(single) = %v, %v; want %v", norm, err, in)
	}
	lin, err := Linear(0.5, in)
	if err != nil || !equal(lin, in) {
		t.Errorf("Linear(single) = %v, %v; want %v", lin, err, in)
	}
	lg, err := Log(0.5, in)
	if err != nil || !equal(lg, in) {
		t.Errorf("Log(single) = %v, %v; want %v", lg, err, in)
	}

	norm[0] = 9
	if in[0] != 0.25 {
		t.Error("result aliases the input")
	}
}

func TestNoSignal(t *testing.T) {
	if _, err := Normalize(); !errors.Is(err, ErrNoSignal) {
		t.Errorf("Normalize() err = %v, want ErrNoSignal", err)
	}
	if _, err := Linear(0.5); !errors.Is(err, ErrNoSignal) {
		t.Errorf("Linear() err = %v, want ErrNoSignal", err)
	}
	if _, err := Log(0.5); !errors.Is(err, ErrNoSignal) {
		t.Errorf("Log() err = %v, want ErrNoSignal", err)
	}
}

func TestThreshold_Validation(t *testing.T) {
	a, b := constant(0.5, 4), constant(0.5, 4)
	for _, th := range []float64{-0.01, 1, 1.5, math.NaN()} {
		out, err := Linear(th, a, b)
		if !errors.Is(err, ErrThreshold) || out != nil {
			t.Errorf("Linear(%v) = %v, %v; want ErrThreshold", th, out, err)
		}
		if apperr.KindOf(err) != apperr.Validation {
			t.Errorf("Linear(%v) kind = %v, want Validation", th, apperr.KindOf(err))
		}
		if _, err := Log(th, a, b); !errors.Is(err, ErrThreshold) {
			t.Errorf("Log(%v) err = %v, want ErrThreshold", th, err)
		}
	}
}

func TestLinear_Scenario(t *testing.T) {
	out, err := Linear(0.8, constant(0.9, 100), constant(0.9, 100))
	if err != nil {
		t.Fatal(err)
	}
	// 1.8 -> 0.8 + (0.2/1.2)*1.0
	want := 0.8 + (0.2/1.2)*1.0
	for i, v := range out {
		if v > 1 {
			t.Fatalf("out[%d] = %v exceeds 1", i, v)
		}
		if math.Abs(v-want) > eps {
			t.Fatalf("out[%d] = %v, want %v", i, v, want)
		}
	}
}

func TestLinear_BelowThresholdIsPlainSum(t *testing.T) {
	out, err := Linear(0.8, []float64{0.3, -0.2, 0.1}, []float64{0.4, -0.5})
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0.7, -0.7, 0.1}
	if !equal(out, want) {
		t.Errorf("Linear() = %v, want %v", out, want)
	}
}

func TestCompress_MaxSumMapsToOne(t *testing.T) {
	for i := 0; i < 100; i++ {
		th := float64(i) / 100
		lin := compressLinear(2, th, (1-th)/(2-th))
		if math.Abs(lin-1) > 1e-12 {
			t.Errorf("linear t=%v: f(2) = %v, want 1", th, lin)
		}
		alpha := Alpha(th)
		lg := compressLog(-2, th, alpha, math.Log(1+alpha))
		if math.Abs(lg+1) > 1e-12 {
			t.Errorf("log t=%v: f(-2) = %v, want -1", th, lg)
		}
	}
}

func TestCompress_ContinuousAtThreshold(t *testing.T) {
	const h = 1e-9
	for _, th := range []float64{0, 0.1, 0.25, 0.5, 0.8, 0.99} {
		coeff := (1 - th) / (2 - th)
		alpha := Alpha(th)
		denom := math.Log(1 + alpha)

		for _, s := range []float64{1, -1} {
			x := s * th
			below := compressLinear(x-s*h, th, coeff)
			above := compressLinear(x+s*h, th, coeff)
			if math.Abs(above-below) > 1e-6 {
				t.Errorf("linear t=%v discontinuous: %v vs %v", th, below, above)
			}
			below = compressLog(x-s*h, th, alpha, denom)
			above = compressLog(x+s*h, th, alpha, denom)
			if math.Abs(above-below) > 1e-6 {
				t.Errorf("log t=%v discontinuous: %v vs %v", th, below, above)
			}
		}
	}
}

func TestLog_BoundedAndMonotone(t *testing.T) {
	th := 0.6
	alpha := Alpha(th)
	denom := math.Log(1 + alpha)
	prev := -1.0
	for x := 0.0; x <= 2; x += 0.01 {
		y := compressLog(x, th, alpha, denom)
		if y > 1+eps {
			t.Fatalf("f(%v) = %v exceeds 1", x, y)
		}
		if y < prev-eps {
			t.Fatalf("f not monotone at %v: %v < %v", x, y, prev)
		}
		prev = y
	}
}

func TestLog_ThreeVoicesStayInRange(t *testing.T) {
	a := constant(0.9, 16)
	b := constant(0.8, 16)
	c := constant(-0.3, 8)
	out, err := Log(0.8, a, b, c)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 16 {
		t.Fatalf("len = %d, want 16", len(out))
	}
	for i, v := range out {
		if math.Abs(v) > 1+eps {
			t.Fatalf("out[%d] = %v exceeds 1", i, v)
		}
	}
	// past the short voice the zero padding still passes through the
	// curve, so a sum already above the threshold is compressed again
	alpha := Alpha(0.8)
	denom := math.Log(1 + alpha)
	want := compressLog(compressLog(1.7, 0.8, alpha, denom), 0.8, alpha, denom)
	if math.Abs(out[15]-want) > eps {
		t.Errorf("out[15] = %v, want %v", out[15], want)
	}
}

func TestAlpha_MatchesSolver(t *testing.T) {
	for i := 0; i < 100; i++ {
		th := float64(i) / 100
		got := Alpha(th)
		want := SolveAlpha(th)
		if math.Abs(got-want)/want > 1e-5 {
			t.Errorf("Alpha(%v) = %v, solver %v", th, got, want)
		}
	}
}

func TestAlpha_Index(t *testing.T) {
	if Alpha(0.29) != alphaTable[29] {
		t.Errorf("Alpha(0.29) = %v, want table[29] = %v", Alpha(0.29), alphaTable[29])
	}
	if Alpha(0.999) != alphaTable[99] {
		t.Errorf("Alpha(0.999) = %v, want table[99]", Alpha(0.999))
	}
}
