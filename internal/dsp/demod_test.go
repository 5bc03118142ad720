package dsp

import (
	"errors"
	"math"
	"testing"
)

// rotatingSignal creates a complex signal with a constant phase advance per
// sample.
func rotatingSignal(numSamples int, phaseIncrement float64) []complex64 {
	samples := make([]complex64, numSamples)
	for i := 0; i < numSamples; i++ {
		phase := float64(i+1) * phaseIncrement
		samples[i] = complex(float32(math.Cos(phase)), float32(math.Sin(phase)))
	}
	return samples
}

func TestDemodulateConstantFrequency(t *testing.T) {
	const numSamples = 128
	const phaseIncrement = math.Pi / 16

	in := ComplexSignal{Samples: rotatingSignal(numSamples, phaseIncrement), Rate: 6000}
	out, err := Demodulate(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(out.Samples) != numSamples {
		t.Fatalf("expected %d output samples, got %d", numSamples, len(out.Samples))
	}
	// A constant frequency offset demodulates to a constant phase advance,
	// including the backfilled first sample.
	for i, s := range out.Samples {
		if !almostEqual(s, float32(phaseIncrement)) {
			t.Errorf("sample %d: expected phase advance %f, got %f", i, phaseIncrement, s)
		}
	}
}

func TestDemodulateWrapAround(t *testing.T) {
	// A step from +0.75π to -0.75π is a continuous advance of +0.5π, not a
	// -1.5π jump.
	phases := []float64{0, 0.75 * math.Pi, -0.75 * math.Pi}
	samples := make([]complex64, len(phases))
	for i, p := range phases {
		samples[i] = complex(float32(math.Cos(p)), float32(math.Sin(p)))
	}

	out, err := Demodulate(ComplexSignal{Samples: samples, Rate: 6000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !almostEqual(out.Samples[1], float32(0.75*math.Pi)) {
		t.Errorf("expected advance %f at sample 1, got %f", 0.75*math.Pi, out.Samples[1])
	}
	if !almostEqual(out.Samples[2], float32(0.5*math.Pi)) {
		t.Errorf("expected wrapped advance %f at sample 2, got %f", 0.5*math.Pi, out.Samples[2])
	}
}

func TestDemodulateKeepsRateAndDelay(t *testing.T) {
	in := ComplexSignal{Samples: rotatingSignal(64, 0.1), Rate: 6000, Delay: 0.025}
	out, err := Demodulate(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Rate != 6000 || out.Delay != 0.025 {
		t.Errorf("got rate %d delay %f, want 6000 and 0.025", out.Rate, out.Delay)
	}
}

func TestDemodulateTooShort(t *testing.T) {
	in := ComplexSignal{Samples: []complex64{1}, Rate: 6000}
	if _, err := Demodulate(in); !errors.Is(err, ErrInsufficientSamples) {
		t.Fatalf("expected ErrInsufficientSamples, got %v", err)
	}
}

func TestUnwrapContinuity(t *testing.T) {
	// A linear ramp wrapped into (-π, π] has artificial 2π discontinuities;
	// unwrapping must restore a sequence with no jump exceeding π.
	const numSamples = 200
	const increment = 0.3

	wrapped := make([]float32, numSamples)
	for i := range wrapped {
		phase := float64(i) * increment
		wrapped[i] = float32(math.Atan2(math.Sin(phase), math.Cos(phase)))
	}

	out := Unwrap(wrapped)
	for i := 1; i < len(out); i++ {
		d := float64(out[i] - out[i-1])
		if math.Abs(d) > math.Pi {
			t.Fatalf("jump of %f at sample %d after unwrapping", d, i)
		}
		if !within(d, increment, 1e-3) {
			t.Errorf("sample %d: increment %f, want %f", i, d, increment)
		}
	}
}

func TestUnwrapInjectedDiscontinuity(t *testing.T) {
	// Continuous ramp with a deliberate -2π offset spliced in from sample 4
	// onwards.
	in := []float32{0, 0.5, 1.0, 1.5, float32(2.0 - 2*math.Pi), float32(2.5 - 2*math.Pi)}

	out := Unwrap(in)
	for i := 1; i < len(out); i++ {
		if math.Abs(float64(out[i]-out[i-1])) > math.Pi {
			t.Fatalf("jump remaining at sample %d: %f -> %f", i, out[i-1], out[i])
		}
	}
}

func TestMixTranslatesToBaseband(t *testing.T) {
	const rate = 8000
	const freq = 1000.0
	const numSamples = rate // one second, whole number of periods

	in := Signal{Samples: make([]float32, numSamples), Rate: rate, Delay: 0.01}
	for n := range in.Samples {
		in.Samples[n] = float32(math.Cos(2 * math.Pi * freq * float64(n) / rate))
	}

	out := Mix(in, freq)
	if out.Rate != rate || out.Delay != 0.01 {
		t.Fatalf("mixing must not change rate or delay, got %d and %f", out.Rate, out.Delay)
	}

	// cos(θ)·e^(-jθ) = ½ + ½e^(-2jθ); over whole periods the mean is the DC
	// term the tone landed on.
	var re, im float64
	for _, s := range out.Samples {
		re += float64(real(s))
		im += float64(imag(s))
	}
	re /= numSamples
	im /= numSamples
	if !within(re, 0.5, 1e-3) || !within(im, 0, 1e-3) {
		t.Errorf("baseband mean (%f, %f), want (0.5, 0)", re, im)
	}
}

func TestDecimate(t *testing.T) {
	in := Signal{Samples: make([]float32, 100), Rate: 48000, Delay: 0.002}
	for i := range in.Samples {
		in.Samples[i] = float32(i)
	}

	out, err := Decimate(in, 6000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Rate != 6000 {
		t.Errorf("rate %d, want 6000", out.Rate)
	}
	if out.Delay != in.Delay {
		t.Errorf("decimation must not change the time delay, got %f", out.Delay)
	}
	if len(out.Samples) != 13 {
		t.Fatalf("expected 13 samples, got %d", len(out.Samples))
	}
	for i, s := range out.Samples {
		if s != float32(i*8) {
			t.Errorf("sample %d: got %f, want %f", i, s, float32(i*8))
		}
	}
}

func TestDecimateIncommensurableRate(t *testing.T) {
	in := Signal{Samples: make([]float32, 100), Rate: 44100}
	if _, err := Decimate(in, 6000); !errors.Is(err, ErrRateMismatch) {
		t.Fatalf("expected ErrRateMismatch, got %v", err)
	}

	cin := ComplexSignal{Samples: make([]complex64, 100), Rate: 44100}
	if _, err := DecimateComplex(cin, 6000); !errors.Is(err, ErrRateMismatch) {
		t.Fatalf("expected ErrRateMismatch, got %v", err)
	}
}
