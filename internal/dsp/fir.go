package dsp

import (
	"fmt"
	"math"
)

// Filter is a linear-phase FIR filter. Tap counts are restricted to odd
// numbers so that the group delay (taps-1)/2 is an exact integer number of
// samples; the delay is known from the design, not estimated afterwards.
type Filter struct {
	taps []float64
}

// DesignLowPass creates a low-pass FIR filter using the windowed-sinc method
// with a Hamming window, normalized to unit DC gain. cutoff and rate are in
// Hz.
func DesignLowPass(numTaps int, cutoff, rate float64) (*Filter, error) {
	if err := checkTaps(numTaps); err != nil {
		return nil, err
	}
	if cutoff <= 0 || cutoff >= rate/2 {
		return nil, fmt.Errorf("lowpass cutoff %.1f Hz outside (0, %.1f)", cutoff, rate/2)
	}

	taps := sincTaps(numTaps, cutoff/rate)

	// Normalize for unit gain at DC.
	sum := 0.0
	for _, t := range taps {
		sum += t
	}
	for i := range taps {
		taps[i] /= sum
	}
	return &Filter{taps: taps}, nil
}

// DesignBandPass creates a band-pass FIR filter centered on center Hz with a
// total passband width of width Hz, normalized to unit gain at the band
// center. The prototype is the same windowed sinc as DesignLowPass, shifted
// up by modulating with a cosine at the center frequency.
func DesignBandPass(numTaps int, center, width, rate float64) (*Filter, error) {
	if err := checkTaps(numTaps); err != nil {
		return nil, err
	}
	if width <= 0 || center-width/2 <= 0 || center+width/2 >= rate/2 {
		return nil, fmt.Errorf("bandpass %.1f±%.1f Hz outside (0, %.1f)", center, width/2, rate/2)
	}

	taps := sincTaps(numTaps, width/2/rate)
	M := float64(numTaps-1) / 2
	w := 2 * math.Pi * center / rate
	for n := range taps {
		taps[n] *= 2 * math.Cos(w*(float64(n)-M))
	}

	// Normalize for unit gain at the band center.
	var re, im float64
	for n, t := range taps {
		re += t * math.Cos(w*float64(n))
		im -= t * math.Sin(w*float64(n))
	}
	gain := math.Hypot(re, im)
	for i := range taps {
		taps[i] /= gain
	}
	return &Filter{taps: taps}, nil
}

// sincTaps returns an unnormalized windowed-sinc kernel for a normalized
// cutoff (cycles per sample).
func sincTaps(numTaps int, cutoff float64) []float64 {
	taps := make([]float64, numTaps)
	M := float64(numTaps - 1)
	fc := cutoff * 2
	for n := 0; n < numTaps; n++ {
		x := float64(n) - M/2
		if x == 0 {
			taps[n] = fc
		} else {
			taps[n] = fc * math.Sin(math.Pi*fc*x) / (math.Pi * fc * x)
		}
		// Hamming window
		taps[n] *= 0.54 - 0.46*math.Cos(2*math.Pi*float64(n)/M)
	}
	return taps
}

func checkTaps(numTaps int) error {
	if numTaps < 3 || numTaps%2 == 0 {
		return fmt.Errorf("tap count %d: must be odd and at least 3", numTaps)
	}
	return nil
}

// Taps returns a copy of the filter coefficients.
func (f *Filter) Taps() []float64 {
	out := make([]float64, len(f.taps))
	copy(out, f.taps)
	return out
}

// GroupDelay returns the filter's delay in samples.
func (f *Filter) GroupDelay() int {
	return (len(f.taps) - 1) / 2
}

// Apply runs the causal convolution over a whole recording. The output has
// the same length and rate as the input, with the filter's group delay added
// to the ledger. Inputs shorter than the filter are rejected.
func (f *Filter) Apply(in Signal) (Signal, error) {
	if len(in.Samples) < len(f.taps) {
		return Signal{}, fmt.Errorf("%w: %d samples for a %d tap filter",
			ErrInsufficientSamples, len(in.Samples), len(f.taps))
	}

	out := make([]float32, len(in.Samples))
	for i := range out {
		var acc float64
		for j, tap := range f.taps {
			k := i - j
			if k < 0 {
				break
			}
			acc += tap * float64(in.Samples[k])
		}
		out[i] = float32(acc)
	}

	return Signal{
		Samples: out,
		Rate:    in.Rate,
		Delay:   in.Delay + float64(f.GroupDelay())/float64(in.Rate),
	}, nil
}

// ApplyComplex runs the same causal convolution over a quadrature signal.
// The real-valued taps act on the in-phase and quadrature components alike,
// so the magnitude response is the same as for real input.
func (f *Filter) ApplyComplex(in ComplexSignal) (ComplexSignal, error) {
	if len(in.Samples) < len(f.taps) {
		return ComplexSignal{}, fmt.Errorf("%w: %d samples for a %d tap filter",
			ErrInsufficientSamples, len(in.Samples), len(f.taps))
	}

	out := make([]complex64, len(in.Samples))
	for i := range out {
		var accI, accQ float64
		for j, tap := range f.taps {
			k := i - j
			if k < 0 {
				break
			}
			accI += tap * float64(real(in.Samples[k]))
			accQ += tap * float64(imag(in.Samples[k]))
		}
		out[i] = complex(float32(accI), float32(accQ))
	}

	return ComplexSignal{
		Samples: out,
		Rate:    in.Rate,
		Delay:   in.Delay + float64(f.GroupDelay())/float64(in.Rate),
	}, nil
}
