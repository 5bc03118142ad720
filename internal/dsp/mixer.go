package dsp

import (
	"fmt"
	"math"
)

// Mix translates a real signal down in frequency by multiplying it with a
// complex exponential at -freq Hz, producing a quadrature signal with the
// content that was at freq now centered at 0 Hz. A pointwise product adds
// nothing to the delay ledger.
func Mix(in Signal, freq float64) ComplexSignal {
	out := make([]complex64, len(in.Samples))
	w := -2 * math.Pi * freq / float64(in.Rate)
	for n, s := range in.Samples {
		sin, cos := math.Sincos(w * float64(n))
		out[n] = complex(float32(cos)*s, float32(sin)*s)
	}
	return ComplexSignal{Samples: out, Rate: in.Rate, Delay: in.Delay}
}

// Decimate keeps every Nth sample so that the signal ends up at rate Hz.
// The target rate must divide the input rate evenly; anything else cannot be
// aligned in integer samples later and is a configuration error. The caller
// is responsible for the signal being band-limited below the new Nyquist.
func Decimate(in Signal, rate int) (Signal, error) {
	factor, err := decimationFactor(in.Rate, rate)
	if err != nil {
		return Signal{}, err
	}
	if factor == 1 {
		return in, nil
	}
	out := make([]float32, (len(in.Samples)+factor-1)/factor)
	for i := range out {
		out[i] = in.Samples[i*factor]
	}
	return Signal{Samples: out, Rate: rate, Delay: in.Delay}, nil
}

// DecimateComplex is Decimate for quadrature signals.
func DecimateComplex(in ComplexSignal, rate int) (ComplexSignal, error) {
	factor, err := decimationFactor(in.Rate, rate)
	if err != nil {
		return ComplexSignal{}, err
	}
	if factor == 1 {
		return in, nil
	}
	out := make([]complex64, (len(in.Samples)+factor-1)/factor)
	for i := range out {
		out[i] = in.Samples[i*factor]
	}
	return ComplexSignal{Samples: out, Rate: rate, Delay: in.Delay}, nil
}

func decimationFactor(from, to int) (int, error) {
	if to <= 0 || from%to != 0 {
		return 0, fmt.Errorf("%w: cannot decimate %d Hz to %d Hz by an integer factor",
			ErrRateMismatch, from, to)
	}
	return from / to, nil
}
