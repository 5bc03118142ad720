package dsp

import (
	"fmt"
	"math"

	seg "github.com/racerxdl/segdsp/dsp"
)

// Demodulate recovers the instantaneous frequency of a complex baseband
// signal with a polar discriminator: each sample is multiplied by the
// conjugate of its predecessor and the angle of the product is the phase
// advance between the two. The angle of the conjugate product lives in
// (-pi, pi], so a jump across the -pi/pi boundary comes out as the small
// continuous change it really is, with no separate unwrapping pass.
//
// The backward difference lands half a sample between its inputs; that
// residual shift is left out of the ledger and folded into the empirical
// calibration offset together with the rest of the unmodeled demodulator
// delay.
func Demodulate(in ComplexSignal) (Signal, error) {
	if len(in.Samples) < 2 {
		return Signal{}, fmt.Errorf("%w: %d complex samples to demodulate",
			ErrInsufficientSamples, len(in.Samples))
	}

	prod := seg.MultiplyConjugate(in.Samples[1:], in.Samples, len(in.Samples)-1)

	out := make([]float32, len(in.Samples))
	for i, p := range prod {
		out[i+1] = float32(math.Atan2(float64(imag(p)), float64(real(p))))
	}
	// No predecessor for the first sample; repeat the second.
	out[0] = out[1]

	return Signal{Samples: out, Rate: in.Rate, Delay: in.Delay}, nil
}

// Unwrap removes artificial ±2π discontinuities from a phase sequence so
// that adjacent samples never differ by more than π.
func Unwrap(phase []float32) []float32 {
	out := make([]float32, len(phase))
	if len(phase) == 0 {
		return out
	}
	out[0] = phase[0]
	var offset float64
	for i := 1; i < len(phase); i++ {
		d := float64(phase[i]) - float64(phase[i-1])
		if d > math.Pi {
			offset -= 2 * math.Pi
		} else if d < -math.Pi {
			offset += 2 * math.Pi
		}
		out[i] = float32(float64(phase[i]) + offset)
	}
	return out
}
