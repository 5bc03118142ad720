package dsp

import (
	"fmt"
	"math"
)

// Alignment tolerance: the inter-path delay difference must land on a whole
// sample at the common rate, up to float rounding.
const alignTolerance = 1e-3

// Align produces two time-aligned signals from the two pipeline paths. A
// causal FIR with group delay D makes output index i describe input time
// (i-D)/rate, so the path with the larger accumulated delay describes older
// input at the same index; its leading samples are trimmed until both first
// samples describe the same real-world instant. Both signals are then cut to
// the common overlap window.
//
// Both paths must have reached the same sample rate, and the delay
// difference must be an integer number of samples at that rate; either
// violation points at the filter/decimation configuration, not the data.
func Align(ref, vari Signal) (Signal, Signal, error) {
	if ref.Rate != vari.Rate {
		return Signal{}, Signal{}, fmt.Errorf("%w: ref at %d Hz, var at %d Hz",
			ErrRateMismatch, ref.Rate, vari.Rate)
	}

	diff := (vari.Delay - ref.Delay) * float64(ref.Rate)
	trim := math.Round(diff)
	if math.Abs(diff-trim) > alignTolerance {
		return Signal{}, Signal{}, fmt.Errorf(
			"%w: delay difference of %.3f samples is not integral", ErrRateMismatch, diff)
	}

	switch {
	case trim > 0:
		vari = trimLeading(vari, int(trim))
	case trim < 0:
		ref = trimLeading(ref, int(-trim))
	}
	if len(ref.Samples) == 0 || len(vari.Samples) == 0 {
		return Signal{}, Signal{}, fmt.Errorf("%w: nothing left after trimming %d samples",
			ErrInsufficientSamples, int(math.Abs(trim)))
	}

	// Common overlap window.
	n := min(len(ref.Samples), len(vari.Samples))
	ref.Samples = ref.Samples[:n]
	vari.Samples = vari.Samples[:n]

	return ref, vari, nil
}

func trimLeading(s Signal, n int) Signal {
	if n >= len(s.Samples) {
		s.Samples = nil
		return s
	}
	s.Samples = s.Samples[n:]
	s.Delay -= float64(n) / float64(s.Rate)
	return s
}
