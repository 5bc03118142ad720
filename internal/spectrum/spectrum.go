// Package spectrum computes and renders magnitude spectra of intermediate
// pipeline signals. It is a diagnostic side channel; nothing here feeds back
// into the bearing computation.
package spectrum

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"go-vor-decoder/internal/dsp"
)

// Spectrum is a single-sided, length-normalized magnitude spectrum.
type Spectrum struct {
	Freqs      []float64
	Magnitudes []float64
	Rate       int
}

// Analyze computes the spectrum of a real signal. Bin i covers
// i*rate/len(samples) Hz up to (exclusive) the Nyquist frequency.
func Analyze(sig dsp.Signal) Spectrum {
	n := len(sig.Samples)
	if n == 0 {
		return Spectrum{Rate: sig.Rate}
	}

	in := make([]float64, n)
	for i, s := range sig.Samples {
		in[i] = float64(s)
	}
	bins := fft.FFTReal(in)

	half := n / 2
	if half == 0 {
		half = 1
	}
	freqs := make([]float64, half)
	mags := make([]float64, half)
	for i := 0; i < half; i++ {
		freqs[i] = float64(i) * float64(sig.Rate) / float64(n)
		mags[i] = cmplx.Abs(bins[i]) / float64(n)
	}
	return Spectrum{Freqs: freqs, Magnitudes: mags, Rate: sig.Rate}
}

// Peak returns the frequency and magnitude of the strongest non-DC bin.
func (s Spectrum) Peak() (freq, mag float64) {
	for i := 1; i < len(s.Magnitudes); i++ {
		if s.Magnitudes[i] > mag {
			freq, mag = s.Freqs[i], s.Magnitudes[i]
		}
	}
	return freq, mag
}
