package dsp

import (
	"fmt"
	"math"
)

// Comparison is the outcome of a phase comparison between the two aligned
// tones.
type Comparison struct {
	// Degrees is the phase by which the variable tone lags the reference
	// tone, in [0, 360).
	Degrees float64
	// Lag is the (sub-sample interpolated) correlation peak position in
	// samples.
	Lag float64
	// Peak is the normalized correlation coefficient at the peak, a quality
	// indicator in [-1, 1].
	Peak float64
}

// Compare cross-correlates two aligned, equal-rate signals and converts the
// lag of maximum correlation into the phase angle between their toneFreq
// components. The lag search covers one full tone period in each direction
// and the peak is refined by parabolic interpolation, so angular resolution
// is not limited to whole samples.
//
// Both signals have their mean removed first (the reference path keeps a DC
// term from the AM envelope). A path whose remaining mean power is below
// minEnergy cannot be compared and is reported as degenerate.
func Compare(ref, vari Signal, toneFreq, minEnergy float64) (Comparison, error) {
	if ref.Rate != vari.Rate {
		return Comparison{}, fmt.Errorf("%w: ref at %d Hz, var at %d Hz",
			ErrRateMismatch, ref.Rate, vari.Rate)
	}

	n := min(len(ref.Samples), len(vari.Samples))
	period := float64(ref.Rate) / toneFreq
	maxLag := int(math.Ceil(period))
	if n <= 2*maxLag {
		return Comparison{}, fmt.Errorf("%w: %d samples, need more than %d for a ±%d lag window",
			ErrInsufficientSamples, n, 2*maxLag, maxLag)
	}

	a := removeMean(ref.Samples[:n])
	b := removeMean(vari.Samples[:n])

	powerA := meanPower(a)
	powerB := meanPower(b)
	if powerA < minEnergy {
		return Comparison{}, fmt.Errorf("%w: reference path power %.3g below %.3g",
			ErrDegenerateSignal, powerA, minEnergy)
	}
	if powerB < minEnergy {
		return Comparison{}, fmt.Errorf("%w: variable path power %.3g below %.3g",
			ErrDegenerateSignal, powerB, minEnergy)
	}

	// corr[l+maxLag] = mean of a[i]*b[i+l] over the overlap.
	corr := make([]float64, 2*maxLag+1)
	best := -maxLag
	for l := -maxLag; l <= maxLag; l++ {
		var acc float64
		var count int
		for i := range a {
			j := i + l
			if j < 0 {
				continue
			}
			if j >= len(b) {
				break
			}
			acc += float64(a[i]) * float64(b[j])
			count++
		}
		corr[l+maxLag] = acc / float64(count)
		if corr[l+maxLag] > corr[best+maxLag] {
			best = l
		}
	}

	lag := float64(best) + interpolatePeak(corr, best+maxLag)
	deg := math.Mod(360*lag/period, 360)
	if deg < 0 {
		deg += 360
	}

	return Comparison{
		Degrees: deg,
		Lag:     lag,
		Peak:    corr[best+maxLag] / math.Sqrt(powerA*powerB),
	}, nil
}

// interpolatePeak fits a parabola through the peak and its two neighbors and
// returns the fractional offset of the vertex, in (-0.5, 0.5). At the window
// edge there is no neighbor pair to fit and the quantized peak stands.
func interpolatePeak(corr []float64, i int) float64 {
	if i == 0 || i == len(corr)-1 {
		return 0
	}
	denom := corr[i-1] - 2*corr[i] + corr[i+1]
	if denom == 0 {
		return 0
	}
	return 0.5 * (corr[i-1] - corr[i+1]) / denom
}

func removeMean(in []float32) []float32 {
	var sum float64
	for _, s := range in {
		sum += float64(s)
	}
	mean := float32(sum / float64(len(in)))
	out := make([]float32, len(in))
	for i, s := range in {
		out[i] = s - mean
	}
	return out
}

func meanPower(in []float32) float64 {
	var acc float64
	for _, s := range in {
		acc += float64(s) * float64(s)
	}
	return acc / float64(len(in))
}
