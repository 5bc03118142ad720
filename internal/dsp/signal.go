// Package dsp implements the signal chain of the bearing decoder: FIR filter
// design and application, frequency translation, integer decimation,
// quadrature demodulation, delay-ledger alignment and phase comparison by
// cross-correlation. Every operation produces a new signal; inputs are never
// mutated.
package dsp

// Signal is a block of real samples together with its sample rate and the
// group delay accumulated by every stage that produced it. Delay is kept in
// seconds so that it survives decimation unchanged; the alignment stage
// converts it back to samples at the common rate.
type Signal struct {
	Samples []float32
	Rate    int
	Delay   float64
}

// ComplexSignal is the quadrature counterpart of Signal, produced by mixing
// a real signal down to baseband.
type ComplexSignal struct {
	Samples []complex64
	Rate    int
	Delay   float64
}

// Duration returns the covered time span in seconds.
func (s Signal) Duration() float64 {
	if s.Rate == 0 {
		return 0
	}
	return float64(len(s.Samples)) / float64(s.Rate)
}

// DelaySamples returns the accumulated delay expressed in samples at the
// signal's current rate.
func (s Signal) DelaySamples() float64 {
	return s.Delay * float64(s.Rate)
}
