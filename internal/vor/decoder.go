// Package vor turns a demodulated VOR beacon recording into a compass
// bearing. The decoder is a pure function of the recording and a receiver
// profile: the 30 Hz reference tone is pulled from the AM envelope, the
// variable tone is recovered from the 9960 Hz FM subcarrier, both paths are
// realigned against their accumulated filter delays, and the phase between
// the tones is the bearing.
package vor

import (
	"errors"
	"fmt"
	"math"

	"go-vor-decoder/internal/config"
	"go-vor-decoder/internal/dsp"
)

// ErrCalibrationUnset means the profile carries no calibration offset. The
// result returned alongside it still holds the raw angle for callers that
// explicitly asked for an uncalibrated reading.
var ErrCalibrationUnset = errors.New("calibration offset not set")

// Stage names an intermediate signal exposed to observers.
type Stage string

const (
	StageInput        Stage = "input"
	StageRefFiltered  Stage = "ref_filtered"
	StageVarBandpass  Stage = "var_bandpass"
	StageVarBasebandI Stage = "var_baseband_i"
	StageVarBasebandQ Stage = "var_baseband_q"
	StageVarTone      Stage = "var_tone"
	StageRefAligned   Stage = "ref_aligned"
	StageVarAligned   Stage = "var_aligned"
)

// Observer receives intermediate signals as the pipeline produces them. It
// is a read-only side channel; the computed bearing does not depend on it.
type Observer func(stage Stage, sig dsp.Signal)

// Result is a decoded bearing.
type Result struct {
	// Bearing in degrees, [0, 360). Equal to Raw when no calibration offset
	// is set.
	Bearing float64
	// Raw is the measured phase angle before calibration.
	Raw float64
	// Calibrated reports whether Bearing includes the profile's offset.
	Calibrated bool
	// Peak is the normalized correlation coefficient at the chosen lag.
	Peak float64
}

// Decoder runs the two-path pipeline. Beyond the cached filter design it
// holds no state between runs: decoding the same recording twice yields the
// identical bearing.
type Decoder struct {
	cfg          *config.Config
	lowpass      *dsp.Filter
	bandpass     *dsp.Filter
	baseband     *dsp.Filter
	designedRate int
	observer     Observer
}

// New validates the profile and returns a decoder. The filters are designed
// on first decode, once the recording's sample rate is known.
func New(cfg *config.Config) (*Decoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Decoder{cfg: cfg}, nil
}

// OnStage installs an observer for intermediate signals. Complex stages are
// delivered as separate in-phase and quadrature signals.
func (d *Decoder) OnStage(obs Observer) {
	d.observer = obs
}

func (d *Decoder) observe(stage Stage, sig dsp.Signal) {
	if d.observer != nil {
		d.observer(stage, sig)
	}
}

// Decode computes the bearing of one recording. The recording's rate must be
// an integer multiple of the profile's analysis rate. With no calibration on
// the profile the returned error is ErrCalibrationUnset and the Result still
// carries the raw angle.
func (d *Decoder) Decode(rec dsp.Signal) (Result, error) {
	if err := d.design(rec.Rate); err != nil {
		return Result{}, err
	}
	d.observe(StageInput, rec)

	ref, err := d.refPath(rec)
	if err != nil {
		return Result{}, err
	}
	vari, err := d.varPath(rec)
	if err != nil {
		return Result{}, err
	}

	ref, vari, err = dsp.Align(ref, vari)
	if err != nil {
		return Result{}, fmt.Errorf("aligning paths: %w", err)
	}
	d.observe(StageRefAligned, ref)
	d.observe(StageVarAligned, vari)

	cmp, err := dsp.Compare(ref, vari, d.cfg.RefToneHz, d.cfg.EnergyFloor)
	if err != nil {
		return Result{}, fmt.Errorf("comparing phase: %w", err)
	}

	res := Result{Raw: cmp.Degrees, Bearing: cmp.Degrees, Peak: cmp.Peak}
	if d.cfg.CalibrationDeg == nil {
		return res, ErrCalibrationUnset
	}
	res.Bearing = math.Mod(cmp.Degrees+*d.cfg.CalibrationDeg, 360)
	if res.Bearing < 0 {
		res.Bearing += 360
	}
	res.Calibrated = true
	return res, nil
}

// refPath isolates the reference tone: envelope lowpass, then decimation to
// the analysis rate.
func (d *Decoder) refPath(rec dsp.Signal) (dsp.Signal, error) {
	ref, err := d.lowpass.Apply(rec)
	if err != nil {
		return dsp.Signal{}, fmt.Errorf("lowpass extractor: %w", err)
	}
	ref, err = dsp.Decimate(ref, d.cfg.AnalysisRate)
	if err != nil {
		return dsp.Signal{}, fmt.Errorf("reference path: %w", err)
	}
	d.observe(StageRefFiltered, ref)
	return ref, nil
}

// varPath recovers the variable tone: subcarrier bandpass, mix to baseband,
// anti-alias lowpass, decimation, then the frequency discriminator.
func (d *Decoder) varPath(rec dsp.Signal) (dsp.Signal, error) {
	band, err := d.bandpass.Apply(rec)
	if err != nil {
		return dsp.Signal{}, fmt.Errorf("subcarrier isolator: %w", err)
	}
	d.observe(StageVarBandpass, band)

	// Mixing the real bandpass signal leaves an image at minus twice the
	// subcarrier frequency; the lowpass removes it before decimation folds
	// it back into the analysis band.
	base := dsp.Mix(band, d.cfg.SubcarrierHz)
	base, err = d.baseband.ApplyComplex(base)
	if err != nil {
		return dsp.Signal{}, fmt.Errorf("baseband lowpass: %w", err)
	}
	base, err = dsp.DecimateComplex(base, d.cfg.AnalysisRate)
	if err != nil {
		return dsp.Signal{}, fmt.Errorf("variable path: %w", err)
	}
	d.observe(StageVarBasebandI, realPart(base))
	d.observe(StageVarBasebandQ, imagPart(base))

	tone, err := dsp.Demodulate(base)
	if err != nil {
		return dsp.Signal{}, fmt.Errorf("fm demodulator: %w", err)
	}
	d.observe(StageVarTone, tone)
	return tone, nil
}

// design (re)builds the filters for a recording rate. Filter taps depend
// only on the profile and the rate, so repeated calls at the same rate reuse
// the previous design.
func (d *Decoder) design(rate int) error {
	if rate <= 0 {
		return fmt.Errorf("%w: recording rate %d Hz", dsp.ErrRateMismatch, rate)
	}
	if d.lowpass != nil && d.designedRate == rate {
		return nil
	}

	lp, err := dsp.DesignLowPass(d.cfg.LowpassTaps, d.cfg.LowpassCutoffHz, float64(rate))
	if err != nil {
		return fmt.Errorf("designing lowpass: %w", err)
	}
	bp, err := dsp.DesignBandPass(d.cfg.BandpassTaps, d.cfg.BandpassCenterHz,
		d.cfg.BandpassWidthHz, float64(rate))
	if err != nil {
		return fmt.Errorf("designing bandpass: %w", err)
	}
	bb, err := dsp.DesignLowPass(d.cfg.BasebandTaps, d.cfg.BasebandCutoffHz, float64(rate))
	if err != nil {
		return fmt.Errorf("designing baseband lowpass: %w", err)
	}
	d.lowpass, d.bandpass, d.baseband, d.designedRate = lp, bp, bb, rate
	return nil
}

func realPart(in dsp.ComplexSignal) dsp.Signal {
	out := make([]float32, len(in.Samples))
	for i, s := range in.Samples {
		out[i] = real(s)
	}
	return dsp.Signal{Samples: out, Rate: in.Rate, Delay: in.Delay}
}

func imagPart(in dsp.ComplexSignal) dsp.Signal {
	out := make([]float32, len(in.Samples))
	for i, s := range in.Samples {
		out[i] = imag(s)
	}
	return dsp.Signal{Samples: out, Rate: in.Rate, Delay: in.Delay}
}
