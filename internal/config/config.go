// Package config holds the receiver profile: the fixed constants of the VOR
// signal standard plus the per-setup calibration. Values are not negotiated
// at runtime; a profile is loaded once and passed into the decoder.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is a receiver profile.
type Config struct {
	// Station is a free-form beacon identifier carried through to logs and
	// the bearing store.
	Station string `yaml:"station"`

	LogLevel string `yaml:"logLevel"`

	// Reference path: the 30 Hz tone rides the AM envelope below this
	// cutoff.
	LowpassCutoffHz float64 `yaml:"lowpassCutoffHz"`
	LowpassTaps     int     `yaml:"lowpassTaps"`

	// Variable path: the FM subcarrier band and the mixing frequency used
	// to bring it to baseband.
	BandpassCenterHz float64 `yaml:"bandpassCenterHz"`
	BandpassWidthHz  float64 `yaml:"bandpassWidthHz"`
	BandpassTaps     int     `yaml:"bandpassTaps"`
	SubcarrierHz     float64 `yaml:"subcarrierHz"`

	// Baseband anti-alias lowpass, applied to the mixed quadrature signal
	// before decimation. Mixing a real signal leaves an image at twice the
	// subcarrier frequency; without this filter the image folds back into
	// the analysis band when every Nth sample is picked off.
	BasebandCutoffHz float64 `yaml:"basebandCutoffHz"`
	BasebandTaps     int     `yaml:"basebandTaps"`

	// AnalysisRate is the common rate both paths are decimated to before
	// the phase comparison. It must divide the recording's sample rate.
	AnalysisRate int `yaml:"analysisRate"`

	// RefToneHz is the frequency of the two navigation tones.
	RefToneHz float64 `yaml:"refToneHz"`

	// EnergyFloor is the minimum mean power (after mean removal) a path
	// must carry for the phase comparison to be trusted.
	EnergyFloor float64 `yaml:"energyFloor"`

	// CalibrationDeg compensates the unmodeled delay of this particular
	// receiver chain, chiefly in the FM demodulation stage. It is measured
	// once against a recording from a known location and held fixed; nil
	// means no calibration has ever been established for this setup.
	CalibrationDeg *float64 `yaml:"calibrationDeg"`
}

// Default returns the profile for a standard VOR beacon: 30 Hz tones, the
// subcarrier at 9960 Hz with ±480 Hz deviation, and the filter layout of the
// reference receiver (500 Hz envelope lowpass, 8710-11210 Hz subcarrier
// band, 1.5 kHz baseband anti-alias lowpass, analysis at 6 kHz). Tap counts
// are chosen so the inter-path delay difference stays an exact multiple of
// common decimation factors.
func Default() *Config {
	return &Config{
		LogLevel:         "info",
		LowpassCutoffHz:  500,
		LowpassTaps:      241,
		BandpassCenterHz: 9960,
		BandpassWidthHz:  2500,
		BandpassTaps:     401,
		SubcarrierHz:     9960,
		BasebandCutoffHz: 1500,
		BasebandTaps:     241,
		AnalysisRate:     6000,
		RefToneHz:        30,
		EnergyFloor:      1e-6,
	}
}

// Load reads a YAML profile over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing profile %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects profiles the pipeline cannot honor. Checks that depend on
// the recording's sample rate (decimation factor, delay integrality) can
// only happen at decode time.
func (c *Config) Validate() error {
	switch {
	case c.LowpassTaps < 3 || c.LowpassTaps%2 == 0:
		return fmt.Errorf("lowpassTaps %d: must be odd and at least 3", c.LowpassTaps)
	case c.BandpassTaps < 3 || c.BandpassTaps%2 == 0:
		return fmt.Errorf("bandpassTaps %d: must be odd and at least 3", c.BandpassTaps)
	case c.LowpassCutoffHz <= 0:
		return fmt.Errorf("lowpassCutoffHz %.1f: must be positive", c.LowpassCutoffHz)
	case c.BandpassWidthHz <= 0 || c.BandpassCenterHz-c.BandpassWidthHz/2 <= 0:
		return fmt.Errorf("bandpass %.1f±%.1f Hz: band edge below 0 Hz",
			c.BandpassCenterHz, c.BandpassWidthHz/2)
	case c.SubcarrierHz <= 0:
		return fmt.Errorf("subcarrierHz %.1f: must be positive", c.SubcarrierHz)
	case c.BasebandTaps < 3 || c.BasebandTaps%2 == 0:
		return fmt.Errorf("basebandTaps %d: must be odd and at least 3", c.BasebandTaps)
	case c.BasebandCutoffHz <= 0:
		return fmt.Errorf("basebandCutoffHz %.1f: must be positive", c.BasebandCutoffHz)
	case float64(c.AnalysisRate) < 2*c.BasebandCutoffHz:
		return fmt.Errorf("basebandCutoffHz %.1f exceeds the analysis Nyquist %.1f",
			c.BasebandCutoffHz, float64(c.AnalysisRate)/2)
	case c.AnalysisRate <= 0:
		return fmt.Errorf("analysisRate %d: must be positive", c.AnalysisRate)
	case c.RefToneHz <= 0:
		return fmt.Errorf("refToneHz %.1f: must be positive", c.RefToneHz)
	case c.EnergyFloor < 0:
		return fmt.Errorf("energyFloor %.3g: must not be negative", c.EnergyFloor)
	case float64(c.AnalysisRate) <= 2*c.RefToneHz:
		return fmt.Errorf("analysisRate %d cannot represent a %.1f Hz tone",
			c.AnalysisRate, c.RefToneHz)
	}
	return nil
}
