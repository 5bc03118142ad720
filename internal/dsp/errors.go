package dsp

import "errors"

var (
	// ErrInsufficientSamples means the input is too short for the requested
	// operation (fewer samples than filter taps, or not enough overlap for
	// the correlation lag window).
	ErrInsufficientSamples = errors.New("insufficient samples")

	// ErrRateMismatch means two signals (or a signal and a requested output
	// rate) are at incommensurable sample rates. This is a configuration
	// problem, not a data problem.
	ErrRateMismatch = errors.New("sample rate mismatch")

	// ErrDegenerateSignal means a path carries too little energy for a phase
	// comparison to be meaningful.
	ErrDegenerateSignal = errors.New("degenerate signal")
)
