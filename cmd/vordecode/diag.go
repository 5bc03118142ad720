package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image/png"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"go-vor-decoder/internal/dsp"
	"go-vor-decoder/internal/spectrum"
	"go-vor-decoder/internal/vor"
)

const (
	plotWidth  = 800
	plotHeight = 400
)

// diagnostics sinks intermediate pipeline signals into spectrum plots and
// WAV dumps, and keeps the recovered variable tone around for playback.
// Failures here are logged and do not disturb the bearing computation.
type diagnostics struct {
	spectraDir string
	dumpDir    string
	keepTone   bool
	logger     *slog.Logger

	varTone   dsp.Signal
	basebandI dsp.Signal
}

func newDiagnostics(spectraDir, dumpDir string, keepTone bool, logger *slog.Logger) *diagnostics {
	return &diagnostics{
		spectraDir: spectraDir,
		dumpDir:    dumpDir,
		keepTone:   keepTone,
		logger:     logger,
	}
}

func (d *diagnostics) observe(stage vor.Stage, sig dsp.Signal) {
	if d.keepTone && stage == vor.StageVarTone {
		d.varTone = sig
	}
	d.sink(string(stage), sig)

	// Derive the unwrapped instantaneous phase once both baseband
	// components have arrived.
	switch stage {
	case vor.StageVarBasebandI:
		d.basebandI = sig
	case vor.StageVarBasebandQ:
		d.sink("var_phase", instantaneousPhase(d.basebandI, sig))
	}
}

func (d *diagnostics) sink(name string, sig dsp.Signal) {
	if d.spectraDir != "" {
		if err := d.writeSpectrum(name, sig); err != nil {
			d.logger.Warn("spectrum plot failed", slog.String("stage", name), slog.String("error", err.Error()))
		}
	}
	if d.dumpDir != "" {
		if err := d.writeWAV(name, sig); err != nil {
			d.logger.Warn("signal dump failed", slog.String("stage", name), slog.String("error", err.Error()))
		}
	}
}

// instantaneousPhase recovers the continuous phase of the baseband signal
// from its quadrature components.
func instantaneousPhase(i, q dsp.Signal) dsp.Signal {
	n := min(len(i.Samples), len(q.Samples))
	phases := make([]float32, n)
	for k := 0; k < n; k++ {
		phases[k] = float32(math.Atan2(float64(q.Samples[k]), float64(i.Samples[k])))
	}
	return dsp.Signal{Samples: dsp.Unwrap(phases), Rate: q.Rate, Delay: q.Delay}
}

func (d *diagnostics) writeSpectrum(name string, sig dsp.Signal) error {
	if err := os.MkdirAll(d.spectraDir, 0o755); err != nil {
		return err
	}
	sp := spectrum.Analyze(sig)
	freq, mag := sp.Peak()
	d.logger.Debug("stage spectrum",
		slog.String("stage", name),
		slog.Float64("dominantHz", freq),
		slog.Float64("magnitude", mag))
	img := spectrum.Render(sp, name, plotWidth, plotHeight)

	file, err := os.Create(filepath.Join(d.spectraDir, name+".png"))
	if err != nil {
		return err
	}
	defer file.Close()
	return png.Encode(file, img)
}

// writeWAV stores a stage as a peak-normalized 16-bit mono WAV at the
// stage's own sample rate.
func (d *diagnostics) writeWAV(name string, sig dsp.Signal) error {
	if err := os.MkdirAll(d.dumpDir, 0o755); err != nil {
		return err
	}
	file, err := os.Create(filepath.Join(d.dumpDir, name+".wav"))
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := wav.NewEncoder(file, sig.Rate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: 1, SampleRate: sig.Rate},
		Data:   tonePCM(sig),
	}
	if err := encoder.Write(buf); err != nil {
		return err
	}
	return encoder.Close()
}

// playTone plays the recovered variable tone on the default audio output,
// the audible sanity check for the demodulator.
func (d *diagnostics) playTone() error {
	if len(d.varTone.Samples) == 0 {
		return fmt.Errorf("no variable tone captured")
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   d.varTone.Rate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return err
	}
	<-ready

	pcm := tonePCM(d.varTone)
	raw := make([]byte, 2*len(pcm))
	for i, s := range pcm {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(int16(s)))
	}

	player := ctx.NewPlayer(bytes.NewReader(raw))
	defer player.Close()

	d.logger.Info("playing variable tone", slog.Float64("seconds", d.varTone.Duration()))
	player.Play()
	for player.IsPlaying() {
		time.Sleep(10 * time.Millisecond)
	}
	return nil
}

// tonePCM converts samples to 16-bit PCM, scaled so the peak hits full
// scale.
func tonePCM(sig dsp.Signal) []int {
	var peak float32
	for _, s := range sig.Samples {
		if s > peak {
			peak = s
		} else if -s > peak {
			peak = -s
		}
	}
	if peak == 0 {
		peak = 1
	}

	out := make([]int, len(sig.Samples))
	for i, s := range sig.Samples {
		out[i] = int(s / peak * 32767)
	}
	return out
}
