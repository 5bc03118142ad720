package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/go-audio/wav"

	"go-vor-decoder/internal/config"
	"go-vor-decoder/internal/dsp"
	"go-vor-decoder/internal/storage"
	"go-vor-decoder/internal/vor"
)

func main() {
	var (
		inPath      string
		profilePath string
		station     string
		dbPath      string
		spectraDir  string
		dumpDir     string
		raw         bool
		play        bool
	)
	flag.StringVar(&inPath, "in", "", "Path to the demodulated recording (WAV)")
	flag.StringVar(&profilePath, "c", "", "Path to the receiver profile (YAML)")
	flag.StringVar(&station, "station", "", "Station identifier, overrides the profile")
	flag.StringVar(&dbPath, "db", "", "Append the bearing to this sqlite database")
	flag.StringVar(&spectraDir, "spectra", "", "Write per-stage spectrum plots (PNG) into this directory")
	flag.StringVar(&dumpDir, "dump", "", "Write per-stage signals (WAV) into this directory")
	flag.BoolVar(&raw, "raw", false, "Report the uncalibrated angle when no calibration offset is set")
	flag.BoolVar(&play, "play", false, "Play the recovered variable tone on the default audio output")
	flag.Parse()

	var logLevel slog.LevelVar
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &logLevel}))

	if inPath == "" {
		logger.Error("no input recording provided, use -in")
		os.Exit(1)
	}

	cfg, err := config.Load(profilePath)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to load receiver profile: %s", err))
		os.Exit(1)
	}
	if station != "" {
		cfg.Station = station
	}
	if err := setLevel(&logLevel, cfg.LogLevel); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	if err := run(cfg, inPath, dbPath, spectraDir, dumpDir, raw, play, logger); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func run(cfg *config.Config, inPath, dbPath, spectraDir, dumpDir string, raw, play bool, logger *slog.Logger) error {
	rec, err := readRecording(inPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inPath, err)
	}
	logger.Info("recording loaded",
		slog.String("path", inPath),
		slog.String("samples", humanize.Comma(int64(len(rec.Samples)))),
		slog.String("rate", humanize.SI(float64(rec.Rate), "Hz")),
		slog.String("duration", fmt.Sprintf("%.3fs", rec.Duration())))

	decoder, err := vor.New(cfg)
	if err != nil {
		return err
	}

	diag := newDiagnostics(spectraDir, dumpDir, play, logger)
	decoder.OnStage(diag.observe)

	res, err := decoder.Decode(rec)
	switch {
	case errors.Is(err, vor.ErrCalibrationUnset) && raw:
		logger.Warn("no calibration offset on this profile, reporting the raw angle")
	case err != nil:
		return fmt.Errorf("decoding: %w", err)
	}

	logger.Info("bearing decoded",
		slog.Float64("bearing", res.Bearing),
		slog.Float64("raw", res.Raw),
		slog.Bool("calibrated", res.Calibrated),
		slog.Float64("peak", res.Peak))
	fmt.Printf("%.1f\n", res.Bearing)

	if dbPath != "" {
		if err := appendObservation(dbPath, cfg.Station, inPath, res); err != nil {
			return err
		}
		logger.Info("observation stored", slog.String("db", dbPath))
	}
	if play {
		if err := diag.playTone(); err != nil {
			return fmt.Errorf("playing variable tone: %w", err)
		}
	}
	return nil
}

// readRecording loads a mono signal from a WAV container. Stereo recordings
// contribute their first channel only.
func readRecording(path string) (dsp.Signal, error) {
	file, err := os.Open(path)
	if err != nil {
		return dsp.Signal{}, err
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return dsp.Signal{}, fmt.Errorf("not a valid WAV file")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return dsp.Signal{}, fmt.Errorf("reading PCM data: %w", err)
	}

	channels := int(decoder.NumChans)
	if channels < 1 {
		return dsp.Signal{}, fmt.Errorf("no channels in WAV header")
	}
	scale := float32(int(1) << (decoder.BitDepth - 1))

	samples := make([]float32, 0, len(buf.Data)/channels)
	for i := 0; i < len(buf.Data); i += channels {
		samples = append(samples, float32(buf.Data[i])/scale)
	}

	return dsp.Signal{Samples: samples, Rate: int(decoder.SampleRate)}, nil
}

func appendObservation(dbPath, station, recording string, res vor.Result) error {
	store := storage.New(dbPath)
	defer store.Close()

	_, err := store.Append(context.Background(), storage.Observation{
		Station:    station,
		Recording:  recording,
		RawDeg:     res.Raw,
		BearingDeg: res.Bearing,
		Calibrated: res.Calibrated,
		Peak:       res.Peak,
	})
	if err != nil {
		return fmt.Errorf("storing observation: %w", err)
	}
	return nil
}

func setLevel(v *slog.LevelVar, level string) error {
	if level == "" {
		return nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("unknown log level %q", level)
	}
	v.Set(l)
	return nil
}
