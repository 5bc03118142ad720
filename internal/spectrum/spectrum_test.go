package spectrum

import (
	"image/color"
	"math"
	"testing"

	"go-vor-decoder/internal/dsp"
)

func toneSignal(freq float64, rate, n int) dsp.Signal {
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(math.Sin(2 * math.Pi * freq * float64(i) / float64(rate)))
	}
	return dsp.Signal{Samples: samples, Rate: rate}
}

func TestAnalyzeFindsTone(t *testing.T) {
	// 6000 samples at 6000 Hz gives 1 Hz bins; the 30 Hz tone lands exactly
	// on bin 30.
	spec := Analyze(toneSignal(30, 6000, 6000))

	if len(spec.Freqs) != 3000 {
		t.Fatalf("expected 3000 single-sided bins, got %d", len(spec.Freqs))
	}
	freq, mag := spec.Peak()
	if freq != 30 {
		t.Errorf("peak at %f Hz, want 30", freq)
	}
	// A unit sine splits its power between the ±30 Hz bins.
	if math.Abs(mag-0.5) > 1e-3 {
		t.Errorf("peak magnitude %f, want 0.5", mag)
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	spec := Analyze(dsp.Signal{Rate: 6000})
	if len(spec.Magnitudes) != 0 {
		t.Fatalf("expected no bins, got %d", len(spec.Magnitudes))
	}
	if f, m := spec.Peak(); f != 0 || m != 0 {
		t.Errorf("expected a zero peak, got %f at %f Hz", m, f)
	}
}

func TestRender(t *testing.T) {
	spec := Analyze(toneSignal(30, 6000, 6000))
	img := Render(spec, "ref_filtered", 640, 320)

	bounds := img.Bounds()
	if bounds.Dx() != 640 || bounds.Dy() != 320 {
		t.Fatalf("image is %dx%d, want 640x320", bounds.Dx(), bounds.Dy())
	}

	// The trace must have painted something that is neither background nor
	// axis gray.
	found := false
	for y := bounds.Min.Y; y < bounds.Max.Y && !found; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if (color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), 255}) == colorTrace {
				found = true
				break
			}
		}
	}
	if !found {
		t.Error("no trace pixels rendered")
	}
}

func TestRenderEmptySpectrum(t *testing.T) {
	img := Render(Spectrum{Rate: 6000}, "input", 320, 200)
	if img.Bounds().Dx() != 320 {
		t.Fatalf("unexpected image size %v", img.Bounds())
	}
}
