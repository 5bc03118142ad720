package spectrum

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	plotMargin   = 24
	tickMarkSize = 4
	numTicks     = 5
)

var (
	colorBackground = color.RGBA{255, 255, 255, 255}
	colorAxis       = color.RGBA{120, 120, 120, 255}
	colorTrace      = color.RGBA{178, 34, 34, 255}
	colorText       = color.RGBA{40, 40, 40, 255}
)

// Render draws the spectrum as a line plot with a frequency axis. Magnitudes
// are scaled to the strongest bin.
func Render(s Spectrum, title string, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(colorBackground), image.Point{}, draw.Src)

	plot := image.Rect(plotMargin*2, plotMargin, width-plotMargin/2, height-plotMargin)
	drawAxes(img, plot)
	label(img, plotMargin*2, plotMargin-8, title)

	if len(s.Magnitudes) == 0 {
		return img
	}

	var maxMag float64
	for _, m := range s.Magnitudes {
		if m > maxMag {
			maxMag = m
		}
	}
	if maxMag == 0 {
		maxMag = 1
	}

	// Trace, one vertical slice per column.
	prevY := plot.Max.Y
	for x := plot.Min.X; x < plot.Max.X; x++ {
		frac := float64(x-plot.Min.X) / float64(plot.Dx()-1)
		bin := int(frac * float64(len(s.Magnitudes)-1))
		y := plot.Max.Y - int(s.Magnitudes[bin]/maxMag*float64(plot.Dy()-1))
		drawVLine(img, x, prevY, y, colorTrace)
		prevY = y
	}

	// Frequency ticks along the bottom.
	nyquist := float64(s.Rate) / 2
	for i := 0; i <= numTicks; i++ {
		x := plot.Min.X + i*plot.Dx()/numTicks
		drawVLine(img, x, plot.Max.Y, plot.Max.Y+tickMarkSize, colorAxis)
		label(img, x-10, plot.Max.Y+tickMarkSize+12, formatHz(nyquist*float64(i)/numTicks))
	}

	return img
}

func drawAxes(img *image.RGBA, plot image.Rectangle) {
	for x := plot.Min.X; x <= plot.Max.X; x++ {
		img.Set(x, plot.Max.Y, colorAxis)
	}
	for y := plot.Min.Y; y <= plot.Max.Y; y++ {
		img.Set(plot.Min.X, y, colorAxis)
	}
}

func drawVLine(img *image.RGBA, x, y0, y1 int, c color.Color) {
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		img.Set(x, y, c)
	}
}

func label(img *image.RGBA, x, y int, text string) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(colorText),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func formatHz(f float64) string {
	if f >= 1000 {
		return fmt.Sprintf("%.1fk", f/1000)
	}
	return fmt.Sprintf("%.0f", f)
}
