package camera

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"time"

	"github.com/jacktogon/ringcam/internal/core/constants"
)

// Synthetic renders a moving test pattern, handy on machines without a
// camera and in tests. Each frame is a real JPEG.
type Synthetic struct {
	*driver
	img     *image.RGBA
	quality int
	frame   int
}

func NewSynthetic(width, height, quality, frameBuffers int) (*Synthetic, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("synthetic camera: invalid size %dx%d", width, height)
	}

	s := &Synthetic{
		img:     image.NewRGBA(image.Rect(0, 0, width, height)),
		quality: quality,
	}
	d, err := newDriver(constants.SourceSynthetic, frameBuffers, width, height, s.render)
	if err != nil {
		return nil, err
	}
	s.driver = d
	return s, nil
}

// render runs with the driver mutex held
func (s *Synthetic) render(_ context.Context, dst []byte) ([]byte, error) {
	s.frame++
	s.paint(s.frame, time.Now())

	out := bytes.NewBuffer(dst)
	if err := jpeg.Encode(out, s.img, &jpeg.Options{Quality: s.quality}); err != nil {
		return nil, fmt.Errorf("synthetic camera: encode jpeg: %w", err)
	}
	return out.Bytes(), nil
}

// paint draws vertical colour bars scrolled by the frame number, with a
// white marker bar whose row tracks the wall clock second
func (s *Synthetic) paint(frame int, now time.Time) {
	bounds := s.img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	bars := [...]color.RGBA{
		{R: 192, G: 192, B: 192, A: 255},
		{R: 192, G: 192, B: 0, A: 255},
		{R: 0, G: 192, B: 192, A: 255},
		{R: 0, G: 192, B: 0, A: 255},
		{R: 192, G: 0, B: 192, A: 255},
		{R: 192, G: 0, B: 0, A: 255},
		{R: 0, G: 0, B: 192, A: 255},
	}
	barWidth := max(w/len(bars), 1)
	markerTop := (now.Second() * h) / 60
	markerHeight := max(h/30, 1)

	for y := 0; y < h; y++ {
		inMarker := y >= markerTop && y < markerTop+markerHeight
		for x := 0; x < w; x++ {
			if inMarker {
				s.img.SetRGBA(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
				continue
			}
			bar := ((x + frame*4) / barWidth) % len(bars)
			s.img.SetRGBA(x, y, bars[bar])
		}
	}
}
