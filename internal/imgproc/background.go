package imgproc

import (
	"image"
	"image/color"
)

// DefaultTolerance is the background-match distance used by the pipeline.
// Tuning parameter, not user-configurable.
const DefaultTolerance = 50

const maxBandPx = 50

// bandWidth is the corner-sample side length: 10% of the smaller dimension,
// capped at 50px.
func bandWidth(w, h int) int {
	band := w / 10
	if h/10 < band {
		band = h / 10
	}
	if band > maxBandPx {
		band = maxBandPx
	}
	return band
}

// RemoveBackground estimates the background color from the four corner
// regions and makes near-background pixels inside the edge band fully
// transparent. Interior pixels are never touched, even when color-matched,
// so uniform product surfaces survive. A degenerate image whose band is
// empty is returned unmodified.
func RemoveBackground(src image.Image, tolerance int) *image.NRGBA {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Set(x, y, color.NRGBAModel.Convert(src.At(bounds.Min.X+x, bounds.Min.Y+y)))
		}
	}

	band := bandWidth(w, h)
	if band == 0 {
		return out
	}

	var sumR, sumG, sumB, n uint64
	sample := func(x0, y0 int) {
		for y := y0; y < y0+band; y++ {
			for x := x0; x < x0+band; x++ {
				c := out.NRGBAAt(x, y)
				sumR += uint64(c.R)
				sumG += uint64(c.G)
				sumB += uint64(c.B)
				n++
			}
		}
	}
	sample(0, 0)
	sample(w-band, 0)
	sample(0, h-band)
	sample(w-band, h-band)
	if n == 0 {
		return out
	}

	bgR := int(sumR / n)
	bgG := int(sumG / n)
	bgB := int(sumB / n)
	tolSq := tolerance * tolerance

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x >= band && x < w-band && y >= band && y < h-band {
				continue
			}
			c := out.NRGBAAt(x, y)
			dr := int(c.R) - bgR
			dg := int(c.G) - bgG
			db := int(c.B) - bgB
			if dr*dr+dg*dg+db*db <= tolSq {
				c.A = 0
				out.SetNRGBA(x, y, c)
			}
		}
	}
	return out
}
