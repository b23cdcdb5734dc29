package imgproc

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidNRGBA(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestRemoveBackgroundBorderScenario(t *testing.T) {
	// 800x600 with a 40px near-white border around a dark interior.
	border := color.NRGBA{R: 250, G: 250, B: 248, A: 255}
	interior := color.NRGBA{R: 30, G: 60, B: 200, A: 255}

	img := solidNRGBA(800, 600, interior)
	for y := 0; y < 600; y++ {
		for x := 0; x < 800; x++ {
			if x < 40 || x >= 760 || y < 40 || y >= 560 {
				img.SetNRGBA(x, y, border)
			}
		}
	}

	out := RemoveBackground(img, DefaultTolerance)

	require.Equal(t, 800, out.Bounds().Dx())
	require.Equal(t, 600, out.Bounds().Dy())

	// Border pixels inside the sampling band go transparent.
	assert.EqualValues(t, 0, out.NRGBAAt(0, 0).A)
	assert.EqualValues(t, 0, out.NRGBAAt(799, 0).A)
	assert.EqualValues(t, 0, out.NRGBAAt(0, 599).A)
	assert.EqualValues(t, 0, out.NRGBAAt(799, 599).A)
	assert.EqualValues(t, 0, out.NRGBAAt(400, 10).A)

	// Interior-colored pixels inside the band are not background matches.
	assert.EqualValues(t, 255, out.NRGBAAt(45, 45).A)

	// The center is untouched.
	assert.EqualValues(t, 255, out.NRGBAAt(400, 300).A)
}

func TestRemoveBackgroundInteriorNeverRemoved(t *testing.T) {
	// Uniform color everywhere: every pixel matches the background estimate,
	// but only the edge band may be cleared.
	img := solidNRGBA(200, 200, color.NRGBA{R: 100, G: 100, B: 100, A: 255})

	out := RemoveBackground(img, DefaultTolerance)

	assert.EqualValues(t, 0, out.NRGBAAt(0, 0).A)
	assert.EqualValues(t, 0, out.NRGBAAt(199, 100).A)
	assert.EqualValues(t, 255, out.NRGBAAt(100, 100).A)
	assert.EqualValues(t, 255, out.NRGBAAt(21, 21).A)
}

func TestRemoveBackgroundToleranceBoundary(t *testing.T) {
	// A border pixel at exactly tolerance distance (squared distance == tol²)
	// is still removed; one unit past it is kept. The probe pixels sit on the
	// top edge between the corner regions so they do not skew the sample.
	base := color.NRGBA{R: 100, G: 100, B: 100, A: 255}
	img := solidNRGBA(200, 200, base)
	img.SetNRGBA(100, 0, color.NRGBA{R: 150, G: 100, B: 100, A: 255})
	img.SetNRGBA(101, 0, color.NRGBA{R: 151, G: 100, B: 100, A: 255})

	out := RemoveBackground(img, 50)

	assert.EqualValues(t, 0, out.NRGBAAt(100, 0).A)
	assert.EqualValues(t, 255, out.NRGBAAt(101, 0).A)
}

func TestRemoveBackgroundDegenerateImage(t *testing.T) {
	img := solidNRGBA(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	out := RemoveBackground(img, DefaultTolerance)

	require.Equal(t, 1, out.Bounds().Dx())
	require.Equal(t, 1, out.Bounds().Dy())
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 255}, out.NRGBAAt(0, 0))
}

func TestBandWidth(t *testing.T) {
	// 10% of the smaller side, capped at 50px.
	assert.Equal(t, 50, bandWidth(800, 600))
	assert.Equal(t, 20, bandWidth(200, 900))
	assert.Equal(t, 4, bandWidth(2000, 40))
	assert.Equal(t, 0, bandWidth(1, 1))
}
