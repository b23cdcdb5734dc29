package imgproc

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgeSizePreservesAspect(t *testing.T) {
	// 200x100 badge against a product whose smaller dimension is 600:
	// target square is 60, so the badge lands at exactly 60x30.
	w, h := badgeSize(800, 600, 200, 100)
	assert.Equal(t, 60, w)
	assert.Equal(t, 30, h)

	// Portrait badge scales on height instead.
	w, h = badgeSize(800, 600, 100, 200)
	assert.Equal(t, 30, w)
	assert.Equal(t, 60, h)

	// Square badge fills the target.
	w, h = badgeSize(800, 600, 80, 80)
	assert.Equal(t, 60, w)
	assert.Equal(t, 60, h)

	// Degenerate inputs yield no badge rather than a panic.
	w, h = badgeSize(800, 600, 0, 0)
	assert.Equal(t, 0, w)
	assert.Equal(t, 0, h)
}

func TestCompositeBadgeGeometry(t *testing.T) {
	product := solidNRGBA(800, 600, color.NRGBA{R: 200, G: 0, B: 0, A: 255})
	back := solidNRGBA(800, 600, color.NRGBA{R: 0, G: 0, B: 200, A: 255})
	badge := solidNRGBA(80, 80, color.NRGBA{R: 0, G: 200, B: 0, A: 255})

	out := Composite(product, back, badge)

	require.Equal(t, 800, out.Bounds().Dx())
	require.Equal(t, 600, out.Bounds().Dy())

	// Badge target is 60x60, horizontally centered (x 370..429), bottom edge
	// at y=590, so rows 530..589.
	assert.EqualValues(t, 200, out.NRGBAAt(400, 560).G)
	assert.EqualValues(t, 200, out.NRGBAAt(400, 589).G)

	// Just outside the badge the opaque product shows through.
	probe := out.NRGBAAt(400, 591)
	assert.EqualValues(t, 200, probe.R)
	assert.EqualValues(t, 0, probe.G)
	assert.EqualValues(t, 200, out.NRGBAAt(400, 520).R)
	assert.EqualValues(t, 200, out.NRGBAAt(360, 560).R)
	assert.EqualValues(t, 200, out.NRGBAAt(440, 560).R)
}

func TestCompositeBackgroundShowsThroughTransparency(t *testing.T) {
	// A fully transparent product: the cover-filled background logo is the
	// visible bottom layer.
	product := solidNRGBA(400, 300, color.NRGBA{})
	back := solidNRGBA(100, 100, color.NRGBA{R: 0, G: 0, B: 200, A: 255})
	badge := solidNRGBA(10, 10, color.NRGBA{R: 0, G: 200, B: 0, A: 255})

	out := Composite(product, back, badge)

	require.Equal(t, 400, out.Bounds().Dx())
	require.Equal(t, 300, out.Bounds().Dy())
	assert.EqualValues(t, 200, out.NRGBAAt(10, 10).B)
	assert.EqualValues(t, 255, out.NRGBAAt(10, 10).A)
	assert.EqualValues(t, 200, out.NRGBAAt(200, 150).B)
}

func TestCompositeOpaqueProductCoversBackground(t *testing.T) {
	product := solidNRGBA(200, 200, color.NRGBA{R: 200, G: 0, B: 0, A: 255})
	back := solidNRGBA(50, 50, color.NRGBA{R: 0, G: 0, B: 200, A: 255})
	badge := solidNRGBA(20, 20, color.NRGBA{R: 0, G: 200, B: 0, A: 255})

	out := Composite(product, back, badge)

	c := out.NRGBAAt(100, 100)
	assert.EqualValues(t, 200, c.R)
	assert.EqualValues(t, 0, c.B)
}
