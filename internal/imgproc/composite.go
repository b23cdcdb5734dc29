package imgproc

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

const (
	badgeFraction    = 10 // badge target is 1/10 of the smaller product dimension
	badgeBottomInset = 10 // px between badge bottom edge and image bottom edge
)

// badgeSize fits a badge of bw×bh into a square target of 10% of the
// smaller product dimension, preserving the badge's own aspect ratio.
func badgeSize(pw, ph, bw, bh int) (int, int) {
	target := pw
	if ph < pw {
		target = ph
	}
	target /= badgeFraction
	if target <= 0 || bw <= 0 || bh <= 0 {
		return 0, 0
	}
	if bw >= bh {
		return target, bh * target / bw
	}
	return bw * target / bh, target
}

// Composite layers the resized background logo, the product raster and the
// badge with source-over blending, in that order. The background logo is
// cover-filled (centered crop) to the product's exact dimensions; the badge
// sits horizontally centered with its bottom edge 10px above the bottom.
func Composite(product image.Image, backgroundLogo, badgeLogo image.Image) *image.NRGBA {
	bounds := product.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	back := imaging.Fill(backgroundLogo, w, h, imaging.Center, imaging.Lanczos)

	out := imaging.New(w, h, color.Transparent)
	out = imaging.Overlay(out, back, image.Pt(0, 0), 1.0)
	out = imaging.Overlay(out, product, image.Pt(0, 0), 1.0)

	bw, bh := badgeSize(w, h, badgeLogo.Bounds().Dx(), badgeLogo.Bounds().Dy())
	if bw > 0 && bh > 0 {
		badge := imaging.Resize(badgeLogo, bw, bh, imaging.Lanczos)
		pos := image.Pt((w-bw)/2, h-badgeBottomInset-bh)
		out = imaging.Overlay(out, badge, pos, 1.0)
	}
	return out
}
