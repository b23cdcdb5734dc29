package imgproc

import (
	"fmt"
	"image"
	"image/color"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

var labelFont *truetype.Font

func init() {
	f, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		panic("imgproc: parse embedded font: " + err.Error())
	}
	labelFont = f
}

// DrawLabel renders a short caption near the bottom-left corner of img,
// in place. An empty label is a no-op.
func DrawLabel(img *image.NRGBA, label string) error {
	if label == "" {
		return nil
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	size := float64(min(w, h)) / 25
	if size < 12 {
		size = 12
	}

	c := freetype.NewContext()
	c.SetDPI(72)
	c.SetFont(labelFont)
	c.SetFontSize(size)
	c.SetClip(bounds)
	c.SetDst(img)
	c.SetSrc(image.NewUniform(color.NRGBA{R: 255, G: 255, B: 255, A: 255}))

	pt := freetype.Pt(badgeBottomInset, h-badgeBottomInset)
	if _, err := c.DrawString(label, pt); err != nil {
		return fmt.Errorf("imgproc: draw label: %w", err)
	}
	return nil
}
