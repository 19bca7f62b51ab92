package imaging

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// LabelFace is the bitmap face used for overlay annotations.
var LabelFace font.Face = basicfont.Face7x13

// CloneRGBA returns an origin-based RGBA copy of img that callers may draw on.
func CloneRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// CloneGray returns an origin-based gray copy of img.
func CloneGray(img image.Image) *image.Gray {
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// StrokePolyline draws the segments joining pts with the given stroke width.
// When closed is set the last point is joined back to the first. Pixels
// outside img are skipped.
func StrokePolyline(img draw.Image, pts []image.Point, closed bool, width int, c color.Color) {
	if len(pts) == 0 {
		return
	}
	if len(pts) == 1 {
		FillDisk(img, pts[0], width/2, c)
		return
	}
	for i := 0; i+1 < len(pts); i++ {
		StrokeLine(img, pts[i], pts[i+1], width, c)
	}
	if closed {
		StrokeLine(img, pts[len(pts)-1], pts[0], width, c)
	}
}

// StrokeLine draws a segment by stamping a disk of diameter width at every
// Bresenham step.
func StrokeLine(img draw.Image, a, b image.Point, width int, c color.Color) {
	radius := width / 2
	dx, dy := abs(b.X-a.X), -abs(b.Y-a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	e := dx + dy
	p := a
	for {
		FillDisk(img, p, radius, c)
		if p == b {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			p.X += sx
		}
		if e2 <= dx {
			e += dx
			p.Y += sy
		}
	}
}

// FillDisk paints every pixel within radius of center. Radius 0 paints a
// single pixel.
func FillDisk(img draw.Image, center image.Point, radius int, c color.Color) {
	bounds := img.Bounds()
	r2 := radius * radius
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			if x*x+y*y > r2 {
				continue
			}
			p := image.Pt(center.X+x, center.Y+y)
			if p.In(bounds) {
				img.Set(p.X, p.Y, c)
			}
		}
	}
}

// DrawLabel writes text with its baseline starting at (x, y).
func DrawLabel(img draw.Image, x, y int, text string, c color.Color) {
	if text == "" {
		return
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: LabelFace,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
