package detection

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/ironsheep/flowchart-recognizer/internal/ocr"
)

// Mask and source dimensions used by the flowchart fixture. The mask is the
// source upscaled by two.
const (
	maskW, maskH     = 800, 900
	sourceW, sourceH = 400, 450
)

func newMask(w, h int) *image.Gray {
	return image.NewGray(image.Rect(0, 0, w, h))
}

// fillRect lights every pixel in [x0,x1)x[y0,y1).
func fillRect(m *image.Gray, x0, y0, x1, y1 int) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			m.SetGray(x, y, color.Gray{Y: 255})
		}
	}
}

// fillChamfered fills a rectangle with its corners cut by c pixels, so the
// traced boundary has more than four points.
func fillChamfered(m *image.Gray, x0, y0, x1, y1, c int) {
	fillRect(m, x0, y0, x1, y1)
	for k := 0; k < c; k++ {
		for j := 0; j < c-k; j++ {
			for _, p := range []image.Point{{x0 + j, y0 + k}, {x1 - 1 - j, y0 + k}, {x0 + j, y1 - 1 - k}, {x1 - 1 - j, y1 - 1 - k}} {
				m.SetGray(p.X, p.Y, color.Gray{})
			}
		}
	}
}

// fillTriangle lights every pixel inside or on the triangle abc.
func fillTriangle(m *image.Gray, a, b, c image.Point) {
	side := func(p, q, r image.Point) int {
		return (q.X-p.X)*(r.Y-p.Y) - (q.Y-p.Y)*(r.X-p.X)
	}
	minX, maxX := min(a.X, b.X, c.X), max(a.X, b.X, c.X)
	minY, maxY := min(a.Y, b.Y, c.Y), max(a.Y, b.Y, c.Y)
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			p := image.Pt(x, y)
			d1, d2, d3 := side(a, b, p), side(b, c, p), side(c, a, p)
			neg := d1 < 0 || d2 < 0 || d3 < 0
			pos := d1 > 0 || d2 > 0 || d3 > 0
			if !(neg && pos) {
				m.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
}

// fillDisk lights every pixel within r of (cx, cy).
func fillDisk(m *image.Gray, cx, cy, r int) {
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			if (x-cx)*(x-cx)+(y-cy)*(y-cy) <= r*r {
				m.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
}

// fillArrow draws a downward arrow: a 5 pixel shaft centred on x from y0 to
// y1 and a 40 pixel wide head below it.
func fillArrow(m *image.Gray, x, y0, y1 int) {
	fillRect(m, x-2, y0, x+3, y1)
	fillTriangle(m, image.Pt(x-20, y1), image.Pt(x+20, y1), image.Pt(x, y1+25))
}

// flowchartMask draws rectangle, arrow, triangle, text bar, arrow and circle
// in that top to bottom order.
func flowchartMask() *image.Gray {
	m := newMask(maskW, maskH)
	fillChamfered(m, 300, 50, 500, 150, 3)
	fillArrow(m, 400, 160, 255)
	fillTriangle(m, image.Pt(400, 290), image.Pt(250, 510), image.Pt(550, 510))
	fillChamfered(m, 600, 400, 700, 420, 3)
	fillArrow(m, 400, 520, 605)
	fillDisk(m, 400, 715, 80)
	return m
}

// flowchartWork is the source-scale working image for flowchartMask: white,
// with a dark label inside the rectangle and the dark floating text bar.
func flowchartWork() *image.Gray {
	w := image.NewGray(image.Rect(0, 0, sourceW, sourceH))
	draw.Draw(w, w.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(w, image.Rect(190, 45, 210, 55), image.Black, image.Point{}, draw.Src)
	draw.Draw(w, image.Rect(300, 200, 350, 210), image.Black, image.Point{}, draw.Src)
	return w
}

// hasDark reports whether img has any pixel darker than mid gray.
func hasDark(img image.Image) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y < 128 {
				return true
			}
		}
	}
	return false
}

// darkOCR "reads" text wherever a crop contains dark pixels.
func darkOCR(text string) ocr.Engine {
	return ocr.Func(func(img image.Image) (string, error) {
		if hasDark(img) {
			return text, nil
		}
		return "", nil
	})
}

func newFixtureClassifier(th Thresholds) *Classifier {
	return NewClassifier(th, image.Rect(0, 0, maskW, maskH), image.Rect(0, 0, sourceW, sourceH), 0.5)
}
