package pipeline

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/flowchart-recognizer/internal/imaging"
	"github.com/ironsheep/flowchart-recognizer/internal/ocr"
)

func fill(m *image.Gray, r image.Rectangle) {
	draw.Draw(m, r, image.White, image.Point{}, draw.Src)
}

func fillTriangle(m *image.Gray, a, b, c image.Point) {
	paintTriangle(m, a, b, c, color.Gray{Y: 255})
}

func paintTriangle(m *image.Gray, a, b, c image.Point, v color.Gray) {
	side := func(p, q, r image.Point) int {
		return (q.X-p.X)*(r.Y-p.Y) - (q.Y-p.Y)*(r.X-p.X)
	}
	for y := min(a.Y, b.Y, c.Y); y <= max(a.Y, b.Y, c.Y); y++ {
		for x := min(a.X, b.X, c.X); x <= max(a.X, b.X, c.X); x++ {
			p := image.Pt(x, y)
			d1, d2, d3 := side(a, b, p), side(b, c, p), side(c, a, p)
			if !((d1 < 0 || d2 < 0 || d3 < 0) && (d1 > 0 || d2 > 0 || d3 > 0)) {
				m.SetGray(x, y, v)
			}
		}
	}
}

// fillChamfered fills [x0,x1)x[y0,y1) with its corners cut by c pixels.
func fillChamfered(m *image.Gray, x0, y0, x1, y1, c int) {
	fill(m, image.Rect(x0, y0, x1, y1))
	for k := 0; k < c; k++ {
		for j := 0; j < c-k; j++ {
			for _, p := range []image.Point{{x0 + j, y0 + k}, {x1 - 1 - j, y0 + k}, {x0 + j, y1 - 1 - k}, {x1 - 1 - j, y1 - 1 - k}} {
				m.SetGray(p.X, p.Y, color.Gray{})
			}
		}
	}
}

func fillArrow(m *image.Gray, x, y0, y1 int) {
	fill(m, image.Rect(x-2, y0, x+3, y1))
	fillTriangle(m, image.Pt(x-20, y1), image.Pt(x+20, y1), image.Pt(x, y1+25))
}

func fillDisk(m *image.Gray, cx, cy, r int) {
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			if (x-cx)*(x-cx)+(y-cy)*(y-cy) <= r*r {
				m.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
}

// flowchartFrame is a preprocessed frame of a three node chart: a start
// rectangle with a label, an arrow, a decision triangle, a floating text, a
// second arrow and an end circle, top to bottom. The mask is twice the
// source size.
func flowchartFrame() *imaging.Frame {
	mask := image.NewGray(image.Rect(0, 0, 800, 900))
	fillChamfered(mask, 300, 50, 500, 150, 3)
	fillArrow(mask, 400, 160, 255)
	fillTriangle(mask, image.Pt(400, 290), image.Pt(250, 510), image.Pt(550, 510))
	fillChamfered(mask, 600, 400, 700, 420, 3)
	fillArrow(mask, 400, 520, 605)
	fillDisk(mask, 400, 715, 80)

	work := image.NewGray(image.Rect(0, 0, 400, 450))
	draw.Draw(work, work.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(work, image.Rect(190, 45, 210, 55), image.Black, image.Point{}, draw.Src)
	draw.Draw(work, image.Rect(300, 200, 350, 210), image.Black, image.Point{}, draw.Src)

	return &imaging.Frame{Source: work.Bounds(), Threshold: work, Mask: mask, Ratio: 0.5}
}

// darkOCR reads text wherever a crop contains a dark pixel.
func darkOCR(text string) ocr.Engine {
	return ocr.Func(func(img image.Image) (string, error) {
		b := img.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				if color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y < 128 {
					return text, nil
				}
			}
		}
		return "", nil
	})
}

// strokeSegment draws a black line from a to b, w pixels either side.
func strokeSegment(m *image.Gray, a, b image.Point, w int) {
	dx, dy := float64(b.X-a.X), float64(b.Y-a.Y)
	length2 := dx*dx + dy*dy
	for y := min(a.Y, b.Y) - w; y <= max(a.Y, b.Y)+w; y++ {
		for x := min(a.X, b.X) - w; x <= max(a.X, b.X)+w; x++ {
			t := (float64(x-a.X)*dx + float64(y-a.Y)*dy) / length2
			t = max(0, min(1, t))
			ex, ey := float64(a.X)+t*dx-float64(x), float64(a.Y)+t*dy-float64(y)
			if ex*ex+ey*ey <= float64(w*w) {
				m.SetGray(x, y, color.Gray{})
			}
		}
	}
}

func encodePNG(t *testing.T, img image.Image, path string) string {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

// writeFlowchart saves a black-on-white chart of a rectangle, a triangle
// and a circle drawn as outlines top to bottom, joined by two arrows that
// stop about 30 pixels short of each shape.
func writeFlowchart(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 400, 700))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	black := func(r image.Rectangle) { draw.Draw(img, r, image.Black, image.Point{}, draw.Src) }
	arrow := func(y0, y1 int) {
		black(image.Rect(198, y0, 202, y1))
		paintTriangle(img, image.Pt(185, y1), image.Pt(215, y1), image.Pt(200, y1+25), color.Gray{})
	}

	// rectangle 120..280 x 40..140
	black(image.Rect(120, 40, 280, 44))
	black(image.Rect(120, 136, 280, 140))
	black(image.Rect(120, 40, 124, 140))
	black(image.Rect(276, 40, 280, 140))

	arrow(170, 240)

	// triangle with its apex at y=295 and its base at y=445
	apex, left, right := image.Pt(200, 295), image.Pt(100, 445), image.Pt(300, 445)
	strokeSegment(img, apex, left, 2)
	strokeSegment(img, left, right, 2)
	strokeSegment(img, right, apex, 2)

	arrow(475, 530)

	// circle of radius 45 centred at (200, 630)
	for y := 580; y <= 680; y++ {
		for x := 150; x <= 250; x++ {
			d := math.Hypot(float64(x-200), float64(y-630))
			if d >= 43 && d <= 47 {
				img.SetGray(x, y, color.Gray{})
			}
		}
	}

	return encodePNG(t, img, filepath.Join(dir, name))
}

// writeChart draws a black-on-white outline chart and saves it as name in
// dir.
func writeChart(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 240, 200))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	black := func(r image.Rectangle) { draw.Draw(img, r, image.Black, image.Point{}, draw.Src) }

	// box outline
	black(image.Rect(70, 20, 170, 24))
	black(image.Rect(70, 56, 170, 60))
	black(image.Rect(70, 20, 74, 60))
	black(image.Rect(166, 20, 170, 60))
	// arrow
	black(image.Rect(118, 60, 122, 120))
	for i := 0; i < 10; i++ {
		black(image.Rect(110+i, 110+i, 130-i, 112+i))
	}
	// second box
	black(image.Rect(70, 130, 170, 134))
	black(image.Rect(70, 176, 170, 180))
	black(image.Rect(70, 130, 74, 180))
	black(image.Rect(166, 130, 170, 180))

	return encodePNG(t, img, filepath.Join(dir, name))
}
