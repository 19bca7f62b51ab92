package imaging

import (
	"image"
	"image/color"
	"testing"
)

func defaultPreprocessOptions() PreprocessOptions {
	return PreprocessOptions{
		BlockSize:      111,
		C:              48,
		Upscale:        2,
		PreBlurRadius:  2,
		ClipLimit:      4,
		TileGrid:       4,
		DenoiseRadius:  2,
		OtsuBlurRadius: 12,
		OtsuMaxValue:   100,
		EdgeLow:        0,
		EdgeHigh:       255,
		EdgeBlurRadius: 4,
		OpeningRadius:  1,
	}
}

// createOutlineImage draws a black rectangle outline of the given stroke on
// a white RGBA canvas.
func createOutlineImage(width, height int, r image.Rectangle, stroke int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := image.Pt(x, y)
			inOuter := p.In(r)
			inInner := p.In(image.Rect(r.Min.X+stroke, r.Min.Y+stroke, r.Max.X-stroke, r.Max.Y-stroke))
			if inOuter && !inInner {
				img.Set(x, y, color.Black)
			} else {
				img.Set(x, y, color.White)
			}
		}
	}
	return img
}

func TestToGray(t *testing.T) {
	rgba := image.NewRGBA(image.Rect(10, 20, 14, 22))
	rgba.Set(10, 20, color.White)

	g := ToGray(rgba)
	if g.Bounds() != image.Rect(0, 0, 4, 2) {
		t.Errorf("expected origin-based 4x2 bounds, got %v", g.Bounds())
	}
	if g.GrayAt(0, 0).Y != 255 {
		t.Errorf("expected white at origin, got %d", g.GrayAt(0, 0).Y)
	}

	same := image.NewGray(image.Rect(0, 0, 3, 3))
	if ToGray(same) != same {
		t.Error("origin-based gray input should be returned unchanged")
	}
}

func TestAdaptiveThreshold(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 60, 60))
	for i := range gray.Pix {
		gray.Pix[i] = 255
	}
	for y := 25; y < 35; y++ {
		for x := 25; x < 35; x++ {
			gray.SetGray(x, y, color.Gray{0})
		}
	}

	out := AdaptiveThreshold(gray, 31, 10)
	if out.GrayAt(30, 30).Y != 0 {
		t.Error("dark square should binarize to black")
	}
	if out.GrayAt(5, 5).Y != 255 {
		t.Error("background should binarize to white")
	}
	if out.GrayAt(36, 30).Y != 255 {
		t.Error("background next to the square should stay white")
	}
}

func TestOtsuThreshold_Bimodal(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 40, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			if x < 20 {
				gray.SetGray(x, y, color.Gray{20})
			} else {
				gray.SetGray(x, y, color.Gray{200})
			}
		}
	}

	level := OtsuThreshold(gray)
	if level < 20 || level >= 200 {
		t.Fatalf("threshold %d does not separate the two modes", level)
	}

	bin := Binarize(gray, level, 100)
	if bin.GrayAt(5, 5).Y != 0 || bin.GrayAt(35, 5).Y != 100 {
		t.Errorf("binarize: got dark=%d bright=%d, want 0 and 100", bin.GrayAt(5, 5).Y, bin.GrayAt(35, 5).Y)
	}
}

func TestOtsuThreshold_Empty(t *testing.T) {
	if got := OtsuThreshold(image.NewGray(image.Rect(0, 0, 0, 0))); got != 0 {
		t.Errorf("empty image threshold: got %d, want 0", got)
	}
}

func TestCLAHE_StretchesLowContrast(t *testing.T) {
	// horizontal ramp 100..139, ten columns per level
	gray := image.NewGray(image.Rect(0, 0, 400, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 400; x++ {
			gray.SetGray(x, y, color.Gray{uint8(100 + x/10)})
		}
	}

	out := CLAHE(gray, 4, 1, 1)
	prev := out.GrayAt(0, 5).Y
	for x := 1; x < 400; x++ {
		cur := out.GrayAt(x, 5).Y
		if cur < prev {
			t.Fatalf("CLAHE must be monotonic: x=%d %d < %d", x, cur, prev)
		}
		prev = cur
	}
	if spread := int(out.GrayAt(399, 5).Y) - int(out.GrayAt(0, 5).Y); spread <= 39 {
		t.Errorf("expected contrast to grow beyond 39 levels, got %d", spread)
	}
}

func TestCLAHE_UniformStaysUniform(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 64, 64))
	for i := range gray.Pix {
		gray.Pix[i] = 255
	}
	out := CLAHE(gray, 4, 4, 4)
	for i, p := range out.Pix {
		if p != 255 {
			t.Fatalf("pixel %d: got %d, want 255", i, p)
		}
	}
}

func TestPreprocess(t *testing.T) {
	img := createOutlineImage(120, 100, image.Rect(30, 30, 90, 70), 3)

	frame := Preprocess(img, defaultPreprocessOptions())

	if frame.Source != image.Rect(0, 0, 120, 100) {
		t.Errorf("Source: got %v", frame.Source)
	}
	if frame.Threshold.Bounds() != image.Rect(0, 0, 120, 100) {
		t.Errorf("Threshold bounds: got %v", frame.Threshold.Bounds())
	}
	if frame.Mask.Bounds() != image.Rect(0, 0, 240, 200) {
		t.Errorf("Mask bounds: got %v", frame.Mask.Bounds())
	}
	if frame.Ratio != 0.5 {
		t.Errorf("Ratio: got %v, want 0.5", frame.Ratio)
	}
	if frame.Work() != frame.Threshold {
		t.Error("Work should be the threshold image")
	}

	if frame.Threshold.GrayAt(31, 50).Y != 0 {
		t.Error("outline should be black in the threshold image")
	}
	if frame.Threshold.GrayAt(5, 5).Y != 255 {
		t.Error("background should be white in the threshold image")
	}

	if frame.Mask.GrayAt(4, 4).Y != 0 {
		t.Error("mask should be empty far from the outline")
	}
	lit := 0
	for _, p := range frame.Mask.Pix {
		if p > 0 {
			lit++
		}
	}
	if lit == 0 {
		t.Error("mask should contain the outline")
	}
}
