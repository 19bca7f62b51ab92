package imaging

import (
	"image"
	"math"
)

// Canny marks edges of a grayscale image with 255 on a 0 background.
//
// Gradients are taken directly on the input intensities (no pre-blur; the
// preprocessing chain smooths before calling this), so thresholds are in raw
// gradient units: a clean 0→100 step yields an L1 magnitude of 400.
//
// # Algorithm
//
//  1. Sobel gradients with replicated borders, L1 magnitude |Gx| + |Gy|.
//  2. Non-maximum suppression along the quantized gradient direction. Ties
//     are broken toward the lower-index neighbour so a symmetric step keeps a
//     single-pixel ridge.
//  3. Hysteresis: pixels above high seed edges; pixels above low are kept when
//     8-connected to a seed.
func Canny(src *image.Gray, low, high float64) *image.Gray {
	b := src.Bounds()
	width, height := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, width, height))
	if width < 3 || height < 3 {
		return dst
	}

	at := func(x, y int) float64 {
		x = clamp(x, 0, width-1)
		y = clamp(y, 0, height-1)
		return float64(src.Pix[(y+b.Min.Y-src.Rect.Min.Y)*src.Stride+(x+b.Min.X-src.Rect.Min.X)])
	}

	magnitude := make([]float64, width*height)
	gradX := make([]float64, width*height)
	gradY := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gx := -at(x-1, y-1) + at(x+1, y-1) -
				2*at(x-1, y) + 2*at(x+1, y) -
				at(x-1, y+1) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) +
				at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			i := y*width + x
			gradX[i] = gx
			gradY[i] = gy
			magnitude[i] = math.Abs(gx) + math.Abs(gy)
		}
	}

	// 0 none, 1 weak, 2 strong
	state := make([]uint8, width*height)
	stack := make([]int, 0, 1024)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			mag := magnitude[i]
			if mag <= low {
				continue
			}

			var before, after float64
			angle := math.Atan2(gradY[i], gradX[i])
			switch {
			case (angle >= -math.Pi/8 && angle < math.Pi/8) || angle >= 7*math.Pi/8 || angle < -7*math.Pi/8:
				before, after = magnitude[i-1], magnitude[i+1]
			case (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8):
				before, after = magnitude[i-width], magnitude[i+width]
			case (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8):
				// gradient points down-right or up-left (y grows downward)
				before, after = magnitude[i-width-1], magnitude[i+width+1]
			default:
				before, after = magnitude[i-width+1], magnitude[i+width-1]
			}
			if !(mag > before && mag >= after) {
				continue
			}

			if mag > high {
				state[i] = 2
				stack = append(stack, i)
			} else {
				state[i] = 1
			}
		}
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		dst.Pix[(i/width)*dst.Stride+i%width] = 255

		x, y := i%width, i/width
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= width || ny >= height {
					continue
				}
				j := ny*width + nx
				if state[j] == 1 {
					state[j] = 2
					stack = append(stack, j)
				}
			}
		}
	}

	return dst
}

// EdgeDetect runs Canny on any image and returns the edge map as base64 PNG.
func EdgeDetect(img image.Image, thresholdLow, thresholdHigh float64) (*EncodedImage, error) {
	return EncodePNG(Canny(ToGray(img), thresholdLow, thresholdHigh), 1.0)
}

// clamp constrains val to [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
