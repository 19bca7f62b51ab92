package imaging

import (
	"image"
	"image/draw"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/histogram"
	"github.com/anthonynsimon/bild/transform"
)

// PreprocessOptions parameterizes Preprocess. Radii are bild radii: a radius
// r gives a (2r+1)-wide kernel.
type PreprocessOptions struct {
	BlockSize      int
	C              float64
	Upscale        int
	PreBlurRadius  float64
	ClipLimit      float64
	TileGrid       int
	DenoiseRadius  float64
	OtsuBlurRadius float64
	OtsuMaxValue   uint8
	EdgeLow        float64
	EdgeHigh       float64
	EdgeBlurRadius float64
	OpeningRadius  float64
}

// Frame is the output of Preprocess. Every image in it has its origin at
// (0,0) and is never modified after construction; consumers that need to
// draw must clone first.
type Frame struct {
	// Source is the bounds of the decoded input, origin-normalized.
	Source image.Rectangle

	// Threshold is the adaptive-threshold binarization at source scale. It is
	// also the working image for cropping and OCR.
	Threshold *image.Gray

	// Mask is the opened edge mask at Upscale times the source size.
	Mask *image.Gray

	// Ratio maps Mask coordinates back to source coordinates (1/Upscale).
	Ratio float64
}

// Work returns the image used for crops and OCR.
func (f *Frame) Work() *image.Gray { return f.Threshold }

// Preprocess turns a raster into a contour-ready edge mask.
//
// # Stages
//
//  1. Adaptive Gaussian threshold (BlockSize, C) flattens uneven lighting.
//  2. Gaussian blur (PreBlurRadius), then bilinear upscale by Upscale so
//     contours carry more points.
//  3. CLAHE (ClipLimit, TileGrid) followed by a median denoise recovers faint
//     strokes.
//  4. Gaussian blur (OtsuBlurRadius), Otsu binarization to {0, OtsuMaxValue},
//     Canny (EdgeLow, EdgeHigh).
//  5. Gaussian blur (EdgeBlurRadius) and an opening (erode then dilate by
//     OpeningRadius) removes speckles while keeping outlines.
func Preprocess(img image.Image, opts PreprocessOptions) *Frame {
	gray := ToGray(img)
	thresh := AdaptiveThreshold(gray, opts.BlockSize, opts.C)

	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	scale := opts.Upscale
	if scale < 1 {
		scale = 1
	}

	blurred := blur.Gaussian(thresh, opts.PreBlurRadius)
	upscaled := ToGray(transform.Resize(blurred, w*scale, h*scale, transform.Linear))

	equalized := CLAHE(upscaled, opts.ClipLimit, opts.TileGrid, opts.TileGrid)
	denoised := ToGray(effect.Median(equalized, opts.DenoiseRadius))

	smooth := ToGray(blur.Gaussian(denoised, opts.OtsuBlurRadius))
	binary := Binarize(smooth, OtsuThreshold(smooth), opts.OtsuMaxValue)

	edges := Canny(binary, opts.EdgeLow, opts.EdgeHigh)
	soft := blur.Gaussian(edges, opts.EdgeBlurRadius)
	opened := ToGray(effect.Dilate(effect.Erode(soft, opts.OpeningRadius), opts.OpeningRadius))

	return &Frame{
		Source:    image.Rect(0, 0, w, h),
		Threshold: thresh,
		Mask:      opened,
		Ratio:     1 / float64(scale),
	}
}

// ToGray converts img to an origin-based *image.Gray using the standard
// luminance model. A gray input with origin (0,0) is returned as is.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// AdaptiveThreshold binarizes gray against a Gaussian-weighted local mean:
// a pixel becomes 255 when it is brighter than mean-c and 0 otherwise, so
// ink darker than its surroundings by more than c turns black.
//
// blockSize is the neighbourhood width; the mean is computed with bild's
// separable Gaussian of radius blockSize/2.
func AdaptiveThreshold(gray *image.Gray, blockSize int, c float64) *image.Gray {
	b := gray.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	mean := blur.Gaussian(gray, float64(blockSize/2))

	for y := 0; y < b.Dy(); y++ {
		row := gray.Pix[(y+b.Min.Y-gray.Rect.Min.Y)*gray.Stride:]
		for x := 0; x < b.Dx(); x++ {
			v := float64(row[x+b.Min.X-gray.Rect.Min.X])
			m := float64(mean.Pix[y*mean.Stride+x*4])
			if v > m-c {
				dst.Pix[y*dst.Stride+x] = 255
			}
		}
	}
	return dst
}

// OtsuThreshold returns the level that maximizes between-class variance of
// the image histogram.
func OtsuThreshold(gray *image.Gray) uint8 {
	bins := histogram.NewRGBAHistogram(gray).R.Bins

	total := 0
	sum := 0.0
	for i, n := range bins {
		total += n
		sum += float64(i * n)
	}
	if total == 0 {
		return 0
	}

	var (
		best    uint8
		bestVar = -1.0
		weightB int
		sumB    float64
		totalF  = float64(total)
	)
	for t := 0; t < 256; t++ {
		weightB += bins[t]
		if weightB == 0 {
			continue
		}
		weightF := total - weightB
		if weightF == 0 {
			break
		}
		sumB += float64(t * bins[t])
		meanB := sumB / float64(weightB)
		meanF := (sum - sumB) / float64(weightF)
		between := float64(weightB) * float64(weightF) / (totalF * totalF) * (meanB - meanF) * (meanB - meanF)
		if between > bestVar {
			bestVar = between
			best = uint8(t)
		}
	}
	return best
}

// Binarize maps pixels above level to value and everything else to 0.
func Binarize(gray *image.Gray, level, value uint8) *image.Gray {
	b := gray.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if gray.GrayAt(x+b.Min.X, y+b.Min.Y).Y > level {
				dst.Pix[y*dst.Stride+x] = value
			}
		}
	}
	return dst
}
