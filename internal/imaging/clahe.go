package imaging

import (
	"image"
	"math"
)

// CLAHE applies contrast-limited adaptive histogram equalization.
//
// The image is split into tilesX × tilesY tiles. Each tile's histogram is
// clipped at clipLimit × (tile pixels / 256), the excess is spread evenly
// over all bins, and the resulting CDF becomes that tile's lookup table.
// Pixels are mapped by bilinear interpolation between the four nearest tile
// centres, which hides tile seams.
func CLAHE(src *image.Gray, clipLimit float64, tilesX, tilesY int) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst
	}
	if tilesX < 1 {
		tilesX = 1
	}
	if tilesY < 1 {
		tilesY = 1
	}

	tileW := (w + tilesX - 1) / tilesX
	tileH := (h + tilesY - 1) / tilesY

	pixel := func(x, y int) uint8 {
		return src.Pix[(y+b.Min.Y-src.Rect.Min.Y)*src.Stride+(x+b.Min.X-src.Rect.Min.X)]
	}

	luts := make([][256]uint8, tilesX*tilesY)
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			x0, y0 := tx*tileW, ty*tileH
			x1, y1 := min(x0+tileW, w), min(y0+tileH, h)
			lut := &luts[ty*tilesX+tx]
			if x0 >= x1 || y0 >= y1 {
				for i := range lut {
					lut[i] = uint8(i)
				}
				continue
			}

			var hist [256]int
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					hist[pixel(x, y)]++
				}
			}
			n := (x1 - x0) * (y1 - y0)
			*lut = equalizeClipped(hist, n, clipLimit)
		}
	}

	for y := 0; y < h; y++ {
		fy := (float64(y)+0.5)/float64(tileH) - 0.5
		ty0 := int(math.Floor(fy))
		ay := fy - float64(ty0)
		ty1 := clamp(ty0+1, 0, tilesY-1)
		ty0 = clamp(ty0, 0, tilesY-1)

		for x := 0; x < w; x++ {
			fx := (float64(x)+0.5)/float64(tileW) - 0.5
			tx0 := int(math.Floor(fx))
			ax := fx - float64(tx0)
			tx1 := clamp(tx0+1, 0, tilesX-1)
			tx0 = clamp(tx0, 0, tilesX-1)

			v := pixel(x, y)
			top := (1-ax)*float64(luts[ty0*tilesX+tx0][v]) + ax*float64(luts[ty0*tilesX+tx1][v])
			bottom := (1-ax)*float64(luts[ty1*tilesX+tx0][v]) + ax*float64(luts[ty1*tilesX+tx1][v])
			dst.Pix[y*dst.Stride+x] = uint8(math.Round((1-ay)*top + ay*bottom))
		}
	}
	return dst
}

func equalizeClipped(hist [256]int, n int, clipLimit float64) [256]uint8 {
	limit := int(clipLimit * float64(n) / 256)
	if limit < 1 {
		limit = 1
	}

	excess := 0
	for i, c := range hist {
		if c > limit {
			excess += c - limit
			hist[i] = limit
		}
	}
	perBin, rest := excess/256, excess%256
	for i := range hist {
		hist[i] += perBin
	}
	for i := 0; i < rest; i++ {
		hist[i*256/rest]++
	}

	var lut [256]uint8
	cdf := 0
	scale := 255.0 / float64(n)
	for i, c := range hist {
		cdf += c
		v := math.Round(float64(cdf) * scale)
		if v > 255 {
			v = 255
		}
		lut[i] = uint8(v)
	}
	return lut
}
