package detection

import (
	"image"
	"sort"
)

// 8-neighbourhood, counterclockwise on screen starting east.
var neighbours = [8]Point{
	{1, 0}, {1, -1}, {0, -1}, {-1, -1},
	{-1, 0}, {-1, 1}, {0, 1}, {1, 1},
}

const dirWest = 4

// ExtractContours returns the outer boundary of every foreground region of
// mask (pixels > 0) that is not nested inside another region's hole.
//
// Regions are 8-connected; background is 4-connected. Each boundary is traced
// with Suzuki-Abe border following and compressed to the points where the
// chain changes direction. The result is ordered by box Y, ties keeping the
// raster order of each region's first pixel. An empty mask yields an empty,
// non-nil slice.
func ExtractContours(mask *image.Gray) []Contour {
	b := mask.Bounds()
	w, h := b.Dx()+2, b.Dy()+2

	// padded binary image, 1-pixel background frame
	fg := make([]bool, w*h)
	for y := 0; y < b.Dy(); y++ {
		row := mask.Pix[(y+b.Min.Y-mask.Rect.Min.Y)*mask.Stride+(b.Min.X-mask.Rect.Min.X):]
		for x := 0; x < b.Dx(); x++ {
			if row[x] > 0 {
				fg[(y+1)*w+x+1] = true
			}
		}
	}

	outer := floodOuterBackground(fg, w, h)
	starts, sizes := labelComponents(fg, w, h)

	contours := make([]Contour, 0, len(starts))
	for label, start := range starts {
		// A region's first pixel in raster order has background to its left.
		// If that background is the outside, the region is not in a hole.
		if !outer[start-1] {
			continue
		}
		pts := traceBorder(fg, w, start, sizes[label])
		for i := range pts {
			pts[i].X--
			pts[i].Y--
		}
		box := BoundingBox(pts)
		contours = append(contours, Contour{Points: compressChain(pts), Box: box})
	}

	sort.SliceStable(contours, func(i, j int) bool {
		return contours[i].Box.Y < contours[j].Box.Y
	})
	return contours
}

// floodOuterBackground marks background pixels 4-connected to the frame.
func floodOuterBackground(fg []bool, w, h int) []bool {
	outer := make([]bool, w*h)
	queue := []int{0}
	outer[0] = true
	for len(queue) > 0 {
		i := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		x, y := i%w, i/w
		for _, d := range [4]Point{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
			nx, ny := x+d.X, y+d.Y
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			n := ny*w + nx
			if !fg[n] && !outer[n] {
				outer[n] = true
				queue = append(queue, n)
			}
		}
	}
	return outer
}

// labelComponents finds 8-connected regions in raster order of their first
// pixel and returns each region's first pixel index and pixel count.
func labelComponents(fg []bool, w, h int) ([]int, []int) {
	labels := make([]int32, w*h)
	var starts, sizes []int
	var stack []int
	for i, on := range fg {
		if !on || labels[i] != 0 {
			continue
		}
		starts = append(starts, i)
		label := int32(len(starts))
		labels[i] = label
		size := 0
		stack = append(stack[:0], i)
		for len(stack) > 0 {
			j := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			size++
			x, y := j%w, j/w
			for _, d := range neighbours {
				nx, ny := x+d.X, y+d.Y
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				k := ny*w + nx
				if fg[k] && labels[k] == 0 {
					labels[k] = label
					stack = append(stack, k)
				}
			}
		}
		sizes = append(sizes, size)
	}
	return starts, sizes
}

// traceBorder follows the outer border starting at the raster-first pixel of
// a region. Coordinates are in the padded frame.
func traceBorder(fg []bool, w, start, size int) []Point {
	at := func(p Point, d int) (Point, bool) {
		q := Point{p.X + neighbours[d&7].X, p.Y + neighbours[d&7].Y}
		return q, fg[q.Y*w+q.X]
	}

	p0 := Point{start % w, start / w}

	// first neighbour clockwise from west
	p1, found := Point{}, false
	for k := 0; k < 8; k++ {
		if q, ok := at(p0, dirWest-k); ok {
			p1, found = q, true
			break
		}
	}
	if !found {
		return []Point{p0}
	}

	pts := make([]Point, 0, 64)
	p2, p3 := p1, p0
	limit := 4*size + 16
	for step := 0; step < limit; step++ {
		pts = append(pts, p3)

		d := direction(p3, p2)
		var p4 Point
		for k := 1; k <= 8; k++ {
			if q, ok := at(p3, d+k); ok {
				p4 = q
				break
			}
		}
		if p4 == p0 && p3 == p1 {
			break
		}
		p2, p3 = p3, p4
	}
	return pts
}

// direction returns the neighbour index leading from p to an adjacent q.
func direction(p, q Point) int {
	dx, dy := q.X-p.X, q.Y-p.Y
	for d, n := range neighbours {
		if n.X == dx && n.Y == dy {
			return d
		}
	}
	return 0
}

// compressChain keeps the first point and every point where the direction of
// travel changes.
func compressChain(pts []Point) []Point {
	n := len(pts)
	if n <= 2 {
		return pts
	}
	out := make([]Point, 0, n/2+1)
	out = append(out, pts[0])
	for i := 1; i < n; i++ {
		prev, next := pts[i-1], pts[(i+1)%n]
		cur := pts[i]
		if cur.X-prev.X != next.X-cur.X || cur.Y-prev.Y != next.Y-cur.Y {
			out = append(out, cur)
		}
	}
	return out
}
