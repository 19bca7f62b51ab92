package detection

import (
	"errors"
	"image"
	"math"
)

// ErrDegenerateContour is returned for contours that enclose no area or have
// no length, which would otherwise divide by zero.
var ErrDegenerateContour = errors.New("degenerate contour")

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// ImagePoint converts p to an image.Point.
func (p Point) ImagePoint() image.Point { return image.Pt(p.X, p.Y) }

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(float64(p.X-q.X), float64(p.Y-q.Y))
}

// Box is an axis-aligned bounding box. W and H count pixels, so a single
// pixel has W = H = 1.
type Box struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Rect returns the half-open rectangle covered by b.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.W, b.Y+b.H)
}

// Scale multiplies every field by ratio, truncating toward zero.
func (b Box) Scale(ratio float64) Box {
	return Box{
		X: int(float64(b.X) * ratio),
		Y: int(float64(b.Y) * ratio),
		W: int(float64(b.W) * ratio),
		H: int(float64(b.H) * ratio),
	}
}

// Center returns the centre of b.
func (b Box) Center() (float64, float64) {
	return float64(b.X) + float64(b.W)/2, float64(b.Y) + float64(b.H)/2
}

// DistanceTo returns the distance from p to the nearest point of b, or 0 when
// p lies inside b.
func (b Box) DistanceTo(p Point) float64 {
	dx := math.Max(math.Max(float64(b.X-p.X), 0), float64(p.X-(b.X+b.W)))
	dy := math.Max(math.Max(float64(b.Y-p.Y), 0), float64(p.Y-(b.Y+b.H)))
	return math.Hypot(dx, dy)
}

// BoundingBox returns the smallest Box containing pts.
func BoundingBox(pts []Point) Box {
	if len(pts) == 0 {
		return Box{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}
	return Box{X: minX, Y: minY, W: maxX - minX + 1, H: maxY - minY + 1}
}

// Ellipse is a best-fit ellipse. Width is the full length of the axis closer
// to horizontal, Height the other one. Angle is the Width axis direction in
// degrees from the x axis.
type Ellipse struct {
	CenterX float64 `json:"center_x"`
	CenterY float64 `json:"center_y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Angle   float64 `json:"angle"`
}

// Contour is a closed boundary as traced from the mask. Contours are values
// and are never modified after extraction; Scale returns a new one.
type Contour struct {
	Points []Point `json:"points"`
	Box    Box     `json:"box"`
}

// NewContour wraps pts and computes its bounding box.
func NewContour(pts []Point) Contour {
	return Contour{Points: pts, Box: BoundingBox(pts)}
}

// Area returns the enclosed area of the closed polygon (shoelace formula).
func (c Contour) Area() float64 {
	n := len(c.Points)
	if n < 3 {
		return 0
	}
	var sum float64
	for i, p := range c.Points {
		q := c.Points[(i+1)%n]
		sum += float64(p.X*q.Y - q.X*p.Y)
	}
	return math.Abs(sum) / 2
}

// Perimeter returns the closed length, including the segment from the last
// point back to the first.
func (c Contour) Perimeter() float64 {
	n := len(c.Points)
	if n < 2 {
		return 0
	}
	return c.Length() + c.Points[n-1].Dist(c.Points[0])
}

// Length returns the length of the point chain without the closing segment.
// The area/length ratio used for connector detection is measured with it.
func (c Contour) Length() float64 {
	var sum float64
	for i := 1; i < len(c.Points); i++ {
		sum += c.Points[i-1].Dist(c.Points[i])
	}
	return sum
}

// Centroid returns the centroid of the enclosed polygon.
func (c Contour) Centroid() (float64, float64, error) {
	n := len(c.Points)
	var a, cx, cy float64
	for i, p := range c.Points {
		q := c.Points[(i+1)%n]
		cross := float64(p.X*q.Y - q.X*p.Y)
		a += cross
		cx += float64(p.X+q.X) * cross
		cy += float64(p.Y+q.Y) * cross
	}
	if a == 0 {
		return 0, 0, ErrDegenerateContour
	}
	a /= 2
	return cx / (6 * a), cy / (6 * a), nil
}

// FitEllipse fits an ellipse to the boundary treated as a uniform wire.
//
// The covariance of the wire gives the axes: for a circle of radius r the
// variance along any axis is r²/2, so an axis of variance λ has full length
// 2·sqrt(2λ). A contour with no length yields a zero ellipse at its first
// point.
func (c Contour) FitEllipse() Ellipse {
	n := len(c.Points)
	if n == 0 {
		return Ellipse{}
	}

	var total, sx, sy, sxx, syy, sxy float64
	for i, p := range c.Points {
		q := c.Points[(i+1)%n]
		l := p.Dist(q)
		if l == 0 {
			continue
		}
		px, py, qx, qy := float64(p.X), float64(p.Y), float64(q.X), float64(q.Y)
		total += l
		sx += l * (px + qx) / 2
		sy += l * (py + qy) / 2
		sxx += l * (px*px + px*qx + qx*qx) / 3
		syy += l * (py*py + py*qy + qy*qy) / 3
		sxy += l * (2*px*py + px*qy + qx*py + 2*qx*qy) / 6
	}
	if total == 0 {
		return Ellipse{CenterX: float64(c.Points[0].X), CenterY: float64(c.Points[0].Y)}
	}

	mx, my := sx/total, sy/total
	cxx := sxx/total - mx*mx
	cyy := syy/total - my*my
	cxy := sxy/total - mx*my

	// eigen-decomposition of [[cxx cxy] [cxy cyy]]
	tr := cxx + cyy
	disc := math.Sqrt(math.Max((cxx-cyy)*(cxx-cyy)/4+cxy*cxy, 0))
	l1 := math.Max(tr/2+disc, 0)
	l2 := math.Max(tr/2-disc, 0)
	theta := 0.5 * math.Atan2(2*cxy, cxx-cyy) // direction of l1

	major := 2 * math.Sqrt(2*l1)
	minor := 2 * math.Sqrt(2*l2)

	e := Ellipse{CenterX: mx, CenterY: my}
	if math.Abs(math.Cos(theta)) >= math.Abs(math.Sin(theta)) {
		e.Width, e.Height, e.Angle = major, minor, theta*180/math.Pi
	} else {
		e.Width, e.Height, e.Angle = minor, major, theta*180/math.Pi+90
	}
	return e
}

// Approx simplifies the closed contour with Douglas-Peucker under tolerance
// epsilon (in pixels).
//
// The chain is split at the point farthest from the first point; each half
// is simplified separately and the halves are joined. A final pass drops
// vertices lying within epsilon of the chord between their neighbours, down
// to a triangle.
func (c Contour) Approx(epsilon float64) []Point {
	pts := c.Points
	n := len(pts)
	if n <= 2 {
		return append([]Point(nil), pts...)
	}

	far, best := 0, -1.0
	for i, p := range pts {
		if d := p.Dist(pts[0]); d > best {
			far, best = i, d
		}
	}
	if best == 0 {
		return []Point{pts[0]}
	}

	first := douglasPeucker(pts[:far+1], epsilon)
	tail := make([]Point, 0, n-far+1)
	tail = append(tail, pts[far:]...)
	tail = append(tail, pts[0])
	second := douglasPeucker(tail, epsilon)

	out := make([]Point, 0, len(first)+len(second))
	out = append(out, first...)
	out = append(out, second[1:len(second)-1]...)

	for changed := true; changed && len(out) > 3; {
		changed = false
		for i := 0; i < len(out) && len(out) > 3; i++ {
			prev := out[(i+len(out)-1)%len(out)]
			next := out[(i+1)%len(out)]
			if segmentDistance(out[i], prev, next) <= epsilon {
				out = append(out[:i], out[i+1:]...)
				changed = true
				i--
			}
		}
	}
	return out
}

// Scale maps every point through int(v*ratio) and scales the box the same
// way. The box is scaled directly rather than recomputed so that it matches
// the box reported for the unscaled contour.
func (c Contour) Scale(ratio float64) Contour {
	pts := make([]Point, len(c.Points))
	for i, p := range c.Points {
		pts[i] = Point{X: int(float64(p.X) * ratio), Y: int(float64(p.Y) * ratio)}
	}
	return Contour{Points: pts, Box: c.Box.Scale(ratio)}
}

// ImagePoints converts pts for use with the imaging drawing helpers.
func ImagePoints(pts []Point) []image.Point {
	out := make([]image.Point, len(pts))
	for i, p := range pts {
		out[i] = p.ImagePoint()
	}
	return out
}

// douglasPeucker simplifies an open chain, always keeping both ends.
func douglasPeucker(pts []Point, epsilon float64) []Point {
	if len(pts) <= 2 {
		return append([]Point(nil), pts...)
	}
	a, b := pts[0], pts[len(pts)-1]
	idx, best := 0, -1.0
	for i := 1; i < len(pts)-1; i++ {
		if d := segmentDistance(pts[i], a, b); d > best {
			idx, best = i, d
		}
	}
	if best <= epsilon {
		return []Point{a, b}
	}
	left := douglasPeucker(pts[:idx+1], epsilon)
	right := douglasPeucker(pts[idx:], epsilon)
	return append(left[:len(left)-1], right...)
}

// segmentDistance returns the distance from p to the segment ab.
func segmentDistance(p, a, b Point) float64 {
	dx, dy := float64(b.X-a.X), float64(b.Y-a.Y)
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return p.Dist(a)
	}
	t := (float64(p.X-a.X)*dx + float64(p.Y-a.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	px := float64(a.X) + t*dx
	py := float64(a.Y) + t*dy
	return math.Hypot(float64(p.X)-px, float64(p.Y)-py)
}

// SegmentDistance returns the distance from p to the segment ab.
func SegmentDistance(p, a, b Point) float64 { return segmentDistance(p, a, b) }
