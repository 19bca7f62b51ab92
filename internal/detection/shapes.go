package detection

import (
	"fmt"
	"image"
)

// Kind is the category a contour is classified into. Every contour receives
// exactly one Kind.
type Kind int

const (
	Discarded Kind = iota
	Rectangle
	Triangle
	Circle
	Connector
	Text
)

var kindNames = [...]string{
	Discarded: "discarded",
	Rectangle: "rectangle",
	Triangle:  "triangle",
	Circle:    "circle",
	Connector: "connector",
	Text:      "text",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// IsShape reports whether k is a drawable node shape.
func (k Kind) IsShape() bool {
	return k == Rectangle || k == Triangle || k == Circle
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(kindNames) {
		return nil, fmt.Errorf("unknown kind %d", int(k))
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind returns the Kind named s.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return Discarded, fmt.Errorf("unknown shape kind %q", s)
}

// Thresholds is the classification policy. See DefaultThresholds for the
// default values.
type Thresholds struct {
	// MinPoints is the fewest points a contour needs for an ellipse fit.
	MinPoints int
	// ApproxEpsilon is the polygon tolerance as a fraction of the perimeter.
	ApproxEpsilon float64
	// AxisFraction bounds each ellipse axis against the matching mask
	// dimension.
	AxisFraction float64
	// AreaFraction keeps any contour enclosing more than this share of the
	// source image area.
	AreaFraction float64
	// ConnectorRatio is the area/circumference value below which a contour
	// is thin enough to be a connector.
	ConnectorRatio float64
	// BorderMargin drops connector candidates this close to an image edge.
	BorderMargin int
}

// DefaultThresholds returns the default classification policy.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinPoints:      5,
		ApproxEpsilon:  0.04,
		AxisFraction:   0.5,
		AreaFraction:   0.001,
		ConnectorRatio: 30,
		BorderMargin:   10,
	}
}

// Features are the geometric measurements a classification was based on.
// They are reported for threshold tuning and are in mask coordinates.
type Features struct {
	Points        int     `json:"points"`
	Area          float64 `json:"area"`
	Perimeter     float64 `json:"perimeter"`
	Circumference float64 `json:"circumference"`
	Ellipse       Ellipse `json:"ellipse"`
	Vertices      int     `json:"vertices"`
	Ratio         float64 `json:"ratio"`
}

// Classification is the ShapeClassifier verdict for one contour. Contour,
// Polygon, Box and Centroid are in source image coordinates.
type Classification struct {
	Index    int      `json:"index"`
	Kind     Kind     `json:"kind"`
	Reason   string   `json:"reason"`
	Features Features `json:"features"`
	Contour  Contour  `json:"-"`
	Polygon  []Point  `json:"polygon,omitempty"`
	Box      Box      `json:"box"`
	Centroid Point    `json:"centroid"`
}

// Classifier assigns a Kind to each contour extracted from one mask.
type Classifier struct {
	th     Thresholds
	mask   image.Rectangle
	source image.Rectangle
	ratio  float64
}

// NewClassifier returns a Classifier for contours traced on a mask with
// bounds mask, derived from a source image with bounds source. ratio maps
// mask coordinates to source coordinates.
func NewClassifier(th Thresholds, mask, source image.Rectangle, ratio float64) *Classifier {
	return &Classifier{th: th, mask: mask, source: source, ratio: ratio}
}

// Classify decides what contour index is.
//
// # Rules, in order
//
//  1. Fewer than MinPoints points: Discarded.
//  2. Kept only if both ellipse axes are under AxisFraction of the matching
//     mask dimension, or the area exceeds AreaFraction of the source area.
//     Otherwise Discarded as noise.
//  3. Zero area or zero length: Discarded as degenerate.
//  4. area/circumference under ConnectorRatio: a Connector candidate.
//     Candidates within BorderMargin of any source edge are Discarded.
//  5. Otherwise the simplified polygon decides: 3 vertices is a Triangle,
//     4 a Rectangle, anything else a Circle.
//
// Connector candidates may still become Text once OCR has looked at them;
// that is the TextResolver's decision, not the classifier's.
func (c *Classifier) Classify(index int, contour Contour) Classification {
	out := Classification{Index: index, Kind: Discarded}
	out.Features.Points = len(contour.Points)

	if len(contour.Points) < c.th.MinPoints {
		out.Reason = fmt.Sprintf("fewer than %d points", c.th.MinPoints)
		return out
	}

	f := &out.Features
	f.Area = contour.Area()
	f.Ellipse = contour.FitEllipse()
	f.Perimeter = contour.Perimeter()
	f.Circumference = contour.Length()
	approx := contour.Approx(c.th.ApproxEpsilon * f.Perimeter)
	f.Vertices = len(approx)

	ratio := c.ratio
	out.Contour = contour.Scale(ratio)
	out.Polygon = NewContour(approx).Scale(ratio).Points
	out.Box = BoundingBox(approx).Scale(ratio)

	axesSmall := f.Ellipse.Width < c.th.AxisFraction*float64(c.mask.Dx()) &&
		f.Ellipse.Height < c.th.AxisFraction*float64(c.mask.Dy())
	large := f.Area > c.th.AreaFraction*float64(c.source.Dx()*c.source.Dy())
	if !axesSmall && !large {
		out.Reason = "noise: large axes with small area"
		return out
	}

	cx, cy, err := contour.Centroid()
	if err == nil && f.Circumference == 0 {
		err = ErrDegenerateContour
	}
	if err != nil {
		out.Reason = err.Error()
		return out
	}
	out.Centroid = Point{X: int(cx * ratio), Y: int(cy * ratio)}
	f.Ratio = f.Area / f.Circumference

	if f.Ratio < c.th.ConnectorRatio {
		if c.nearBorder(out.Box) {
			out.Reason = "thin contour at image border"
			return out
		}
		out.Kind = Connector
		out.Reason = fmt.Sprintf("area/circumference %.1f < %.1f", f.Ratio, c.th.ConnectorRatio)
		return out
	}

	switch f.Vertices {
	case 3:
		out.Kind = Triangle
	case 4:
		out.Kind = Rectangle
	default:
		out.Kind = Circle
	}
	out.Reason = fmt.Sprintf("%d vertices", f.Vertices)
	return out
}

// nearBorder reports whether b, in source coordinates, comes within the
// border margin of any source edge.
func (c *Classifier) nearBorder(b Box) bool {
	m := c.th.BorderMargin
	w, h := c.source.Dx(), c.source.Dy()
	return b.Y <= m || b.X <= m || b.Y+b.H >= h-m || b.X+b.W >= w-m
}
