package imaging

import (
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Palette holds the overlay colours.
type Palette struct {
	// Shape strokes node polygons.
	Shape color.RGBA
	// Label writes node annotations.
	Label color.RGBA
	// Connector strokes connector segments. It is the Lab midpoint of Shape
	// and Label so connectors read as related to both.
	Connector color.RGBA
	// Marker highlights the arrowhead end of a connector.
	Marker color.RGBA
}

// ParseColor parses "#RRGGBB" into an opaque colour.
func ParseColor(hex string) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("failed to parse colour %q: %w", hex, err)
	}
	return toRGBA(c), nil
}

// NewPalette derives the overlay palette from the shape and label colours.
func NewPalette(shapeHex, labelHex string) (Palette, error) {
	shape, err := colorful.Hex(shapeHex)
	if err != nil {
		return Palette{}, fmt.Errorf("failed to parse shape colour %q: %w", shapeHex, err)
	}
	label, err := colorful.Hex(labelHex)
	if err != nil {
		return Palette{}, fmt.Errorf("failed to parse label colour %q: %w", labelHex, err)
	}

	h, s, l := label.Hsl()
	marker := colorful.Hsl(math.Mod(h+180, 360), s, l).Clamped()

	return Palette{
		Shape:     toRGBA(shape),
		Label:     toRGBA(label),
		Connector: toRGBA(shape.BlendLab(label, 0.5).Clamped()),
		Marker:    toRGBA(marker),
	}, nil
}

func toRGBA(c colorful.Color) color.RGBA {
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
