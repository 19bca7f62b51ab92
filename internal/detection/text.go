package detection

import (
	"image"
	"image/color"

	"github.com/ironsheep/flowchart-recognizer/internal/imaging"
	"github.com/ironsheep/flowchart-recognizer/internal/log"
	"github.com/ironsheep/flowchart-recognizer/internal/ocr"
)

// Placement says where a node's label was found.
type Placement int

const (
	// Outside means nothing legible was found within the shape.
	Outside Placement = iota
	// Inside means the label was read from the shape's interior.
	Inside
)

func (p Placement) String() string {
	if p == Inside {
		return "Inside"
	}
	return "Outside"
}

// MarshalText implements encoding.TextMarshaler.
func (p Placement) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// TextResolver reads labels out of the working image through an OCR engine.
//
// The working image is shared between workers and is only ever read; every
// crop is a fresh copy.
type TextResolver struct {
	engine  ocr.Engine
	work    *image.Gray
	padding int
	offset  int
}

// NewTextResolver returns a TextResolver over work. padding is the stroke
// width used to blank a shape's outline, offset the margin added around
// floating text boxes.
func NewTextResolver(engine ocr.Engine, work *image.Gray, padding, offset int) *TextResolver {
	if engine == nil {
		engine = ocr.Nop
	}
	return &TextResolver{engine: engine, work: work, padding: padding, offset: offset}
}

// ShapeLabel returns the text inside a shape and where it was found.
//
// The shape's own outline is painted over in white with a stroke of padding
// pixels so its border is not read as glyphs, then the box is cropped and
// recognized. An empty result means the label is Outside.
func (r *TextResolver) ShapeLabel(contour Contour, box Box) (string, Placement) {
	region := box.Rect().Intersect(r.work.Bounds())
	crop, err := imaging.CropRegion(r.work, region)
	if err != nil {
		return "", Outside
	}

	origin := region.Min
	outline := make([]image.Point, len(contour.Points))
	for i, p := range contour.Points {
		outline[i] = p.ImagePoint().Sub(origin)
	}
	imaging.StrokePolyline(crop, outline, true, r.padding, color.White)

	text := r.recognize(crop)
	if text == "" {
		return "", Outside
	}
	return text, Inside
}

// FloatingText returns the text in box grown by offset on every side.
func (r *TextResolver) FloatingText(box Box) string {
	crop, err := imaging.CropRegion(r.work, imaging.Expand(box.Rect(), r.offset))
	if err != nil {
		return ""
	}
	return r.recognize(crop)
}

func (r *TextResolver) recognize(img image.Image) string {
	text, err := r.engine.Recognize(img)
	if err != nil {
		log.Warnf("OCR failed, treating region as empty: %v", err)
		return ""
	}
	return ocr.Normalize(text)
}
