package detection

import "github.com/ironsheep/flowchart-recognizer/internal/log"

// Detection is everything learned about one contour. Label and Placement
// are set for shapes and Text; Segment only for connectors.
type Detection struct {
	Classification
	Label     string    `json:"label,omitempty"`
	Placement Placement `json:"placement"`
	Segment   *Segment  `json:"segment,omitempty"`
}

// Detector runs the per-contour stages: classification, text resolution
// and connector resolution. A Detector holds no mutable state, so Detect
// may be called from several goroutines at once.
type Detector struct {
	classifier *Classifier
	text       *TextResolver
	connectors ConnectorResolver
}

// NewDetector wires the three per-contour stages together.
func NewDetector(classifier *Classifier, text *TextResolver, connectors ConnectorResolver) *Detector {
	return &Detector{classifier: classifier, text: text, connectors: connectors}
}

// Detect classifies contour index and resolves its label or segment.
func (d *Detector) Detect(index int, contour Contour) Detection {
	det := Detection{Classification: d.classifier.Classify(index, contour)}

	switch {
	case det.Kind.IsShape():
		det.Label, det.Placement = d.text.ShapeLabel(det.Contour, det.Box)

	case det.Kind == Connector:
		if text := d.text.FloatingText(det.Box); text != "" {
			det.Kind = Text
			det.Label = text
			det.Reason = "floating text"
			break
		}
		seg := d.connectors.Resolve(det.Contour, det.Box)
		det.Segment = &seg
	}

	f := det.Features
	log.Debugf("contour %d: %s (%s) points=%d area=%.1f circumference=%.1f vertices=%d ratio=%.2f",
		index, det.Kind, det.Reason, f.Points, f.Area, f.Circumference, f.Vertices, f.Ratio)
	return det
}
