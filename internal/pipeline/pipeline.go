// Package pipeline runs flowchart recognition end to end: load, preprocess,
// extract contours, detect, assemble the graph and write the artifacts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/ironsheep/flowchart-recognizer/internal/config"
	"github.com/ironsheep/flowchart-recognizer/internal/detection"
	"github.com/ironsheep/flowchart-recognizer/internal/graph"
	"github.com/ironsheep/flowchart-recognizer/internal/imaging"
	"github.com/ironsheep/flowchart-recognizer/internal/log"
	"github.com/ironsheep/flowchart-recognizer/internal/ocr"
)

var (
	// ErrInputNotFound means the source path is missing or not a decodable
	// raster. Nothing has been written when it is returned.
	ErrInputNotFound = errors.New("input image not found or unreadable")

	// ErrOutputWrite means an artifact could not be written. Artifacts
	// written earlier in the same run have been removed.
	ErrOutputWrite = errors.New("failed to write output")
)

// Result is the outcome of one recognition.
type Result struct {
	Graph *graph.Graph `json:"graph"`
	// Detections holds one entry per contour in detection order, including
	// discarded ones, with the features each decision was based on.
	Detections []detection.Detection `json:"detections"`
	Artifacts  *Artifacts            `json:"artifacts,omitempty"`

	Frame   *imaging.Frame `json:"-"`
	Overlay *image.RGBA    `json:"-"`
}

// Pipeline holds what stays fixed across runs. Each Run builds its own
// per-run state, so a Pipeline may serve several runs at once.
type Pipeline struct {
	cfg     *config.Config
	engine  ocr.Engine
	palette imaging.Palette
}

// New returns a Pipeline for cfg. A nil engine disables OCR: every shape is
// labelled Outside and no connector becomes text.
func New(cfg *config.Config, engine ocr.Engine) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	palette, err := imaging.NewPalette(cfg.Overlay.ShapeColor, cfg.Overlay.LabelColor)
	if err != nil {
		return nil, err
	}
	if engine == nil {
		engine = ocr.Nop
	}
	return &Pipeline{cfg: cfg, engine: engine, palette: palette}, nil
}

// Config returns the configuration the pipeline was built with.
func (p *Pipeline) Config() *config.Config { return p.cfg }

// Load decodes filename, mapping every failure to ErrInputNotFound.
func (p *Pipeline) Load(filename string) (image.Image, error) {
	img, err := imaging.Load(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInputNotFound, err)
	}
	return img, nil
}

// Preprocess runs the mask-producing chain on img.
func (p *Pipeline) Preprocess(img image.Image) *imaging.Frame {
	c := p.cfg.Preprocess
	return imaging.Preprocess(img, imaging.PreprocessOptions{
		BlockSize:      c.BlockSize,
		C:              c.C,
		Upscale:        c.Upscale,
		PreBlurRadius:  c.PreBlurRadius,
		ClipLimit:      c.ClipLimit,
		TileGrid:       c.TileGrid,
		DenoiseRadius:  c.DenoiseRadius,
		OtsuBlurRadius: c.OtsuBlurRadius,
		OtsuMaxValue:   c.OtsuMaxValue,
		EdgeLow:        c.EdgeLow,
		EdgeHigh:       c.EdgeHigh,
		EdgeBlurRadius: c.EdgeBlurRadius,
		OpeningRadius:  c.OpeningRadius,
	})
}

// Run recognizes the flowchart in filename and writes the artifacts.
//
// An unreadable input fails with ErrInputNotFound before any stage runs. A
// failed write fails with ErrOutputWrite and leaves no artifact of this run
// behind.
func (p *Pipeline) Run(ctx context.Context, filename string) (*Result, error) {
	start := time.Now()

	img, err := p.Load(filename)
	if err != nil {
		return nil, err
	}
	frame := p.Preprocess(img)
	log.Debugf("preprocessed %s: source %v, mask %v", filename, frame.Source, frame.Mask.Bounds())

	res, err := p.Recognize(ctx, frame)
	if err != nil {
		return nil, err
	}
	res.Overlay = p.RenderOverlay(res)

	artifacts, err := p.writeArtifacts(filename, res)
	if err != nil {
		return nil, err
	}
	res.Artifacts = artifacts

	log.Infof("recognized %s in %s: %d nodes, %d connectors, %d texts",
		filename, time.Since(start).Round(time.Millisecond),
		len(res.Graph.Nodes), len(res.Graph.Connectors), len(res.Graph.Texts))
	return res, nil
}

// Recognize runs contour extraction, per-contour detection and graph
// assembly on a preprocessed frame. Nothing is written.
func (p *Pipeline) Recognize(ctx context.Context, frame *imaging.Frame) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	contours := detection.ExtractContours(frame.Mask)
	log.Debugf("extracted %d contours", len(contours))

	detections, err := detectAll(ctx, p.newDetector(frame), contours, p.cfg.Workers)
	if err != nil {
		return nil, err
	}

	b := graph.NewBuilder()
	for _, det := range detections {
		b.Add(det)
	}
	g := graph.Associate(b.Graph(), graph.AssociateOptions{
		AttachDistance:     p.cfg.Graph.AttachDistance,
		TextAttachDistance: p.cfg.Graph.TextAttachDistance,
	})

	return &Result{Graph: g, Detections: detections, Frame: frame}, nil
}

// RenderOverlay draws res.Graph on the working image of res.Frame.
func (p *Pipeline) RenderOverlay(res *Result) *image.RGBA {
	return graph.RenderOverlay(res.Frame.Work(), res.Graph, graph.OverlayStyle{
		Palette:   p.palette,
		LineWidth: p.cfg.Overlay.LineWidth,
	})
}

func thresholds(c config.ClassifyConfig) detection.Thresholds {
	return detection.Thresholds{
		MinPoints:      c.MinPoints,
		ApproxEpsilon:  c.ApproxEpsilon,
		AxisFraction:   c.AxisFraction,
		AreaFraction:   c.AreaFraction,
		ConnectorRatio: c.ConnectorRatio,
		BorderMargin:   c.BorderMargin,
	}
}

func (p *Pipeline) newDetector(frame *imaging.Frame) *detection.Detector {
	classifier := detection.NewClassifier(thresholds(p.cfg.Classify), frame.Mask.Bounds(), frame.Source, frame.Ratio)

	text := detection.NewTextResolver(p.engine, frame.Work(), p.cfg.Padding, p.cfg.Offset)
	connectors := detection.ConnectorResolver{Offset: p.cfg.Offset, Arrow: p.cfg.Arrow}
	return detection.NewDetector(classifier, text, connectors)
}
