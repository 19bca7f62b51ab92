package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ironsheep/flowchart-recognizer/internal/detection"
	"github.com/ironsheep/flowchart-recognizer/internal/graph"
	"github.com/ironsheep/flowchart-recognizer/internal/imaging"
	"github.com/ironsheep/flowchart-recognizer/internal/pipeline"
)

type pathArgs struct {
	Path string `json:"path"`
}

func decodeArgs(args json.RawMessage, v any, path func() string) error {
	if err := json.Unmarshal(args, v); err != nil {
		return err
	}
	if path() == "" {
		return errors.New("path is required")
	}
	return nil
}

// === Recognition Handlers ===

type recognizeArgs struct {
	Path      string `json:"path"`
	Padding   int    `json:"padding"`
	Offset    int    `json:"offset"`
	Arrow     int    `json:"arrow"`
	OutputDir string `json:"output_dir"`
}

// pipelineFor builds a pipeline with the request's parameters applied on
// top of the server configuration.
func (s *Server) pipelineFor(a recognizeArgs) (*pipeline.Pipeline, error) {
	cfg := s.cfg.WithParams(a.Padding, a.Offset, a.Arrow)
	if a.OutputDir != "" {
		cfg.Output.Dir = a.OutputDir
	}
	return pipeline.New(cfg, s.engine)
}

type recognizeResult struct {
	// Data is the content written to data.json.
	Data graph.Data `json:"data"`
	*pipeline.Result
}

func (s *Server) handleRecognize(ctx context.Context, args json.RawMessage) (any, error) {
	var a recognizeArgs
	if err := decodeArgs(args, &a, func() string { return a.Path }); err != nil {
		return nil, err
	}
	p, err := s.pipelineFor(a)
	if err != nil {
		return nil, err
	}
	res, err := p.Run(ctx, a.Path)
	if err != nil {
		return nil, err
	}
	// both overlays have changed on disk
	s.cache.Evict(res.Artifacts.Overlay)
	s.cache.Evict(res.Artifacts.OverlayCopy)
	return recognizeResult{Data: graph.NewData(res.Graph), Result: res}, nil
}

type dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type contoursResult struct {
	Total      int                   `json:"total"`
	Nodes      int                   `json:"nodes"`
	Connectors int                   `json:"connectors"`
	Texts      int                   `json:"texts"`
	Discarded  int                   `json:"discarded"`
	Detections []detection.Detection `json:"detections"`
	Graph      *graph.Graph          `json:"graph"`
	Source     dimensions            `json:"source"`
}

func (s *Server) handleContours(ctx context.Context, args json.RawMessage) (any, error) {
	var a recognizeArgs
	if err := decodeArgs(args, &a, func() string { return a.Path }); err != nil {
		return nil, err
	}
	p, err := s.pipelineFor(a)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pipeline.ErrInputNotFound, err)
	}
	res, err := p.Recognize(ctx, p.Preprocess(img))
	if err != nil {
		return nil, err
	}

	g := res.Graph
	return contoursResult{
		Total:      len(res.Detections),
		Nodes:      len(g.Nodes),
		Connectors: len(g.Connectors),
		Texts:      len(g.Texts),
		Discarded:  len(res.Detections) - len(g.Nodes) - len(g.Connectors) - len(g.Texts),
		Detections: res.Detections,
		Graph:      g,
		Source:     dimensions{Width: res.Frame.Source.Dx(), Height: res.Frame.Source.Dy()},
	}, nil
}

type preprocessResult struct {
	Mask   *imaging.EncodedImage `json:"mask"`
	Source dimensions            `json:"source"`
	Ratio  float64               `json:"ratio"`
}

func (s *Server) handlePreprocess(_ context.Context, args json.RawMessage) (any, error) {
	var a pathArgs
	if err := decodeArgs(args, &a, func() string { return a.Path }); err != nil {
		return nil, err
	}
	p, err := pipeline.New(s.cfg, s.engine)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	frame := p.Preprocess(img)
	mask, err := imaging.EncodePNG(frame.Mask, 1.0)
	if err != nil {
		return nil, err
	}
	return preprocessResult{
		Mask:   mask,
		Source: dimensions{Width: frame.Source.Dx(), Height: frame.Source.Dy()},
		Ratio:  frame.Ratio,
	}, nil
}

// === Inspection Handlers ===

func (s *Server) handleImageDimensions(_ context.Context, args json.RawMessage) (any, error) {
	var a pathArgs
	if err := decodeArgs(args, &a, func() string { return a.Path }); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

type imageCropArgs struct {
	Path  string  `json:"path"`
	X1    int     `json:"x1"`
	Y1    int     `json:"y1"`
	X2    int     `json:"x2"`
	Y2    int     `json:"y2"`
	Scale float64 `json:"scale"`
}

func (s *Server) handleImageCrop(_ context.Context, args json.RawMessage) (any, error) {
	var a imageCropArgs
	if err := decodeArgs(args, &a, func() string { return a.Path }); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.Crop(img, a.X1, a.Y1, a.X2, a.Y2, a.Scale)
}

type imageEdgeDetectArgs struct {
	Path          string  `json:"path"`
	ThresholdLow  float64 `json:"threshold_low"`
	ThresholdHigh float64 `json:"threshold_high"`
}

func (s *Server) handleImageEdgeDetect(_ context.Context, args json.RawMessage) (any, error) {
	var a imageEdgeDetectArgs
	if err := decodeArgs(args, &a, func() string { return a.Path }); err != nil {
		return nil, err
	}
	if a.ThresholdLow == 0 {
		a.ThresholdLow = 50
	}
	if a.ThresholdHigh == 0 {
		a.ThresholdHigh = 150
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.EdgeDetect(img, a.ThresholdLow, a.ThresholdHigh)
}

type imageOCRRegionArgs struct {
	Path string `json:"path"`
	X1   int    `json:"x1"`
	Y1   int    `json:"y1"`
	X2   int    `json:"x2"`
	Y2   int    `json:"y2"`
}

func (s *Server) handleImageOCRRegion(_ context.Context, args json.RawMessage) (any, error) {
	var a imageOCRRegionArgs
	if err := decodeArgs(args, &a, func() string { return a.Path }); err != nil {
		return nil, err
	}
	if s.regions == nil {
		return nil, errors.New("region OCR is not available")
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return s.regions.ExtractRegion(img, a.X1, a.Y1, a.X2, a.Y2)
}
