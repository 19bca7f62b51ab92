package server

import (
	"context"
	"encoding/json"

	mcp "trpc.group/trpc-go/trpc-mcp-go"
)

// toolFunc runs one tool on its JSON arguments.
type toolFunc func(ctx context.Context, args json.RawMessage) (any, error)

type toolDefinition struct {
	name    string
	options []mcp.ToolOption
	call    toolFunc
}

func pathOption() mcp.ToolOption {
	return mcp.WithString("path", mcp.Required(), mcp.Description("Absolute path to the image file"))
}

func regionOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithNumber("x1", mcp.Required(), mcp.Description("Left edge X coordinate (0-based)")),
		mcp.WithNumber("y1", mcp.Required(), mcp.Description("Top edge Y coordinate (0-based)")),
		mcp.WithNumber("x2", mcp.Required(), mcp.Description("Right edge X coordinate (exclusive)")),
		mcp.WithNumber("y2", mcp.Required(), mcp.Description("Bottom edge Y coordinate (exclusive)")),
	}
}

// recognitionOptions are the tuning parameters of the recognition tools.
// Missing or non-positive values keep the server configuration.
func recognitionOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithNumber("padding", mcp.Description("Stroke width used to blank a shape's outline before reading its label (default from config, 25)")),
		mcp.WithNumber("offset", mcp.Description("Corner tolerance for connector endpoints and margin around floating text (default 10)")),
		mcp.WithNumber("arrow", mcp.Description("Radius used to count arrowhead points (default 30)")),
	}
}

func options(desc string, groups ...[]mcp.ToolOption) []mcp.ToolOption {
	out := []mcp.ToolOption{mcp.WithDescription(desc), pathOption()}
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// toolDefinitions lists every tool in registration order.
func (s *Server) toolDefinitions() []toolDefinition {
	return []toolDefinition{
		// Recognition
		{
			name: "flowchart_recognize",
			options: options("Recognize a flowchart image: nodes (rectangle, triangle, circle) with their labels, "+
				"directed connectors and floating text. Writes thresh.png, data.json and an annotated "+
				"<name>_out image, and returns the graph, the per-contour detections and the artifact paths.",
				recognitionOptions(),
				[]mcp.ToolOption{mcp.WithString("output_dir", mcp.Description("Directory for thresh.png and data.json (default from config)"))}),
			call: s.handleRecognize,
		},
		{
			name: "flowchart_contours",
			options: options("Classify every contour of a flowchart image without writing files. Each entry carries its kind, "+
				"the reason for it and the geometric features (area, circumference, ellipse axes, vertex count, ratio), for tuning thresholds.",
				recognitionOptions()),
			call: s.handleContours,
		},
		{
			name:    "flowchart_preprocess",
			options: options("Return the edge mask contours are traced on, as base64 PNG, with the source size and the mask-to-source ratio."),
			call:    s.handlePreprocess,
		},

		// Inspection
		{
			name:    "image_dimensions",
			options: options("Get the width and height of an image file."),
			call:    s.handleImageDimensions,
		},
		{
			name: "image_crop",
			options: options("Crop a rectangular region from an image and return it as base64-encoded PNG. "+
				"Use this to zoom into a node or connector reported by flowchart_recognize.",
				regionOptions(),
				[]mcp.ToolOption{mcp.WithNumber("scale", mcp.Description("Optional scale factor (e.g., 2.0 to double size)"), mcp.Default(1.0))}),
			call: s.handleImageCrop,
		},
		{
			name: "image_edge_detect",
			options: options("Apply Canny edge detection and return the edge map as base64 PNG.",
				[]mcp.ToolOption{
					mcp.WithNumber("threshold_low", mcp.Description("Lower hysteresis threshold"), mcp.Default(50)),
					mcp.WithNumber("threshold_high", mcp.Description("Upper hysteresis threshold"), mcp.Default(150)),
				}),
			call: s.handleImageEdgeDetect,
		},
		{
			name:    "image_ocr_region",
			options: options("Extract text from a rectangular region with word-level bounding boxes in image coordinates.", regionOptions()),
			call:    s.handleImageOCRRegion,
		},
	}
}
