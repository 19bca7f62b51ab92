package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"

	mcp "trpc.group/trpc-go/trpc-mcp-go"

	"github.com/ironsheep/flowchart-recognizer/internal/config"
	"github.com/ironsheep/flowchart-recognizer/internal/imaging"
	"github.com/ironsheep/flowchart-recognizer/internal/log"
	"github.com/ironsheep/flowchart-recognizer/internal/ocr"
)

// Name is the server name reported during the MCP handshake.
const Name = "flowchart-mcp"

// RegionReader reads text with word boxes from part of an image.
// *ocr.Tesseract implements it.
type RegionReader interface {
	ExtractRegion(img image.Image, x1, y1, x2, y2 int) (*ocr.Result, error)
}

// Server exposes flowchart recognition as MCP tools over stdio.
type Server struct {
	cfg     *config.Config
	cache   *imaging.ImageCache
	engine  ocr.Engine
	regions RegionReader
	version string

	stdio *mcp.StdioServer
	tools map[string]toolFunc
}

// New creates a server recognizing with cfg. engine reads shape labels; when
// it also implements RegionReader the image_ocr_region tool uses it. A nil
// engine disables OCR.
func New(cfg *config.Config, engine ocr.Engine, version string) *Server {
	if engine == nil {
		engine = ocr.Nop
	}
	regions, _ := engine.(RegionReader)
	s := &Server{
		cfg:     cfg,
		cache:   imaging.NewImageCache(),
		engine:  engine,
		regions: regions,
		version: version,
		stdio:   mcp.NewStdioServer(Name, version),
		tools:   make(map[string]toolFunc),
	}
	for _, def := range s.toolDefinitions() {
		s.stdio.RegisterTool(mcp.NewTool(def.name, def.options...), s.toolHandler(def.name, def.call))
		s.tools[def.name] = def.call
	}
	return s
}

// Run serves requests from stdin until it is closed or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() { errc <- s.stdio.Start() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// toolHandler adapts call to an MCP tool callback. The arguments are handed
// over as JSON; the result is returned as pretty-printed JSON text. Failures
// become error results so the client sees the message.
func (s *Server) toolHandler(name string, call toolFunc) func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		log.Debugf("tools/call %s", name)

		args, err := json.Marshal(req.Params.Arguments)
		if err != nil {
			return mcp.NewErrorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		result, err := call(ctx, args)
		if err != nil {
			log.Warnf("tool %s failed: %v", name, err)
			return mcp.NewErrorResult(err.Error()), nil
		}
		return mcp.NewTextResult(mustMarshalJSON(result)), nil
	}
}

// callTool dispatches req the way the stdio transport does.
func (s *Server) callTool(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	call, ok := s.tools[req.Params.Name]
	if !ok {
		return mcp.NewErrorResult(fmt.Sprintf("unknown tool: %s", req.Params.Name)), nil
	}
	return s.toolHandler(req.Params.Name, call)(ctx, req)
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
