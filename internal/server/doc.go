// Package server implements the MCP (Model Context Protocol) server for
// flowchart recognition.
//
// # Protocol
//
// The server speaks MCP over stdio through trpc-mcp-go, which handles the
// handshake, tools/list and tools/call. Each tool is registered with its
// input schema and a callback that decodes the arguments into the handler's
// own argument struct.
//
// # Available Tools
//
// Recognition:
//   - flowchart_recognize: Run the full pipeline and write the artifacts
//   - flowchart_contours: Per-contour classification with features, no files
//   - flowchart_preprocess: The edge mask contours are traced on
//
// Inspection:
//   - image_dimensions: Get width and height
//   - image_crop: Extract rectangular region
//   - image_edge_detect: Canny edge detection
//   - image_ocr_region: Extract text from region
//
// Recognition tools accept padding, offset and arrow; values that are
// missing or not positive keep the server configuration.
//
// # Image Caching
//
// Inspection tools and flowchart_contours load images through an LRU cache
// keyed by path. flowchart_recognize always decodes the file afresh.
//
// # Error Handling
//
// A failing tool returns an error result (isError set) whose text is the Go
// error string. Successful calls return the result as indented JSON text.
package server
