// Package detection turns an edge mask into classified flowchart elements.
//
// # Stages
//
//  1. ExtractContours traces the external boundary of every foreground
//     component of the mask and orders the contours top to bottom.
//  2. Classifier decides, per contour, between Rectangle, Triangle, Circle,
//     Connector and Discarded from area, ellipse axes and the simplified
//     polygon.
//  3. TextResolver reads shape labels and floating text through an OCR
//     engine. A connector candidate with legible text becomes Text.
//  4. ConnectorResolver reduces the remaining connectors to a directed
//     Segment between two bounding box corners.
//
// Detector runs stages 2 to 4 for one contour. Contours are independent, so
// callers may run Detect concurrently as long as results are put back in
// contour order.
//
// # Coordinate System
//
// Contours come out of ExtractContours in mask coordinates. A Classification
// reports its contour, polygon, box and centroid in source coordinates,
// scaled by the mask to source ratio and truncated toward zero. Features stay
// in mask coordinates.
//
// # Limitations
//
// The classification is a chain of heuristics tuned for clean line art. A
// polygon with five or more vertices is always reported as a Circle, and the
// arrowhead direction is inferred from boundary point density alone.
package detection
