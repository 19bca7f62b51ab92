// Package graph assembles per-contour detections into the recognized
// flowchart and writes it out as JSON, a console table and an annotated
// overlay.
package graph

import (
	"github.com/ironsheep/flowchart-recognizer/internal/detection"
)

// Node is a recognized flowchart shape.
type Node struct {
	ID       int                 `json:"id"`
	Index    int                 `json:"index"`
	Name     string              `json:"name"`
	Position detection.Placement `json:"position"`
	Shape    detection.Kind      `json:"shape"`
	Centroid detection.Point     `json:"centroid"`
	Box      detection.Box       `json:"box"`
	Polygon  []detection.Point   `json:"polygon"`
	// Lines holds the ids of connectors touching the node, ascending.
	Lines []int `json:"lines"`
}

// Connector is a directed edge. From and To are node ids, 0 when the
// corresponding end is not attached to any node.
type Connector struct {
	ID         int             `json:"id"`
	Index      int             `json:"index"`
	Start      detection.Point `json:"start"`
	End        detection.Point `json:"end"`
	Reversed   bool            `json:"reversed"`
	StartCount int             `json:"start_count"`
	EndCount   int             `json:"end_count"`
	Box        detection.Box   `json:"box"`
	From       int             `json:"from"`
	To         int             `json:"to"`
}

// Head returns the end carrying the arrowhead.
func (c Connector) Head() detection.Point {
	return detection.Segment{Start: c.Start, End: c.End, Reversed: c.Reversed}.Head()
}

// Tail returns the end the connector leaves from.
func (c Connector) Tail() detection.Point {
	return detection.Segment{Start: c.Start, End: c.End, Reversed: c.Reversed}.Tail()
}

// OutsideText is a floating label not enclosed by any shape. Line is the id
// of the connector it annotates, or 0.
type OutsideText struct {
	ID    int           `json:"id"`
	Index int           `json:"index"`
	Text  string        `json:"text"`
	Box   detection.Box `json:"box"`
	Line  int           `json:"line"`
}

// Graph is the result of one recognition run, in processing order.
type Graph struct {
	Nodes      []Node        `json:"nodes"`
	Connectors []Connector   `json:"connectors"`
	Texts      []OutsideText `json:"texts"`
}

// Clone returns a deep copy of g.
func (g *Graph) Clone() *Graph {
	out := &Graph{
		Nodes:      make([]Node, len(g.Nodes)),
		Connectors: append([]Connector{}, g.Connectors...),
		Texts:      append([]OutsideText{}, g.Texts...),
	}
	for i, n := range g.Nodes {
		n.Polygon = append([]detection.Point{}, n.Polygon...)
		n.Lines = append([]int{}, n.Lines...)
		out.Nodes[i] = n
	}
	return out
}

// Builder collects the detections of one run. Each of nodes, connectors and
// texts gets its own 1-based id sequence in the order detections are added.
// A Builder must not be shared between runs.
type Builder struct {
	g Graph
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{g: Graph{Nodes: []Node{}, Connectors: []Connector{}, Texts: []OutsideText{}}}
}

// Add records det. Discarded detections are ignored.
func (b *Builder) Add(det detection.Detection) {
	switch {
	case det.Kind.IsShape():
		b.g.Nodes = append(b.g.Nodes, Node{
			ID:       len(b.g.Nodes) + 1,
			Index:    det.Index,
			Name:     det.Label,
			Position: det.Placement,
			Shape:    det.Kind,
			Centroid: det.Centroid,
			Box:      det.Box,
			Polygon:  det.Polygon,
			Lines:    []int{},
		})

	case det.Kind == detection.Connector && det.Segment != nil:
		s := det.Segment
		b.g.Connectors = append(b.g.Connectors, Connector{
			ID:         len(b.g.Connectors) + 1,
			Index:      det.Index,
			Start:      s.Start,
			End:        s.End,
			Reversed:   s.Reversed,
			StartCount: s.StartCount,
			EndCount:   s.EndCount,
			Box:        det.Box,
		})

	case det.Kind == detection.Text:
		b.g.Texts = append(b.g.Texts, OutsideText{
			ID:    len(b.g.Texts) + 1,
			Index: det.Index,
			Text:  det.Label,
			Box:   det.Box,
		})
	}
}

// Graph returns a copy of everything added so far.
func (b *Builder) Graph() *Graph { return b.g.Clone() }
