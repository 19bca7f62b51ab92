package graph

import (
	"math"
	"slices"

	"github.com/ironsheep/flowchart-recognizer/internal/detection"
)

// AssociateOptions bounds how far apart elements may be and still be linked.
type AssociateOptions struct {
	// AttachDistance is the largest gap between a connector end and a node
	// box.
	AttachDistance float64
	// TextAttachDistance is the largest gap between a floating text box
	// centre and a connector segment.
	TextAttachDistance float64
}

// Associate links connectors to nodes and floating text to connectors and
// returns the result as a new Graph; g is not modified.
//
// Each connector end attaches to the node whose box is nearest, provided it
// is within AttachDistance. From is the node at the tail, To the node at the
// head. Ties go to the node with the lower id.
func Associate(g *Graph, opts AssociateOptions) *Graph {
	out := g.Clone()

	for i := range out.Connectors {
		c := &out.Connectors[i]
		c.From = nearestNode(out.Nodes, c.Tail(), opts.AttachDistance)
		c.To = nearestNode(out.Nodes, c.Head(), opts.AttachDistance)

		for _, id := range []int{c.From, c.To} {
			if id == 0 {
				continue
			}
			n := &out.Nodes[id-1]
			if !slices.Contains(n.Lines, c.ID) {
				n.Lines = append(n.Lines, c.ID)
			}
		}
	}
	for i := range out.Nodes {
		slices.Sort(out.Nodes[i].Lines)
	}

	for i := range out.Texts {
		t := &out.Texts[i]
		cx, cy := t.Box.Center()
		center := detection.Point{X: int(math.Round(cx)), Y: int(math.Round(cy))}

		t.Line = 0
		best := math.Inf(1)
		for _, c := range out.Connectors {
			d := detection.SegmentDistance(center, c.Start, c.End)
			if d <= opts.TextAttachDistance && d < best {
				t.Line, best = c.ID, d
			}
		}
	}
	return out
}

// nearestNode returns the id of the node whose box is closest to p within
// limit, or 0.
func nearestNode(nodes []Node, p detection.Point, limit float64) int {
	id, best := 0, math.Inf(1)
	for _, n := range nodes {
		d := n.Box.DistanceTo(p)
		if d <= limit && d < best {
			id, best = n.ID, d
		}
	}
	return id
}
