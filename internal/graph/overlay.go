package graph

import (
	"fmt"
	"image"

	"github.com/ironsheep/flowchart-recognizer/internal/detection"
	"github.com/ironsheep/flowchart-recognizer/internal/imaging"
)

// OverlayStyle controls how RenderOverlay draws.
type OverlayStyle struct {
	Palette   imaging.Palette
	LineWidth int
}

// RenderOverlay draws g on a copy of base.
//
// Each node polygon is stroked in the shape colour, with "<id> <shape>" at
// (cx+10, cy-20) and its label at (cx+10, cy+40) relative to the centroid.
// Connectors are drawn as a straight line with a marker disk on the
// arrowhead end. Floating text is annotated at its box centre.
func RenderOverlay(base image.Image, g *Graph, style OverlayStyle) *image.RGBA {
	out := imaging.CloneRGBA(base)
	p := style.Palette
	width := max(style.LineWidth, 1)

	for _, n := range g.Nodes {
		imaging.StrokePolyline(out, detection.ImagePoints(n.Polygon), true, width, p.Shape)
		cx, cy := n.Centroid.X, n.Centroid.Y
		imaging.DrawLabel(out, cx+10, cy-20, fmt.Sprintf("%d %s", n.ID, n.Shape), p.Label)
		imaging.DrawLabel(out, cx+10, cy+40, n.Name, p.Label)
	}

	for _, c := range g.Connectors {
		imaging.StrokeLine(out, c.Start.ImagePoint(), c.End.ImagePoint(), width, p.Connector)
		imaging.FillDisk(out, c.Head().ImagePoint(), width+2, p.Marker)
		cx, cy := c.Box.Center()
		imaging.DrawLabel(out, int(cx)+10, int(cy)-20, fmt.Sprintf("%d connector", c.ID), p.Label)
	}

	for _, t := range g.Texts {
		cx, cy := t.Box.Center()
		imaging.DrawLabel(out, int(cx)+10, int(cy)-20, fmt.Sprintf("%d text", t.ID), p.Label)
		imaging.DrawLabel(out, int(cx)+10, int(cy)+40, t.Text, p.Label)
	}
	return out
}
