package graph

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/flowchart-recognizer/internal/detection"
)

type pt = detection.Point

// fixtureDetections is the detection sequence of a three node chart:
// rectangle, arrow, triangle, floating text, arrow, circle, plus one
// discarded contour.
func fixtureDetections() []detection.Detection {
	d := func(index int, kind detection.Kind, box detection.Box) detection.Detection {
		return detection.Detection{Classification: detection.Classification{Index: index, Kind: kind, Box: box}}
	}

	rect := d(0, detection.Rectangle, detection.Box{X: 151, Y: 25, W: 98, H: 50})
	rect.Centroid = pt{X: 199, Y: 49}
	rect.Polygon = []pt{{151, 25}, {151, 74}, {248, 74}, {248, 25}}
	rect.Label, rect.Placement = "Hello World", detection.Inside

	arrow1 := d(1, detection.Connector, detection.Box{X: 190, Y: 80, W: 20, H: 60})
	arrow1.Segment = &detection.Segment{Start: pt{190, 80}, End: pt{210, 140}, StartCount: 2, EndCount: 25}

	tri := d(2, detection.Triangle, detection.Box{X: 125, Y: 145, W: 150, H: 110})
	tri.Centroid = pt{X: 200, Y: 218}
	tri.Polygon = []pt{{200, 145}, {125, 254}, {274, 254}}

	text := d(3, detection.Text, detection.Box{X: 301, Y: 200, W: 48, H: 10})
	text.Label = "Hello World"

	noise := d(4, detection.Discarded, detection.Box{})

	arrow2 := d(5, detection.Connector, detection.Box{X: 190, Y: 260, W: 20, H: 55})
	arrow2.Segment = &detection.Segment{Start: pt{190, 260}, End: pt{210, 315}, StartCount: 2, EndCount: 25}

	circle := d(6, detection.Circle, detection.Box{X: 160, Y: 317, W: 80, H: 80})
	circle.Centroid = pt{X: 200, Y: 357}
	circle.Polygon = []pt{{200, 317}, {228, 328}, {239, 357}, {228, 385}, {200, 396}, {171, 385}, {160, 357}, {171, 328}}

	return []detection.Detection{rect, arrow1, tri, text, noise, arrow2, circle}
}

func fixtureGraph() *Graph {
	b := NewBuilder()
	for _, det := range fixtureDetections() {
		b.Add(det)
	}
	return b.Graph()
}

var defaultAssociate = AssociateOptions{AttachDistance: 20, TextAttachDistance: 40}

func TestBuilder(t *testing.T) {
	g := fixtureGraph()

	require.Len(t, g.Nodes, 3)
	require.Len(t, g.Connectors, 2)
	require.Len(t, g.Texts, 1)

	for i, n := range g.Nodes {
		assert.Equal(t, i+1, n.ID)
		assert.Empty(t, n.Lines)
	}
	assert.Equal(t, detection.Rectangle, g.Nodes[0].Shape)
	assert.Equal(t, detection.Triangle, g.Nodes[1].Shape)
	assert.Equal(t, detection.Circle, g.Nodes[2].Shape)
	assert.Equal(t, "Hello World", g.Nodes[0].Name)
	assert.Equal(t, detection.Inside, g.Nodes[0].Position)
	assert.Equal(t, detection.Outside, g.Nodes[1].Position)

	assert.Equal(t, []int{1, 2}, []int{g.Connectors[0].ID, g.Connectors[1].ID})
	assert.Equal(t, 5, g.Connectors[1].Index)
	assert.Equal(t, 1, g.Texts[0].ID)
	assert.Equal(t, "Hello World", g.Texts[0].Text)
}

func TestBuilder_Empty(t *testing.T) {
	g := NewBuilder().Graph()
	assert.NotNil(t, g.Nodes)
	assert.NotNil(t, g.Connectors)
	assert.NotNil(t, g.Texts)
}

func TestBuilder_ConnectorWithoutSegmentIgnored(t *testing.T) {
	b := NewBuilder()
	b.Add(detection.Detection{Classification: detection.Classification{Kind: detection.Connector}})
	assert.Empty(t, b.Graph().Connectors)
}

func TestBuilder_IndependentRuns(t *testing.T) {
	a, b := NewBuilder(), NewBuilder()
	for _, det := range fixtureDetections() {
		a.Add(det)
	}
	b.Add(fixtureDetections()[6])

	assert.Len(t, a.Graph().Nodes, 3)
	require.Len(t, b.Graph().Nodes, 1)
	assert.Equal(t, 1, b.Graph().Nodes[0].ID)
}

func TestAssociate(t *testing.T) {
	g := fixtureGraph()
	linked := Associate(g, defaultAssociate)

	assert.Equal(t, []int{1}, linked.Nodes[0].Lines)
	assert.Equal(t, []int{1, 2}, linked.Nodes[1].Lines)
	assert.Equal(t, []int{2}, linked.Nodes[2].Lines)

	assert.Equal(t, 1, linked.Connectors[0].From)
	assert.Equal(t, 2, linked.Connectors[0].To)
	assert.Equal(t, 2, linked.Connectors[1].From)
	assert.Equal(t, 3, linked.Connectors[1].To)

	assert.Zero(t, linked.Texts[0].Line, "text is far from every connector")

	// the input is not modified
	assert.Empty(t, g.Nodes[0].Lines)
	assert.Zero(t, g.Connectors[0].From)
}

func TestAssociate_Reversed(t *testing.T) {
	g := fixtureGraph()
	g.Connectors[0].Reversed = true

	linked := Associate(g, defaultAssociate)
	assert.Equal(t, 2, linked.Connectors[0].From)
	assert.Equal(t, 1, linked.Connectors[0].To)
	assert.Equal(t, []int{1}, linked.Nodes[0].Lines)
}

func TestAssociate_Distance(t *testing.T) {
	linked := Associate(fixtureGraph(), AssociateOptions{AttachDistance: 4, TextAttachDistance: 40})

	for _, c := range linked.Connectors {
		assert.Zero(t, c.From, "connector %d", c.ID)
	}
	// the second arrow's head is 2 px from the circle
	assert.Equal(t, 3, linked.Connectors[1].To)
	assert.Equal(t, []int{2}, linked.Nodes[2].Lines)
	assert.Empty(t, linked.Nodes[0].Lines)
}

func TestAssociate_TextOnConnector(t *testing.T) {
	g := fixtureGraph()
	g.Texts[0].Box = detection.Box{X: 200, Y: 100, W: 20, H: 10}

	linked := Associate(g, defaultAssociate)
	assert.Equal(t, 1, linked.Texts[0].Line)

	linked = Associate(g, AssociateOptions{AttachDistance: 20, TextAttachDistance: 5})
	assert.Zero(t, linked.Texts[0].Line)
}

func TestGraph_Clone(t *testing.T) {
	g := Associate(fixtureGraph(), defaultAssociate)
	c := g.Clone()

	if diff := cmp.Diff(g, c); diff != "" {
		t.Fatalf("clone differs (-want +got):\n%s", diff)
	}

	c.Nodes[1].Lines[0] = 99
	c.Nodes[0].Polygon[0] = pt{0, 0}
	c.Connectors[0].From = 42
	assert.Equal(t, 1, g.Nodes[1].Lines[0])
	assert.Equal(t, pt{151, 25}, g.Nodes[0].Polygon[0])
	assert.Equal(t, 1, g.Connectors[0].From)
}

func TestConnector_HeadTail(t *testing.T) {
	c := Connector{Start: pt{1, 2}, End: pt{3, 4}}
	assert.Equal(t, pt{3, 4}, c.Head())
	assert.Equal(t, pt{1, 2}, c.Tail())

	c.Reversed = true
	assert.Equal(t, pt{1, 2}, c.Head())
	assert.Equal(t, pt{3, 4}, c.Tail())
}
