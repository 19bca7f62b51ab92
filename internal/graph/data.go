package graph

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed data.schema.json
var dataSchema []byte

const dataSchemaURL = "https://github.com/ironsheep/flowchart-recognizer/data.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func loadSchema() {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(dataSchemaURL, bytes.NewReader(dataSchema)); err != nil {
		schemaErr = err
		return
	}
	schema, schemaErr = c.Compile(dataSchemaURL)
}

// NodeRecord is one entry of the Node array in data.json.
type NodeRecord struct {
	ID       int    `json:"Id"`
	Name     string `json:"Name"`
	Position string `json:"Position"`
	Shape    string `json:"Shape"`
	Line     string `json:"Line"`
}

// ConnectorRecord is one entry of the Connector array in data.json. Points
// are [x, y] pairs; From and To are null when unattached.
type ConnectorRecord struct {
	ID       int    `json:"Id"`
	Start    [2]int `json:"Start"`
	End      [2]int `json:"End"`
	Reversed bool   `json:"Reversed"`
	From     *int   `json:"From"`
	To       *int   `json:"To"`
}

// TextRecord is one entry of the Text array in data.json.
type TextRecord struct {
	ID   int    `json:"Id"`
	Text string `json:"Text"`
	Line string `json:"Line"`
}

// Data is the document written to data.json.
type Data struct {
	Node      []NodeRecord      `json:"Node"`
	Connector []ConnectorRecord `json:"Connector"`
	Text      []TextRecord      `json:"Text"`
}

// NewData flattens g into its data.json form.
func NewData(g *Graph) Data {
	d := Data{
		Node:      make([]NodeRecord, 0, len(g.Nodes)),
		Connector: make([]ConnectorRecord, 0, len(g.Connectors)),
		Text:      make([]TextRecord, 0, len(g.Texts)),
	}
	for _, n := range g.Nodes {
		d.Node = append(d.Node, NodeRecord{
			ID:       n.ID,
			Name:     n.Name,
			Position: n.Position.String(),
			Shape:    n.Shape.String(),
			Line:     JoinLines(n.Lines),
		})
	}
	for _, c := range g.Connectors {
		d.Connector = append(d.Connector, ConnectorRecord{
			ID:       c.ID,
			Start:    [2]int{c.Start.X, c.Start.Y},
			End:      [2]int{c.End.X, c.End.Y},
			Reversed: c.Reversed,
			From:     nodeRef(c.From),
			To:       nodeRef(c.To),
		})
	}
	for _, t := range g.Texts {
		rec := TextRecord{ID: t.ID, Text: t.Text}
		if t.Line != 0 {
			rec.Line = strconv.Itoa(t.Line)
		}
		d.Text = append(d.Text, rec)
	}
	return d
}

// MarshalData encodes g as data.json: four-space indented and checked
// against the embedded schema.
func MarshalData(g *Graph) ([]byte, error) {
	b, err := json.MarshalIndent(NewData(g), "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode graph: %w", err)
	}
	if err := ValidateData(b); err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// ValidateData checks an encoded data.json document against the schema.
func ValidateData(b []byte) error {
	schemaOnce.Do(loadSchema)
	if schemaErr != nil {
		return fmt.Errorf("failed to load data schema: %w", schemaErr)
	}

	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("invalid data document: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("data document does not match schema: %w", err)
	}
	return nil
}

// JoinLines renders connector ids the way the Line column shows them.
func JoinLines(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ", ")
}

func nodeRef(id int) *int {
	if id == 0 {
		return nil
	}
	return &id
}
