package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/ironsheep/flowchart-recognizer/internal/detection"
)

func TestMarshalData(t *testing.T) {
	b, err := MarshalData(Associate(fixtureGraph(), defaultAssociate))
	require.NoError(t, err)

	doc := gjson.ParseBytes(b)
	assert.Equal(t, `["rectangle","triangle","circle"]`, doc.Get("Node.#.Shape").Raw)
	assert.Equal(t, `["Inside","Outside","Outside"]`, doc.Get("Node.#.Position").Raw)
	assert.Equal(t, `["1","1, 2","2"]`, doc.Get("Node.#.Line").Raw)
	assert.Equal(t, "Hello World", doc.Get("Node.0.Name").String())

	assert.Equal(t, `[190,80]`, doc.Get("Connector.0.Start").Raw)
	assert.Equal(t, int64(1), doc.Get("Connector.0.From").Int())
	assert.Equal(t, int64(3), doc.Get("Connector.1.To").Int())
	assert.False(t, doc.Get("Connector.1.Reversed").Bool())

	assert.Equal(t, "Hello World", doc.Get("Text.0.Text").String())
	assert.Equal(t, "", doc.Get("Text.0.Line").String())
}

func TestMarshalData_Format(t *testing.T) {
	g := NewBuilder().Graph()
	g.Nodes = append(g.Nodes, Node{ID: 1, Name: "Start", Position: detection.Inside, Shape: detection.Rectangle, Lines: []int{}})
	g.Connectors = append(g.Connectors, Connector{ID: 1, Start: pt{1, 2}, End: pt{3, 4}, From: 1})

	b, err := MarshalData(g)
	require.NoError(t, err)

	want := `{
    "Node": [
        {
            "Id": 1,
            "Name": "Start",
            "Position": "Inside",
            "Shape": "rectangle",
            "Line": ""
        }
    ],
    "Connector": [
        {
            "Id": 1,
            "Start": [
                1,
                2
            ],
            "End": [
                3,
                4
            ],
            "Reversed": false,
            "From": 1,
            "To": null
        }
    ],
    "Text": []
}
`
	assert.Equal(t, want, string(b))
}

func TestMarshalData_Empty(t *testing.T) {
	b, err := MarshalData(NewBuilder().Graph())
	require.NoError(t, err)
	assert.JSONEq(t, `{"Node":[],"Connector":[],"Text":[]}`, string(b))
}

func TestMarshalData_Deterministic(t *testing.T) {
	first, err := MarshalData(Associate(fixtureGraph(), defaultAssociate))
	require.NoError(t, err)
	second, err := MarshalData(Associate(fixtureGraph(), defaultAssociate))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestValidateData(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{"minimal", `{"Node":[]}`, false},
		{"node", `{"Node":[{"Id":1,"Name":"","Position":"Outside","Shape":"circle","Line":"1, 2"}]}`, false},
		{"missing Node", `{"Connector":[]}`, true},
		{"bad shape", `{"Node":[{"Id":1,"Name":"","Position":"Outside","Shape":"square","Line":""}]}`, true},
		{"bad position", `{"Node":[{"Id":1,"Name":"","Position":"Above","Shape":"circle","Line":""}]}`, true},
		{"bad line", `{"Node":[{"Id":1,"Name":"","Position":"Inside","Shape":"circle","Line":"1,2"}]}`, true},
		{"zero id", `{"Node":[{"Id":0,"Name":"","Position":"Inside","Shape":"circle","Line":""}]}`, true},
		{"extra key", `{"Node":[],"Extra":1}`, true},
		{"empty text", `{"Node":[],"Text":[{"Id":1,"Text":"","Line":""}]}`, true},
		{"short point", `{"Node":[],"Connector":[{"Id":1,"Start":[1],"End":[1,2],"Reversed":true,"From":null,"To":null}]}`, true},
		{"not json", `{`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateData([]byte(tt.doc))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestJoinLines(t *testing.T) {
	assert.Equal(t, "", JoinLines(nil))
	assert.Equal(t, "3", JoinLines([]int{3}))
	assert.Equal(t, "1, 2, 10", JoinLines([]int{1, 2, 10}))
}
