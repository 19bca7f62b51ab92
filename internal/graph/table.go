package graph

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"unicode/utf8"
)

var tableHeader = []string{"Id", "Name", "Position", "Shape", "Line"}

// WriteTable prints the nodes of g as an aligned table with a dashed rule
// under the header.
func WriteTable(w io.Writer, g *Graph) error {
	rows := make([][]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		rows = append(rows, []string{
			strconv.Itoa(n.ID), n.Name, n.Position.String(), n.Shape.String(), JoinLines(n.Lines),
		})
	}

	rule := make([]string, len(tableHeader))
	for i, h := range tableHeader {
		width := utf8.RuneCountInString(h)
		for _, r := range rows {
			width = max(width, utf8.RuneCountInString(r[i]))
		}
		rule[i] = strings.Repeat("-", width)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, r := range append([][]string{tableHeader, rule}, rows...) {
		if _, err := fmt.Fprintln(tw, strings.Join(r, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}
