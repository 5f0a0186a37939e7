package format

import (
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
)

// Tabular is output that also has a table form.
type Tabular interface {
	Table() (header []string, rows [][]string)
}

// WriteTable renders t as a markdown table.
func WriteTable(w io.Writer, t Tabular) error {
	header, rows := t.Table()
	table := tablewriter.NewTable(w, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header(cells(header)...)
	for _, row := range rows {
		if err := table.Append(cells(row)...); err != nil {
			return err
		}
	}
	return table.Render()
}

func cells(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
