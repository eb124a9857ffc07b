// Package table prints aligned text tables whose cells are rendered from
// text/template formats.
package table

import (
	"bytes"
	"io"
	"strings"
	"text/template"
)

// Table contains data for a table to be printed.
type Table struct {
	headers   []string
	templates []*template.Template
	rows      []interface{}

	CellSeparator string
}

var funcmap = template.FuncMap{
	"join": strings.Join,
}

// New initializes a new Table
func New() *Table {
	return &Table{CellSeparator: "  "}
}

// AddColumn adds a column with the given header. The cells are rendered by
// executing format, a text/template, on the row data. AddColumn panics if
// format cannot be parsed.
func (t *Table) AddColumn(header, format string) {
	tmpl, err := template.New("column " + header).Funcs(funcmap).Parse(format)
	if err != nil {
		panic(err)
	}

	t.headers = append(t.headers, header)
	t.templates = append(t.templates, tmpl)
}

// AddRow adds a row which is rendered from data.
func (t *Table) AddRow(data interface{}) {
	t.rows = append(t.rows, data)
}

func writeLine(w io.Writer, sep string, cells []string, widths []int) error {
	var line strings.Builder
	for i, cell := range cells {
		if i > 0 {
			line.WriteString(sep)
		}
		line.WriteString(cell)
		if pad := widths[i] - len(cell); pad > 0 {
			line.WriteString(strings.Repeat(" ", pad))
		}
	}

	_, err := io.WriteString(w, strings.TrimRight(line.String(), " ")+"\n")
	return err
}

// Write prints the table to w.
func (t *Table) Write(w io.Writer) error {
	if len(t.templates) == 0 {
		return nil
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = len(h)
	}

	buf := bytes.NewBuffer(nil)
	lines := make([][]string, 0, len(t.rows))
	for _, data := range t.rows {
		cells := make([]string, 0, len(t.templates))
		for i, tmpl := range t.templates {
			if err := tmpl.Execute(buf, data); err != nil {
				return err
			}

			cell := buf.String()
			buf.Reset()
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
			cells = append(cells, cell)
		}
		lines = append(lines, cells)
	}

	total := (len(widths) - 1) * len(t.CellSeparator)
	for _, width := range widths {
		total += width
	}
	separator := strings.Repeat("-", total) + "\n"

	if err := writeLine(w, t.CellSeparator, t.headers, widths); err != nil {
		return err
	}
	if _, err := io.WriteString(w, separator); err != nil {
		return err
	}
	for _, cells := range lines {
		if err := writeLine(w, t.CellSeparator, cells, widths); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, separator)
	return err
}
