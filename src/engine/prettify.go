package engine

import (
	"fmt"
	"strings"
)

// columnDivider separates cells in a rendered row, matching
// original_source's datasources/prettifier.rs.
const columnDivider = "|"

// cellWidths returns, per column, the width of the widest cell (header
// name or any rendered value), the same two-pass sizing prettifier.rs's
// compute_cell_space does before any row is rendered.
func (ds *Datasink) cellWidths() []int {
	widths := make([]int, len(ds.schema.Fields))
	for i, f := range ds.schema.Fields {
		widths[i] = len(f.Name)
	}
	n := ds.RowCount()
	for c, vec := range ds.data {
		for r := 0; r < n; r++ {
			if l := len(vec.Get(r).String()); l > widths[c] {
				widths[c] = l
			}
		}
	}
	return widths
}

// padCell left-pads value with a single space and right-pads it with
// spaces out to width+2 total, prettifier.rs's pad_value.
func padCell(value string, width int) string {
	pad := width + 1 - len(value)
	if pad < 0 {
		pad = 0
	}
	return " " + value + strings.Repeat(" ", pad)
}

// dividerLine renders the "-"-filled rule under the header, one run per
// column joined by "+", prettifier.rs's get_divider.
func dividerLine(widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("-", w+2)
	}
	return strings.Join(parts, "+")
}

// PrettyPrint renders a Datasink as a fixed-width text table: a header
// row, a "-"/"+" divider, one row per result row, and a trailing "(N
// rows)" line — the Go counterpart to original_source's
// datasources/prettifier.rs, reimplemented in full rather than
// approximated with text/tabwriter's looser column alignment.
func (ds *Datasink) PrettyPrint() string {
	widths := ds.cellWidths()
	lines := make([]string, 0, len(ds.data)+2)

	header := make([]string, len(ds.schema.Fields))
	for i, f := range ds.schema.Fields {
		header[i] = padCell(f.Name, widths[i])
	}
	lines = append(lines, strings.Join(header, columnDivider))
	lines = append(lines, dividerLine(widths))

	n := ds.RowCount()
	for r := 0; r < n; r++ {
		row := make([]string, len(ds.data))
		for c, vec := range ds.data {
			row[c] = padCell(vec.Get(r).String(), widths[c])
		}
		lines = append(lines, strings.Join(row, columnDivider))
	}
	lines = append(lines, fmt.Sprintf("(%d rows)", n))

	return strings.Join(lines, "\n")
}
