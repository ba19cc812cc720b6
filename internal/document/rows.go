package document

import (
	"sort"
	"strings"
)

// Table recovery heuristics, in PDF text-space units. Fragments whose
// baselines differ by no more than rowTolerance belong to one row; a
// horizontal gap wider than cellGap starts a new cell; a gap wider than
// wordGap inserts a space inside a cell.
const (
	rowTolerance = 2.0
	cellGap      = 12.0
	wordGap      = 1.0
)

// fragment is one positioned text run on a page.
type fragment struct {
	x, y, w float64
	s       string
}

// buildRows groups fragments into rows by baseline, then splits each row
// into cells by horizontal gaps. Only rows that split into at least two
// cells are treated as table rows; a lone paragraph line yields nothing
// here because the plain-text path already covers it.
func buildRows(fragments []fragment) [][]string {
	if len(fragments) == 0 {
		return nil
	}

	// Top of page first, then left to right.
	sort.SliceStable(fragments, func(i, j int) bool {
		if fragments[i].y != fragments[j].y {
			return fragments[i].y > fragments[j].y
		}
		return fragments[i].x < fragments[j].x
	})

	var rows [][]string
	line := []fragment{fragments[0]}
	for _, f := range fragments[1:] {
		if line[0].y-f.y > rowTolerance {
			if cells := splitCells(line); len(cells) >= 2 {
				rows = append(rows, cells)
			}
			line = line[:0]
		}
		line = append(line, f)
	}
	if cells := splitCells(line); len(cells) >= 2 {
		rows = append(rows, cells)
	}
	return rows
}

// splitCells walks a baseline-sorted line and cuts it into cells wherever
// the horizontal gap between fragments exceeds cellGap.
func splitCells(line []fragment) []string {
	if len(line) == 0 {
		return nil
	}
	sort.SliceStable(line, func(i, j int) bool { return line[i].x < line[j].x })

	var cells []string
	var cell strings.Builder
	cell.WriteString(line[0].s)
	end := line[0].x + line[0].w

	for _, f := range line[1:] {
		gap := f.x - end
		switch {
		case gap > cellGap:
			cells = appendCell(cells, cell.String())
			cell.Reset()
			cell.WriteString(f.s)
		case gap > wordGap:
			cell.WriteString(" ")
			cell.WriteString(f.s)
		default:
			cell.WriteString(f.s)
		}
		if f.x+f.w > end {
			end = f.x + f.w
		}
	}
	return appendCell(cells, cell.String())
}

func appendCell(cells []string, text string) []string {
	return append(cells, strings.TrimSpace(text))
}
