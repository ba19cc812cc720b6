package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRowsEmpty(t *testing.T) {
	assert.Nil(t, buildRows(nil))
}

func TestBuildRowsSingleCellLineDropped(t *testing.T) {
	// A lone paragraph line never splits into two cells, so it is not a
	// table row.
	fragments := []fragment{
		{x: 10, y: 700, w: 200, s: "This is a paragraph of prose."},
	}
	assert.Empty(t, buildRows(fragments))
}

func TestBuildRowsSplitsCellsOnWideGaps(t *testing.T) {
	fragments := []fragment{
		{x: 10, y: 700, w: 80, s: "EN 55032:2015"},
		{x: 200, y: 700, w: 40, s: "Active"},
		{x: 300, y: 700, w: 90, s: "EMC 2014/30/EU"},
	}

	rows := buildRows(fragments)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"EN 55032:2015", "Active", "EMC 2014/30/EU"}, rows[0])
}

func TestBuildRowsJoinsWordsWithinCell(t *testing.T) {
	// Gaps wider than a word space but narrower than a cell gap stay in one
	// cell with a space between the runs.
	fragments := []fragment{
		{x: 10, y: 700, w: 20, s: "EN"},
		{x: 34, y: 700, w: 30, s: "55032"},
		{x: 200, y: 700, w: 40, s: "Active"},
	}

	rows := buildRows(fragments)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"EN 55032", "Active"}, rows[0])
}

func TestBuildRowsGroupsByBaseline(t *testing.T) {
	// Two rows: baselines 700 and 680, each with two cells. Jitter within
	// the row tolerance stays in the same row.
	fragments := []fragment{
		{x: 200, y: 700, w: 40, s: "Active"},
		{x: 10, y: 701, w: 80, s: "EN 55032:2015"},
		{x: 10, y: 680, w: 90, s: "IEC 62368-1:2014"},
		{x: 200, y: 680, w: 50, s: "Withdrawn"},
	}

	rows := buildRows(fragments)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"EN 55032:2015", "Active"}, rows[0])
	assert.Equal(t, []string{"IEC 62368-1:2014", "Withdrawn"}, rows[1])
}

func TestBuildRowsMixedContent(t *testing.T) {
	// A paragraph line between two table rows contributes nothing.
	fragments := []fragment{
		{x: 10, y: 700, w: 80, s: "EN 55032:2015"},
		{x: 200, y: 700, w: 40, s: "Active"},
		{x: 10, y: 650, w: 300, s: "The following standards were assessed."},
		{x: 10, y: 600, w: 90, s: "CISPR 11:2015"},
		{x: 200, y: 600, w: 40, s: "Current"},
	}

	rows := buildRows(fragments)
	require.Len(t, rows, 2)
	assert.Equal(t, "EN 55032:2015", rows[0][0])
	assert.Equal(t, "CISPR 11:2015", rows[1][0])
}

func TestSplitCellsAdjacentRunsConcatenate(t *testing.T) {
	// Runs that touch (gap below the word threshold) join without a space.
	line := []fragment{
		{x: 10, y: 700, w: 30, s: "550"},
		{x: 40.5, y: 700, w: 20, s: "32"},
		{x: 200, y: 700, w: 40, s: "Active"},
	}

	cells := splitCells(line)
	assert.Equal(t, []string{"55032", "Active"}, cells)
}

func TestSplitCellsEmpty(t *testing.T) {
	assert.Nil(t, splitCells(nil))
}
