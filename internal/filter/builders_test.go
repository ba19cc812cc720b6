package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestAddOptionsEmpty(t *testing.T) {
	f := New().AddOptions(Options{})
	assert.Empty(t, f.Conditions())
}

func TestAddOptionsOneConditionPerField(t *testing.T) {
	f := New().AddOptions(Options{
		Status:    "Active",
		Directive: "RED",
		Family:    "EN",
		Source:    "PDF",
		Number:    "489",
		Version:   "2017",
		DateStart: "2025-01-01",
		DateEnd:   "2025-12-31",
	})
	assert.Len(t, f.Conditions(), 8)
}

func TestAddOptionsHasVersion(t *testing.T) {
	records := sampleRecords()

	out := New().AddOptions(Options{HasVersion: boolPtr(true)}).Apply(records)
	assert.Len(t, out, 2)
	for _, rec := range out {
		assert.True(t, rec.HasYear())
	}

	out = New().AddOptions(Options{HasVersion: boolPtr(false)}).Apply(records)
	require.Len(t, out, 1)
	assert.Equal(t, "ISO 9001", out[0].Number)
}

func TestAddOptionsHasRemoteInfo(t *testing.T) {
	records := sampleRecords()

	out := New().AddOptions(Options{HasRemoteInfo: boolPtr(true)}).Apply(records)
	require.Len(t, out, 1)
	assert.NotNil(t, out[0].RemoteInfo)

	out = New().AddOptions(Options{HasRemoteInfo: boolPtr(false)}).Apply(records)
	assert.Len(t, out, 2)
}

func TestAddOptionsDateWindow(t *testing.T) {
	out := New().AddOptions(Options{
		DateStart: "2025-03-01",
		DateEnd:   "2025-03-31",
	}).Apply(sampleRecords())

	assert.Len(t, out, 2)
}

func TestAddOptionsCombined(t *testing.T) {
	out := New().AddOptions(Options{
		Source:     "PDF",
		HasVersion: boolPtr(true),
		Status:     "Withdrawn",
	}).Apply(sampleRecords())

	require.Len(t, out, 1)
	assert.Equal(t, "IEC 62368-1:2014", out[0].Number)
}
