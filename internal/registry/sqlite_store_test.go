package registry

import (
	"path/filepath"
	"testing"

	"github.com/Tarachineno/standard-checker/internal/standards"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.db")

	store, err := NewSQLiteStore(path, nil)
	require.NoError(t, err)
	defer store.Close()

	records := []standards.Record{
		{
			ID:         "EN_301 489-17_2017",
			Number:     "EN 301 489-17:2017",
			Family:     standards.FamilyEN,
			NumberBody: "301 489-17",
			Year:       strPtr("2017"),
			Status:     standards.StatusActive,
			Source:     standards.SourcePDF,
			RemoteInfo: &standards.RemoteInfo{
				Status:        "Success",
				TotalVersions: 2,
				Versions: []standards.VersionEntry{
					{Identification: "EN 301 489-17 V3.2.4", Status: "Published"},
					{Identification: "EN 301 489-17 V3.2.0", Status: "Superseded"},
				},
			},
		},
		{
			ID:     "ISO_9001_null",
			Number: "ISO 9001",
			Family: standards.FamilyISO,
			Status: standards.StatusUnknown,
		},
	}
	require.NoError(t, store.Save(records))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	// Insertion order is preserved across the round trip.
	assert.Equal(t, "EN_301 489-17_2017", loaded[0].ID)
	assert.Equal(t, "ISO_9001_null", loaded[1].ID)

	require.NotNil(t, loaded[0].RemoteInfo)
	assert.Equal(t, 2, loaded[0].RemoteInfo.TotalVersions)
	require.Len(t, loaded[0].RemoteInfo.Versions, 2)
	assert.Equal(t, "EN 301 489-17 V3.2.4", loaded[0].RemoteInfo.Versions[0].Identification)
	assert.Nil(t, loaded[1].Year)
}

func TestSQLiteStoreSaveReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.db")

	store, err := NewSQLiteStore(path, nil)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save([]standards.Record{
		{ID: "a", Number: "EN 1"},
		{ID: "b", Number: "EN 2"},
	}))
	require.NoError(t, store.Save([]standards.Record{
		{ID: "c", Number: "EN 3"},
	}))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "c", loaded[0].ID)
}

func TestSQLiteStoreEmptyDatabase(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "registry.db"), nil)
	require.NoError(t, err)
	defer store.Close()

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestRegistryWithSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.db")

	store, err := NewSQLiteStore(path, nil)
	require.NoError(t, err)

	reg, err := New(store)
	require.NoError(t, err)
	reg.Add(enRecord())
	require.NoError(t, reg.Save())
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path, nil)
	require.NoError(t, err)
	defer reopened.Close()

	reloaded, err := New(reopened)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Len())
}
