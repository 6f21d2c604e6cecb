package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMappingRoundTrip(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewMappingStore(db)

	id, err := store.Get("event", "hw-1")
	assert.NoError(t, err)
	assert.Empty(t, id)

	err = store.Set("event", "hw-1", "ext-1")
	assert.NoError(t, err)

	id, err = store.Get("event", "hw-1")
	assert.NoError(t, err)
	assert.Equal(t, "ext-1", id)

	// Same assignment under a different kind is a separate entry
	id, err = store.Get("reminder", "hw-1")
	assert.NoError(t, err)
	assert.Empty(t, id)

	// Replacing keeps a single entry per (kind, assignment)
	err = store.Set("event", "hw-1", "ext-2")
	assert.NoError(t, err)
	all, err := store.All("event")
	assert.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, "ext-2", all["hw-1"])
}

func TestMappingRemove(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewMappingStore(db)

	require.NoError(t, store.Set("event", "hw-1", "ext-1"))
	require.NoError(t, store.Set("event", "hw-2", "ext-2"))

	err := store.Remove("event", "hw-1")
	assert.NoError(t, err)

	id, err := store.Get("event", "hw-1")
	assert.NoError(t, err)
	assert.Empty(t, id)

	id, err = store.Get("event", "hw-2")
	assert.NoError(t, err)
	assert.Equal(t, "ext-2", id)

	// Removing an absent entry is not an error
	err = store.Remove("event", "hw-1")
	assert.NoError(t, err)
}

func TestMappingClear(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewMappingStore(db)

	require.NoError(t, store.Set("event", "hw-1", "ext-1"))
	require.NoError(t, store.Set("reminder", "hw-1", "rem-1"))
	require.NoError(t, store.Set("reminder", "hw-2", "rem-2"))

	err := store.Clear("reminder")
	assert.NoError(t, err)

	all, err := store.All("reminder")
	assert.NoError(t, err)
	assert.Empty(t, all)

	// The other kind keeps its entries
	all, err = store.All("event")
	assert.NoError(t, err)
	assert.Len(t, all, 1)

	err = store.ClearAll()
	assert.NoError(t, err)
	all, err = store.All("event")
	assert.NoError(t, err)
	assert.Empty(t, all)
}
