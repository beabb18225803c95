package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetStoreStoreAndURL(t *testing.T) {
	store, err := NewAssetStore(t.TempDir(), "http://localhost:8080/")
	require.NoError(t, err)

	rel, err := store.Store("receipts", "payment.PNG", strings.NewReader("fake-image"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, "receipts/"))
	assert.True(t, strings.HasSuffix(rel, ".png"))
	assert.True(t, store.Exists(rel))
	assert.Equal(t, "http://localhost:8080/storage/"+rel, store.URL(rel))
}

func TestAssetStoreDeleteIsBestEffort(t *testing.T) {
	store, err := NewAssetStore(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)

	rel, err := store.Store("receipts", "payment.png", strings.NewReader("fake-image"))
	require.NoError(t, err)

	assert.True(t, store.Delete(rel))
	assert.False(t, store.Exists(rel))

	// deleting again must not report failure
	assert.True(t, store.Delete(rel))
	assert.True(t, store.Delete(""))
}

func TestAssetStoreEmptyURL(t *testing.T) {
	store, err := NewAssetStore(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)

	assert.Equal(t, "", store.URL(""))
}
