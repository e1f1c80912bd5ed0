package alertstore

import (
	"path/filepath"
	"testing"

	bolt "go.etcd.io/bbolt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *bolt.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "alerts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestIsNewFirstSeenThenRepeat(t *testing.T) {
	db := openTestDB(t)

	isNew, err := IsNew(db, 190, 0)
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = IsNew(db, 190, 0)
	require.NoError(t, err)
	assert.False(t, isNew)
}

func TestIsNewDistinctSourceAddresses(t *testing.T) {
	db := openTestDB(t)

	isNew, err := IsNew(db, 190, 0)
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = IsNew(db, 190, 1)
	require.NoError(t, err)
	assert.True(t, isNew)
}

func TestClearAllowsReRaise(t *testing.T) {
	db := openTestDB(t)

	_, err := IsNew(db, 190, 0)
	require.NoError(t, err)

	require.NoError(t, Clear(db, 190, 0))

	isNew, err := IsNew(db, 190, 0)
	require.NoError(t, err)
	assert.True(t, isNew)
}

func TestClearAll(t *testing.T) {
	db := openTestDB(t)

	_, _ = IsNew(db, 190, 0)
	_, _ = IsNew(db, 91, 0)

	require.NoError(t, ClearAll(db))

	isNew, err := IsNew(db, 190, 0)
	require.NoError(t, err)
	assert.True(t, isNew)
}
