package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpcfs/quotascan/pkg/quotascan"
)

func newTestDatabase(t *testing.T) *SqliteDatabase {
	t.Helper()
	db, err := GetDatabase(context.Background(), filepath.Join(t.TempDir(), "notifications.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestLastNotifiedUnknownEntity(t *testing.T) {
	db := newTestDatabase(t)

	last, err := db.LastNotified(context.Background(), "scratch", quotascan.KindUser, "2540075")
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestMarkAndLookupNotification(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 14, 12, 0, 0, 0, time.UTC)

	require.NoError(t, db.MarkNotified(ctx, "scratch", quotascan.KindUser, "2540075", quotascan.ExceedBlock, at))

	last, err := db.LastNotified(ctx, "scratch", quotascan.KindUser, "2540075")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, at.Unix(), last.Unix())

	// Same id under a different storage or kind is a separate record.
	last, err = db.LastNotified(ctx, "home", quotascan.KindUser, "2540075")
	require.NoError(t, err)
	assert.Nil(t, last)
	last, err = db.LastNotified(ctx, "scratch", quotascan.KindFileset, "2540075")
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestMarkNotifiedReplacesEarlierRecord(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()
	first := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	second := first.Add(7 * 24 * time.Hour)

	require.NoError(t, db.MarkNotified(ctx, "scratch", quotascan.KindUser, "2540075", quotascan.ExceedBlock, first))
	require.NoError(t, db.MarkNotified(ctx, "scratch", quotascan.KindUser, "2540075", quotascan.ExceedBoth, second))

	last, err := db.LastNotified(ctx, "scratch", quotascan.KindUser, "2540075")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, second.Unix(), last.Unix())
}

func TestPrune(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	require.NoError(t, db.MarkNotified(ctx, "scratch", quotascan.KindUser, "2540075", quotascan.ExceedBlock, time.Now().Add(-30*24*time.Hour)))
	require.NoError(t, db.MarkNotified(ctx, "scratch", quotascan.KindUser, "2540076", quotascan.ExceedBlock, time.Now()))

	pruned, err := db.Prune(ctx, 14*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	last, err := db.LastNotified(ctx, "scratch", quotascan.KindUser, "2540076")
	require.NoError(t, err)
	assert.NotNil(t, last)
}
