package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jask/tabsync/internal/database"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func strPtr(s string) *string { return &s }

func TestDirectiveJournal(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	repo := NewDirectiveRepo(openTestDB(t))

	last, err := repo.LastAccepted(ctx)
	require.NoError(t, err)
	require.Nil(t, last)

	entries := []JournalEntry{
		{Kind: "tabbed", Active: "home", Payload: []byte(`{"active":"home","tabs":[]}`), Status: StatusAccepted, Transition: "promote", CreatedCount: 3},
		{Kind: "tabbed", Payload: []byte(`{"tabs":[{"id":"a"}]}`), Status: StatusRejected, Error: "missing active"},
		{Kind: "bootstrap", Payload: []byte(`{"tabs":[]}`), Status: StatusAccepted, Transition: "demote", DestroyedCount: 3},
	}
	for i, e := range entries {
		e.ID = uuid.NewString()
		e.ReceivedAt = database.Now()
		seq, err := repo.Append(ctx, e)
		require.NoError(t, err)
		require.Equal(t, int64(i+1), seq)
	}

	last, err = repo.LastAccepted(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	require.Equal(t, int64(3), last.Seq)
	require.Equal(t, "bootstrap", last.Kind)
	require.Equal(t, 3, last.DestroyedCount)

	recent, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, int64(3), recent[0].Seq)
	require.Equal(t, StatusRejected, recent[1].Status)
	require.Equal(t, "missing active", recent[1].Error)

	pruned, err := repo.Prune(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(2), pruned)
	recent, err = repo.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
}

func TestSnapshotSaveLoadReplace(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	repo := NewSnapshotRepo(openTestDB(t))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, got)

	saved := database.Now()
	first := Snapshot{
		SavedAt:    saved,
		JournalSeq: 4,
		Containers: []ContainerRow{
			{Identity: "c-1", Position: 0, ServedID: "home", Title: "Home", Path: "/"},
			{Identity: "c-2", Position: 1, ServedID: "explore", Title: "Explore", Path: "/explore", Selected: true},
		},
		Deprecations: []DeprecationRow{{
			ServedID:         "explore",
			Level:            "hard",
			ReplacementID:    strPtr("favorites"),
			ReplacementTitle: strPtr("Favorites"),
			ReplacementIcon:  strPtr("star"),
			ReplacementPath:  strPtr("/fav"),
		}},
	}
	require.NoError(t, repo.Save(ctx, first))

	got, err = repo.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.True(t, saved.Equal(got.SavedAt))
	require.Equal(t, int64(4), got.JournalSeq)
	require.Equal(t, first.Containers, got.Containers)
	require.Equal(t, first.Deprecations, got.Deprecations)

	second := Snapshot{SavedAt: saved, Containers: []ContainerRow{{Identity: "c-2", Selected: true, Path: "/explore"}}}
	require.NoError(t, repo.Save(ctx, second))
	got, err = repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, second.Containers, got.Containers)
	require.Empty(t, got.Deprecations)

	require.NoError(t, repo.Clear(ctx))
	got, err = repo.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, got)
}
