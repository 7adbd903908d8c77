package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jask/tabsync/internal/database"
	"github.com/jask/tabsync/internal/database/repository"
	"github.com/jask/tabsync/internal/directive"
	"github.com/jask/tabsync/internal/engine"
)

const (
	fiveTabs = `{"active":"a","tabs":[{"id":"a","title":"A","path":"/a"},{"id":"b","title":"B","path":"/b"},{"id":"c","title":"C"},{"id":"d","title":"D"},{"id":"e","title":"E"}]}`
	dropB    = `{"active":"a","tabs":[{"id":"a","title":"A","path":"/a"},{"id":"c","title":"C"},{"id":"d","title":"D"},{"id":"e","title":"E"}]}`
	reorder  = `{"active":"a","tabs":[{"id":"c","title":"C"},{"id":"a","title":"A","path":"/a"},{"id":"b","title":"B","path":"/b"},{"id":"d","title":"D"},{"id":"e","title":"E"}]}`
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

type recorder struct {
	mu      sync.Mutex
	updates []engine.Update
}

func (r *recorder) Render(u engine.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
}

func (r *recorder) all() []engine.Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]engine.Update(nil), r.updates...)
}

func newTestCoordinator(t *testing.T, db *sql.DB) (*Coordinator, *recorder) {
	t.Helper()
	rec := &recorder{}
	fixed := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	return &Coordinator{
		Engine:    engine.New(&engine.SequenceGenerator{}),
		Journal:   repository.NewDirectiveRepo(db),
		Snapshots: repository.NewSnapshotRepo(db),
		Renderer:  rec,
		Log:       zaptest.NewLogger(t),
		Now:       func() time.Time { return fixed },
	}, rec
}

func TestHandleDirectiveJournalsAndSnapshots(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db := openTestDB(t)
	c, rec := newTestCoordinator(t, db)

	u, err := c.HandleDirective(ctx, []byte(fiveTabs))
	require.NoError(t, err)
	require.Equal(t, engine.TransitionPromote, u.Transition)
	require.Len(t, rec.all(), 1)

	_, err = c.HandleDirective(ctx, []byte(`{"tabs":[{"id":"x"}]}`))
	require.Error(t, err)
	require.Len(t, rec.all(), 1, "rejected directives are not rendered")

	entries, err := c.Journal.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	statuses := map[string]int{}
	for _, e := range entries {
		statuses[e.Status]++
	}
	require.Equal(t, 1, statuses[repository.StatusAccepted])
	require.Equal(t, 1, statuses[repository.StatusRejected])

	snap, err := c.Snapshots.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	require.Len(t, snap.Containers, 5)
	require.Equal(t, c.Engine.Snapshot(), FromSnapshot(*snap))
}

func TestHandleSelectIgnoresUnknownTargets(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, rec := newTestCoordinator(t, openTestDB(t))
	_, err := c.HandleDirective(ctx, []byte(fiveTabs))
	require.NoError(t, err)

	u := c.HandleSelect(ctx, SelectRequest{ServedID: "nope"})
	require.False(t, u.Changed())
	require.Len(t, rec.all(), 1)

	u = c.HandleSelect(ctx, SelectRequest{ServedID: "c"})
	require.True(t, u.Changed())
	require.Equal(t, "c", u.SelectedContainer().ServedID)
	require.Len(t, rec.all(), 2)

	u = c.HandleSelect(ctx, SelectRequest{Identity: c.Engine.Containers()[0].Identity})
	require.Equal(t, "a", u.SelectedContainer().ServedID)
}

func TestRunAppliesMessagesInOrder(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, rec := newTestCoordinator(t, openTestDB(t))

	directives := make(chan []byte)
	selections := make(chan SelectRequest)
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, directives, selections) }()

	directives <- []byte(fiveTabs)
	selections <- SelectRequest{ServedID: "b"}
	directives <- []byte(dropB)
	close(directives)
	close(selections)
	require.NoError(t, <-done)

	updates := rec.all()
	require.Len(t, updates, 4)
	require.Len(t, updates[0].Created, 1, "initial render lists the bootstrap container")
	require.Equal(t, engine.TransitionMorphExisting, updates[3].Transition)
	require.Equal(t, "a", updates[3].SelectedContainer().ServedID)
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{Engine: engine.New(nil)}
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, make(chan []byte), make(chan SelectRequest)) }()
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestCoordinatorWithoutStorage(t *testing.T) {
	t.Parallel()

	c := &Coordinator{Engine: engine.New(&engine.SequenceGenerator{})}
	u, err := c.HandleDirective(context.Background(), []byte(fiveTabs))
	require.NoError(t, err)
	require.Len(t, u.Containers, 5)
}

func TestHandleDirectiveRejectsMessagesWithoutTabs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, rec := newTestCoordinator(t, openTestDB(t))
	_, err := c.HandleDirective(ctx, []byte(fiveTabs))
	require.NoError(t, err)
	before := c.Engine.Snapshot()

	for _, raw := range []string{`{}`, `{"active":"a"}`, `{"active":"a","tabs":null}`, `{"active":"a","tab":[]}`} {
		_, err := c.HandleDirective(ctx, []byte(raw))
		require.ErrorIs(t, err, directive.ErrMalformed, raw)
	}
	require.Equal(t, engine.ModeTabbed, c.Engine.Mode())
	require.Equal(t, before, c.Engine.Snapshot())
	require.Len(t, rec.all(), 1)
}
