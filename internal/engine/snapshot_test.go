package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/jask/tabsync/internal/directive"
)

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	e := newTestEngine()
	mustAccept(t, e, tabbed("home", "home", "explore", "profile"))
	e.SelectServed("explore")
	mustAccept(t, e, hardDeprecationOnExplore())

	snap := e.Snapshot()
	restored, err := Restore(snap, &SequenceGenerator{Prefix: "r"})
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(snap, restored.Snapshot()))
	checkInvariants(t, restored)

	// restored engine keeps the deferred retirement
	u := restored.SelectServed("home")
	require.Equal(t, TransitionRetire, u.Transition)
	require.Equal(t, []string{"home", "favorites", "profile"}, servedOrder(u.Containers))
}

func TestSnapshotIsDetached(t *testing.T) {
	e := newTestEngine()
	mustAccept(t, e, tabbed("a", "a", "b"))
	snap := e.Snapshot()
	snap.Containers[0].Title = "mutated"
	c, _ := e.Lookup(snap.Containers[0].Identity)
	require.Equal(t, "A", c.Title)
}

func TestRestoreRejectsBrokenState(t *testing.T) {
	cases := map[string]State{
		"empty": {},
		"selection": {
			Containers: bound("a", "b"),
			Selected:   "elsewhere",
		},
		"duplicate identity": {
			Containers: []Container{{Identity: "x", ServedID: "a"}, {Identity: "x", ServedID: "b"}},
			Selected:   "x",
		},
		"unbound among tabs": {
			Containers: []Container{{Identity: "x", ServedID: "a"}, {Identity: "y"}},
			Selected:   "x",
		},
	}
	for name, s := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Restore(s, nil)
			require.ErrorIs(t, err, ErrInvalidState)
		})
	}
}

func TestRestoreDropsTrackingForInvisibleTabs(t *testing.T) {
	e, err := Restore(State{
		Containers: bound("a", "b"),
		Selected:   "id-a",
		Deprecations: Deprecations{
			"b":    {Level: directive.Soft},
			"gone": {Level: directive.Hard},
		},
	}, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, keys(e.Deprecations()))
}

func TestRestoredEngineNeverReusesIdentities(t *testing.T) {
	e, err := Restore(State{
		Containers: []Container{{Identity: "c-1", ServedID: "a"}, {Identity: "c-2", ServedID: "b"}},
		Selected:   "c-1",
	}, &SequenceGenerator{})
	require.NoError(t, err)
	u := mustAccept(t, e, tabbed("a", "a", "b", "c"))
	require.Equal(t, []Identity{"c-3"}, u.Created)
}

func TestAdoptOrder(t *testing.T) {
	e := newTestEngine()
	mustAccept(t, e, tabbed("a", "a", "b", "c", "d"))
	ids := map[string]Identity{}
	for _, c := range e.Containers() {
		ids[c.ServedID] = c.Identity
	}

	require.True(t, e.AdoptOrder([]string{"c", "x", "a"}))
	require.Equal(t, []string{"c", "a", "b", "d"}, servedOrder(e.Containers()))
	for served, id := range ids {
		require.Equal(t, id, identityOf(t, e, served))
	}
	require.False(t, e.AdoptOrder([]string{"c", "a", "b", "d"}))
	checkInvariants(t, e)
}

func keys(d Deprecations) []string {
	out := make([]string, 0, len(d))
	for k := range d {
		out = append(out, k)
	}
	return out
}
