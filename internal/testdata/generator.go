// Package testdata generates directive streams for tests and demos.
package testdata

import (
	"math/rand"
	"strings"

	"github.com/jask/tabsync/internal/directive"
)

// Pool is the served id vocabulary generated tabs draw from.
var Pool = []string{"home", "explore", "favorites", "profile", "search", "inbox", "settings"}

// Tab returns a plain descriptor for id.
func Tab(id string) directive.TabDescriptor {
	return directive.TabDescriptor{
		ServedID: id,
		Title:    strings.ToUpper(id[:1]) + id[1:],
		Icon:     id + ".png",
		Path:     "/" + id,
	}
}

// Directive returns a random directive: mostly tabbed lists of two or more
// tabs with some deprecations and replacements, and now and then a
// bootstrap message.
func Directive(r *rand.Rand) directive.Directive {
	if r.Intn(8) == 0 {
		return directive.Bootstrap{}
	}
	perm := r.Perm(len(Pool))
	n := 2 + r.Intn(len(Pool)-1)
	d := directive.Tabbed{}
	replaced := map[string]bool{}
	for _, idx := range perm[:n] {
		t := Tab(Pool[idx])
		switch r.Intn(6) {
		case 0:
			t.Deprecated = directive.Soft
		case 1:
			t.Deprecated = directive.Hard
		case 2:
			old := Pool[r.Intn(len(Pool))]
			if old != t.ServedID && !replaced[old] {
				t.Replaces = old
				replaced[old] = true
			}
		}
		d.Tabs = append(d.Tabs, t)
	}
	d.Active = d.Tabs[r.Intn(len(d.Tabs))].ServedID
	return d
}

// Feed returns n encoded directives from seed. One message in ten is
// garbage when noisy is set.
func Feed(seed int64, n int, noisy bool) [][]byte {
	r := rand.New(rand.NewSource(seed))
	out := make([][]byte, 0, n)
	for len(out) < n {
		if noisy && r.Intn(10) == 0 {
			out = append(out, []byte(`{"tabs":[{"id":"x"}]}`))
			continue
		}
		b, err := directive.Encode(Directive(r))
		if err != nil {
			continue
		}
		out = append(out, b)
	}
	return out
}
