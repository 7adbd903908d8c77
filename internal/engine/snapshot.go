package engine

import (
	"errors"
	"fmt"
)

var ErrInvalidState = errors.New("engine: invalid state")

// State is a detached copy of everything the engine owns.
type State struct {
	Containers   []Container
	Selected     Identity
	Deprecations Deprecations
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() State {
	return State{
		Containers:   e.Containers(),
		Selected:     e.selected,
		Deprecations: e.deprecations.Clone(),
	}
}

// Restore rebuilds an engine from a snapshot taken earlier.
func Restore(s State, gen IdentityGenerator) (*Engine, error) {
	if len(s.Containers) == 0 {
		return nil, fmt.Errorf("%w: no containers", ErrInvalidState)
	}
	if gen == nil {
		gen = UUIDGenerator()
	}
	e := &Engine{gen: gen, issued: make(map[Identity]struct{}, len(s.Containers))}
	served := make(map[string]struct{}, len(s.Containers))
	for _, c := range s.Containers {
		if c.Identity == "" {
			return nil, fmt.Errorf("%w: container without identity", ErrInvalidState)
		}
		if _, dup := e.issued[c.Identity]; dup {
			return nil, fmt.Errorf("%w: duplicate identity %q", ErrInvalidState, c.Identity)
		}
		e.issued[c.Identity] = struct{}{}
		if _, dup := served[c.ServedID]; dup {
			return nil, fmt.Errorf("%w: duplicate served id %q", ErrInvalidState, c.ServedID)
		}
		served[c.ServedID] = struct{}{}
		if len(s.Containers) > 1 && !c.Bound() {
			return nil, fmt.Errorf("%w: unbound container %q among tabs", ErrInvalidState, c.Identity)
		}
	}
	if indexOf(s.Containers, s.Selected) < 0 {
		return nil, fmt.Errorf("%w: selection %q does not resolve", ErrInvalidState, s.Selected)
	}
	e.containers = make([]Container, len(s.Containers))
	copy(e.containers, s.Containers)
	e.selected = s.Selected
	e.deprecations = make(Deprecations, len(s.Deprecations))
	for id, entry := range s.Deprecations.Clone() {
		if _, ok := served[id]; ok && id != "" {
			e.deprecations[id] = entry
		}
	}
	return e, nil
}

// AdoptOrder reorders containers to follow servedIDs. Containers not named
// keep their relative order after the named ones. This applies the ordering
// Reconcile defers, and is meant for cold starts. It reports whether the
// order changed.
func (e *Engine) AdoptOrder(servedIDs []string) bool {
	rank := make(map[string]int, len(servedIDs))
	for i, id := range servedIDs {
		if _, ok := rank[id]; !ok {
			rank[id] = i
		}
	}
	next := make([]Container, 0, len(e.containers))
	for _, id := range servedIDs {
		i := indexOfServed(e.containers, id)
		if i < 0 || containsIdentity(next, e.containers[i].Identity) {
			continue
		}
		next = append(next, e.containers[i])
	}
	for _, c := range e.containers {
		if _, ok := rank[c.ServedID]; !ok {
			next = append(next, c)
		}
	}
	changed := false
	for i := range next {
		if next[i].Identity != e.containers[i].Identity {
			changed = true
			break
		}
	}
	e.containers = next
	return changed
}

func containsIdentity(containers []Container, id Identity) bool {
	return indexOf(containers, id) >= 0
}
