package engine

import "github.com/jask/tabsync/internal/directive"

// SelectServed selects the container showing servedID. Unknown targets are
// ignored: the tap may have raced with a directive that removed the tab.
func (e *Engine) SelectServed(servedID string) Update {
	i := indexOfServed(e.containers, servedID)
	if i < 0 {
		return e.update(TransitionSelectIgnore, nil, nil)
	}
	return e.selectAt(i)
}

// SelectIdentity selects the container with the given identity.
func (e *Engine) SelectIdentity(id Identity) Update {
	i := indexOf(e.containers, id)
	if i < 0 {
		return e.update(TransitionSelectIgnore, nil, nil)
	}
	return e.selectAt(i)
}

func (e *Engine) selectAt(i int) Update {
	target := e.containers[i].Identity
	if target == e.selected {
		return e.update(TransitionSelectIgnore, nil, nil)
	}
	prevIdx := indexOf(e.containers, e.selected)
	prev := e.containers[prevIdx]
	e.selected = target

	entry, tracked := e.deprecations[prev.ServedID]
	if !tracked || entry.Level != directive.Hard || !prev.Bound() {
		return e.update(TransitionSelect, nil, nil)
	}

	// Leaving a hard-deprecated tab retires it.
	next := make([]Container, 0, len(e.containers))
	next = append(next, e.containers[:prevIdx]...)
	next = append(next, e.containers[prevIdx+1:]...)
	var created []Identity
	if entry.Replacement != nil && indexOfServed(next, entry.Replacement.ServedID) < 0 {
		c := Container{Identity: e.nextIdentity()}
		c.adopt(*entry.Replacement)
		at := min(prevIdx, len(next))
		next = append(next[:at], append([]Container{c}, next[at:]...)...)
		created = append(created, c.Identity)
	}
	e.containers = next
	delete(e.deprecations, prev.ServedID)
	return e.update(TransitionRetire, created, []Identity{prev.Identity})
}
