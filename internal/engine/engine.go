package engine

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/jask/tabsync/internal/directive"
)

// Mode is derived from the container count.
type Mode int

const (
	ModeBootstrap Mode = iota
	ModeTabbed
)

func (m Mode) String() string {
	if m == ModeBootstrap {
		return "bootstrap"
	}
	return "tabbed"
}

// Transition names what an Accept or Select call did.
type Transition string

const (
	TransitionIdle           Transition = "bootstrap-idle"
	TransitionPromote        Transition = "promote"
	TransitionDemote         Transition = "demote"
	TransitionDemoteFiltered Transition = "demote-filtered"
	TransitionUnchanged      Transition = "unchanged"
	TransitionReorderIgnored Transition = "reorder-ignored"
	TransitionGrow           Transition = "grow"
	TransitionShrink         Transition = "shrink"
	TransitionReshape        Transition = "reshape"
	TransitionMorphExisting  Transition = "morph-existing"
	TransitionMorphNew       Transition = "morph-new"

	TransitionSelect       Transition = "select"
	TransitionSelectIgnore Transition = "select-ignored"
	TransitionRetire       Transition = "retire-deprecated"
)

// Update is emitted after every Accept or Select. Containers is a copy the
// caller may keep.
type Update struct {
	Transition Transition
	Containers []Container
	Selected   Identity
	Created    []Identity
	Destroyed  []Identity
	// Deprecations is the tracking map after the call.
	Deprecations Deprecations
	// Relabeled is set when a kept container's title, icon or path changed.
	Relabeled bool
	// SingleTab is set when a tabbed outcome left exactly one bound
	// container, which the next directive will read as bootstrap mode.
	SingleTab bool
}

// Changed reports whether the container list or selection may differ from
// before the call.
func (u Update) Changed() bool {
	if u.Relabeled {
		return true
	}
	switch u.Transition {
	case TransitionIdle, TransitionUnchanged, TransitionReorderIgnored, TransitionSelectIgnore:
		return false
	}
	return true
}

// SelectedContainer returns the container the selection resolves to.
func (u Update) SelectedContainer() Container {
	if i := indexOf(u.Containers, u.Selected); i >= 0 {
		return u.Containers[i]
	}
	return Container{}
}

// Engine holds the container list, the selection and deprecation tracking.
type Engine struct {
	gen          IdentityGenerator
	containers   []Container
	selected     Identity
	deprecations Deprecations
	issued       map[Identity]struct{}
}

// New returns an engine holding a single unbound, selected container.
func New(gen IdentityGenerator) *Engine {
	if gen == nil {
		gen = UUIDGenerator()
	}
	e := &Engine{gen: gen, deprecations: make(Deprecations), issued: make(map[Identity]struct{})}
	initial := Container{Identity: e.nextIdentity()}
	e.containers = []Container{initial}
	e.selected = initial.Identity
	return e
}

// maxIdentityAttempts bounds how often a generator may repeat itself before
// the engine falls back to random UUIDs.
const maxIdentityAttempts = 64

func (e *Engine) nextIdentity() Identity {
	for range maxIdentityAttempts {
		id := e.gen.Next()
		if _, used := e.issued[id]; used {
			continue
		}
		e.issued[id] = struct{}{}
		return id
	}
	for {
		id := Identity(uuid.NewString())
		if _, used := e.issued[id]; used {
			continue
		}
		e.issued[id] = struct{}{}
		return id
	}
}

// Mode is bootstrap while there is a single container.
func (e *Engine) Mode() Mode {
	if len(e.containers) == 1 {
		return ModeBootstrap
	}
	return ModeTabbed
}

// Containers returns a copy of the ordered container list.
func (e *Engine) Containers() []Container {
	out := make([]Container, len(e.containers))
	copy(out, e.containers)
	return out
}

// Selected returns the selected identity.
func (e *Engine) Selected() Identity { return e.selected }

// Deprecations returns a copy of the deprecation tracking map.
func (e *Engine) Deprecations() Deprecations { return e.deprecations.Clone() }

// Lookup resolves an identity.
func (e *Engine) Lookup(id Identity) (Container, bool) {
	if i := indexOf(e.containers, id); i >= 0 {
		return e.containers[i], true
	}
	return Container{}, false
}

// Accept applies a directive. Invalid directives are rejected without any
// state change.
func (e *Engine) Accept(d directive.Directive) (Update, error) {
	if err := directive.Validate(d); err != nil {
		return Update{}, err
	}
	switch d := d.(type) {
	case directive.Bootstrap:
		e.deprecations = make(Deprecations)
		if e.Mode() == ModeBootstrap {
			return e.update(TransitionIdle, nil, nil), nil
		}
		return e.demote(TransitionDemote), nil
	case directive.Tabbed:
		res := Filter(d.Tabs, d.Active, e.containers, e.selected)
		if e.Mode() == ModeBootstrap {
			if len(res.Tabs) == 0 {
				e.deprecations = make(Deprecations)
				return e.update(TransitionIdle, nil, nil), nil
			}
			e.deprecations = res.Deprecations
			return e.promote(res), nil
		}
		if len(res.Tabs) == 0 {
			e.deprecations = make(Deprecations)
			return e.demote(TransitionDemoteFiltered), nil
		}
		e.deprecations = res.Deprecations
		r := Reconcile(res.Active, res.Tabs, e.containers, e.selected, IdentityGeneratorFunc(e.nextIdentity))
		e.containers = r.Containers
		e.selected = r.Selected
		u := e.update(r.Transition, r.Created, r.Destroyed)
		u.Relabeled = r.Relabeled
		return u, nil
	default:
		panic(fmt.Sprintf("engine: unknown directive %T", d))
	}
}

// promote binds the sole container to the effective active tab and creates
// containers for every other tab.
func (e *Engine) promote(res FilterResult) Update {
	sole := e.containers[0]
	next := make([]Container, 0, len(res.Tabs))
	var created []Identity
	for _, t := range res.Tabs {
		c := Container{}
		if t.ServedID == res.Active {
			c = sole
		} else {
			c.Identity = e.nextIdentity()
			created = append(created, c.Identity)
		}
		c.adopt(t)
		next = append(next, c)
	}
	e.containers = next
	e.selected = sole.Identity
	return e.update(TransitionPromote, created, nil)
}

// demote keeps only the selected container and unbinds it.
func (e *Engine) demote(t Transition) Update {
	i := indexOf(e.containers, e.selected)
	kept := e.containers[i]
	kept.unbind()
	destroyed := make([]Identity, 0, len(e.containers)-1)
	for _, c := range e.containers {
		if c.Identity != kept.Identity {
			destroyed = append(destroyed, c.Identity)
		}
	}
	e.containers = []Container{kept}
	return e.update(t, nil, destroyed)
}

func (e *Engine) update(t Transition, created, destroyed []Identity) Update {
	u := Update{
		Transition:   t,
		Containers:   e.Containers(),
		Selected:     e.selected,
		Created:      created,
		Destroyed:    destroyed,
		Deprecations: e.deprecations.Clone(),
	}
	u.SingleTab = len(e.containers) == 1 && e.containers[0].Bound()
	return u
}
