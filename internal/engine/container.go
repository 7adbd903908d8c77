package engine

import "github.com/jask/tabsync/internal/directive"

// Container is a client-side tab. Identity never changes; everything else
// follows whatever descriptor the container currently represents.
type Container struct {
	Identity Identity
	ServedID string
	Title    string
	Icon     string
	Path     string
}

// Bound reports whether the container represents a served tab.
func (c Container) Bound() bool { return c.ServedID != "" }

func (c *Container) adopt(d directive.TabDescriptor) {
	c.ServedID = d.ServedID
	c.Title = d.Title
	c.Icon = d.Icon
	c.Path = d.Path
}

// unbind turns the container into the bootstrap container. The path is kept
// so the backing content can stay where it is.
func (c *Container) unbind() {
	c.ServedID = ""
	c.Title = ""
	c.Icon = ""
}

// DeprecationEntry tracks a deprecated tab that is still visible.
type DeprecationEntry struct {
	Level       directive.Deprecation
	Replacement *directive.TabDescriptor
}

// Deprecations is keyed by the served id of the deprecated tab.
type Deprecations map[string]DeprecationEntry

// Clone returns a deep copy.
func (d Deprecations) Clone() Deprecations {
	out := make(Deprecations, len(d))
	for id, entry := range d {
		if entry.Replacement != nil {
			r := *entry.Replacement
			entry.Replacement = &r
		}
		out[id] = entry
	}
	return out
}

func indexOf(containers []Container, id Identity) int {
	for i, c := range containers {
		if c.Identity == id {
			return i
		}
	}
	return -1
}

func indexOfServed(containers []Container, servedID string) int {
	for i, c := range containers {
		if c.ServedID == servedID {
			return i
		}
	}
	return -1
}

func identities(containers []Container) []Identity {
	out := make([]Identity, 0, len(containers))
	for _, c := range containers {
		out = append(out, c.Identity)
	}
	return out
}

// diffIdentities returns the identities of a missing from b, in a's order.
func diffIdentities(a, b []Container) []Identity {
	keep := make(map[Identity]struct{}, len(b))
	for _, c := range b {
		keep[c.Identity] = struct{}{}
	}
	var out []Identity
	for _, c := range a {
		if _, ok := keep[c.Identity]; !ok {
			out = append(out, c.Identity)
		}
	}
	return out
}
