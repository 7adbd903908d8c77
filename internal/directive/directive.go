// Package directive models the messages the remote authority sends to
// describe which tabs the client should show.
package directive

// Deprecation marks a tab the authority is phasing out.
type Deprecation string

const (
	// NotDeprecated is the zero value: an ordinary tab.
	NotDeprecated Deprecation = ""
	// Soft tabs stay visible for as long as they are currently visible.
	Soft Deprecation = "soft"
	// Hard tabs stay visible only while the user is looking at them.
	Hard Deprecation = "hard"
)

// Valid reports whether d is one of the known levels.
func (d Deprecation) Valid() bool {
	switch d {
	case NotDeprecated, Soft, Hard:
		return true
	}
	return false
}

// TabDescriptor is one tab as supplied by the authority.
type TabDescriptor struct {
	ServedID   string
	Title      string
	Icon       string
	Path       string
	Deprecated Deprecation
	Replaces   string
}

// IsDeprecated reports whether the descriptor carries a deprecation level.
func (t TabDescriptor) IsDeprecated() bool { return t.Deprecated != NotDeprecated }

// Directive is either Bootstrap or Tabbed.
type Directive interface {
	isDirective()
	Kind() string
}

// Bootstrap asks the client to show no tabs.
type Bootstrap struct{}

// Tabbed asks the client to show Tabs, hinting that Active should be in front.
type Tabbed struct {
	Active string
	Tabs   []TabDescriptor
}

func (Bootstrap) isDirective() {}
func (Tabbed) isDirective()    {}

func (Bootstrap) Kind() string { return "bootstrap" }
func (Tabbed) Kind() string    { return "tabbed" }

// Find returns the descriptor with the given served id.
func (t Tabbed) Find(servedID string) (TabDescriptor, bool) {
	for _, d := range t.Tabs {
		if d.ServedID == servedID {
			return d, true
		}
	}
	return TabDescriptor{}, false
}

// ServedIDs lists the descriptor ids in order.
func (t Tabbed) ServedIDs() []string {
	out := make([]string, 0, len(t.Tabs))
	for _, d := range t.Tabs {
		out = append(out, d.ServedID)
	}
	return out
}
