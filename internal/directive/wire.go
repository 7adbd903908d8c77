package directive

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrMalformed              = errors.New("directive: malformed message")
	ErrMissingActive          = errors.New("directive: tabbed message without active tab")
	ErrEmptyID                = errors.New("directive: tab without id")
	ErrDuplicateTab           = errors.New("directive: duplicate tab id")
	ErrUnknownDeprecation     = errors.New("directive: unknown deprecation level")
	ErrConflictingReplacement = errors.New("directive: several tabs replace the same id")
)

type wireMessage struct {
	Active *string    `json:"active"`
	Tabs   *[]wireTab `json:"tabs"`
}

type wireTab struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Icon       string `json:"icon"`
	Path       string `json:"path"`
	Deprecated string `json:"deprecated,omitempty"`
	Replaces   string `json:"replaces,omitempty"`
}

// Decode parses one wire message. Unknown fields are ignored, but the tabs
// list itself must be present: only an explicit empty list is a bootstrap
// message.
func Decode(data []byte) (Directive, error) {
	var msg wireMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if msg.Tabs == nil {
		return nil, fmt.Errorf("%w: missing tabs list", ErrMalformed)
	}
	if len(*msg.Tabs) == 0 {
		return Bootstrap{}, nil
	}
	if msg.Active == nil {
		return nil, ErrMissingActive
	}
	tabs := make([]TabDescriptor, 0, len(*msg.Tabs))
	for _, wt := range *msg.Tabs {
		tabs = append(tabs, TabDescriptor{
			ServedID:   wt.ID,
			Title:      wt.Title,
			Icon:       wt.Icon,
			Path:       wt.Path,
			Deprecated: Deprecation(wt.Deprecated),
			Replaces:   wt.Replaces,
		})
	}
	d := Tabbed{Active: *msg.Active, Tabs: tabs}
	if err := Validate(d); err != nil {
		return nil, err
	}
	return d, nil
}

// Validate checks the per-message rules the engine relies on.
func Validate(d Directive) error {
	t, ok := d.(Tabbed)
	if !ok {
		return nil
	}
	seen := make(map[string]struct{}, len(t.Tabs))
	replaced := make(map[string]string, len(t.Tabs))
	for _, tab := range t.Tabs {
		if tab.ServedID == "" {
			return ErrEmptyID
		}
		if _, dup := seen[tab.ServedID]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateTab, tab.ServedID)
		}
		seen[tab.ServedID] = struct{}{}
		if !tab.Deprecated.Valid() {
			return fmt.Errorf("%w: %q on %q", ErrUnknownDeprecation, tab.Deprecated, tab.ServedID)
		}
		if tab.Replaces == "" {
			continue
		}
		if other, dup := replaced[tab.Replaces]; dup {
			return fmt.Errorf("%w: %q and %q both replace %q", ErrConflictingReplacement, other, tab.ServedID, tab.Replaces)
		}
		replaced[tab.Replaces] = tab.ServedID
	}
	return nil
}

// Encode renders d in wire form.
func Encode(d Directive) ([]byte, error) {
	switch d := d.(type) {
	case Bootstrap:
		return json.Marshal(wireMessage{Tabs: &[]wireTab{}})
	case Tabbed:
		active := d.Active
		tabs := make([]wireTab, 0, len(d.Tabs))
		for _, t := range d.Tabs {
			tabs = append(tabs, wireTab{
				ID:         t.ServedID,
				Title:      t.Title,
				Icon:       t.Icon,
				Path:       t.Path,
				Deprecated: string(t.Deprecated),
				Replaces:   t.Replaces,
			})
		}
		return json.Marshal(wireMessage{Active: &active, Tabs: &tabs})
	default:
		panic(fmt.Sprintf("directive: unknown directive %T", d))
	}
}
