package engine

import "github.com/jask/tabsync/internal/directive"

// FilterResult is the outcome of the deprecation pre-pass.
type FilterResult struct {
	Tabs         []directive.TabDescriptor
	Active       string
	Deprecations Deprecations
}

// Filter decides which deprecated tabs stay visible and which replacement
// tabs are shown, and rebuilds the deprecation map from scratch.
//
// A deprecated tab is never introduced: it stays only if a container shows
// it already, and a hard one only while that container is selected. A
// replacement stays hidden for as long as the tab it replaces is kept.
func Filter(tabs []directive.TabDescriptor, activeHint string, containers []Container, selected Identity) FilterResult {
	visible := make(map[string]struct{}, len(containers))
	for _, c := range containers {
		if c.Bound() {
			visible[c.ServedID] = struct{}{}
		}
	}
	selectedServed := ""
	if i := indexOf(containers, selected); i >= 0 {
		selectedServed = containers[i].ServedID
	}

	kept := make(map[string]bool)
	replacements := make(map[string]directive.TabDescriptor)
	for _, t := range tabs {
		if t.Replaces != "" {
			if _, dup := replacements[t.Replaces]; !dup {
				replacements[t.Replaces] = t
			}
		}
		if !t.IsDeprecated() {
			continue
		}
		if _, ok := visible[t.ServedID]; !ok {
			continue
		}
		switch t.Deprecated {
		case directive.Soft:
			kept[t.ServedID] = true
		case directive.Hard:
			kept[t.ServedID] = t.ServedID == selectedServed
		}
	}

	res := FilterResult{Deprecations: make(Deprecations)}
	for _, t := range tabs {
		switch {
		case t.IsDeprecated():
			if !kept[t.ServedID] {
				continue
			}
			entry := DeprecationEntry{Level: t.Deprecated}
			if r, ok := replacements[t.ServedID]; ok {
				entry.Replacement = &r
			}
			res.Deprecations[t.ServedID] = entry
			res.Tabs = append(res.Tabs, t)
		case t.Replaces != "" && kept[t.Replaces]:
			// hidden while the original is still shown
		default:
			res.Tabs = append(res.Tabs, t)
		}
	}

	res.Active = activeHint
	if !containsServed(res.Tabs, activeHint) && len(res.Tabs) > 0 {
		res.Active = res.Tabs[0].ServedID
	}
	return res
}

func containsServed(tabs []directive.TabDescriptor, servedID string) bool {
	for _, t := range tabs {
		if t.ServedID == servedID {
			return true
		}
	}
	return false
}
