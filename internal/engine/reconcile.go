package engine

import "github.com/jask/tabsync/internal/directive"

// Reconciliation is the outcome of reconciling a filtered tab list against
// the current containers.
type Reconciliation struct {
	Transition Transition
	Containers []Container
	Selected   Identity
	Created    []Identity
	Destroyed  []Identity
	Relabeled  bool
}

// Reconcile computes the container list for tabs. The selected identity is
// always preserved: if the tab it shows is gone, the selected container is
// morphed into the tab named by active. Order changes are only adopted
// together with a membership change.
//
// tabs must be non-empty and active should name one of them.
func Reconcile(active string, tabs []directive.TabDescriptor, containers []Container, selected Identity, gen IdentityGenerator) Reconciliation {
	byServed := make(map[string]int, len(containers))
	for i, c := range containers {
		byServed[c.ServedID] = i
	}
	wanted := make(map[string]struct{}, len(tabs))
	added, removed := 0, 0
	for _, t := range tabs {
		wanted[t.ServedID] = struct{}{}
		if _, ok := byServed[t.ServedID]; !ok {
			added++
		}
	}
	for _, c := range containers {
		if _, ok := wanted[c.ServedID]; !ok {
			removed++
		}
	}

	if added == 0 && removed == 0 {
		return relabel(tabs, containers, selected)
	}

	sel := indexOf(containers, selected)
	selectedServed := ""
	if sel >= 0 {
		selectedServed = containers[sel].ServedID
	}

	out := Reconciliation{Selected: selected, Containers: make([]Container, 0, len(tabs))}
	morphTarget := ""
	if _, ok := wanted[selectedServed]; ok && sel >= 0 {
		switch {
		case added > 0 && removed > 0:
			out.Transition = TransitionReshape
		case added > 0:
			out.Transition = TransitionGrow
		default:
			out.Transition = TransitionShrink
		}
	} else {
		morphTarget = active
		if !containsServed(tabs, morphTarget) {
			morphTarget = tabs[0].ServedID
		}
		out.Transition = TransitionMorphNew
		if _, ok := byServed[morphTarget]; ok {
			out.Transition = TransitionMorphExisting
		}
	}

	for _, t := range tabs {
		var c Container
		switch i, ok := byServed[t.ServedID]; {
		case morphTarget != "" && t.ServedID == morphTarget && sel >= 0:
			c = containers[sel]
		case ok && (morphTarget == "" || i != sel):
			c = containers[i]
		default:
			c = Container{Identity: gen.Next()}
			out.Created = append(out.Created, c.Identity)
		}
		c.adopt(t)
		out.Containers = append(out.Containers, c)
	}
	out.Destroyed = diffIdentities(containers, out.Containers)
	return out
}

// relabel keeps the current order and membership but refreshes titles,
// icons and paths.
func relabel(tabs []directive.TabDescriptor, containers []Container, selected Identity) Reconciliation {
	out := Reconciliation{
		Transition: TransitionUnchanged,
		Selected:   selected,
		Containers: make([]Container, len(containers)),
	}
	copy(out.Containers, containers)
	for i, t := range tabs {
		if i >= len(containers) || containers[i].ServedID != t.ServedID {
			out.Transition = TransitionReorderIgnored
		}
		j := indexOfServed(out.Containers, t.ServedID)
		if j < 0 {
			continue
		}
		before := out.Containers[j]
		out.Containers[j].adopt(t)
		if out.Containers[j] != before {
			out.Relabeled = true
		}
	}
	return out
}
