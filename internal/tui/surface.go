package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"

	"github.com/jask/tabsync/internal/engine"
)

const maxHistory = 50

// surface is the backing content of one container. It lives exactly as
// long as the container's identity, so scroll position and history
// survive retitling, reordering and morphing.
type surface struct {
	identity engine.Identity
	vp       viewport.Model
	history  []string
}

func newSurface(id engine.Identity, width, height int) *surface {
	return &surface{identity: id, vp: viewport.New(width, height)}
}

// visit records path if it differs from the current one.
func (s *surface) visit(path string) bool {
	if path == "" || s.current() == path {
		return false
	}
	s.history = append(s.history, path)
	if len(s.history) > maxHistory {
		s.history = s.history[len(s.history)-maxHistory:]
	}
	return true
}

func (s *surface) current() string {
	if len(s.history) == 0 {
		return ""
	}
	return s.history[len(s.history)-1]
}

func (s *surface) resize(width, height int) {
	s.vp.Width = width
	s.vp.Height = height
}

func (s *surface) refresh(c engine.Container) {
	var b strings.Builder
	row := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render(label), valueStyle.Render(value))
	}
	if c.Bound() {
		row("tab     ", c.ServedID)
		row("title   ", c.Title)
	} else {
		row("tab     ", "(unbound)")
	}
	if c.Icon != "" {
		row("icon    ", c.Icon)
	}
	row("identity", string(s.identity))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("history"))
	b.WriteString("\n")
	for i := len(s.history) - 1; i >= 0; i-- {
		marker := "  "
		if i == len(s.history)-1 {
			marker = "> "
		}
		b.WriteString(marker + s.history[i] + "\n")
	}
	s.vp.SetContent(b.String())
}
