package tui

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jask/tabsync/internal/directive"
	"github.com/jask/tabsync/internal/engine"
	"github.com/jask/tabsync/internal/service"
)

const (
	appName       = "tabsync"
	maxTitleWidth = 18
	chromeHeight  = 4
)

// UpdateMsg carries one applied engine update into the program.
type UpdateMsg struct {
	engine.Update
}

// Model renders the container list. It never changes engine state:
// selections go back to the coordinator, and the resulting update arrives
// as an UpdateMsg.
type Model struct {
	ctx        context.Context
	selections chan<- service.SelectRequest
	keys       keyMap

	showDeprecated bool

	containers   []engine.Container
	selected     engine.Identity
	deprecations engine.Deprecations
	surfaces     map[engine.Identity]*surface

	jumping bool
	jump    textinput.Model

	width  int
	height int
}

// Options configures a Model.
type Options struct {
	ShowDeprecated bool
}

func New(ctx context.Context, selections chan<- service.SelectRequest, opts Options) *Model {
	ti := textinput.New()
	ti.Prompt = "jump: "
	ti.PromptStyle = promptStyle
	ti.Placeholder = "tab title"
	ti.CharLimit = 64
	return &Model{
		ctx:            ctx,
		selections:     selections,
		keys:           defaultKeys(),
		showDeprecated: opts.ShowDeprecated,
		surfaces:       make(map[engine.Identity]*surface),
		jump:           ti,
	}
}

// Renderer returns a service.Renderer that forwards updates to p.
func Renderer(p *tea.Program) service.Renderer {
	return service.RendererFunc(func(u engine.Update) { p.Send(UpdateMsg{u}) })
}

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case UpdateMsg:
		m.apply(msg.Update)
		return m, nil
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		for _, s := range m.surfaces {
			s.resize(m.bodyWidth(), m.bodyHeight())
		}
		return m, nil
	case tea.KeyMsg:
		if m.jumping {
			return m.updateJump(msg)
		}
		return m.updateKey(msg)
	}
	return m, nil
}

func (m *Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	idx := m.selectedIndex()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Prev):
		if idx > 0 {
			return m, m.selectAt(idx - 1)
		}
		return m, nil
	case key.Matches(msg, m.keys.Next):
		if idx >= 0 && idx < len(m.containers)-1 {
			return m, m.selectAt(idx + 1)
		}
		return m, nil
	case key.Matches(msg, m.keys.Nth):
		n, _ := strconv.Atoi(msg.String())
		return m, m.selectAt(n - 1)
	case key.Matches(msg, m.keys.Jump):
		if len(m.containers) < 2 {
			return m, nil
		}
		m.jumping = true
		m.jump.SetValue("")
		return m, m.jump.Focus()
	}
	if s := m.surfaces[m.selected]; s != nil {
		var cmd tea.Cmd
		s.vp, cmd = s.vp.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) updateJump(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.closeJump()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		target := closestTab(m.containers, m.jump.Value())
		m.closeJump()
		return m, m.selectAt(target)
	}
	var cmd tea.Cmd
	m.jump, cmd = m.jump.Update(msg)
	return m, cmd
}

func (m *Model) closeJump() {
	m.jumping = false
	m.jump.Blur()
	m.jump.SetValue("")
}

// selectAt asks the coordinator to select the i-th container.
func (m *Model) selectAt(i int) tea.Cmd {
	if i < 0 || i >= len(m.containers) || m.selections == nil {
		return nil
	}
	c := m.containers[i]
	if c.Identity == m.selected {
		return nil
	}
	req := service.SelectRequest{ServedID: c.ServedID, Identity: c.Identity}
	ctx, out := m.ctx, m.selections
	return func() tea.Msg {
		select {
		case out <- req:
		case <-ctx.Done():
		}
		return nil
	}
}

// apply mirrors an engine update: backing content is allocated for created
// identities, released for destroyed ones, and kept for everything else.
func (m *Model) apply(u engine.Update) {
	for _, id := range u.Destroyed {
		delete(m.surfaces, id)
	}
	for _, id := range u.Created {
		if _, ok := m.surfaces[id]; !ok {
			m.surfaces[id] = newSurface(id, m.bodyWidth(), m.bodyHeight())
		}
	}
	for _, c := range u.Containers {
		s, ok := m.surfaces[c.Identity]
		if !ok {
			s = newSurface(c.Identity, m.bodyWidth(), m.bodyHeight())
			m.surfaces[c.Identity] = s
		}
		s.visit(c.Path)
		s.refresh(c)
	}
	m.containers = u.Containers
	m.selected = u.Selected
	m.deprecations = u.Deprecations
}

func (m *Model) selectedIndex() int {
	for i, c := range m.containers {
		if c.Identity == m.selected {
			return i
		}
	}
	return -1
}

func (m *Model) bodyWidth() int {
	if m.width <= 4 {
		return 0
	}
	return m.width - 4
}

func (m *Model) bodyHeight() int {
	if m.height <= chromeHeight+2 {
		return 1
	}
	return m.height - chromeHeight - 2
}

func (m *Model) View() string {
	if len(m.containers) == 0 {
		return "waiting for state…"
	}
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	if s := m.surfaces[m.selected]; s != nil {
		b.WriteString(bodyStyle.Width(m.bodyWidth()).Render(s.vp.View()))
	}
	b.WriteString("\n")
	if m.jumping {
		b.WriteString(m.jump.View())
	} else {
		b.WriteString(m.renderFooter())
	}
	return b.String()
}

func (m *Model) renderHeader() string {
	name := headerAppStyle.Render(appName)
	var content string
	if len(m.containers) == 1 {
		c := m.containers[0]
		label := c.Title
		if label == "" {
			label = c.Path
		}
		content = name + tabSepStyle.Render("  ") + inactiveTabStyle.Render(ansi.Truncate(label, maxTitleWidth*2, "…"))
	} else {
		tabs := make([]string, 0, len(m.containers))
		for i, c := range m.containers {
			tabs = append(tabs, m.renderTab(i, c))
		}
		content = name + tabSepStyle.Render("  ") + strings.Join(tabs, tabSepStyle.Render("│"))
	}
	if m.width <= 0 {
		return headerBarStyle.Render(content)
	}
	return headerBarStyle.Width(m.width).Render(ansi.Truncate(content, m.width-2, "…"))
}

func (m *Model) renderTab(i int, c engine.Container) string {
	title := c.Title
	if title == "" {
		title = c.ServedID
	}
	label := ansi.Truncate(title, maxTitleWidth, "…")
	if i < 9 {
		label = strconv.Itoa(i+1) + " " + label
	}
	if m.showDeprecated {
		switch m.deprecations[c.ServedID].Level {
		case directive.Soft:
			label += softMarkStyle.Render(" ~")
		case directive.Hard:
			label += hardMarkStyle.Render(" !")
		}
	}
	if c.Identity == m.selected {
		return activeTabStyle.Render(label)
	}
	return inactiveTabStyle.Render(label)
}

func (m *Model) renderFooter() string {
	parts := make([]string, 0, len(m.keys.footer()))
	for _, binding := range m.keys.footer() {
		help := binding.Help()
		parts = append(parts, help.Key+" "+help.Desc)
	}
	content := strings.Join(parts, "  ")
	if m.width <= 0 {
		return footerStyle.Render(content)
	}
	return footerStyle.Width(m.width).Render(lipgloss.NewStyle().MaxWidth(m.width - 2).Render(content))
}
