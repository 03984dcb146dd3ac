// Command trellis-tui is a terminal inspector for graph documents: a vertex
// browser with an adjacency pane, an interactive shortest-route runner, and
// a stats view. It consumes only the public engine API.
package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/trellis/pkg/graph"
	"github.com/dd0wney/trellis/pkg/graphdoc"
	"github.com/dd0wney/trellis/pkg/route"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5FD7AF")).
			MarginLeft(2).
			MarginTop(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#87D7FF")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#87D7FF")).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#5F87AF")).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666")).
				Padding(0, 2)

	contentStyle = lipgloss.NewStyle().
			MarginLeft(2).
			MarginTop(1)

	paneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5FD7AF")).
			Padding(1, 2).
			MarginRight(2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5FD75F")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)
)

type view int

const (
	inspectorView view = iota
	routeView
	statsView

	viewCount = 3
)

type keyMap struct {
	Tab      key.Binding
	ShiftTab key.Binding
	Enter    key.Binding
	Quit     key.Binding
	Up       key.Binding
	Down     key.Binding
}

var keys = keyMap{
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next view"),
	),
	ShiftTab: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "prev view"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "run route"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Enter, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ShiftTab, k.Enter},
		{k.Up, k.Down},
		{k.Quit},
	}
}

type model struct {
	g       *graph.Graph[string, string]
	docName string

	currentView view
	vertexTable table.Model
	routeInput  textinput.Model
	help        help.Model
	keys        keyMap

	width      int
	height     int
	message    string
	messageErr bool
	lastRoute  string
}

func initialModel(g *graph.Graph[string, string], docName string) model {
	ti := textinput.New()
	ti.Placeholder = "A E"
	ti.CharLimit = 120
	ti.Width = 40

	var columns []table.Column
	if g.Directed() {
		columns = []table.Column{
			{Title: "Element", Width: 24},
			{Title: "In", Width: 6},
			{Title: "Out", Width: 6},
		}
	} else {
		columns = []table.Column{
			{Title: "Element", Width: 24},
			{Title: "Edges", Width: 8},
		}
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(vertexRows(g)),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#87D7FF")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#5F87AF")).
		Bold(false)
	t.SetStyles(s)

	return model{
		g:           g,
		docName:     docName,
		currentView: inspectorView,
		vertexTable: t,
		routeInput:  ti,
		help:        help.New(),
		keys:        keys,
	}
}

func vertexRows(g *graph.Graph[string, string]) []table.Row {
	rows := make([]table.Row, 0, g.NumVertices())
	for _, v := range g.Vertices() {
		label := g.VertexLabel(v)
		in, _ := g.IncidentEdges(v)
		if g.Directed() {
			out, _ := g.OutboundEdges(v)
			rows = append(rows, table.Row{label, fmt.Sprintf("%d", len(in)), fmt.Sprintf("%d", len(out))})
		} else {
			rows = append(rows, table.Row{label, fmt.Sprintf("%d", len(in))})
		}
	}
	return rows
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			if m.currentView == routeView && m.routeInput.Focused() && msg.String() == "q" {
				break // let the input take the letter
			}
			return m, tea.Quit

		case key.Matches(msg, m.keys.Tab):
			m.currentView = (m.currentView + 1) % viewCount
			m.syncFocus()

		case key.Matches(msg, m.keys.ShiftTab):
			if m.currentView == 0 {
				m.currentView = viewCount - 1
			} else {
				m.currentView--
			}
			m.syncFocus()

		case key.Matches(msg, m.keys.Enter):
			if m.currentView == routeView && m.routeInput.Focused() {
				m.runRoute()
			}
		}
	}

	switch m.currentView {
	case inspectorView:
		m.vertexTable, cmd = m.vertexTable.Update(msg)
		cmds = append(cmds, cmd)
	case routeView:
		m.routeInput, cmd = m.routeInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *model) syncFocus() {
	if m.currentView == routeView {
		m.routeInput.Focus()
	} else {
		m.routeInput.Blur()
	}
}

func (m *model) runRoute() {
	from, to, ok := parseRouteQuery(m.routeInput.Value())
	if !ok {
		m.message = "Enter a source and a destination, e.g. \"A E\""
		m.messageErr = true
		return
	}

	src, found := m.g.VertexOf(from)
	if !found {
		m.message = fmt.Sprintf("Unknown vertex %q", from)
		m.messageErr = true
		return
	}
	dst, found := m.g.VertexOf(to)
	if !found {
		m.message = fmt.Sprintf("Unknown vertex %q", to)
		m.messageErr = true
		return
	}

	path, err := route.Shortest(m.g, src, dst)
	if err != nil {
		m.message = fmt.Sprintf("Search failed: %v", err)
		m.messageErr = true
		return
	}
	if path == nil {
		m.message = fmt.Sprintf("No route from %s to %s", from, to)
		m.messageErr = true
		m.lastRoute = ""
		return
	}

	m.lastRoute = fmt.Sprintf("%s\nDistance: %.2f over %d hops",
		routeString(m.g, path), path.Distance(), path.Len())
	m.message = fmt.Sprintf("Route found: %s → %s", from, to)
	m.messageErr = false
}

// parseRouteQuery splits "A E", "A -> E", or "A→E" into endpoints.
func parseRouteQuery(s string) (string, string, bool) {
	s = strings.ReplaceAll(s, "->", " ")
	s = strings.ReplaceAll(s, "→", " ")
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return "", "", false
	}
	return fields[0], fields[1], true
}

func routeString(g *graph.Graph[string, string], p *graph.Path[string, string]) string {
	verts := p.Vertices()
	edges := p.Edges()

	var b strings.Builder
	for i, v := range verts {
		b.WriteString(g.VertexLabel(v))
		if i < len(edges) {
			fmt.Fprintf(&b, " -[%s %.1f]-> ", g.EdgeLabel(edges[i]), edges[i].Weight())
		}
	}
	return b.String()
}

func (m model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render("🕸  Trellis Inspector — " + m.docName))
	s.WriteString("\n\n")
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	switch m.currentView {
	case inspectorView:
		s.WriteString(m.renderInspector())
	case routeView:
		s.WriteString(m.renderRoute())
	case statsView:
		s.WriteString(m.renderStats())
	}

	if m.message != "" {
		s.WriteString("\n\n")
		if m.messageErr {
			s.WriteString(errorStyle.Render("✗ " + m.message))
		} else {
			s.WriteString(successStyle.Render("✓ " + m.message))
		}
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))

	return s.String()
}

func (m model) renderTabs() string {
	tabs := []string{"Vertices", "Route", "Stats"}
	rendered := make([]string, 0, len(tabs))

	for i, tab := range tabs {
		if view(i) == m.currentView {
			rendered = append(rendered, activeTabStyle.Render(tab))
		} else {
			rendered = append(rendered, inactiveTabStyle.Render(tab))
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m model) renderInspector() string {
	tablePane := paneStyle.Render(m.vertexTable.View())

	adjacency := "Select a vertex to inspect its edges"
	if row := m.vertexTable.SelectedRow(); row != nil {
		adjacency = m.adjacencyFor(row[0])
	}
	adjacencyPane := paneStyle.Render(adjacency)

	return contentStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Top, tablePane, adjacencyPane),
	)
}

// adjacencyFor renders the edges at one vertex: outbound then incoming for
// directed graphs, every touching edge once for undirected ones.
func (m model) adjacencyFor(label string) string {
	v, ok := m.g.VertexOf(label)
	if !ok {
		return fmt.Sprintf("Vertex %q is gone", label)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Edges at %s\n", label)
	b.WriteString("━━━━━━━━━━━━━━━━━━━━\n")

	count := 0
	if m.g.Directed() {
		out, _ := m.g.OutboundEdges(v)
		for _, e := range out {
			opposite, _, _ := m.g.Opposite(v, e)
			fmt.Fprintf(&b, "%-12s %5.1f  → %s\n", m.g.EdgeLabel(e), e.Weight(), m.g.VertexLabel(opposite))
			count++
		}
		in, _ := m.g.IncidentEdges(v)
		for _, e := range in {
			opposite, _, _ := m.g.Opposite(v, e)
			fmt.Fprintf(&b, "%-12s %5.1f  ← %s\n", m.g.EdgeLabel(e), e.Weight(), m.g.VertexLabel(opposite))
			count++
		}
	} else {
		edges, _ := m.g.OutboundEdges(v)
		for _, e := range edges {
			opposite, _, _ := m.g.Opposite(v, e)
			fmt.Fprintf(&b, "%-12s %5.1f  – %s\n", m.g.EdgeLabel(e), e.Weight(), m.g.VertexLabel(opposite))
			count++
		}
	}

	if count == 0 {
		b.WriteString("(isolated vertex)\n")
	}
	return b.String()
}

func (m model) renderRoute() string {
	var s strings.Builder

	s.WriteString(headerStyle.Render("Shortest Route"))
	s.WriteString("\n\n")
	s.WriteString("Source and destination elements:\n\n")
	s.WriteString(m.routeInput.View())
	s.WriteString("\n\n")

	if m.lastRoute != "" {
		s.WriteString(paneStyle.Render(m.lastRoute))
		s.WriteString("\n")
	}

	s.WriteString(helpStyle.Render("Examples: \"A E\"  \"A -> E\""))

	return contentStyle.Render(s.String())
}

func (m model) renderStats() string {
	mode := "undirected"
	if m.g.Directed() {
		mode = "directed"
	}

	stats := fmt.Sprintf(`📊 Document
━━━━━━━━━━━━━━━━━━━━
Name:      %s
Mode:      %s
Vertices:  %d
Edges:     %d`,
		m.docName,
		mode,
		m.g.NumVertices(),
		m.g.NumEdges(),
	)

	usage := `⌨  Keys
━━━━━━━━━━━━━━━━━━━━
[Tab]    Next view
[↑/↓]    Browse vertices
[Enter]  Run route
[q]      Quit`

	return contentStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Top, paneStyle.Render(stats), paneStyle.Render(usage)),
	)
}

// loadGraph builds the inspected graph from the document named on the
// command line, or a small built-in transit network without one.
func loadGraph() (*graph.Graph[string, string], string, error) {
	if len(os.Args) > 1 {
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			return nil, "", err
		}
		doc, err := graphdoc.DecodeYAML(data)
		if err != nil {
			return nil, "", err
		}
		g, err := doc.Build()
		if err != nil {
			return nil, "", err
		}
		return g, doc.Name, nil
	}

	g := graph.New[string, string]()
	for _, station := range []string{"A", "B", "C", "D", "E"} {
		if _, err := g.InsertVertex(station); err != nil {
			return nil, "", err
		}
	}
	lines := []struct {
		element  string
		from, to string
		weight   float64
	}{
		{"ab", "A", "B", 1.0},
		{"ac", "A", "C", 0.9},
		{"bd", "B", "D", 1.0},
		{"cd", "C", "D", 1.0},
		{"de", "D", "E", 1.0},
	}
	for _, line := range lines {
		if _, err := g.InsertEdgeBetween(line.from, line.to, line.element,
			graph.WithWeight(line.weight)); err != nil {
			return nil, "", err
		}
	}
	return g, "transit (built-in)", nil
}

func main() {
	g, docName, err := loadGraph()
	if err != nil {
		log.Fatalf("Failed to load graph: %v", err)
	}

	p := tea.NewProgram(initialModel(g, docName), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}
}
