// Package tui renders the aggregated datasets as side-by-side panels.
// It is a thin collaborator: all fetching, caching, and classification
// live in the pipeline; the TUI only displays results and provenance.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pulseboard/internal/browser"
	"pulseboard/internal/cache"
	"pulseboard/internal/pipeline"
)

const fetchTimeout = 60 * time.Second

type panel struct {
	key     string
	result  cache.AggregationResult
	loading bool
	cursor  int
}

type App struct {
	pl           *pipeline.Pipeline
	panels       []panel
	active       int
	refreshEvery time.Duration

	width  int
	height int

	spinner spinner.Model
	err     error
}

// NewApp builds the dashboard model. refreshEvery <= 0 disables
// auto-refresh; records are still reloaded with the r key.
func NewApp(pl *pipeline.Pipeline, refreshEvery time.Duration) *App {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	var panels []panel
	for _, key := range pl.Keys() {
		panels = append(panels, panel{key: key, loading: true})
	}

	return &App{pl: pl, panels: panels, spinner: sp, refreshEvery: refreshEvery}
}

func Run(pl *pipeline.Pipeline, refreshEvery time.Duration) error {
	p := tea.NewProgram(NewApp(pl, refreshEvery), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.spinner.Tick}
	for _, p := range a.panels {
		cmds = append(cmds, a.loadCmd(p.key))
	}
	if a.refreshEvery > 0 {
		cmds = append(cmds, a.refreshTick())
	}
	return tea.Batch(cmds...)
}

func (a *App) refreshTick() tea.Cmd {
	return tea.Tick(a.refreshEvery, func(time.Time) tea.Msg {
		return refreshTickMsg{}
	})
}

func (a *App) loadCmd(key string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		res, err := a.pl.Fetch(ctx, key)
		if err != nil {
			return datasetErrMsg{key: key, err: err}
		}
		return datasetLoadedMsg{key: key, result: res}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case datasetLoadedMsg:
		for i := range a.panels {
			if a.panels[i].key == msg.key {
				a.panels[i].result = msg.result
				a.panels[i].loading = false
				if a.panels[i].cursor >= len(msg.result.Records) {
					a.panels[i].cursor = 0
				}
			}
		}
		return a, nil

	case datasetErrMsg:
		a.err = msg.err
		for i := range a.panels {
			if a.panels[i].key == msg.key {
				a.panels[i].loading = false
			}
		}
		return a, nil

	case refreshTickMsg:
		cmds := []tea.Cmd{a.refreshTick()}
		for i := range a.panels {
			a.panels[i].loading = true
			cmds = append(cmds, a.loadCmd(a.panels[i].key))
		}
		return a, tea.Batch(cmds...)

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	}
	if len(a.panels) == 0 {
		return a, nil
	}
	switch msg.String() {

	case "tab", "l", "right":
		a.active = (a.active + 1) % len(a.panels)

	case "shift+tab", "h", "left":
		a.active = (a.active - 1 + len(a.panels)) % len(a.panels)

	case "j", "down":
		p := &a.panels[a.active]
		if p.cursor < len(p.result.Records)-1 {
			p.cursor++
		}

	case "k", "up":
		p := &a.panels[a.active]
		if p.cursor > 0 {
			p.cursor--
		}

	case "r":
		var cmds []tea.Cmd
		for i := range a.panels {
			a.panels[i].loading = true
			cmds = append(cmds, a.loadCmd(a.panels[i].key))
		}
		return a, tea.Batch(cmds...)

	case "o":
		p := a.panels[a.active]
		if p.cursor < len(p.result.Records) {
			if u := p.result.Records[p.cursor].URL; u != "" {
				browser.Open(u)
			}
		}
	}
	return a, nil
}

func (a *App) View() string {
	if len(a.panels) == 0 {
		return "no datasets configured\n"
	}
	if a.width == 0 {
		return "loading..."
	}

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		headerStyle.Render("pulseboard"),
		headerDateStyle.Render("  "+time.Now().Format("Mon Jan 2 15:04")),
	)

	panelWidth := a.width/len(a.panels) - 2
	panelHeight := a.height - 4

	var rendered []string
	for i, p := range a.panels {
		rendered = append(rendered, a.renderPanel(p, i == a.active, panelWidth, panelHeight))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, rendered...)

	help := helpStyle.Render("tab: switch panel • j/k: move • o: open • r: refresh • q: quit")

	return lipgloss.JoinVertical(lipgloss.Left, header, body, help)
}

func (a *App) renderPanel(p panel, active bool, width, height int) string {
	style := panelStyle
	if active {
		style = panelActiveStyle
	}

	title := panelTitleStyle.Render(p.key)
	var status string
	if p.loading {
		status = a.spinner.View()
	} else {
		status = provenanceBadge(p.result.Provenance)
	}
	head := title + " " + status

	inner := width - 2
	maxRows := height - 4
	if maxRows < 1 {
		maxRows = 1
	}

	lines := []string{head, ""}
	records := p.result.Records
	for i, r := range records {
		if i >= maxRows {
			break
		}
		line := truncateLine(r.Title, inner-2)
		meta := recordMeta(r)
		if meta != "" {
			line = truncateLine(r.Title, inner-2-len(meta)-1) + " " + rowMetaStyle.Render(meta)
		}
		if active && i == p.cursor {
			line = rowSelectedStyle.Render("> ") + line
		} else {
			line = rowStyle.Render("  ") + line
		}
		lines = append(lines, line)
	}
	if !p.loading && len(records) == 0 {
		lines = append(lines, rowMetaStyle.Render("  no data"))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return style.Width(width).Height(height).Render(content)
}

func recordMeta(r cache.Record) string {
	switch {
	case r.Probability > 0:
		return fmt.Sprintf("%.0f%%", r.Probability*100)
	case r.Volume >= 1e6:
		return fmt.Sprintf("$%.1fM", r.Volume/1e6)
	case r.Volume > 0:
		return fmt.Sprintf("$%.0fK", r.Volume/1e3)
	case r.Region != "":
		return r.Region
	default:
		return ""
	}
}

func provenanceBadge(p cache.Provenance) string {
	switch p {
	case cache.ProvenanceFresh:
		return badgeFreshStyle.Render("● live")
	case cache.ProvenanceCached:
		return badgeCachedStyle.Render("● cached")
	case cache.ProvenanceStale:
		return badgeStaleStyle.Render("● stale")
	default:
		return badgeCachedStyle.Render("○ empty")
	}
}

func truncateLine(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
