package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"bmad/internal/engine"
	"bmad/internal/ui"
)

type boardModel struct {
	ctx context.Context
	svc *engine.Service

	width  int
	height int

	tasks  []engine.Task
	player engine.User

	selected int

	lastLog string
	loading bool
	err     error
}

type loadedMsg struct {
	tasks  []engine.Task
	player engine.User
	err    error
}

type completedMsg struct {
	id  string
	res *engine.CompleteResult
	err error
}

func newBoardModel(ctx context.Context, svc *engine.Service) boardModel {
	return boardModel{
		ctx:     ctx,
		svc:     svc,
		loading: true,
		lastLog: "Loaded.",
	}
}

func (m boardModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m boardModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		tasks, err := m.svc.ActiveTasks(m.ctx)
		if err != nil {
			return loadedMsg{err: err}
		}
		player, err := m.svc.Player(m.ctx)
		if err != nil {
			return loadedMsg{err: err}
		}
		return loadedMsg{tasks: tasks, player: player}
	}
}

func (m boardModel) completeCmd(id string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.svc.CompleteTask(m.ctx, id)
		return completedMsg{id: id, res: res, err: err}
	}
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case loadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err != nil {
			m.lastLog = "Load failed: " + msg.err.Error()
			return m, nil
		}
		m.tasks = msg.tasks
		m.player = msg.player
		if m.selected >= len(m.tasks) {
			m.selected = len(m.tasks) - 1
		}
		if m.selected < 0 {
			m.selected = 0
		}
		m.lastLog = fmt.Sprintf("Refreshed at %s.", time.Now().Format("15:04:05"))
		return m, nil
	case completedMsg:
		if msg.err != nil {
			m.lastLog = "Complete failed: " + msg.err.Error()
			return m, nil
		}
		m.lastLog = fmt.Sprintf("Completed %q (+%.0f energy)", msg.res.Task.Title, msg.res.EnergyAwarded)
		for _, a := range msg.res.Unlocked {
			m.lastLog += fmt.Sprintf("  %s %s %s", ui.BadgeUnlock, a.Emoji, a.Name)
		}
		return m, m.loadCmd()
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			m.loading = true
			m.lastLog = "Refreshing…"
			return m, m.loadCmd()
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
			return m, nil
		case "down", "j":
			if m.selected < len(m.tasks)-1 {
				m.selected++
			}
			return m, nil
		case "o":
			m.svc.Load().ActivateOverride()
			m.lastLog = "Override active until load drops back under the limit."
			return m, nil
		case "enter":
			if m.selected < 0 || m.selected >= len(m.tasks) {
				return m, nil
			}
			return m, m.completeCmd(m.tasks[m.selected].ID)
		}
	}
	return m, nil
}

func (m boardModel) View() string {
	var b strings.Builder

	load := m.svc.Load()
	b.WriteString(ui.Heading(ui.IconTask, "BMad Board"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s %s  %s %.0f\n",
		ui.Key.Render("Load:"), ui.LoadMeter(load.LoadPercentage(), 20),
		ui.Key.Render("Energy:"), m.player.Energy))
	if load.IsSystemOverloaded() {
		b.WriteString(ui.BadgeOverload + " " + ui.Muted.Render("press o to override") + "\n")
	}
	b.WriteString("\n")

	if m.loading {
		b.WriteString(ui.Muted.Render("Loading…") + "\n")
	} else if len(m.tasks) == 0 {
		b.WriteString(ui.Muted.Render("No active tasks. Add one with `bmad add`.") + "\n")
	}
	for i, t := range m.tasks {
		line := fmt.Sprintf("%s  %s", pointsBadge(t.Points), t.Title)
		if i == m.selected {
			line = ui.SelectedRow.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	b.WriteString(ui.Muted.Render("↑/↓ move · enter complete · o override · r refresh · q quit") + "\n")
	b.WriteString(ui.Dim.Render(m.lastLog) + "\n")
	return b.String()
}

func pointsBadge(points float64) string {
	if points <= 0 {
		return ui.Muted.Render("[ ? ]")
	}
	return ui.Key.Render(fmt.Sprintf("[%3.0f]", points))
}
