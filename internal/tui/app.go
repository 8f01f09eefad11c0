// Package tui provides the interactive terminal shell for missiondeck: four
// switchable panels (coalitions, tasks, scene, task graph) over any Mediator
// implementation, with a command bar for pushing commands back.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/missiondeck/missiondeck/internal/canvas"
	"github.com/missiondeck/missiondeck/internal/layout"
	"github.com/missiondeck/missiondeck/internal/mediator"
	"github.com/missiondeck/missiondeck/internal/orchestrator"
	"github.com/missiondeck/missiondeck/internal/schema"
)

var (
	// Colors
	primaryColor = lipgloss.Color("#7C3AED")
	successColor = lipgloss.Color("#10B981")
	warningColor = lipgloss.Color("#F59E0B")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")
	fgColor      = lipgloss.Color("#F9FAFB")
	cyanColor    = lipgloss.Color("#06B6D4")
	ownColor     = lipgloss.Color("#EF4444")
	enemyColor   = lipgloss.Color("#3B82F6")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(fgColor).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	mutedStyle = lipgloss.NewStyle().Foreground(mutedColor)
	ownStyle   = lipgloss.NewStyle().Foreground(ownColor)
	enemyStyle = lipgloss.NewStyle().Foreground(enemyColor)
)

// panel is the active main view.
type panel string

const (
	panelCoalitions panel = "coalitions"
	panelTasks      panel = "tasks"
	panelScene      panel = "scene"
	panelGraph      panel = "graph"
)

var panelOrder = []panel{panelCoalitions, panelTasks, panelScene, panelGraph}

// App is the main TUI application model.
type App struct {
	med     mediator.Mediator
	orch    *orchestrator.Orchestrator
	updates chan tea.Msg

	input  textinput.Model
	width  int
	height int
	mode   panel

	agentData schema.AgentData
	taskData  schema.TaskData
	running   bool
	taskIDs   []string
	cmdOpts   []string

	scene  *scenePane
	graph  *graphView
	engine *layout.Engine

	selectedIdx int

	message      string
	notification string
	notifLevel   mediator.NotificationLevel
	notifSeq     int
}

// New creates the TUI application bound to a mediator. The orchestrator's
// refresh cycle feeds the updates channel; the mediator's notifications come
// back through the same channel. A zero zoom range selects the default.
func New(med mediator.Mediator, cfg orchestrator.Config, zoom canvas.ZoomRange) *App {
	ti := textinput.New()
	ti.Placeholder = "Type: task <instruction> | update <id> <cmd> | replan | start | say <text>"
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 80

	updates := make(chan tea.Msg, 64)

	a := &App{
		med:     med,
		updates: updates,
		input:   ti,
		mode:    panelCoalitions,
		scene:   newScenePane(zoom),
		engine:  layout.NewEngine(),
	}
	a.graph = newGraphView(a.engine)

	sinks := orchestrator.Sinks{
		AgentData: func(d schema.AgentData) { enqueue(updates, agentDataMsg{d}) },
		TaskData:  func(d schema.TaskData) { enqueue(updates, taskDataMsg{d}) },
		Scene: func(sc schema.SceneSnapshot, running bool) {
			enqueue(updates, sceneMsg{scene: sc, running: running})
		},
		TaskGraph: func(g schema.TaskGraph) { enqueue(updates, graphMsg{g}) },
		Options: func(taskIDs, commandOptions []string) {
			enqueue(updates, optionsMsg{taskIDs: taskIDs, commandOptions: commandOptions})
		},
	}
	a.orch = orchestrator.New(med, sinks, cfg, nil)

	med.SetUICallbacks(mediator.UICallbacks{Notifications: a})
	return a
}

// enqueue drops the message when the UI loop has fallen behind. The next
// refresh cycle carries fresher data anyway.
func enqueue(ch chan tea.Msg, msg tea.Msg) {
	select {
	case ch <- msg:
	default:
	}
}

// ShowNotification implements mediator.NotificationSink. It may be called
// from any goroutine.
func (a *App) ShowNotification(message string, level mediator.NotificationLevel, duration time.Duration) {
	enqueue(a.updates, notificationMsg{text: message, level: level, duration: duration})
}

// Run starts the refresh cycle and the TUI event loop, blocking until quit.
func (a *App) Run() error {
	a.orch.Start()
	defer a.orch.Stop()

	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, a.listen())
}

// listen forwards one message from the updates channel into the loop.
func (a *App) listen() tea.Cmd {
	return func() tea.Msg {
		return <-a.updates
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if cmd, handled := a.handleKey(msg); handled {
			return a, cmd
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.input.Width = msg.Width - 4
		a.scene.resize(msg.Width-4, a.contentHeight()-2)

	case agentDataMsg:
		a.agentData = msg.data
		if a.selectedIdx >= len(a.agentData.Coalitions) {
			a.selectedIdx = max(0, len(a.agentData.Coalitions)-1)
		}
		cmds = append(cmds, a.listen())

	case taskDataMsg:
		a.taskData = msg.data
		cmds = append(cmds, a.listen())

	case sceneMsg:
		a.running = msg.running
		if err := a.scene.render(msg.scene); err != nil {
			a.message = "Scene render failed: " + err.Error()
		}
		cmds = append(cmds, a.listen())

	case graphMsg:
		a.graph.setGraph(msg.graph)
		cmds = append(cmds, a.listen())

	case optionsMsg:
		a.taskIDs = msg.taskIDs
		a.cmdOpts = msg.commandOptions
		cmds = append(cmds, a.listen())

	case notificationMsg:
		a.notification = msg.text
		a.notifLevel = msg.level
		a.notifSeq++
		seq := a.notifSeq
		d := msg.duration
		if d <= 0 {
			d = 3 * time.Second
		}
		cmds = append(cmds,
			a.listen(),
			tea.Tick(d, func(time.Time) tea.Msg { return notificationExpiredMsg{seq: seq} }),
		)

	case notificationExpiredMsg:
		if msg.seq == a.notifSeq {
			a.notification = ""
		}

	case commandResultMsg:
		a.message = msg.message

	case errMsg:
		a.message = "Error: " + msg.err.Error()
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

// handleKey processes global and panel-local keys. It reports whether the key
// was consumed so plain typing still reaches the input.
func (a *App) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit, true

	case "tab":
		for i, p := range panelOrder {
			if p == a.mode {
				a.mode = panelOrder[(i+1)%len(panelOrder)]
				break
			}
		}
		return nil, true

	case "enter":
		line := strings.TrimSpace(a.input.Value())
		if line == "" {
			return nil, true
		}
		a.input.SetValue("")
		return a.executeCommand(line), true

	case "up":
		if a.mode == panelCoalitions && a.selectedIdx > 0 {
			a.selectedIdx--
			return nil, true
		}
		if a.mode == panelScene {
			a.scene.moveCursor(0, 1)
			return nil, true
		}

	case "down":
		if a.mode == panelCoalitions && a.selectedIdx < len(a.agentData.Coalitions)-1 {
			a.selectedIdx++
			return nil, true
		}
		if a.mode == panelScene {
			a.scene.moveCursor(0, -1)
			return nil, true
		}

	case "left":
		if a.mode == panelScene {
			a.scene.moveCursor(-1, 0)
			return nil, true
		}

	case "right":
		if a.mode == panelScene {
			a.scene.moveCursor(1, 0)
			return nil, true
		}

	case "ctrl+e":
		// Toggle between the read-only view and the editable design panel.
		if a.mode == panelScene {
			a.scene.toggleEditing()
			return nil, true
		}

	case "ctrl+d":
		// Double-click equivalent at the cursor: edit targets. The mediator
		// call may do I/O, so it runs as a command, not on the model goroutine.
		if a.mode == panelScene {
			ev, ok := a.scene.doubleClickEvent()
			if !ok {
				return nil, true
			}
			med := a.med
			return func() tea.Msg {
				med.HandleSceneEvent(ev)
				return nil
			}, true
		}
	}
	return nil, false
}

func (a *App) contentHeight() int {
	h := a.height - 8
	if h < 5 {
		h = 5
	}
	return h
}

// View implements tea.Model.
func (a *App) View() string {
	var b strings.Builder

	simStatus := mutedStyle.Render("○ SIM STOPPED")
	if a.running {
		simStatus = lipgloss.NewStyle().Foreground(successColor).Render(
			fmt.Sprintf("● SIM t=%.1f", a.agentData.CurrentTime))
	}

	header := titleStyle.Render("MISSIONDECK")
	header += "  " + simStatus
	header += "  " + lipgloss.NewStyle().Foreground(cyanColor).Render(
		fmt.Sprintf("[%d coalitions, %d agents]", len(a.agentData.Coalitions), len(a.agentData.Agents)))

	b.WriteString(header + "\n")
	b.WriteString(strings.Repeat("─", max(a.width, 1)) + "\n")

	contentHeight := a.contentHeight()
	switch a.mode {
	case panelCoalitions:
		b.WriteString(a.renderCoalitions(contentHeight))
	case panelTasks:
		b.WriteString(a.renderTasks(contentHeight))
	case panelScene:
		b.WriteString(a.scene.view())
	case panelGraph:
		b.WriteString(a.graph.view(a.width-2, contentHeight))
	}

	// Notification bar, then transient command feedback.
	if a.notification != "" {
		b.WriteString("\n" + a.notifStyle().Render(" "+a.notification))
	} else if a.message != "" {
		msgStyle := lipgloss.NewStyle().Foreground(successColor)
		if strings.HasPrefix(a.message, "Error") {
			msgStyle = lipgloss.NewStyle().Foreground(errorColor)
		}
		b.WriteString("\n" + msgStyle.Render(a.message))
	} else {
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(inputBoxStyle.Render(a.input.View()))
	b.WriteString("\n")

	b.WriteString(statusBarStyle.Width(a.width).Render(a.statusLine()))
	return b.String()
}

func (a *App) notifStyle() lipgloss.Style {
	switch a.notifLevel {
	case mediator.NotifySuccess:
		return lipgloss.NewStyle().Foreground(successColor).Bold(true)
	case mediator.NotifyWarning:
		return lipgloss.NewStyle().Foreground(warningColor).Bold(true)
	case mediator.NotifyError:
		return lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(cyanColor)
	}
}

func (a *App) statusLine() string {
	switch a.mode {
	case panelCoalitions:
		return fmt.Sprintf(" Coalitions: %d | ↑↓:nav | Tab:next panel | Ctrl+C:quit", len(a.agentData.Coalitions))
	case panelTasks:
		return fmt.Sprintf(" Tasks: %d | Tab:next panel | Ctrl+C:quit", len(a.taskData.Tasks))
	case panelScene:
		modeLabel := "view"
		if a.scene.editing {
			modeLabel = "design"
		}
		return fmt.Sprintf(" Scene [%s] | arrows:cursor | Ctrl+E:mode | Ctrl+D:edit target | Tab:next panel", modeLabel)
	case panelGraph:
		return " Task graph | Tab:next panel | Ctrl+C:quit"
	}
	return " Tab:next panel | Ctrl+C:quit"
}

func (a *App) renderCoalitions(height int) string {
	if len(a.agentData.Coalitions) == 0 {
		return "\n  No coalition data yet.\n"
	}

	membersByCoalition := make(map[int][]schema.Agent)
	for _, ag := range a.agentData.Agents {
		if ag.CoalitionID != nil {
			membersByCoalition[*ag.CoalitionID] = append(membersByCoalition[*ag.CoalitionID], ag)
		}
	}

	var lines []string
	for i, c := range a.agentData.Coalitions {
		task := c.CurrentTask
		if task == "" || task == schema.IdleTask {
			task = mutedStyle.Render("idle")
		}
		line := fmt.Sprintf("  Coalition %d  %s  (%d members)", c.ID, task, len(c.Members))
		if i == a.selectedIdx {
			line = selectedStyle.Render("▶" + line[1:])
		}
		lines = append(lines, line)

		if i == a.selectedIdx {
			for _, ag := range membersByCoalition[c.ID] {
				lines = append(lines, mutedStyle.Render(
					fmt.Sprintf("      %s %s [%s] (%.0f, %.0f)", ag.ID, ag.Type, ag.Status, ag.X, ag.Y)))
			}
			lines = append(lines, a.renderSchedule(c)...)
		}
	}

	// Enemy agents have no coalition; list them separately.
	var enemies []string
	for _, ag := range a.agentData.Agents {
		if ag.Faction == schema.FactionEnemy {
			enemies = append(enemies, ag.ID)
		}
	}
	if len(enemies) > 0 {
		lines = append(lines, "")
		lines = append(lines, enemyStyle.Render(
			fmt.Sprintf("  Observed hostiles: %s", strings.Join(enemies, ", "))))
	}

	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

// renderSchedule draws one coalition's timeline as labeled blocks.
func (a *App) renderSchedule(c schema.Coalition) []string {
	if len(c.Schedule) == 0 {
		return nil
	}
	var parts []string
	for _, e := range c.Schedule {
		parts = append(parts, fmt.Sprintf("[%.0f-%.0f %s]", e.Start, e.End, e.Task))
	}
	lines := []string{mutedStyle.Render("      schedule: " + strings.Join(parts, " "))}

	if len(c.ReplanSchedule) > 0 {
		parts = parts[:0]
		for _, e := range c.ReplanSchedule {
			parts = append(parts, fmt.Sprintf("[%.0f-%.0f %s]", e.Start, e.End, e.Task))
		}
		lines = append(lines, mutedStyle.Render("      replan:   "+strings.Join(parts, " ")))
	}
	return lines
}

func (a *App) renderTasks(height int) string {
	if len(a.taskData.Tasks) == 0 {
		return "\n  No tasks. Type: task <instruction> to create one.\n"
	}

	var lines []string
	for _, t := range a.taskData.Tasks {
		coalition := fmt.Sprintf("coalition %d", t.CoalitionID)
		if t.CoalitionID == schema.UnassignedCoalition {
			coalition = mutedStyle.Render("unassigned")
		}
		lines = append(lines, fmt.Sprintf("  %s %s  %s/%s  %s  t=%.0f+%.0f",
			a.formatTaskStatus(t.Status), t.ID, t.Type, t.Area, coalition, t.StartTime, t.Duration))
		lines = append(lines, mutedStyle.Render("      ltl: "+t.LTL))
	}

	lines = append(lines, "")
	formula := a.taskData.LTLFormula
	if len(formula) > a.width-14 && a.width > 17 {
		formula = formula[:a.width-17] + "..."
	}
	lines = append(lines, helpStyle.Render("  mission: "+formula))

	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

func (a *App) formatTaskStatus(status schema.TaskStatus) string {
	switch status {
	case schema.TaskPending:
		return lipgloss.NewStyle().Foreground(warningColor).Render("○")
	case schema.TaskExecuting:
		return lipgloss.NewStyle().Foreground(primaryColor).Render("◑")
	case schema.TaskCompleted:
		return lipgloss.NewStyle().Foreground(successColor).Render("●")
	case schema.TaskFailed:
		return lipgloss.NewStyle().Foreground(errorColor).Render("✗")
	case schema.TaskCancelled:
		return mutedStyle.Render("·")
	default:
		return "?"
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
