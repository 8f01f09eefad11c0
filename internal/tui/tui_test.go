package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/missiondeck/missiondeck/internal/canvas"
	"github.com/missiondeck/missiondeck/internal/layout"
	"github.com/missiondeck/missiondeck/internal/mediator"
	"github.com/missiondeck/missiondeck/internal/orchestrator"
	"github.com/missiondeck/missiondeck/internal/schema"
)

// recordingMediator captures pushed commands and scene events.
type recordingMediator struct {
	mediator.Base
	commands []schema.Command
	events   []schema.SceneEvent
	accept   bool
}

func (m *recordingMediator) FetchAgentData() (schema.AgentData, error) {
	return schema.AgentData{}, nil
}

func (m *recordingMediator) FetchTaskData() (schema.TaskData, error) {
	return schema.TaskData{}, nil
}

func (m *recordingMediator) FetchScene(at *float64) (schema.SceneSnapshot, error) {
	return schema.SceneSnapshot{}, nil
}

func (m *recordingMediator) TaskIDs() []string { return nil }

func (m *recordingMediator) CommandOptions() []string { return nil }

func (m *recordingMediator) ReceiveCommand(cmd schema.Command) bool {
	m.commands = append(m.commands, cmd)
	return m.accept
}

func (m *recordingMediator) HandleSceneEvent(ev schema.SceneEvent) {
	m.events = append(m.events, ev)
}

func (m *recordingMediator) TaskTemplates() []string { return []string{"patrol_template"} }

func (m *recordingMediator) TemplateContent(name string) string { return "Patrol the area" }

func testScene() schema.SceneSnapshot {
	return schema.SceneSnapshot{
		Agents:  []schema.AgentMarker{{ID: "uav_1", X: 50, Y: 50, Color: "#FF0000", Symbol: "^"}},
		Targets: []schema.Target{{X: 10, Y: 10, Color: "#223399", Active: true}},
		Regions: []schema.Region{{Kind: schema.RegionCircle, Center: schema.Point{X: 50, Y: 50}, Radius: 20, Color: "#00FF00"}},
		Trajectories: []schema.Trajectory{{
			Points: []schema.Point{{X: 0, Y: 0}, {X: 100, Y: 100}},
			Color:  "#FFFFFF",
		}},
		Time:   3.5,
		Limits: schema.Limits{XMax: 100, YMax: 100},
	}
}

func TestScenePaneRendersSnapshot(t *testing.T) {
	p := newScenePane(canvas.ZoomRange{})
	p.resize(60, 20)

	if err := p.render(testScene()); err != nil {
		t.Fatal(err)
	}

	// The cursor starts at the scene center, the same cell as the agent; the
	// marker must survive the cursor pass.
	out := p.view()
	if !strings.Contains(out, "t=3.5") {
		t.Fatalf("view missing time header:\n%s", out)
	}
	if !strings.Contains(out, "^") {
		t.Fatal("agent symbol not rasterized")
	}
	if !strings.Contains(out, "◆") {
		t.Fatal("target not rasterized")
	}

	// On an empty cell the cursor renders as its own glyph. Eight cells right
	// of center is inside the region ring and off the diagonal trajectory.
	p.moveCursor(8, 0)
	if out := p.view(); !strings.Contains(out, "+") {
		t.Fatal("cursor not drawn on empty cell")
	}
}

func TestScenePaneCursorClampsToLimits(t *testing.T) {
	p := newScenePane(canvas.ZoomRange{})
	p.resize(40, 12)
	if err := p.render(testScene()); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 500; i++ {
		p.moveCursor(1, 1)
	}
	if p.cursorX != 100 || p.cursorY != 100 {
		t.Fatalf("cursor = (%v, %v), want clamped to (100, 100)", p.cursorX, p.cursorY)
	}
}

func TestScenePaneUsesConfiguredZoom(t *testing.T) {
	zoom := canvas.ZoomRange{Min: 0.5, Max: 0.9}
	p := newScenePane(zoom)
	p.resize(40, 12)
	if err := p.render(testScene()); err != nil {
		t.Fatal(err)
	}
	if p.surface.zoom != zoom {
		t.Fatalf("surface zoom = %+v, want %+v", p.surface.zoom, zoom)
	}
}

func TestDoubleClickEventCarriesMode(t *testing.T) {
	p := newScenePane(canvas.ZoomRange{})
	p.resize(40, 12)

	if _, ok := p.doubleClickEvent(); ok {
		t.Fatal("event built before any scene arrived")
	}
	if err := p.render(testScene()); err != nil {
		t.Fatal(err)
	}

	first, ok := p.doubleClickEvent()
	if !ok {
		t.Fatal("no event after render")
	}
	p.toggleEditing()
	second, _ := p.doubleClickEvent()

	if first.Source != schema.EventSourceView {
		t.Fatalf("first event source = %q", first.Source)
	}
	if second.Source != schema.EventSourceDesign {
		t.Fatalf("second event source = %q", second.Source)
	}
	if second.Type != schema.EventMouseDoubleClick || second.HitCount != 2 {
		t.Fatalf("event = %+v", second)
	}
}

// Double-click delivery must run as a command, never synchronously inside the
// key handler where a networked mediator would stall the event loop.
func TestDoubleClickDeliversOffModelGoroutine(t *testing.T) {
	med := &recordingMediator{accept: true}
	a := New(med, orchestrator.Config{}, canvas.ZoomRange{})
	a.mode = panelScene
	if err := a.scene.render(testScene()); err != nil {
		t.Fatal(err)
	}

	cmd, handled := a.handleKey(tea.KeyMsg{Type: tea.KeyCtrlD})
	if !handled || cmd == nil {
		t.Fatal("ctrl+d not handled as a command")
	}
	if len(med.events) != 0 {
		t.Fatal("event delivered synchronously from the key handler")
	}
	cmd()
	if len(med.events) != 1 {
		t.Fatalf("got %d events after running the command", len(med.events))
	}
	if med.events[0].Type != schema.EventMouseDoubleClick {
		t.Fatalf("event = %+v", med.events[0])
	}
}

func TestGraphViewDrawsNodesAndLabels(t *testing.T) {
	g := newGraphView(layout.NewEngine())
	g.setGraph(schema.TaskGraph{
		Nodes: []schema.GraphNode{
			{ID: "task_1", Label: "patrol"},
			{ID: "task_2", Label: "strike"},
		},
		Edges:  []schema.GraphEdge{{Source: "task_1", Target: "task_2", Kind: schema.EdgeSequence}},
		Layout: schema.LayoutConfig{Algorithm: schema.LayoutCircular},
	})

	// Circular layout puts one node on each horizontal edge of the grid, so
	// this also covers the label flip for right-edge nodes.
	out := g.view(60, 20)
	if !strings.Contains(out, "patrol") || !strings.Contains(out, "strike") {
		t.Fatalf("labels missing:\n%s", out)
	}
	if !strings.Contains(out, "2 tasks, 1 dependencies") {
		t.Fatalf("header missing:\n%s", out)
	}
}

func runCommand(t *testing.T, a *App, line string) tea.Msg {
	t.Helper()
	cmd := a.executeCommand(line)
	if cmd == nil {
		t.Fatalf("no command produced for %q", line)
	}
	return cmd()
}

func TestExecuteCommandBuildsEnvelopes(t *testing.T) {
	med := &recordingMediator{accept: true}
	a := &App{med: med, taskIDs: []string{"task_1"}, cmdOpts: []string{"pause"}}

	runCommand(t, a, "task patrol the river")
	runCommand(t, a, "update task_1 pause")
	runCommand(t, a, "replan")
	runCommand(t, a, "start")
	runCommand(t, a, "say hello backend")

	if len(med.commands) != 5 {
		t.Fatalf("got %d commands, want 5", len(med.commands))
	}

	ct, ok := med.commands[0].(schema.CreateTask)
	if !ok || ct.Instruction != "patrol the river" {
		t.Fatalf("command[0] = %+v", med.commands[0])
	}
	ut, ok := med.commands[1].(schema.UpdateTask)
	if !ok || ut.TaskID != "task_1" || ut.Command != "pause" {
		t.Fatalf("command[1] = %+v", med.commands[1])
	}
	if med.commands[2].Kind() != schema.KindReplan {
		t.Fatalf("command[2] kind = %q", med.commands[2].Kind())
	}
	if med.commands[3].Kind() != schema.KindStartSimulation {
		t.Fatalf("command[3] kind = %q", med.commands[3].Kind())
	}
	uc, ok := med.commands[4].(schema.UserCommand)
	if !ok || uc.Instruction != "hello backend" {
		t.Fatalf("command[4] = %+v", med.commands[4])
	}
}

// The closure runs on a command goroutine; it must read the option snapshots
// taken at build time, not the live model fields Update keeps rewriting.
func TestExecuteCommandSnapshotsModelState(t *testing.T) {
	med := &recordingMediator{accept: true}
	a := &App{med: med, taskIDs: []string{"task_1"}, cmdOpts: []string{"pause"}}

	usageCmd := a.executeCommand("update")
	listCmd := a.executeCommand("tasks")
	a.cmdOpts[0] = "mutated"
	a.taskIDs[0] = "mutated"

	usage := usageCmd().(commandResultMsg)
	if !strings.Contains(usage.message, "pause") || strings.Contains(usage.message, "mutated") {
		t.Fatalf("usage read live model state: %q", usage.message)
	}
	list := listCmd().(commandResultMsg)
	if !strings.Contains(list.message, "task_1") || strings.Contains(list.message, "mutated") {
		t.Fatalf("task listing read live model state: %q", list.message)
	}
}

func TestExecuteCommandTemplateExpandsContent(t *testing.T) {
	med := &recordingMediator{accept: true}
	a := &App{med: med}

	runCommand(t, a, "template patrol_template")

	if len(med.commands) != 1 {
		t.Fatalf("got %d commands", len(med.commands))
	}
	ct := med.commands[0].(schema.CreateTask)
	if ct.Instruction != "Patrol the area" || ct.Template != "patrol_template" {
		t.Fatalf("command = %+v", ct)
	}
}

func TestExecuteCommandReportsRejection(t *testing.T) {
	med := &recordingMediator{accept: false}
	a := &App{med: med}

	msg := runCommand(t, a, "replan")
	res, ok := msg.(commandResultMsg)
	if !ok || !strings.Contains(res.message, "rejected") {
		t.Fatalf("msg = %+v", msg)
	}
}

func TestUnknownVerbTravelsAsUserCommand(t *testing.T) {
	med := &recordingMediator{accept: true}
	a := &App{med: med}

	runCommand(t, a, "launch everything now")

	uc, ok := med.commands[0].(schema.UserCommand)
	if !ok || uc.Instruction != "launch everything now" {
		t.Fatalf("command = %+v", med.commands[0])
	}
}
