package mediator

import (
	"testing"
	"time"

	"github.com/missiondeck/missiondeck/internal/schema"
)

type recordingSink struct {
	messages []string
	levels   []NotificationLevel
}

func (r *recordingSink) ShowNotification(message string, level NotificationLevel, duration time.Duration) {
	r.messages = append(r.messages, message)
	r.levels = append(r.levels, level)
}

func TestBaseDefaults(t *testing.T) {
	var b Base

	if got := b.TemplateContent("patrol_template"); got != "patrol_template" {
		t.Fatalf("TemplateContent = %q, want the name echoed back", got)
	}

	g := b.TaskGraphData()
	if len(g.Nodes) != 0 || len(g.Edges) != 0 {
		t.Fatalf("default graph not empty: %+v", g)
	}
	if g.Layout.Algorithm != schema.LayoutSpring {
		t.Fatalf("default graph layout = %q", g.Layout.Algorithm)
	}

	if b.SimulationRunning() {
		t.Fatal("default SimulationRunning = true")
	}
	if b.StepSimulation() {
		t.Fatal("default StepSimulation = true")
	}
	if b.CurrentTime() != 0 {
		t.Fatalf("default CurrentTime = %v", b.CurrentTime())
	}

	red, blue := b.PlannerOptions()
	if red != nil || blue != nil {
		t.Fatalf("default planners = %v, %v", red, blue)
	}

	if err := b.ImportBackgroundFile("map.png"); err != nil {
		t.Fatalf("default ImportBackgroundFile = %v", err)
	}
	if err := b.ImportVectorFile("regions.json"); err != nil {
		t.Fatalf("default ImportVectorFile = %v", err)
	}

	// No-op handlers must not panic.
	b.HandleSceneEvent(schema.SceneEvent{Type: schema.EventMousePress})
	b.HandlePlannerSelection(schema.PlannerRed, "greedy")
}

func TestNotifyWithoutSinkIsSkipped(t *testing.T) {
	var b Base
	// No callbacks registered at all.
	b.Notify("hello", NotifyInfo, time.Second)

	// Registered callbacks with a nil sink.
	b.SetUICallbacks(UICallbacks{})
	b.Notify("hello again", NotifyWarning, time.Second)
}

func TestNotifyForwardsToSink(t *testing.T) {
	var b Base
	sink := &recordingSink{}
	b.SetUICallbacks(UICallbacks{Notifications: sink})

	b.Notify("replan complete", NotifySuccess, 2*time.Second)

	if len(sink.messages) != 1 || sink.messages[0] != "replan complete" {
		t.Fatalf("sink messages = %v", sink.messages)
	}
	if sink.levels[0] != NotifySuccess {
		t.Fatalf("sink level = %v", sink.levels[0])
	}
}

func TestErrorKinds(t *testing.T) {
	err := E(KindMalformedCommand, "receive_command", nil)
	if KindOf(err) != KindMalformedCommand {
		t.Fatalf("KindOf = %v", KindOf(err))
	}
	if KindOf(nil) != KindUnknown {
		t.Fatal("KindOf(nil) != KindUnknown")
	}
	if err.Error() == "" {
		t.Fatal("empty error string")
	}
}
