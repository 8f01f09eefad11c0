package orchestrator

import (
	"errors"
	"testing"

	"github.com/missiondeck/missiondeck/internal/logging"
	"github.com/missiondeck/missiondeck/internal/mediator"
	"github.com/missiondeck/missiondeck/internal/schema"
)

// fakeMediator is a scriptable backend for refresh-cycle tests.
type fakeMediator struct {
	mediator.Base

	agentErr   error
	taskPanics bool
	running    bool
	stepCount  int
	fetches    map[string]int
}

func newFakeMediator() *fakeMediator {
	return &fakeMediator{fetches: make(map[string]int)}
}

func (f *fakeMediator) FetchAgentData() (schema.AgentData, error) {
	f.fetches["agents"]++
	if f.agentErr != nil {
		return schema.AgentData{}, f.agentErr
	}
	return schema.AgentData{CurrentTime: 1}, nil
}

func (f *fakeMediator) FetchTaskData() (schema.TaskData, error) {
	f.fetches["tasks"]++
	if f.taskPanics {
		panic("backend bug")
	}
	return schema.TaskData{LTLFormula: schema.LTLPlaceholder}, nil
}

func (f *fakeMediator) FetchScene(at *float64) (schema.SceneSnapshot, error) {
	f.fetches["scene"]++
	return schema.SceneSnapshot{Time: float64(f.stepCount)}, nil
}

func (f *fakeMediator) TaskTemplates() []string { return []string{"patrol_template"} }

func (f *fakeMediator) TaskIDs() []string { return []string{"task_1"} }

func (f *fakeMediator) CommandOptions() []string { return []string{"pause", "resume"} }

func (f *fakeMediator) SimulationRunning() bool { return f.running }

func (f *fakeMediator) StepSimulation() bool {
	if !f.running {
		return false
	}
	f.stepCount++
	return true
}

func (f *fakeMediator) ReceiveCommand(cmd schema.Command) bool { return true }

func errByCategory(results []CategoryResult) map[Category]error {
	out := make(map[Category]error, len(results))
	for _, r := range results {
		out[r.Category] = r.Err
	}
	return out
}

func TestRefreshOnceFansOutToAllSinks(t *testing.T) {
	med := newFakeMediator()
	var gotAgents, gotTasks, gotScene, gotGraph, gotOptions bool

	o := New(med, Sinks{
		AgentData: func(schema.AgentData) { gotAgents = true },
		TaskData:  func(schema.TaskData) { gotTasks = true },
		Scene:     func(schema.SceneSnapshot, bool) { gotScene = true },
		TaskGraph: func(schema.TaskGraph) { gotGraph = true },
		Options: func(taskIDs, commandOptions []string) {
			gotOptions = true
			if len(taskIDs) != 1 || len(commandOptions) != 2 {
				t.Errorf("options sink got %v, %v", taskIDs, commandOptions)
			}
		},
	}, Config{}, logging.Nop())

	results := o.RefreshOnce()
	if len(results) != 5 {
		t.Fatalf("got %d category results", len(results))
	}
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("category %s failed: %v", r.Category, r.Err)
		}
	}
	if !gotAgents || !gotTasks || !gotScene || !gotGraph || !gotOptions {
		t.Fatal("not every sink was called")
	}
}

func TestRefreshOnceIsolatesFailures(t *testing.T) {
	med := newFakeMediator()
	med.agentErr = errors.New("backend offline")

	var sceneCalls int
	o := New(med, Sinks{
		Scene: func(schema.SceneSnapshot, bool) { sceneCalls++ },
	}, Config{}, logging.Nop())

	errs := errByCategory(o.RefreshOnce())
	if errs[CategoryAgents] == nil {
		t.Fatal("agent failure not reported")
	}
	if mediator.KindOf(errs[CategoryAgents]) != mediator.KindTransientFetch {
		t.Fatalf("agent error kind = %v", mediator.KindOf(errs[CategoryAgents]))
	}
	if errs[CategoryScene] != nil || errs[CategoryTasks] != nil {
		t.Fatal("unrelated categories failed")
	}
	if sceneCalls != 1 {
		t.Fatalf("scene sink called %d times despite agent failure", sceneCalls)
	}
}

func TestRefreshOnceRecoversPanics(t *testing.T) {
	med := newFakeMediator()
	med.taskPanics = true

	o := New(med, Sinks{}, Config{}, logging.Nop())

	errs := errByCategory(o.RefreshOnce())
	if errs[CategoryTasks] == nil {
		t.Fatal("panicking category reported no error")
	}
	if errs[CategoryAgents] != nil || errs[CategoryScene] != nil {
		t.Fatal("panic leaked into other categories")
	}
}

func TestStepTickOnlyWhileRunning(t *testing.T) {
	med := newFakeMediator()
	var sceneCalls int
	o := New(med, Sinks{
		Scene: func(schema.SceneSnapshot, bool) { sceneCalls++ },
	}, Config{}, logging.Nop())

	o.stepTick()
	if med.stepCount != 0 || sceneCalls != 0 {
		t.Fatal("stepped while simulation stopped")
	}

	med.running = true
	o.stepTick()
	o.stepTick()
	if med.stepCount != 2 {
		t.Fatalf("step count = %d, want 2", med.stepCount)
	}
	if sceneCalls != 2 {
		t.Fatalf("scene refreshed %d times after steps, want 2", sceneCalls)
	}
	if med.fetches["agents"] != 0 {
		t.Fatal("fine tick pulled coarse categories")
	}
}

func TestStartStop(t *testing.T) {
	med := newFakeMediator()
	o := New(med, Sinks{}, DefaultConfig(), logging.Nop())
	o.Start()
	o.Stop()
}
