package remote

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/missiondeck/missiondeck/internal/logging"
	"github.com/missiondeck/missiondeck/internal/schema"
)

// fakeDaemon serves a minimal control-plane API for client tests.
func fakeDaemon(t *testing.T, commandCount *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/agents", func(w http.ResponseWriter, r *http.Request) {
		cid := 0
		json.NewEncoder(w).Encode(schema.AgentData{
			Coalitions:  []schema.Coalition{{ID: 0, CurrentTask: "patrol"}},
			Agents:      []schema.Agent{{ID: "uav_1", CoalitionID: &cid, Faction: schema.FactionOwn}},
			CurrentTime: 7.5,
		})
	})
	mux.HandleFunc("/tasks", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(schema.TaskData{
			Tasks:      []schema.Task{{ID: "task_1", LTL: "F p1"}},
			LTLFormula: "(F p1)",
		})
	})
	mux.HandleFunc("/scene", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(schema.SceneSnapshot{
			Time:   7.5,
			Limits: schema.Limits{XMax: 100, YMax: 100},
		})
	})
	mux.HandleFunc("/graph", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(schema.TaskGraph{
			Nodes:  []schema.GraphNode{{ID: "task_1", Label: "patrol"}},
			Edges:  []schema.GraphEdge{},
			Layout: schema.LayoutConfig{Algorithm: schema.LayoutSpring},
		})
	})
	mux.HandleFunc("/templates", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]string{"patrol_template"})
	})
	mux.HandleFunc("/templates/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"name": "patrol_template", "content": "Patrol the area",
		})
	})
	mux.HandleFunc("/options", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string][]string{
			"task_ids":        {"task_1"},
			"command_options": {"pause"},
		})
	})
	mux.HandleFunc("/planners", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Write([]byte(`{"status":"ok"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string][]string{"red": {"greedy"}, "blue": {"pursuit"}})
	})
	mux.HandleFunc("/simulation", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"running": true, "current_time": 7.5})
	})
	mux.HandleFunc("/simulation/step", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]bool{"stepped": true})
	})
	mux.HandleFunc("/commands", func(w http.ResponseWriter, r *http.Request) {
		commandCount.Add(1)
		json.NewEncoder(w).Encode(map[string]bool{"accepted": true})
	})
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestInitialPrimeFillsCaches(t *testing.T) {
	var commands atomic.Int32
	ts := fakeDaemon(t, &commands)

	m := New(ts.URL, logging.Nop())
	defer m.Close()

	agents, err := m.FetchAgentData()
	if err != nil {
		t.Fatal(err)
	}
	if len(agents.Agents) != 1 || agents.CurrentTime != 7.5 {
		t.Fatalf("agents = %+v", agents)
	}

	tasks, _ := m.FetchTaskData()
	if tasks.LTLFormula != "(F p1)" {
		t.Fatalf("tasks = %+v", tasks)
	}

	scene, _ := m.FetchScene(nil)
	if scene.Limits.Width() != 100 {
		t.Fatalf("scene = %+v", scene)
	}

	if !m.SimulationRunning() {
		t.Fatal("running flag not cached")
	}
	if m.CurrentTime() != 7.5 {
		t.Fatalf("current time = %v", m.CurrentTime())
	}
	if ids := m.TaskIDs(); len(ids) != 1 || ids[0] != "task_1" {
		t.Fatalf("task ids = %v", ids)
	}
	red, blue := m.PlannerOptions()
	if len(red) != 1 || len(blue) != 1 {
		t.Fatalf("planners = %v, %v", red, blue)
	}
	if err := m.LastError(); err != nil {
		t.Fatalf("prime reported error: %v", err)
	}
}

func TestTemplateContentFallsBackToName(t *testing.T) {
	var commands atomic.Int32
	ts := fakeDaemon(t, &commands)

	m := New(ts.URL, logging.Nop())
	defer m.Close()

	if got := m.TemplateContent("patrol_template"); got != "Patrol the area" {
		t.Fatalf("content = %q", got)
	}

	ts.Close()
	if got := m.TemplateContent("patrol_template"); got != "patrol_template" {
		t.Fatalf("offline content = %q, want name echo", got)
	}
}

func TestReceiveCommandForwards(t *testing.T) {
	var commands atomic.Int32
	ts := fakeDaemon(t, &commands)

	m := New(ts.URL, logging.Nop())
	defer m.Close()

	if !m.ReceiveCommand(schema.NewReplan()) {
		t.Fatal("command not accepted")
	}
	if commands.Load() != 1 {
		t.Fatalf("daemon saw %d commands", commands.Load())
	}
}

func TestOfflineDaemonServesStaleCache(t *testing.T) {
	var commands atomic.Int32
	ts := fakeDaemon(t, &commands)

	m := New(ts.URL, logging.Nop())
	defer m.Close()
	ts.Close()

	// The cache still answers after the daemon goes away.
	agents, err := m.FetchAgentData()
	if err != nil {
		t.Fatal(err)
	}
	if len(agents.Agents) != 1 {
		t.Fatal("cache lost after daemon shutdown")
	}

	// Command delivery honestly reports failure.
	if m.ReceiveCommand(schema.NewReplan()) {
		t.Fatal("command accepted with daemon offline")
	}

	// A poll pass against the dead daemon records the failure.
	m.pollOnce()
	deadline := time.Now().Add(time.Second)
	for m.LastError() == nil && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if m.LastError() == nil {
		t.Fatal("no transient fetch error recorded")
	}
}

func TestFetchReturnsCopies(t *testing.T) {
	var commands atomic.Int32
	ts := fakeDaemon(t, &commands)

	m := New(ts.URL, logging.Nop())
	defer m.Close()

	first, _ := m.FetchAgentData()
	if len(first.Coalitions) == 0 {
		t.Fatal("no coalitions cached")
	}
	first.Coalitions[0].CurrentTask = "mutated"

	second, _ := m.FetchAgentData()
	if second.Coalitions[0].CurrentTask == "mutated" {
		t.Fatal("consumer mutation leaked into the cache")
	}
}
