package controlplane

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/missiondeck/missiondeck/internal/logging"
	"github.com/missiondeck/missiondeck/internal/schema"
	"github.com/missiondeck/missiondeck/internal/simbackend"
)

func newTestServer(t *testing.T) (*httptest.Server, *simbackend.Backend) {
	t.Helper()
	backend := simbackend.New(nil, logging.Nop())
	srv := NewServer(backend, "127.0.0.1:0", logging.Nop())
	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)
	return ts, backend
}

func getJSON(t *testing.T, url string, out any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
}

func TestGetAgents(t *testing.T) {
	ts, _ := newTestServer(t)

	var data schema.AgentData
	getJSON(t, ts.URL+"/agents", &data)
	if err := data.Validate(); err != nil {
		t.Fatalf("served snapshot invalid: %v", err)
	}
	if len(data.Agents) == 0 || len(data.Coalitions) == 0 {
		t.Fatal("empty agent snapshot")
	}
}

func TestGetTasks(t *testing.T) {
	ts, _ := newTestServer(t)

	var data schema.TaskData
	getJSON(t, ts.URL+"/tasks", &data)
	if len(data.Tasks) == 0 {
		t.Fatal("no tasks")
	}
	if data.LTLFormula == "" {
		t.Fatal("missing combined formula")
	}
}

func TestGetSceneWithTimestamp(t *testing.T) {
	ts, _ := newTestServer(t)

	var scene schema.SceneSnapshot
	getJSON(t, ts.URL+"/scene", &scene)
	if scene.Limits.Width() != 100 {
		t.Fatalf("limits = %+v", scene.Limits)
	}

	getJSON(t, ts.URL+"/scene?t=0.0", &scene)

	resp, err := http.Get(ts.URL + "/scene?t=yesterday")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad timestamp: status %d", resp.StatusCode)
	}
}

func TestGetTemplatesAndContent(t *testing.T) {
	ts, _ := newTestServer(t)

	var names []string
	getJSON(t, ts.URL+"/templates", &names)
	if len(names) == 0 {
		t.Fatal("no templates")
	}

	var tpl map[string]string
	getJSON(t, ts.URL+"/templates/"+names[0], &tpl)
	if tpl["name"] != names[0] || tpl["content"] == "" {
		t.Fatalf("template = %v", tpl)
	}
}

func TestGetOptions(t *testing.T) {
	ts, _ := newTestServer(t)

	var opts map[string][]string
	getJSON(t, ts.URL+"/options", &opts)
	if len(opts["task_ids"]) == 0 || len(opts["command_options"]) == 0 {
		t.Fatalf("options = %v", opts)
	}
}

func TestPostCommand(t *testing.T) {
	ts, backend := newTestServer(t)

	body, err := schema.EncodeCommand(schema.NewStartSimulation())
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(ts.URL+"/commands", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var result map[string]bool
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if !result["accepted"] {
		t.Fatal("command not accepted")
	}
	if !backend.SimulationRunning() {
		t.Fatal("command did not reach the backend")
	}
}

func TestPostCommandRejectsGarbage(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/commands", "application/json", bytes.NewReader([]byte("{")))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("garbage envelope: status %d", resp.StatusCode)
	}
}

func TestPostCommandReportsRejection(t *testing.T) {
	ts, _ := newTestServer(t)

	// Well-formed envelope that fails handler validation.
	body := []byte(`{"type":"update_task","timestamp":"2026-01-01T00:00:00Z","source":"gui"}`)
	resp, err := http.Post(ts.URL+"/commands", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var result map[string]bool
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result["accepted"] {
		t.Fatal("invalid envelope accepted")
	}
}

func TestPostEvent(t *testing.T) {
	ts, backend := newTestServer(t)

	ev := schema.SceneEvent{
		Source:   schema.EventSourceDesign,
		Type:     schema.EventMouseDoubleClick,
		Button:   schema.ButtonLeft,
		ScenePos: schema.Point{X: 5, Y: 95},
	}
	payload, _ := json.Marshal(ev)
	resp, err := http.Post(ts.URL+"/events", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}

	scene, _ := backend.FetchScene(nil)
	if len(scene.Targets) != 4 {
		t.Fatalf("%d targets after event", len(scene.Targets))
	}
}

func TestPlannersRoundTrip(t *testing.T) {
	ts, backend := newTestServer(t)

	var opts map[string][]string
	getJSON(t, ts.URL+"/planners", &opts)
	if len(opts["red"]) < 2 {
		t.Fatalf("planner options = %v", opts)
	}

	sel, _ := json.Marshal(plannerSelection{Side: schema.PlannerRed, Planner: opts["red"][1]})
	resp, err := http.Post(ts.URL+"/planners", "application/json", bytes.NewReader(sel))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}

	red, _ := backend.ActivePlanners()
	if red != opts["red"][1] {
		t.Fatalf("active red planner = %s", red)
	}
}

func TestSimulationEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)

	var state map[string]any
	getJSON(t, ts.URL+"/simulation", &state)
	if state["running"] != false {
		t.Fatalf("initial state = %v", state)
	}

	body, _ := schema.EncodeCommand(schema.NewStartSimulation())
	resp, _ := http.Post(ts.URL+"/commands", "application/json", bytes.NewReader(body))
	resp.Body.Close()

	resp, err := http.Post(ts.URL+"/simulation/step", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var step map[string]bool
	if err := json.NewDecoder(resp.Body).Decode(&step); err != nil {
		t.Fatal(err)
	}
	if !step["stepped"] {
		t.Fatal("step did not occur")
	}
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
}
