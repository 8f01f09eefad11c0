// Package remote implements the Mediator contract over the control-plane HTTP
// API. All contract methods answer promptly from cached snapshots; the actual
// network I/O happens in a background poll loop plus a websocket scene
// subscription. A daemon outage degrades to stale data, never to a blocked UI.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/missiondeck/missiondeck/internal/logging"
	"github.com/missiondeck/missiondeck/internal/mediator"
	"github.com/missiondeck/missiondeck/internal/schema"
)

const (
	// DefaultClientTimeout bounds every API request.
	DefaultClientTimeout = 10 * time.Second

	pollInterval      = 500 * time.Millisecond
	reconnectInterval = 2 * time.Second
)

// Mediator is a networked Mediator implementation backed by a missiondeck
// daemon.
type Mediator struct {
	mediator.Base

	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.RWMutex
	agents      schema.AgentData
	tasks       schema.TaskData
	scene       schema.SceneSnapshot
	graph       schema.TaskGraph
	templates   []string
	taskIDs     []string
	cmdOptions  []string
	redPlanners []string
	bluePlans   []string
	running     bool
	currentTime float64
	lastErr     error
}

// New creates a remote mediator and primes its caches with one synchronous
// fetch pass, best effort. Background polling and the scene stream start
// immediately.
func New(baseURL string, logger *logging.Logger) *Mediator {
	if logger == nil {
		logger = logging.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Mediator{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultClientTimeout},
		logger:     logger.Named("remote"),
		ctx:        ctx,
		cancel:     cancel,
		graph:      schema.EmptyTaskGraph(),
	}

	m.pollOnce()

	m.wg.Add(2)
	go m.pollLoop()
	go m.sceneStreamLoop()
	return m
}

// Close stops the background loops.
func (m *Mediator) Close() {
	m.cancel()
	m.wg.Wait()
}

// LastError reports the most recent fetch failure, nil when the last pass
// succeeded in full.
func (m *Mediator) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// --- DataProvider: all answers come from the cache ---

func (m *Mediator) FetchAgentData() (schema.AgentData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.agents.Clone(), nil
}

func (m *Mediator) FetchTaskData() (schema.TaskData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tasks.Clone(), nil
}

// FetchScene serves the cached scene. Replay timestamps are forwarded
// synchronously since they are explicit user requests, falling back to the
// cache on failure.
func (m *Mediator) FetchScene(at *float64) (schema.SceneSnapshot, error) {
	if at != nil {
		var scene schema.SceneSnapshot
		url := fmt.Sprintf("%s/scene?t=%g", m.baseURL, *at)
		if err := m.getJSON(url, &scene); err == nil {
			return scene, nil
		}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.scene.Clone(), nil
}

func (m *Mediator) TaskTemplates() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.templates...)
}

// TemplateContent resolves synchronously: it is invoked on explicit user
// selection, not on the refresh path.
func (m *Mediator) TemplateContent(name string) string {
	var tpl struct {
		Content string `json:"content"`
	}
	if err := m.getJSON(m.baseURL+"/templates/"+name, &tpl); err != nil {
		m.logger.Warn("template fetch failed", zap.String("name", name), zap.Error(err))
		return name
	}
	return tpl.Content
}

func (m *Mediator) TaskGraphData() schema.TaskGraph {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.graph.Clone()
}

func (m *Mediator) TaskIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.taskIDs...)
}

func (m *Mediator) CommandOptions() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.cmdOptions...)
}

func (m *Mediator) SimulationRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// StepSimulation asks the daemon to advance. The daemon may refuse, e.g. when
// the simulation stopped between ticks.
func (m *Mediator) StepSimulation() bool {
	var result struct {
		Stepped bool `json:"stepped"`
	}
	if err := m.postJSON(m.baseURL+"/simulation/step", nil, &result); err != nil {
		m.logger.Warn("step request failed", zap.Error(err))
		return false
	}
	return result.Stepped
}

func (m *Mediator) CurrentTime() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentTime
}

func (m *Mediator) PlannerOptions() (red, blue []string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.redPlanners...), append([]string(nil), m.bluePlans...)
}

// --- CommandHandler ---

// ReceiveCommand forwards the envelope and reports the daemon's verdict.
// Transport failures count as rejection.
func (m *Mediator) ReceiveCommand(cmd schema.Command) bool {
	payload, err := schema.EncodeCommand(cmd)
	if err != nil {
		m.logger.Warn("command encode failed", zap.Error(err))
		return false
	}
	var result struct {
		Accepted bool `json:"accepted"`
	}
	if err := m.postJSON(m.baseURL+"/commands", payload, &result); err != nil {
		m.logger.Warn("command delivery failed",
			zap.String("kind", string(cmd.Kind())), zap.Error(err))
		return false
	}
	return result.Accepted
}

// HandleSceneEvent forwards the event, fire and forget.
func (m *Mediator) HandleSceneEvent(ev schema.SceneEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := m.postJSON(m.baseURL+"/events", payload, nil); err != nil {
		m.logger.Warn("event delivery failed", zap.Error(err))
	}
}

// HandlePlannerSelection forwards the selection.
func (m *Mediator) HandlePlannerSelection(side schema.PlannerSide, planner string) {
	payload, _ := json.Marshal(map[string]string{
		"side":    string(side),
		"planner": planner,
	})
	if err := m.postJSON(m.baseURL+"/planners", payload, nil); err != nil {
		m.logger.Warn("planner selection failed", zap.Error(err))
	}
}

// --- background loops ---

func (m *Mediator) pollLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.pollOnce()
		}
	}
}

// pollOnce refreshes every cached category. Each category fails independently
// and the cache keeps its previous value on failure.
func (m *Mediator) pollOnce() {
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	var agents schema.AgentData
	if err := m.getJSON(m.baseURL+"/agents", &agents); err == nil {
		m.mu.Lock()
		m.agents = agents
		m.currentTime = agents.CurrentTime
		m.mu.Unlock()
	} else {
		record(err)
	}

	var tasks schema.TaskData
	if err := m.getJSON(m.baseURL+"/tasks", &tasks); err == nil {
		m.mu.Lock()
		m.tasks = tasks
		m.mu.Unlock()
	} else {
		record(err)
	}

	var scene schema.SceneSnapshot
	if err := m.getJSON(m.baseURL+"/scene", &scene); err == nil {
		m.mu.Lock()
		m.scene = scene
		m.mu.Unlock()
	} else {
		record(err)
	}

	var graph schema.TaskGraph
	if err := m.getJSON(m.baseURL+"/graph", &graph); err == nil {
		m.mu.Lock()
		m.graph = graph
		m.mu.Unlock()
	} else {
		record(err)
	}

	var templates []string
	if err := m.getJSON(m.baseURL+"/templates", &templates); err == nil {
		m.mu.Lock()
		m.templates = templates
		m.mu.Unlock()
	} else {
		record(err)
	}

	var opts map[string][]string
	if err := m.getJSON(m.baseURL+"/options", &opts); err == nil {
		m.mu.Lock()
		m.taskIDs = opts["task_ids"]
		m.cmdOptions = opts["command_options"]
		m.mu.Unlock()
	} else {
		record(err)
	}

	var planners map[string][]string
	if err := m.getJSON(m.baseURL+"/planners", &planners); err == nil {
		m.mu.Lock()
		m.redPlanners = planners["red"]
		m.bluePlans = planners["blue"]
		m.mu.Unlock()
	} else {
		record(err)
	}

	var sim struct {
		Running     bool    `json:"running"`
		CurrentTime float64 `json:"current_time"`
	}
	if err := m.getJSON(m.baseURL+"/simulation", &sim); err == nil {
		m.mu.Lock()
		m.running = sim.Running
		m.currentTime = sim.CurrentTime
		m.mu.Unlock()
	} else {
		record(err)
	}

	m.mu.Lock()
	m.lastErr = nil
	if firstErr != nil {
		m.lastErr = mediator.E(mediator.KindTransientFetch, "poll", firstErr)
	}
	m.mu.Unlock()
}

// sceneStreamLoop keeps a websocket subscription to the scene stream,
// reconnecting with a fixed backoff. Frames update the scene cache between
// poll cycles.
func (m *Mediator) sceneStreamLoop() {
	defer m.wg.Done()

	wsURL := strings.Replace(m.baseURL, "http", "ws", 1) + "/scene/stream"
	for {
		if m.ctx.Err() != nil {
			return
		}
		conn, _, err := websocket.DefaultDialer.DialContext(m.ctx, wsURL, nil)
		if err != nil {
			select {
			case <-m.ctx.Done():
				return
			case <-time.After(reconnectInterval):
				continue
			}
		}

		m.logger.Info("scene stream connected", zap.String("url", wsURL))
		m.readSceneFrames(conn)
		conn.Close()
	}
}

func (m *Mediator) readSceneFrames(conn *websocket.Conn) {
	// Close the socket when the mediator shuts down so the read unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-m.ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var scene schema.SceneSnapshot
		if err := conn.ReadJSON(&scene); err != nil {
			if m.ctx.Err() == nil {
				m.logger.Warn("scene stream dropped", zap.Error(err))
			}
			return
		}
		m.mu.Lock()
		m.scene = scene
		m.currentTime = scene.Time
		m.mu.Unlock()
	}
}

// --- HTTP helpers ---

func (m *Mediator) getJSON(url string, out any) error {
	req, err := http.NewRequestWithContext(m.ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: %s", strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (m *Mediator) postJSON(url string, payload []byte, out any) error {
	req, err := http.NewRequestWithContext(m.ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: %s", strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
