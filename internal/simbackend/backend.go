// Package simbackend is the reference in-process mediator: a self-contained
// mission simulation that exercises every capability of the adapter contract.
// It doubles as development scaffolding for the shell and as the backing
// implementation of the control-plane daemon.
package simbackend

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/missiondeck/missiondeck/internal/logging"
	"github.com/missiondeck/missiondeck/internal/mediator"
	"github.com/missiondeck/missiondeck/internal/schema"
	"github.com/missiondeck/missiondeck/internal/store"
)

const (
	timeStep   = 0.1
	historyCap = 64
)

// Backend is a full Mediator backed by simulated mission state. All methods
// are safe for concurrent use and return promptly.
type Backend struct {
	mediator.Base

	logger *logging.Logger
	store  *store.Store
	rng    *rand.Rand

	mu          sync.Mutex
	currentTime float64
	running     bool

	coalitions []schema.Coalition
	friendly   []simAgent
	enemies    []simAgent
	tasks      []schema.Task
	targets    []simTarget
	regions    []schema.Region

	background string

	redPlanner  string
	bluePlanner string

	history []schema.SceneSnapshot

	nextTaskSeq int
}

// simAgent carries the mutable simulation state behind a schema.Agent.
type simAgent struct {
	id          string
	agentType   string
	coalitionID int
	status      schema.AgentStatus
	x, y        float64
}

// simTarget is a target with identity, so scene edits can toggle it.
type simTarget struct {
	x, y   float64
	active bool
}

// New creates a simulation backend. The store is optional; when present it
// serves template content and records received commands. Seeding failures are
// logged, not fatal.
func New(st *store.Store, logger *logging.Logger) *Backend {
	if logger == nil {
		logger = logging.Nop()
	}
	b := &Backend{
		logger:      logger.Named("simbackend"),
		store:       st,
		rng:         rand.New(rand.NewSource(1)),
		redPlanner:  redPlanners[0],
		bluePlanner: bluePlanners[0],
		nextTaskSeq: 6,
	}
	b.coalitions = seedCoalitions()
	b.friendly = seedFriendlyAgents()
	b.enemies = seedEnemyAgents()
	b.tasks = seedTasks()
	b.targets = seedTargets()
	b.regions = seedRegions()

	if st != nil {
		if err := st.SeedTemplates(defaultTemplates); err != nil {
			b.logger.Warn("template seed failed", zap.Error(err))
		}
	}
	return b
}

// FetchAgentData returns the full coalition and agent snapshot.
func (b *Backend) FetchAgentData() (schema.AgentData, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data := schema.AgentData{CurrentTime: b.currentTime}
	data.Coalitions = make([]schema.Coalition, len(b.coalitions))
	for i, c := range b.coalitions {
		data.Coalitions[i] = c.Clone()
	}
	for _, a := range b.friendly {
		id := a.coalitionID
		data.Agents = append(data.Agents, schema.Agent{
			ID:          a.id,
			Type:        a.agentType,
			CoalitionID: &id,
			Status:      a.status,
			Faction:     schema.FactionOwn,
			X:           a.x,
			Y:           a.y,
		})
	}
	for _, a := range b.enemies {
		data.Agents = append(data.Agents, schema.Agent{
			ID:      a.id,
			Type:    a.agentType,
			Status:  a.status,
			Faction: schema.FactionEnemy,
			X:       a.x,
			Y:       a.y,
		})
	}
	return data, nil
}

// FetchTaskData returns all tasks and the combined LTL formula.
func (b *Backend) FetchTaskData() (schema.TaskData, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return schema.TaskData{
		Tasks:       append([]schema.Task(nil), b.tasks...),
		LTLFormula:  schema.CombineLTL(b.tasks),
		CurrentTime: b.currentTime,
	}, nil
}

// FetchScene returns the render-ready scene. A concrete timestamp is served
// best-effort from the bounded step history; times before the oldest retained
// snapshot get the oldest one.
func (b *Backend) FetchScene(at *float64) (schema.SceneSnapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if at != nil && len(b.history) > 0 {
		best := b.history[0]
		for _, snap := range b.history {
			if snap.Time <= *at {
				best = snap
			}
		}
		return best.Clone(), nil
	}
	return b.buildScene(), nil
}

// buildScene assembles the current snapshot. Caller holds the lock.
func (b *Backend) buildScene() schema.SceneSnapshot {
	scene := schema.SceneSnapshot{
		Time:   b.currentTime,
		Limits: schema.Limits{XMin: 0, XMax: 100, YMin: 0, YMax: 100},
	}

	for i, a := range b.friendly {
		scene.Agents = append(scene.Agents, schema.AgentMarker{
			ID:     a.id,
			X:      a.x,
			Y:      a.y,
			Color:  friendlyColors[i%len(friendlyColors)],
			Symbol: friendlySymbols[i%len(friendlySymbols)],
		})
	}
	for i, a := range b.enemies {
		scene.Agents = append(scene.Agents, schema.AgentMarker{
			ID:     a.id,
			X:      a.x,
			Y:      a.y,
			Color:  enemyColors[i%len(enemyColors)],
			Symbol: enemySymbols[i%len(enemySymbols)],
		})
	}

	for _, t := range b.targets {
		scene.Targets = append(scene.Targets, schema.Target{
			X: t.x, Y: t.y, Color: targetColor, Active: t.active,
		})
	}

	scene.Regions = make([]schema.Region, len(b.regions))
	for i, r := range b.regions {
		scene.Regions[i] = r
		scene.Regions[i].Points = append([]schema.Point(nil), r.Points...)
	}

	// Trajectories for the first three working friendly agents, each a
	// straight line to its assigned target.
	drawn := 0
	for i, a := range b.friendly {
		if a.status != schema.AgentWorking || drawn >= 3 || len(b.targets) == 0 {
			continue
		}
		tgt := b.targets[i%len(b.targets)]
		scene.Trajectories = append(scene.Trajectories, schema.Trajectory{
			Points: linePoints(a.x, a.y, tgt.x, tgt.y, 10),
			Color:  friendlyColors[i%len(friendlyColors)],
		})
		drawn++
	}
	return scene
}

// TaskTemplates lists template names from the store, falling back to the
// built-in set when no store is attached.
func (b *Backend) TaskTemplates() []string {
	if b.store != nil {
		names, err := b.store.TemplateNames()
		if err == nil && len(names) > 0 {
			return names
		}
		if err != nil {
			b.logger.Warn("template listing failed", zap.Error(err))
		}
	}
	names := make([]string, 0, len(defaultTemplates))
	for name := range defaultTemplates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TemplateContent resolves a template body, echoing the name when unknown.
func (b *Backend) TemplateContent(name string) string {
	if b.store != nil {
		content, err := b.store.TemplateContent(name)
		if err == nil {
			return content
		}
		if !errors.Is(err, store.ErrTemplateNotFound) {
			b.logger.Warn("template lookup failed", zap.String("name", name), zap.Error(err))
		}
	}
	if content, ok := defaultTemplates[name]; ok {
		return content
	}
	return name
}

// TaskGraphData derives the dependency graph from the current tasks: tasks of
// one coalition ordered by start time form a sequence chain, and tasks of
// different coalitions with overlapping execution windows are marked parallel.
func (b *Backend) TaskGraphData() schema.TaskGraph {
	b.mu.Lock()
	defer b.mu.Unlock()

	g := schema.EmptyTaskGraph()
	byCoalition := make(map[int][]schema.Task)
	for _, t := range b.tasks {
		g.Nodes = append(g.Nodes, schema.GraphNode{
			ID:    t.ID,
			Label: fmt.Sprintf("%s (%s)", t.Type, t.Area),
		})
		if t.CoalitionID != schema.UnassignedCoalition {
			byCoalition[t.CoalitionID] = append(byCoalition[t.CoalitionID], t)
		}
	}

	coalitionIDs := make([]int, 0, len(byCoalition))
	for id := range byCoalition {
		coalitionIDs = append(coalitionIDs, id)
	}
	sort.Ints(coalitionIDs)

	for _, id := range coalitionIDs {
		chain := byCoalition[id]
		sort.Slice(chain, func(i, j int) bool { return chain[i].StartTime < chain[j].StartTime })
		for i := 1; i < len(chain); i++ {
			g.Edges = append(g.Edges, schema.GraphEdge{
				Source: chain[i-1].ID,
				Target: chain[i].ID,
				Kind:   schema.EdgeSequence,
			})
		}
	}

	// Cross-coalition concurrency.
	for i := 0; i < len(b.tasks); i++ {
		for j := i + 1; j < len(b.tasks); j++ {
			a, c := b.tasks[i], b.tasks[j]
			if a.CoalitionID == c.CoalitionID ||
				a.CoalitionID == schema.UnassignedCoalition ||
				c.CoalitionID == schema.UnassignedCoalition {
				continue
			}
			if a.StartTime < c.StartTime+c.Duration && c.StartTime < a.StartTime+a.Duration {
				g.Edges = append(g.Edges, schema.GraphEdge{
					Source: a.ID,
					Target: c.ID,
					Kind:   schema.EdgeParallel,
				})
			}
		}
	}
	return g
}

// TaskIDs enumerates the current task ids.
func (b *Backend) TaskIDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	ids := make([]string, len(b.tasks))
	for i, t := range b.tasks {
		ids[i] = t.ID
	}
	return ids
}

// CommandOptions enumerates the task update verbs this backend understands.
func (b *Backend) CommandOptions() []string {
	return []string{"pause", "resume", "cancel", "emergency_stop"}
}

// SimulationRunning reports whether time is advancing.
func (b *Backend) SimulationRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// StepSimulation advances time by one fixed step and moves every agent.
func (b *Backend) StepSimulation() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.running {
		return false
	}
	b.currentTime += timeStep
	b.moveAgents()

	b.history = append(b.history, b.buildScene())
	if len(b.history) > historyCap {
		b.history = b.history[len(b.history)-historyCap:]
	}
	return true
}

// CurrentTime returns the current simulation time.
func (b *Backend) CurrentTime() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentTime
}

// PlannerOptions lists the selectable planning strategies per faction.
func (b *Backend) PlannerOptions() (red, blue []string) {
	return append([]string(nil), redPlanners...), append([]string(nil), bluePlanners...)
}

// HandlePlannerSelection switches the active strategy for one faction.
// Unknown names are logged and ignored.
func (b *Backend) HandlePlannerSelection(side schema.PlannerSide, planner string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch side {
	case schema.PlannerRed:
		if contains(redPlanners, planner) {
			b.redPlanner = planner
			b.logger.Info("red planner selected", zap.String("planner", planner))
			return
		}
	case schema.PlannerBlue:
		if contains(bluePlanners, planner) {
			b.bluePlanner = planner
			b.logger.Info("blue planner selected", zap.String("planner", planner))
			return
		}
	}
	b.logger.Warn("planner selection ignored",
		zap.String("side", string(side)), zap.String("planner", planner))
}

// ActivePlanners reports the currently selected strategies.
func (b *Backend) ActivePlanners() (red, blue string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.redPlanner, b.bluePlanner
}

// moveAgents advances every agent one step. Caller holds the lock.
func (b *Backend) moveAgents() {
	for i := range b.friendly {
		a := &b.friendly[i]
		switch a.status {
		case schema.AgentWorking:
			if len(b.targets) == 0 {
				continue
			}
			tgt := b.targets[i%len(b.targets)]
			dx := tgt.x - a.x
			dy := tgt.y - a.y
			dist := math.Hypot(dx, dy)
			if dist > 1.0 {
				const speed = 0.5
				a.x += dx / dist * speed
				a.y += dy / dist * speed
			} else {
				a.status = schema.AgentIdle
			}
		case schema.AgentIdle:
			if b.rng.Float64() < 0.1 {
				a.x = clamp(a.x+b.rng.Float64()*4-2, 0, 100)
				a.y = clamp(a.y+b.rng.Float64()*4-2, 0, 100)
			}
		}
	}

	// Enemy movement is observed, not planned: a random walk with
	// uncertain speed.
	for i := range b.enemies {
		a := &b.enemies[i]
		if b.rng.Float64() < 0.3 {
			angle := b.rng.Float64() * 2 * math.Pi
			speed := 0.2 + b.rng.Float64()*0.6
			a.x = clamp(a.x+math.Cos(angle)*speed, 0, 100)
			a.y = clamp(a.y+math.Sin(angle)*speed, 0, 100)
		}
	}
}

func linePoints(x0, y0, x1, y1 float64, n int) []schema.Point {
	pts := make([]schema.Point, n)
	for i := 0; i < n; i++ {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		pts[i] = schema.Point{X: x0 + (x1-x0)*t, Y: y0 + (y1-y0)*t}
	}
	return pts
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
