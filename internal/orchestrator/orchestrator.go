// Package orchestrator drives the periodic refresh cycle: a coarse tick pulls
// every data category from the mediator and pushes the results into display
// sinks, and a fine tick advances the simulation while it is running. A
// failure in one category never blocks the others.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/missiondeck/missiondeck/internal/logging"
	"github.com/missiondeck/missiondeck/internal/mediator"
	"github.com/missiondeck/missiondeck/internal/schema"
)

// Category names one independently refreshed slice of display state.
type Category string

const (
	CategoryAgents  Category = "agents"
	CategoryTasks   Category = "tasks"
	CategoryScene   Category = "scene"
	CategoryGraph   Category = "graph"
	CategoryOptions Category = "options"
)

// CategoryResult is the outcome of refreshing one category in one cycle.
type CategoryResult struct {
	Category Category
	Err      error
}

// Sinks receive refreshed data. Nil members are skipped, so a consumer wires
// only the panels it shows.
type Sinks struct {
	AgentData func(schema.AgentData)
	TaskData  func(schema.TaskData)
	Scene     func(scene schema.SceneSnapshot, running bool)
	TaskGraph func(schema.TaskGraph)
	Options   func(taskIDs, commandOptions []string)
}

// Config tunes the two refresh cadences.
type Config struct {
	RefreshInterval time.Duration
	StepInterval    time.Duration
}

// DefaultConfig returns the standard cadences: data once per second,
// simulation steps ten times per second.
func DefaultConfig() Config {
	return Config{
		RefreshInterval: time.Second,
		StepInterval:    100 * time.Millisecond,
	}
}

// Orchestrator owns the refresh goroutines.
type Orchestrator struct {
	med    mediator.Mediator
	sinks  Sinks
	config Config
	logger *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an orchestrator. A zero-interval config falls back to
// DefaultConfig values per field.
func New(med mediator.Mediator, sinks Sinks, cfg Config, logger *logging.Logger) *Orchestrator {
	def := DefaultConfig()
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = def.RefreshInterval
	}
	if cfg.StepInterval <= 0 {
		cfg.StepInterval = def.StepInterval
	}
	if logger == nil {
		logger = logging.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		med:    med,
		sinks:  sinks,
		config: cfg,
		logger: logger.Named("orchestrator"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins both refresh loops.
func (o *Orchestrator) Start() {
	o.wg.Add(2)
	go o.refreshLoop()
	go o.stepLoop()
	o.logger.Info("orchestrator started",
		zap.Duration("refresh_interval", o.config.RefreshInterval),
		zap.Duration("step_interval", o.config.StepInterval))
}

// Stop halts both loops and waits for them.
func (o *Orchestrator) Stop() {
	o.cancel()
	o.wg.Wait()
	o.logger.Info("orchestrator stopped")
}

func (o *Orchestrator) refreshLoop() {
	defer o.wg.Done()

	ticker := time.NewTicker(o.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-o.ctx.Done():
			return
		case <-ticker.C:
			o.RefreshOnce()
		}
	}
}

func (o *Orchestrator) stepLoop() {
	defer o.wg.Done()

	ticker := time.NewTicker(o.config.StepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-o.ctx.Done():
			return
		case <-ticker.C:
			o.stepTick()
		}
	}
}

// stepTick advances the simulation when it is running, then refreshes only the
// scene so motion stays smooth between coarse cycles.
func (o *Orchestrator) stepTick() {
	if !o.med.SimulationRunning() {
		return
	}
	if !o.med.StepSimulation() {
		return
	}
	if res := o.refreshScene(); res.Err != nil {
		o.logger.Warn("scene refresh after step failed", zap.Error(res.Err))
	}
}

// RefreshOnce pulls every category and reports the per-category outcomes. Each
// category is isolated: a failing or panicking fetch is logged and recorded,
// and the remaining categories still run.
func (o *Orchestrator) RefreshOnce() []CategoryResult {
	results := []CategoryResult{
		o.refreshCategory(CategoryAgents, o.refreshAgents),
		o.refreshCategory(CategoryTasks, o.refreshTasks),
		o.refreshScene(),
		o.refreshCategory(CategoryGraph, o.refreshGraph),
		o.refreshCategory(CategoryOptions, o.refreshOptions),
	}
	for _, r := range results {
		if r.Err != nil {
			o.logger.Warn("category refresh failed",
				zap.String("category", string(r.Category)),
				zap.Error(r.Err))
		}
	}
	return results
}

func (o *Orchestrator) refreshScene() CategoryResult {
	return o.refreshCategory(CategoryScene, o.refreshSceneOnce)
}

// refreshCategory runs one category fetch under a panic guard. A mediator
// implementation must not be able to take down the refresh loop.
func (o *Orchestrator) refreshCategory(cat Category, fn func() error) (res CategoryResult) {
	res.Category = cat
	defer func() {
		if r := recover(); r != nil {
			res.Err = mediator.E(mediator.KindTransientFetch, "refresh_"+string(cat), fmt.Errorf("panic: %v", r))
		}
	}()
	if err := fn(); err != nil {
		res.Err = mediator.E(mediator.KindTransientFetch, "refresh_"+string(cat), err)
	}
	return res
}

func (o *Orchestrator) refreshAgents() error {
	data, err := o.med.FetchAgentData()
	if err != nil {
		return err
	}
	if o.sinks.AgentData != nil {
		o.sinks.AgentData(data)
	}
	return nil
}

func (o *Orchestrator) refreshTasks() error {
	data, err := o.med.FetchTaskData()
	if err != nil {
		return err
	}
	if o.sinks.TaskData != nil {
		o.sinks.TaskData(data)
	}
	return nil
}

func (o *Orchestrator) refreshSceneOnce() error {
	scene, err := o.med.FetchScene(nil)
	if err != nil {
		return err
	}
	if o.sinks.Scene != nil {
		o.sinks.Scene(scene, o.med.SimulationRunning())
	}
	return nil
}

func (o *Orchestrator) refreshGraph() error {
	if o.sinks.TaskGraph != nil {
		o.sinks.TaskGraph(o.med.TaskGraphData())
	}
	return nil
}

func (o *Orchestrator) refreshOptions() error {
	if o.sinks.Options != nil {
		o.sinks.Options(o.med.TaskIDs(), o.med.CommandOptions())
	}
	return nil
}
