package mediator

import (
	"sync"
	"time"

	"github.com/missiondeck/missiondeck/internal/schema"
)

// Base supplies the documented neutral defaults for every optional capability
// of the Mediator contract. Backend adapters embed Base and implement the
// required methods (FetchAgentData, FetchTaskData, FetchScene, TaskTemplates,
// TaskIDs, CommandOptions, ReceiveCommand); everything else degrades
// gracefully until overridden.
type Base struct {
	mu        sync.RWMutex
	callbacks UICallbacks
}

// TemplateContent treats the template name as its own content. This is the
// graceful-degradation default for backends that cannot resolve template
// bodies, not a bug.
func (b *Base) TemplateContent(name string) string { return name }

// TaskGraphData returns the empty spring-layout graph. Absence of a
// dependency model is a valid steady state.
func (b *Base) TaskGraphData() schema.TaskGraph { return schema.EmptyTaskGraph() }

// SimulationRunning reports no time-stepping capability.
func (b *Base) SimulationRunning() bool { return false }

// StepSimulation reports no time-stepping capability.
func (b *Base) StepSimulation() bool { return false }

// CurrentTime reports no time-stepping capability.
func (b *Base) CurrentTime() float64 { return 0.0 }

// PlannerOptions reports no selectable planners.
func (b *Base) PlannerOptions() (red, blue []string) { return nil, nil }

// HandleSceneEvent ignores scene interaction.
func (b *Base) HandleSceneEvent(ev schema.SceneEvent) {}

// HandlePlannerSelection ignores planner selection.
func (b *Base) HandlePlannerSelection(side schema.PlannerSide, planner string) {}

// ImportBackgroundFile ignores background ingestion.
func (b *Base) ImportBackgroundFile(path string) error { return nil }

// ImportVectorFile ignores vector ingestion.
func (b *Base) ImportVectorFile(path string) error { return nil }

// SetUICallbacks stores the UI effect registry.
func (b *Base) SetUICallbacks(cb UICallbacks) {
	b.mu.Lock()
	b.callbacks = cb
	b.mu.Unlock()
}

// Notify forwards a notification to the registered sink. An unregistered sink
// is silently skipped.
func (b *Base) Notify(message string, level NotificationLevel, duration time.Duration) {
	b.mu.RLock()
	sink := b.callbacks.Notifications
	b.mu.RUnlock()
	if sink == nil {
		return
	}
	sink.ShowNotification(message, level, duration)
}
