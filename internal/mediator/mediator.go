// Package mediator defines the adapter contract between an arbitrary
// mission-planning backend and the fixed set of display components. The
// contract is split into two independent directions: DataProvider (pull-based
// telemetry, backend to UI) and CommandHandler (push-based commands, UI to
// backend). A Mediator implements both.
//
// All methods must return promptly: they run on the UI path, so an
// implementation backed by network I/O has to do that I/O asynchronously and
// answer from its latest cached snapshot.
package mediator

import "github.com/missiondeck/missiondeck/internal/schema"

// DataProvider is the pull side of the contract. Every method is a pure read
// of backend state and returns fresh canonical-shape copies.
//
// Several capabilities are optional; embedding Base supplies their documented
// neutral defaults so a backend only implements what it supports:
//
//   - TemplateContent echoes the template name back.
//   - TaskGraphData returns the empty spring-layout graph.
//   - SimulationRunning / StepSimulation / CurrentTime return false/false/0,
//     meaning no time-stepping capability.
//   - PlannerOptions returns empty lists.
//
// Callers must treat a default value and an explicit backend value
// identically.
type DataProvider interface {
	// FetchAgentData returns all coalitions and all agents of both factions,
	// reflecting a single consistent backend instant. Faction filtering is a
	// consumer concern.
	FetchAgentData() (schema.AgentData, error)

	// FetchTaskData returns all tasks plus the conjunction of their LTL
	// formulas. An empty task set yields a placeholder formula, not an error.
	FetchTaskData() (schema.TaskData, error)

	// FetchScene returns the render-ready scene. A nil timestamp means
	// "current". Backends that support replay may honor a concrete timestamp;
	// backends that don't silently ignore it and return the current scene.
	FetchScene(at *float64) (schema.SceneSnapshot, error)

	// TaskTemplates lists the available task templates. An empty list is a
	// valid steady state; the UI shows a placeholder instead of an empty
	// control.
	TaskTemplates() []string

	// TemplateContent resolves a template name to its instruction text.
	TemplateContent(name string) string

	// TaskGraphData returns the logical dependency graph between tasks.
	TaskGraphData() schema.TaskGraph

	// TaskIDs enumerates the current valid task-id selector values.
	TaskIDs() []string

	// CommandOptions enumerates the current valid command selector values.
	CommandOptions() []string

	// SimulationRunning reports whether backend-driven time advancement is
	// active.
	SimulationRunning() bool

	// StepSimulation advances the simulation by a backend-chosen increment
	// and reports whether the step actually occurred. Callers must not assume
	// a fixed step size.
	StepSimulation() bool

	// CurrentTime returns the current simulation time.
	CurrentTime() float64

	// PlannerOptions lists the selectable planning strategies per faction.
	PlannerOptions() (red, blue []string)
}

// CommandHandler is the push side of the contract. ReceiveCommand is
// required; the remaining hooks are optional with no-op defaults from Base.
type CommandHandler interface {
	// ReceiveCommand accepts a command envelope, performs backend-side
	// effects, and reports success. Malformed-but-well-typed envelopes must
	// yield false, never a panic that could take down the UI event loop.
	ReceiveCommand(cmd schema.Command) bool

	// HandleSceneEvent receives raw scene interaction events. Backends that
	// support scene editing mutate their scene state here; the next scene
	// fetch reflects the change.
	HandleSceneEvent(ev schema.SceneEvent)

	// HandlePlannerSelection switches the active planning strategy for one
	// faction.
	HandlePlannerSelection(side schema.PlannerSide, planner string)

	// ImportBackgroundFile ingests a background image file. The caller is
	// responsible for file existence checks and user-facing dialogs.
	ImportBackgroundFile(path string) error

	// ImportVectorFile ingests a vector overlay file.
	ImportVectorFile(path string) error

	// SetUICallbacks registers the reverse channel for backend-initiated UI
	// effects. Set once at bind time; absent callbacks are silently skipped.
	SetUICallbacks(cb UICallbacks)
}

// Mediator is the full adapter contract.
type Mediator interface {
	DataProvider
	CommandHandler
}
