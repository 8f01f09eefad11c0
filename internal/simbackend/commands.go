package simbackend

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/missiondeck/missiondeck/internal/mediator"
	"github.com/missiondeck/missiondeck/internal/schema"
)

// targetHitRadius is the scene-unit distance within which a double-click
// toggles an existing target instead of placing a new one.
const targetHitRadius = 3.0

// ReceiveCommand validates and applies a command envelope. Invalid envelopes
// and unknown references are rejected with a notification; nothing mutates on
// a rejected command.
func (b *Backend) ReceiveCommand(cmd schema.Command) bool {
	if err := cmd.Validate(); err != nil {
		b.logger.Warn("rejected command",
			zap.String("kind", string(cmd.Kind())), zap.Error(err))
		b.Notify(fmt.Sprintf("Command rejected: %v", err), mediator.NotifyError, 4*time.Second)
		return false
	}

	ok := b.applyCommand(cmd)
	if ok && b.store != nil {
		if err := b.store.RecordCommand(cmd); err != nil {
			b.logger.Warn("command log write failed", zap.Error(err))
		}
	}
	return ok
}

func (b *Backend) applyCommand(cmd schema.Command) bool {
	switch c := cmd.(type) {
	case schema.CreateTask:
		return b.createTask(c)
	case schema.UpdateTask:
		return b.updateTask(c)
	case schema.Replan:
		return b.replan()
	case schema.StartSimulation:
		b.setRunning(true)
		b.Notify("Simulation started", mediator.NotifySuccess, 2*time.Second)
		return true
	case schema.UserCommand:
		return b.userCommand(c)
	default:
		b.logger.Warn("unhandled command type", zap.String("kind", string(cmd.Kind())))
		return false
	}
}

func (b *Backend) createTask(c schema.CreateTask) bool {
	b.mu.Lock()
	id := fmt.Sprintf("task_%d", b.nextTaskSeq)
	b.nextTaskSeq++
	b.tasks = append(b.tasks, schema.Task{
		ID:          id,
		Type:        "custom",
		Area:        "TBD",
		CoalitionID: schema.UnassignedCoalition,
		Status:      schema.TaskPending,
		StartTime:   b.currentTime,
		Duration:    10,
		LTL:         fmt.Sprintf("F done_%s", id),
	})
	b.mu.Unlock()

	b.logger.Info("task created",
		zap.String("task_id", id),
		zap.String("template", c.Template),
		zap.String("instruction", c.Instruction))
	b.Notify(fmt.Sprintf("Task %s created", id), mediator.NotifySuccess, 2*time.Second)
	return true
}

func (b *Backend) updateTask(c schema.UpdateTask) bool {
	var status schema.TaskStatus
	switch c.Command {
	case "pause":
		status = schema.TaskPending
	case "resume":
		status = schema.TaskExecuting
	case "cancel":
		status = schema.TaskCancelled
	case "emergency_stop":
		status = schema.TaskFailed
	default:
		b.logger.Warn("unknown task command", zap.String("command", c.Command))
		b.Notify(fmt.Sprintf("Unknown task command %q", c.Command), mediator.NotifyError, 3*time.Second)
		return false
	}

	b.mu.Lock()
	updated := false
	for i := range b.tasks {
		if b.tasks[i].ID == c.TaskID {
			b.tasks[i].Status = status
			updated = true
			break
		}
	}
	b.mu.Unlock()

	if !updated {
		b.logger.Warn("task not found", zap.String("task_id", c.TaskID))
		b.Notify(fmt.Sprintf("No task %q", c.TaskID), mediator.NotifyError, 3*time.Second)
		return false
	}
	b.Notify(fmt.Sprintf("Task %s: %s", c.TaskID, c.Command), mediator.NotifyInfo, 2*time.Second)
	return true
}

// replan promotes every coalition's replan schedule to the active one and
// keeps the old schedule as the next replan candidate.
func (b *Backend) replan() bool {
	b.mu.Lock()
	for i := range b.coalitions {
		c := &b.coalitions[i]
		c.Schedule, c.ReplanSchedule = c.ReplanSchedule, c.Schedule
	}
	b.mu.Unlock()

	b.logger.Info("replan applied")
	b.Notify("Replan applied", mediator.NotifySuccess, 2*time.Second)
	return true
}

func (b *Backend) userCommand(c schema.UserCommand) bool {
	instruction := strings.ToLower(c.Instruction)
	switch {
	case strings.Contains(instruction, "start"):
		b.setRunning(true)
		b.Notify("Simulation started", mediator.NotifySuccess, 2*time.Second)
	case strings.Contains(instruction, "stop"):
		b.setRunning(false)
		b.Notify("Simulation stopped", mediator.NotifyInfo, 2*time.Second)
	default:
		b.logger.Info("user command received",
			zap.String("kind", string(c.Kind())),
			zap.String("instruction", c.Instruction))
	}
	return true
}

func (b *Backend) setRunning(running bool) {
	b.mu.Lock()
	b.running = running
	b.mu.Unlock()
	b.logger.Info("simulation state changed", zap.Bool("running", running))
}

// HandleSceneEvent applies scene edits. A double-click on the design panel
// toggles the nearest target off when one is in range, otherwise places a new
// active target at the click position. View-panel events are informational.
func (b *Backend) HandleSceneEvent(ev schema.SceneEvent) {
	if ev.Source != schema.EventSourceDesign || ev.Type != schema.EventMouseDoubleClick {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.targets {
		d := math.Hypot(b.targets[i].x-ev.ScenePos.X, b.targets[i].y-ev.ScenePos.Y)
		if d <= targetHitRadius {
			b.targets[i].active = !b.targets[i].active
			b.logger.Info("target toggled",
				zap.Float64("x", b.targets[i].x),
				zap.Float64("y", b.targets[i].y),
				zap.Bool("active", b.targets[i].active))
			return
		}
	}
	b.targets = append(b.targets, simTarget{x: ev.ScenePos.X, y: ev.ScenePos.Y, active: true})
	b.logger.Info("target placed",
		zap.Float64("x", ev.ScenePos.X), zap.Float64("y", ev.ScenePos.Y))
}

// ImportBackgroundFile records the background image reference for the scene.
func (b *Backend) ImportBackgroundFile(path string) error {
	b.mu.Lock()
	b.background = path
	b.mu.Unlock()

	b.logger.Info("background imported", zap.String("path", path))
	b.Notify("Background image loaded", mediator.NotifyInfo, 2*time.Second)
	return nil
}

// BackgroundFile returns the last imported background reference.
func (b *Backend) BackgroundFile() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.background
}

// ImportVectorFile loads a JSON array of regions and replaces the scene
// overlay set. An unreadable or unparseable file leaves the scene untouched.
func (b *Backend) ImportVectorFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		b.logger.Warn("vector file unreadable", zap.String("path", path), zap.Error(err))
		return mediator.E(mediator.KindRenderFailure, "import_vector_file", err)
	}

	var regions []schema.Region
	if err := json.Unmarshal(data, &regions); err != nil {
		b.logger.Warn("vector file unparseable", zap.String("path", path), zap.Error(err))
		b.Notify("Vector file could not be parsed", mediator.NotifyWarning, 3*time.Second)
		return mediator.E(mediator.KindRenderFailure, "import_vector_file", err)
	}
	for _, r := range regions {
		if err := r.Validate(); err != nil {
			b.logger.Warn("vector file rejected", zap.String("path", path), zap.Error(err))
			b.Notify("Vector file contains invalid regions", mediator.NotifyWarning, 3*time.Second)
			return mediator.E(mediator.KindRenderFailure, "import_vector_file", err)
		}
	}

	b.mu.Lock()
	b.regions = regions
	b.mu.Unlock()

	b.logger.Info("vector overlay imported",
		zap.String("path", path), zap.Int("regions", len(regions)))
	b.Notify(fmt.Sprintf("Loaded %d regions", len(regions)), mediator.NotifyInfo, 2*time.Second)
	return nil
}
