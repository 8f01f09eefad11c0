package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/missiondeck/missiondeck/internal/schema"
)

// executeCommand parses a command-bar line, builds the matching envelope, and
// pushes it to the mediator off the UI goroutine.
func (a *App) executeCommand(line string) tea.Cmd {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}

	verb := parts[0]
	args := parts[1:]

	// The closure runs on a bubbletea command goroutine while Update keeps
	// mutating the model, so it only reads snapshots taken here.
	taskIDs := append([]string(nil), a.taskIDs...)
	cmdOpts := append([]string(nil), a.cmdOpts...)

	return func() tea.Msg {
		switch verb {
		case "task", "add":
			if len(args) < 1 {
				return commandResultMsg{"Usage: task <instruction>"}
			}
			instruction := strings.Join(args, " ")
			return a.deliver(schema.NewCreateTask(instruction, ""))

		case "template":
			if len(args) < 1 {
				names := a.med.TaskTemplates()
				if len(names) == 0 {
					return commandResultMsg{"No templates available"}
				}
				return commandResultMsg{"Templates: " + strings.Join(names, ", ")}
			}
			name := args[0]
			content := a.med.TemplateContent(name)
			return a.deliver(schema.NewCreateTask(content, name))

		case "update":
			if len(args) < 2 {
				usage := "Usage: update <task-id> <command>"
				if len(cmdOpts) > 0 {
					usage += " (commands: " + strings.Join(cmdOpts, ", ") + ")"
				}
				return commandResultMsg{usage}
			}
			return a.deliver(schema.NewUpdateTask(args[0], args[1]))

		case "replan":
			return a.deliver(schema.NewReplan())

		case "start":
			return a.deliver(schema.NewStartSimulation())

		case "stop":
			return a.deliver(schema.NewUserCommand("stop"))

		case "say":
			if len(args) < 1 {
				return commandResultMsg{"Usage: say <instruction>"}
			}
			return a.deliver(schema.NewUserCommand(strings.Join(args, " ")))

		case "planner":
			if len(args) < 2 {
				red, blue := a.med.PlannerOptions()
				return commandResultMsg{fmt.Sprintf(
					"Usage: planner red|blue <name> (red: %s; blue: %s)",
					strings.Join(red, ", "), strings.Join(blue, ", "))}
			}
			side := schema.PlannerSide(args[0])
			if side != schema.PlannerRed && side != schema.PlannerBlue {
				return commandResultMsg{"Side must be red or blue"}
			}
			a.med.HandlePlannerSelection(side, args[1])
			return commandResultMsg{fmt.Sprintf("✓ %s planner set to %s", side, args[1])}

		case "background":
			if len(args) < 1 {
				return commandResultMsg{"Usage: background <path>"}
			}
			if err := a.med.ImportBackgroundFile(args[0]); err != nil {
				return errMsg{err}
			}
			return commandResultMsg{"✓ Background imported"}

		case "vector":
			if len(args) < 1 {
				return commandResultMsg{"Usage: vector <path>"}
			}
			if err := a.med.ImportVectorFile(args[0]); err != nil {
				return errMsg{err}
			}
			return commandResultMsg{"✓ Vector overlay imported"}

		case "tasks":
			if len(taskIDs) == 0 {
				return commandResultMsg{"No tasks"}
			}
			return commandResultMsg{"Task ids: " + strings.Join(taskIDs, ", ")}

		case "q", "quit", "exit":
			return tea.Quit()

		default:
			// Anything unrecognized travels as a free-text command; the
			// backend decides what it means.
			return a.deliver(schema.NewUserCommand(line))
		}
	}
}

// deliver pushes one envelope and folds the verdict into a result message.
func (a *App) deliver(cmd schema.Command) tea.Msg {
	if a.med.ReceiveCommand(cmd) {
		return commandResultMsg{fmt.Sprintf("✓ %s accepted", cmd.Kind())}
	}
	return commandResultMsg{fmt.Sprintf("✗ %s rejected", cmd.Kind())}
}
