package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// CommandKind discriminates the command envelope tagged union.
type CommandKind string

const (
	KindCreateTask      CommandKind = "create_task"
	KindUpdateTask      CommandKind = "update_task"
	KindReplan          CommandKind = "replan"
	KindStartSimulation CommandKind = "start_simulation"
	KindUserCommand     CommandKind = "user_command"
)

// SourceGUI is the provenance tag for commands originating in the shell.
const SourceGUI = "gui"

// Meta carries the fields common to every command envelope. Timestamp is
// ISO-8601.
type Meta struct {
	Timestamp string `json:"timestamp"`
	Source    string `json:"source"`
}

// NewMeta stamps the current time and the given provenance tag.
func NewMeta(source string) Meta {
	return Meta{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Source:    source,
	}
}

func (m Meta) validate() error {
	if m.Timestamp == "" {
		return errors.New("missing timestamp")
	}
	if m.Source == "" {
		return errors.New("missing source")
	}
	return nil
}

// Command is one member of the command envelope union. Validate rejects
// envelopes missing type-required fields; handlers must return failure for
// invalid envelopes rather than panicking.
type Command interface {
	Kind() CommandKind
	Validate() error
}

// CreateTask requests creation of a task from a free-text instruction,
// optionally seeded from a named template.
type CreateTask struct {
	Instruction string `json:"instruction"`
	Template    string `json:"template,omitempty"`
	Meta
}

func (c CreateTask) Kind() CommandKind { return KindCreateTask }

func (c CreateTask) Validate() error {
	if c.Instruction == "" {
		return errors.New("create_task: missing instruction")
	}
	return c.Meta.validate()
}

// UpdateTask applies a named command option to an existing task.
type UpdateTask struct {
	TaskID  string `json:"task_id"`
	Command string `json:"command"`
	Meta
}

func (c UpdateTask) Kind() CommandKind { return KindUpdateTask }

func (c UpdateTask) Validate() error {
	if c.TaskID == "" {
		return errors.New("update_task: missing task_id")
	}
	if c.Command == "" {
		return errors.New("update_task: missing command")
	}
	return c.Meta.validate()
}

// Replan requests a full replanning pass.
type Replan struct {
	Meta
}

func (c Replan) Kind() CommandKind { return KindReplan }

func (c Replan) Validate() error { return c.Meta.validate() }

// StartSimulation asks the backend to begin advancing simulation time.
type StartSimulation struct {
	Meta
}

func (c StartSimulation) Kind() CommandKind { return KindStartSimulation }

func (c StartSimulation) Validate() error { return c.Meta.validate() }

// UserCommand is the open-ended variant: a free-text instruction under an
// arbitrary type tag. Unknown envelope types decode to this variant so the
// handler can decide, never crash.
type UserCommand struct {
	CommandType CommandKind `json:"-"`
	Instruction string      `json:"instruction"`
	Meta
}

func (c UserCommand) Kind() CommandKind {
	if c.CommandType == "" {
		return KindUserCommand
	}
	return c.CommandType
}

func (c UserCommand) Validate() error {
	if c.Instruction == "" {
		return errors.New("user_command: missing instruction")
	}
	return c.Meta.validate()
}

// NewCreateTask builds a validated-at-construction create_task envelope.
func NewCreateTask(instruction, template string) CreateTask {
	return CreateTask{Instruction: instruction, Template: template, Meta: NewMeta(SourceGUI)}
}

// NewUpdateTask builds an update_task envelope.
func NewUpdateTask(taskID, command string) UpdateTask {
	return UpdateTask{TaskID: taskID, Command: command, Meta: NewMeta(SourceGUI)}
}

// NewReplan builds a replan envelope.
func NewReplan() Replan { return Replan{Meta: NewMeta(SourceGUI)} }

// NewStartSimulation builds a start_simulation envelope.
func NewStartSimulation() StartSimulation { return StartSimulation{Meta: NewMeta(SourceGUI)} }

// NewUserCommand builds a free-text envelope.
func NewUserCommand(instruction string) UserCommand {
	return UserCommand{Instruction: instruction, Meta: NewMeta(SourceGUI)}
}

// envelope is the wire form: the union flattened with a type discriminant.
type envelope struct {
	Type        CommandKind `json:"type"`
	Instruction string      `json:"instruction,omitempty"`
	Template    string      `json:"template,omitempty"`
	TaskID      string      `json:"task_id,omitempty"`
	Command     string      `json:"command,omitempty"`
	Timestamp   string      `json:"timestamp"`
	Source      string      `json:"source"`
}

// EncodeCommand serializes a command to its wire envelope.
func EncodeCommand(cmd Command) ([]byte, error) {
	env := envelope{Type: cmd.Kind()}
	switch c := cmd.(type) {
	case CreateTask:
		env.Instruction = c.Instruction
		env.Template = c.Template
		env.Timestamp, env.Source = c.Timestamp, c.Source
	case UpdateTask:
		env.TaskID = c.TaskID
		env.Command = c.Command
		env.Timestamp, env.Source = c.Timestamp, c.Source
	case Replan:
		env.Timestamp, env.Source = c.Timestamp, c.Source
	case StartSimulation:
		env.Timestamp, env.Source = c.Timestamp, c.Source
	case UserCommand:
		env.Instruction = c.Instruction
		env.Timestamp, env.Source = c.Timestamp, c.Source
	default:
		return nil, fmt.Errorf("encode command: unsupported type %T", cmd)
	}
	return json.Marshal(env)
}

// DecodeCommand parses a wire envelope back into its union member. Unknown
// type tags decode as UserCommand carrying the original tag; validation is
// the receiver's concern, so a well-formed but incomplete envelope decodes
// without error.
func DecodeCommand(data []byte) (Command, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode command: %w", err)
	}
	meta := Meta{Timestamp: env.Timestamp, Source: env.Source}
	switch env.Type {
	case KindCreateTask:
		return CreateTask{Instruction: env.Instruction, Template: env.Template, Meta: meta}, nil
	case KindUpdateTask:
		return UpdateTask{TaskID: env.TaskID, Command: env.Command, Meta: meta}, nil
	case KindReplan:
		return Replan{Meta: meta}, nil
	case KindStartSimulation:
		return StartSimulation{Meta: meta}, nil
	default:
		return UserCommand{CommandType: env.Type, Instruction: env.Instruction, Meta: meta}, nil
	}
}
