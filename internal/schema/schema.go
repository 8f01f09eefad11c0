// Package schema defines the canonical data shapes shared by every mediator
// implementation and every display consumer. Field names and enum strings are
// part of the compatibility surface; producers return fresh copies and
// consumers must not mutate shared state.
package schema

import (
	"fmt"
	"strings"
)

// AgentStatus is the operational state of a single agent.
type AgentStatus string

const (
	AgentIdle        AgentStatus = "idle"
	AgentWorking     AgentStatus = "working"
	AgentReturning   AgentStatus = "returning"
	AgentCharging    AgentStatus = "charging"
	AgentMaintenance AgentStatus = "maintenance"
	AgentUnknown     AgentStatus = "unknown"
)

// Faction distinguishes observed entities by allegiance. Only own agents may
// carry a coalition id.
type Faction string

const (
	FactionOwn   Faction = "own"
	FactionEnemy Faction = "enemy"
)

// PlannerSide selects which faction's planning strategy is being configured.
type PlannerSide string

const (
	PlannerRed  PlannerSide = "red"
	PlannerBlue PlannerSide = "blue"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskExecuting TaskStatus = "executing"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
	TaskCancelled TaskStatus = "cancelled"
)

// IdleTask is the sentinel label for a coalition with no current assignment.
const IdleTask = "idle"

// UnassignedCoalition is the sentinel coalition id for tasks not yet assigned
// to any coalition. Tasks always compare numerically, so the sentinel is -1
// rather than a null.
const UnassignedCoalition = -1

// ScheduleEntry is one block on a coalition's timeline. Start <= End; entries
// should be monotonic for correct rendering but producers are not required to
// sort them.
type ScheduleEntry struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Task  string  `json:"task"`
	Color string  `json:"color"`
}

// Coalition is a group of agents sharing a task assignment and schedule.
// Identity persists across snapshots only by ID equality.
type Coalition struct {
	ID             int             `json:"id"`
	CurrentTask    string          `json:"current_task"`
	Members        []int           `json:"members"`
	Schedule       []ScheduleEntry `json:"schedule"`
	ReplanSchedule []ScheduleEntry `json:"replan_schedule,omitempty"`
}

// Clone returns a deep copy.
func (c Coalition) Clone() Coalition {
	out := c
	out.Members = append([]int(nil), c.Members...)
	out.Schedule = append([]ScheduleEntry(nil), c.Schedule...)
	out.ReplanSchedule = append([]ScheduleEntry(nil), c.ReplanSchedule...)
	return out
}

// Agent is the logical agent entity. CoalitionID is nil for agents whose group
// affiliation is unknown, which is always the case for enemy agents.
type Agent struct {
	ID          string      `json:"id"`
	Type        string      `json:"type"`
	CoalitionID *int        `json:"coalition_id"`
	Status      AgentStatus `json:"status"`
	Faction     Faction     `json:"faction"`
	X           float64     `json:"x"`
	Y           float64     `json:"y"`
}

// AgentData is the result of a full agent fetch: every coalition and every
// agent of both factions, reflecting a single backend instant.
type AgentData struct {
	Coalitions  []Coalition `json:"coalitions"`
	Agents      []Agent     `json:"agents"`
	CurrentTime float64     `json:"current_time"`
}

// Clone returns a deep copy safe to hand to a consumer.
func (d AgentData) Clone() AgentData {
	out := AgentData{CurrentTime: d.CurrentTime}
	out.Coalitions = make([]Coalition, len(d.Coalitions))
	for i, c := range d.Coalitions {
		out.Coalitions[i] = c.Clone()
	}
	out.Agents = make([]Agent, len(d.Agents))
	for i, a := range d.Agents {
		out.Agents[i] = a
		if a.CoalitionID != nil {
			id := *a.CoalitionID
			out.Agents[i].CoalitionID = &id
		}
	}
	return out
}

// Validate checks the cross-entity invariants of an agent snapshot: enemy
// agents carry no coalition id, and every referenced coalition id resolves to
// a coalition in the same snapshot.
func (d AgentData) Validate() error {
	known := make(map[int]bool, len(d.Coalitions))
	for _, c := range d.Coalitions {
		known[c.ID] = true
	}
	for _, a := range d.Agents {
		if a.Faction == FactionEnemy && a.CoalitionID != nil {
			return fmt.Errorf("agent %s: enemy agent has coalition id %d", a.ID, *a.CoalitionID)
		}
		if a.CoalitionID != nil && !known[*a.CoalitionID] {
			return fmt.Errorf("agent %s: coalition id %d not in snapshot", a.ID, *a.CoalitionID)
		}
	}
	return nil
}

// Task is a unit of mission work. LTL is an opaque temporal-logic formula.
type Task struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Area        string     `json:"area"`
	CoalitionID int        `json:"coalition_id"`
	Status      TaskStatus `json:"status"`
	StartTime   float64    `json:"start_time"`
	Duration    float64    `json:"duration"`
	LTL         string     `json:"ltl"`
}

// TaskData is the result of a full task fetch. LTLFormula is the conjunction
// of all task formulas.
type TaskData struct {
	Tasks       []Task  `json:"tasks"`
	LTLFormula  string  `json:"ltl_formula"`
	CurrentTime float64 `json:"current_time"`
}

// Clone returns a deep copy.
func (d TaskData) Clone() TaskData {
	out := d
	out.Tasks = append([]Task(nil), d.Tasks...)
	return out
}

// LTLPlaceholder is returned as the combined formula when there are no tasks.
const LTLPlaceholder = "true"

// CombineLTL joins the tasks' formulas into a single conjunction, each operand
// parenthesized, input order preserved.
func CombineLTL(tasks []Task) string {
	if len(tasks) == 0 {
		return LTLPlaceholder
	}
	parts := make([]string, len(tasks))
	for i, t := range tasks {
		parts[i] = "(" + t.LTL + ")"
	}
	return strings.Join(parts, " & ")
}
