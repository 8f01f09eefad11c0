package simbackend

import "github.com/missiondeck/missiondeck/internal/schema"

var (
	friendlyColors  = []string{"#FF0000", "#FF4444", "#FF6666", "#FF8888", "#FFAAAA", "#FFCCCC"}
	enemyColors     = []string{"#0000FF", "#4444FF", "#6666FF", "#8888FF", "#AAAAFF", "#CCCCFF"}
	friendlySymbols = []string{"o", "s", "t", "d", "s", "o"}
	enemySymbols    = []string{"+", "d", "t", "s", "o", "+"}
)

const targetColor = "#223399"

var redPlanners = []string{"greedy", "auction", "milp"}

var bluePlanners = []string{"random_walk", "pursuit"}

var defaultTemplates = map[string]string{
	"patrol_template":    "Patrol the designated area and keep it secure. Route: from waypoint A to waypoint B via checkpoints C, D and E.",
	"survey_template":    "Survey the target area and collect intelligence. Coverage: the rectangle from (10,20) to (50,60).",
	"search_template":    "Search for and localize the designated target. Target profile: red marker, medium speed. Search radius: 100 m.",
	"rescue_template":    "Execute an emergency rescue at (30,40). Priority: high. Estimated duration: 30 minutes.",
	"transport_template": "Transport supplies from (0,0) to (100,100). Cargo: medical supplies. Carrier: transport drone.",
}

func seedCoalitions() []schema.Coalition {
	return []schema.Coalition{
		{
			ID:          0,
			CurrentTask: "task_1 patrol",
			Members:     []int{1, 2, 3},
			Schedule: []schema.ScheduleEntry{
				{Start: 0, End: 5, Task: schema.IdleTask, Color: "silver"},
				{Start: 5, End: 10, Task: "task_1 patrol", Color: "lightblue"},
				{Start: 10, End: 15, Task: "task_2 surveillance", Color: "lightgreen"},
			},
			ReplanSchedule: []schema.ScheduleEntry{
				{Start: 0, End: 8, Task: "replan task_a", Color: "orange"},
				{Start: 8, End: 16, Task: "replan task_b", Color: "purple"},
			},
		},
		{
			ID:          1,
			CurrentTask: "task_3 search",
			Members:     []int{4, 5},
			Schedule: []schema.ScheduleEntry{
				{Start: 0, End: 6, Task: schema.IdleTask, Color: "silver"},
				{Start: 6, End: 12, Task: "task_3 search", Color: "lightyellow"},
				{Start: 12, End: 18, Task: "task_4 transport", Color: "lightpink"},
			},
			ReplanSchedule: []schema.ScheduleEntry{
				{Start: 0, End: 7, Task: "replan task_c", Color: "cyan"},
				{Start: 7, End: 14, Task: "replan task_d", Color: "magenta"},
			},
		},
		{
			ID:          2,
			CurrentTask: schema.IdleTask,
			Members:     []int{6, 7, 8, 9},
			Schedule: []schema.ScheduleEntry{
				{Start: 0, End: 10, Task: schema.IdleTask, Color: "silver"},
			},
			ReplanSchedule: []schema.ScheduleEntry{
				{Start: 0, End: 10, Task: "standby", Color: "gray"},
			},
		},
	}
}

func seedFriendlyAgents() []simAgent {
	return []simAgent{
		{id: "uav_1", agentType: "recon_drone", coalitionID: 0, status: schema.AgentWorking, x: 20, y: 30},
		{id: "uav_2", agentType: "strike_drone", coalitionID: 0, status: schema.AgentWorking, x: 25, y: 35},
		{id: "uav_3", agentType: "transport_drone", coalitionID: 0, status: schema.AgentWorking, x: 22, y: 32},
		{id: "uav_4", agentType: "recon_drone", coalitionID: 1, status: schema.AgentWorking, x: 60, y: 70},
		{id: "uav_5", agentType: "strike_drone", coalitionID: 1, status: schema.AgentWorking, x: 65, y: 75},
		{id: "uav_6", agentType: "recon_drone", coalitionID: 2, status: schema.AgentIdle, x: 40, y: 50},
		{id: "uav_7", agentType: "strike_drone", coalitionID: 2, status: schema.AgentIdle, x: 45, y: 55},
		{id: "uav_8", agentType: "transport_drone", coalitionID: 2, status: schema.AgentCharging, x: 50, y: 50},
		{id: "uav_9", agentType: "recon_drone", coalitionID: 2, status: schema.AgentIdle, x: 42, y: 52},
	}
}

func seedEnemyAgents() []simAgent {
	return []simAgent{
		{id: "hostile_10", agentType: "recon_drone", status: schema.AgentUnknown, x: 10, y: 10},
		{id: "hostile_11", agentType: "strike_drone", status: schema.AgentUnknown, x: 15, y: 15},
		{id: "hostile_12", agentType: "recon_drone", status: schema.AgentUnknown, x: 80, y: 20},
		{id: "hostile_13", agentType: "strike_drone", status: schema.AgentUnknown, x: 85, y: 25},
	}
}

func seedTasks() []schema.Task {
	return []schema.Task{
		{ID: "task_1", Type: "patrol", Area: "A1", CoalitionID: 0, Status: schema.TaskExecuting,
			StartTime: 5, Duration: 5, LTL: "G (p1 -> F p2)"},
		{ID: "task_2", Type: "surveillance", Area: "B2", CoalitionID: 0, Status: schema.TaskPending,
			StartTime: 10, Duration: 5, LTL: "G (p2 -> X p3)"},
		{ID: "task_3", Type: "search", Area: "C3", CoalitionID: 1, Status: schema.TaskExecuting,
			StartTime: 6, Duration: 6, LTL: "F (p4 & p5)"},
		{ID: "task_4", Type: "transport", Area: "D4", CoalitionID: 1, Status: schema.TaskPending,
			StartTime: 12, Duration: 6, LTL: "G (p6 -> F p7)"},
		{ID: "task_5", Type: "rescue", Area: "E5", CoalitionID: schema.UnassignedCoalition, Status: schema.TaskPending,
			StartTime: 0, Duration: 0, LTL: "G (p8 -> X p9)"},
	}
}

func seedTargets() []simTarget {
	return []simTarget{
		{x: 30, y: 40, active: true},
		{x: 70, y: 80, active: true},
		{x: 50, y: 60, active: false},
	}
}

func seedRegions() []schema.Region {
	return []schema.Region{
		{Kind: schema.RegionCircle, Center: schema.Point{X: 35, Y: 45}, Radius: 8, Color: "#AAAAAA"},
		{Kind: schema.RegionPolygon, Color: "#DDD700", Points: []schema.Point{
			{X: 60, Y: 70}, {X: 80, Y: 70}, {X: 80, Y: 90}, {X: 60, Y: 90},
		}},
		{Kind: schema.RegionCircle, Center: schema.Point{X: 45, Y: 55}, Radius: 5, Color: "#FFAAAA"},
	}
}
