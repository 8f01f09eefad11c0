package tui

import (
	"time"

	"github.com/missiondeck/missiondeck/internal/mediator"
	"github.com/missiondeck/missiondeck/internal/schema"
)

// Messages delivered into the bubbletea loop. Refresh data arrives through
// the updates channel; these are the envelope types it carries.

type agentDataMsg struct {
	data schema.AgentData
}

type taskDataMsg struct {
	data schema.TaskData
}

type sceneMsg struct {
	scene   schema.SceneSnapshot
	running bool
}

type graphMsg struct {
	graph schema.TaskGraph
}

type optionsMsg struct {
	taskIDs        []string
	commandOptions []string
}

type notificationMsg struct {
	text     string
	level    mediator.NotificationLevel
	duration time.Duration
}

type notificationExpiredMsg struct {
	seq int
}

type commandResultMsg struct {
	message string
}

type errMsg struct {
	err error
}
