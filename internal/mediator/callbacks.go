package mediator

import "time"

// NotificationLevel classifies a user-facing notification.
type NotificationLevel string

const (
	NotifyInfo    NotificationLevel = "info"
	NotifySuccess NotificationLevel = "success"
	NotifyWarning NotificationLevel = "warning"
	NotifyError   NotificationLevel = "error"
)

// NotificationSink receives backend-initiated notifications. The UI layer
// implements it; mediators call it through Base.Notify without ever holding a
// UI reference.
type NotificationSink interface {
	ShowNotification(message string, level NotificationLevel, duration time.Duration)
}

// UICallbacks is the typed registry of UI effects a backend may request. Any
// nil member is simply skipped, never an error.
type UICallbacks struct {
	Notifications NotificationSink
}
