package domain

import "time"

// DefaultActorName is used when the request carries no identity
const DefaultActorName = "System Administrator"

// Actor identifies who triggered a change
type Actor struct {
	Name  string
	Email string
}

// DisplayName returns the actor name or the system fallback
func (a Actor) DisplayName() string {
	if a.Name == "" {
		return DefaultActorName
	}
	return a.Name
}

// Action is the kind of change a notification reports
type Action string

const (
	ActionCreated       Action = "created"
	ActionUpdated       Action = "updated"
	ActionDeleted       Action = "deleted"
	ActionStatusChanged Action = "status-changed"
)

// ActionInfo describes a change for stakeholder notifications
type ActionInfo struct {
	Action     Action    `json:"action"`
	ActorName  string    `json:"actorName"`
	ActorEmail string    `json:"actorEmail,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Reason     string    `json:"reason"`
}
