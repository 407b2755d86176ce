package models

// UnknownEventName is shown when an event name cannot be resolved.
const UnknownEventName = "Unknown Event"

type Event struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
