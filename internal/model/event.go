package model

// EventStatus is the detector's per-event state machine.
type EventStatus string

const (
	EventUnknown  EventStatus = "unknown"
	EventChecking EventStatus = "checking"
	EventActive   EventStatus = "active"
	EventInactive EventStatus = "inactive"
)
