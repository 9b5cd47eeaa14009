package domain

import "time"

type StopEventType string

const (
	EventStart       StopEventType = "start"
	EventArrived     StopEventType = "arrived"
	EventLoading     StopEventType = "loading"
	EventUnloading   StopEventType = "unloading"
	EventDone        StopEventType = "done"
	EventSkipped     StopEventType = "skipped"
	EventUnavailable StopEventType = "unavailable"
	EventComment     StopEventType = "comment"
)

var eventStatus = map[StopEventType]StopStatus{
	EventStart:       StopEnroute,
	EventArrived:     StopArrived,
	EventLoading:     StopLoading,
	EventUnloading:   StopUnloading,
	EventDone:        StopDone,
	EventSkipped:     StopSkipped,
	EventUnavailable: StopUnavailable,
}

func (t StopEventType) Valid() bool {
	if t == EventComment {
		return true
	}
	_, ok := eventStatus[t]
	return ok
}

// TargetStatus returns the stop status an event implies. Comments imply none.
func (t StopEventType) TargetStatus() (StopStatus, bool) {
	s, ok := eventStatus[t]
	return s, ok
}

// EventTypeFor returns the event recorded when a stop enters status s.
func EventTypeFor(s StopStatus) StopEventType {
	for t, st := range eventStatus {
		if st == s {
			return t
		}
	}
	return EventComment
}

// Append-only audit record attached to a stop.
type StopEvent struct {
	ID        int64
	StopID    int64
	Type      StopEventType
	CreatedAt time.Time
	PhotoURL  *string
	Comment   *string
}
