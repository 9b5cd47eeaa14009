package domain

import "time"

type IncidentType string

const (
	IncidentAccessDenied IncidentType = "access_denied"
	IncidentTraffic      IncidentType = "traffic"
	IncidentVehicleIssue IncidentType = "vehicle_issue"
	IncidentOverload     IncidentType = "overload"
	IncidentOther        IncidentType = "other"
)

func (t IncidentType) Valid() bool {
	switch t {
	case IncidentAccessDenied, IncidentTraffic, IncidentVehicleIssue, IncidentOverload, IncidentOther:
		return true
	}
	return false
}

// A field problem reported against a stop.
type Incident struct {
	ID          int64
	StopID      int64
	Type        IncidentType
	Description *string
	PhotoURL    *string
	CreatedBy   *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Resolved    bool
	ResolvedAt  *time.Time
}

func (i *Incident) Resolve(now time.Time) error {
	if i.Resolved {
		return ErrIncidentResolved
	}
	t := now
	i.Resolved = true
	i.ResolvedAt = &t
	i.UpdatedAt = now
	return nil
}
