package services

import (
	"context"
	"waste-dispatch-service/internal/domain"
	"waste-dispatch-service/internal/platform/obs"
	"waste-dispatch-service/internal/ports"
)

type IncidentInput struct {
	Type        domain.IncidentType
	Description *string
	PhotoURL    *string
}

// ReportIncident records a field problem at a stop of the caller's route.
func (d *Dispatcher) ReportIncident(ctx context.Context, routeID, stopID int64, login string, in IncidentInput) (incident domain.Incident, err error) {
	defer obs.Time(ctx, "incidents.report")(&err)

	if !in.Type.Valid() {
		return domain.Incident{}, domain.BadRequest("invalid_incident_type", "unknown incident type %q", in.Type)
	}

	err = d.uow.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		route, err := repos.Routes().Get(ctx, routeID)
		if err != nil {
			return err
		}
		driver, err := assignedDriver(ctx, repos, &route, login)
		if err != nil {
			return err
		}

		stop, err := repos.Stops().Get(ctx, stopID)
		if err != nil {
			return err
		}
		if stop.RouteID != route.ID {
			return domain.ErrStopNotOnRoute
		}

		now := d.now()
		createdBy := driver.ID
		incident = domain.Incident{
			StopID:      stop.ID,
			Type:        in.Type,
			Description: in.Description,
			PhotoURL:    in.PhotoURL,
			CreatedBy:   &createdBy,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return repos.Incidents().Create(ctx, &incident)
	})
	if err != nil {
		return domain.Incident{}, err
	}

	d.log.InfoContext(ctx, "incident reported",
		"incident_id", incident.ID, "stop_id", stopID, "type", incident.Type)
	return incident, nil
}

func (d *Dispatcher) ListIncidents(ctx context.Context, unresolvedOnly bool) (list []domain.Incident, err error) {
	err = d.uow.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		list, err = repos.Incidents().List(ctx, unresolvedOnly)
		return err
	})
	return list, err
}

func (d *Dispatcher) ResolveIncident(ctx context.Context, id int64) (incident domain.Incident, err error) {
	defer obs.Time(ctx, "incidents.resolve")(&err)

	err = d.uow.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		incident, err = repos.Incidents().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := incident.Resolve(d.now()); err != nil {
			return err
		}
		return repos.Incidents().Update(ctx, incident)
	})
	if err != nil {
		return domain.Incident{}, err
	}
	return incident, nil
}
