package ports

import "context"

// Repositories bound to a single transaction.
type Repositories interface {
	Ledger() OrderLedger
	Points() PointRepository
	Routes() RouteRepository
	Stops() StopRepository
	StopEvents() StopEventRepository
	Shifts() ShiftDirectory
	Users() UserDirectory
	Incidents() IncidentRepository
}

// Port: transactional boundary of every dispatch operation.
// fn runs inside one transaction; a non-nil return rolls back everything it wrote.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
