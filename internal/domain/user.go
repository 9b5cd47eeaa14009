package domain

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleDriver Role = "driver"
	RoleKiosk  Role = "kiosk"
)

type User struct {
	ID    int64
	Login string
	Name  string
	Role  Role
}

// RequireDriver guards driver-initiated operations.
func (u User) RequireDriver() error {
	if u.Role != RoleDriver {
		return ErrNotADriver
	}
	return nil
}

// RequireAssigned guards operations that only the route's driver may perform.
func (u User) RequireAssigned(r *Route) error {
	if err := u.RequireDriver(); err != nil {
		return err
	}
	if !r.IsDrivenBy(u.ID) {
		return ErrNotAssignedDriver
	}
	return nil
}
