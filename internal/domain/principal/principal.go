// internal/domain/principal/principal.go
package principal

// Role markers. DRIVER belongs to the driver-app credential family and is
// never a portal role.
const (
	RoleManagement = "MANAGEMENT"
	RoleStaff      = "STAFF"
	RoleDriver     = "DRIVER"
)

// Principal is the resolved identity behind an authenticated request. It is
// a closed union: Portal or Driver. Handlers always receive one of the two
// concrete types, never a half-resolved value.
type Principal interface {
	PrincipalID() string
	isPrincipal()
}

// Portal is a back-office user with a role consulted by the role guard.
type Portal struct {
	UserID    string
	Role      string
	SessionID string
}

func (p Portal) PrincipalID() string { return p.UserID }
func (Portal) isPrincipal()          {}

// Driver is a driver-app caller. It carries no portal role; the role guard
// denies it on any portal surface.
type Driver struct {
	DriverID string
}

func (d Driver) PrincipalID() string { return d.DriverID }
func (Driver) isPrincipal()          {}
