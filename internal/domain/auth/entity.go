package auth

type Role string

const (
	RoleOwner    Role = "owner"    // full access
	RoleManager  Role = "manager"  // approves leave, corrects attendance, runs payroll
	RoleEmployee Role = "employee" // own attendance and leave only
)

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleManager, RoleEmployee:
		return true
	}
	return false
}

// Actor is the authenticated caller as read from access token claims.
type Actor struct {
	UserID     string
	EmployeeID string
	Role       Role
}

// ID is recorded on decisions and audit entries: the employee when the
// token is linked to one, the user otherwise.
func (a Actor) ID() string {
	if a.EmployeeID != "" {
		return a.EmployeeID
	}
	return a.UserID
}

func (a Actor) IsManager() bool {
	return a.Role == RoleManager || a.Role == RoleOwner
}

// ActorFromClaims reads user_id, employee_id and role from token claims.
// employee_id is optional; owners need not be employees.
func ActorFromClaims(claims map[string]interface{}) (Actor, error) {
	userID, _ := claims["user_id"].(string)
	role, _ := claims["role"].(string)
	if userID == "" || !Role(role).Valid() {
		return Actor{}, ErrInvalidToken
	}

	employeeID, _ := claims["employee_id"].(string)
	return Actor{UserID: userID, EmployeeID: employeeID, Role: Role(role)}, nil
}

// ResolveEmployee picks the employee a request acts on. Employees may only
// act on themselves; managers may name anyone.
func (a Actor) ResolveEmployee(requested string) (string, error) {
	if requested == "" || requested == a.EmployeeID {
		if a.EmployeeID == "" {
			return "", ErrNoEmployeeLinked
		}
		return a.EmployeeID, nil
	}
	if !a.IsManager() {
		return "", ErrEmployeeMismatch
	}
	return requested, nil
}
