package authclient

// Requirement defines a public type used by authclient APIs.
//
// Requirement instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Requirement uint8

const (
	// RequireUserRole is an exported constant or variable used by the session engine.
	RequireUserRole Requirement = iota
	// RequireAdminOnly is an exported constant or variable used by the session engine.
	RequireAdminOnly
	// RequireSuperAdmin is an exported constant or variable used by the session engine.
	RequireSuperAdmin
	// RequireAdmin is an exported constant or variable used by the session engine.
	RequireAdmin
)

// admits reports whether the role satisfies the requirement. Roles are
// exact grants, not a hierarchy: RequireAdminOnly does not admit a
// super admin, and RequireUserRole does not admit an admin. RequireAdmin
// is the one deliberate union, covering both administrative tiers.
func (r Requirement) admits(role Role) bool {
	switch r {
	case RequireUserRole:
		return role == RoleUser
	case RequireAdminOnly:
		return role == RoleAdmin
	case RequireSuperAdmin:
		return role == RoleSuperAdmin
	case RequireAdmin:
		return role == RoleAdmin || role == RoleSuperAdmin
	default:
		return false
	}
}

// DecisionKind defines a public type used by authclient APIs.
//
// DecisionKind instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type DecisionKind uint8

const (
	// DecisionLoading is an exported constant or variable used by the session engine.
	DecisionLoading DecisionKind = iota
	// DecisionAllow is an exported constant or variable used by the session engine.
	DecisionAllow
	// DecisionRedirectLogin is an exported constant or variable used by the session engine.
	DecisionRedirectLogin
	// DecisionRedirectChangePassword is an exported constant or variable used by the session engine.
	DecisionRedirectChangePassword
	// DecisionRedirectHome is an exported constant or variable used by the session engine.
	DecisionRedirectHome
)

// String describes the string operation and its observable behavior.
//
// String may return an error when input validation, dependency calls, or security checks fail.
// String does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (k DecisionKind) String() string {
	switch k {
	case DecisionLoading:
		return "loading"
	case DecisionAllow:
		return "allow"
	case DecisionRedirectLogin:
		return "redirect_login"
	case DecisionRedirectChangePassword:
		return "redirect_change_password"
	case DecisionRedirectHome:
		return "redirect_home"
	default:
		return "unknown"
	}
}

// Route defines a public type used by authclient APIs.
//
// Route instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Route struct {
	// Name identifies the destination, echoed back on a login redirect
	// so the caller can return there after authentication.
	Name string

	// ChangePassword marks the password-change route itself, the one
	// destination a forced-change session may still reach.
	ChangePassword bool

	// Require lists role requirements. All must admit the session's
	// role; an empty list only requires authentication.
	Require []Requirement
}

// Decision defines a public type used by authclient APIs.
//
// Decision instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Decision struct {
	Kind DecisionKind

	// ReturnTo carries the originally requested route name when Kind is
	// DecisionRedirectLogin, empty otherwise.
	ReturnTo string
}

// Authorize describes the authorize operation and its observable behavior.
//
// Authorize may return an error when input validation, dependency calls, or security checks fail.
// Authorize does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func Authorize(state SessionState, route Route) Decision {
	// Never route off a partially hydrated session: until the initial
	// check completes the only answer is "wait".
	if state.Loading {
		return Decision{Kind: DecisionLoading}
	}
	if !state.Authenticated {
		return Decision{Kind: DecisionRedirectLogin, ReturnTo: route.Name}
	}
	// A forced password change outranks every role outcome.
	if state.MustChangePassword && !route.ChangePassword {
		return Decision{Kind: DecisionRedirectChangePassword}
	}
	for _, req := range route.Require {
		if !req.admits(state.User.Role) {
			return Decision{Kind: DecisionRedirectHome}
		}
	}
	return Decision{Kind: DecisionAllow}
}

// Authorize describes the authorize operation and its observable behavior.
//
// Authorize may return an error when input validation, dependency calls, or security checks fail.
// Authorize does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Authorize(route Route) Decision {
	return Authorize(e.State(), route)
}
