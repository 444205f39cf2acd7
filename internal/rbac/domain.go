package rbac

import (
	"strconv"

	"github.com/inkwell-blog/inkwell/internal/shared"
)

// Principal describes the caller of a request: an authenticated user or
// anonymous. The zero value is anonymous.
type Principal struct {
	userID        int64
	admin         bool
	authenticated bool
}

// Anonymous returns the principal used when no credential was presented.
func Anonymous() Principal {
	return Principal{}
}

// Authenticated returns a principal for a resolved user.
func Authenticated(userID int64, admin bool) Principal {
	return Principal{userID: userID, admin: admin, authenticated: true}
}

// IsAuthenticated reports whether the principal was resolved from a credential.
func (p Principal) IsAuthenticated() bool { return p.authenticated }

// UserID returns the user id; zero for anonymous.
func (p Principal) UserID() int64 { return p.userID }

// IsAdmin reports whether the principal is administrator-class.
func (p Principal) IsAdmin() bool { return p.authenticated && p.admin }

func (p Principal) String() string {
	if !p.authenticated {
		return "anonymous"
	}
	return "user:" + strconv.FormatInt(p.userID, 10)
}

// Action is the operation a principal attempts on a post.
type Action int

const (
	ActionRead Action = iota + 1
	ActionCreate
	ActionWrite
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionRead:
		return "read"
	case ActionCreate:
		return "create"
	case ActionWrite:
		return "write"
	case ActionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Reason explains a denial.
type Reason string

const (
	ReasonAuthenticationRequired Reason = "authentication required"
	ReasonNotAuthorized          Reason = "not authorized"
)

// Decision is the outcome of a policy evaluation.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Allow is the permitting decision.
func Allow() Decision { return Decision{Allowed: true} }

// Deny builds a denial with reason.
func Deny(reason Reason) Decision { return Decision{Reason: reason} }

func (d Decision) String() string {
	if d.Allowed {
		return "allow"
	}
	return "deny(" + string(d.Reason) + ")"
}

// Err converts a denial into the matching shared sentinel; nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	if d.Reason == ReasonAuthenticationRequired {
		return shared.ErrAuthenticationRequired
	}
	return shared.ErrNotAuthorized
}
