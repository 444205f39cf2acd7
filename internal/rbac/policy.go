package rbac

// Evaluate decides whether p may perform action on a post owned by owner.
// owner is nil when there is no target post (list, create). isAdmin grants
// write and delete on any post.
//
// Rules apply in order:
//  1. create needs an authenticated principal
//  2. read is always allowed
//  3. write/delete: admins pass, anonymous callers need to authenticate,
//     owners pass, everyone else is not authorized
func Evaluate(p Principal, action Action, owner *int64, isAdmin bool) Decision {
	switch action {
	case ActionCreate:
		if !p.IsAuthenticated() {
			return Deny(ReasonAuthenticationRequired)
		}
		return Allow()
	case ActionRead:
		return Allow()
	case ActionWrite, ActionDelete:
		if isAdmin {
			return Allow()
		}
		if !p.IsAuthenticated() {
			return Deny(ReasonAuthenticationRequired)
		}
		if owner != nil && *owner == p.UserID() {
			return Allow()
		}
		return Deny(ReasonNotAuthorized)
	default:
		return Deny(ReasonNotAuthorized)
	}
}

// Authorize evaluates the policy using the principal's own admin flag and
// returns the denial as an error.
func Authorize(p Principal, action Action, owner *int64) error {
	return Evaluate(p, action, owner, p.IsAdmin()).Err()
}
