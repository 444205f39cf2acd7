package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates a presented token that does not resolve to a user.
	ErrInvalidToken = errors.New("invalid token")
	// ErrAuthenticationRequired indicates the action needs a credential and none was supplied.
	ErrAuthenticationRequired = errors.New("authentication required")
	// ErrNotAuthorized indicates a valid principal without rights over the resource.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrDuplicate indicates a unique constraint violation.
	ErrDuplicate = errors.New("duplicate entry")
)
