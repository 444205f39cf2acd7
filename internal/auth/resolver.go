package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/inkwell-blog/inkwell/internal/rbac"
	"github.com/inkwell-blog/inkwell/internal/shared"
)

// Scheme is the Authorization header keyword for token credentials.
const Scheme = "Token"

// Resolver turns a request credential into a principal.
type Resolver struct {
	store TokenStore
}

// NewResolver builds a Resolver backed by store.
func NewResolver(store TokenStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve maps a credential to a principal. A nil or empty credential yields
// the anonymous principal; a key unknown to the store yields
// shared.ErrInvalidToken.
func (r *Resolver) Resolve(ctx context.Context, credential *string) (rbac.Principal, error) {
	if credential == nil || *credential == "" {
		return rbac.Anonymous(), nil
	}
	cred, err := r.store.LookupToken(ctx, *credential)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return rbac.Anonymous(), shared.ErrInvalidToken
		}
		return rbac.Anonymous(), fmt.Errorf("auth: lookup token: %w", err)
	}
	return rbac.Authenticated(cred.UserID, cred.IsAdmin), nil
}

// CredentialFromHeader extracts the token key from an Authorization header
// value. Headers using another scheme are ignored (nil, nil) so other
// authenticators could claim them; a malformed Token header is an error.
func CredentialFromHeader(header string) (*string, error) {
	parts := strings.Fields(header)
	if len(parts) == 0 || !strings.EqualFold(parts[0], Scheme) {
		return nil, nil
	}
	if len(parts) != 2 {
		return nil, shared.ErrInvalidToken
	}
	key := parts[1]
	return &key, nil
}
