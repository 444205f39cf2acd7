package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-blog/inkwell/internal/auth"
	"github.com/inkwell-blog/inkwell/internal/shared"
)

func strPtr(s string) *string { return &s }

func TestResolve(t *testing.T) {
	repo := newStubRepo()
	repo.addUser(auth.User{ID: 1, Email: "bob@test.com", Username: "bob", IsActive: true}, "password1")
	repo.addUser(auth.User{ID: 2, Email: "root@test.com", Username: "root", IsActive: true, IsStaff: true}, "password1")
	repo.addToken(1, "userkey", time.Now())
	repo.addToken(2, "adminkey", time.Now())
	resolver := auth.NewResolver(repo)
	ctx := context.Background()

	p, err := resolver.Resolve(ctx, nil)
	require.NoError(t, err)
	assert.False(t, p.IsAuthenticated())

	p, err = resolver.Resolve(ctx, strPtr(""))
	require.NoError(t, err)
	assert.False(t, p.IsAuthenticated())

	p, err = resolver.Resolve(ctx, strPtr("userkey"))
	require.NoError(t, err)
	assert.True(t, p.IsAuthenticated())
	assert.Equal(t, int64(1), p.UserID())
	assert.False(t, p.IsAdmin())

	p, err = resolver.Resolve(ctx, strPtr("adminkey"))
	require.NoError(t, err)
	assert.True(t, p.IsAdmin())

	_, err = resolver.Resolve(ctx, strPtr("nope"))
	assert.ErrorIs(t, err, shared.ErrInvalidToken)
}

func TestResolveStoreFailureIsNotInvalidToken(t *testing.T) {
	repo := newStubRepo()
	repo.failErr = errors.New("connection refused")

	_, err := auth.NewResolver(repo).Resolve(context.Background(), strPtr("anything"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, shared.ErrInvalidToken))
}

func TestCredentialFromHeader(t *testing.T) {
	tests := []struct {
		header  string
		want    *string
		wantErr bool
	}{
		{header: "", want: nil},
		{header: "Bearer abc", want: nil},
		{header: "Token abc", want: strPtr("abc")},
		{header: "token abc", want: strPtr("abc")},
		{header: "Token", wantErr: true},
		{header: "Token a b", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, err := auth.CredentialFromHeader(tt.header)
			if tt.wantErr {
				assert.ErrorIs(t, err, shared.ErrInvalidToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateKey(t *testing.T) {
	a, err := auth.GenerateKey()
	require.NoError(t, err)
	b, err := auth.GenerateKey()
	require.NoError(t, err)

	assert.Len(t, a, auth.KeyLength)
	assert.NotEqual(t, a, b)
}
