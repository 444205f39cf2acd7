package auth

import "time"

// User is the slice of an account that authentication needs.
type User struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string
	IsActive     bool
	IsStaff      bool
	IsSuperuser  bool
}

// IsAdmin reports whether the account is administrator-class.
func (u User) IsAdmin() bool {
	return u.IsStaff || u.IsSuperuser
}

// Token is the opaque bearer credential issued to a user.
type Token struct {
	Key     string
	UserID  int64
	Created time.Time
}

// Credential is what the credential store yields for a valid token.
type Credential struct {
	UserID  int64 `json:"user_id"`
	IsAdmin bool  `json:"is_admin"`
}
