package users

import "time"

// User represents a registered account.
type User struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string
	Name         string
	LastName     string
	DateOfBirth  *time.Time
	IsStaff      bool
	IsSuperuser  bool
	IsActive     bool
	DateJoined   time.Time
}

// Profile is a user together with the titles of their posts.
type Profile struct {
	User       User
	PostTitles []string
}

// NewUser describes an account to register.
type NewUser struct {
	Email       string
	Username    string
	Password    string
	Name        string
	LastName    string
	DateOfBirth *time.Time
	IsStaff     bool
	IsSuperuser bool
}
