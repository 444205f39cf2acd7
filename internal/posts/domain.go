package posts

import "time"

// Post is a blog entry owned by exactly one user.
type Post struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Created     time.Time `json:"created"`
	AuthorID    int64     `json:"-"`
	Author      string    `json:"author"`
}

// Owner returns the owning user id in the form the access policy expects.
func (p Post) Owner() *int64 {
	id := p.AuthorID
	return &id
}

// NewPost describes a post to insert.
type NewPost struct {
	Title       string
	Description string
	AuthorID    int64
}

// Changes lists the mutable fields of a post. Nil fields are left untouched.
type Changes struct {
	Title       *string
	Description *string
}

// Empty reports whether no field is set.
func (c Changes) Empty() bool {
	return c.Title == nil && c.Description == nil
}
