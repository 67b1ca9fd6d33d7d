package domain

import (
	"slices"
	"time"
)

const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

// User models an account known to the book API.
type User struct {
	ID           string    `json:"id"`
	UserName     string    `json:"userName"`
	Email        string    `json:"email,omitempty"`
	FullName     *string   `json:"fullName,omitempty"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HasRole reports whether the user carries role. Comparison is exact.
func (u *User) HasRole(role string) bool {
	return u != nil && slices.Contains(u.Roles, role)
}

// UserProfile is the client-side view of the signed-in user. The role set is
// whatever the server returned at login/register time.
type UserProfile struct {
	UserName string   `json:"userName"`
	FullName *string  `json:"fullName"`
	Roles    []string `json:"roles"`
}

// IsAdmin reports whether the profile carries the Admin role.
func (p *UserProfile) IsAdmin() bool {
	return p != nil && slices.Contains(p.Roles, RoleAdmin)
}

// DisplayName prefers the full name and falls back to the user name.
func (p *UserProfile) DisplayName() string {
	if p == nil {
		return ""
	}
	if p.FullName != nil && *p.FullName != "" {
		return *p.FullName
	}
	return p.UserName
}

// Clone returns a deep copy so callers cannot mutate session state.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	c := &UserProfile{UserName: p.UserName, Roles: slices.Clone(p.Roles)}
	if p.FullName != nil {
		name := *p.FullName
		c.FullName = &name
	}
	if c.Roles == nil {
		c.Roles = []string{}
	}
	return c
}

// Credentials is the login payload.
type Credentials struct {
	UserName string `json:"userName" validate:"notblank"`
	Password string `json:"password" validate:"notblank"`
}

// Registration is the register payload. FullName is optional.
type Registration struct {
	UserName string  `json:"userName"           validate:"notblank"`
	Email    string  `json:"email"              validate:"required,email"`
	Password string  `json:"password"           validate:"required,min=6"`
	FullName *string `json:"fullName,omitempty"`
}

// AuthResult is the body returned by the login and register endpoints.
type AuthResult struct {
	Token        string    `json:"token"`
	ExpiresAtUTC Timestamp `json:"expiresAtUtc"`
	UserName     string    `json:"userName"`
	FullName     *string   `json:"fullName,omitempty"`
	Roles        []string  `json:"roles"`
}

// Profile builds the UserProfile carried by a session. Missing roles become an
// empty set.
func (r *AuthResult) Profile() *UserProfile {
	p := &UserProfile{UserName: r.UserName, FullName: r.FullName, Roles: r.Roles}
	return p.Clone()
}
