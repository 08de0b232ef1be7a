// Package auth resolves the current user and decides whether they are the admin.
package auth

import (
	"net/http"
	"strings"

	"github.com/hpungsan/scribe/internal/errors"
)

// User is an authenticated caller.
type User struct {
	Email string `json:"email"`
}

// Resolver looks up the current user for a request. It returns nil for anonymous requests.
type Resolver interface {
	CurrentUser(r *http.Request) *User
}

// HeaderResolver trusts an identity header set by a fronting auth proxy.
// The header is taken as sent. The proxy must overwrite or strip any copy
// supplied by the client, or anyone who can reach the listener is the admin.
type HeaderResolver struct {
	Header string
}

// CurrentUser returns the user named by the configured header, or nil if it is absent.
func (h HeaderResolver) CurrentUser(r *http.Request) *User {
	email := strings.TrimSpace(r.Header.Get(h.Header))
	if email == "" {
		return nil
	}
	return &User{Email: email}
}

// Authorizer compares callers against the single configured admin identity.
// The admin email is fixed at construction.
type Authorizer struct {
	adminEmail string
}

// NewAuthorizer validates adminEmail and returns an Authorizer.
// An empty email is a CONFIGURATION error.
func NewAuthorizer(adminEmail string) (*Authorizer, error) {
	adminEmail = normalizeEmail(adminEmail)
	if adminEmail == "" {
		return nil, errors.NewConfiguration("admin email is required")
	}
	return &Authorizer{adminEmail: adminEmail}, nil
}

// Admin returns the configured admin as a User. Local operators (CLI, MCP over stdio)
// act as this user.
func (a *Authorizer) Admin() *User {
	return &User{Email: a.adminEmail}
}

// IsAdmin reports whether u is the configured admin.
func (a *Authorizer) IsAdmin(u *User) bool {
	return u != nil && normalizeEmail(u.Email) == a.adminEmail
}

// Authorize returns UNAUTHORIZED for anonymous callers and FORBIDDEN for
// authenticated callers that are not the admin.
func (a *Authorizer) Authorize(u *User) error {
	if u == nil {
		return errors.NewUnauthorized()
	}
	if !a.IsAdmin(u) {
		return errors.NewForbidden()
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
