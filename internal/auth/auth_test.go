package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/hpungsan/scribe/internal/errors"
)

func TestNewAuthorizer_RequiresEmail(t *testing.T) {
	for _, email := range []string{"", "   "} {
		_, err := NewAuthorizer(email)
		if !errors.Is(err, errors.ErrConfiguration) {
			t.Errorf("NewAuthorizer(%q) error = %v, want CONFIGURATION", email, err)
		}
	}
}

func TestAuthorize(t *testing.T) {
	a, err := NewAuthorizer("Admin@Example.com")
	if err != nil {
		t.Fatalf("NewAuthorizer() error = %v", err)
	}

	tests := []struct {
		name     string
		user     *User
		wantCode errors.ErrorCode
	}{
		{"anonymous", nil, errors.ErrUnauthorized},
		{"other user", &User{Email: "someone@example.com"}, errors.ErrForbidden},
		{"empty email", &User{Email: ""}, errors.ErrForbidden},
		{"admin exact", &User{Email: "admin@example.com"}, ""},
		{"admin case and space", &User{Email: "  ADMIN@example.COM "}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.Authorize(tt.user)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("Authorize() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantCode) {
				t.Fatalf("Authorize() error = %v, want %s", err, tt.wantCode)
			}
		})
	}
}

func TestAdmin(t *testing.T) {
	a, err := NewAuthorizer("admin@example.com")
	if err != nil {
		t.Fatalf("NewAuthorizer() error = %v", err)
	}
	if !a.IsAdmin(a.Admin()) {
		t.Error("Admin() should be authorized")
	}
}

func TestHeaderResolver(t *testing.T) {
	r := HeaderResolver{Header: "X-Forwarded-Email"}

	req := httptest.NewRequest("GET", "/", nil)
	if u := r.CurrentUser(req); u != nil {
		t.Errorf("CurrentUser() = %+v, want nil", u)
	}

	req.Header.Set("X-Forwarded-Email", " reader@example.com ")
	u := r.CurrentUser(req)
	if u == nil || u.Email != "reader@example.com" {
		t.Errorf("CurrentUser() = %+v", u)
	}
}
