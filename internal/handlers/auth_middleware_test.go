package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/threadforge/threadforge/internal/models"
)

func requestWithUser(user *models.User) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if user == nil {
		return r
	}
	ctx := context.WithValue(r.Context(), userContextKey{}, user)
	return r.WithContext(ctx)
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "missing", header: "", want: ""},
		{name: "valid", header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "padded", header: "  Bearer   token  ", want: "token"},
		{name: "wrong scheme", header: "Basic dXNlcg==", want: ""},
		{name: "bare token", header: "abc.def.ghi", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if got := bearerToken(r); got != tt.want {
				t.Errorf("bearerToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequireUser(t *testing.T) {
	t.Parallel()

	h := &Handlers{}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	h.RequireUser(next).ServeHTTP(rec, requestWithUser(nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	rec = httptest.NewRecorder()
	h.RequireUser(next).ServeHTTP(rec, requestWithUser(&models.User{ID: uuid.New(), Role: models.RoleCustomer}))
	if rec.Code != http.StatusOK {
		t.Errorf("authenticated: status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	h := &Handlers{}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name string
		user *models.User
		want int
	}{
		{name: "anonymous", user: nil, want: http.StatusUnauthorized},
		{name: "customer", user: &models.User{ID: uuid.New(), Role: models.RoleCustomer}, want: http.StatusForbidden},
		{name: "admin", user: &models.User{ID: uuid.New(), Role: models.RoleAdmin}, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			h.RequireAdmin(next).ServeHTTP(rec, requestWithUser(tt.user))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
