package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/gottabeautomated/WILMA-Mk1/internal/store"
	"github.com/gottabeautomated/WILMA-Mk1/internal/store/memory"
)

func TestCreateAccount(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "valid", email: "anna@example.com", password: "secret1"},
		{name: "email is normalized", email: "  Anna@Example.COM ", password: "secret1"},
		{name: "malformed email", email: "not-an-email", password: "secret1", wantErr: ErrInvalidEmail},
		{name: "empty email", email: "", password: "secret1", wantErr: ErrInvalidEmail},
		{name: "short password", email: "anna@example.com", password: "12345", wantErr: ErrWeakPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(memory.New(), 0)
			user, err := svc.CreateAccount(context.Background(), tt.email, tt.password)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("CreateAccount() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateAccount() error = %v", err)
			}
			if user.ID == "" {
				t.Error("CreateAccount() returned empty user id")
			}
			if user.Email != "anna@example.com" {
				t.Errorf("Email = %q, want normalized lowercase", user.Email)
			}
		})
	}
}

func TestCreateAccountDuplicate(t *testing.T) {
	svc := NewService(memory.New(), 0)
	ctx := context.Background()

	if _, err := svc.CreateAccount(ctx, "anna@example.com", "secret1"); err != nil {
		t.Fatalf("first CreateAccount: %v", err)
	}
	_, err := svc.CreateAccount(ctx, "anna@example.com", "other-password")
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate CreateAccount error = %v, want ErrEmailTaken", err)
	}
}

func TestAuthenticate(t *testing.T) {
	svc := NewService(memory.New(), 0)
	ctx := context.Background()

	created, err := svc.CreateAccount(ctx, "anna@example.com", "secret1")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	user, err := svc.Authenticate(ctx, "anna@example.com", "secret1")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if user.ID != created.ID {
		t.Errorf("Authenticate returned user %q, want %q", user.ID, created.ID)
	}

	if _, err := svc.Authenticate(ctx, "anna@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Authenticate(ctx, "unknown@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown address error = %v, want ErrInvalidCredentials", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	svc := NewService(memory.New(), 0)
	ctx := context.Background()

	user, err := svc.CreateAccount(ctx, "anna@example.com", "secret1")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	token, err := svc.IssueSession(ctx, user.ID)
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}
	if token == "" {
		t.Fatal("IssueSession returned empty token")
	}

	got, err := svc.UserBySession(ctx, token)
	if err != nil {
		t.Fatalf("UserBySession: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("UserBySession = %q, want %q", got.ID, user.ID)
	}

	// Second lookup is served from cache and must agree.
	cached, err := svc.UserBySession(ctx, token)
	if err != nil || cached.ID != user.ID {
		t.Errorf("cached UserBySession = %+v, %v", cached, err)
	}

	if err := svc.RevokeSession(ctx, token); err != nil {
		t.Fatalf("RevokeSession: %v", err)
	}
	if _, err := svc.UserBySession(ctx, token); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("revoked session error = %v, want ErrNotFound", err)
	}
}

func TestSessionCacheSizeBound(t *testing.T) {
	svc := NewService(memory.New(), 1)
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "b@example.com"} {
		user, err := svc.CreateAccount(ctx, email, "geheim123")
		if err != nil {
			t.Fatalf("CreateAccount(%s): %v", email, err)
		}
		token, err := svc.IssueSession(ctx, user.ID)
		if err != nil {
			t.Fatalf("IssueSession: %v", err)
		}
		if _, err := svc.UserBySession(ctx, token); err != nil {
			t.Fatalf("UserBySession: %v", err)
		}
	}

	if got := svc.SessionCache().Size(); got > 1 {
		t.Fatalf("session cache holds %d entries; configured bound is 1", got)
	}
}
