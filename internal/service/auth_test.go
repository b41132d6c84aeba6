package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tranqh/formintake/internal/domain"
	"github.com/tranqh/formintake/internal/logger"
)

type fakeUserStore struct {
	users map[string]*domain.User
}

func (f *fakeUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return f.users[username], nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) Create(ctx context.Context, user *domain.User) error {
	f.users[user.Username] = user
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *fakeUserStore) {
	t.Helper()
	store := &fakeUserStore{users: map[string]*domain.User{}}
	svc := NewAuthService(store, "test-secret", time.Hour, logger.GetDefault())
	if err := svc.SeedAdmin(context.Background(), "admin", "s3cret"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	return svc, store
}

func TestAuth_LoginAndValidate(t *testing.T) {
	svc, _ := newAuthFixture(t)

	token, user, err := svc.Login(context.Background(), "admin", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if user.Username != "admin" || user.Role != "admin" {
		t.Errorf("unexpected user: %+v", user)
	}

	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.Username != "admin" || claims.Role != "admin" {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if claims.Subject != user.ID {
		t.Errorf("expected subject %q, got %q", user.ID, claims.Subject)
	}
}

func TestAuth_WrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)

	if _, _, err := svc.Login(context.Background(), "admin", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuth_UnknownUser(t *testing.T) {
	svc, _ := newAuthFixture(t)

	if _, _, err := svc.Login(context.Background(), "ghost", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuth_InactiveUser(t *testing.T) {
	svc, store := newAuthFixture(t)
	store.users["admin"].Active = false

	if _, _, err := svc.Login(context.Background(), "admin", "s3cret"); !errors.Is(err, ErrUserInactive) {
		t.Fatalf("expected ErrUserInactive, got %v", err)
	}
}

func TestAuth_SeedIsIdempotent(t *testing.T) {
	svc, store := newAuthFixture(t)
	firstID := store.users["admin"].ID

	if err := svc.SeedAdmin(context.Background(), "admin", "different"); err != nil {
		t.Fatalf("second seed failed: %v", err)
	}
	if store.users["admin"].ID != firstID {
		t.Error("expected existing admin account to be left untouched")
	}
}

func TestAuth_ValidateRejectsGarbage(t *testing.T) {
	svc, _ := newAuthFixture(t)

	if _, err := svc.Validate("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	// Token signed with another secret is rejected too.
	other := NewAuthService(&fakeUserStore{users: map[string]*domain.User{}}, "other-secret", time.Hour, logger.GetDefault())
	if err := other.SeedAdmin(context.Background(), "admin", "s3cret"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	token, _, err := other.Login(context.Background(), "admin", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := svc.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign signature, got %v", err)
	}
}
