package codebuddy

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/crypto/bcrypt"

	"github.com/eringen/codebuddy/catalog"
	"github.com/eringen/codebuddy/forms"
	"github.com/eringen/codebuddy/identity"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	s.bcryptCost = bcrypt.MinCost
	t.Cleanup(func() { s.Close() })
	return s
}

func defaultCatalog(t *testing.T) catalog.Catalog {
	t.Helper()
	c, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default: %v", err)
	}
	return c
}

func TestNewStore(t *testing.T) {
	s := setupTestStore(t)
	if s.db == nil {
		t.Fatal("db should not be nil")
	}
}

func TestCreateUserAndAuthenticate(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, forms.Signup{
		Name:            " Ada ",
		Email:           "Ada@Example.com",
		Password:        "hunter22",
		ConfirmPassword: "hunter22",
		Role:            "Advanced",
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if u.ID == "" || u.Name != "Ada" || u.Email != "ada@example.com" || u.Role != "Advanced" || u.Provider != "password" {
		t.Fatalf("unexpected user: %+v", u)
	}

	got, err := s.Authenticate(ctx, "ADA@example.com ", "hunter22")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if diff := cmp.Diff(u, got); diff != "" {
		t.Errorf("Authenticate user mismatch (-want +got):\n%s", diff)
	}

	byID, err := s.UserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("UserByID failed: %v", err)
	}
	if byID.Email != u.Email {
		t.Errorf("UserByID email = %q, want %q", byID.Email, u.Email)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	f := forms.Signup{Name: "A", Email: "a@example.com", Password: "pw", ConfirmPassword: "pw"}

	if _, err := s.CreateUser(ctx, f); err != nil {
		t.Fatalf("first CreateUser failed: %v", err)
	}
	f.Email = "A@EXAMPLE.COM"
	if _, err := s.CreateUser(ctx, f); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("second CreateUser err = %v, want ErrEmailTaken", err)
	}
}

func TestAuthenticateFailures(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, forms.Signup{Name: "A", Email: "a@example.com", Password: "right", ConfirmPassword: "right"}); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if _, err := s.SignInExternal(ctx, identity.User{Name: "G", Email: "g@example.com", Provider: "google"}); err != nil {
		t.Fatalf("SignInExternal failed: %v", err)
	}

	tests := []struct {
		name, email, password string
	}{
		{"wrong password", "a@example.com", "wrong"},
		{"unknown email", "nobody@example.com", "right"},
		{"provider account has no password", "g@example.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Authenticate(ctx, tt.email, tt.password); !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("Authenticate err = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestSignInExternalReusesAccount(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	first, err := s.SignInExternal(ctx, identity.User{Name: "Demo", Email: "demo@codebuddy.dev", Provider: "google"})
	if err != nil {
		t.Fatalf("first SignInExternal failed: %v", err)
	}
	second, err := s.SignInExternal(ctx, identity.User{Name: "Demo", Email: "DEMO@codebuddy.dev", Provider: "google", AvatarURL: "https://img/a.png"})
	if err != nil {
		t.Fatalf("second SignInExternal failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same account, got %q and %q", first.ID, second.ID)
	}
	if second.AvatarURL != "https://img/a.png" {
		t.Errorf("AvatarURL = %q, want provider avatar", second.AvatarURL)
	}

	if _, err := s.SignInExternal(ctx, identity.User{Name: "No Mail"}); err == nil {
		t.Fatal("expected error for identity without email")
	}
}

func TestSignInPhone(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	a, err := s.SignInPhone(ctx, "+15551234567")
	if err != nil {
		t.Fatalf("SignInPhone failed: %v", err)
	}
	b, err := s.SignInPhone(ctx, "+15551234567")
	if err != nil {
		t.Fatalf("SignInPhone again failed: %v", err)
	}
	if a.ID != b.ID || a.Provider != "phone" || a.Phone != "+15551234567" {
		t.Fatalf("unexpected users: %+v %+v", a, b)
	}
	if a.DisplayName() != "+15551234567" {
		t.Errorf("DisplayName = %q, want phone", a.DisplayName())
	}
}

func TestSetAvatar(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u, err := s.SignInPhone(ctx, "+15550000000")
	if err != nil {
		t.Fatalf("SignInPhone failed: %v", err)
	}
	if err := s.SetAvatar(ctx, u.ID, "/public/uploads/avatars/x.jpg"); err != nil {
		t.Fatalf("SetAvatar failed: %v", err)
	}
	got, _ := s.UserByID(ctx, u.ID)
	if got.AvatarURL != "/public/uploads/avatars/x.jpg" {
		t.Errorf("AvatarURL = %q", got.AvatarURL)
	}
	if err := s.SetAvatar(ctx, "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetAvatar(missing) err = %v, want ErrNotFound", err)
	}
	if _, err := s.UserByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("UserByID(missing) err = %v, want ErrNotFound", err)
	}
}

func TestSaveContact(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	id, err := s.SaveContact(ctx, forms.Contact{Name: " Bo ", Email: "Bo@x.io", Subject: "Hi", Message: " hello "})
	if err != nil {
		t.Fatalf("SaveContact failed: %v", err)
	}
	msgs, err := s.ListContacts(ctx)
	if err != nil {
		t.Fatalf("ListContacts failed: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	m := msgs[0]
	if m.ID != id || m.Name != "Bo" || m.Email != "bo@x.io" || m.Message != "hello" {
		t.Errorf("unexpected message: %+v", m)
	}
}

func TestSeedAndLoadCatalog(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if _, err := s.LoadCatalog(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LoadCatalog on empty store err = %v, want ErrNotFound", err)
	}

	want := defaultCatalog(t)
	if err := s.SeedCatalog(ctx, want); err != nil {
		t.Fatalf("SeedCatalog failed: %v", err)
	}
	got, err := s.LoadCatalog(ctx)
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("catalog mismatch (-want +got):\n%s", diff)
	}

	// Reseeding replaces rather than appends.
	smaller := catalog.Catalog{Challenges: want.Challenges[:1]}
	if err := s.SeedCatalog(ctx, smaller); err != nil {
		t.Fatalf("reseed failed: %v", err)
	}
	got, err = s.LoadCatalog(ctx)
	if err != nil {
		t.Fatalf("LoadCatalog after reseed failed: %v", err)
	}
	if len(got.Challenges) != 1 || len(got.Lessons) != 0 {
		t.Errorf("after reseed got %d challenges, %d lessons", len(got.Challenges), len(got.Lessons))
	}
}

func TestCatalogCache(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	cache := NewCatalogCache(s, time.Hour)

	empty, err := cache.Get(ctx)
	if err != nil {
		t.Fatalf("Get on empty store failed: %v", err)
	}
	if len(empty.Challenges) != 0 {
		t.Fatalf("expected empty catalog, got %d challenges", len(empty.Challenges))
	}

	if err := cache.Replace(ctx, defaultCatalog(t)); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	got, err := cache.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got.Challenges) != len(defaultCatalog(t).Challenges) {
		t.Errorf("cache returned %d challenges, want %d", len(got.Challenges), len(defaultCatalog(t).Challenges))
	}

	// A direct store write stays invisible until the cache is invalidated.
	if err := s.SeedCatalog(ctx, catalog.Catalog{Challenges: got.Challenges[:2]}); err != nil {
		t.Fatalf("SeedCatalog failed: %v", err)
	}
	stale, _ := cache.Get(ctx)
	if len(stale.Challenges) == 2 {
		t.Errorf("expected cached catalog before Invalidate")
	}
	cache.Invalidate()
	fresh, _ := cache.Get(ctx)
	if len(fresh.Challenges) != 2 {
		t.Errorf("after Invalidate got %d challenges, want 2", len(fresh.Challenges))
	}
}
