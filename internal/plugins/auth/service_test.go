package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/converswp/trustbadges/internal/apperror"
)

// --- Mock Repository ---

// mockUserRepo implements UserRepository for testing.
type mockUserRepo struct {
	createFn          func(ctx context.Context, user *User) error
	findByEmailFn     func(ctx context.Context, email string) (*User, error)
	updateLastLoginFn func(ctx context.Context, id string) error
	updatePasswordFn  func(ctx context.Context, id, passwordHash string) error
}

func (m *mockUserRepo) Create(ctx context.Context, user *User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, apperror.NewNotFound("user not found")
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id string) error {
	if m.updateLastLoginFn != nil {
		return m.updateLastLoginFn(ctx, id)
	}
	return nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if m.updatePasswordFn != nil {
		return m.updatePasswordFn(ctx, id, passwordHash)
	}
	return nil
}

// --- Test Helpers ---

// newTestAuthService creates an authService backed by an in-process Redis.
func newTestAuthService(t *testing.T, repo *mockUserRepo) (*authService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return &authService{repo: repo, redis: rdb, sessionTTL: time.Hour}, mr
}

// assertAppError checks that err is an *apperror.AppError with the expected code.
func assertAppError(t *testing.T, err error, expectedCode int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", expectedCode)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status %d, got %d (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

func adminUser(t *testing.T, password string) *User {
	t.Helper()
	hash, err := hashPassword(password)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	return &User{ID: "user-1", Email: "admin@example.com", DisplayName: "admin", PasswordHash: hash, IsAdmin: true}
}

// --- Password Hashing ---

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := hashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !verifyPassword("correct horse battery staple", hash) {
		t.Error("expected password to verify")
	}
	if verifyPassword("wrong", hash) {
		t.Error("expected wrong password to fail")
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	for _, h := range []string{"", "plain", "$argon2i$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA", "$argon2id$v=19$bad$c2FsdA$aGFzaA"} {
		if verifyPassword("x", h) {
			t.Errorf("expected %q to be rejected", h)
		}
	}
}

// --- Login ---

func TestLogin_Success(t *testing.T) {
	user := adminUser(t, "secure-password-123")
	var lastLogin string
	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*User, error) {
			if email != "admin@example.com" {
				t.Errorf("expected normalized email, got %q", email)
			}
			return user, nil
		},
		updateLastLoginFn: func(ctx context.Context, id string) error {
			lastLogin = id
			return nil
		},
	}
	svc, mr := newTestAuthService(t, repo)

	token, got, err := svc.Login(context.Background(), LoginInput{Email: " Admin@Example.com ", Password: "secure-password-123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "user-1" || lastLogin != "user-1" {
		t.Errorf("unexpected user %q / last login %q", got.ID, lastLogin)
	}
	if len(token) != sessionTokenBytes*2 {
		t.Errorf("expected %d-char token, got %d", sessionTokenBytes*2, len(token))
	}
	if ttl := mr.TTL(sessionKeyPrefix + token); ttl != time.Hour {
		t.Errorf("expected session TTL 1h, got %v", ttl)
	}

	session, err := svc.ValidateSession(context.Background(), token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !session.IsAdmin || session.UserID != "user-1" {
		t.Errorf("unexpected session: %+v", session)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _ := newTestAuthService(t, &mockUserRepo{})
	_, _, err := svc.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "x"})
	assertAppError(t, err, 401)
}

func TestLogin_WrongPassword(t *testing.T) {
	user := adminUser(t, "secure-password-123")
	svc, _ := newTestAuthService(t, &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*User, error) { return user, nil },
	})
	_, _, err := svc.Login(context.Background(), LoginInput{Email: "admin@example.com", Password: "nope"})
	assertAppError(t, err, 401)
}

func TestLogin_RepoError(t *testing.T) {
	svc, _ := newTestAuthService(t, &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*User, error) {
			return nil, errors.New("db down")
		},
	})
	_, _, err := svc.Login(context.Background(), LoginInput{Email: "admin@example.com", Password: "x"})
	assertAppError(t, err, 500)
}

// --- Sessions ---

func TestValidateSession_Unknown(t *testing.T) {
	svc, _ := newTestAuthService(t, &mockUserRepo{})
	_, err := svc.ValidateSession(context.Background(), "missing")
	assertAppError(t, err, 401)
}

func TestDestroySession(t *testing.T) {
	user := adminUser(t, "secure-password-123")
	svc, _ := newTestAuthService(t, &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*User, error) { return user, nil },
	})
	token, _, err := svc.Login(context.Background(), LoginInput{Email: "admin@example.com", Password: "secure-password-123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.DestroySession(context.Background(), token); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = svc.ValidateSession(context.Background(), token)
	assertAppError(t, err, 401)
}

// --- EnsureAdmin ---

func TestEnsureAdmin_CreatesMissingAdmin(t *testing.T) {
	var created *User
	svc, _ := newTestAuthService(t, &mockUserRepo{
		createFn: func(ctx context.Context, user *User) error {
			created = user
			return nil
		},
	})

	if err := svc.EnsureAdmin(context.Background(), "Owner@Shop.test", "secure-password-123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil {
		t.Fatal("expected admin to be created")
	}
	if !created.IsAdmin || created.Email != "owner@shop.test" || created.DisplayName != "owner" {
		t.Errorf("unexpected admin: %+v", created)
	}
	if created.ID == "" || !verifyPassword("secure-password-123", created.PasswordHash) {
		t.Error("expected id and verifiable hash")
	}
}

func TestEnsureAdmin_KeepsMatchingPassword(t *testing.T) {
	user := adminUser(t, "secure-password-123")
	svc, _ := newTestAuthService(t, &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*User, error) { return user, nil },
		updatePasswordFn: func(ctx context.Context, id, hash string) error {
			t.Error("password should not be rewritten")
			return nil
		},
	})
	if err := svc.EnsureAdmin(context.Background(), "admin@example.com", "secure-password-123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnsureAdmin_ResetsChangedPassword(t *testing.T) {
	user := adminUser(t, "old-password-123")
	var newHash string
	svc, _ := newTestAuthService(t, &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*User, error) { return user, nil },
		updatePasswordFn: func(ctx context.Context, id, hash string) error {
			newHash = hash
			return nil
		},
	})
	if err := svc.EnsureAdmin(context.Background(), "admin@example.com", "new-password-456"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !verifyPassword("new-password-456", newHash) {
		t.Error("expected stored hash to match the new password")
	}
}

func TestEnsureAdmin_RequiresCredentials(t *testing.T) {
	svc, _ := newTestAuthService(t, &mockUserRepo{})
	assertAppError(t, svc.EnsureAdmin(context.Background(), "", "x"), 400)
}

// --- Middleware ---

func TestRequireAuth_MissingCookie(t *testing.T) {
	svc, _ := newTestAuthService(t, &mockUserRepo{})
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil), httptest.NewRecorder())

	err := RequireAuth(svc)(func(c echo.Context) error { return nil })(c)
	assertAppError(t, err, 401)
}

func TestRequireAuth_ValidSession(t *testing.T) {
	user := adminUser(t, "secure-password-123")
	svc, _ := newTestAuthService(t, &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*User, error) { return user, nil },
	})
	token, _, err := svc.Login(context.Background(), LoginInput{Email: "admin@example.com", Password: "secure-password-123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	c := e.NewContext(req, httptest.NewRecorder())

	var seen string
	chain := RequireAuth(svc)(RequireSiteAdmin()(func(c echo.Context) error {
		seen = GetUserID(c)
		return nil
	}))
	if err := chain(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != "user-1" {
		t.Errorf("expected user-1 in context, got %q", seen)
	}
}

func TestRequireSiteAdmin_NonAdmin(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.Set(contextKeySession, &Session{UserID: "u", IsAdmin: false})

	err := RequireSiteAdmin()(func(c echo.Context) error { return nil })(c)
	assertAppError(t, err, 403)
}
