package badges

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/converswp/trustbadges/internal/apperror"
)

// --- Mock Repository ---

type mockBadgeRepo struct {
	listFn     func(ctx context.Context) ([]Badge, error)
	findByIDFn func(ctx context.Context, id int64) (*Badge, error)
	createFn   func(ctx context.Context, badge *Badge) error
	updateFn   func(ctx context.Context, badge *Badge) error
	deleteFn   func(ctx context.Context, id int64) error
	listCalls  int
}

func (m *mockBadgeRepo) List(ctx context.Context) ([]Badge, error) {
	m.listCalls++
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []Badge{}, nil
}

func (m *mockBadgeRepo) FindByID(ctx context.Context, id int64) (*Badge, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, apperror.NewNotFound("badge not found")
}

func (m *mockBadgeRepo) Create(ctx context.Context, badge *Badge) error {
	if m.createFn != nil {
		return m.createFn(ctx, badge)
	}
	return nil
}

func (m *mockBadgeRepo) Update(ctx context.Context, badge *Badge) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, badge)
	}
	return nil
}

func (m *mockBadgeRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func newTestService(t *testing.T, repo *mockBadgeRepo) (BadgeService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewBadgeService(repo, rdb, time.Hour), mr
}

func assertAppError(t *testing.T, err error, expectedCode int) *apperror.AppError {
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
	return appErr
}

func boolPtr(b bool) *bool { return &b }

// --- Tests ---

func TestList_CachesAndFiltersActive(t *testing.T) {
	repo := &mockBadgeRepo{listFn: func(ctx context.Context) ([]Badge, error) {
		return []Badge{
			{ID: 1, Name: "Visa", IsActive: true},
			{ID: 2, Name: "Retired", IsActive: false},
		}, nil
	}}
	svc, mr := newTestService(t, repo)
	ctx := context.Background()

	all, err := svc.List(ctx, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 badges, got %d", len(all))
	}
	if !mr.Exists("badges:all") {
		t.Error("expected list to be cached")
	}

	active, err := svc.List(ctx, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(active) != 1 || active[0].ID != 1 {
		t.Errorf("expected only badge 1, got %+v", active)
	}
	if repo.listCalls != 1 {
		t.Errorf("expected one store read, got %d", repo.listCalls)
	}
}

func TestList_StoreFailure(t *testing.T) {
	repo := &mockBadgeRepo{listFn: func(ctx context.Context) ([]Badge, error) {
		return nil, errors.New("connection refused")
	}}
	svc, _ := newTestService(t, repo)

	_, err := svc.List(context.Background(), false)
	assertAppError(t, err, 500)
}

func TestCreate_SanitizesAndInvalidates(t *testing.T) {
	var stored *Badge
	repo := &mockBadgeRepo{
		createFn: func(ctx context.Context, b *Badge) error {
			b.ID = 9
			stored = b
			return nil
		},
		findByIDFn: func(ctx context.Context, id int64) (*Badge, error) {
			return stored, nil
		},
	}
	svc, mr := newTestService(t, repo)
	mr.Set("badges:all", "[]")

	badge, err := svc.Create(context.Background(), BadgeInput{Name: "  <b>Visa</b> Card "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if badge.ID != 9 || badge.Name != "Visa Card" {
		t.Errorf("unexpected badge: %+v", badge)
	}
	if !badge.IsActive {
		t.Error("new badges should be active by default")
	}
	if badge.Settings == nil {
		t.Error("expected empty settings object, got nil")
	}
	if mr.Exists("badges:all") {
		t.Error("expected list cache to be invalidated")
	}
}

func TestCreate_MarkupOnlyName(t *testing.T) {
	svc, _ := newTestService(t, &mockBadgeRepo{})

	_, err := svc.Create(context.Background(), BadgeInput{Name: "<img src=x>"})
	appErr := assertAppError(t, err, 400)
	if appErr.Fields["name"] == "" {
		t.Error("expected name field error")
	}
}

func TestCreate_ConflictPassesThrough(t *testing.T) {
	repo := &mockBadgeRepo{createFn: func(ctx context.Context, b *Badge) error {
		return apperror.NewConflict("a badge named \"Visa\" already exists")
	}}
	svc, _ := newTestService(t, repo)

	_, err := svc.Create(context.Background(), BadgeInput{Name: "Visa"})
	assertAppError(t, err, 409)
}

func TestUpdate_KeepsActiveFlagWhenOmitted(t *testing.T) {
	current := &Badge{ID: 3, Name: "Old", IsActive: false, Settings: map[string]any{}}
	var written Badge
	repo := &mockBadgeRepo{
		findByIDFn: func(ctx context.Context, id int64) (*Badge, error) {
			if id != 3 {
				return nil, apperror.NewNotFound("badge not found")
			}
			cp := *current
			return &cp, nil
		},
		updateFn: func(ctx context.Context, b *Badge) error {
			written = *b
			return nil
		},
	}
	svc, _ := newTestService(t, repo)

	if _, err := svc.Update(context.Background(), 3, BadgeInput{Name: "New"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if written.Name != "New" || written.IsActive {
		t.Errorf("unexpected write: %+v", written)
	}

	if _, err := svc.Update(context.Background(), 3, BadgeInput{Name: "New", IsActive: boolPtr(true)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !written.IsActive {
		t.Error("expected isActive=true to be applied")
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _ := newTestService(t, &mockBadgeRepo{})

	_, err := svc.Update(context.Background(), 42, BadgeInput{Name: "X"})
	assertAppError(t, err, 404)
}

func TestDelete_InvalidatesCache(t *testing.T) {
	svc, mr := newTestService(t, &mockBadgeRepo{})
	mr.Set("badges:all", "[]")

	if err := svc.Delete(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mr.Exists("badges:all") {
		t.Error("expected list cache to be invalidated")
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo := &mockBadgeRepo{deleteFn: func(ctx context.Context, id int64) error {
		return apperror.NewNotFound("badge 5 not found")
	}}
	svc, _ := newTestService(t, repo)

	assertAppError(t, svc.Delete(context.Background(), 5), 404)
}
