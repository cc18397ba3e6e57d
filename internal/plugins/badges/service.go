package badges

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/converswp/trustbadges/internal/apperror"
	"github.com/converswp/trustbadges/internal/sanitize"
)

// cacheKeyAll holds the JSON-encoded list of every badge.
const cacheKeyAll = "badges:all"

// BadgeService manages stored badges.
type BadgeService interface {
	// List returns all badges, or only the active ones when activeOnly is set.
	List(ctx context.Context, activeOnly bool) ([]Badge, error)
	Get(ctx context.Context, id int64) (*Badge, error)
	Create(ctx context.Context, input BadgeInput) (*Badge, error)
	Update(ctx context.Context, id int64, input BadgeInput) (*Badge, error)
	Delete(ctx context.Context, id int64) error
}

// badgeService implements BadgeService with a Redis read cache over the
// repository.
type badgeService struct {
	repo BadgeRepository
	rdb  *redis.Client
	ttl  time.Duration
}

// NewBadgeService creates a badge service. The list cache entry expires
// after ttl and is dropped on every write.
func NewBadgeService(repo BadgeRepository, rdb *redis.Client, ttl time.Duration) BadgeService {
	return &badgeService{repo: repo, rdb: rdb, ttl: ttl}
}

// List serves the cached list, reloading it from the store on a miss.
func (s *badgeService) List(ctx context.Context, activeOnly bool) ([]Badge, error) {
	all, ok := s.cached(ctx)
	if !ok {
		var err error
		all, err = s.repo.List(ctx)
		if err != nil {
			return nil, apperror.NewInternal(fmt.Errorf("listing badges: %w", err))
		}
		s.store(ctx, all)
	}

	if !activeOnly {
		return all, nil
	}
	active := make([]Badge, 0, len(all))
	for _, b := range all {
		if b.IsActive {
			active = append(active, b)
		}
	}
	return active, nil
}

// Get returns one badge from the store.
func (s *badgeService) Get(ctx context.Context, id int64) (*Badge, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, passThrough(err)
	}
	return b, nil
}

// Create stores a new badge. Badges are active unless the input says
// otherwise.
func (s *badgeService) Create(ctx context.Context, input BadgeInput) (*Badge, error) {
	b := &Badge{IsActive: true}
	if err := apply(b, input); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, passThrough(err)
	}
	s.invalidate(ctx)

	slog.Info("badge created", slog.Int64("badge_id", b.ID), slog.String("name", b.Name))
	return s.Get(ctx, b.ID)
}

// Update rewrites an existing badge. An omitted isActive keeps the stored
// value.
func (s *badgeService) Update(ctx context.Context, id int64, input BadgeInput) (*Badge, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, passThrough(err)
	}
	if err := apply(b, input); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, b); err != nil {
		return nil, passThrough(err)
	}
	s.invalidate(ctx)

	slog.Info("badge updated", slog.Int64("badge_id", id))
	return s.Get(ctx, id)
}

// Delete removes a badge.
func (s *badgeService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return passThrough(err)
	}
	s.invalidate(ctx)

	slog.Info("badge deleted", slog.Int64("badge_id", id))
	return nil
}

// apply copies validated input onto b.
func apply(b *Badge, input BadgeInput) error {
	name := sanitize.Text(input.Name)
	if name == "" {
		return apperror.NewValidationFields("invalid badge", map[string]string{"name": "is required"})
	}
	b.Name = name

	b.Settings = input.Settings
	if b.Settings == nil {
		b.Settings = map[string]any{}
	}
	if input.IsActive != nil {
		b.IsActive = *input.IsActive
	}
	return nil
}

// --- Cache ---

func (s *badgeService) cached(ctx context.Context) ([]Badge, bool) {
	data, err := s.rdb.Get(ctx, cacheKeyAll).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("badge cache read failed", slog.Any("error", err))
		return nil, false
	}

	var badges []Badge
	if err := json.Unmarshal(data, &badges); err != nil {
		slog.Warn("discarding undecodable cache entry", slog.String("key", cacheKeyAll), slog.Any("error", err))
		_ = s.rdb.Del(ctx, cacheKeyAll).Err()
		return nil, false
	}
	return badges, true
}

func (s *badgeService) store(ctx context.Context, badges []Badge) {
	data, err := json.Marshal(badges)
	if err != nil {
		slog.Warn("encoding badge cache entry failed", slog.Any("error", err))
		return
	}
	if err := s.rdb.Set(ctx, cacheKeyAll, data, s.ttl).Err(); err != nil {
		slog.Warn("badge cache write failed", slog.Any("error", err))
	}
}

func (s *badgeService) invalidate(ctx context.Context) {
	if err := s.rdb.Del(ctx, cacheKeyAll).Err(); err != nil {
		slog.Error("badge cache invalidation failed", slog.Any("error", err))
	}
}

// passThrough keeps AppErrors and hides anything else as internal.
func passThrough(err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.NewInternal(err)
}
