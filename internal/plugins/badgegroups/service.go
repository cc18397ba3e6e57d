package badgegroups

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/converswp/trustbadges/internal/apperror"
)

// BadgeGroupService is the settings store: cached reads and transactional
// writes over badge groups. Handlers call these methods and never touch the
// repository directly.
type BadgeGroupService interface {
	// List returns all groups ordered by id, served from cache when present.
	List(ctx context.Context) ([]BadgeGroup, error)

	// Get returns one group, served from cache when present.
	Get(ctx context.Context, id string) (*BadgeGroup, error)

	// Upsert creates or updates a group and returns it as stored.
	Upsert(ctx context.Context, group BadgeGroup) (*BadgeGroup, error)

	// SaveBatch upserts every group atomically and returns the full list.
	SaveBatch(ctx context.Context, groups []BadgeGroup) ([]BadgeGroup, error)

	// Delete removes a non-default group.
	Delete(ctx context.Context, id string) error

	// Submit normalizes a raw client object and upserts it.
	Submit(ctx context.Context, raw map[string]any) (*BadgeGroup, error)

	// SubmitBatch normalizes a raw client batch and saves it atomically.
	SubmitBatch(ctx context.Context, raws []map[string]any) ([]BadgeGroup, error)

	// SeedDefaults inserts any missing default group.
	SeedDefaults(ctx context.Context) error
}

// badgeGroupService implements BadgeGroupService.
type badgeGroupService struct {
	repo       BadgeGroupRepository
	cache      Cache
	normalizer *Normalizer
}

// NewBadgeGroupService creates the service. cache must not be nil.
func NewBadgeGroupService(repo BadgeGroupRepository, cache Cache, normalizer *Normalizer) BadgeGroupService {
	return &badgeGroupService{repo: repo, cache: cache, normalizer: normalizer}
}

// List returns the cached list or reloads it from the store.
func (s *badgeGroupService) List(ctx context.Context) ([]BadgeGroup, error) {
	if groups, ok := s.cache.GetAll(ctx); ok {
		return groups, nil
	}

	groups, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing badge groups: %w", err))
	}
	s.cache.SetAll(ctx, groups)
	return groups, nil
}

// Get returns the cached group or reloads it from the store.
func (s *badgeGroupService) Get(ctx context.Context, id string) (*BadgeGroup, error) {
	if g, ok := s.cache.GetGroup(ctx, id); ok {
		return g, nil
	}

	g, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapRead(err, id)
	}
	s.cache.SetGroup(ctx, g)
	return g, nil
}

// Upsert validates the identity fields, canonicalizes the settings, writes
// the group and invalidates its cache entries before returning.
func (s *badgeGroupService) Upsert(ctx context.Context, group BadgeGroup) (*BadgeGroup, error) {
	if err := checkGroup(&group); err != nil {
		return nil, err
	}

	created, err := s.repo.Upsert(ctx, &group)
	if err != nil {
		return nil, wrapWrite(err, group.ID)
	}
	s.invalidate(ctx, group.ID)

	slog.Info("badge group saved",
		slog.String("group_id", group.ID),
		slog.Bool("created", created),
	)

	stored, err := s.repo.FindByID(ctx, group.ID)
	if err != nil {
		return nil, wrapRead(err, group.ID)
	}
	return stored, nil
}

// SaveBatch writes all groups in one transaction. Nothing is written if any
// member is invalid or fails to persist.
func (s *badgeGroupService) SaveBatch(ctx context.Context, groups []BadgeGroup) ([]BadgeGroup, error) {
	ids := make([]string, 0, len(groups))
	for i := range groups {
		if err := checkGroup(&groups[i]); err != nil {
			return nil, err
		}
		ids = append(ids, groups[i].ID)
	}

	if len(groups) > 0 {
		if err := s.repo.UpsertBatch(ctx, groups); err != nil {
			var itemErr *ItemError
			if errors.As(err, &itemErr) {
				return nil, wrapWrite(itemErr.Err, itemErr.GroupID)
			}
			return nil, apperror.NewPersistence("badge group batch", err)
		}
		s.invalidate(ctx, ids...)
		slog.Info("badge group batch saved", slog.Int("count", len(groups)))
	}

	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing badge groups: %w", err))
	}
	return all, nil
}

// Delete removes a custom group. The default check reads the store, not the
// cache, so a stale entry can never let a default group through.
func (s *badgeGroupService) Delete(ctx context.Context, id string) error {
	g, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return wrapRead(err, id)
	}
	if g.IsDefault {
		return apperror.NewProtectedGroup(id)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return apperror.NewPersistence(fmt.Sprintf("deletion of badge group %q", id), err)
	}
	s.invalidate(ctx, id)

	slog.Info("badge group deleted", slog.String("group_id", id))
	return nil
}

// Submit normalizes raw against the stored groups and upserts the result.
func (s *badgeGroupService) Submit(ctx context.Context, raw map[string]any) (*BadgeGroup, error) {
	existing, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing badge groups: %w", err))
	}
	g, err := s.normalizer.Normalize(raw, existing)
	if err != nil {
		return nil, err
	}
	return s.Upsert(ctx, *g)
}

// SubmitBatch normalizes every member, then saves them atomically.
func (s *badgeGroupService) SubmitBatch(ctx context.Context, raws []map[string]any) ([]BadgeGroup, error) {
	existing, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing badge groups: %w", err))
	}
	groups, err := s.normalizer.NormalizeBatch(raws, existing)
	if err != nil {
		return nil, err
	}
	return s.SaveBatch(ctx, groups)
}

// SeedDefaults inserts the default groups that are not yet present.
func (s *badgeGroupService) SeedDefaults(ctx context.Context) error {
	defaults := DefaultGroups()
	inserted, err := s.repo.SeedDefaults(ctx, defaults)
	if err != nil {
		return fmt.Errorf("seeding default badge groups: %w", err)
	}

	if inserted > 0 {
		ids := make([]string, 0, len(defaults))
		for _, g := range defaults {
			ids = append(ids, g.ID)
		}
		s.invalidate(ctx, ids...)
		slog.Info("default badge groups seeded", slog.Int("inserted", inserted))
	}
	return nil
}

// invalidate drops cache entries synchronously. A failure is logged; the
// entries still expire with the cache TTL.
func (s *badgeGroupService) invalidate(ctx context.Context, ids ...string) {
	if err := s.cache.Invalidate(ctx, ids...); err != nil {
		slog.Error("badge group cache invalidation failed",
			slog.Any("group_ids", ids),
			slog.Any("error", err),
		)
	}
}

// checkGroup guards the typed write path: callers that bypass the
// normalizer still cannot store a malformed id or a partial settings record.
func checkGroup(g *BadgeGroup) error {
	fields := map[string]string{}
	if g.ID == "" || len(g.ID) > 64 || !groupIDPattern.MatchString(g.ID) {
		fields["id"] = "may only contain letters, digits and hyphens"
	}
	if g.Name == "" {
		fields["name"] = "is required"
	}
	if !g.RequiredPlugin.Valid() {
		fields["requiredPlugin"] = "must be one of woocommerce, edd or null"
	}
	if len(fields) > 0 {
		return apperror.NewValidationFields(fmt.Sprintf("invalid badge group %q", g.ID), fields)
	}
	g.Settings = Normalize(g.Settings.Map())
	return nil
}

// wrapRead passes AppErrors through and hides anything else as internal.
func wrapRead(err error, id string) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.NewInternal(fmt.Errorf("reading badge group %q: %w", id, err))
}

// wrapWrite reports a failed write as a persistence error naming the group.
func wrapWrite(err error, id string) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.NewPersistence(fmt.Sprintf("badge group %q", id), err)
}
