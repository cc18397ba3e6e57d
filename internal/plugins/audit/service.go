package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/converswp/trustbadges/internal/apperror"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// AuditService validates and records audit entries.
type AuditService interface {
	// Log records an entry. Errors are logged here, so callers may ignore
	// them when the audited operation has already succeeded.
	Log(ctx context.Context, entry *Entry) error

	// Recent returns the newest entries. limit is clamped to 1..200 and
	// defaults to 50 when not positive.
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// auditService implements AuditService.
type auditService struct {
	repo AuditRepository
}

// NewAuditService creates a new audit service with the given repository.
func NewAuditService(repo AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// Log assigns an id when missing and persists the entry.
func (s *auditService) Log(ctx context.Context, entry *Entry) error {
	if entry.UserID == "" {
		return apperror.NewBadRequest("user ID is required for audit entry")
	}
	if entry.Action == "" {
		return apperror.NewBadRequest("action is required for audit entry")
	}
	if entry.TargetType == "" || entry.TargetID == "" {
		return apperror.NewBadRequest("target is required for audit entry")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	if err := s.repo.Log(ctx, entry); err != nil {
		slog.Error("failed to write audit log entry",
			slog.String("action", entry.Action),
			slog.String("target_id", entry.TargetID),
			slog.Any("error", err),
		)
		return apperror.NewInternal(fmt.Errorf("writing audit entry: %w", err))
	}
	return nil
}

// Recent returns the newest audit entries.
func (s *auditService) Recent(ctx context.Context, limit int) ([]Entry, error) {
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}

	entries, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing audit entries: %w", err))
	}
	return entries, nil
}
