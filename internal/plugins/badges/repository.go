package badges

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/converswp/trustbadges/internal/apperror"
)

// mysqlErrDuplicateEntry is the server error number for a unique key
// violation.
const mysqlErrDuplicateEntry = 1062

// BadgeRepository defines the data access contract for badge entities.
type BadgeRepository interface {
	List(ctx context.Context) ([]Badge, error)
	FindByID(ctx context.Context, id int64) (*Badge, error)
	Create(ctx context.Context, badge *Badge) error
	Update(ctx context.Context, badge *Badge) error
	Delete(ctx context.Context, id int64) error
}

// badgeRepository implements BadgeRepository with MariaDB queries.
type badgeRepository struct {
	db *sql.DB
}

// NewBadgeRepository creates a repository backed by the given DB pool.
func NewBadgeRepository(db *sql.DB) BadgeRepository {
	return &badgeRepository{db: db}
}

const badgeColumns = `SELECT id, name, settings, is_active, created_at, updated_at FROM badges`

// List returns every badge ordered by id.
func (r *badgeRepository) List(ctx context.Context) ([]Badge, error) {
	rows, err := r.db.QueryContext(ctx, badgeColumns+` ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing badges: %w", err)
	}
	defer rows.Close()

	badges := []Badge{}
	for rows.Next() {
		b, err := scanBadge(rows)
		if err != nil {
			return nil, err
		}
		badges = append(badges, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating badges: %w", err)
	}
	return badges, nil
}

// FindByID returns one badge or apperror.NotFound.
func (r *badgeRepository) FindByID(ctx context.Context, id int64) (*Badge, error) {
	b, err := scanBadge(r.db.QueryRowContext(ctx, badgeColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound(fmt.Sprintf("badge %d not found", id))
	}
	return b, err
}

// Create inserts a badge and sets its ID.
func (r *badgeRepository) Create(ctx context.Context, badge *Badge) error {
	settings, err := json.Marshal(badge.Settings)
	if err != nil {
		return fmt.Errorf("encoding badge settings: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO badges (name, settings, is_active) VALUES (?, ?, ?)`,
		badge.Name, string(settings), badge.IsActive,
	)
	if err != nil {
		return mapWriteError(err, badge.Name)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading badge id: %w", err)
	}
	badge.ID = id
	return nil
}

// Update rewrites a badge's name, settings and active flag.
func (r *badgeRepository) Update(ctx context.Context, badge *Badge) error {
	settings, err := json.Marshal(badge.Settings)
	if err != nil {
		return fmt.Errorf("encoding badge settings: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE badges SET name = ?, settings = ?, is_active = ? WHERE id = ?`,
		badge.Name, string(settings), badge.IsActive, badge.ID,
	)
	if err != nil {
		return mapWriteError(err, badge.Name)
	}
	return nil
}

// Delete removes a badge. Returns apperror.NotFound for an unknown id.
func (r *badgeRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM badges WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting badge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return apperror.NewNotFound(fmt.Sprintf("badge %d not found", id))
	}
	return nil
}

// mapWriteError turns a unique name violation into a conflict.
func mapWriteError(err error, name string) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlErrDuplicateEntry {
		return apperror.NewConflict(fmt.Sprintf("a badge named %q already exists", name))
	}
	return fmt.Errorf("writing badge: %w", err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBadge(row rowScanner) (*Badge, error) {
	var (
		b        Badge
		settings []byte
	)
	if err := row.Scan(&b.ID, &b.Name, &settings, &b.IsActive, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning badge: %w", err)
	}
	b.Settings = map[string]any{}
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &b.Settings); err != nil {
			return nil, fmt.Errorf("decoding settings for badge %d: %w", b.ID, err)
		}
	}
	return &b, nil
}
