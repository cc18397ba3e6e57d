package badgegroups

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/converswp/trustbadges/internal/apperror"
)

// BadgeGroupRepository defines the data access contract for badge groups.
// Every write runs in its own transaction; a failure rolls back everything
// that write touched.
type BadgeGroupRepository interface {
	// List returns all groups ordered by group id ascending.
	List(ctx context.Context) ([]BadgeGroup, error)

	// FindByID returns one group or apperror.NotFound.
	FindByID(ctx context.Context, id string) (*BadgeGroup, error)

	// Upsert updates the group in place if its id exists, otherwise inserts
	// it as a non-default group. Reports whether a row was created.
	Upsert(ctx context.Context, group *BadgeGroup) (created bool, err error)

	// UpsertBatch applies Upsert to every group inside one transaction.
	// The error of a failed member is an *ItemError.
	UpsertBatch(ctx context.Context, groups []BadgeGroup) error

	// Delete removes a non-default group. Returns apperror.NotFound for an
	// unknown id and a protected_group error for a default group.
	Delete(ctx context.Context, id string) error

	// SeedDefaults inserts the given default groups if they are missing and
	// returns how many were inserted.
	SeedDefaults(ctx context.Context, groups []BadgeGroup) (int, error)
}

// ItemError reports which batch member failed to persist.
type ItemError struct {
	GroupID string
	Err     error
}

// Error implements the error interface.
func (e *ItemError) Error() string {
	return fmt.Sprintf("saving badge group %q: %v", e.GroupID, e.Err)
}

// Unwrap returns the underlying driver error.
func (e *ItemError) Unwrap() error {
	return e.Err
}

// badgeGroupRepository implements BadgeGroupRepository with MariaDB queries.
type badgeGroupRepository struct {
	db *sql.DB
}

// NewBadgeGroupRepository creates a repository backed by the given DB pool.
func NewBadgeGroupRepository(db *sql.DB) BadgeGroupRepository {
	return &badgeGroupRepository{db: db}
}

// selectColumns is shared by the read queries so scanGroup stays in sync.
const selectColumns = `SELECT group_id, group_name, is_default, is_active, required_plugin,
	       settings, created_at, updated_at
	FROM badge_groups`

// List returns every group ordered by group id.
func (r *badgeGroupRepository) List(ctx context.Context) ([]BadgeGroup, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY group_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing badge groups: %w", err)
	}
	defer rows.Close()

	groups := []BadgeGroup{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating badge groups: %w", err)
	}
	return groups, nil
}

// FindByID retrieves a single group by its id.
func (r *badgeGroupRepository) FindByID(ctx context.Context, id string) (*BadgeGroup, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE group_id = ?`, id)
	g, err := scanGroup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound(fmt.Sprintf("badge group %q not found", id))
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Upsert writes one group in its own transaction.
func (r *badgeGroupRepository) Upsert(ctx context.Context, group *BadgeGroup) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	created, err := upsertTx(ctx, tx, group)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing badge group %q: %w", group.ID, err)
	}
	return created, nil
}

// UpsertBatch writes all groups in a single transaction.
func (r *badgeGroupRepository) UpsertBatch(ctx context.Context, groups []BadgeGroup) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range groups {
		if _, err := upsertTx(ctx, tx, &groups[i]); err != nil {
			return &ItemError{GroupID: groups[i].ID, Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing badge group batch: %w", err)
	}
	return nil
}

// upsertTx locks the row for the group id (if any) and then updates or
// inserts. The default flag is never changed by an update and never set by
// an insert.
func upsertTx(ctx context.Context, tx *sql.Tx, g *BadgeGroup) (bool, error) {
	settings, err := json.Marshal(g.Settings)
	if err != nil {
		return false, fmt.Errorf("encoding settings: %w", err)
	}

	var isDefault bool
	err = tx.QueryRowContext(ctx,
		`SELECT is_default FROM badge_groups WHERE group_id = ? FOR UPDATE`, g.ID,
	).Scan(&isDefault)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			`INSERT INTO badge_groups (group_id, group_name, is_default, is_active, required_plugin, settings)
			 VALUES (?, ?, FALSE, ?, ?, ?)`,
			g.ID, g.Name, g.IsActive, nullPlugin(g.RequiredPlugin), string(settings),
		)
		if err != nil {
			return false, fmt.Errorf("inserting badge group: %w", err)
		}
		return true, nil

	case err != nil:
		return false, fmt.Errorf("locking badge group: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE badge_groups
		 SET group_name = ?, is_active = ?, required_plugin = ?, settings = ?
		 WHERE group_id = ?`,
		g.Name, g.IsActive, nullPlugin(g.RequiredPlugin), string(settings), g.ID,
	)
	if err != nil {
		return false, fmt.Errorf("updating badge group: %w", err)
	}
	return false, nil
}

// Delete removes a custom group after checking it is not a default group.
func (r *badgeGroupRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var isDefault bool
	err = tx.QueryRowContext(ctx,
		`SELECT is_default FROM badge_groups WHERE group_id = ? FOR UPDATE`, id,
	).Scan(&isDefault)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NewNotFound(fmt.Sprintf("badge group %q not found", id))
	}
	if err != nil {
		return fmt.Errorf("locking badge group: %w", err)
	}
	if isDefault {
		return apperror.NewProtectedGroup(id)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM badge_groups WHERE group_id = ?`, id); err != nil {
		return fmt.Errorf("deleting badge group: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing badge group delete: %w", err)
	}
	return nil
}

// SeedDefaults inserts any missing default group. Existing rows, including
// ones an admin has edited, are left alone.
func (r *badgeGroupRepository) SeedDefaults(ctx context.Context, groups []BadgeGroup) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	for _, g := range groups {
		settings, err := json.Marshal(g.Settings)
		if err != nil {
			return 0, fmt.Errorf("encoding settings for %q: %w", g.ID, err)
		}
		res, err := tx.ExecContext(ctx,
			`INSERT IGNORE INTO badge_groups (group_id, group_name, is_default, is_active, required_plugin, settings)
			 VALUES (?, ?, TRUE, ?, ?, ?)`,
			g.ID, g.Name, g.IsActive, nullPlugin(g.RequiredPlugin), string(settings),
		)
		if err != nil {
			return 0, fmt.Errorf("seeding badge group %q: %w", g.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing default badge groups: %w", err)
	}
	return inserted, nil
}

// --- Scanning ---

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanGroup reads one row. Stored settings are normalized again so rows
// written before a schema change still come back fully populated.
func scanGroup(row rowScanner) (*BadgeGroup, error) {
	var (
		g        BadgeGroup
		plugin   sql.NullString
		settings []byte
	)
	err := row.Scan(&g.ID, &g.Name, &g.IsDefault, &g.IsActive, &plugin, &settings, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning badge group: %w", err)
	}

	g.RequiredPlugin = Plugin(plugin.String)

	var raw map[string]any
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &raw); err != nil {
			return nil, fmt.Errorf("decoding settings for %q: %w", g.ID, err)
		}
	}
	g.Settings = Normalize(coerceSettingsValues(raw))
	return &g, nil
}

// nullPlugin maps PluginNone to SQL NULL.
func nullPlugin(p Plugin) sql.NullString {
	return sql.NullString{String: string(p), Valid: p != PluginNone}
}
