package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/artpar/schemawire/domain/user"
	"github.com/artpar/schemawire/ports"
)

// UserStore implements ports.UserStore using SQLite. Roles and preferences
// are stored as JSON text; the username column is UNIQUE COLLATE NOCASE, so
// the database enforces case-insensitive uniqueness.
type UserStore struct {
	db *DB
}

// NewUserStore creates a new SQLite user store.
func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

// Create stores a new user. The AUTOINCREMENT column assigns the ID.
func (s *UserStore) Create(ctx context.Context, u user.User) (user.User, error) {
	roles, err := json.Marshal(u.Roles)
	if err != nil {
		return user.User{}, fmt.Errorf("encode roles: %w", err)
	}
	prefs, err := encodePreferences(u.Preferences)
	if err != nil {
		return user.User{}, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, email, created_at, roles, status, active, preferences)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, u.Username, u.Email, u.CreatedAt.UTC(), string(roles), string(u.Status), u.Active, prefs)
	if isUniqueConstraintError(err) {
		return user.User{}, ports.ErrDuplicate
	}
	if err != nil {
		return user.User{}, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return user.User{}, err
	}
	u.ID = uint64(id)
	return u, nil
}

// Get retrieves a user by ID.
func (s *UserStore) Get(ctx context.Context, id uint64) (user.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, email, created_at, roles, status, active, preferences
		FROM users
		WHERE id = ?
	`, id)
	u, err := scanUser(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, ports.ErrNotFound
	}
	return u, err
}

// List returns users ordered by ID. limit zero means no limit.
func (s *UserStore) List(ctx context.Context, limit, offset int) ([]user.User, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unlimited
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, email, created_at, roles, status, active, preferences
		FROM users
		ORDER BY id
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []user.User{}
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Count returns the total user count.
func (s *UserStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

// scanUser decodes one row. Taking the scan func lets it serve both
// QueryRow and Rows iteration.
func scanUser(scan func(dest ...any) error) (user.User, error) {
	var (
		u      user.User
		roles  string
		status string
		prefs  sql.NullString
	)
	if err := scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt, &roles, &status, &u.Active, &prefs); err != nil {
		return user.User{}, err
	}

	if err := json.Unmarshal([]byte(roles), &u.Roles); err != nil {
		return user.User{}, fmt.Errorf("decode roles: %w", err)
	}
	u.Status = user.AccountStatus(status)
	if prefs.Valid {
		var p user.Preferences
		if err := json.Unmarshal([]byte(prefs.String), &p); err != nil {
			return user.User{}, fmt.Errorf("decode preferences: %w", err)
		}
		u.Preferences = &p
	}
	return u, nil
}

func encodePreferences(p *user.Preferences) (sql.NullString, error) {
	if p == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode preferences: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var _ ports.UserStore = (*UserStore)(nil)
