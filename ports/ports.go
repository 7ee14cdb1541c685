// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/artpar/schemawire/domain/user"
)

// Store errors shared by every UserStore implementation. Services translate
// these into wire-level error envelopes; stores never shape HTTP responses.
var (
	// ErrNotFound reports that no record matches the lookup.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate reports a uniqueness violation, such as a username that
	// is already taken under case-insensitive comparison.
	ErrDuplicate = errors.New("record already exists")
)

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// UserStore persists user accounts.
type UserStore interface {
	// Create stores a new user and returns it with its assigned ID.
	// The store owns ID assignment; callers must leave ID zero.
	// Returns ErrDuplicate when the username is already taken.
	Create(ctx context.Context, u user.User) (user.User, error)

	// Get retrieves a user by ID. Returns ErrNotFound when absent.
	Get(ctx context.Context, id uint64) (user.User, error)

	// List returns users ordered by ID. A limit of zero means no limit;
	// offset skips that many users from the start.
	List(ctx context.Context, limit, offset int) ([]user.User, error)

	// Count reports how many users the store holds.
	Count(ctx context.Context) (int, error)
}
