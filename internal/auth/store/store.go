package store

import (
	"context"
	"errors"
	"time"

	"github.com/codereach/platform/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today,
// postgres later) implement this. Sub-repositories keep concerns tidy and
// let transactional code share the same surface.
type Store interface {
	Users() Users
	BackupCodes() BackupCodes

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, committing on nil and
	// rolling back on error. Prefer this over Tx directly.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id, including secret-bearing fields.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail looks up by normalized (lowercase) email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id provided by the app via ULID).
	// Returns ErrAlreadyExists on an email collision.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateTwoFactor persists the two-factor state machine and bumps
	// updated_at.
	UpdateTwoFactor(ctx context.Context, userID string, tf domain.TwoFactor) error

	// UpdateLastLogin records a completed login.
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error
}

type BackupCodes interface {
	// CreateBackupCode stores one hashed recovery code for a user.
	CreateBackupCode(ctx context.Context, userID, codeHash string) error

	// ListBackupCodeHashes returns the stored hashes in insertion order.
	// Hashed codes have no indexable lookup; callers scan the whole set.
	ListBackupCodeHashes(ctx context.Context, userID string) ([]string, error)

	// DeleteBackupCode removes a single consumed code by its exact hash.
	DeleteBackupCode(ctx context.Context, userID, codeHash string) error

	// DeleteAllBackupCodes wipes the set, used on regeneration and disable.
	DeleteAllBackupCodes(ctx context.Context, userID string) error

	// CountBackupCodes returns the number of unused codes remaining.
	CountBackupCodes(ctx context.Context, userID string) (int, error)
}
