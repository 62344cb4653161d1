package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/codereach/platform/internal/auth/domain"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, email, name, password_hash, role, two_factor_status,
	two_factor_secret, last_login_at, created_at, updated_at`

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, password_hash, role,
			two_factor_status, two_factor_secret, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.Role.String(),
		string(u.TwoFactor.Status), mapStringNull(u.TwoFactor.Secret), now, now,
	)
	return mapConstraint(err)
}

func (r *usersRepo) UpdateTwoFactor(ctx context.Context, userID string, tf domain.TwoFactor) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET two_factor_status = ?, two_factor_secret = ?, updated_at = ?
		 WHERE id = ?`,
		string(tf.Status), mapStringNull(tf.Secret), time.Now().UTC(), userID,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *usersRepo) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = ?, updated_at = ? WHERE id = ?`,
		at.UTC(), time.Now().UTC(), userID,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func scanUser(row *sql.Row) (domain.User, error) {
	var (
		u           domain.User
		role        string
		tfStatus    string
		tfSecret    sql.NullString
		lastLoginAt sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &role, &tfStatus,
		&tfSecret, &lastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	parsedRole, err := domain.ParseRole(role)
	if err != nil {
		return domain.User{}, fmt.Errorf("corrupt user row: %w", err)
	}
	u.Role = parsedRole

	status, err := domain.ParseTwoFactorStatus(tfStatus)
	if err != nil {
		return domain.User{}, fmt.Errorf("corrupt user row: %w", err)
	}
	u.TwoFactor = domain.TwoFactor{Status: status, Secret: mapNullString(tfSecret)}

	if lastLoginAt.Valid {
		t := lastLoginAt.Time
		u.LastLoginAt = &t
	}
	return u, nil
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}
