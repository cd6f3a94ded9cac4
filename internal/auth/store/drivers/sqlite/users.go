package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/quillworks/quill/internal/auth/domain"
	"github.com/quillworks/quill/internal/auth/store"

	sqlite3 "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

type usersRepo struct {
	q querier
}

const userColumns = `id, email, display_name, password_hash, roles, security_stamp,
	failed_logins, lockout_until, last_login_at, created_at, updated_at`

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(email))
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := time.Now().UTC()
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO users (id, email, display_name, password_hash, roles, security_stamp,
			failed_logins, lockout_until, last_login_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID,
		strings.ToLower(u.Email),
		u.DisplayName,
		u.PasswordHash,
		joinRoles(u.Roles),
		u.SecurityStamp,
		u.FailedLogins,
		mapOptionalTime(u.LockoutUntil),
		mapOptionalTime(u.LastLoginAt),
		now,
		now,
	)
	return mapConstraint(err)
}

func (r *usersRepo) UpdateLoginState(
	ctx context.Context,
	userID string,
	failedLogins int,
	lockoutUntil *time.Time,
) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET failed_logins = ?, lockout_until = ?, updated_at = ? WHERE id = ?`,
		failedLogins, mapOptionalTime(lockoutUntil), time.Now().UTC(), userID)
	return mapNoRows(res, err)
}

func (r *usersRepo) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET last_login_at = ?, updated_at = ? WHERE id = ?`,
		at.UTC(), time.Now().UTC(), userID)
	return mapNoRows(res, err)
}

func (r *usersRepo) UpdateSecurityStamp(ctx context.Context, userID string, stamp string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET security_stamp = ?, updated_at = ? WHERE id = ?`,
		stamp, time.Now().UTC(), userID)
	return mapNoRows(res, err)
}

func (r *usersRepo) UpdateRoles(ctx context.Context, userID string, roles []domain.Role) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET roles = ?, updated_at = ? WHERE id = ?`,
		joinRoles(roles), time.Now().UTC(), userID)
	return mapNoRows(res, err)
}

func scanUser(row *sql.Row) (domain.User, error) {
	var (
		u            domain.User
		roles        string
		lockoutUntil sql.NullTime
		lastLoginAt  sql.NullTime
	)
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.DisplayName,
		&u.PasswordHash,
		&roles,
		&u.SecurityStamp,
		&u.FailedLogins,
		&lockoutUntil,
		&lastLoginAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.Roles = splitRoles(roles)
	u.LockoutUntil = mapNullTimePtr(lockoutUntil)
	u.LastLoginAt = mapNullTimePtr(lastLoginAt)
	return u, nil
}

// mapConstraint converts a sqlite unique-constraint violation into
// store.ErrAlreadyExists.
func mapConstraint(err error) error {
	if err == nil {
		return nil
	}
	var serr *sqlite3.Error
	if errors.As(err, &serr) {
		code := serr.Code()
		if code == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY {
			return store.ErrAlreadyExists
		}
	}
	return err
}

func mapNoRows(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
