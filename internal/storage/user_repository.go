package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gift-exchange/internal/models"
	"github.com/gift-exchange/internal/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const userColumns = `id, email, password_hash, name, gift_delivery_email, is_admin,
	invite_token, invite_token_expires, password_reset_token, password_reset_expires,
	invited_by_id, is_active, archived_at, archived_by_id, archived_reason,
	promoted_from_child, promoted_at, promoted_by_id, created_at, updated_at`

// UserRepository handles user persistence
type UserRepository struct {
	db *PostgresDB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *PostgresDB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.GiftDeliveryEmail,
		&u.IsAdmin,
		&u.InviteToken,
		&u.InviteTokenExpires,
		&u.PasswordResetToken,
		&u.PasswordResetExpires,
		&u.InvitedByID,
		&u.IsActive,
		&u.ArchivedAt,
		&u.ArchivedByID,
		&u.ArchivedReason,
		&u.PromotedFromChild,
		&u.PromotedAt,
		&u.PromotedByID,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // not found, return nil without error
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

// Create inserts a new user record. Email uniqueness violations are
// translated to DUPLICATE_EMAIL.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(user.Email)

	query := `
		INSERT INTO users (
			email, password_hash, name, gift_delivery_email, is_admin,
			invite_token, invite_token_expires, invited_by_id, is_active,
			promoted_from_child
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	err := r.db.Pool().QueryRow(ctx, query,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.GiftDeliveryEmail,
		user.IsAdmin,
		user.InviteToken,
		user.InviteTokenExpires,
		user.InvitedByID,
		user.IsActive,
		user.PromotedFromChild,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return types.NewError(types.CodeDuplicateEmail, "this email is already registered")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID. Returns nil without error when absent.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.Pool().QueryRow(ctx, query, id))
}

// GetByEmail retrieves a user by email, case-insensitively.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.Pool().QueryRow(ctx, query, strings.ToLower(email)))
}

// GetByInviteToken retrieves a user by invite token.
func (r *UserRepository) GetByInviteToken(ctx context.Context, token string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE invite_token = $1`
	return scanUser(r.db.Pool().QueryRow(ctx, query, token))
}

// GetByPasswordResetToken retrieves a user by password reset token.
func (r *UserRepository) GetByPasswordResetToken(ctx context.Context, token string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE password_reset_token = $1`
	return scanUser(r.db.Pool().QueryRow(ctx, query, token))
}

// execer lets the user update run either on the pool or inside a
// transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func updateUser(ctx context.Context, ex execer, user *models.User) error {
	query := `
		UPDATE users SET
			email = $2,
			password_hash = $3,
			name = $4,
			gift_delivery_email = $5,
			is_admin = $6,
			invite_token = $7,
			invite_token_expires = $8,
			password_reset_token = $9,
			password_reset_expires = $10,
			is_active = $11,
			archived_at = $12,
			archived_by_id = $13,
			archived_reason = $14,
			promoted_from_child = $15,
			promoted_at = $16,
			promoted_by_id = $17,
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := ex.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.GiftDeliveryEmail,
		user.IsAdmin,
		user.InviteToken,
		user.InviteTokenExpires,
		user.PasswordResetToken,
		user.PasswordResetExpires,
		user.IsActive,
		user.ArchivedAt,
		user.ArchivedByID,
		user.ArchivedReason,
		user.PromotedFromChild,
		user.PromotedAt,
		user.PromotedByID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return types.NewError(types.CodeDuplicateEmail, "this email is already in use")
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound("user")
	}
	return nil
}

// Update persists every mutable field of the user. Email uniqueness
// violations are translated to DUPLICATE_EMAIL.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(user.Email)
	return updateUser(ctx, r.db.Pool(), user)
}

// Promote finalizes a child promotion in one transaction: the new email,
// invite token, and promotion metadata land together with detaching the
// child's list from its managing parent. A failure on either statement
// rolls back both.
func (r *UserRepository) Promote(ctx context.Context, user *models.User, listID int64) error {
	user.Email = strings.ToLower(user.Email)

	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		if err := updateUser(ctx, tx, user); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx,
			`UPDATE lists SET managed_by_id = NULL, updated_at = NOW() WHERE id = $1`,
			listID,
		)
		if err != nil {
			return fmt.Errorf("failed to clear list manager: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return types.ErrNotFound("list")
		}
		return nil
	})
}

// Delete permanently removes a user. The schema cascades through the owned
// list, its items and their claims, deletes claims the user made elsewhere,
// and detaches lists they manage.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool().Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound("user")
	}
	return nil
}

// ListMembers returns all active users who completed account setup. Pending
// invitees and child profiles (no password) are excluded from family-facing
// views.
func (r *UserRepository) ListMembers(ctx context.Context) ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE is_active AND password_hash IS NOT NULL
		ORDER BY name, id
	`

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountActiveAdmins returns the number of active administrator accounts.
func (r *UserRepository) CountActiveAdmins(ctx context.Context) (int, error) {
	var count int
	err := r.db.Pool().QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE is_admin AND is_active`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active admins: %w", err)
	}
	return count, nil
}

// EmailExists reports whether any account, archived ones included, uses the
// email.
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.Pool().QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`,
		strings.ToLower(email),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}
