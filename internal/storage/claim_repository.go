package storage

import (
	"context"
	"fmt"

	"github.com/gift-exchange/internal/models"
	"github.com/gift-exchange/internal/types"
	"github.com/jackc/pgx/v5"
)

// ClaimRepository handles claim persistence
type ClaimRepository struct {
	db *PostgresDB
}

// NewClaimRepository creates a new claim repository
func NewClaimRepository(db *PostgresDB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

// CreateIfCapacity inserts a claim for (itemID, userID) while holding a row
// lock on the item, so two concurrent claims cannot both pass the capacity
// check. Returns ALREADY_CLAIMED when the user holds a claim (the unique
// constraint backs this under races), CAPACITY_EXCEEDED when the item is
// fully claimed, and NOT_FOUND when the item is absent or already received.
func (r *ClaimRepository) CreateIfCapacity(ctx context.Context, itemID, userID int64) (*models.Claim, error) {
	var claim *models.Claim
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		var maxClaims int
		var received bool
		err := tx.QueryRow(ctx,
			`SELECT max_claims, received_at IS NOT NULL FROM items WHERE id = $1 FOR UPDATE`,
			itemID,
		).Scan(&maxClaims, &received)
		if err != nil {
			if err == pgx.ErrNoRows {
				return types.ErrNotFound("item")
			}
			return fmt.Errorf("failed to lock item: %w", err)
		}
		if received {
			return types.ErrNotFound("item")
		}

		var count int
		err = tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM claims WHERE item_id = $1`, itemID,
		).Scan(&count)
		if err != nil {
			return fmt.Errorf("failed to count claims: %w", err)
		}
		if count >= maxClaims {
			return types.NewError(types.CodeCapacityExceeded,
				"this item has already been claimed by the maximum number of people")
		}

		c := &models.Claim{ItemID: itemID, ClaimedByID: userID}
		err = tx.QueryRow(ctx,
			`INSERT INTO claims (item_id, claimed_by_id) VALUES ($1, $2)
			 RETURNING id, claimed_at, created_at`,
			itemID, userID,
		).Scan(&c.ID, &c.ClaimedAt, &c.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return types.NewError(types.CodeAlreadyClaimed, "you have already claimed this item")
			}
			return fmt.Errorf("failed to create claim: %w", err)
		}
		claim = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}

// Delete removes the claim held by userID on itemID. Returns NOT_CLAIMED
// when no such claim exists.
func (r *ClaimRepository) Delete(ctx context.Context, itemID, userID int64) error {
	tag, err := r.db.Pool().Exec(ctx,
		`DELETE FROM claims WHERE item_id = $1 AND claimed_by_id = $2`,
		itemID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete claim: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewError(types.CodeNotClaimed, "you have not claimed this item")
	}
	return nil
}

// Exists reports whether userID holds a claim on itemID.
func (r *ClaimRepository) Exists(ctx context.Context, itemID, userID int64) (bool, error) {
	var exists bool
	err := r.db.Pool().QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM claims WHERE item_id = $1 AND claimed_by_id = $2)`,
		itemID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check claim: %w", err)
	}
	return exists, nil
}

// CountsForList returns claim counts per item for all items of a list.
func (r *ClaimRepository) CountsForList(ctx context.Context, listID int64) (map[int64]int, error) {
	query := `
		SELECT c.item_id, COUNT(*)
		FROM claims c
		JOIN items i ON i.id = c.item_id
		WHERE i.list_id = $1
		GROUP BY c.item_id
	`

	rows, err := r.db.Pool().Query(ctx, query, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to count claims: %w", err)
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var itemID int64
		var count int
		if err := rows.Scan(&itemID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan claim count: %w", err)
		}
		counts[itemID] = count
	}
	return counts, rows.Err()
}

// ItemsClaimedBy returns the set of item IDs within a list claimed by the
// given user.
func (r *ClaimRepository) ItemsClaimedBy(ctx context.Context, listID, userID int64) (map[int64]bool, error) {
	query := `
		SELECT c.item_id
		FROM claims c
		JOIN items i ON i.id = c.item_id
		WHERE i.list_id = $1 AND c.claimed_by_id = $2
	`

	rows, err := r.db.Pool().Query(ctx, query, listID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list claimed items: %w", err)
	}
	defer rows.Close()

	claimed := make(map[int64]bool)
	for rows.Next() {
		var itemID int64
		if err := rows.Scan(&itemID); err != nil {
			return nil, fmt.Errorf("failed to scan claimed item: %w", err)
		}
		claimed[itemID] = true
	}
	return claimed, rows.Err()
}

// ListClaimers returns the users holding claims on an item, for deletion
// notifications.
func (r *ClaimRepository) ListClaimers(ctx context.Context, itemID int64) ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id IN (SELECT claimed_by_id FROM claims WHERE item_id = $1)
		ORDER BY id
	`

	rows, err := r.db.Pool().Query(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list claimers: %w", err)
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
