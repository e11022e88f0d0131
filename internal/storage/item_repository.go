package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gift-exchange/internal/models"
	"github.com/gift-exchange/internal/types"
	"github.com/jackc/pgx/v5"
)

const itemColumns = `id, list_id, title, description, url, price, notes,
	max_claims, position, received_at, created_by_id, created_at, updated_at`

// ItemRepository handles wishlist item persistence
type ItemRepository struct {
	db *PostgresDB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *PostgresDB) *ItemRepository {
	return &ItemRepository{db: db}
}

func scanItem(row pgx.Row) (*models.Item, error) {
	var i models.Item
	err := row.Scan(
		&i.ID,
		&i.ListID,
		&i.Title,
		&i.Description,
		&i.URL,
		&i.Price,
		&i.Notes,
		&i.MaxClaims,
		&i.Position,
		&i.ReceivedAt,
		&i.CreatedByID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan item: %w", err)
	}
	return &i, nil
}

// Create inserts a new item appended to the end of the active ordering. The
// position is computed inside the insert so concurrent appends cannot
// observe a stale maximum.
func (r *ItemRepository) Create(ctx context.Context, item *models.Item) error {
	query := `
		INSERT INTO items (
			list_id, title, description, url, price, notes, max_claims,
			position, created_by_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7,
			COALESCE((SELECT MAX(position) FROM items
				WHERE list_id = $1 AND received_at IS NULL), 0) + 1,
			$8)
		RETURNING id, position, created_at, updated_at
	`

	err := r.db.Pool().QueryRow(ctx, query,
		item.ListID,
		item.Title,
		item.Description,
		item.URL,
		item.Price,
		item.Notes,
		item.MaxClaims,
		item.CreatedByID,
	).Scan(&item.ID, &item.Position, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

// GetByID retrieves an item by ID. Returns nil without error when absent.
func (r *ItemRepository) GetByID(ctx context.Context, id int64) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`
	return scanItem(r.db.Pool().QueryRow(ctx, query, id))
}

// Update persists the editable fields of an item.
func (r *ItemRepository) Update(ctx context.Context, item *models.Item) error {
	query := `
		UPDATE items SET
			title = $2,
			description = $3,
			url = $4,
			price = $5,
			notes = $6,
			max_claims = $7,
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Pool().Exec(ctx, query,
		item.ID,
		item.Title,
		item.Description,
		item.URL,
		item.Price,
		item.Notes,
		item.MaxClaims,
	)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound("item")
	}
	return nil
}

func (r *ItemRepository) listByList(ctx context.Context, query string, listID int64) ([]*models.Item, error) {
	rows, err := r.db.Pool().Query(ctx, query, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

// ListByList returns every item of a list, active first in position order,
// then received items newest first.
func (r *ItemRepository) ListByList(ctx context.Context, listID int64) ([]*models.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items
		WHERE list_id = $1
		ORDER BY received_at IS NOT NULL, position, received_at DESC
	`
	return r.listByList(ctx, query, listID)
}

// ListActiveByList returns the active items of a list in position order.
func (r *ItemRepository) ListActiveByList(ctx context.Context, listID int64) ([]*models.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items
		WHERE list_id = $1 AND received_at IS NULL
		ORDER BY position
	`
	return r.listByList(ctx, query, listID)
}

// lockListRow takes the list's row lock. Every position mutation goes
// through here first, so reorders, deletes, and renumbers on one list are
// serialized and never interleave.
func lockListRow(ctx context.Context, tx pgx.Tx, listID int64) error {
	if _, err := tx.Exec(ctx, `SELECT id FROM lists WHERE id = $1 FOR UPDATE`, listID); err != nil {
		return fmt.Errorf("failed to lock list: %w", err)
	}
	return nil
}

// DeleteAndRenumber removes an item and renumbers the surviving active
// items to a dense 1..N sequence in one transaction. The survivors are read
// under the list's row lock, after any concurrent mutation has committed,
// so the ordering never ends up with a gap. Claims on the item are removed
// by the cascade.
func (r *ItemRepository) DeleteAndRenumber(ctx context.Context, itemID int64) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		var listID int64
		err := tx.QueryRow(ctx, `SELECT list_id FROM items WHERE id = $1`, itemID).Scan(&listID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return types.ErrNotFound("item")
			}
			return fmt.Errorf("failed to load item: %w", err)
		}
		if err := lockListRow(ctx, tx, listID); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM items WHERE id = $1`, itemID)
		if err != nil {
			return fmt.Errorf("failed to delete item: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return types.ErrNotFound("item")
		}

		_, err = tx.Exec(ctx, `
			UPDATE items SET position = ranked.rn, updated_at = NOW()
			FROM (
				SELECT id, ROW_NUMBER() OVER (ORDER BY position) AS rn
				FROM items
				WHERE list_id = $1 AND received_at IS NULL
			) ranked
			WHERE items.id = ranked.id AND items.position <> ranked.rn
		`, listID)
		if err != nil {
			return fmt.Errorf("failed to renumber items: %w", err)
		}
		return nil
	})
}

// SwapWithNeighbor moves an item one step within its list's active
// ordering, swapping positions with the nearest active neighbor. The
// neighbor is found under the list's row lock so concurrent reorders see
// each other's results. A no-op when the item is already at that extreme;
// INVALID_INPUT when the item has been received.
func (r *ItemRepository) SwapWithNeighbor(ctx context.Context, itemID int64, moveUp bool) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		var listID int64
		var received bool
		err := tx.QueryRow(ctx,
			`SELECT list_id, received_at IS NOT NULL FROM items WHERE id = $1`, itemID,
		).Scan(&listID, &received)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return types.ErrNotFound("item")
			}
			return fmt.Errorf("failed to load item: %w", err)
		}
		if received {
			return types.NewError(types.CodeInvalidInput, "received items cannot be reordered")
		}
		if err := lockListRow(ctx, tx, listID); err != nil {
			return err
		}

		// Re-read under the lock; a concurrent reorder may have moved it.
		var position int
		err = tx.QueryRow(ctx, `SELECT position FROM items WHERE id = $1`, itemID).Scan(&position)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return types.ErrNotFound("item")
			}
			return fmt.Errorf("failed to load item position: %w", err)
		}

		neighborQuery := `
			SELECT id, position FROM items
			WHERE list_id = $1 AND received_at IS NULL AND position > $2
			ORDER BY position LIMIT 1
		`
		if moveUp {
			neighborQuery = `
				SELECT id, position FROM items
				WHERE list_id = $1 AND received_at IS NULL AND position < $2
				ORDER BY position DESC LIMIT 1
			`
		}

		var neighborID int64
		var neighborPos int
		err = tx.QueryRow(ctx, neighborQuery, listID, position).Scan(&neighborID, &neighborPos)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil // already at the extreme
			}
			return fmt.Errorf("failed to find neighbor: %w", err)
		}

		for _, step := range []struct {
			id  int64
			pos int
		}{{itemID, neighborPos}, {neighborID, position}} {
			_, err := tx.Exec(ctx,
				`UPDATE items SET position = $2, updated_at = NOW() WHERE id = $1`,
				step.id, step.pos,
			)
			if err != nil {
				return fmt.Errorf("failed to swap item position: %w", err)
			}
		}
		return nil
	})
}

// MarkReceived sets received_at. The item keeps its position value but
// leaves the active ordering.
func (r *ItemRepository) MarkReceived(ctx context.Context, itemID int64, at time.Time) error {
	tag, err := r.db.Pool().Exec(ctx,
		`UPDATE items SET received_at = $2, updated_at = NOW() WHERE id = $1 AND received_at IS NULL`,
		itemID, at,
	)
	if err != nil {
		return fmt.Errorf("failed to mark item received: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound("item")
	}
	return nil
}
