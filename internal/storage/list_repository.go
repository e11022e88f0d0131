package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/gift-exchange/internal/models"
	"github.com/jackc/pgx/v5"
)

const listColumns = `id, owner_id, managed_by_id, name, created_at, updated_at`

// ListRepository handles wishlist persistence
type ListRepository struct {
	db *PostgresDB
}

// NewListRepository creates a new list repository
func NewListRepository(db *PostgresDB) *ListRepository {
	return &ListRepository{db: db}
}

func scanList(row pgx.Row) (*models.List, error) {
	var l models.List
	err := row.Scan(&l.ID, &l.OwnerID, &l.ManagedByID, &l.Name, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan list: %w", err)
	}
	return &l, nil
}

// Create inserts a new list.
func (r *ListRepository) Create(ctx context.Context, list *models.List) error {
	query := `
		INSERT INTO lists (owner_id, managed_by_id, name)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	err := r.db.Pool().QueryRow(ctx, query,
		list.OwnerID,
		list.ManagedByID,
		list.Name,
	).Scan(&list.ID, &list.CreatedAt, &list.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create list: %w", err)
	}
	return nil
}

// GetByID retrieves a list by ID. Returns nil without error when absent.
func (r *ListRepository) GetByID(ctx context.Context, id int64) (*models.List, error) {
	query := `SELECT ` + listColumns + ` FROM lists WHERE id = $1`
	return scanList(r.db.Pool().QueryRow(ctx, query, id))
}

// GetByOwner retrieves the list owned by the given user.
func (r *ListRepository) GetByOwner(ctx context.Context, ownerID int64) (*models.List, error) {
	query := `SELECT ` + listColumns + ` FROM lists WHERE owner_id = $1`
	return scanList(r.db.Pool().QueryRow(ctx, query, ownerID))
}

// ListManagedBy returns the child lists managed by the given user.
func (r *ListRepository) ListManagedBy(ctx context.Context, managerID int64) ([]*models.List, error) {
	query := `SELECT ` + listColumns + ` FROM lists WHERE managed_by_id = $1 ORDER BY name, id`

	rows, err := r.db.Pool().Query(ctx, query, managerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list managed lists: %w", err)
	}
	defer rows.Close()

	var lists []*models.List
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	return lists, rows.Err()
}

// ListWithOwners returns every visible list with owner display info and the
// count of active items. Lists are visible when the owner is active and has
// either completed setup or is a child profile (managed list).
func (r *ListRepository) ListWithOwners(ctx context.Context) ([]*models.ListWithOwner, error) {
	query := `
		SELECT l.id, l.owner_id, l.managed_by_id, l.name, l.created_at, l.updated_at,
			u.name AS owner_name,
			(SELECT COUNT(*) FROM items i WHERE i.list_id = l.id AND i.received_at IS NULL) AS active_items
		FROM lists l
		JOIN users u ON u.id = l.owner_id
		WHERE u.is_active
		  AND (u.password_hash IS NOT NULL OR l.managed_by_id IS NOT NULL)
		ORDER BY u.name, l.id
	`

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list lists: %w", err)
	}
	defer rows.Close()

	var lists []*models.ListWithOwner
	for rows.Next() {
		var l models.ListWithOwner
		err := rows.Scan(
			&l.ID, &l.OwnerID, &l.ManagedByID, &l.Name, &l.CreatedAt, &l.UpdatedAt,
			&l.OwnerName, &l.ActiveItems,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan list: %w", err)
		}
		lists = append(lists, &l)
	}
	return lists, rows.Err()
}
