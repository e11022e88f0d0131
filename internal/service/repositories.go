// Package service implements the domain operations of the gift exchange:
// authentication flows, account lifecycle, list ownership, item ordering,
// and the claim visibility engine.
package service

import (
	"context"
	"time"

	"github.com/gift-exchange/internal/models"
)

// Repository interfaces for dependency injection and testing

// UserRepository defines user persistence operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByInviteToken(ctx context.Context, token string) (*models.User, error)
	GetByPasswordResetToken(ctx context.Context, token string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Promote(ctx context.Context, user *models.User, listID int64) error
	Delete(ctx context.Context, id int64) error
	ListMembers(ctx context.Context) ([]*models.User, error)
	CountActiveAdmins(ctx context.Context) (int, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// ListRepository defines wishlist persistence operations
type ListRepository interface {
	Create(ctx context.Context, list *models.List) error
	GetByID(ctx context.Context, id int64) (*models.List, error)
	GetByOwner(ctx context.Context, ownerID int64) (*models.List, error)
	ListManagedBy(ctx context.Context, managerID int64) ([]*models.List, error)
	ListWithOwners(ctx context.Context) ([]*models.ListWithOwner, error)
}

// ItemRepository defines item persistence operations
type ItemRepository interface {
	Create(ctx context.Context, item *models.Item) error
	GetByID(ctx context.Context, id int64) (*models.Item, error)
	Update(ctx context.Context, item *models.Item) error
	ListByList(ctx context.Context, listID int64) ([]*models.Item, error)
	ListActiveByList(ctx context.Context, listID int64) ([]*models.Item, error)
	SwapWithNeighbor(ctx context.Context, itemID int64, moveUp bool) error
	DeleteAndRenumber(ctx context.Context, itemID int64) error
	MarkReceived(ctx context.Context, itemID int64, at time.Time) error
}

// ClaimRepository defines claim persistence operations
type ClaimRepository interface {
	CreateIfCapacity(ctx context.Context, itemID, userID int64) (*models.Claim, error)
	Delete(ctx context.Context, itemID, userID int64) error
	Exists(ctx context.Context, itemID, userID int64) (bool, error)
	CountsForList(ctx context.Context, listID int64) (map[int64]int, error)
	ItemsClaimedBy(ctx context.Context, listID, userID int64) (map[int64]bool, error)
	ListClaimers(ctx context.Context, itemID int64) ([]*models.User, error)
}
