package service

import (
	"context"

	"github.com/gift-exchange/internal/models"
	"github.com/gift-exchange/internal/types"
	"github.com/sirupsen/logrus"
)

// ClaimService is the claim visibility engine. Owners and managers can
// never claim from, nor see claims on, their own lists; everyone else may
// claim up to an item's capacity, once each.
type ClaimService struct {
	lists  ListRepository
	items  ItemRepository
	claims ClaimRepository
	logger *logrus.Logger
}

// NewClaimService creates a new claim service
func NewClaimService(
	lists ListRepository,
	items ItemRepository,
	claims ClaimRepository,
	logger *logrus.Logger,
) *ClaimService {
	return &ClaimService{
		lists:  lists,
		items:  items,
		claims: claims,
		logger: logger,
	}
}

// Claim records that the actor intends to buy the item. Fails with
// PERMISSION_DENIED for the list's owner or manager, ALREADY_CLAIMED when
// the actor holds a claim (reported, not an internal error), and
// CAPACITY_EXCEEDED when max_claims is reached. The store's unique
// constraint on (item, claimer) backs the double-claim check under
// concurrent requests.
func (s *ClaimService) Claim(ctx context.Context, actor *models.User, itemID int64) (*models.Claim, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, types.ErrNotFound("item")
	}

	list, err := s.lists.GetByID(ctx, item.ListID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return nil, types.ErrNotFound("list")
	}
	if CanManage(actor, list) {
		return nil, types.NewError(types.CodePermissionDenied, "you cannot claim items from your own list")
	}
	if item.IsReceived() {
		return nil, types.ErrNotFound("item")
	}

	return s.claims.CreateIfCapacity(ctx, itemID, actor.ID)
}

// Unclaim releases the actor's claim on the item. Fails with NOT_CLAIMED
// when they hold none. A user may always release their own claim; no
// ownership or capacity check applies.
func (s *ClaimService) Unclaim(ctx context.Context, actor *models.User, itemID int64) error {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return types.ErrNotFound("item")
	}

	return s.claims.Delete(ctx, itemID, actor.ID)
}
