package service

import (
	"context"
	"strings"
	"time"

	"github.com/gift-exchange/internal/mail"
	"github.com/gift-exchange/internal/models"
	"github.com/gift-exchange/internal/types"
	"github.com/sirupsen/logrus"
)

// ItemService maintains the ordered item sequence of a list: appends,
// neighbor swaps, delete-with-renumber, and the received/restore lifecycle.
type ItemService struct {
	users  UserRepository
	lists  ListRepository
	items  ItemRepository
	claims ClaimRepository
	mailer mail.Sender
	tmpl   *mail.Templates
	logger *logrus.Logger
}

// NewItemService creates a new item service
func NewItemService(
	users UserRepository,
	lists ListRepository,
	items ItemRepository,
	claims ClaimRepository,
	mailer mail.Sender,
	tmpl *mail.Templates,
	logger *logrus.Logger,
) *ItemService {
	return &ItemService{
		users:  users,
		lists:  lists,
		items:  items,
		claims: claims,
		mailer: mailer,
		tmpl:   tmpl,
		logger: logger,
	}
}

// ItemInput carries the validated fields for creating or editing an item.
type ItemInput struct {
	Title         string
	Description   *string
	URL           *string
	Price         *float64
	Notes         *string
	AllowMultiple bool
	MaxClaims     int // used when AllowMultiple; 0 means unlimited
}

// maxClaims maps the allow-multiple flag to the stored limit: off is 1, on
// with a count is that count, on without a count is the unlimited sentinel.
func (in *ItemInput) maxClaims() int {
	if !in.AllowMultiple {
		return 1
	}
	if in.MaxClaims > 0 {
		return in.MaxClaims
	}
	return types.MaxClaimsUnlimited
}

func (in *ItemInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return types.NewError(types.CodeInvalidInput, "title is required")
	}
	if in.Price != nil && *in.Price < 0 {
		return types.NewError(types.CodeInvalidInput, "price cannot be negative")
	}
	if in.AllowMultiple && in.MaxClaims < 0 {
		return types.NewError(types.CodeInvalidInput, "max claims must be at least 1")
	}
	return nil
}

// getManagedItem loads an item and its list and verifies the actor may
// manage it.
func (s *ItemService) getManagedItem(ctx context.Context, actor *models.User, itemID int64) (*models.Item, *models.List, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	if item == nil {
		return nil, nil, types.ErrNotFound("item")
	}

	list, err := s.lists.GetByID(ctx, item.ListID)
	if err != nil {
		return nil, nil, err
	}
	if list == nil {
		return nil, nil, types.ErrNotFound("list")
	}
	if !CanManage(actor, list) {
		return nil, nil, types.NewError(types.CodePermissionDenied, "you do not have permission to modify this list")
	}
	return item, list, nil
}

// Add appends a new item to the end of the list's active ordering.
func (s *ItemService) Add(ctx context.Context, actor *models.User, listID int64, input *ItemInput) (*models.Item, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	list, err := s.lists.GetByID(ctx, listID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return nil, types.ErrNotFound("list")
	}
	if !CanManage(actor, list) {
		return nil, types.NewError(types.CodePermissionDenied, "you do not have permission to add items to this list")
	}

	item := &models.Item{
		ListID:      listID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		URL:         input.URL,
		Price:       input.Price,
		Notes:       input.Notes,
		MaxClaims:   input.maxClaims(),
		CreatedByID: actor.ID,
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Edit updates an item's fields. Position and received state are not
// editable here.
func (s *ItemService) Edit(ctx context.Context, actor *models.User, itemID int64, input *ItemInput) (*models.Item, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	item, _, err := s.getManagedItem(ctx, actor, itemID)
	if err != nil {
		return nil, err
	}

	item.Title = strings.TrimSpace(input.Title)
	item.Description = input.Description
	item.URL = input.URL
	item.Price = input.Price
	item.Notes = input.Notes
	item.MaxClaims = input.maxClaims()

	if err := s.items.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes an item and renumbers the list's surviving active items to
// a dense 1..N sequence preserving their relative order. Anyone who claimed
// the item is notified by email; notification is fire-and-forget and never
// blocks or rolls back the deletion.
func (s *ItemService) Delete(ctx context.Context, actor *models.User, itemID int64) error {
	item, list, err := s.getManagedItem(ctx, actor, itemID)
	if err != nil {
		return err
	}

	claimers, err := s.claims.ListClaimers(ctx, itemID)
	if err != nil {
		return err
	}

	// The repository renumbers the survivors inside the delete transaction,
	// so concurrent deletes on one list cannot leave a gap.
	if err := s.items.DeleteAndRenumber(ctx, itemID); err != nil {
		return err
	}

	if len(claimers) > 0 {
		s.notifyClaimers(list, item, claimers)
	}
	return nil
}

func (s *ItemService) notifyClaimers(list *models.List, item *models.Item, claimers []*models.User) {
	owner, err := s.users.GetByID(context.Background(), list.OwnerID)
	if err != nil || owner == nil {
		s.logger.WithField("list_id", list.ID).Warn("could not resolve list owner for deletion notice")
		return
	}

	go func() {
		for _, claimer := range claimers {
			msg := s.tmpl.ItemDeleted(claimer.DeliveryEmail(), claimer.Name, owner.Name, item.Title)
			if err := s.mailer.Send(msg); err != nil {
				s.logger.WithError(err).WithFields(logrus.Fields{
					"item_id": item.ID,
					"user_id": claimer.ID,
				}).Error("failed to send item deletion notice")
			}
		}
	}()
}

// Move swaps the item with its nearest active neighbor in the given
// direction. A no-op when the item is already at that extreme. Received
// items are excluded from reordering.
func (s *ItemService) Move(ctx context.Context, actor *models.User, itemID int64, direction types.MoveDirection) error {
	item, _, err := s.getManagedItem(ctx, actor, itemID)
	if err != nil {
		return err
	}
	if item.IsReceived() {
		return types.NewError(types.CodeInvalidInput, "received items cannot be reordered")
	}
	if direction != types.MoveUp && direction != types.MoveDown {
		return types.NewError(types.CodeInvalidInput, "direction must be up or down")
	}

	// Neighbor selection happens inside the repository transaction so a
	// concurrent reorder cannot make the swap target stale.
	return s.items.SwapWithNeighbor(ctx, itemID, direction == types.MoveUp)
}

// MarkReceived archives an item as received. It keeps its position value
// but leaves the active ordering and can no longer be claimed.
func (s *ItemService) MarkReceived(ctx context.Context, actor *models.User, itemID int64) error {
	item, _, err := s.getManagedItem(ctx, actor, itemID)
	if err != nil {
		return err
	}
	if item.IsReceived() {
		return nil
	}
	return s.items.MarkReceived(ctx, itemID, time.Now())
}

// Restore puts a received gift idea back on the active list by creating a
// copy appended at the end. The received item is never un-marked, so the
// history of what was received stays intact.
func (s *ItemService) Restore(ctx context.Context, actor *models.User, itemID int64) (*models.Item, error) {
	item, _, err := s.getManagedItem(ctx, actor, itemID)
	if err != nil {
		return nil, err
	}
	if !item.IsReceived() {
		return nil, types.NewError(types.CodeInvalidInput, "only received items can be restored")
	}

	clone := &models.Item{
		ListID:      item.ListID,
		Title:       item.Title,
		Description: item.Description,
		URL:         item.URL,
		Price:       item.Price,
		MaxClaims:   item.MaxClaims,
		CreatedByID: actor.ID,
	}
	if err := s.items.Create(ctx, clone); err != nil {
		return nil, err
	}
	return clone, nil
}
