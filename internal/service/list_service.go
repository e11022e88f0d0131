package service

import (
	"context"
	"fmt"

	"github.com/gift-exchange/internal/models"
	"github.com/gift-exchange/internal/types"
	"github.com/sirupsen/logrus"
)

// ListService builds the read models consumed by the presentation layer.
// It is the only place claim information is attached to items, so the
// visibility rule is enforced in one spot.
type ListService struct {
	users  UserRepository
	lists  ListRepository
	items  ItemRepository
	claims ClaimRepository
	logger *logrus.Logger
}

// NewListService creates a new list service
func NewListService(
	users UserRepository,
	lists ListRepository,
	items ItemRepository,
	claims ClaimRepository,
	logger *logrus.Logger,
) *ListService {
	return &ListService{
		users:  users,
		lists:  lists,
		items:  items,
		claims: claims,
		logger: logger,
	}
}

// FamilyMember is the dashboard view of a user.
type FamilyMember struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"isAdmin"`
}

// DashboardView lists the family and every visible wishlist.
type DashboardView struct {
	FamilyMembers []*FamilyMember         `json:"familyMembers"`
	Lists         []*models.ListWithOwner `json:"lists"`
}

// ItemView is an item annotated for a specific viewer. For viewers who
// manage the list, ClaimState is "hidden", the count is zeroed, and the
// giver-only notes are stripped; for everyone else notes and the aggregate
// claim count are included, never claimer identities.
type ItemView struct {
	Item       *models.Item     `json:"item"`
	ClaimState types.ClaimState `json:"claimState"`
	ClaimCount int              `json:"claimCount"`
	Available  bool             `json:"available"`
}

// ListView is a single list prepared for a viewer.
type ListView struct {
	List          *models.List `json:"list"`
	OwnerName     string       `json:"ownerName"`
	ManagedByYou  bool         `json:"managedByYou"`
	Items         []*ItemView  `json:"items"`
	Received      []*ItemView  `json:"received"`
	TotalItems    int          `json:"totalItems"`
	ShownItems    int          `json:"shownItems"`
	AvailableOnly bool         `json:"availableOnly"`
}

// MyListView is the owner's management view: their own list plus any child
// lists they manage.
type MyListView struct {
	List         *ListView      `json:"list"`
	ManagedLists []*models.List `json:"managedLists"`
}

// Dashboard returns the family members and all visible lists.
func (s *ListService) Dashboard(ctx context.Context, viewer *models.User) (*DashboardView, error) {
	users, err := s.users.ListMembers(ctx)
	if err != nil {
		return nil, err
	}

	members := make([]*FamilyMember, 0, len(users))
	for _, u := range users {
		members = append(members, &FamilyMember{ID: u.ID, Name: u.Name, IsAdmin: u.IsAdmin})
	}

	lists, err := s.lists.ListWithOwners(ctx)
	if err != nil {
		return nil, err
	}

	return &DashboardView{FamilyMembers: members, Lists: lists}, nil
}

// MyList returns the viewer's own list, creating it if absent, plus the
// child lists they manage.
func (s *ListService) MyList(ctx context.Context, viewer *models.User) (*MyListView, error) {
	list, err := s.lists.GetByOwner(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = &models.List{
			OwnerID: viewer.ID,
			Name:    fmt.Sprintf("%s's List", viewer.Name),
		}
		if err := s.lists.Create(ctx, list); err != nil {
			return nil, err
		}
	}

	view, err := s.buildListView(ctx, viewer, list, false)
	if err != nil {
		return nil, err
	}

	managed, err := s.lists.ListManagedBy(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}

	return &MyListView{List: view, ManagedLists: managed}, nil
}

// ViewList returns a list prepared for the viewer. Managers get the
// management view with claims hidden; everyone else gets the giver view
// with claim state and the option to filter to still-claimable items.
func (s *ListService) ViewList(ctx context.Context, viewer *models.User, listID int64, availableOnly bool) (*ListView, error) {
	list, err := s.lists.GetByID(ctx, listID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return nil, types.ErrNotFound("list")
	}
	return s.buildListView(ctx, viewer, list, availableOnly)
}

func (s *ListService) buildListView(ctx context.Context, viewer *models.User, list *models.List, availableOnly bool) (*ListView, error) {
	owner, err := s.users.GetByID(ctx, list.OwnerID)
	if err != nil {
		return nil, err
	}
	ownerName := ""
	if owner != nil {
		ownerName = owner.Name
	}

	all, err := s.items.ListByList(ctx, list.ID)
	if err != nil {
		return nil, err
	}

	view := &ListView{
		List:          list,
		OwnerName:     ownerName,
		ManagedByYou:  CanManage(viewer, list),
		AvailableOnly: availableOnly,
		Items:         []*ItemView{},
		Received:      []*ItemView{},
	}

	if !CanSeeClaims(viewer, list) {
		// Management view: no claim information, no giver notes.
		for _, item := range all {
			iv := &ItemView{Item: stripNotes(item), ClaimState: types.ClaimStateHidden}
			if item.IsReceived() {
				view.Received = append(view.Received, iv)
			} else {
				view.Items = append(view.Items, iv)
			}
		}
		view.TotalItems = len(view.Items)
		view.ShownItems = len(view.Items)
		return view, nil
	}

	counts, err := s.claims.CountsForList(ctx, list.ID)
	if err != nil {
		return nil, err
	}
	mine, err := s.claims.ItemsClaimedBy(ctx, list.ID, viewer.ID)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, item := range all {
		if item.IsReceived() {
			view.Received = append(view.Received, &ItemView{
				Item:       item,
				ClaimState: types.ClaimStateUnclaimed,
				ClaimCount: counts[item.ID],
			})
			continue
		}
		total++

		iv := &ItemView{
			Item:       item,
			ClaimState: types.ClaimStateUnclaimed,
			ClaimCount: counts[item.ID],
			Available:  counts[item.ID] < item.MaxClaims,
		}
		if mine[item.ID] {
			iv.ClaimState = types.ClaimStateClaimedByYou
		}

		if availableOnly && !iv.Available && iv.ClaimState != types.ClaimStateClaimedByYou {
			continue
		}
		view.Items = append(view.Items, iv)
	}

	view.TotalItems = total
	view.ShownItems = len(view.Items)
	return view, nil
}

// stripNotes copies the item without the giver-only notes field.
func stripNotes(item *models.Item) *models.Item {
	clone := *item
	clone.Notes = nil
	return &clone
}
