package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gift-exchange/internal/mail"
	"github.com/gift-exchange/internal/models"
	"github.com/gift-exchange/internal/types"
	"github.com/sirupsen/logrus"
)

// In-memory repository implementations backing the service tests. They
// mirror the Postgres repositories' contracts, including nil-on-missing
// lookups and the typed errors for constraint violations.

type memUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*models.User
	lists  *memListRepo
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[int64]*models.User)}
}

func (r *memUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return types.NewError(types.CodeDuplicateEmail, "a user with this email already exists")
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	clone := *u
	return &clone, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) GetByInviteToken(ctx context.Context, token string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.InviteToken != nil && *u.InviteToken == token {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) GetByPasswordResetToken(ctx context.Context, token string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.PasswordResetToken != nil && *u.PasswordResetToken == token {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) Update(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return types.ErrNotFound("user")
	}
	for _, u := range r.users {
		if u.ID != user.ID && strings.EqualFold(u.Email, user.Email) {
			return types.NewError(types.CodeDuplicateEmail, "a user with this email already exists")
		}
	}
	user.UpdatedAt = time.Now()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

// Promote mirrors the transactional promotion: the user update and the list
// detach land together or not at all.
func (r *memUserRepo) Promote(ctx context.Context, user *models.User, listID int64) error {
	before, err := r.GetByID(ctx, user.ID)
	if err != nil {
		return err
	}
	if before == nil {
		return types.ErrNotFound("user")
	}
	if err := r.Update(ctx, user); err != nil {
		return err
	}
	if err := r.lists.clearManager(ctx, listID); err != nil {
		// roll back the user update
		if rbErr := r.Update(ctx, before); rbErr != nil {
			return rbErr
		}
		return err
	}
	return nil
}

func (r *memUserRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return types.ErrNotFound("user")
	}
	delete(r.users, id)
	return nil
}

func (r *memUserRepo) ListMembers(ctx context.Context) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var members []*models.User
	for _, u := range r.users {
		if u.IsActive && u.HasPassword() {
			clone := *u
			members = append(members, &clone)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	return members, nil
}

func (r *memUserRepo) CountActiveAdmins(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, u := range r.users {
		if u.IsActive && u.IsAdmin {
			count++
		}
	}
	return count, nil
}

func (r *memUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

type memListRepo struct {
	mu     sync.Mutex
	nextID int64
	lists  map[int64]*models.List
	users  *memUserRepo
	items  *memItemRepo

	clearManagerErr error // injected failure for the promotion detach
}

func newMemListRepo(users *memUserRepo) *memListRepo {
	return &memListRepo{lists: make(map[int64]*models.List), users: users}
}

func (r *memListRepo) Create(ctx context.Context, list *models.List) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	list.ID = r.nextID
	list.CreatedAt = time.Now()
	list.UpdatedAt = list.CreatedAt
	clone := *list
	r.lists[list.ID] = &clone
	return nil
}

func (r *memListRepo) GetByID(ctx context.Context, id int64) (*models.List, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lists[id]
	if !ok {
		return nil, nil
	}
	clone := *l
	return &clone, nil
}

func (r *memListRepo) GetByOwner(ctx context.Context, ownerID int64) (*models.List, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.lists {
		if l.OwnerID == ownerID {
			clone := *l
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memListRepo) ListManagedBy(ctx context.Context, managerID int64) ([]*models.List, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var managed []*models.List
	for _, l := range r.lists {
		if l.ManagedByID != nil && *l.ManagedByID == managerID {
			clone := *l
			managed = append(managed, &clone)
		}
	}
	sort.Slice(managed, func(i, j int) bool { return managed[i].ID < managed[j].ID })
	return managed, nil
}

func (r *memListRepo) ListWithOwners(ctx context.Context) ([]*models.ListWithOwner, error) {
	r.mu.Lock()
	ids := make([]int64, 0, len(r.lists))
	for id := range r.lists {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	lists := make([]*models.List, 0, len(ids))
	for _, id := range ids {
		clone := *r.lists[id]
		lists = append(lists, &clone)
	}
	r.mu.Unlock()

	var out []*models.ListWithOwner
	for _, l := range lists {
		owner, _ := r.users.GetByID(ctx, l.OwnerID)
		if owner == nil || !owner.IsActive {
			continue
		}
		if !owner.HasPassword() && !l.IsManaged() {
			continue
		}
		active := 0
		if r.items != nil {
			items, _ := r.items.ListActiveByList(ctx, l.ID)
			active = len(items)
		}
		out = append(out, &models.ListWithOwner{List: *l, OwnerName: owner.Name, ActiveItems: active})
	}
	return out, nil
}

func (r *memListRepo) clearManager(ctx context.Context, listID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.clearManagerErr != nil {
		return r.clearManagerErr
	}
	l, ok := r.lists[listID]
	if !ok {
		return types.ErrNotFound("list")
	}
	l.ManagedByID = nil
	return nil
}

type memItemRepo struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]*models.Item
	claims *memClaimRepo
}

func newMemItemRepo() *memItemRepo {
	return &memItemRepo{items: make(map[int64]*models.Item)}
}

func (r *memItemRepo) Create(ctx context.Context, item *models.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	maxPos := 0
	for _, it := range r.items {
		if it.ListID == item.ListID && !it.IsReceived() && it.Position > maxPos {
			maxPos = it.Position
		}
	}
	r.nextID++
	item.ID = r.nextID
	item.Position = maxPos + 1
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	clone := *item
	r.items[item.ID] = &clone
	return nil
}

func (r *memItemRepo) GetByID(ctx context.Context, id int64) (*models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	clone := *it
	return &clone, nil
}

func (r *memItemRepo) Update(ctx context.Context, item *models.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[item.ID]; !ok {
		return types.ErrNotFound("item")
	}
	item.UpdatedAt = time.Now()
	clone := *item
	r.items[item.ID] = &clone
	return nil
}

func (r *memItemRepo) ListByList(ctx context.Context, listID int64) ([]*models.Item, error) {
	active, err := r.ListActiveByList(ctx, listID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	var received []*models.Item
	for _, it := range r.items {
		if it.ListID == listID && it.IsReceived() {
			clone := *it
			received = append(received, &clone)
		}
	}
	sort.Slice(received, func(i, j int) bool {
		return received[i].ReceivedAt.After(*received[j].ReceivedAt)
	})
	return append(active, received...), nil
}

func (r *memItemRepo) ListActiveByList(ctx context.Context, listID int64) ([]*models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var active []*models.Item
	for _, it := range r.items {
		if it.ListID == listID && !it.IsReceived() {
			clone := *it
			active = append(active, &clone)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].Position < active[j].Position })
	return active, nil
}

// renumberLocked reassigns dense 1..N positions to a list's active items,
// preserving relative order. Caller holds the lock.
func (r *memItemRepo) renumberLocked(listID int64) {
	var active []*models.Item
	for _, it := range r.items {
		if it.ListID == listID && !it.IsReceived() {
			active = append(active, it)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].Position < active[j].Position })
	for i, it := range active {
		it.Position = i + 1
	}
}

func (r *memItemRepo) SwapWithNeighbor(ctx context.Context, itemID int64, moveUp bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[itemID]
	if !ok {
		return types.ErrNotFound("item")
	}
	if it.IsReceived() {
		return types.NewError(types.CodeInvalidInput, "received items cannot be reordered")
	}

	var neighbor *models.Item
	for _, other := range r.items {
		if other.ListID != it.ListID || other.IsReceived() || other.ID == it.ID {
			continue
		}
		if moveUp {
			if other.Position < it.Position && (neighbor == nil || other.Position > neighbor.Position) {
				neighbor = other
			}
		} else {
			if other.Position > it.Position && (neighbor == nil || other.Position < neighbor.Position) {
				neighbor = other
			}
		}
	}
	if neighbor == nil {
		return nil // already at the extreme
	}
	it.Position, neighbor.Position = neighbor.Position, it.Position
	return nil
}

func (r *memItemRepo) DeleteAndRenumber(ctx context.Context, itemID int64) error {
	r.mu.Lock()
	it, ok := r.items[itemID]
	if !ok {
		r.mu.Unlock()
		return types.ErrNotFound("item")
	}
	listID := it.ListID
	delete(r.items, itemID)
	// Renumber from the state the delete itself observed, under one lock,
	// matching the Postgres repository's single transaction.
	r.renumberLocked(listID)
	r.mu.Unlock()

	if r.claims != nil {
		r.claims.deleteForItem(itemID)
	}
	return nil
}

func (r *memItemRepo) MarkReceived(ctx context.Context, itemID int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[itemID]
	if !ok {
		return types.ErrNotFound("item")
	}
	if it.ReceivedAt == nil {
		it.ReceivedAt = &at
	}
	return nil
}

type claimKey struct {
	itemID int64
	userID int64
}

type memClaimRepo struct {
	mu     sync.Mutex
	nextID int64
	claims map[claimKey]*models.Claim
	items  *memItemRepo
	users  *memUserRepo
}

func newMemClaimRepo(items *memItemRepo, users *memUserRepo) *memClaimRepo {
	r := &memClaimRepo{claims: make(map[claimKey]*models.Claim), items: items, users: users}
	items.claims = r
	return r
}

func (r *memClaimRepo) CreateIfCapacity(ctx context.Context, itemID, userID int64) (*models.Claim, error) {
	item, err := r.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil || item.IsReceived() {
		return nil, types.ErrNotFound("item")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.claims[claimKey{itemID, userID}]; ok {
		return nil, types.NewError(types.CodeAlreadyClaimed, "you have already claimed this item")
	}
	count := 0
	for k := range r.claims {
		if k.itemID == itemID {
			count++
		}
	}
	if count >= item.MaxClaims {
		return nil, types.NewError(types.CodeCapacityExceeded, "this item has been fully claimed")
	}

	r.nextID++
	claim := &models.Claim{
		ID:          r.nextID,
		ItemID:      itemID,
		ClaimedByID: userID,
		ClaimedAt:   time.Now(),
		CreatedAt:   time.Now(),
	}
	r.claims[claimKey{itemID, userID}] = claim
	clone := *claim
	return &clone, nil
}

func (r *memClaimRepo) Delete(ctx context.Context, itemID, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := claimKey{itemID, userID}
	if _, ok := r.claims[key]; !ok {
		return types.NewError(types.CodeNotClaimed, "you have not claimed this item")
	}
	delete(r.claims, key)
	return nil
}

func (r *memClaimRepo) Exists(ctx context.Context, itemID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.claims[claimKey{itemID, userID}]
	return ok, nil
}

func (r *memClaimRepo) CountsForList(ctx context.Context, listID int64) (map[int64]int, error) {
	items, err := r.items.ListByList(ctx, listID)
	if err != nil {
		return nil, err
	}
	inList := make(map[int64]bool, len(items))
	for _, it := range items {
		inList[it.ID] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[int64]int)
	for k := range r.claims {
		if inList[k.itemID] {
			counts[k.itemID]++
		}
	}
	return counts, nil
}

func (r *memClaimRepo) ItemsClaimedBy(ctx context.Context, listID, userID int64) (map[int64]bool, error) {
	items, err := r.items.ListByList(ctx, listID)
	if err != nil {
		return nil, err
	}
	inList := make(map[int64]bool, len(items))
	for _, it := range items {
		inList[it.ID] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	mine := make(map[int64]bool)
	for k := range r.claims {
		if k.userID == userID && inList[k.itemID] {
			mine[k.itemID] = true
		}
	}
	return mine, nil
}

func (r *memClaimRepo) ListClaimers(ctx context.Context, itemID int64) ([]*models.User, error) {
	r.mu.Lock()
	var ids []int64
	for k := range r.claims {
		if k.itemID == itemID {
			ids = append(ids, k.userID)
		}
	}
	r.mu.Unlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var claimers []*models.User
	for _, id := range ids {
		u, _ := r.users.GetByID(ctx, id)
		if u != nil {
			claimers = append(claimers, u)
		}
	}
	return claimers, nil
}

func (r *memClaimRepo) deleteForItem(itemID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.claims {
		if k.itemID == itemID {
			delete(r.claims, k)
		}
	}
}

// captureSender records outbound messages instead of delivering them. Safe
// for the fire-and-forget notification goroutine.
type captureSender struct {
	mu       sync.Mutex
	messages []*mail.Message
}

func (s *captureSender) Send(msg *mail.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

func (s *captureSender) sent() []*mail.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*mail.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// fixture wires the in-memory repositories into the full service layer.
type fixture struct {
	users  *memUserRepo
	lists  *memListRepo
	items  *memItemRepo
	claims *memClaimRepo
	sender *captureSender

	auth     *AuthService
	accounts *AccountService
	listSvc  *ListService
	itemSvc  *ItemService
	claimSvc *ClaimService
}

func newFixture() *fixture {
	users := newMemUserRepo()
	items := newMemItemRepo()
	lists := newMemListRepo(users)
	lists.items = items
	users.lists = lists
	claims := newMemClaimRepo(items, users)
	sender := &captureSender{}
	templates := &mail.Templates{AppName: "Family Gift Exchange", BaseURL: "http://localhost:8080"}
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)

	return &fixture{
		users:    users,
		lists:    lists,
		items:    items,
		claims:   claims,
		sender:   sender,
		auth:     NewAuthService(users, lists, sender, templates, logger),
		accounts: NewAccountService(users, lists, sender, templates, logger),
		listSvc:  NewListService(users, lists, items, claims, logger),
		itemSvc:  NewItemService(users, lists, items, claims, sender, templates, logger),
		claimSvc: NewClaimService(lists, items, claims, logger),
	}
}

// addUser creates an active user with a password and their own list.
func (f *fixture) addUser(name, email string, admin bool) *models.User {
	hash, _ := hashPassword("password123")
	user := &models.User{
		Email:        email,
		PasswordHash: &hash,
		Name:         name,
		IsAdmin:      admin,
		IsActive:     true,
	}
	if err := f.users.Create(context.Background(), user); err != nil {
		panic(err)
	}
	list := &models.List{OwnerID: user.ID, Name: name + "'s List"}
	if err := f.lists.Create(context.Background(), list); err != nil {
		panic(err)
	}
	return user
}

// mustUser looks a user up by email; the email must exist.
func (f *fixture) mustUser(email string) *models.User {
	u, _ := f.users.GetByEmail(context.Background(), email)
	if u == nil {
		panic("no such user: " + email)
	}
	return u
}

// ownedList returns the list owned by the user.
func (f *fixture) ownedList(user *models.User) *models.List {
	list, _ := f.lists.GetByOwner(context.Background(), user.ID)
	return list
}

// addItem appends an item to the user's own list.
func (f *fixture) addItem(owner *models.User, title string, maxClaims int) *models.Item {
	list := f.ownedList(owner)
	item := &models.Item{
		ListID:      list.ID,
		Title:       title,
		MaxClaims:   maxClaims,
		CreatedByID: owner.ID,
	}
	if err := f.items.Create(context.Background(), item); err != nil {
		panic(err)
	}
	return item
}
