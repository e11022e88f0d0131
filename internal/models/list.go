package models

import "time"

// List represents a wishlist. Every user owns exactly one list. A list with
// a non-nil ManagedByID belongs to a child profile and is maintained by the
// managing parent; the owner and manager are always distinct users.
type List struct {
	ID          int64  `json:"id" db:"id"`
	OwnerID     int64  `json:"ownerId" db:"owner_id"`
	ManagedByID *int64 `json:"managedById,omitempty" db:"managed_by_id"`
	Name        string `json:"name" db:"name"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// IsManaged reports whether this is a parent-managed child list.
func (l *List) IsManaged() bool {
	return l.ManagedByID != nil
}

// ListWithOwner pairs a list with display fields of its owner for the
// dashboard read model.
type ListWithOwner struct {
	List
	OwnerName   string `json:"ownerName" db:"owner_name"`
	ActiveItems int    `json:"activeItems" db:"active_items"`
}
