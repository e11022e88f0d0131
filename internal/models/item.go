package models

import "time"

// Item represents a single wishlist entry. Active items (ReceivedAt nil)
// within a list hold dense 1-based positions; received items keep the
// position they had when marked but are excluded from the active ordering
// and from claiming.
type Item struct {
	ID          int64      `json:"id" db:"id"`
	ListID      int64      `json:"listId" db:"list_id"`
	Title       string     `json:"title" db:"title"`
	Description *string    `json:"description,omitempty" db:"description"`
	URL         *string    `json:"url,omitempty" db:"url"`
	Price       *float64   `json:"price,omitempty" db:"price"`
	Notes       *string    `json:"notes,omitempty" db:"notes"`
	MaxClaims   int        `json:"maxClaims" db:"max_claims"`
	Position    int        `json:"position" db:"position"`
	ReceivedAt  *time.Time `json:"receivedAt,omitempty" db:"received_at"`
	CreatedByID int64      `json:"createdById" db:"created_by_id"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// IsReceived reports whether the item has been marked received.
func (i *Item) IsReceived() bool {
	return i.ReceivedAt != nil
}
