package models

import "time"

// Claim records that a user intends to buy an item. A user may hold at most
// one claim per item; the store enforces uniqueness on (item_id,
// claimed_by_id) so concurrent requests cannot double-claim.
type Claim struct {
	ID          int64     `json:"id" db:"id"`
	ItemID      int64     `json:"itemId" db:"item_id"`
	ClaimedByID int64     `json:"claimedById" db:"claimed_by_id"`
	ClaimedAt   time.Time `json:"claimedAt" db:"claimed_at"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}
