// Package models provides data models for the gift exchange system.
package models

import (
	"time"

	"github.com/gift-exchange/internal/types"
)

// User represents a family member account. A user with a nil PasswordHash
// is "pending": invited (or a child profile) but unable to log in.
type User struct {
	ID                int64   `json:"id" db:"id"`
	Email             string  `json:"email" db:"email"`
	PasswordHash      *string `json:"-" db:"password_hash"`
	Name              string  `json:"name" db:"name"`
	GiftDeliveryEmail *string `json:"giftDeliveryEmail,omitempty" db:"gift_delivery_email"`
	IsAdmin           bool    `json:"isAdmin" db:"is_admin"`

	InviteToken          *string    `json:"-" db:"invite_token"`
	InviteTokenExpires   *time.Time `json:"-" db:"invite_token_expires"`
	PasswordResetToken   *string    `json:"-" db:"password_reset_token"`
	PasswordResetExpires *time.Time `json:"-" db:"password_reset_expires"`

	InvitedByID *int64 `json:"invitedById,omitempty" db:"invited_by_id"`

	IsActive       bool       `json:"isActive" db:"is_active"`
	ArchivedAt     *time.Time `json:"archivedAt,omitempty" db:"archived_at"`
	ArchivedByID   *int64     `json:"archivedById,omitempty" db:"archived_by_id"`
	ArchivedReason *string    `json:"archivedReason,omitempty" db:"archived_reason"`

	PromotedFromChild bool       `json:"promotedFromChild" db:"promoted_from_child"`
	PromotedAt        *time.Time `json:"promotedAt,omitempty" db:"promoted_at"`
	PromotedByID      *int64     `json:"promotedById,omitempty" db:"promoted_by_id"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// DeliveryEmail returns the email gifts should be sent to, falling back to
// the account email.
func (u *User) DeliveryEmail() string {
	if u.GiftDeliveryEmail != nil && *u.GiftDeliveryEmail != "" {
		return *u.GiftDeliveryEmail
	}
	return u.Email
}

// HasPassword reports whether the user has completed account setup.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// State returns the lifecycle state of the account.
func (u *User) State() types.AccountState {
	if !u.IsActive {
		return types.AccountArchived
	}
	if !u.HasPassword() {
		return types.AccountPending
	}
	return types.AccountActive
}
