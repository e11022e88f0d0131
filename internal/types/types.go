// Package types provides common type definitions for the gift exchange system.
package types

import "time"

// Error codes surfaced by the domain layer. The API layer maps these to
// HTTP statuses; nothing here is fatal to the process.
const (
	CodePermissionDenied     = "PERMISSION_DENIED"
	CodeNotFound             = "NOT_FOUND"
	CodeAlreadyClaimed       = "ALREADY_CLAIMED"
	CodeNotClaimed           = "NOT_CLAIMED"
	CodeCapacityExceeded     = "CAPACITY_EXCEEDED"
	CodeDuplicateEmail       = "DUPLICATE_EMAIL"
	CodeTokenExpired         = "TOKEN_EXPIRED"
	CodeTokenInvalid         = "TOKEN_INVALID"
	CodeLastAdminProtected   = "LAST_ADMIN_PROTECTED"
	CodeConfirmationMismatch = "CONFIRMATION_MISMATCH"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeInvalidInput         = "INVALID_INPUT"
)

// DomainError represents a structured error surfaced to the request boundary.
type DomainError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewError creates a DomainError with the given code and message.
func NewError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// ErrNotFound creates a NOT_FOUND error for the named entity.
func ErrNotFound(entity string) *DomainError {
	return &DomainError{Code: CodeNotFound, Message: entity + " not found"}
}

// IsCode reports whether err is a DomainError with the given code.
func IsCode(err error, code string) bool {
	if derr, ok := err.(*DomainError); ok {
		return derr.Code == code
	}
	return false
}

// MaxClaimsUnlimited is the sentinel max_claims value meaning "no limit".
const MaxClaimsUnlimited = 999

// Token lifetimes. Both token kinds are single-use and cleared on
// consumption regardless of outcome.
const (
	InviteTokenTTL        = 48 * time.Hour
	PasswordResetTokenTTL = 24 * time.Hour
)

// ClaimState represents the claim relationship between an item and a viewer.
type ClaimState string

const (
	// ClaimStateUnclaimed means the viewer holds no claim on the item.
	ClaimStateUnclaimed ClaimState = "unclaimed"
	// ClaimStateClaimedByYou means the viewer holds a claim on the item.
	ClaimStateClaimedByYou ClaimState = "claimed_by_you"
	// ClaimStateHidden means claim information is withheld from the viewer
	// because they own or manage the list.
	ClaimStateHidden ClaimState = "hidden"
)

// MoveDirection represents the direction of an item reorder request.
type MoveDirection string

const (
	// MoveUp moves an item toward position 1.
	MoveUp MoveDirection = "up"
	// MoveDown moves an item toward the end of the list.
	MoveDown MoveDirection = "down"
)

// AccountState represents the lifecycle state of a user account.
type AccountState string

const (
	// AccountPending means the user was invited but has not set a password.
	AccountPending AccountState = "pending"
	// AccountActive means the user can log in and participate.
	AccountActive AccountState = "active"
	// AccountArchived means the user is hidden and cannot log in, but can
	// be restored.
	AccountArchived AccountState = "archived"
)
