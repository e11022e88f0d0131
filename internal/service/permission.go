package service

import "github.com/gift-exchange/internal/models"

// CanManage reports whether user may maintain the list: they own it, or it
// is a child profile's list they manage.
func CanManage(user *models.User, list *models.List) bool {
	if user == nil || list == nil {
		return false
	}
	if list.OwnerID == user.ID {
		return true
	}
	return list.ManagedByID != nil && *list.ManagedByID == user.ID
}

// CanSeeClaims reports whether user may see claim information on the list.
// Exactly the users who cannot manage a list may see its claims; this keeps
// gifts a surprise. There is no admin override.
func CanSeeClaims(user *models.User, list *models.List) bool {
	return !CanManage(user, list)
}
