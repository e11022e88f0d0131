package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gift-exchange/internal/mail"
	"github.com/gift-exchange/internal/models"
	"github.com/gift-exchange/internal/types"
	"github.com/sirupsen/logrus"
)

// AccountService handles the account lifecycle: invitations, archival,
// deletion, and parent-managed child profiles. Admin powers live here and
// here only; they never extend to claim visibility.
type AccountService struct {
	users     UserRepository
	lists     ListRepository
	mailer    mail.Sender
	templates *mail.Templates
	logger    *logrus.Logger
}

// NewAccountService creates a new account service
func NewAccountService(
	users UserRepository,
	lists ListRepository,
	mailer mail.Sender,
	templates *mail.Templates,
	logger *logrus.Logger,
) *AccountService {
	return &AccountService{
		users:     users,
		lists:     lists,
		mailer:    mailer,
		templates: templates,
		logger:    logger,
	}
}

func requireAdmin(actor *models.User) error {
	if actor == nil || !actor.IsAdmin {
		return types.NewError(types.CodePermissionDenied, "administrator access required")
	}
	return nil
}

// Invite creates a pending account with a fresh invite token and sends the
// invitation email. Returns the invite URL so it can also be shared by
// hand. Email delivery is best-effort.
func (s *AccountService) Invite(ctx context.Context, actor *models.User, name, email string) (*models.User, string, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, "", err
	}

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if exists {
		return nil, "", types.NewError(types.CodeDuplicateEmail, "this email is already registered")
	}

	token, err := newToken()
	if err != nil {
		return nil, "", err
	}
	expires := time.Now().Add(types.InviteTokenTTL)

	user := &models.User{
		Email:              strings.ToLower(email),
		Name:               name,
		InviteToken:        &token,
		InviteTokenExpires: &expires,
		InvitedByID:        &actor.ID,
		IsActive:           true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	if err := s.mailer.Send(s.templates.Invite(user.Email, name, token)); err != nil {
		s.logger.WithError(err).WithField("email", user.Email).Error("failed to send invite email")
	}

	return user, s.templates.InviteURL(token), nil
}

// Archive deactivates an account, recording when, by whom, and why. The
// last active administrator can never be archived.
func (s *AccountService) Archive(ctx context.Context, actor *models.User, targetID int64, reason string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	if target == nil {
		return types.ErrNotFound("user")
	}
	if !target.IsActive {
		return nil // already archived
	}

	if target.IsAdmin {
		admins, err := s.users.CountActiveAdmins(ctx)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return types.NewError(types.CodeLastAdminProtected,
				"cannot archive the last active administrator")
		}
	}

	now := time.Now()
	target.IsActive = false
	target.ArchivedAt = &now
	target.ArchivedByID = &actor.ID
	if reason != "" {
		target.ArchivedReason = &reason
	}
	return s.users.Update(ctx, target)
}

// Restore reactivates an archived account. A no-op when already active.
func (s *AccountService) Restore(ctx context.Context, actor *models.User, targetID int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	if target == nil {
		return types.ErrNotFound("user")
	}
	if target.IsActive {
		return nil
	}

	target.IsActive = true
	target.ArchivedAt = nil
	target.ArchivedByID = nil
	target.ArchivedReason = nil
	return s.users.Update(ctx, target)
}

// Delete permanently removes an account. The acting administrator must
// re-enter their own password and type the target's email (or the display
// name for a child profile, which has no real email). The deletion cascades
// through the owned list, its items, their claims, claims the user made on
// other lists, and detaches lists they manage.
func (s *AccountService) Delete(ctx context.Context, actor *models.User, targetID int64, adminPassword, confirmation string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if !actor.HasPassword() || !checkPassword(adminPassword, *actor.PasswordHash) {
		return types.NewError(types.CodeConfirmationMismatch, "your admin password is incorrect")
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	if target == nil {
		return types.ErrNotFound("user")
	}

	label := target.Email
	child, err := s.isChildProfile(ctx, target)
	if err != nil {
		return err
	}
	if child {
		label = target.Name
	}
	if !strings.EqualFold(strings.TrimSpace(confirmation), label) {
		return types.NewError(types.CodeConfirmationMismatch,
			fmt.Sprintf("confirmation does not match %q", label))
	}

	if target.IsAdmin && target.IsActive {
		admins, err := s.users.CountActiveAdmins(ctx)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return types.NewError(types.CodeLastAdminProtected,
				"cannot delete the last active administrator")
		}
	}

	return s.users.Delete(ctx, targetID)
}

func (s *AccountService) isChildProfile(ctx context.Context, user *models.User) (bool, error) {
	list, err := s.lists.GetByOwner(ctx, user.ID)
	if err != nil {
		return false, err
	}
	return list != nil && list.IsManaged(), nil
}

// CreateChild creates a parent-managed child profile: a placeholder account
// that cannot log in, owning a list maintained by the parent.
func (s *AccountService) CreateChild(ctx context.Context, parent *models.User, name string) (*models.User, *models.List, error) {
	if parent == nil {
		return nil, nil, types.NewError(types.CodePermissionDenied, "login required")
	}

	// Placeholder identity until the child is promoted to a full account.
	email := fmt.Sprintf("child_%d_%d@placeholder.local", parent.ID, time.Now().UnixNano())

	child := &models.User{
		Email:    email,
		Name:     name,
		IsActive: true,
	}
	if err := s.users.Create(ctx, child); err != nil {
		return nil, nil, err
	}

	list := &models.List{
		OwnerID:     child.ID,
		ManagedByID: &parent.ID,
		Name:        fmt.Sprintf("%s's List", name),
	}
	if err := s.lists.Create(ctx, list); err != nil {
		return nil, nil, err
	}

	return child, list, nil
}

// Promote converts a child profile into a full account: the placeholder
// email is replaced, promotion metadata recorded, the list detached from
// its manager, and a fresh invite token issued so the promoted user can set
// their own password. The acting user must manage the child's list or be an
// administrator. On DUPLICATE_EMAIL the child record is left untouched.
func (s *AccountService) Promote(ctx context.Context, actor *models.User, childID int64, newEmail string, sendInvite bool) (*models.User, string, error) {
	child, err := s.users.GetByID(ctx, childID)
	if err != nil {
		return nil, "", err
	}
	if child == nil {
		return nil, "", types.ErrNotFound("user")
	}

	list, err := s.lists.GetByOwner(ctx, child.ID)
	if err != nil {
		return nil, "", err
	}
	if list == nil || !list.IsManaged() {
		return nil, "", types.NewError(types.CodeInvalidInput, "this account is not a child profile")
	}
	if !CanManage(actor, list) && (actor == nil || !actor.IsAdmin) {
		return nil, "", types.NewError(types.CodePermissionDenied, "you do not manage this child profile")
	}

	exists, err := s.users.EmailExists(ctx, newEmail)
	if err != nil {
		return nil, "", err
	}
	if exists {
		return nil, "", types.NewError(types.CodeDuplicateEmail, "this email is already registered")
	}

	token, err := newToken()
	if err != nil {
		return nil, "", err
	}
	now := time.Now()
	expires := now.Add(types.InviteTokenTTL)

	child.Email = strings.ToLower(newEmail)
	child.InviteToken = &token
	child.InviteTokenExpires = &expires
	child.PromotedFromChild = true
	child.PromotedAt = &now
	child.PromotedByID = &actor.ID

	// One transaction: the new identity and the list detach land together
	// or not at all.
	if err := s.users.Promote(ctx, child, list.ID); err != nil {
		return nil, "", err
	}

	if sendInvite {
		if err := s.mailer.Send(s.templates.Invite(child.Email, child.Name, token)); err != nil {
			s.logger.WithError(err).WithField("email", child.Email).Error("failed to send promotion invite email")
		}
	}

	return child, s.templates.InviteURL(token), nil
}
