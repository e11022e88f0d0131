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

// AuthService handles credentials, invite registration, and password flows.
type AuthService struct {
	users     UserRepository
	lists     ListRepository
	mailer    mail.Sender
	templates *mail.Templates
	logger    *logrus.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	users UserRepository,
	lists ListRepository,
	mailer mail.Sender,
	templates *mail.Templates,
	logger *logrus.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		lists:     lists,
		mailer:    mailer,
		templates: templates,
		logger:    logger,
	}
}

// Login verifies credentials and returns the user. Pending and archived
// accounts fail with the same INVALID_CREDENTIALS as a wrong password so
// the response does not leak account state.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.HasPassword() || !user.IsActive {
		return nil, types.NewError(types.CodeInvalidCredentials, "invalid email or password")
	}
	if !checkPassword(password, *user.PasswordHash) {
		return nil, types.NewError(types.CodeInvalidCredentials, "invalid email or password")
	}
	return user, nil
}

// RegisterWithInvite completes account setup from an invite token: sets the
// name and password, consumes the token, and creates the user's personal
// list if it does not exist yet.
func (s *AuthService) RegisterWithInvite(ctx context.Context, token, name, password string) (*models.User, error) {
	user, err := s.users.GetByInviteToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, types.NewError(types.CodeTokenInvalid, "invalid or expired invitation link")
	}

	if user.InviteTokenExpires == nil || user.InviteTokenExpires.Before(time.Now()) {
		// The token is spent either way.
		user.InviteToken = nil
		user.InviteTokenExpires = nil
		if err := s.users.Update(ctx, user); err != nil {
			s.logger.WithError(err).Warn("failed to clear expired invite token")
		}
		return nil, types.NewError(types.CodeTokenExpired, "this invitation has expired")
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	if name = strings.TrimSpace(name); name != "" {
		user.Name = name
	}
	user.PasswordHash = &hash
	user.InviteToken = nil
	user.InviteTokenExpires = nil

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	if err := s.ensureOwnedList(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *AuthService) ensureOwnedList(ctx context.Context, user *models.User) error {
	list, err := s.lists.GetByOwner(ctx, user.ID)
	if err != nil {
		return err
	}
	if list != nil {
		return nil
	}
	return s.lists.Create(ctx, &models.List{
		OwnerID: user.ID,
		Name:    fmt.Sprintf("%s's List", user.Name),
	})
}

// RequestPasswordReset issues a reset token and emails it. It always
// succeeds from the caller's point of view so the response does not reveal
// whether the email is registered.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil || !user.HasPassword() || !user.IsActive {
		return nil
	}

	token, err := newToken()
	if err != nil {
		return err
	}
	expires := time.Now().Add(types.PasswordResetTokenTTL)
	user.PasswordResetToken = &token
	user.PasswordResetExpires = &expires

	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	if err := s.mailer.Send(s.templates.PasswordReset(user.Email, user.Name, token)); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Error("failed to send password reset email")
	}
	return nil
}

// ResetPassword sets a new password from a reset token and consumes the
// token.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	user, err := s.users.GetByPasswordResetToken(ctx, token)
	if err != nil {
		return err
	}
	if user == nil {
		return types.NewError(types.CodeTokenInvalid, "invalid or expired password reset link")
	}

	if user.PasswordResetExpires == nil || user.PasswordResetExpires.Before(time.Now()) {
		user.PasswordResetToken = nil
		user.PasswordResetExpires = nil
		if err := s.users.Update(ctx, user); err != nil {
			s.logger.WithError(err).Warn("failed to clear expired reset token")
		}
		return types.NewError(types.CodeTokenExpired, "this password reset link has expired")
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	user.PasswordHash = &hash
	user.PasswordResetToken = nil
	user.PasswordResetExpires = nil

	return s.users.Update(ctx, user)
}

// ChangePassword replaces the user's password after verifying the current
// one.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, current, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return types.ErrNotFound("user")
	}
	if !user.HasPassword() || !checkPassword(current, *user.PasswordHash) {
		return types.NewError(types.CodeInvalidCredentials, "current password is incorrect")
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = &hash
	return s.users.Update(ctx, user)
}

// UpdateProfile updates the user's display name and gift delivery email.
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, name string, giftDeliveryEmail *string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, types.ErrNotFound("user")
	}

	user.Name = name
	if giftDeliveryEmail != nil && *giftDeliveryEmail == "" {
		giftDeliveryEmail = nil
	}
	user.GiftDeliveryEmail = giftDeliveryEmail

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangeEmail replaces the account email after re-verifying the password.
// Uniqueness is checked against every account, archived ones included.
func (s *AuthService) ChangeEmail(ctx context.Context, userID int64, newEmail, password string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, types.ErrNotFound("user")
	}
	if !user.HasPassword() || !checkPassword(password, *user.PasswordHash) {
		return nil, types.NewError(types.CodeInvalidCredentials, "password is incorrect")
	}

	exists, err := s.users.EmailExists(ctx, newEmail)
	if err != nil {
		return nil, err
	}
	if exists && !strings.EqualFold(newEmail, user.Email) {
		return nil, types.NewError(types.CodeDuplicateEmail, "this email is already in use")
	}

	user.Email = strings.ToLower(newEmail)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
