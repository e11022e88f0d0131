package service

import (
	"context"
	"testing"
	"time"

	"github.com/gift-exchange/internal/models"
	"github.com/gift-exchange/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	f := newFixture()
	alice := f.addUser("Alice", "alice@example.com", false)

	user, err := f.auth.Login(context.Background(), "alice@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, user.ID)

	// Email lookup is case-insensitive.
	user, err = f.auth.Login(context.Background(), "ALICE@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, user.ID)

	// Wrong password, unknown email, and archived accounts all fail the
	// same way.
	_, err = f.auth.Login(context.Background(), "alice@example.com", "wrong")
	assert.True(t, types.IsCode(err, types.CodeInvalidCredentials))

	_, err = f.auth.Login(context.Background(), "nobody@example.com", "password123")
	assert.True(t, types.IsCode(err, types.CodeInvalidCredentials))

	admin := f.addUser("Admin", "admin@example.com", true)
	require.NoError(t, f.accounts.Archive(context.Background(), admin, alice.ID, "moved away"))
	_, err = f.auth.Login(context.Background(), "alice@example.com", "password123")
	assert.True(t, types.IsCode(err, types.CodeInvalidCredentials))
}

func TestLoginPendingAccountRejected(t *testing.T) {
	f := newFixture()
	admin := f.addUser("Admin", "admin@example.com", true)

	invited, _, err := f.accounts.Invite(context.Background(), admin, "New Member", "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, types.AccountPending, invited.State())

	_, err = f.auth.Login(context.Background(), "new@example.com", "anything")
	assert.True(t, types.IsCode(err, types.CodeInvalidCredentials))
}

func TestRegisterWithInvite(t *testing.T) {
	f := newFixture()
	admin := f.addUser("Admin", "admin@example.com", true)

	invited, _, err := f.accounts.Invite(context.Background(), admin, "New Member", "new@example.com")
	require.NoError(t, err)

	stored, err := f.users.GetByID(context.Background(), invited.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.InviteToken)
	token := *stored.InviteToken

	user, err := f.auth.RegisterWithInvite(context.Background(), token, "Newt", "s3cretpass")
	require.NoError(t, err)
	assert.Equal(t, "Newt", user.Name)
	assert.Nil(t, user.InviteToken)
	assert.Equal(t, types.AccountActive, user.State())

	// Registration created their personal list.
	list, err := f.lists.GetByOwner(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, list)
	assert.Equal(t, "Newt's List", list.Name)

	// The token is single-use.
	_, err = f.auth.RegisterWithInvite(context.Background(), token, "Again", "otherpass")
	assert.True(t, types.IsCode(err, types.CodeTokenInvalid))

	// And they can log in with the new password.
	_, err = f.auth.Login(context.Background(), "new@example.com", "s3cretpass")
	assert.NoError(t, err)
}

func TestRegisterWithExpiredInvite(t *testing.T) {
	f := newFixture()
	admin := f.addUser("Admin", "admin@example.com", true)

	invited, _, err := f.accounts.Invite(context.Background(), admin, "Slow Member", "slow@example.com")
	require.NoError(t, err)

	stored, err := f.users.GetByID(context.Background(), invited.ID)
	require.NoError(t, err)
	token := *stored.InviteToken

	// Push the expiry into the past.
	expired := time.Now().Add(-time.Hour)
	stored.InviteTokenExpires = &expired
	require.NoError(t, f.users.Update(context.Background(), stored))

	_, err = f.auth.RegisterWithInvite(context.Background(), token, "Slow", "s3cretpass")
	assert.True(t, types.IsCode(err, types.CodeTokenExpired))

	// The expired token was consumed; a replay is invalid, not expired.
	_, err = f.auth.RegisterWithInvite(context.Background(), token, "Slow", "s3cretpass")
	assert.True(t, types.IsCode(err, types.CodeTokenInvalid))
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture()
	alice := f.addUser("Alice", "alice@example.com", false)

	require.NoError(t, f.auth.RequestPasswordReset(context.Background(), "alice@example.com"))

	stored, err := f.users.GetByID(context.Background(), alice.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PasswordResetToken)
	token := *stored.PasswordResetToken

	// A reset email went out.
	require.Len(t, f.sender.sent(), 1)

	require.NoError(t, f.auth.ResetPassword(context.Background(), token, "newpassword"))

	_, err = f.auth.Login(context.Background(), "alice@example.com", "newpassword")
	assert.NoError(t, err)
	_, err = f.auth.Login(context.Background(), "alice@example.com", "password123")
	assert.True(t, types.IsCode(err, types.CodeInvalidCredentials))

	// Token is single-use.
	err = f.auth.ResetPassword(context.Background(), token, "thirdpassword")
	assert.True(t, types.IsCode(err, types.CodeTokenInvalid))
}

func TestPasswordResetUnknownEmailSilent(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.auth.RequestPasswordReset(context.Background(), "nobody@example.com"))
	assert.Empty(t, f.sender.sent())
}

func TestPasswordResetExpiredToken(t *testing.T) {
	f := newFixture()
	alice := f.addUser("Alice", "alice@example.com", false)

	require.NoError(t, f.auth.RequestPasswordReset(context.Background(), "alice@example.com"))

	stored, err := f.users.GetByID(context.Background(), alice.ID)
	require.NoError(t, err)
	token := *stored.PasswordResetToken
	expired := time.Now().Add(-time.Minute)
	stored.PasswordResetExpires = &expired
	require.NoError(t, f.users.Update(context.Background(), stored))

	err = f.auth.ResetPassword(context.Background(), token, "newpassword")
	assert.True(t, types.IsCode(err, types.CodeTokenExpired))

	// Old password still works.
	_, err = f.auth.Login(context.Background(), "alice@example.com", "password123")
	assert.NoError(t, err)
}

func TestChangePassword(t *testing.T) {
	f := newFixture()
	alice := f.addUser("Alice", "alice@example.com", false)

	err := f.auth.ChangePassword(context.Background(), alice.ID, "wrong", "newpassword")
	assert.True(t, types.IsCode(err, types.CodeInvalidCredentials))

	require.NoError(t, f.auth.ChangePassword(context.Background(), alice.ID, "password123", "newpassword"))

	_, err = f.auth.Login(context.Background(), "alice@example.com", "newpassword")
	assert.NoError(t, err)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture()
	alice := f.addUser("Alice", "alice@example.com", false)

	delivery := "gifts@example.com"
	user, err := f.auth.UpdateProfile(context.Background(), alice.ID, "Alicia", &delivery)
	require.NoError(t, err)
	assert.Equal(t, "Alicia", user.Name)
	assert.Equal(t, "gifts@example.com", user.DeliveryEmail())

	// An empty delivery email clears the override.
	empty := ""
	user, err = f.auth.UpdateProfile(context.Background(), alice.ID, "Alicia", &empty)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.DeliveryEmail())
}

func TestChangeEmail(t *testing.T) {
	f := newFixture()
	alice := f.addUser("Alice", "alice@example.com", false)
	f.addUser("Bob", "bob@example.com", false)

	_, err := f.auth.ChangeEmail(context.Background(), alice.ID, "new@example.com", "wrong")
	assert.True(t, types.IsCode(err, types.CodeInvalidCredentials))

	_, err = f.auth.ChangeEmail(context.Background(), alice.ID, "bob@example.com", "password123")
	assert.True(t, types.IsCode(err, types.CodeDuplicateEmail))

	// Re-casing your own email is allowed.
	user, err := f.auth.ChangeEmail(context.Background(), alice.ID, "Alice@Example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)

	user, err = f.auth.ChangeEmail(context.Background(), alice.ID, "new@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", user.Email)

	_, err = f.auth.Login(context.Background(), "new@example.com", "password123")
	assert.NoError(t, err)
}

func TestPermissionHelpers(t *testing.T) {
	owner := &models.User{ID: 1}
	manager := &models.User{ID: 2}
	admin := &models.User{ID: 3, IsAdmin: true}
	other := &models.User{ID: 4}

	own := &models.List{OwnerID: 1}
	managed := &models.List{OwnerID: 5, ManagedByID: &manager.ID}

	assert.True(t, CanManage(owner, own))
	assert.False(t, CanManage(other, own))
	assert.True(t, CanManage(manager, managed))
	assert.False(t, CanManage(admin, own))

	// Exactly the people who cannot manage a list can see its claims.
	assert.False(t, CanSeeClaims(owner, own))
	assert.True(t, CanSeeClaims(other, own))
	assert.False(t, CanSeeClaims(manager, managed))
	assert.True(t, CanSeeClaims(admin, own))
}
