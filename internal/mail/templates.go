package mail

import (
	"fmt"
	"html"
)

// Templates builds the application's email messages. Link URLs are rooted
// at the configured external base URL.
type Templates struct {
	AppName string
	BaseURL string
}

// InviteURL returns the registration link for an invite token.
func (t *Templates) InviteURL(token string) string {
	return fmt.Sprintf("%s/register/%s", t.BaseURL, token)
}

// ResetURL returns the password reset link for a reset token.
func (t *Templates) ResetURL(token string) string {
	return fmt.Sprintf("%s/reset-password/%s", t.BaseURL, token)
}

// Invite builds the invitation email for a new family member.
func (t *Templates) Invite(recipient, name, token string) *Message {
	inviteURL := t.InviteURL(token)

	text := fmt.Sprintf(`Hi %s,

You've been invited to join our family gift exchange!

Click the link below to set up your account:
%s

This link will expire in 48 hours.

Happy gift giving!
`, name, inviteURL)

	htmlBody := fmt.Sprintf(`<p>Hi %s,</p>

<p>You've been invited to join our family gift exchange!</p>

<p><a href="%s">Click here to set up your account</a></p>

<p><small>This link will expire in 48 hours.</small></p>

<p>Happy gift giving!</p>
`, html.EscapeString(name), inviteURL)

	return &Message{
		Subject:    fmt.Sprintf("You're invited to %s!", t.AppName),
		Recipients: []string{recipient},
		TextBody:   text,
		HTMLBody:   htmlBody,
	}
}

// PasswordReset builds the password reset email.
func (t *Templates) PasswordReset(recipient, name, token string) *Message {
	resetURL := t.ResetURL(token)

	text := fmt.Sprintf(`Hi %s,

You requested to reset your password for %s.

Click the link below to reset your password:
%s

This link will expire in 24 hours.

If you didn't request this, please ignore this email.
`, name, t.AppName, resetURL)

	htmlBody := fmt.Sprintf(`<p>Hi %s,</p>

<p>You requested to reset your password for %s.</p>

<p><a href="%s">Click here to reset your password</a></p>

<p><small>This link will expire in 24 hours.</small></p>

<p>If you didn't request this, please ignore this email.</p>
`, html.EscapeString(name), html.EscapeString(t.AppName), resetURL)

	return &Message{
		Subject:    "Reset Your Password",
		Recipients: []string{recipient},
		TextBody:   text,
		HTMLBody:   htmlBody,
	}
}

// ItemDeleted builds the notice sent to a claimer when a claimed item is
// removed from a list.
func (t *Templates) ItemDeleted(recipient, claimerName, ownerName, itemTitle string) *Message {
	text := fmt.Sprintf(`Hi %s,

An item you claimed has been removed from %s's wishlist:

"%s"

You may want to choose a different gift.
`, claimerName, ownerName, itemTitle)

	htmlBody := fmt.Sprintf(`<p>Hi %s,</p>

<p>An item you claimed has been removed from %s's wishlist:</p>

<p><strong>"%s"</strong></p>

<p>You may want to choose a different gift.</p>
`, html.EscapeString(claimerName), html.EscapeString(ownerName), html.EscapeString(itemTitle))

	return &Message{
		Subject:    fmt.Sprintf("Item Removed from %s's List", ownerName),
		Recipients: []string{recipient},
		TextBody:   text,
		HTMLBody:   htmlBody,
	}
}
