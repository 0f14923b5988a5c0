package mail

import (
	"fmt"
	"time"

	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/models"
)

// OTPEmail returns the subject and HTML body for a one-time code email.
// The body addresses the recipient by display name and states how long the
// code stays valid.
func OTPEmail(purpose models.Purpose, displayName, code string, validity time.Duration) (subject, htmlBody string) {
	var action string
	switch purpose {
	case models.PurposeSignupVerification:
		subject = "Verify your email address"
		action = "complete your registration"
	case models.PurposePasswordReset:
		subject = "Reset your password"
		action = "reset your password"
	case models.PurposeProfileUpdate:
		subject = "Confirm your profile changes"
		action = "confirm your profile changes"
	default:
		subject = "Your verification code"
		action = "continue"
	}

	minutes := int(validity.Minutes())
	htmlBody = fmt.Sprintf(`
		<p>Hello %s,</p>
		<p>Use the following code to %s:</p>
		<p style="font-size:24px;font-weight:bold;letter-spacing:4px;">%s</p>
		<p>This code expires in %d minutes. If you did not request it, you can ignore this email.</p>
	`, displayName, action, code, minutes)
	return subject, htmlBody
}
