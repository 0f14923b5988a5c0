// Package mail sends transactional email for the account service.
package mail

import "context"

// Mailer dispatches a single HTML email. Implementations must return an
// error when delivery to the outgoing server fails so callers can roll back
// whatever the email was meant to confirm.
type Mailer interface {
	Send(ctx context.Context, to, toName, subject, htmlBody string) error
}
