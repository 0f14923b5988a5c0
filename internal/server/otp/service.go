// Package otp implements issuing and verifying one-time verification codes.
//
// A code proves control of an email address (or of an existing account) for
// a single purpose. Issuing supersedes any previous code for the same
// (owner, purpose); verifying never consumes the row — deletion is left to
// the caller so a valid code survives a failure later in the same flow.
package otp

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/common"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/dbx"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/config"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/mail"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/models"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/repositories/repomanager"
)

// Notify names the mailbox a freshly issued code is delivered to.
type Notify struct {
	Email       string
	DisplayName string
}

// Service issues and verifies one-time codes.
type Service struct {
	db       *sql.DB
	repos    repomanager.RepositoryManager
	mailer   mail.Mailer
	validity time.Duration
	cooldown time.Duration
	now      func() time.Time
}

// NewService constructs an OTP service using repositories and server config.
func NewService(db *sql.DB, m repomanager.RepositoryManager, mailer mail.Mailer, cfg *config.Config) *Service {
	return &Service{
		db:       db,
		repos:    m,
		mailer:   mailer,
		validity: cfg.OTPValidityDuration,
		cooldown: cfg.OTPResendCooldown,
		now:      time.Now,
	}
}

// generateCode draws a uniform random integer in [100000, 999999]. The range
// guarantees six digits, so no padding is needed.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}

// Issue creates a new code for (owner, purpose), supersedes any previous one,
// and emails it to notify. For signup verification a per-owner cooldown
// applies: re-requesting within the cooldown window fails with
// common.ErrRateLimited. If the email cannot be dispatched the stored code is
// rolled back and common.ErrEmailDeliveryFailed is returned; an
// issued-but-undeliverable code must never stay active.
func (s *Service) Issue(ctx context.Context, owner models.OwnerKey, purpose models.Purpose, notify Notify) (*models.OneTimeCode, error) {
	repo := s.repos.OTPCodes(s.db)
	now := s.now()

	if purpose == models.PurposeSignupVerification {
		latest, err := repo.LatestCreatedAt(ctx, owner, purpose)
		if err != nil && !errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrPersistenceFailed
		}
		if err == nil && now.Sub(latest) < s.cooldown {
			return nil, common.ErrRateLimited
		}
	}

	// Best-effort housekeeping; stale rows expire on their own anyway.
	_, _ = repo.DeleteExpired(ctx, now)

	value, err := generateCode()
	if err != nil {
		return nil, common.ErrPersistenceFailed
	}

	code := &models.OneTimeCode{
		ID:        uuid.NewString(),
		Owner:     owner,
		Purpose:   purpose,
		Code:      value,
		ExpiresAt: now.Add(s.validity),
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repos.OTPCodes(tx)
		if err := repoTx.DeleteByOwner(ctx, owner, purpose); err != nil {
			return err
		}
		_, err := repoTx.Create(ctx, code)
		return err
	}); err != nil {
		return nil, common.ErrPersistenceFailed
	}

	subject, body := mail.OTPEmail(purpose, notify.DisplayName, value, s.validity)
	if err := s.mailer.Send(ctx, notify.Email, notify.DisplayName, subject, body); err != nil {
		_ = repo.DeleteByID(ctx, code.ID)
		return nil, common.ErrEmailDeliveryFailed
	}

	return code, nil
}

// Verify looks up a non-expired code matching (owner, purpose, candidate).
// The row is not deleted; callers consume it once the surrounding flow has
// actually succeeded.
func (s *Service) Verify(ctx context.Context, owner models.OwnerKey, purpose models.Purpose, candidate string) (*models.OneTimeCode, error) {
	repo := s.repos.OTPCodes(s.db)
	code, err := repo.FindValid(ctx, owner, purpose, candidate, s.now())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidOrExpiredOTP
		}
		return nil, common.ErrPersistenceFailed
	}
	return code, nil
}
