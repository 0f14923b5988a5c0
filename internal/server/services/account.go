// Package services contains server-side business logic. This file implements
// AccountService, which handles the OTP-gated account lifecycle: signup
// verification, registration, login, password reset, and profile updates.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/common"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/dbx"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/auth"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/config"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/models"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/otp"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/repositories/repomanager"
)

// OTPIssuerVerifier is the slice of the otp service the account flows use.
// Kept as an interface so tests can fake code issuance and verification.
type OTPIssuerVerifier interface {
	Issue(ctx context.Context, owner models.OwnerKey, purpose models.Purpose, notify otp.Notify) (*models.OneTimeCode, error)
	Verify(ctx context.Context, owner models.OwnerKey, purpose models.Purpose, candidate string) (*models.OneTimeCode, error)
}

// ProfileUpdate carries the optional fields of an update-profile request.
// Empty strings mean "leave unchanged" (or "not supplied" for the
// credential/OTP fields).
type ProfileUpdate struct {
	Name            string
	Email           string
	CurrentPassword string
	NewPassword     string
	OTP             string
}

// AccountService provides the account lifecycle operations:
// - RequestSignupOTP / Register: OTP-gated account creation
// - Login: verify credentials and mint a session token
// - RequestPasswordResetOTP / ResetPassword: OTP-gated password change
// - RequestProfileUpdateOTP / UpdateProfile / GetProfile: profile management
// - ListAccounts: admin-only account listing
type AccountService struct {
	db                   *sql.DB
	repomanager          repomanager.RepositoryManager
	otp                  OTPIssuerVerifier
	jwtSecret            []byte
	sessionTokenValidity time.Duration
}

// NewAccountService constructs an AccountService using repositories, the OTP
// service, and server config.
func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, o OTPIssuerVerifier, cfg *config.Config) *AccountService {
	return &AccountService{
		db:                   db,
		repomanager:          m,
		otp:                  o,
		jwtSecret:            []byte(cfg.SecretKey),
		sessionTokenValidity: cfg.SessionTokenValidityDuration,
	}
}

// RequestSignupOTP issues a signup-verification code for a candidate email.
// Fails with ErrAccountExists if the email is already registered.
func (s *AccountService) RequestSignupOTP(ctx context.Context, name, email string) error {
	repo := s.repomanager.Accounts(s.db)

	_, err := repo.GetByEmail(ctx, email)
	if err == nil {
		return common.ErrAccountExists
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return common.ErrPersistenceFailed
	}

	_, err = s.otp.Issue(ctx, models.EmailOwner(email), models.PurposeSignupVerification,
		otp.Notify{Email: email, DisplayName: name})
	return err
}

// Register verifies the signup code and creates the account, consuming the
// code and minting a session token in the same step. The existence re-check
// narrows the race against a concurrent signup; the unique constraint on
// email is the final authority and also surfaces as ErrAccountExists.
func (s *AccountService) Register(ctx context.Context, name, email, password, code string) (string, *models.Account, error) {
	owner := models.EmailOwner(email)
	verified, err := s.otp.Verify(ctx, owner, models.PurposeSignupVerification, code)
	if err != nil {
		return "", nil, err
	}

	repo := s.repomanager.Accounts(s.db)
	if _, err := repo.GetByEmail(ctx, email); err == nil {
		return "", nil, common.ErrAccountExists
	} else if !errors.Is(err, common.ErrorNotFound) {
		return "", nil, common.ErrPersistenceFailed
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", nil, common.ErrPersistenceFailed
	}

	var account *models.Account
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		created, err := s.repomanager.Accounts(tx).Create(ctx, &models.Account{
			ID:           uuid.NewString(),
			Name:         name,
			Email:        email,
			PasswordHash: hash,
			Role:         models.RoleUser,
		})
		if err != nil {
			return err
		}
		account = created
		return s.repomanager.OTPCodes(tx).DeleteByID(ctx, verified.ID)
	}); err != nil {
		if errors.Is(err, common.ErrAccountExists) {
			return "", nil, common.ErrAccountExists
		}
		return "", nil, common.ErrPersistenceFailed
	}

	token, err := s.generateSessionToken(account)
	if err != nil {
		return "", nil, err
	}
	return token, account, nil
}

// Login verifies credentials and returns a session token. A missing account
// and a wrong password are deliberately indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, email, password string) (string, *models.Account, error) {
	repo := s.repomanager.Accounts(s.db)

	account, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", nil, common.ErrInvalidCredentials
		}
		return "", nil, common.ErrPersistenceFailed
	}
	if !auth.CheckPassword(account.PasswordHash, password) {
		return "", nil, common.ErrInvalidCredentials
	}

	token, err := s.generateSessionToken(account)
	if err != nil {
		return "", nil, err
	}
	return token, account, nil
}

// RequestPasswordResetOTP issues a password-reset code for an existing
// account. Unlike signup this flow reveals account existence.
func (s *AccountService) RequestPasswordResetOTP(ctx context.Context, email string) error {
	account, err := s.getAccountByEmail(ctx, email)
	if err != nil {
		return err
	}
	_, err = s.otp.Issue(ctx, models.AccountOwner(account.ID), models.PurposePasswordReset,
		otp.Notify{Email: account.Email, DisplayName: account.Name})
	return err
}

// ResetPassword verifies the reset code and sets a new password, consuming
// the code in the same transaction as the password write.
func (s *AccountService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	account, err := s.getAccountByEmail(ctx, email)
	if err != nil {
		return err
	}

	verified, err := s.otp.Verify(ctx, models.AccountOwner(account.ID), models.PurposePasswordReset, code)
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return common.ErrPersistenceFailed
	}
	account.PasswordHash = hash

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Accounts(tx).Update(ctx, account); err != nil {
			return err
		}
		return s.repomanager.OTPCodes(tx).DeleteByID(ctx, verified.ID)
	}); err != nil {
		return common.ErrPersistenceFailed
	}
	return nil
}

// RequestProfileUpdateOTP issues a profile-update code for the authenticated
// account.
func (s *AccountService) RequestProfileUpdateOTP(ctx context.Context, accountID string) error {
	account, err := s.GetProfile(ctx, accountID)
	if err != nil {
		return err
	}
	_, err = s.otp.Issue(ctx, models.AccountOwner(account.ID), models.PurposeProfileUpdate,
		otp.Notify{Email: account.Email, DisplayName: account.Name})
	return err
}

// UpdateProfile applies the requested changes to the authenticated account.
// Changing the password requires the current one; supplying an OTP re-verifies
// the change and consumes the code together with the update.
func (s *AccountService) UpdateProfile(ctx context.Context, accountID string, upd ProfileUpdate) (*models.Account, error) {
	account, err := s.GetProfile(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if upd.NewPassword != "" {
		if upd.CurrentPassword == "" {
			return nil, fmt.Errorf("%w: current password is required to change password", common.ErrValidation)
		}
		if !auth.CheckPassword(account.PasswordHash, upd.CurrentPassword) {
			return nil, common.ErrInvalidCredentials
		}
		hash, err := auth.HashPassword(upd.NewPassword)
		if err != nil {
			return nil, common.ErrPersistenceFailed
		}
		account.PasswordHash = hash
	}

	var consumedCodeID string
	if upd.OTP != "" {
		verified, err := s.otp.Verify(ctx, models.AccountOwner(account.ID), models.PurposeProfileUpdate, upd.OTP)
		if err != nil {
			return nil, err
		}
		consumedCodeID = verified.ID
	}

	if upd.Email != "" && upd.Email != account.Email {
		other, err := s.repomanager.Accounts(s.db).GetByEmail(ctx, upd.Email)
		if err == nil && other.ID != account.ID {
			return nil, common.ErrEmailTaken
		}
		if err != nil && !errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrPersistenceFailed
		}
		account.Email = upd.Email
	}
	if upd.Name != "" {
		account.Name = upd.Name
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Accounts(tx).Update(ctx, account); err != nil {
			return err
		}
		if consumedCodeID != "" {
			return s.repomanager.OTPCodes(tx).DeleteByID(ctx, consumedCodeID)
		}
		return nil
	}); err != nil {
		if errors.Is(err, common.ErrEmailTaken) {
			return nil, common.ErrEmailTaken
		}
		return nil, common.ErrPersistenceFailed
	}
	return account, nil
}

// GetProfile returns the account with the given id.
func (s *AccountService) GetProfile(ctx context.Context, accountID string) (*models.Account, error) {
	account, err := s.repomanager.Accounts(s.db).GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrAccountNotFound
		}
		return nil, common.ErrPersistenceFailed
	}
	return account, nil
}

// ListAccounts returns all registered accounts. Callers gate this behind the
// admin role.
func (s *AccountService) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	accounts, err := s.repomanager.Accounts(s.db).List(ctx)
	if err != nil {
		return nil, common.ErrPersistenceFailed
	}
	return accounts, nil
}

// --- helpers below ---

func (s *AccountService) getAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	account, err := s.repomanager.Accounts(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrAccountNotFound
		}
		return nil, common.ErrPersistenceFailed
	}
	return account, nil
}

func (s *AccountService) generateSessionToken(account *models.Account) (string, error) {
	token, err := auth.GenerateToken(account, s.jwtSecret, s.sessionTokenValidity)
	if err != nil {
		return "", common.ErrPersistenceFailed
	}
	return token, nil
}
