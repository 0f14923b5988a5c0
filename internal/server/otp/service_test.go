package otp

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/common"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/dbx"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/config"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/models"
	accountsrepo "github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/repositories/accounts"
	otpcodesrepo "github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/repositories/otpcodes"
)

// --- fakes ---

type fakeCodesRepo struct {
	rows map[string]*models.OneTimeCode

	latest    time.Time
	latestErr error

	createErr error
	deleteErr error

	deletedOwners []string
	deletedIDs    []string
}

func newFakeCodesRepo() *fakeCodesRepo {
	return &fakeCodesRepo{rows: map[string]*models.OneTimeCode{}, latestErr: common.ErrorNotFound}
}

func (f *fakeCodesRepo) Create(ctx context.Context, code *models.OneTimeCode) (*models.OneTimeCode, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	code.CreatedAt = time.Now()
	f.rows[code.ID] = code
	return code, nil
}

func (f *fakeCodesRepo) FindValid(ctx context.Context, owner models.OwnerKey, purpose models.Purpose, code string, now time.Time) (*models.OneTimeCode, error) {
	for _, row := range f.rows {
		if row.Owner == owner && row.Purpose == purpose && row.Code == code && row.ExpiresAt.After(now) {
			return row, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeCodesRepo) LatestCreatedAt(ctx context.Context, owner models.OwnerKey, purpose models.Purpose) (time.Time, error) {
	if f.latestErr != nil {
		return time.Time{}, f.latestErr
	}
	return f.latest, nil
}

func (f *fakeCodesRepo) DeleteByOwner(ctx context.Context, owner models.OwnerKey, purpose models.Purpose) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedOwners = append(f.deletedOwners, owner.String())
	for id, row := range f.rows {
		if row.Owner == owner && row.Purpose == purpose {
			delete(f.rows, id)
		}
	}
	return nil
}

func (f *fakeCodesRepo) DeleteByID(ctx context.Context, id string) error {
	f.deletedIDs = append(f.deletedIDs, id)
	delete(f.rows, id)
	return nil
}

func (f *fakeCodesRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type fakeRepoManager struct {
	codes *fakeCodesRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Accounts(db dbx.DBTX) accountsrepo.Repository { return nil }
func (m *fakeRepoManager) OTPCodes(db dbx.DBTX) otpcodesrepo.Repository { return m.codes }

type sentMail struct {
	to, toName, subject, body string
}

type fakeMailer struct {
	sendErr error
	sent    []sentMail
}

func (f *fakeMailer) Send(ctx context.Context, to, toName, subject, htmlBody string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentMail{to, toName, subject, htmlBody})
	return nil
}

func newService(t *testing.T, db *sql.DB, codes *fakeCodesRepo, mailer *fakeMailer) *Service {
	t.Helper()
	cfg := &config.Config{
		OTPValidityDuration: 10 * time.Minute,
		OTPResendCooldown:   60 * time.Second,
	}
	return NewService(db, &fakeRepoManager{codes: codes}, mailer, cfg)
}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

var notify = Notify{Email: "jane@example.com", DisplayName: "Jane Doe"}

// --- Issue ---

func TestIssue_Success(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	codes := newFakeCodesRepo()
	mailer := &fakeMailer{}
	s := newService(t, db, codes, mailer)

	issuedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return issuedAt }

	owner := models.EmailOwner("jane@example.com")
	code, err := s.Issue(context.Background(), owner, models.PurposeSignupVerification, notify)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if !regexp.MustCompile(`^[1-9]\d{5}$`).MatchString(code.Code) {
		t.Fatalf("expected 6-digit code, got %q", code.Code)
	}
	if !code.ExpiresAt.Equal(issuedAt.Add(10 * time.Minute)) {
		t.Fatalf("unexpected expiry: %v", code.ExpiresAt)
	}
	if len(codes.deletedOwners) != 1 || codes.deletedOwners[0] != "email:jane@example.com" {
		t.Fatalf("expected prior codes deleted for owner, got %v", codes.deletedOwners)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(mailer.sent))
	}
	if !strings.Contains(mailer.sent[0].body, code.Code) {
		t.Fatalf("email body missing code")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestIssue_SignupCooldown(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	codes := newFakeCodesRepo()
	codes.latestErr = nil
	codes.latest = time.Now().Add(-30 * time.Second)
	mailer := &fakeMailer{}
	s := newService(t, db, codes, mailer)

	_, err := s.Issue(context.Background(), models.EmailOwner("jane@example.com"), models.PurposeSignupVerification, notify)
	if !errors.Is(err, common.ErrRateLimited) {
		t.Fatalf("want common.ErrRateLimited, got %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("no email should be sent while rate limited")
	}
	if len(codes.rows) != 0 {
		t.Fatalf("no code should be created while rate limited")
	}
}

func TestIssue_CooldownElapsed(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	codes := newFakeCodesRepo()
	codes.latestErr = nil
	codes.latest = time.Now().Add(-61 * time.Second)
	mailer := &fakeMailer{}
	s := newService(t, db, codes, mailer)

	_, err := s.Issue(context.Background(), models.EmailOwner("jane@example.com"), models.PurposeSignupVerification, notify)
	if err != nil {
		t.Fatalf("Issue error after cooldown elapsed: %v", err)
	}
}

func TestIssue_NoCooldownForPasswordReset(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	codes := newFakeCodesRepo()
	codes.latestErr = nil
	codes.latest = time.Now() // would trip the signup cooldown
	mailer := &fakeMailer{}
	s := newService(t, db, codes, mailer)

	_, err := s.Issue(context.Background(), models.AccountOwner("acc-1"), models.PurposePasswordReset, notify)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
}

func TestIssue_EmailFailureRollsBackCode(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	codes := newFakeCodesRepo()
	mailer := &fakeMailer{sendErr: errors.New("smtp down")}
	s := newService(t, db, codes, mailer)

	_, err := s.Issue(context.Background(), models.EmailOwner("jane@example.com"), models.PurposeSignupVerification, notify)
	if !errors.Is(err, common.ErrEmailDeliveryFailed) {
		t.Fatalf("want common.ErrEmailDeliveryFailed, got %v", err)
	}
	if len(codes.deletedIDs) != 1 {
		t.Fatalf("expected the stored code to be rolled back, deleted ids: %v", codes.deletedIDs)
	}
	if len(codes.rows) != 0 {
		t.Fatalf("expected no code rows to remain")
	}
}

func TestIssue_CreateErrorNoEmail(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	codes := newFakeCodesRepo()
	codes.createErr = errors.New("db down")
	mailer := &fakeMailer{}
	s := newService(t, db, codes, mailer)

	_, err := s.Issue(context.Background(), models.EmailOwner("jane@example.com"), models.PurposeSignupVerification, notify)
	if !errors.Is(err, common.ErrPersistenceFailed) {
		t.Fatalf("want common.ErrPersistenceFailed, got %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("no email must be sent when the store write fails")
	}
}

// --- Verify ---

func TestVerify_Success(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	codes := newFakeCodesRepo()
	owner := models.EmailOwner("jane@example.com")
	codes.rows["otp-1"] = &models.OneTimeCode{
		ID: "otp-1", Owner: owner, Purpose: models.PurposeSignupVerification,
		Code: "482913", ExpiresAt: time.Now().Add(5 * time.Minute),
	}
	s := newService(t, db, codes, &fakeMailer{})

	code, err := s.Verify(context.Background(), owner, models.PurposeSignupVerification, "482913")
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if code.ID != "otp-1" {
		t.Fatalf("unexpected code: %+v", code)
	}
	if len(codes.rows) != 1 {
		t.Fatalf("Verify must not consume the code")
	}
}

func TestVerify_WrongCode(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	codes := newFakeCodesRepo()
	owner := models.EmailOwner("jane@example.com")
	codes.rows["otp-1"] = &models.OneTimeCode{
		ID: "otp-1", Owner: owner, Purpose: models.PurposeSignupVerification,
		Code: "482913", ExpiresAt: time.Now().Add(5 * time.Minute),
	}
	s := newService(t, db, codes, &fakeMailer{})

	_, err := s.Verify(context.Background(), owner, models.PurposeSignupVerification, "000000")
	if !errors.Is(err, common.ErrInvalidOrExpiredOTP) {
		t.Fatalf("want common.ErrInvalidOrExpiredOTP, got %v", err)
	}
}

func TestVerify_ExpiryInstantIsExpired(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	codes := newFakeCodesRepo()
	owner := models.EmailOwner("jane@example.com")
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	codes.rows["otp-1"] = &models.OneTimeCode{
		ID: "otp-1", Owner: owner, Purpose: models.PurposeSignupVerification,
		Code: "482913", ExpiresAt: at,
	}
	s := newService(t, db, codes, &fakeMailer{})
	s.now = func() time.Time { return at }

	_, err := s.Verify(context.Background(), owner, models.PurposeSignupVerification, "482913")
	if !errors.Is(err, common.ErrInvalidOrExpiredOTP) {
		t.Fatalf("a code expiring exactly now must be expired, got %v", err)
	}
}

func TestVerify_ConsumedCodeStaysInvalid(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	codes := newFakeCodesRepo()
	owner := models.EmailOwner("jane@example.com")
	codes.rows["otp-1"] = &models.OneTimeCode{
		ID: "otp-1", Owner: owner, Purpose: models.PurposeSignupVerification,
		Code: "482913", ExpiresAt: time.Now().Add(5 * time.Minute),
	}
	s := newService(t, db, codes, &fakeMailer{})

	if err := codes.DeleteByID(context.Background(), "otp-1"); err != nil {
		t.Fatalf("DeleteByID error: %v", err)
	}
	_, err := s.Verify(context.Background(), owner, models.PurposeSignupVerification, "482913")
	if !errors.Is(err, common.ErrInvalidOrExpiredOTP) {
		t.Fatalf("consumed code must not verify, got %v", err)
	}
}

func TestGenerateCode_Range(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := generateCode()
		if err != nil {
			t.Fatalf("generateCode error: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		if code[0] == '0' {
			t.Fatalf("code out of range: %q", code)
		}
	}
}
