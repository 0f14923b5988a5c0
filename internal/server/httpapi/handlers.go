package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/common"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/models"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/services"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// accountView is the password-hash-excluded shape of an account returned to
// callers.
type accountView struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

func newAccountView(a *models.Account) accountView {
	return accountView{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Role:      a.Role,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

type tokenResponse struct {
	Token   string      `json:"token"`
	Account accountView `json:"account"`
}

// writeError translates a service error into a status code plus its
// user-displayable message. Anything unclassified is reported as a storage
// failure so raw internals never leak.
func writeError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	msg := common.ErrPersistenceFailed.Error()

	switch {
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrInvalidOrExpiredOTP):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrInvalidCredentials),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		status, msg = http.StatusUnauthorized, err.Error()
	case errors.Is(err, common.ErrAccountNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, common.ErrAccountExists), errors.Is(err, common.ErrEmailTaken):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, common.ErrRateLimited):
		status, msg = http.StatusTooManyRequests, err.Error()
	case errors.Is(err, common.ErrEmailDeliveryFailed):
		status, msg = http.StatusBadGateway, err.Error()
	}

	return c.JSON(status, errorResponse{Error: msg})
}

// bind decodes and validates the request body, normalizing both failure modes
// into ErrValidation so writeError maps them to 400.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return common.ErrValidation
	}
	if err := c.Validate(req); err != nil {
		return common.ErrValidation
	}
	return nil
}

type requestSignupOTPRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

func (s *Server) requestSignupOTP(c echo.Context) error {
	req := new(requestSignupOTPRequest)
	if err := bind(c, req); err != nil {
		return writeError(c, err)
	}
	if err := s.accounts.RequestSignupOTP(c.Request().Context(), req.Name, req.Email); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "verification code sent"})
}

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	OTP      string `json:"otp" validate:"required,len=6,numeric"`
}

func (s *Server) register(c echo.Context) error {
	req := new(registerRequest)
	if err := bind(c, req); err != nil {
		return writeError(c, err)
	}
	token, account, err := s.accounts.Register(c.Request().Context(), req.Name, req.Email, req.Password, req.OTP)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, tokenResponse{Token: token, Account: newAccountView(account)})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) login(c echo.Context) error {
	req := new(loginRequest)
	if err := bind(c, req); err != nil {
		return writeError(c, err)
	}
	token, account, err := s.accounts.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, tokenResponse{Token: token, Account: newAccountView(account)})
}

type requestPasswordResetOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (s *Server) requestPasswordResetOTP(c echo.Context) error {
	req := new(requestPasswordResetOTPRequest)
	if err := bind(c, req); err != nil {
		return writeError(c, err)
	}
	if err := s.accounts.RequestPasswordResetOTP(c.Request().Context(), req.Email); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "password reset code sent"})
}

type resetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required,len=6,numeric"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

func (s *Server) resetPassword(c echo.Context) error {
	req := new(resetPasswordRequest)
	if err := bind(c, req); err != nil {
		return writeError(c, err)
	}
	if err := s.accounts.ResetPassword(c.Request().Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "password updated"})
}

func (s *Server) getProfile(c echo.Context) error {
	claims := getClaims(c)
	account, err := s.accounts.GetProfile(c.Request().Context(), claims.AccountID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, newAccountView(account))
}

type updateProfileRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email" validate:"omitempty,email"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword" validate:"omitempty,min=8"`
	OTP             string `json:"otp" validate:"omitempty,len=6,numeric"`
}

func (s *Server) updateProfile(c echo.Context) error {
	claims := getClaims(c)
	req := new(updateProfileRequest)
	if err := bind(c, req); err != nil {
		return writeError(c, err)
	}
	account, err := s.accounts.UpdateProfile(c.Request().Context(), claims.AccountID, services.ProfileUpdate{
		Name:            req.Name,
		Email:           req.Email,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		OTP:             req.OTP,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, newAccountView(account))
}

func (s *Server) requestProfileUpdateOTP(c echo.Context) error {
	claims := getClaims(c)
	if err := s.accounts.RequestProfileUpdateOTP(c.Request().Context(), claims.AccountID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "verification code sent"})
}

func (s *Server) listAccounts(c echo.Context) error {
	accounts, err := s.accounts.ListAccounts(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	views := make([]accountView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, newAccountView(a))
	}
	return c.JSON(http.StatusOK, views)
}
