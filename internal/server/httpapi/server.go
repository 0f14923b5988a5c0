// Package httpapi exposes the account lifecycle operations over HTTP. It maps
// the service-layer sentinel errors to status codes and keeps all
// request/response shapes in one place.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/didip/tollbooth/v6"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/logging"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/config"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/models"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/services"
)

// AccountOperations is the slice of the account service the HTTP layer
// drives. *services.AccountService satisfies it.
type AccountOperations interface {
	RequestSignupOTP(ctx context.Context, name, email string) error
	Register(ctx context.Context, name, email, password, code string) (string, *models.Account, error)
	Login(ctx context.Context, email, password string) (string, *models.Account, error)
	RequestPasswordResetOTP(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
	RequestProfileUpdateOTP(ctx context.Context, accountID string) error
	UpdateProfile(ctx context.Context, accountID string, upd services.ProfileUpdate) (*models.Account, error)
	GetProfile(ctx context.Context, accountID string) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]*models.Account, error)
}

// Server serves the /api routes.
type Server struct {
	address            string
	logger             logging.Logger
	accounts           AccountOperations
	jwtSecret          []byte
	rateLimitPerSecond float64
}

// NewServer wires the HTTP surface on top of the account service.
func NewServer(cfg *config.Config, l logging.Logger, accounts AccountOperations) *Server {
	return &Server{
		address:            cfg.EndpointAddrHTTP,
		logger:             l.With("module", "http_server"),
		accounts:           accounts,
		jwtSecret:          []byte(cfg.SecretKey),
		rateLimitPerSecond: cfg.RateLimitPerSecond,
	}
}

type structValidator struct {
	validate *validator.Validate
}

func (v *structValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// newEcho builds the echo instance with all routes and middleware registered.
// Split from Run so handler tests can drive it with httptest.
func (s *Server) newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &structValidator{validate: validator.New()}
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	api := e.Group("/api")

	auth := api.Group("/auth")
	if s.rateLimitPerSecond > 0 {
		limiter := tollbooth.NewLimiter(s.rateLimitPerSecond, nil)
		auth.Use(echo.WrapMiddleware(func(next http.Handler) http.Handler {
			return tollbooth.LimitHandler(limiter, next)
		}))
	}

	// public
	auth.POST("/signup/request-otp", s.requestSignupOTP)
	auth.POST("/register", s.register)
	auth.POST("/login", s.login)
	auth.POST("/password-reset/request-otp", s.requestPasswordResetOTP)
	auth.POST("/password-reset", s.resetPassword)

	// authenticated
	protected := auth.Group("")
	protected.Use(s.jwtMiddleware())
	protected.GET("/profile", s.getProfile)
	protected.PUT("/profile", s.updateProfile)
	protected.POST("/profile/request-otp", s.requestProfileUpdateOTP)

	// admin-only
	admin := api.Group("/admin")
	admin.Use(s.jwtMiddleware(), adminOnly)
	admin.GET("/accounts", s.listAccounts)

	return e
}

// Run starts the server and blocks until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	e := s.newEcho()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(shutdownCtx, "HTTP server shutdown error", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := e.Start(s.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
