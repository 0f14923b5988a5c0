// Package server initializes and runs the account service. It wires the
// database, repositories, mailer, and business services, and handles graceful
// shutdown of the HTTP endpoint.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/logging"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/config"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/httpapi"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/mail"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/otp"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/repositories/repomanager"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/services"
)

type App struct {
	config         *config.Config
	logger         logging.Logger
	db             *sql.DB
	accountService *services.AccountService
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	mailer, err := mail.NewSMTPMailer(cfg)
	if err != nil {
		return nil, fmt.Errorf("mailer init error: %w", err)
	}

	otpService := otp.NewService(db, rm, mailer, cfg)
	accountService := services.NewAccountService(db, rm, otpService, cfg)

	return &App{
		config:         cfg,
		logger:         logger,
		db:             db,
		accountService: accountService,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config, app.logger, app.accountService)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
}
