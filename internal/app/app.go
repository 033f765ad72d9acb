// Package app wires configuration, storage, services and HTTP routes into
// one runnable server.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/parisxmas/OxiForms/internal/auth"
	"github.com/parisxmas/OxiForms/internal/config"
	"github.com/parisxmas/OxiForms/internal/db"
	"github.com/parisxmas/OxiForms/internal/handler"
	"github.com/parisxmas/OxiForms/internal/notify"
	"github.com/parisxmas/OxiForms/internal/repository"
	"github.com/parisxmas/OxiForms/internal/router"
	"github.com/parisxmas/OxiForms/internal/service"
	"github.com/parisxmas/OxiForms/internal/storage"
)

// App owns every long-lived resource of the server.
type App struct {
	Config      *config.Config
	DB          *sql.DB
	Router      *chi.Mux
	Dispatcher  *notify.Dispatcher
	Forms       *service.FormService
	Submissions *service.SubmissionService

	log logrus.FieldLogger
}

// Options replaces collaborators in tests. Zero values select the
// production implementation.
type Options struct {
	Mailer notify.Mailer
}

func New(cfg *config.Config, log logrus.FieldLogger, opts Options) (*App, error) {
	conn, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	files, err := storage.NewLocal(cfg.UploadDir, strings.TrimRight(cfg.PublicURL, "/")+"/uploads")
	if err != nil {
		conn.Close()
		return nil, err
	}

	mailer := opts.Mailer
	if mailer == nil && cfg.ResendAPIKey != "" {
		mailer = notify.NewResendMailer(cfg.ResendAPIKey, cfg.EmailFrom)
	}
	if mailer == nil {
		log.Info("email notifications disabled: RESEND_API_KEY is not set")
	}
	dispatcher := notify.NewDispatcher(notify.NewWebhookSender(cfg.WebhookTimeout), mailer, log, 3*cfg.WebhookTimeout)

	// Repositories
	userRepo := repository.NewUserRepo(conn)
	formRepo := repository.NewFormRepo(conn)
	subRepo := repository.NewSubmissionRepo(conn)
	hookRepo := repository.NewWebhookRepo(conn)
	docRepo := repository.NewDocumentRepo(conn)

	// Services
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	authSvc := service.NewAuthService(userRepo, tokens)
	if cfg.AdminEmail != "" && cfg.AdminPass != "" {
		if err := authSvc.SeedAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPass); err != nil {
			log.Warnf("failed to seed admin: %v", err)
		}
	}
	formSvc := service.NewFormService(formRepo, subRepo, files, log)
	uploadSvc := service.NewUploadService(formRepo, docRepo, files, cfg.MaxUploadBytes)
	subSvc := service.NewSubmissionService(formRepo, subRepo, hookRepo, uploadSvc, dispatcher, log)
	hookSvc := service.NewWebhookService(formRepo, hookRepo)
	analyticsSvc := service.NewAnalyticsService(formRepo, subRepo)

	// Router
	r := router.New(tokens, router.Handlers{
		Auth:        handler.NewAuthHandler(authSvc, log),
		Forms:       handler.NewFormHandler(formSvc, log),
		Submissions: handler.NewSubmissionHandler(subSvc, analyticsSvc, cfg.MaxUploadBytes, log),
		Uploads:     handler.NewUploadHandler(uploadSvc, cfg.MaxUploadBytes, log),
		Webhooks:    handler.NewWebhookHandler(hookSvc, log),
	}, log)

	return &App{
		Config:      cfg,
		DB:          conn,
		Router:      r,
		Dispatcher:  dispatcher,
		Forms:       formSvc,
		Submissions: subSvc,
		log:         log,
	}, nil
}

// Serve runs the HTTP server until ctx is cancelled, then stops accepting
// requests and drains in-flight notifications.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.HTTPAddr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		a.log.Infof("OxiForms server starting on %s", a.Config.HTTPAddr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Warnf("http shutdown: %v", err)
	}
	if err := a.Dispatcher.Wait(shutdownCtx); err != nil {
		a.log.Warnf("notifications still in flight at exit: %v", err)
	}
	return nil
}

func (a *App) Close() error {
	return a.DB.Close()
}
