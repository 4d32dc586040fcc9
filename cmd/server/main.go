package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"eventscheduler/config"
	_ "eventscheduler/docs"
	"eventscheduler/internal/adapters/auth"
	"eventscheduler/internal/adapters/email"
	"eventscheduler/internal/adapters/summarizer"
	httpdelivery "eventscheduler/internal/delivery/http"
	"eventscheduler/internal/delivery/http/controllers"
	"eventscheduler/internal/delivery/http/middleware"
	"eventscheduler/internal/domain"
	"eventscheduler/internal/repository/firestore"
	"eventscheduler/internal/repository/memory"
	"eventscheduler/internal/repository/postgres"
	"eventscheduler/internal/services"
)

const shutdownTimeout = 10 * time.Second

func main() {
	app := &cli.App{
		Name:  "eventscheduler",
		Usage: "Personal event scheduling API with invitations and live updates.",
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "port", Usage: "listen port (overrides PORT)"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if p := c.String("port"); p != "" {
				cfg.Port = p
			}
			logger := config.NewLogger()
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending Postgres migrations.",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := config.NewLogger()

			db, err := postgres.Open(c.Context, cfg.DBUrl)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := postgres.Migrate(c.Context, db)
			for _, name := range applied {
				logger.Info("migration applied", "name", name)
			}
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			if len(applied) == 0 {
				logger.Info("database is up to date")
			}
			return nil
		},
	}
}

// stores is the selected backend behind the domain ports.
type stores struct {
	events      domain.EventRepository
	invitations domain.InvitationRepository
	users       domain.UserRepository
	credentials domain.CredentialRepository
	db          *sql.DB
	closers     []io.Closer
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i].Close()
	}
}

func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		return &stores{
			events:      memory.NewEventRepository(),
			invitations: memory.NewInvitationRepository(),
			users:       memory.NewUserRepository(),
			credentials: memory.NewCredentialRepository(),
		}, nil

	case config.StorePostgres:
		db, err := postgres.Open(ctx, cfg.DBUrl)
		if err != nil {
			return nil, err
		}
		watcher := postgres.NewWatcher(cfg.DBUrl, logger)
		st := &stores{
			events:      postgres.NewEventRepository(db, watcher),
			invitations: postgres.NewInvitationRepository(db, watcher),
			users:       postgres.NewUserRepository(db),
			credentials: postgres.NewCredentialRepository(db),
			db:          db,
			closers:     []io.Closer{db},
		}
		go func() {
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("postgres watcher stopped", "err", err)
			}
		}()
		return st, nil

	case config.StoreFirestore:
		client, err := firestore.NewClient(ctx, cfg.FirestoreProjectID, cfg.GoogleCredentials)
		if err != nil {
			return nil, err
		}
		return &stores{
			events:      firestore.NewEventRepository(client),
			invitations: firestore.NewInvitationRepository(client),
			users:       firestore.NewUserRepository(client),
			credentials: firestore.NewCredentialRepository(client),
			closers:     []io.Closer{client},
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// identity returns the configured provider and the verifier guarding authenticated routes.
func identity(ctx context.Context, cfg *config.Config, st *stores) (domain.IdentityProvider, domain.TokenVerifier, error) {
	switch cfg.AuthProvider {
	case config.AuthLocal:
		tokens := auth.NewJWTTokens(cfg.JWTSecret, auth.NewRevocationList())
		provider := auth.NewLocalProvider(st.credentials, auth.NewBcryptHasher(0), tokens, cfg.JWTExpiry)
		return provider, tokens, nil
	case config.AuthFirebase:
		admin, err := auth.NewFirebaseAdmin(ctx, cfg.FirestoreProjectID, cfg.GoogleCredentials)
		if err != nil {
			return nil, nil, err
		}
		provider := auth.NewFirebaseProvider(cfg.FirebaseAPIKey, cfg.FirebaseAuthURL, admin, &http.Client{Timeout: cfg.RequestTimeout})
		return provider, provider, nil
	}
	return nil, nil, fmt.Errorf("unknown auth provider %q", cfg.AuthProvider)
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	provider, verifier, err := identity(ctx, cfg, st)
	if err != nil {
		return err
	}

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:             cfg.AWSRegion,
			AccessKeyID:        cfg.AWSAccessKeyID,
			SecretAccessKey:    cfg.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.SESInsecureSkipVerify,
		},
		SendGrid: email.SendGridConfig{APIKey: cfg.SendGridAPIKey},
	}, logger)
	if err != nil {
		return fmt.Errorf("create mailer: %w", err)
	}
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer())

	eventService := services.NewEventService(st.events, cfg.RequestTimeout)
	invitationService := services.NewInvitationService(st.invitations, emailService, cfg.RequestTimeout)
	accountService := services.NewAccountService(provider, st.users, invitationService, cfg.RequestTimeout)
	summary := summarizer.NewOpenAISummarizer(summarizer.Config{
		APIKey:     cfg.OpenAIAPIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		Model:      cfg.OpenAIModel,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	})

	health := controllers.Healthz(nil)
	if st.db != nil {
		health = controllers.Healthz(st.db)
	}

	mux := httpdelivery.NewRouter(httpdelivery.Controllers{
		Auth:        controllers.NewAuthController(logger, accountService),
		Events:      controllers.NewEventController(logger, eventService),
		Invitations: controllers.NewInvitationController(logger, invitationService, cfg.PublicOrigin),
		Summarize:   controllers.NewSummarizeController(logger, summary),
		Health:      health,
	}, verifier, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middleware.CORS(cfg.CORSAllowedOrigins, middleware.LoggingMiddleware(logger, mux)),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	srv.BaseContext = func(_ net.Listener) context.Context { return ctx }

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr, "store", cfg.StoreDriver, "auth", cfg.AuthProvider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
