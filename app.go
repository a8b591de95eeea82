package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"todolist/config"
	"todolist/handlers"
	"todolist/mailer"
	"todolist/session"
	"todolist/store"
	"todolist/todo"
	"todolist/utils"
)

// setup loads the configuration and builds the logger.
func setup() (config.Config, *log.Logger, error) {
	dotenvErr := config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := utils.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return config.Config{}, nil, err
	}
	if dotenvErr != nil {
		logger.Info("no .env file found, continuing")
	}
	logger.Info("environment", "env", cfg.Env, "store", cfg.StoreDriver, "sessions", cfg.SessionBackend)
	return cfg, logger, nil
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := utils.OpenDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return store.NewPostgres(pool), nil
	case config.StoreSQLite:
		db, err := utils.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store.NewSQLite(db), nil
	case config.StoreMemory:
		return store.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// openTokens returns the token store and a function releasing it.
func openTokens(ctx context.Context, cfg config.Config) (session.TokenStore, func() error, error) {
	switch cfg.SessionBackend {
	case config.SessionsRedis:
		client, err := utils.OpenRedisPool(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return session.NewRedisTokens(client), client.Close, nil
	case config.SessionsJWT:
		tokens, err := session.NewJWTTokens([]byte(cfg.JWTSecret))
		if err != nil {
			return nil, nil, err
		}
		return tokens, func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
}

func newWelcomer(cfg config.Config, logger *log.Logger) session.Welcomer {
	if cfg.SendGridKey == "" {
		logger.Warn("SENDGRID_API_KEY not set, welcome mail disabled")
		return mailer.Noop{}
	}
	return mailer.NewSendGrid(cfg.SendGridKey, cfg.MailFrom, "")
}

func runMigrate(ctx context.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("schema up to date", "store", cfg.StoreDriver)
	return nil
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	tokens, closeTokens, err := openTokens(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeTokens()

	gate, err := session.NewGate(st, tokens, session.Options{
		TTL:        cfg.SessionTTL,
		BcryptCost: cfg.BcryptCost,
		Welcomer:   newWelcomer(cfg, logger),
		Logger:     logger.WithPrefix("session"),
	})
	if err != nil {
		return err
	}
	controller := todo.NewController(gate, st, cfg.StoreTimeout, logger.WithPrefix("todo"))
	api := handlers.New(gate, controller, st, logger.WithPrefix("http"))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
