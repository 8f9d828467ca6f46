// Command auth-server starts the authentication HTTP server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/markmcclatchy/auth-service/internal/config"
	"github.com/markmcclatchy/auth-service/internal/crypto"
	"github.com/markmcclatchy/auth-service/internal/email"
	"github.com/markmcclatchy/auth-service/internal/migrate"
	"github.com/markmcclatchy/auth-service/internal/model"
	"github.com/markmcclatchy/auth-service/internal/repository"
	"github.com/markmcclatchy/auth-service/internal/repository/memory"
	"github.com/markmcclatchy/auth-service/internal/repository/postgres"
	"github.com/markmcclatchy/auth-service/internal/repository/redisrepo"
	restserver "github.com/markmcclatchy/auth-service/internal/server/rest"
	"github.com/markmcclatchy/auth-service/internal/service"
	"github.com/markmcclatchy/auth-service/internal/token"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main parses configuration, selects storage backends, and runs the HTTP
// server until SIGINT/SIGTERM.
func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hasher := crypto.NewHasher(crypto.Params{
		Memory:      cfg.ArgonMemoryKiB,
		Time:        cfg.ArgonTime,
		Parallelism: cfg.ArgonParallel,
		SaltLength:  16,
		KeyLength:   32,
	}, cfg.HashWorkers)

	users, cleanup, err := buildUserStore(ctx, cfg, hasher, logger)
	if err != nil {
		logger.Fatal("user store", zap.Error(err))
	}
	defer cleanup()

	banned, codes, resets := buildEphemeralStores(cfg, logger)
	mail := buildEmailClient(cfg, logger)
	tokens := token.NewManager([]byte(cfg.JWTSecret), cfg.AuthTokenTTL, cfg.ResetTokenTTL)

	auth := service.NewAuthService(users, banned, codes, resets, mail, tokens, hasher, cfg.TwoFALockWait)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: restserver.New(auth, cfg.AuthTokenTTL, logger).Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}

// buildUserStore returns the Postgres-backed user store when a DSN is
// configured (running migrations first), otherwise the in-memory store.
func buildUserStore(ctx context.Context, cfg *config.Config, hasher *crypto.Hasher, logger *zap.Logger) (repository.UserRepository, func(), error) {
	if cfg.PostgresDSN == "" {
		logger.Warn("no postgres dsn configured, users are stored in memory")
		return memory.NewUserStore(hasher), func() {}, nil
	}

	if err := migrate.Up(ctx, cfg.PostgresDSN); err != nil {
		return nil, nil, err
	}
	db, err := postgres.New(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewUserRepo(db, hasher), db.Close, nil
}

// buildEphemeralStores returns Redis-backed revocation/2FA/reset stores when
// a Redis address is configured, otherwise their in-memory counterparts.
func buildEphemeralStores(cfg *config.Config, logger *zap.Logger) (repository.BannedTokenRepository, repository.TwoFACodeRepository, repository.ResetTokenRepository) {
	if cfg.RedisAddr == "" {
		logger.Warn("no redis address configured, ephemeral stores are in memory")
		return memory.NewBannedTokenStore(), memory.NewTwoFACodeStore(), memory.NewResetTokenStore()
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	return redisrepo.NewBannedTokenStore(rdb),
		redisrepo.NewTwoFACodeStore(rdb, cfg.TwoFACodeTTL),
		redisrepo.NewResetTokenStore(rdb, cfg.ResetTokenTTL)
}

// buildEmailClient returns the Postmark client when credentials are
// configured, otherwise a recording mock so dev setups run without an
// outbound provider.
func buildEmailClient(cfg *config.Config, logger *zap.Logger) email.Client {
	if cfg.PostmarkToken == "" || cfg.PostmarkSender == "" {
		logger.Warn("no postmark credentials configured, email delivery is mocked")
		return email.NewMock()
	}
	sender, err := model.ParseEmail(cfg.PostmarkSender)
	if err != nil {
		logger.Fatal("postmark sender", zap.Error(err))
	}
	return email.NewPostmark(cfg.PostmarkBaseURL, model.NewSecret(cfg.PostmarkToken), sender, cfg.PostmarkTimeout)
}
