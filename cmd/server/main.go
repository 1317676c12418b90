package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/eaglebank/eagle-bank-api/internal/auth"
	"github.com/eaglebank/eagle-bank-api/internal/command"
	"github.com/eaglebank/eagle-bank-api/internal/config"
	"github.com/eaglebank/eagle-bank-api/internal/database"
	"github.com/eaglebank/eagle-bank-api/internal/events"
	"github.com/eaglebank/eagle-bank-api/internal/handler"
	"github.com/eaglebank/eagle-bank-api/internal/logging"
	"github.com/eaglebank/eagle-bank-api/internal/query"
	redisClient "github.com/eaglebank/eagle-bank-api/internal/redis"
	"github.com/eaglebank/eagle-bank-api/internal/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "eagle-bank-api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database connection (write store)
	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.MigrateOnStart {
		if err := database.Migrate(ctx, db, logger); err != nil {
			return err
		}
	}

	// Redis connection (read model store + event streaming)
	redis, err := redisClient.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer redis.Close()

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return err
	}

	// --- CQRS wiring ---
	publisher := events.NewPublisher(redis.Client)

	accountWriteRepo := repository.NewAccountWriteRepository(db)
	accountReadRepo := repository.NewAccountReadRepository(db, redis.Client, cfg.AccountCacheTTL, logger)
	transactionWriteRepo := repository.NewTransactionWriteRepository(db)
	transactionReadRepo := repository.NewTransactionReadRepository(db, redis.Client, logger)
	userWriteRepo := repository.NewUserWriteRepository(db)
	userReadRepo := repository.NewUserReadRepository(db, redis.Client, logger)

	accountCmd := command.NewAccountCommandService(accountWriteRepo, accountReadRepo, publisher, logger)
	transactionCmd := command.NewTransactionCommandService(transactionWriteRepo, transactionReadRepo, accountReadRepo, publisher, logger)
	userCmd := command.NewUserCommandService(userWriteRepo, userReadRepo, accountWriteRepo, publisher, logger)

	accountQry := query.NewAccountQueryService(accountReadRepo)
	transactionQry := query.NewTransactionQueryService(transactionReadRepo, accountReadRepo)
	userQry := query.NewUserQueryService(userReadRepo)
	authQry := query.NewAuthQueryService(userWriteRepo, tokens)

	gin.SetMode(cfg.GinMode)
	router := handler.NewRouter(handler.RouterConfig{
		Accounts:     handler.NewAccountHandler(accountCmd, accountQry, logger),
		Transactions: handler.NewTransactionHandler(transactionCmd, transactionQry, logger),
		Users:        handler.NewUserHandler(userCmd, userQry, logger),
		Auth:         handler.NewAuthHandler(authQry, logger),
		Verifier:     tokens,
		Logger:       logger,
		Health: map[string]handler.HealthCheck{
			"postgres": db.PingContext,
			"redis":    func(ctx context.Context) error { return redis.Ping(ctx).Err() },
		},
	})

	// Keeps the per-user account count used by user deletion in step with
	// account lifecycle events.
	subscriberDone := make(chan struct{})
	go func() {
		defer close(subscriberDone)
		subscriber := events.NewSubscriber(redis.Client, events.SubscriberConfig{
			Group:    "user-service-group",
			Consumer: cfg.ConsumerName,
			Stream:   events.AccountEventsStream,
			Handler:  userCmd.HandleAccountEvent,
			Logger:   logger,
		})
		if err := subscriber.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("subscriber stopped", zap.Error(err))
		}
	}()

	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("eagle bank api starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			stop()
			<-subscriberDone
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	stop()
	<-subscriberDone
	return nil
}
