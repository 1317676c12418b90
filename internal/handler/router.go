package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/eaglebank/eagle-bank-api/internal/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type RouterConfig struct {
	Accounts     *AccountHandler
	Transactions *TransactionHandler
	Users        *UserHandler
	Auth         *AuthHandler
	Verifier     middleware.TokenVerifier
	Logger       *zap.Logger
	Health       map[string]HealthCheck
}

// NewRouter builds the HTTP API. Everything except login, refresh, user
// registration and /health requires a bearer token.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.LoggingMiddleware(logger), middleware.Recovery(logger))

	router.GET("/health", healthHandler(cfg.Health))

	requireAuth := middleware.AuthMiddleware(cfg.Verifier)

	authRoutes := router.Group("/v1/auth")
	{
		authRoutes.POST("/login", cfg.Auth.Login)
		authRoutes.POST("/refresh", cfg.Auth.RefreshToken)
	}

	users := router.Group("/v1/users")
	{
		users.POST("", cfg.Users.CreateUser)
		users.GET("/:userId", requireAuth, cfg.Users.GetUser)
		users.PATCH("/:userId", requireAuth, cfg.Users.UpdateUser)
		users.DELETE("/:userId", requireAuth, cfg.Users.DeleteUser)
	}

	accounts := router.Group("/v1/accounts", requireAuth)
	{
		accounts.POST("", cfg.Accounts.CreateAccount)
		accounts.GET("", cfg.Accounts.ListAccounts)
		accounts.GET("/:accountNumber", cfg.Accounts.GetAccount)
		accounts.PATCH("/:accountNumber", cfg.Accounts.UpdateAccount)
		accounts.DELETE("/:accountNumber", cfg.Accounts.DeleteAccount)

		accounts.POST("/:accountNumber/transactions", cfg.Transactions.CreateTransaction)
		accounts.GET("/:accountNumber/transactions", cfg.Transactions.ListTransactions)
		accounts.GET("/:accountNumber/transactions/:transactionId", cfg.Transactions.GetTransaction)
	}

	return router
}

func healthHandler(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}

		body := gin.H{"status": "ok", "service": "eagle-bank-api"}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		if len(results) > 0 {
			body["checks"] = results
		}
		c.JSON(status, body)
	}
}
