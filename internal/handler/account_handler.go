package handler

import (
	"context"
	"net/http"

	"github.com/eaglebank/eagle-bank-api/internal/cqrs"
	"github.com/eaglebank/eagle-bank-api/internal/middleware"
	"github.com/eaglebank/eagle-bank-api/internal/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AccountCommander defines the write-side operations used by AccountHandler.
type AccountCommander interface {
	CreateAccount(context.Context, cqrs.CreateAccountCommand) (*models.Account, error)
	UpdateAccount(context.Context, cqrs.UpdateAccountCommand) (*models.AccountView, error)
	DeleteAccount(context.Context, cqrs.DeleteAccountCommand) error
}

// AccountQuerier defines the read-side operations used by AccountHandler.
type AccountQuerier interface {
	GetAccount(context.Context, cqrs.GetAccountQuery) (*models.AccountView, error)
	ListAccounts(context.Context, cqrs.ListAccountsQuery) ([]models.AccountView, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	commands AccountCommander
	queries  AccountQuerier
	logger   *zap.Logger
}

type CreateAccountRequest struct {
	Name        string `json:"name" validate:"required"`
	AccountType string `json:"accountType" validate:"required,oneof=personal"`
}

type UpdateAccountRequest struct {
	Name        string `json:"name"`
	AccountType string `json:"accountType" validate:"omitempty,oneof=personal"`
}

type ListAccountsResponse struct {
	Accounts []models.AccountView `json:"accounts"`
}

func NewAccountHandler(commands AccountCommander, queries AccountQuerier, logger *zap.Logger) *AccountHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountHandler{commands: commands, queries: queries, logger: logger}
}

func (h *AccountHandler) CreateAccount(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req CreateAccountRequest
	if !bindJSON(c, &req) {
		return
	}

	account, err := h.commands.CreateAccount(c.Request.Context(), cqrs.CreateAccountCommand{
		UserID:      userID,
		Name:        req.Name,
		AccountType: req.AccountType,
	})
	if err != nil {
		middleware.RespondWithAppError(c, h.logger, err, "Failed to create account")
		return
	}

	c.JSON(http.StatusCreated, account)
}

func (h *AccountHandler) ListAccounts(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	views, err := h.queries.ListAccounts(c.Request.Context(), cqrs.ListAccountsQuery{UserID: userID})
	if err != nil {
		middleware.RespondWithAppError(c, h.logger, err, "Failed to list accounts")
		return
	}
	if views == nil {
		views = []models.AccountView{}
	}

	c.JSON(http.StatusOK, ListAccountsResponse{Accounts: views})
}

func (h *AccountHandler) GetAccount(c *gin.Context) {
	accountNumber, ok := accountNumberParam(c)
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(c)

	view, err := h.queries.GetAccount(c.Request.Context(), cqrs.GetAccountQuery{
		AccountNumber:    accountNumber,
		RequestingUserID: userID,
	})
	if err != nil {
		middleware.RespondWithAppError(c, h.logger, err, "Failed to get account")
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	accountNumber, ok := accountNumberParam(c)
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(c)

	var req UpdateAccountRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.commands.UpdateAccount(c.Request.Context(), cqrs.UpdateAccountCommand{
		AccountNumber:    accountNumber,
		RequestingUserID: userID,
		Name:             req.Name,
		AccountType:      req.AccountType,
	})
	if err != nil {
		middleware.RespondWithAppError(c, h.logger, err, "Failed to update account")
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	accountNumber, ok := accountNumberParam(c)
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(c)

	err := h.commands.DeleteAccount(c.Request.Context(), cqrs.DeleteAccountCommand{
		AccountNumber:    accountNumber,
		RequestingUserID: userID,
	})
	if err != nil {
		middleware.RespondWithAppError(c, h.logger, err, "Failed to delete account")
		return
	}

	c.Status(http.StatusNoContent)
}
