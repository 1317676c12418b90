package handler

import (
	"context"
	"net/http"

	"github.com/eaglebank/eagle-bank-api/internal/cqrs"
	"github.com/eaglebank/eagle-bank-api/internal/middleware"
	"github.com/eaglebank/eagle-bank-api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TransactionCommander defines the write-side operations used by TransactionHandler.
type TransactionCommander interface {
	CreateTransaction(context.Context, cqrs.CreateTransactionCommand) (*models.Transaction, error)
}

// TransactionQuerier defines the read-side operations used by TransactionHandler.
type TransactionQuerier interface {
	GetTransaction(context.Context, cqrs.GetTransactionQuery) (*models.TransactionView, error)
	ListTransactions(context.Context, cqrs.ListTransactionsQuery) ([]models.TransactionView, error)
}

type TransactionHandler struct {
	commands TransactionCommander
	queries  TransactionQuerier
	logger   *zap.Logger
}

// CreateTransactionRequest carries no validation tags: amount, currency and
// type are checked by the posting engine after the account has been resolved,
// so an unknown or foreign account is reported before a bad field. Amount is
// decoded as a plain decimal for the same reason; sub-penny or out-of-range
// values are rejected by the engine, not by the decoder.
type CreateTransactionRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Type      string          `json:"type"`
	Reference string          `json:"reference"`
}

type ListTransactionsResponse struct {
	Transactions []models.TransactionView `json:"transactions"`
}

func NewTransactionHandler(commands TransactionCommander, queries TransactionQuerier, logger *zap.Logger) *TransactionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransactionHandler{commands: commands, queries: queries, logger: logger}
}

func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	accountNumber, ok := accountNumberParam(c)
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(c)

	var req CreateTransactionRequest
	if !bindJSON(c, &req) {
		return
	}

	transaction, err := h.commands.CreateTransaction(c.Request.Context(), cqrs.CreateTransactionCommand{
		AccountNumber: accountNumber,
		UserID:        userID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Type:          req.Type,
		Reference:     req.Reference,
	})
	if err != nil {
		middleware.RespondWithAppError(c, h.logger, err, "Failed to create transaction")
		return
	}

	c.JSON(http.StatusCreated, transaction)
}

func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	accountNumber, ok := accountNumberParam(c)
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(c)

	views, err := h.queries.ListTransactions(c.Request.Context(), cqrs.ListTransactionsQuery{
		AccountNumber: accountNumber,
		UserID:        userID,
	})
	if err != nil {
		middleware.RespondWithAppError(c, h.logger, err, "Failed to list transactions")
		return
	}
	if views == nil {
		views = []models.TransactionView{}
	}

	c.JSON(http.StatusOK, ListTransactionsResponse{Transactions: views})
}

func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	accountNumber, ok := accountNumberParam(c)
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(c)

	view, err := h.queries.GetTransaction(c.Request.Context(), cqrs.GetTransactionQuery{
		TransactionID: c.Param("transactionId"),
		AccountNumber: accountNumber,
		UserID:        userID,
	})
	if err != nil {
		middleware.RespondWithAppError(c, h.logger, err, "Failed to get transaction")
		return
	}

	c.JSON(http.StatusOK, view)
}
