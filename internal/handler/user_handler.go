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

// UserCommander defines the write-side operations used by UserHandler.
type UserCommander interface {
	CreateUser(context.Context, cqrs.CreateUserCommand) (*models.User, error)
	UpdateUser(context.Context, cqrs.UpdateUserCommand) (*models.UserView, error)
	DeleteUser(context.Context, cqrs.DeleteUserCommand) error
}

// UserQuerier defines the read-side operations used by UserHandler.
type UserQuerier interface {
	GetUser(context.Context, cqrs.GetUserQuery) (*models.UserView, error)
}

// UserHandler routes requests to the command or query service as appropriate.
type UserHandler struct {
	commands UserCommander
	queries  UserQuerier
	logger   *zap.Logger
}

type CreateUserRequest struct {
	Name        string         `json:"name" validate:"required"`
	Email       string         `json:"email" validate:"required,email"`
	Password    string         `json:"password" validate:"required,min=8"`
	PhoneNumber string         `json:"phoneNumber" validate:"required,e164"`
	Address     models.Address `json:"address" validate:"required"`
}

type UpdateUserRequest struct {
	Name        string         `json:"name" validate:"required"`
	Email       string         `json:"email" validate:"required,email"`
	PhoneNumber string         `json:"phoneNumber" validate:"required,e164"`
	Address     models.Address `json:"address" validate:"required"`
}

func NewUserHandler(commands UserCommander, queries UserQuerier, logger *zap.Logger) *UserHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserHandler{commands: commands, queries: queries, logger: logger}
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.commands.CreateUser(c.Request.Context(), cqrs.CreateUserCommand{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
	})
	if err != nil {
		middleware.RespondWithAppError(c, h.logger, err, "Failed to create user")
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	requestingUserID, _ := middleware.GetUserID(c)

	view, err := h.queries.GetUser(c.Request.Context(), cqrs.GetUserQuery{
		UserID:           c.Param("userId"),
		RequestingUserID: requestingUserID,
	})
	if err != nil {
		middleware.RespondWithAppError(c, h.logger, err, "Failed to get user")
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	userID := c.Param("userId")
	requestingUserID, _ := middleware.GetUserID(c)

	if userID != requestingUserID {
		middleware.RespondWithError(c, http.StatusForbidden, "You can only update your own user details")
		return
	}

	var req UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.commands.UpdateUser(c.Request.Context(), cqrs.UpdateUserCommand{
		UserID:           userID,
		RequestingUserID: requestingUserID,
		Name:             req.Name,
		Email:            req.Email,
		PhoneNumber:      req.PhoneNumber,
		Address:          req.Address,
	})
	if err != nil {
		middleware.RespondWithAppError(c, h.logger, err, "Failed to update user")
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	requestingUserID, _ := middleware.GetUserID(c)

	err := h.commands.DeleteUser(c.Request.Context(), cqrs.DeleteUserCommand{
		UserID:           c.Param("userId"),
		RequestingUserID: requestingUserID,
	})
	if err != nil {
		middleware.RespondWithAppError(c, h.logger, err, "Failed to delete user")
		return
	}

	c.Status(http.StatusNoContent)
}
