package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coralbank/account-service/internal/cqrs"
	"github.com/coralbank/account-service/internal/errcode"
	"github.com/coralbank/account-service/internal/middleware"
	"github.com/coralbank/account-service/internal/models"
)

// AccountCommander defines the write-side operations used by AccountHandler.
type AccountCommander interface {
	CreateUser(ctx context.Context, cmd cqrs.CreateUserCommand) (*models.User, error)
	OpenAccount(ctx context.Context, cmd cqrs.OpenAccountCommand) (*models.Account, error)
	CloseAccount(ctx context.Context, cmd cqrs.CloseAccountCommand) (*models.Account, error)
}

// AccountQuerier defines the read-side operations used by AccountHandler.
type AccountQuerier interface {
	ListAccounts(ctx context.Context, q cqrs.ListAccountsQuery) ([]models.AccountView, error)
}

// AccountHandler handles user and account lifecycle HTTP requests.
type AccountHandler struct {
	commands AccountCommander
	queries  AccountQuerier
}

func NewAccountHandler(commands AccountCommander, queries AccountQuerier) *AccountHandler {
	return &AccountHandler{commands: commands, queries: queries}
}

type CreateUserRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type OpenAccountRequest struct {
	UserID         string `json:"userId" validate:"required"`
	InitialBalance int64  `json:"initialBalance" validate:"gte=0"`
}

type CloseAccountRequest struct {
	UserID        string `json:"userId" validate:"required"`
	AccountNumber string `json:"accountNumber" validate:"required,len=10,numeric"`
}

type ListAccountsResponse struct {
	Accounts []models.AccountView `json:"accounts"`
}

func (h *AccountHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errcode.New(errcode.InvalidRequest))
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	user, err := h.commands.CreateUser(c.Request.Context(), cqrs.CreateUserCommand{Name: req.Name})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *AccountHandler) OpenAccount(c *gin.Context) {
	var req OpenAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errcode.New(errcode.InvalidRequest))
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	account, err := h.commands.OpenAccount(c.Request.Context(), cqrs.OpenAccountCommand{
		UserID:         req.UserID,
		InitialBalance: req.InitialBalance,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

func (h *AccountHandler) CloseAccount(c *gin.Context) {
	var req CloseAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errcode.New(errcode.InvalidRequest))
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	account, err := h.commands.CloseAccount(c.Request.Context(), cqrs.CloseAccountCommand{
		UserID:        req.UserID,
		AccountNumber: req.AccountNumber,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *AccountHandler) ListAccounts(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		respondError(c, errcode.WithMessage(errcode.InvalidRequest, "user_id query parameter is required"))
		return
	}

	views, err := h.queries.ListAccounts(c.Request.Context(), cqrs.ListAccountsQuery{UserID: userID})
	if err != nil {
		respondError(c, err)
		return
	}
	if views == nil {
		views = []models.AccountView{}
	}
	c.JSON(http.StatusOK, ListAccountsResponse{Accounts: views})
}
