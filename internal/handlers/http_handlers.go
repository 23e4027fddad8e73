package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"digitalwallet/internal/models"
	"digitalwallet/internal/repository"
	"digitalwallet/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=http_handlers.go -destination=../../test/mock_services.go -package=test

const (
	defaultHistoryPageSize = 10
	maxHistoryPageSize     = 100
)

type UserService interface {
	Register(ctx context.Context, req models.RegisterRequest) error
	Login(ctx context.Context, req models.LoginRequest) (string, error)
}

type WalletService interface {
	Create(ctx context.Context, principal *models.User, req models.CreateWalletRequest) (*models.Wallet, error)
	Deposit(ctx context.Context, principal *models.User, req models.DepositRequest) (decimal.Decimal, error)
	GetByID(ctx context.Context, principal *models.User, id int64) (*models.Wallet, error)
}

type TransferService interface {
	Transfer(ctx context.Context, principal *models.User, req models.TransferRequest) (*models.TransferResponse, error)
	History(ctx context.Context, cursor *int64, limit int) (*models.PagedResponse, error)
}

type HTTPHandler struct {
	users     UserService
	wallets   WalletService
	transfers TransferService
}

func NewHTTPHandler(users UserService, wallets WalletService, transfers TransferService) *HTTPHandler {
	return &HTTPHandler{users: users, wallets: wallets, transfers: transfers}
}

func (h *HTTPHandler) RegisterRoutes(r *gin.Engine, authRequired gin.HandlerFunc) {
	v1 := r.Group("/api/v1")
	{
		v1.POST("/auth/register", h.HandleRegister)
		v1.POST("/auth/login", h.HandleLogin)

		secured := v1.Group("", authRequired)
		{
			secured.POST("/wallet/create", h.HandleCreateWallet)
			secured.PUT("/wallet/deposit", h.HandleDeposit)
			secured.GET("/wallet/:id", h.HandleGetWallet)
			secured.POST("/transfer", h.HandleTransfer)
			secured.GET("/transfer", h.HandleTransferHistory)
		}
	}
}

func (h *HTTPHandler) HandleRegister(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if err := h.users.Register(c.Request.Context(), req); err != nil {
		respondServiceError(c, err)
		return
	}
	c.String(http.StatusCreated, "User registered successfully")
}

func (h *HTTPHandler) HandleLogin(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	token, err := h.users.Login(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.String(http.StatusOK, token)
}

func (h *HTTPHandler) HandleCreateWallet(c *gin.Context) {
	principal := principalFrom(c)
	if principal == nil {
		return
	}
	var req models.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if _, err := h.wallets.Create(c.Request.Context(), principal, req); err != nil {
		respondServiceError(c, err)
		return
	}
	c.String(http.StatusCreated, "Created new wallet")
}

func (h *HTTPHandler) HandleDeposit(c *gin.Context) {
	principal := principalFrom(c)
	if principal == nil {
		return
	}
	var req models.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if _, err := h.wallets.Deposit(c.Request.Context(), principal, req); err != nil {
		respondServiceError(c, err)
		return
	}
	c.String(http.StatusOK, "Deposit of "+req.DepositAmount.String()+" was successful")
}

func (h *HTTPHandler) HandleGetWallet(c *gin.Context) {
	principal := principalFrom(c)
	if principal == nil {
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid wallet id")
		return
	}
	wallet, err := h.wallets.GetByID(c.Request.Context(), principal, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.WalletResponse{
		ID:          wallet.ID,
		UserID:      wallet.UserID,
		Currency:    wallet.Currency,
		Balance:     wallet.Balance,
		CreatedDate: wallet.CreateTime,
	})
}

func (h *HTTPHandler) HandleTransfer(c *gin.Context) {
	principal := principalFrom(c)
	if principal == nil {
		return
	}
	var req models.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	resp, err := h.transfers.Transfer(c.Request.Context(), principal, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *HTTPHandler) HandleTransferHistory(c *gin.Context) {
	var cursor *int64
	if raw := c.Query("cursor"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid cursor")
			return
		}
		cursor = &v
	}
	limit := defaultHistoryPageSize
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			respondError(c, http.StatusBadRequest, "invalid limit")
			return
		}
		if v > maxHistoryPageSize {
			v = maxHistoryPageSize
		}
		limit = v
	}

	resp, err := h.transfers.History(c.Request.Context(), cursor, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, models.ErrorResponse{
		Timestamp: time.Now(),
		Status:    status,
		Message:   message,
	})
}

func respondServiceError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrUserExists):
		status = http.StatusConflict
	case errors.Is(err, service.ErrBadCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, repository.ErrWalletNotFound), errors.Is(err, repository.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, repository.ErrInsufficientFunds),
		errors.Is(err, service.ErrCurrencyMismatch),
		errors.Is(err, service.ErrInvalidAmount):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrTransferConflict):
		status = http.StatusServiceUnavailable
	}
	respondError(c, status, err.Error())
}
