package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/mkilifi/treasury-ledger/internal/core/ports/services"
	"github.com/mkilifi/treasury-ledger/internal/core/services"
	"github.com/mkilifi/treasury-ledger/internal/dto"
	"github.com/mkilifi/treasury-ledger/internal/middleware"
)

// accountHandler handles HTTP requests related to treasury accounts.
type accountHandler struct {
	ledgerService portssvc.LedgerReaderSvc
}

func newAccountHandler(ls portssvc.LedgerReaderSvc) *accountHandler {
	return &accountHandler{
		ledgerService: ls,
	}
}

// registerAccountRoutes registers routes related to accounts.
func registerAccountRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerReaderSvc) {
	h := newAccountHandler(ledgerService)

	accounts := rg.Group("/accounts")
	{
		accounts.GET("", h.listAccounts)
		accounts.GET("/:accountID", h.getAccount)
	}
}

// listAccounts returns all accounts with their current balances.
func (h *accountHandler) listAccounts(c *gin.Context) {
	accounts := h.ledgerService.ListAccounts(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"accounts": dto.ToAccountResponses(accounts)})
}

// getAccount retrieves a single account by id.
func (h *accountHandler) getAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("accountID")

	account, err := h.ledgerService.GetAccount(c.Request.Context(), accountID)
	if err != nil {
		if errors.Is(err, services.ErrInvalidAccount) {
			logger.Warn("Account not found", slog.String("account_id", accountID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		} else {
			logger.Error("Failed to get account from service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve account"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}
