package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mkilifi/treasury-ledger/internal/apperrors"
	"github.com/mkilifi/treasury-ledger/internal/core/domain"
	portssvc "github.com/mkilifi/treasury-ledger/internal/core/ports/services"
	"github.com/mkilifi/treasury-ledger/internal/core/services"
	"github.com/mkilifi/treasury-ledger/internal/dto"
	"github.com/mkilifi/treasury-ledger/internal/middleware"
	"github.com/mkilifi/treasury-ledger/internal/utils/pagination"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// ledgerHandler handles HTTP requests for transfers, reversals and the
// transaction log.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

func newLedgerHandler(ls portssvc.LedgerSvcFacade) *ledgerHandler {
	return &ledgerHandler{
		ledgerService: ls,
	}
}

// registerLedgerRoutes registers routes related to transfers and transactions.
func registerLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := newLedgerHandler(ledgerService)

	rg.POST("/transfers", h.createTransfer)

	transactions := rg.Group("/transactions")
	{
		transactions.GET("", h.listTransactions)
		transactions.GET("/:transactionID", h.getTransaction)
		transactions.POST("/:transactionID/reverse", h.reverseTransaction)
	}
}

// createTransfer executes a same- or cross-currency transfer.
func (h *ledgerHandler) createTransfer(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateTransfer", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	logger.Info("Received request to create transfer",
		slog.String("source_account_id", req.SourceAccountID),
		slog.String("target_account_id", req.TargetAccountID),
		slog.String("amount", req.Amount.String()))

	txn, err := h.ledgerService.Transfer(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidAccount),
			errors.Is(err, services.ErrSameAccount),
			errors.Is(err, services.ErrInvalidAmount):
			logger.Warn("Validation error creating transfer", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrInsufficientBalance):
			logger.Warn("Insufficient balance for transfer", slog.String("error", err.Error()))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to create transfer in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create transfer"})
		}
		return
	}

	logger.Info("Transfer created successfully", slog.String("transaction_id", txn.TransactionID), slog.String("status", string(txn.Status)))
	c.JSON(http.StatusCreated, dto.ToTransactionResponse(txn))
}

// reverseTransaction reverses a completed transfer exactly once.
func (h *ledgerHandler) reverseTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("transactionID")

	// The reason payload is optional; an empty body is fine.
	var req dto.ReverseRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind JSON for ReverseTransaction", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
	}

	logger = logger.With(slog.String("transaction_id", transactionID))
	logger.Info("Received request to reverse transaction")

	reversal, err := h.ledgerService.Reverse(c.Request.Context(), transactionID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTransactionNotFound):
			logger.Warn("Transaction not found for reversal")
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrAlreadyReversed), errors.Is(err, apperrors.ErrConflict):
			logger.Warn("Transaction already reversed")
			c.JSON(http.StatusConflict, gin.H{"error": services.ErrAlreadyReversed.Error()})
		case errors.Is(err, services.ErrNotCompleted), errors.Is(err, services.ErrNotReversible):
			logger.Warn("Transaction not eligible for reversal", slog.String("error", err.Error()))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrInsufficientBalanceForReversal):
			logger.Warn("Insufficient recipient balance for reversal", slog.String("error", err.Error()))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrInvalidAccount):
			logger.Warn("Reversal accounts no longer valid", slog.String("error", err.Error()))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to reverse transaction in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reverse transaction"})
		}
		return
	}

	logger.Info("Transaction reversed successfully", slog.String("reversal_transaction_id", reversal.TransactionID))
	c.JSON(http.StatusCreated, dto.ToTransactionResponse(reversal))
}

// getTransaction retrieves a single transaction by id.
func (h *ledgerHandler) getTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("transactionID")

	txn, err := h.ledgerService.GetTransaction(c.Request.Context(), transactionID)
	if err != nil {
		if errors.Is(err, services.ErrTransactionNotFound) {
			logger.Warn("Transaction not found", slog.String("transaction_id", transactionID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		} else {
			logger.Error("Failed to get transaction from service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve transaction"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// listTransactions returns the filtered transaction log, newest first, with
// token pagination.
func (h *ledgerHandler) listTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListTransactions", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	txns := h.ledgerService.ListTransactions(c.Request.Context(), params.TransactionFilter)

	// The log is newest first, so the page token names the last item of the
	// previous page by timestamp and id: resume with the record after it.
	if params.NextToken != nil && *params.NextToken != "" {
		cursorTS, cursorID, err := pagination.DecodeCursorToken(*params.NextToken)
		if err != nil {
			logger.Warn("Invalid pagination token", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid nextToken"})
			return
		}
		txns = resumeAfterCursor(txns, cursorTS, cursorID)
	}

	var nextToken *string
	if len(txns) > limit {
		last := txns[limit-1]
		token := pagination.EncodeCursorToken(last.Timestamp, last.TransactionID)
		nextToken = &token
		txns = txns[:limit]
	}

	c.JSON(http.StatusOK, dto.ListTransactionsResponse{
		Transactions: dto.ToTransactionResponses(txns),
		NextToken:    nextToken,
	})
}

// resumeAfterCursor drops the newest-first prefix already served by earlier
// pages. Entries newer than the cursor timestamp were served outright; within
// the run sharing the cursor timestamp, everything up to and including the
// cursor id was served. If the cursor id is absent from that run the whole run
// is dropped.
func resumeAfterCursor(txns []domain.Transaction, cursorTS time.Time, cursorID string) []domain.Transaction {
	start := 0
	for start < len(txns) && txns[start].Timestamp.After(cursorTS) {
		start++
	}

	tieEnd := start
	matched := -1
	for tieEnd < len(txns) && txns[tieEnd].Timestamp.Equal(cursorTS) {
		if txns[tieEnd].TransactionID == cursorID {
			matched = tieEnd
		}
		tieEnd++
	}
	if matched >= 0 {
		return txns[matched+1:]
	}
	return txns[tieEnd:]
}
