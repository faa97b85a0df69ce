package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/mkilifi/treasury-ledger/internal/core/domain"
	portssvc "github.com/mkilifi/treasury-ledger/internal/core/ports/services"
	"github.com/mkilifi/treasury-ledger/internal/dto"
	"github.com/mkilifi/treasury-ledger/internal/utils"
)

// rateHandler handles HTTP requests for exchange rate quotes.
type rateHandler struct {
	rateService portssvc.RateProvider
}

func newRateHandler(rs portssvc.RateProvider) *rateHandler {
	return &rateHandler{
		rateService: rs,
	}
}

// registerRateRoutes registers routes related to exchange rates.
func registerRateRoutes(rg *gin.RouterGroup, rateService portssvc.RateProvider) {
	h := newRateHandler(rateService)

	rates := rg.Group("/rates")
	{
		rates.GET("", h.getAllRates)
		rates.GET("/:from/:to", h.getRate)
	}
}

// getAllRates returns a snapshot of the full rate table.
func (h *rateHandler) getAllRates(c *gin.Context) {
	rates, lastUpdate, isLive := h.rateService.AllRates()

	resp := dto.AllRatesResponse{
		Rates:  rates,
		IsLive: isLive,
	}
	if !lastUpdate.IsZero() {
		resp.LastUpdate = &lastUpdate
	}
	c.JSON(http.StatusOK, resp)
}

// getRate returns the quote for a single currency pair.
func (h *rateHandler) getRate(c *gin.Context) {
	from := domain.Currency(c.Param("from"))
	to := domain.Currency(c.Param("to"))

	if !domain.IsSupportedCurrency(from) || !domain.IsSupportedCurrency(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported currency pair"})
		return
	}

	rate := h.rateService.Rate(from, to)
	if spreadStr := c.Query("spread"); spreadStr != "" {
		spread, err := decimal.NewFromString(spreadStr)
		if err != nil || spread.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid spread percentage"})
			return
		}
		rate = h.rateService.RateWithSpread(from, to, spread)
	}
	var lastUpdate *time.Time
	if t := h.rateService.LastUpdate(); !t.IsZero() {
		lastUpdate = &t
	}

	c.JSON(http.StatusOK, dto.RateInfo{
		From:       from,
		To:         to,
		Rate:       rate,
		Formatted:  "1 " + string(from) + " = " + utils.FormatWithSymbol(rate, to),
		IsLive:     h.rateService.IsLive(),
		LastUpdate: lastUpdate,
	})
}
