package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/brokerdesk/api/internal/currency"
	apierrors "github.com/stwalsh4118/brokerdesk/api/internal/errors"
)

// RateProvider returns the current USD rate and whether it was cached.
type RateProvider interface {
	USD(ctx context.Context) (currency.Rate, bool, error)
}

// CurrencyHandler serves the USD exchange rate.
type CurrencyHandler struct {
	rates RateProvider
}

// NewCurrencyHandler creates a new CurrencyHandler instance.
func NewCurrencyHandler(rates RateProvider) *CurrencyHandler {
	return &CurrencyHandler{rates: rates}
}

// RateResponse is the exchange rate payload.
type RateResponse struct {
	FetchedAt time.Time       `json:"fetched_at"`
	Rate      decimal.Decimal `json:"rate"`
	Source    string          `json:"source"`
	Cached    bool            `json:"cached"`
}

// USD handles GET /api/v1/currency/usd.
func (h *CurrencyHandler) USD(c *gin.Context) {
	rate, cached, err := h.rates.USD(c.Request.Context())
	if err != nil {
		if errors.Is(err, currency.ErrUpstream) {
			apierrors.UpstreamError(c, "Exchange rate source unavailable", err)
			return
		}
		apierrors.InternalServerError(c, "Failed to load exchange rate", err)
		return
	}

	c.JSON(http.StatusOK, RateResponse{
		Rate:      rate.Value,
		Source:    rate.Source,
		FetchedAt: rate.FetchedAt,
		Cached:    cached,
	})
}
