package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aksjevakt/backend/internal/models"

	"go.uber.org/zap"
)

var ErrQuoteNotFound = errors.New("no quote data for symbol")

// QuoteClient returns the current market quote for a ticker symbol.
type QuoteClient interface {
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

type HTTPQuoteClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewHTTPQuoteClient(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPQuoteClient {
	return &HTTPQuoteClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type quoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol                     string  `json:"symbol"`
			RegularMarketPrice         float64 `json:"regularMarketPrice"`
			Currency                   string  `json:"currency"`
			RegularMarketChangePercent float64 `json:"regularMarketChangePercent"`
			RegularMarketTime          int64   `json:"regularMarketTime"`
		} `json:"result"`
	} `json:"quoteResponse"`
}

func (c *HTTPQuoteClient) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	endpoint := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", c.baseURL, url.QueryEscape(symbol))
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	response, err := c.client.Do(request)
	if err != nil {
		c.logger.Warn("quote request failed", zap.String("symbol", symbol), zap.Error(err))
		return nil, err
	}
	defer response.Body.Close()

	c.logger.Debug(
		"quote request complete",
		zap.String("symbol", symbol),
		zap.Int("status", response.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if response.StatusCode == http.StatusNotFound {
		return nil, ErrQuoteNotFound
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, fmt.Errorf("quote source error: status %d", response.StatusCode)
	}

	var payload quoteResponse
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return nil, err
	}

	results := payload.QuoteResponse.Result
	if len(results) == 0 || results[0].RegularMarketPrice <= 0 {
		return nil, ErrQuoteNotFound
	}

	result := results[0]
	return &models.Quote{
		Symbol:        strings.ToUpper(result.Symbol),
		Price:         result.RegularMarketPrice,
		Currency:      result.Currency,
		ChangePercent: result.RegularMarketChangePercent,
		Timestamp:     result.RegularMarketTime,
	}, nil
}
