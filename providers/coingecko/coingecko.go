// Package coingecko fetches the Pi/USD rate from the CoinGecko simple price API.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const piCoinID = "pi-network"

type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// FetchPiUSD returns the current Pi price in USD. Any non-200 status,
// malformed body or non-positive price is an error.
func (c *Client) FetchPiUSD(ctx context.Context) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("ids", piCoinID)
	q.Set("vs_currencies", "usd")
	if c.APIKey != "" {
		q.Set("x_cg_demo_api_key", c.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/simple/price?"+q.Encode(), nil)
	if err != nil {
		return decimal.Zero, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("price request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read price response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Str("body", string(raw)).Msg("[COINGECKO] non-200 response")
		return decimal.Zero, fmt.Errorf("price api returned status %d", resp.StatusCode)
	}

	var result map[string]struct {
		USD decimal.Decimal `json:"usd"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return decimal.Zero, fmt.Errorf("decode error: %w", err)
	}

	entry, ok := result[piCoinID]
	if !ok || !entry.USD.IsPositive() {
		return decimal.Zero, fmt.Errorf("price api returned no usd price for %s", piCoinID)
	}
	return entry.USD, nil
}
