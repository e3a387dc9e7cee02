package marketdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tradeview/tradeview/market"
)

// StooqClient fetches daily bars from Stooq's CSV endpoint. It is the
// fallback provider: daily bars only, but rarely rate limited.
type StooqClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewStooqClient returns a client with the given per-request timeout.
func NewStooqClient(timeout time.Duration) *StooqClient {
	return &StooqClient{
		baseURL:    "https://stooq.com",
		httpClient: &http.Client{Timeout: timeout},
	}
}

// stooqSymbol maps a plain US ticker onto Stooq's convention (aapl.us);
// symbols that already carry an exchange suffix pass through.
func stooqSymbol(symbol string) string {
	s := strings.ToLower(symbol)
	if !strings.Contains(s, ".") {
		s += ".us"
	}
	return s
}

// Daily fetches the full daily history for symbol.
func (c *StooqClient) Daily(ctx context.Context, symbol string) (market.Frame, error) {
	u := fmt.Sprintf("%s/q/d/l/?s=%s&i=d", c.baseURL, stooqSymbol(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stooq returned %d", resp.StatusCode)
	}

	r := csv.NewReader(resp.Body)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse stooq csv: %w", err)
	}
	if len(records) < 2 {
		return nil, nil
	}
	// Header spellings vary; the normalization step maps whatever came
	// back onto the canonical OHLCV columns.
	return market.FrameFromRecords(records[0], records[1:]), nil
}
