package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tradeview/tradeview/market"
)

// yahooHosts are tried in order; the second host regularly survives rate
// limiting on the first.
var yahooHosts = []string{"query1.finance.yahoo.com", "query2.finance.yahoo.com"}

const yahooUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15"

// YahooClient fetches bars and quotes from the Yahoo v8 chart API.
type YahooClient struct {
	hosts      []string
	httpClient *http.Client
}

// NewYahooClient returns a client with the given per-request timeout.
func NewYahooClient(timeout time.Duration) *YahooClient {
	return &YahooClient{
		hosts:      yahooHosts,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type yahooChartResp struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"chart"`
}

func (c *YahooClient) fetchChart(ctx context.Context, symbol, period, interval string) (yahooChartResp, error) {
	var resp yahooChartResp
	var lastErr error
	for _, host := range c.hosts {
		q := url.Values{}
		q.Set("range", period)
		q.Set("interval", interval)
		q.Set("includePrePost", "false")
		u := fmt.Sprintf("https://%s/v8/finance/chart/%s?%s", host, url.PathEscape(symbol), q.Encode())

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return resp, err
		}
		req.Header.Set("User-Agent", yahooUserAgent)
		req.Header.Set("Accept", "application/json")

		httpResp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, readErr := io.ReadAll(httpResp.Body)
		httpResp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("read yahoo response: %w", readErr)
			continue
		}
		if httpResp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("yahoo %s returned %d", host, httpResp.StatusCode)
			continue
		}
		if strings.HasPrefix(string(body), "<") {
			lastErr = fmt.Errorf("yahoo %s returned non-json body", host)
			continue
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			lastErr = fmt.Errorf("parse yahoo json: %w", err)
			continue
		}
		return resp, nil
	}
	return resp, lastErr
}

// History fetches bars for the given period token and interval. The period
// is passed through untouched; clamping is the Service's job.
func (c *YahooClient) History(ctx context.Context, symbol, period, interval string) (market.Frame, error) {
	resp, err := c.fetchChart(ctx, symbol, period, interval)
	if err != nil {
		return nil, err
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}
	r := resp.Chart.Result[0]
	q := r.Indicators.Quote[0]

	var f market.Frame
	for i, ts := range r.Timestamp {
		if i >= len(q.Close) || q.Close[i] == nil {
			continue
		}
		b := market.Bar{
			Date:  market.DateOf(time.Unix(ts, 0)),
			Close: *q.Close[i],
		}
		if i < len(q.Open) && q.Open[i] != nil {
			b.Open = *q.Open[i]
		} else {
			b.Open = b.Close
		}
		if i < len(q.High) && q.High[i] != nil {
			b.High = *q.High[i]
		} else {
			b.High = b.Close
		}
		if i < len(q.Low) && q.Low[i] != nil {
			b.Low = *q.Low[i]
		} else {
			b.Low = b.Close
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			v := *q.Volume[i]
			b.Volume = &v
		}
		f = append(f, b)
	}
	return f.Normalize(), nil
}

// Quote fetches the last traded price: the chart meta price when present,
// otherwise the final intraday close of the current session.
func (c *YahooClient) Quote(ctx context.Context, symbol string) (*float64, error) {
	resp, err := c.fetchChart(ctx, symbol, "1d", "5m")
	if err != nil {
		return nil, err
	}
	if len(resp.Chart.Result) == 0 {
		return nil, nil
	}
	r := resp.Chart.Result[0]
	if r.Meta.RegularMarketPrice != nil {
		v := *r.Meta.RegularMarketPrice
		return &v, nil
	}
	if len(r.Indicators.Quote) > 0 {
		closes := r.Indicators.Quote[0].Close
		for i := len(closes) - 1; i >= 0; i-- {
			if closes[i] != nil {
				v := *closes[i]
				return &v, nil
			}
		}
	}
	return nil, nil
}
