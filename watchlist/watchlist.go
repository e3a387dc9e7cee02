// Package watchlist builds the per-symbol snapshot table: last price,
// short-horizon percent changes, 52-week distances and a sparkline series.
// Symbols are processed independently, so one bad ticker degrades to an
// error row instead of sinking the whole table.
package watchlist

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tradeview/tradeview/cache"
	"github.com/tradeview/tradeview/market"
	"github.com/tradeview/tradeview/marketdata"
	"github.com/tradeview/tradeview/sigma"
)

// sparkBars is how many trailing closes feed the sparkline.
const sparkBars = 60

// Row is one watchlist line. Percent fields are expressed in percent
// (already multiplied by 100); sigma distances are unitless multiples.
// A field is nil when its inputs were unavailable.
type Row struct {
	Symbol      string    `json:"symbol"`
	Last        *float64  `json:"last"`
	Change1D    *float64  `json:"chg_1d_pct"`
	Change1W    *float64  `json:"chg_1w_pct"`
	Change1M    *float64  `json:"chg_1m_pct"`
	Volume      *float64  `json:"volume"`
	AvgVolume20 *float64  `json:"avg_volume_20"`
	High52W     *float64  `json:"high_52w"`
	Low52W      *float64  `json:"low_52w"`
	PctFromHigh *float64  `json:"pct_from_52w_high"`
	PctFromLow  *float64  `json:"pct_from_52w_low"`
	SigmaToHigh *float64  `json:"sigma_to_52w_high"`
	SigmaToLow  *float64  `json:"sigma_to_52w_low"`
	RangePos    *float64  `json:"range_pos_52w_pct"`
	SigmaPct    *float64  `json:"sigma_pct_252"`
	Spark       []float64 `json:"spark"`
	QuoteSource string    `json:"quote_source"`
	HistSource  string    `json:"hist_source"`
}

// Result is the table in input order plus the problems hit building it.
type Result struct {
	Rows   []Row    `json:"rows"`
	Errors []string `json:"errors"`
}

// Aggregator assembles watchlist tables. Results are memoised per
// (symbols, mode) for two minutes.
type Aggregator struct {
	gateway marketdata.Gateway
	memo    *cache.Cache
	ttl     time.Duration

	// OnSymbol, when set, is invoked after each symbol completes.
	OnSymbol func(symbol string)
}

// NewAggregator returns an Aggregator memoising into memo.
func NewAggregator(gw marketdata.Gateway, memo *cache.Cache) *Aggregator {
	return &Aggregator{gateway: gw, memo: memo, ttl: 2 * time.Minute}
}

// Build fetches quote and one year of daily history for every symbol
// concurrently and derives the table. Rows come back in input order;
// duplicates and blanks are dropped up front.
func (a *Aggregator) Build(ctx context.Context, symbols []string, mode marketdata.Mode) Result {
	cleaned := cleanSymbols(symbols)
	if len(cleaned) == 0 {
		return Result{}
	}

	key := fmt.Sprintf("watchlist|%s|%s", strings.Join(cleaned, ","), mode)
	if v, ok := a.memo.Get(key); ok {
		return v.(Result)
	}

	outcomes := make([]rowOutcome, len(cleaned))
	var wg sync.WaitGroup
	for i, sym := range cleaned {
		wg.Add(1)
		go func(i int, sym string) {
			defer wg.Done()
			outcomes[i] = a.buildRow(ctx, sym, mode)
			if a.OnSymbol != nil {
				a.OnSymbol(sym)
			}
		}(i, sym)
	}
	wg.Wait()

	var res Result
	for _, o := range outcomes {
		res.Rows = append(res.Rows, o.row)
		if o.err != "" {
			res.Errors = append(res.Errors, o.err)
		}
	}
	a.memo.Set(key, res, a.ttl)
	return res
}

type rowOutcome struct {
	row Row
	err string
}

func (a *Aggregator) buildRow(ctx context.Context, sym string, mode marketdata.Mode) (o rowOutcome) {
	quote, quoteSrc := a.gateway.Quote(ctx, sym, mode)
	frame, histSrc := a.gateway.History(ctx, sym, "1y", "1d", mode)

	row := Row{Symbol: sym, Last: quote, QuoteSource: quoteSrc, HistSource: histSrc}
	if frame.Empty() {
		o.row = row
		o.err = fmt.Sprintf("%s: no daily Close history returned (%s).", sym, histSrc)
		return o
	}

	closes := frame.Closes().Values
	if row.Last == nil {
		last := closes[len(closes)-1]
		row.Last = &last
	}

	row.Change1D = asPct(sigma.PctChange(closes, 1))
	row.Change1W = asPct(sigma.PctChange(closes, 5))
	row.Change1M = asPct(sigma.PctChange(closes, 21))

	m := sigma.Compute52W(closes, row.Last)
	row.High52W = m.High
	row.Low52W = m.Low
	row.PctFromHigh = asPct(m.PctFromHigh)
	row.PctFromLow = asPct(m.PctFromLow)
	row.SigmaToHigh = m.SigmaToHigh
	row.SigmaToLow = m.SigmaToLow
	row.RangePos = asPct(m.RangePos)
	row.SigmaPct = asPct(m.SigmaPct)

	vols := frame.Volumes()
	if len(vols) > 0 {
		last := vols[len(vols)-1]
		row.Volume = &last
		if len(vols) >= 20 {
			avg := meanOf(vols[len(vols)-20:])
			row.AvgVolume20 = &avg
		}
	}

	spark := closes
	if len(spark) > sparkBars {
		spark = spark[len(spark)-sparkBars:]
	}
	row.Spark = append([]float64(nil), spark...)

	o.row = row
	return o
}

// asPct converts a fractional change to percent, preserving nil.
func asPct(v *float64) *float64 {
	if v == nil {
		return nil
	}
	p := *v * 100
	return &p
}

func meanOf(vs []float64) float64 {
	sum := 0.0
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

// cleanSymbols uppercases, trims and dedupes while preserving input order.
func cleanSymbols(symbols []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, s := range symbols {
		c := market.CleanSymbol(s)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
