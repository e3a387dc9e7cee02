// Package equity reconstructs the daily portfolio valuation time series
// from the trade ledger and per-symbol daily closes: cash, holdings value,
// equity, a buy-and-hold benchmark line, and drawdown. Symbols whose price
// history cannot be fetched are excluded from valuation without aborting
// the rest of the computation.
package equity

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradeview/tradeview/cache"
	"github.com/tradeview/tradeview/ledger"
	"github.com/tradeview/tradeview/market"
	"github.com/tradeview/tradeview/marketdata"
)

// DefaultBenchmark is the reference buy-and-hold symbol.
const DefaultBenchmark = "SPY"

// Point is one day of portfolio valuation. Equity = Cash + Holdings.
// Benchmark is nil before the benchmark's first known price (or throughout,
// when it has no data). Drawdown is ≤ 0 and exactly 0 at a new running high.
type Point struct {
	Date      time.Time `json:"date"`
	Cash      float64   `json:"cash"`
	Holdings  float64   `json:"holdings"`
	Equity    float64   `json:"equity"`
	Benchmark *float64  `json:"benchmark"`
	Drawdown  float64   `json:"drawdown"`
}

// Result is the reconstructed curve plus the per-symbol problems hit while
// building it and a display label for the data sources used.
type Result struct {
	Points []Point  `json:"points"`
	Errors []string `json:"errors"`
	Source string   `json:"source"`
}

// Builder reconstructs equity curves. Results are memoised under a
// value-key of the trades snapshot, so the same ledger state never fetches
// twice within the TTL.
type Builder struct {
	gateway marketdata.Gateway
	memo    *cache.Cache
	ttl     time.Duration
	now     func() time.Time

	// OnSymbol, when set, is invoked after each symbol's history fetch
	// completes. Used for CLI progress reporting.
	OnSymbol func(symbol string)
}

// NewBuilder returns a Builder memoising into memo for two minutes.
func NewBuilder(gw marketdata.Gateway, memo *cache.Cache) *Builder {
	return &Builder{
		gateway: gw,
		memo:    memo,
		ttl:     2 * time.Minute,
		now:     time.Now,
	}
}

// normTrade is a ledger row reduced to what the curve needs.
type normTrade struct {
	date      time.Time
	symbol    string
	signedQty float64
	cashFlow  float64
}

// normalize validates and flattens the snapshot. Rows that fail
// normalization are excluded and counted; dropped > 0 is reported as one
// aggregate error by the caller.
func normalize(trades []ledger.Trade) (rows []normTrade, dropped int) {
	for _, t := range trades {
		sym := market.CleanSymbol(t.Symbol)
		side := ledger.Side(strings.ToUpper(strings.TrimSpace(string(t.Side))))
		if t.Time.IsZero() || sym == "" || (side != ledger.Buy && side != ledger.Sell) || !t.Qty.IsPositive() {
			dropped++
			continue
		}
		nt := ledger.Trade{Time: t.Time, Symbol: sym, Side: side, Qty: t.Qty, Price: t.Price}
		rows = append(rows, normTrade{
			date:      market.DateOf(t.Time),
			symbol:    sym,
			signedQty: nt.SignedQty().InexactFloat64(),
			cashFlow:  nt.CashFlow().InexactFloat64(),
		})
	}
	return rows, dropped
}

// snapshotKey is a value-key over the full cache tuple: trades, initial
// cash, provider mode and benchmark.
func snapshotKey(trades []ledger.Trade, initialCash decimal.Decimal, mode marketdata.Mode, benchmark string) string {
	h := fnv.New64a()
	for _, t := range trades {
		fmt.Fprintf(h, "%s|%d|%s|%s|%s|%s;",
			t.ID, t.Time.UnixNano(), t.Symbol, t.Side, t.Qty, t.Price)
	}
	return fmt.Sprintf("equity|%x|%s|%s|%s", h.Sum64(), initialCash, mode, benchmark)
}

// Build reconstructs the daily curve for the given ledger snapshot.
func (b *Builder) Build(ctx context.Context, trades []ledger.Trade, initialCash decimal.Decimal, mode marketdata.Mode, benchmark string) Result {
	if len(trades) == 0 {
		return Result{Source: "No trades"}
	}
	if market.CleanSymbol(benchmark) == "" {
		benchmark = DefaultBenchmark
	}
	benchmark = market.CleanSymbol(benchmark)

	key := snapshotKey(trades, initialCash, mode, benchmark)
	if v, ok := b.memo.Get(key); ok {
		return v.(Result)
	}

	res := b.build(ctx, trades, initialCash, mode, benchmark)
	b.memo.Set(key, res, b.ttl)
	return res
}

func (b *Builder) build(ctx context.Context, trades []ledger.Trade, initialCash decimal.Decimal, mode marketdata.Mode, benchmark string) Result {
	var errs []string

	rows, dropped := normalize(trades)
	if dropped > 0 {
		errs = append(errs, fmt.Sprintf("%d trade row(s) failed normalization and were excluded", dropped))
	}
	if len(rows) == 0 {
		return Result{Errors: errs, Source: "No usable trades"}
	}

	// Window length decides how much history to pull.
	earliest := rows[0].date
	for _, r := range rows {
		if r.date.Before(earliest) {
			earliest = r.date
		}
	}
	days := int(market.DateOf(b.now()).Sub(earliest).Hours()/24) + 1
	if days < 5 {
		days = 5
	}
	period := market.DaysToPeriod(days)

	traded := distinctSymbols(rows)
	fetchList := traded
	if !contains(fetchList, benchmark) {
		fetchList = append(append([]string{}, traded...), benchmark)
	}

	prices, sources, fetchErrs := b.fetchAll(ctx, fetchList, period, mode)
	errs = append(errs, fetchErrs...)
	if len(prices) == 0 {
		return Result{Errors: errs, Source: "No price history"}
	}

	all := make([]market.Series, 0, len(prices))
	for _, s := range prices {
		all = append(all, s)
	}
	calendar := market.UnionCalendar(all...)

	filled := make(map[string][]*float64, len(prices))
	for sym, s := range prices {
		filled[sym] = s.ForwardFill(calendar)
	}

	// End-of-day held quantity and cumulative cash per calendar date.
	// Deltas are applied as-of: a trade dated between sessions takes
	// effect on the next trading day.
	qty := make(map[string][]float64, len(traded))
	for _, sym := range traded {
		qty[sym] = cumulativeAsOf(calendar, rows, sym, func(r normTrade) float64 { return r.signedQty })
	}
	cashFlow := cumulativeAsOf(calendar, rows, "", func(r normTrade) float64 { return r.cashFlow })

	initial := initialCash.InexactFloat64()
	points := make([]Point, 0, len(calendar))
	equities := make([]float64, 0, len(calendar))
	for i, day := range calendar {
		holdings := 0.0
		for _, sym := range traded {
			price := filled[sym]
			// A day with no known price contributes nothing for that
			// symbol rather than failing the whole day.
			if price[i] == nil {
				continue
			}
			holdings += qty[sym][i] * *price[i]
		}
		cash := initial + cashFlow[i]
		eq := cash + holdings
		if math.IsNaN(eq) || math.IsInf(eq, 0) {
			continue
		}
		points = append(points, Point{Date: day, Cash: cash, Holdings: holdings, Equity: eq})
		equities = append(equities, eq)
	}

	attachBenchmark(points, calendar, filled[benchmark], initial)

	for i, dd := range drawdowns(equities) {
		points[i].Drawdown = dd
	}

	return Result{Points: points, Errors: errs, Source: sourceLabel(sources)}
}

// fetchAll pulls each symbol's daily close history independently; one
// symbol's failure only produces an error entry.
func (b *Builder) fetchAll(ctx context.Context, symbols []string, period string, mode marketdata.Mode) (map[string]market.Series, []string, []string) {
	type fetched struct {
		sym    string
		series market.Series
		source string
		err    string
	}

	results := make([]fetched, len(symbols))
	var wg sync.WaitGroup
	for i, sym := range symbols {
		wg.Add(1)
		go func(i int, sym string) {
			defer wg.Done()
			frame, src := b.gateway.History(ctx, sym, period, "1d", mode)
			f := fetched{sym: sym, source: src}
			if frame.Empty() {
				f.err = fmt.Sprintf("%s: missing daily Close history (%s).", sym, src)
			} else {
				f.series = frame.Closes()
			}
			results[i] = f
			if b.OnSymbol != nil {
				b.OnSymbol(sym)
			}
		}(i, sym)
	}
	wg.Wait()

	prices := make(map[string]market.Series)
	var sources, errs []string
	for _, r := range results {
		sources = append(sources, r.source)
		if r.err != "" {
			errs = append(errs, r.err)
			continue
		}
		prices[r.sym] = r.series
	}
	return prices, sources, errs
}

// cumulativeAsOf aggregates f(row) by trade date (optionally filtered to
// one symbol) and returns the running total as of each calendar day.
func cumulativeAsOf(calendar []time.Time, rows []normTrade, symbol string, f func(normTrade) float64) []float64 {
	byDate := make(map[time.Time]float64)
	for _, r := range rows {
		if symbol != "" && r.symbol != symbol {
			continue
		}
		byDate[r.date] += f(r)
	}
	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	out := make([]float64, len(calendar))
	cum, di := 0.0, 0
	for i, day := range calendar {
		for di < len(dates) && !dates[di].After(day) {
			cum += byDate[dates[di]]
			di++
		}
		out[i] = cum
	}
	return out
}

// attachBenchmark fills Point.Benchmark with the buy-and-hold reference:
// the benchmark's forward-filled close normalized so its first known value
// maps to the initial cash.
func attachBenchmark(points []Point, calendar []time.Time, bench []*float64, initial float64) {
	if bench == nil {
		return
	}
	var base *float64
	for _, v := range bench {
		if v != nil {
			base = v
			break
		}
	}
	if base == nil || math.Abs(*base) < 1e-12 {
		return
	}

	byDate := make(map[time.Time]*float64, len(calendar))
	for i, day := range calendar {
		if bench[i] == nil {
			continue
		}
		v := *bench[i] / *base * initial
		byDate[day] = &v
	}
	for i := range points {
		points[i].Benchmark = byDate[points[i].Date]
	}
}

// drawdowns returns equity/runningMax - 1 per point.
func drawdowns(equities []float64) []float64 {
	out := make([]float64, len(equities))
	runMax := math.Inf(-1)
	for i, eq := range equities {
		if eq > runMax {
			runMax = eq
		}
		if math.Abs(runMax) < 1e-12 {
			out[i] = 0
			continue
		}
		out[i] = eq/runMax - 1.0
	}
	return out
}

func sourceLabel(sources []string) string {
	seen := make(map[string]struct{})
	var distinct []string
	for _, s := range sources {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		distinct = append(distinct, s)
	}
	if len(distinct) == 0 {
		return "Unknown"
	}
	sort.Strings(distinct)
	return strings.Join(distinct, " / ")
}

func distinctSymbols(rows []normTrade) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rows {
		if _, ok := seen[r.symbol]; ok {
			continue
		}
		seen[r.symbol] = struct{}{}
		out = append(out, r.symbol)
	}
	sort.Strings(out)
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
