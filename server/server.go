// Package server exposes the dashboard engines over a JSON HTTP API.
package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tradeview/tradeview/cache"
	"github.com/tradeview/tradeview/equity"
	"github.com/tradeview/tradeview/id"
	"github.com/tradeview/tradeview/ledger"
	"github.com/tradeview/tradeview/market"
	"github.com/tradeview/tradeview/marketdata"
	"github.com/tradeview/tradeview/portfolio"
	"github.com/tradeview/tradeview/render"
	"github.com/tradeview/tradeview/sigma"
	"github.com/tradeview/tradeview/watchlist"
)

// Options carries the request-independent settings of the API.
type Options struct {
	Mode      marketdata.Mode
	Benchmark string
	// Symbols is the watchlist served when the request names none.
	Symbols []string
	Logger  *slog.Logger
}

// Server wires the ledger and the derived engines behind HTTP handlers.
// All engines share one cache; every ledger mutation clears it so the next
// read recomputes from the new history.
type Server struct {
	store ledger.Store
	gw    marketdata.Gateway
	watch *watchlist.Aggregator
	curve *equity.Builder
	memo  *cache.Cache
	opts  Options
}

// New builds a Server over the given store and gateway. memo must be the
// same cache the gateway and engines memoise into.
func New(store ledger.Store, gw marketdata.Gateway, memo *cache.Cache, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Server{
		store: store,
		gw:    gw,
		watch: watchlist.NewAggregator(gw, memo),
		curve: equity.NewBuilder(gw, memo),
		memo:  memo,
		opts:  opts,
	}
}

// Router returns the configured gin engine.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/trades", s.listTrades)
		api.POST("/trades", s.addTrade)
		api.GET("/positions", s.positions)
		api.GET("/cash", s.cash)
		api.GET("/initial-cash", s.getInitialCash)
		api.PUT("/initial-cash", s.setInitialCash)
		api.GET("/watchlist", s.watchlistTable)
		api.GET("/sigma/:symbol", s.sigmaMetrics)
		api.GET("/equity", s.equityCurve)
		api.GET("/charts/equity", s.equityChart)
		api.GET("/charts/drawdown", s.drawdownChart)
		api.GET("/charts/spark/:symbol", s.sparkChart)
		api.POST("/cache/clear", s.clearCache)
		api.POST("/reset", s.reset)
	}
	return r
}

// Run serves the API until the listener fails.
func (s *Server) Run(addr string) error {
	s.opts.Logger.Info("http server starting", "addr", addr)
	return s.Router().Run(addr)
}

func (s *Server) fail(c *gin.Context, status int, msg string, err error) {
	if err != nil {
		s.opts.Logger.Error(msg, "error", err)
	}
	c.JSON(status, gin.H{"error": msg})
}

func (s *Server) listTrades(c *gin.Context) {
	trades, err := s.store.AllTrades()
	if err != nil {
		s.fail(c, http.StatusInternalServerError, "failed to read trades", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades})
}

type tradeRequest struct {
	Symbol string          `json:"symbol"`
	Side   string          `json:"side"`
	Qty    decimal.Decimal `json:"qty"`
	Price  decimal.Decimal `json:"price"`
	Time   *time.Time      `json:"ts_utc"`
	Note   string          `json:"note"`
}

func (s *Server) addTrade(c *gin.Context) {
	var req tradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, "invalid trade payload: "+err.Error(), nil)
		return
	}

	ts := time.Now().UTC()
	if req.Time != nil {
		ts = req.Time.UTC()
	}
	trade := ledger.Trade{
		ID:     id.New(),
		Time:   ts,
		Symbol: req.Symbol,
		Side:   ledger.Side(strings.ToUpper(strings.TrimSpace(req.Side))),
		Qty:    req.Qty,
		Price:  req.Price,
		Note:   req.Note,
	}
	if err := trade.Validate(); err != nil {
		s.fail(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if err := s.store.Append(trade); err != nil {
		s.fail(c, http.StatusInternalServerError, "failed to append trade", err)
		return
	}
	s.memo.Clear()
	c.JSON(http.StatusCreated, gin.H{"trade": trade})
}

func (s *Server) positions(c *gin.Context) {
	trades, err := s.store.AllTrades()
	if err != nil {
		s.fail(c, http.StatusInternalServerError, "failed to read trades", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"positions": portfolio.Positions(trades)})
}

func (s *Server) cash(c *gin.Context) {
	trades, err := s.store.AllTrades()
	if err != nil {
		s.fail(c, http.StatusInternalServerError, "failed to read trades", err)
		return
	}
	initial, err := s.store.InitialCash()
	if err != nil {
		s.fail(c, http.StatusInternalServerError, "failed to read initial cash", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cash":         portfolio.Cash(trades, initial),
		"initial_cash": initial,
	})
}

func (s *Server) getInitialCash(c *gin.Context) {
	initial, err := s.store.InitialCash()
	if err != nil {
		s.fail(c, http.StatusInternalServerError, "failed to read initial cash", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"initial_cash": initial})
}

type initialCashRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (s *Server) setInitialCash(c *gin.Context) {
	var req initialCashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, "invalid payload: "+err.Error(), nil)
		return
	}
	if !req.Amount.IsPositive() {
		s.fail(c, http.StatusBadRequest, "amount must be positive", nil)
		return
	}
	if err := s.store.SetInitialCash(req.Amount); err != nil {
		s.fail(c, http.StatusInternalServerError, "failed to set initial cash", err)
		return
	}
	s.memo.Clear()
	c.JSON(http.StatusOK, gin.H{"initial_cash": req.Amount})
}

func (s *Server) watchlistTable(c *gin.Context) {
	symbols := s.opts.Symbols
	if q := c.Query("symbols"); q != "" {
		symbols = strings.Split(q, ",")
	}
	res := s.watch.Build(c.Request.Context(), symbols, s.opts.Mode)
	c.JSON(http.StatusOK, res)
}

// sigmaMetrics serves the sigma-analysis panel for one symbol: statistics
// over an inclusive bar range (the whole history by default) plus key
// levels and the 52-week snapshot, priced against the live quote when one
// is available.
func (s *Server) sigmaMetrics(c *gin.Context) {
	symbol := c.Param("symbol")
	period := c.DefaultQuery("period", "1y")

	frame, src := s.gw.History(c.Request.Context(), symbol, period, "1d", s.opts.Mode)
	if frame.Empty() {
		s.fail(c, http.StatusNotFound, src, nil)
		return
	}
	closes := frame.Closes()

	start, err := intQuery(c, "start", 0)
	if err != nil {
		s.fail(c, http.StatusBadRequest, "invalid start index", nil)
		return
	}
	end, err := intQuery(c, "end", closes.Len()-1)
	if err != nil {
		s.fail(c, http.StatusBadRequest, "invalid end index", nil)
		return
	}

	quote, quoteSrc := s.gw.Quote(c.Request.Context(), symbol, s.opts.Mode)

	c.JSON(http.StatusOK, gin.H{
		"symbol":       market.CleanSymbol(symbol),
		"slice":        sigma.ComputeSlice(closes, start, end, quote),
		"key_levels":   sigma.ComputeKeyLevels(frame, quote),
		"metrics_52w":  sigma.Compute52W(closes.Values, quote),
		"hist_source":  src,
		"quote_source": quoteSrc,
	})
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	v := c.Query(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func (s *Server) sparkChart(c *gin.Context) {
	frame, src := s.gw.History(c.Request.Context(), c.Param("symbol"), "1y", "1d", s.opts.Mode)
	if frame.Empty() {
		s.fail(c, http.StatusNotFound, src, nil)
		return
	}
	img, err := render.SparkPNG(frame.Tail(60).Closes().Values)
	if err != nil {
		s.fail(c, http.StatusUnprocessableEntity, err.Error(), nil)
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}

func (s *Server) buildCurve(c *gin.Context) (equity.Result, bool) {
	trades, err := s.store.AllTrades()
	if err != nil {
		s.fail(c, http.StatusInternalServerError, "failed to read trades", err)
		return equity.Result{}, false
	}
	initial, err := s.store.InitialCash()
	if err != nil {
		s.fail(c, http.StatusInternalServerError, "failed to read initial cash", err)
		return equity.Result{}, false
	}
	return s.curve.Build(c.Request.Context(), trades, initial, s.opts.Mode, s.opts.Benchmark), true
}

func (s *Server) equityCurve(c *gin.Context) {
	res, ok := s.buildCurve(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) equityChart(c *gin.Context) {
	res, ok := s.buildCurve(c)
	if !ok {
		return
	}
	img, err := render.EquityCurvePNG(res, "Portfolio equity")
	if err != nil {
		s.fail(c, http.StatusUnprocessableEntity, err.Error(), nil)
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}

func (s *Server) drawdownChart(c *gin.Context) {
	res, ok := s.buildCurve(c)
	if !ok {
		return
	}
	img, err := render.DrawdownPNG(res, "Portfolio drawdown")
	if err != nil {
		s.fail(c, http.StatusUnprocessableEntity, err.Error(), nil)
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}

func (s *Server) clearCache(c *gin.Context) {
	s.memo.Clear()
	if svc, ok := s.gw.(*marketdata.Service); ok {
		svc.ClearCache()
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

func (s *Server) reset(c *gin.Context) {
	if err := s.store.Reset(); err != nil {
		s.fail(c, http.StatusInternalServerError, "failed to reset ledger", err)
		return
	}
	s.memo.Clear()
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}
