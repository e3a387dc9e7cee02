package market

// Period tokens follow the Yahoo convention. The day counts are approximate
// and used only for bucket comparisons, never for exact date arithmetic.
var periodDays = map[string]int{
	"1d":  1,
	"5d":  5,
	"1mo": 30,
	"3mo": 90,
	"6mo": 180,
	"1y":  365,
	"2y":  730,
	"5y":  1825,
	"10y": 3650,
	"max": 3650,
}

// PeriodDays returns the approximate day count for a period token,
// defaulting to one year for unrecognized tokens.
func PeriodDays(period string) int {
	if d, ok := periodDays[period]; ok {
		return d
	}
	return 365
}

// DaysToPeriod maps a window length in days onto the coarse lookback bucket
// used to bound history fetches.
func DaysToPeriod(days int) string {
	switch {
	case days <= 5:
		return "5d"
	case days <= 30:
		return "1mo"
	case days <= 180:
		return "6mo"
	case days <= 365:
		return "1y"
	case days <= 730:
		return "2y"
	case days <= 1825:
		return "5y"
	}
	return "10y"
}

// Intraday interval limits. Providers cap how far back each intraday
// interval can reach; requests beyond the cap are clamped.
var intradayMaxPeriod = map[string]string{
	"1m":  "7d",
	"2m":  "60d",
	"5m":  "60d",
	"15m": "60d",
	"30m": "60d",
	"60m": "60d",
	"90m": "60d",
	"1h":  "730d",
}

// Non-standard period tokens that only appear as intraday caps.
var capDays = map[string]int{
	"7d":   7,
	"60d":  60,
	"730d": 730,
}

// IsIntraday reports whether the interval is an intraday granularity.
func IsIntraday(interval string) bool {
	_, ok := intradayMaxPeriod[interval]
	return ok
}

// ClampIntraday bounds a requested period to the maximum lookback the
// provider supports for the given intraday interval.
func ClampIntraday(period, interval string) string {
	limit, ok := intradayMaxPeriod[interval]
	if !ok {
		return period
	}
	limitDays, ok := capDays[limit]
	if !ok {
		limitDays = PeriodDays(limit)
	}
	if PeriodDays(period) <= limitDays {
		return period
	}
	return limit
}
