package analytics

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"tracker/internal/core"
)

// Filter is the normalised form of the analytics query parameters. Absent
// dimensions are zero values and do not restrict the result.
type Filter struct {
	Kind     core.Kind
	DateFrom *core.Date
	DateTo   *core.Date
	// Year and Month are both set or both zero.
	Year  int
	Month int
}

// HasPeriod reports whether an explicit calendar month was requested.
func (f Filter) HasPeriod() bool {
	return f.Year != 0 && f.Month != 0
}

// ParseFilter validates the raw parameters type, date_from, date_to, year and
// month. Empty values count as absent. Year and month are only read when both
// are present; a lone one is ignored.
func ParseFilter(params url.Values) (Filter, error) {
	f, err := ParseRange(params)
	if err != nil {
		return Filter{}, err
	}

	rawYear := strings.TrimSpace(params.Get("year"))
	rawMonth := strings.TrimSpace(params.Get("month"))
	if rawYear != "" && rawMonth != "" {
		year, yerr := strconv.Atoi(rawYear)
		month, merr := strconv.Atoi(rawMonth)
		if yerr != nil || merr != nil || year < 1 || year > 9999 || month < 1 || month > 12 {
			return Filter{}, fmt.Errorf("%w: Invalid year/month", core.ErrInvalidFilter)
		}
		f.Year, f.Month = year, month
	}
	return f, nil
}

// ParseRange reads only type, date_from and date_to. The type must be
// exactly "income" or "expense".
func ParseRange(params url.Values) (Filter, error) {
	var f Filter

	if raw := params.Get("type"); raw != "" {
		k := core.Kind(raw)
		if !k.Valid() {
			return Filter{}, fmt.Errorf("%w: type must be %q or %q", core.ErrInvalidFilter, core.KindIncome, core.KindExpense)
		}
		f.Kind = k
	}

	for _, p := range []struct {
		name string
		dst  **core.Date
	}{
		{"date_from", &f.DateFrom},
		{"date_to", &f.DateTo},
	} {
		raw := strings.TrimSpace(params.Get(p.name))
		if raw == "" {
			continue
		}
		d, err := core.ParseDate(raw)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: %s must be a date in YYYY-MM-DD format", core.ErrInvalidFilter, p.name)
		}
		*p.dst = &d
	}
	return f, nil
}

// Period returns the first and last day of the requested month.
func (f Filter) Period() (start, end core.Date) {
	start = core.NewDate(f.Year, timeMonth(f.Month), 1)
	return start, start.MonthEnd()
}

// Query converts the filter into store predicates. When withPeriod is set and
// a month was requested, the date range is narrowed to that month.
func (f Filter) Query(withPeriod bool) core.TransactionQuery {
	q := core.TransactionQuery{Kind: f.Kind, From: f.DateFrom, To: f.DateTo}
	if withPeriod && f.HasPeriod() {
		start, end := f.Period()
		if q.From == nil || q.From.Before(start) {
			q.From = &start
		}
		if q.To == nil || q.To.After(end) {
			q.To = &end
		}
	}
	return q
}
