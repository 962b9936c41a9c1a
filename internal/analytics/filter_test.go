package analytics

import (
	"errors"
	"net/url"
	"testing"

	"tracker/internal/core"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name    string
		params  url.Values
		want    Filter
		wantErr bool
	}{
		{name: "empty", params: url.Values{}, want: Filter{}},
		{name: "kind", params: url.Values{"type": {"income"}}, want: Filter{Kind: core.KindIncome}},
		{name: "blank kind", params: url.Values{"type": {""}}, want: Filter{}},
		{name: "bad kind", params: url.Values{"type": {"Income"}}, wantErr: true},
		{name: "padded kind", params: url.Values{"type": {" income"}}, wantErr: true},
		{name: "period", params: url.Values{"year": {"2024"}, "month": {"2"}}, want: Filter{Year: 2024, Month: 2}},
		{name: "lone year ignored", params: url.Values{"year": {"2024"}}, want: Filter{}},
		{name: "lone bad month ignored", params: url.Values{"month": {"x"}}, want: Filter{}},
		{name: "month out of range", params: url.Values{"year": {"2024"}, "month": {"13"}}, wantErr: true},
		{name: "month zero", params: url.Values{"year": {"2024"}, "month": {"0"}}, wantErr: true},
		{name: "year not int", params: url.Values{"year": {"abc"}, "month": {"1"}}, wantErr: true},
		{name: "bad date", params: url.Values{"date_from": {"2024-13-01"}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFilter(tt.params)
			if tt.wantErr {
				if !errors.Is(err, core.ErrInvalidFilter) {
					t.Fatalf("err = %v, want ErrInvalidFilter", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Kind != tt.want.Kind || got.Year != tt.want.Year || got.Month != tt.want.Month {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseFilterDates(t *testing.T) {
	f, err := ParseFilter(url.Values{"date_from": {"2024-03-01"}, "date_to": {"2024-02-01"}})
	if err != nil {
		t.Fatalf("inverted range must be accepted: %v", err)
	}
	if f.DateFrom.String() != "2024-03-01" || f.DateTo.String() != "2024-02-01" {
		t.Errorf("dates = %v %v", f.DateFrom, f.DateTo)
	}
}

func TestFilterQueryIntersectsPeriod(t *testing.T) {
	from := core.NewDate(2024, 2, 10)
	f := Filter{DateFrom: &from, Year: 2024, Month: 2}

	q := f.Query(true)
	if q.From.String() != "2024-02-10" || q.To.String() != "2024-02-29" {
		t.Errorf("period query = %v..%v", q.From, q.To)
	}

	q = f.Query(false)
	if q.From.String() != "2024-02-10" || q.To != nil {
		t.Errorf("plain query = %v..%v", q.From, q.To)
	}
}

func TestParseRangeIgnoresPeriod(t *testing.T) {
	f, err := ParseRange(url.Values{"type": {"expense"}, "year": {"x"}, "month": {"y"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Kind != core.KindExpense || f.HasPeriod() {
		t.Errorf("got %+v", f)
	}

	if _, err := ParseRange(url.Values{"type": {"expense "}}); !errors.Is(err, core.ErrInvalidFilter) {
		t.Errorf("padded type err = %v", err)
	}
}
