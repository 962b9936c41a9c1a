package http

import (
	"net/http"
	"strconv"

	"tracker/internal/analytics"
	"tracker/internal/auth"
	"tracker/internal/charts"
	"tracker/internal/log"
)

func (s *Server) handleMonthlyTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := s.deps.Analytics.MonthlyTotals(r.Context(), auth.CallerID(r.Context()))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	NewJSONResponse().JSON(totals).Write(w)
}

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	f, err := analytics.ParseFilter(r.URL.Query())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	summary, err := s.deps.Analytics.MonthlySummary(r.Context(), auth.CallerID(r.Context()), f)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	NewJSONResponse().JSON(summary).Write(w)
}

// handleMonthlySummaryChart draws the monthly series of the summary with the
// same filters.
func (s *Server) handleMonthlySummaryChart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	f, err := analytics.ParseFilter(r.URL.Query())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	summary, err := s.deps.Analytics.MonthlySummary(ctx, auth.CallerID(ctx), f)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	gen := s.deps.Charts
	if gen == nil {
		gen = charts.NewGenerator()
	}
	png, err := gen.MonthlySeries(summary.MonthlySeries)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	log.FromContext(ctx).DebugContext(ctx, "Chart rendered",
		log.FieldOperation, log.OpRender,
		"months", len(summary.MonthlySeries),
		"bytes", len(png))

	w.Header().Set("Content-Type", charts.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (s *Server) handleCategoryTotals(w http.ResponseWriter, r *http.Request) {
	f, err := analytics.ParseFilter(r.URL.Query())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	totals, err := s.deps.Analytics.CategoryTotals(r.Context(), auth.CallerID(r.Context()), f)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	NewJSONResponse().JSON(totals).Write(w)
}

func (s *Server) handleMonthlyByCategory(w http.ResponseWriter, r *http.Request) {
	f, err := analytics.ParseFilter(r.URL.Query())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	matrix, err := s.deps.Analytics.MonthlyByCategory(r.Context(), auth.CallerID(r.Context()), f)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	NewJSONResponse().JSON(matrix).Write(w)
}

func (s *Server) handleBudgetVsExpense(w http.ResponseWriter, r *http.Request) {
	year, err := pathInt(r, "year")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	month, err := pathInt(r, "month")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	rows, err := s.deps.Analytics.BudgetVsExpense(r.Context(), auth.CallerID(r.Context()), year, month)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	NewJSONResponse().JSON(rows).Write(w)
}
