package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"tracker/internal/auth"
	"tracker/internal/core"
	"tracker/internal/services"
)

type budgetRequest struct {
	Category int64      `json:"category"`
	Amount   core.Money `json:"amount"`
	// Month is YYYY-MM or YYYY-MM-DD.
	Month string `json:"month"`
}

func (req budgetRequest) input() (services.BudgetInput, error) {
	in := services.BudgetInput{CategoryID: req.Category, Amount: req.Amount}
	if strings.TrimSpace(req.Month) == "" {
		return in, nil
	}
	month, err := core.ParseMonth(req.Month)
	if err != nil {
		return services.BudgetInput{}, fmt.Errorf("%w: month must be in YYYY-MM or YYYY-MM-DD format", core.ErrValidation)
	}
	in.Month = month
	return in, nil
}

// handleListBudgets accepts an optional month=YYYY-MM filter.
func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	month, err := ParseMonthParam(r.URL.Query(), "month")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	budgets, err := s.deps.Budgets.List(r.Context(), auth.CallerID(r.Context()), month)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	NewJSONResponse().JSON(newBudgetList(budgets)).Write(w)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		WriteError(w, r, err)
		return
	}
	b, err := s.deps.Budgets.Create(r.Context(), auth.CallerID(r.Context()), in)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).JSON(newBudgetResponse(b)).Write(w)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	b, err := s.deps.Budgets.Get(r.Context(), auth.CallerID(r.Context()), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	NewJSONResponse().JSON(newBudgetResponse(b)).Write(w)
}

func (s *Server) handleUpdateBudget(partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		caller := auth.CallerID(ctx)
		id, err := PathID(r, "id")
		if err != nil {
			WriteError(w, r, err)
			return
		}

		var req budgetRequest
		if partial {
			current, err := s.deps.Budgets.Get(ctx, caller, id)
			switch {
			case err == nil:
				req = budgetRequest{
					Category: current.CategoryID,
					Amount:   current.Amount,
					Month:    current.Month.String(),
				}
			case !errors.Is(err, core.ErrNotFound):
				WriteError(w, r, err)
				return
			}
		}
		if err := DecodeJSON(w, r, &req); err != nil {
			WriteError(w, r, err)
			return
		}
		in, err := req.input()
		if err != nil {
			WriteError(w, r, err)
			return
		}
		b, err := s.deps.Budgets.Update(ctx, caller, id, in)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		NewJSONResponse().JSON(newBudgetResponse(b)).Write(w)
	}
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if err := s.deps.Budgets.Delete(r.Context(), auth.CallerID(r.Context()), id); err != nil {
		WriteError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
