package services

import (
	"context"
	"errors"
	"fmt"

	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/ports"
)

const msgBudgetExists = "The fields user, category, month must make a unique set."

// BudgetInput is the writable part of a budget. Month may be any day; it is
// normalised to the first of the month.
type BudgetInput struct {
	CategoryID int64
	Amount     core.Money
	Month      core.Date
}

type BudgetRepository interface {
	ports.BudgetStore
	GetCategory(ctx context.Context, id int64) (core.Category, error)
}

type BudgetService struct {
	store  BudgetRepository
	logger *log.StructuredLogger
}

func NewBudgetService(store BudgetRepository, logger *log.StructuredLogger) *BudgetService {
	return &BudgetService{store: store, logger: logger}
}

// List returns the caller's budgets, optionally for a single month.
func (s *BudgetService) List(ctx context.Context, caller int64, month *core.Date) ([]core.Budget, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	return s.store.ListBudgets(ctx, caller, month)
}

func (s *BudgetService) Get(ctx context.Context, caller, id int64) (core.Budget, error) {
	if err := requireCaller(caller); err != nil {
		return core.Budget{}, err
	}
	b, err := s.store.GetBudget(ctx, id)
	if err != nil {
		return core.Budget{}, notFound(err)
	}
	if err := canRead(caller, b.OwnerID); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

func (s *BudgetService) Create(ctx context.Context, caller int64, in BudgetInput) (core.Budget, error) {
	if err := requireCaller(caller); err != nil {
		return core.Budget{}, err
	}
	b := core.Budget{OwnerID: caller}
	if err := s.apply(ctx, &b, in); err != nil {
		return core.Budget{}, err
	}
	created, err := s.store.CreateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, conflictAs(err, msgBudgetExists)
	}
	s.logger.LogBudgetSaved(ctx, log.OpCreate, caller, created.ID, created.CategoryID, created.Month.MonthLabel())
	return created, nil
}

func (s *BudgetService) Update(ctx context.Context, caller, id int64, in BudgetInput) (core.Budget, error) {
	if err := requireCaller(caller); err != nil {
		return core.Budget{}, err
	}
	b, err := s.store.GetBudget(ctx, id)
	if err != nil {
		return core.Budget{}, notFound(err)
	}
	if err := canWrite(caller, b.OwnerID); err != nil {
		return core.Budget{}, err
	}
	if err := s.apply(ctx, &b, in); err != nil {
		return core.Budget{}, err
	}
	updated, err := s.store.UpdateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, conflictAs(notFound(err), msgBudgetExists)
	}
	s.logger.LogBudgetSaved(ctx, log.OpUpdate, caller, updated.ID, updated.CategoryID, updated.Month.MonthLabel())
	return updated, nil
}

func (s *BudgetService) Delete(ctx context.Context, caller, id int64) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	b, err := s.store.GetBudget(ctx, id)
	if err != nil {
		return notFound(err)
	}
	if err := canWrite(caller, b.OwnerID); err != nil {
		return err
	}
	return notFound(s.store.DeleteBudget(ctx, id))
}

func (s *BudgetService) apply(ctx context.Context, b *core.Budget, in BudgetInput) error {
	b.CategoryID = in.CategoryID
	b.Amount = in.Amount
	b.Month = in.Month.MonthStart()
	if err := b.Validate(); err != nil {
		return err
	}
	c, err := s.store.GetCategory(ctx, in.CategoryID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return invalidPK(in.CategoryID)
		}
		return fmt.Errorf("load category: %w", err)
	}
	if c.OwnerID != b.OwnerID {
		return invalidPK(in.CategoryID)
	}
	return nil
}
