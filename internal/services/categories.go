package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tracker/internal/core"
	"tracker/internal/ports"
)

const msgCategoryExists = "Category already exists."

// CategoryInput is the writable part of a category.
type CategoryInput struct {
	Name string
	Kind core.Kind
}

// CategoryRepository is the category store plus the transaction lookup
// needed to keep referencing transactions consistent on a kind change.
type CategoryRepository interface {
	ports.CategoryStore
	ListTransactions(ctx context.Context, ownerID int64, q core.TransactionQuery) ([]core.Transaction, error)
}

type CategoryService struct {
	store CategoryRepository
}

func NewCategoryService(store CategoryRepository) *CategoryService {
	return &CategoryService{store: store}
}

func (s *CategoryService) List(ctx context.Context, caller int64) ([]core.Category, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	return s.store.ListCategories(ctx, caller)
}

func (s *CategoryService) Get(ctx context.Context, caller, id int64) (core.Category, error) {
	if err := requireCaller(caller); err != nil {
		return core.Category{}, err
	}
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, notFound(err)
	}
	if err := canRead(caller, c.OwnerID); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

func (s *CategoryService) Create(ctx context.Context, caller int64, in CategoryInput) (core.Category, error) {
	if err := requireCaller(caller); err != nil {
		return core.Category{}, err
	}
	c := core.Category{OwnerID: caller, Name: strings.TrimSpace(in.Name), Kind: in.Kind}
	if err := s.validate(ctx, c); err != nil {
		return core.Category{}, err
	}
	created, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, conflictAs(err, msgCategoryExists)
	}
	return created, nil
}

func (s *CategoryService) Update(ctx context.Context, caller, id int64, in CategoryInput) (core.Category, error) {
	if err := requireCaller(caller); err != nil {
		return core.Category{}, err
	}
	existing, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, notFound(err)
	}
	if err := canWrite(caller, existing.OwnerID); err != nil {
		return core.Category{}, err
	}
	kindChanged := existing.Kind != in.Kind
	existing.Name = strings.TrimSpace(in.Name)
	existing.Kind = in.Kind
	if err := s.validate(ctx, existing); err != nil {
		return core.Category{}, err
	}
	if kindChanged {
		if err := s.checkUnreferenced(ctx, existing); err != nil {
			return core.Category{}, err
		}
	}
	updated, err := s.store.UpdateCategory(ctx, existing)
	if err != nil {
		return core.Category{}, conflictAs(err, msgCategoryExists)
	}
	return updated, nil
}

// Delete removes the category. Transactions keep existing with no category
// and the category's budgets are removed.
func (s *CategoryService) Delete(ctx context.Context, caller, id int64) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	existing, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return notFound(err)
	}
	if err := canWrite(caller, existing.OwnerID); err != nil {
		return err
	}
	return notFound(s.store.DeleteCategory(ctx, id))
}

// checkUnreferenced rejects a kind change while transactions still point at
// the category, since their kind would no longer match.
func (s *CategoryService) checkUnreferenced(ctx context.Context, c core.Category) error {
	id := c.ID
	txns, err := s.store.ListTransactions(ctx, c.OwnerID, core.TransactionQuery{CategoryID: &id})
	if err != nil {
		return fmt.Errorf("check category references: %w", err)
	}
	if len(txns) > 0 {
		return fmt.Errorf("%w: Transaction type must match category type.", core.ErrValidation)
	}
	return nil
}

// validate checks the fields and the per-owner uniqueness of name and kind.
func (s *CategoryService) validate(ctx context.Context, c core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	found, err := s.store.FindCategory(ctx, c.OwnerID, c.Name, c.Kind)
	switch {
	case err == nil && found.ID != c.ID:
		return fmt.Errorf("%w: %s", core.ErrValidation, msgCategoryExists)
	case err != nil && !errors.Is(err, core.ErrNotFound):
		return fmt.Errorf("check category uniqueness: %w", err)
	}
	return nil
}

// conflictAs turns a store uniqueness failure into a validation error with
// a fixed message.
func conflictAs(err error, msg string) error {
	if errors.Is(err, core.ErrConflict) {
		return fmt.Errorf("%w: %s", core.ErrValidation, msg)
	}
	return err
}

// SeedDefaultCategories get-or-creates the default income and expense
// categories for a user and returns how many were created.
func SeedDefaultCategories(ctx context.Context, store ports.CategoryStore, ownerID int64) (int, error) {
	created := 0
	for _, c := range core.DefaultCategories(ownerID) {
		_, err := store.FindCategory(ctx, ownerID, c.Name, c.Kind)
		if err == nil {
			continue
		}
		if !errors.Is(err, core.ErrNotFound) {
			return created, fmt.Errorf("seed category %q: %w", c.Name, err)
		}
		if _, err := store.CreateCategory(ctx, c); err != nil {
			if errors.Is(err, core.ErrConflict) {
				continue
			}
			return created, fmt.Errorf("seed category %q: %w", c.Name, err)
		}
		created++
	}
	return created, nil
}
