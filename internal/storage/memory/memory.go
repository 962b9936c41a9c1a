// Package memory is an in-process implementation of the domain store, used
// by the memory backend and by tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"tracker/internal/core"
	"tracker/internal/ports"
)

var _ ports.Store = (*Store)(nil)

type Store struct {
	mu           sync.RWMutex
	nextID       int64
	users        map[int64]core.User
	categories   map[int64]core.Category
	transactions map[int64]core.Transaction
	budgets      map[int64]core.Budget
	now          func() time.Time
}

func New() *Store {
	return &Store{
		users:        make(map[int64]core.User),
		categories:   make(map[int64]core.Category),
		transactions: make(map[int64]core.Transaction),
		budgets:      make(map[int64]core.Budget),
		now:          time.Now,
	}
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error                { return nil }

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return core.User{}, fmt.Errorf("create user: %w: A user with that username already exists.", core.ErrConflict)
		}
	}
	u.ID = s.id()
	u.CreatedAt = s.now().UTC()
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id int64) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, fmt.Errorf("get user %d: %w", id, core.ErrNotFound)
	}
	return u, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return core.User{}, fmt.Errorf("get user %q: %w", username, core.ErrNotFound)
}

func (s *Store) ListUsers(_ context.Context) ([]core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// duplicateCategory reports whether another category of the same owner has
// the same case-insensitive name and kind.
func (s *Store) duplicateCategory(c core.Category) bool {
	for _, existing := range s.categories {
		if existing.ID != c.ID && existing.OwnerID == c.OwnerID && existing.Kind == c.Kind &&
			strings.EqualFold(existing.Name, c.Name) {
			return true
		}
	}
	return false
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Name = strings.TrimSpace(c.Name)
	if s.duplicateCategory(c) {
		return core.Category{}, fmt.Errorf("create category: %w: Category already exists.", core.ErrConflict)
	}
	c.ID = s.id()
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) GetCategory(_ context.Context, id int64) (core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return core.Category{}, fmt.Errorf("get category %d: %w", id, core.ErrNotFound)
	}
	return c, nil
}

func (s *Store) FindCategory(_ context.Context, ownerID int64, name string, kind core.Kind) (core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name = strings.TrimSpace(name)
	for _, c := range s.categories {
		if c.OwnerID == ownerID && c.Kind == kind && strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return core.Category{}, fmt.Errorf("find category %q: %w", name, core.ErrNotFound)
}

func (s *Store) ListCategories(_ context.Context, ownerID int64) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Category
	for _, c := range s.categories {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.categories[c.ID]
	if !ok {
		return core.Category{}, fmt.Errorf("update category %d: %w", c.ID, core.ErrNotFound)
	}
	c.OwnerID = existing.OwnerID
	c.Name = strings.TrimSpace(c.Name)
	if s.duplicateCategory(c) {
		return core.Category{}, fmt.Errorf("update category %d: %w: Category already exists.", c.ID, core.ErrConflict)
	}
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return fmt.Errorf("delete category %d: %w", id, core.ErrNotFound)
	}
	for tid, t := range s.transactions {
		if t.CategoryID != nil && *t.CategoryID == id {
			t.CategoryID = nil
			s.transactions[tid] = t
		}
	}
	for bid, b := range s.budgets {
		if b.CategoryID == id {
			delete(s.budgets, bid)
		}
	}
	delete(s.categories, id)
	return nil
}

// hydrate fills the denormalised category fields from the live category.
func (s *Store) hydrate(t core.Transaction) core.Transaction {
	t.CategoryName, t.CategoryKind = "", ""
	if t.CategoryID != nil {
		if c, ok := s.categories[*t.CategoryID]; ok {
			t.CategoryName = c.Name
			t.CategoryKind = c.Kind
		}
	}
	return t
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.CategoryID != nil {
		if _, ok := s.categories[*t.CategoryID]; !ok {
			return core.Transaction{}, fmt.Errorf("create transaction: category %d: %w", *t.CategoryID, core.ErrNotFound)
		}
	}
	t.ID = s.id()
	t.CreatedAt = s.now().UTC()
	s.transactions[t.ID] = t
	return s.hydrate(t), nil
}

func (s *Store) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[id]
	if !ok {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, core.ErrNotFound)
	}
	return s.hydrate(t), nil
}

// matches applies q, including the case-insensitive category name filter
// that needs the category table.
func (s *Store) matches(ownerID int64, q core.TransactionQuery, t core.Transaction) bool {
	if t.OwnerID != ownerID || !q.Matches(t) {
		return false
	}
	if name := strings.TrimSpace(q.CategoryName); name != "" {
		if t.CategoryID == nil {
			return false
		}
		c, ok := s.categories[*t.CategoryID]
		if !ok || !strings.EqualFold(c.Name, name) {
			return false
		}
	}
	return true
}

func (s *Store) ListTransactions(_ context.Context, ownerID int64, q core.TransactionQuery) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Transaction
	for _, t := range s.transactions {
		if s.matches(ownerID, q, t) {
			out = append(out, s.hydrate(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.After(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return out, nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.transactions[t.ID]
	if !ok {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", t.ID, core.ErrNotFound)
	}
	if t.CategoryID != nil {
		if _, ok := s.categories[*t.CategoryID]; !ok {
			return core.Transaction{}, fmt.Errorf("update transaction %d: category %d: %w", t.ID, *t.CategoryID, core.ErrNotFound)
		}
	}
	t.OwnerID = existing.OwnerID
	t.CreatedAt = existing.CreatedAt
	s.transactions[t.ID] = t
	return s.hydrate(t), nil
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[id]; !ok {
		return fmt.Errorf("delete transaction %d: %w", id, core.ErrNotFound)
	}
	delete(s.transactions, id)
	return nil
}

func (s *Store) duplicateBudget(b core.Budget) bool {
	for _, existing := range s.budgets {
		if existing.ID != b.ID && existing.OwnerID == b.OwnerID && existing.CategoryID == b.CategoryID &&
			existing.Month.Equal(b.Month.Time) {
			return true
		}
	}
	return false
}

func (s *Store) withCategoryName(b core.Budget) core.Budget {
	if c, ok := s.categories[b.CategoryID]; ok {
		b.CategoryName = c.Name
	}
	return b
}

func (s *Store) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[b.CategoryID]; !ok {
		return core.Budget{}, fmt.Errorf("create budget: category %d: %w", b.CategoryID, core.ErrNotFound)
	}
	b.Month = b.Month.MonthStart()
	if s.duplicateBudget(b) {
		return core.Budget{}, fmt.Errorf("create budget: %w: A budget for this category and month already exists.", core.ErrConflict)
	}
	b.ID = s.id()
	s.budgets[b.ID] = b
	return s.withCategoryName(b), nil
}

func (s *Store) GetBudget(_ context.Context, id int64) (core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.budgets[id]
	if !ok {
		return core.Budget{}, fmt.Errorf("get budget %d: %w", id, core.ErrNotFound)
	}
	return s.withCategoryName(b), nil
}

func (s *Store) ListBudgets(_ context.Context, ownerID int64, month *core.Date) ([]core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if b.OwnerID != ownerID {
			continue
		}
		if month != nil && !b.Month.Equal(month.MonthStart().Time) {
			continue
		}
		out = append(out, s.withCategoryName(b))
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Month.Equal(b.Month.Time) {
			return a.Month.After(b.Month)
		}
		ca, cb := s.categories[a.CategoryID], s.categories[b.CategoryID]
		if ca.Kind != cb.Kind {
			return ca.Kind < cb.Kind
		}
		return ca.Name < cb.Name
	})
	return out, nil
}

func (s *Store) UpdateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.budgets[b.ID]
	if !ok {
		return core.Budget{}, fmt.Errorf("update budget %d: %w", b.ID, core.ErrNotFound)
	}
	if _, ok := s.categories[b.CategoryID]; !ok {
		return core.Budget{}, fmt.Errorf("update budget %d: category %d: %w", b.ID, b.CategoryID, core.ErrNotFound)
	}
	b.OwnerID = existing.OwnerID
	b.Month = b.Month.MonthStart()
	if s.duplicateBudget(b) {
		return core.Budget{}, fmt.Errorf("update budget %d: %w: A budget for this category and month already exists.", b.ID, core.ErrConflict)
	}
	s.budgets[b.ID] = b
	return s.withCategoryName(b), nil
}

func (s *Store) DeleteBudget(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[id]; !ok {
		return fmt.Errorf("delete budget %d: %w", id, core.ErrNotFound)
	}
	delete(s.budgets, id)
	return nil
}

type groupKey struct {
	kind     core.Kind
	category int64
	hasCat   bool
	month    string
}

// SumTransactions groups in memory with the same row order as the SQL
// store: each key ascending, uncategorized first.
func (s *Store) SumTransactions(_ context.Context, ownerID int64, q core.TransactionQuery, keys ...core.GroupKey) ([]core.GroupSum, error) {
	use := make(map[core.GroupKey]bool, len(keys))
	for _, k := range keys {
		switch k {
		case core.GroupKind, core.GroupCategory, core.GroupMonth:
		default:
			return nil, fmt.Errorf("sum transactions: unknown group key %q", k)
		}
		if use[k] {
			return nil, fmt.Errorf("sum transactions: duplicate group key %q", k)
		}
		use[k] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make(map[groupKey]*core.GroupSum)
	var order []groupKey
	for _, t := range s.transactions {
		if !s.matches(ownerID, q, t) {
			continue
		}
		var gk groupKey
		if use[core.GroupKind] {
			gk.kind = t.Kind
		}
		if use[core.GroupCategory] && t.CategoryID != nil {
			gk.category, gk.hasCat = *t.CategoryID, true
		}
		if use[core.GroupMonth] {
			gk.month = t.Date.MonthLabel()
		}
		g, ok := groups[gk]
		if !ok {
			g = &core.GroupSum{Kind: gk.kind, Month: gk.month}
			if gk.hasCat {
				id := gk.category
				g.CategoryID = &id
				g.CategoryName = s.categories[id].Name
			}
			groups[gk] = g
			order = append(order, gk)
		}
		g.Total = g.Total.Add(t.Amount)
		g.Count++
	}

	if len(keys) == 0 {
		if g, ok := groups[groupKey{}]; ok {
			return []core.GroupSum{*g}, nil
		}
		return []core.GroupSum{{}}, nil
	}

	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		for _, k := range keys {
			switch k {
			case core.GroupKind:
				if a.kind != b.kind {
					return a.kind < b.kind
				}
			case core.GroupCategory:
				if a.hasCat != b.hasCat {
					return !a.hasCat
				}
				if a.category != b.category {
					return a.category < b.category
				}
			case core.GroupMonth:
				if a.month != b.month {
					return a.month < b.month
				}
			}
		}
		return false
	})
	out := make([]core.GroupSum, 0, len(order))
	for _, gk := range order {
		out = append(out, *groups[gk])
	}
	return out, nil
}
