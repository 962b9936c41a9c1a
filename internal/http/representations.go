package http

import (
	"net/http"
	"strings"
	"time"

	"tracker/internal/core"
)

type (
	userResponse struct {
		ID        int64  `json:"id"`
		Username  string `json:"username"`
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}

	categoryResponse struct {
		ID   int64     `json:"id"`
		Name string    `json:"name"`
		Type core.Kind `json:"type"`
	}

	transactionResponse struct {
		ID           int64      `json:"id"`
		User         int64      `json:"user"`
		Type         core.Kind  `json:"type"`
		Category     *int64     `json:"category"`
		CategoryName *string    `json:"category_name"`
		CategoryType *core.Kind `json:"category_type"`
		Amount       core.Money `json:"amount"`
		Date         core.Date  `json:"date"`
		Note         string     `json:"note"`
		Receipt      *string    `json:"receipt"`
		CreatedAt    time.Time  `json:"created_at"`
	}

	budgetResponse struct {
		ID           int64      `json:"id"`
		User         int64      `json:"user"`
		Category     int64      `json:"category"`
		CategoryName string     `json:"category_name"`
		Amount       core.Money `json:"amount"`
		Month        core.Date  `json:"month"`
	}
)

func newUserResponse(u core.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func newCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, Type: c.Kind}
}

func newCategoryList(cs []core.Category) []categoryResponse {
	out := make([]categoryResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, newCategoryResponse(c))
	}
	return out
}

func newBudgetResponse(b core.Budget) budgetResponse {
	return budgetResponse{
		ID:           b.ID,
		User:         b.OwnerID,
		Category:     b.CategoryID,
		CategoryName: b.CategoryName,
		Amount:       b.Amount,
		Month:        b.Month,
	}
}

func newBudgetList(bs []core.Budget) []budgetResponse {
	out := make([]budgetResponse, 0, len(bs))
	for _, b := range bs {
		out = append(out, newBudgetResponse(b))
	}
	return out
}

// receiptLinker turns stored receipt references into URLs under the media
// prefix, absolute when the request is known.
type receiptLinker struct {
	mediaURL string
}

func (l receiptLinker) url(r *http.Request, ref string) *string {
	if ref == "" {
		return nil
	}
	u := l.mediaURL + strings.TrimPrefix(ref, "/")
	if r != nil && r.Host != "" && strings.HasPrefix(u, "/") {
		scheme := "http"
		if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
			scheme = "https"
		}
		u = scheme + "://" + r.Host + u
	}
	return &u
}

func (l receiptLinker) transaction(r *http.Request, t core.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:        t.ID,
		User:      t.OwnerID,
		Type:      t.Kind,
		Category:  t.CategoryID,
		Amount:    t.Amount,
		Date:      t.Date,
		Note:      t.Note,
		Receipt:   l.url(r, t.Receipt),
		CreatedAt: t.CreatedAt,
	}
	if t.CategoryID != nil {
		name, kind := t.CategoryName, t.CategoryKind
		resp.CategoryName = &name
		resp.CategoryType = &kind
	}
	return resp
}

func (l receiptLinker) transactions(r *http.Request, ts []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, l.transaction(r, t))
	}
	return out
}
