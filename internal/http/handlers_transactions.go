package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"tracker/internal/analytics"
	"tracker/internal/auth"
	"tracker/internal/core"
	"tracker/internal/services"
)

// receiptField is the multipart field carrying the uploaded image.
const receiptField = "receipt"

type transactionRequest struct {
	Type     string     `json:"type"`
	Category *int64     `json:"category"`
	Amount   core.Money `json:"amount"`
	Date     core.Date  `json:"date"`
	Note     string     `json:"note"`
}

func (req transactionRequest) input() services.TransactionInput {
	return services.TransactionInput{
		Kind:       core.Kind(strings.TrimSpace(req.Type)),
		CategoryID: req.Category,
		Amount:     req.Amount,
		Date:       req.Date,
		Note:       sanitizeInput(req.Note),
	}
}

// copyID detaches a prefilled reference so decoding into it cannot write
// through to the stored record.
func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

// handleListTransactions supports the type, category (name, case
// insensitive), date_from and date_to filters.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := analytics.ParseRange(r.URL.Query())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	q := f.Query(false)
	q.CategoryName = sanitizeInput(r.URL.Query().Get("category"))

	txns, err := s.deps.Transactions.List(r.Context(), auth.CallerID(r.Context()), q)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	NewJSONResponse().JSON(s.links.transactions(r, txns)).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	t, err := s.deps.Transactions.Create(r.Context(), auth.CallerID(r.Context()), req.input())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).JSON(s.links.transaction(r, t)).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	t, err := s.deps.Transactions.Get(r.Context(), auth.CallerID(r.Context()), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	NewJSONResponse().JSON(s.links.transaction(r, t)).Write(w)
}

func (s *Server) handleUpdateTransaction(partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		caller := auth.CallerID(ctx)
		id, err := PathID(r, "id")
		if err != nil {
			WriteError(w, r, err)
			return
		}

		var req transactionRequest
		if partial {
			current, err := s.deps.Transactions.Get(ctx, caller, id)
			switch {
			case err == nil:
				req = transactionRequest{
					Type:     current.Kind.String(),
					Category: copyID(current.CategoryID),
					Amount:   current.Amount,
					Date:     current.Date,
					Note:     current.Note,
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
		t, err := s.deps.Transactions.Update(ctx, caller, id, req.input())
		if err != nil {
			WriteError(w, r, err)
			return
		}
		NewJSONResponse().JSON(s.links.transaction(r, t)).Write(w)
	}
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if err := s.deps.Transactions.Delete(r.Context(), auth.CallerID(r.Context()), id); err != nil {
		WriteError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// handleUploadReceipt accepts a multipart form with the image in the
// "receipt" field. The receipt store sniffs and bounds the content.
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	limit := s.deps.MaxReceiptBytes
	if limit <= 0 {
		limit = 5 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+(1<<20))
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			WriteError(w, r, fmt.Errorf("%w: Receipt exceeds %d bytes.", core.ErrValidation, limit))
			return
		}
		WriteError(w, r, fmt.Errorf("%w: Multipart form parse error - %s", core.ErrValidation, err.Error()))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, _, err := r.FormFile(receiptField)
	if err != nil {
		WriteError(w, r, fmt.Errorf("%w: No file was submitted.", core.ErrValidation))
		return
	}
	defer file.Close()

	t, err := s.deps.Transactions.AttachReceipt(r.Context(), auth.CallerID(r.Context()), id, file)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	NewJSONResponse().JSON(s.links.transaction(r, t)).Write(w)
}
