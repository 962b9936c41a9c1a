package http

import (
	"errors"
	"net/http"
	"strings"

	"tracker/internal/auth"
	"tracker/internal/core"
	"tracker/internal/services"
)

type categoryRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// input leaves kind validation to the service so that ownership is checked
// before the payload.
func (req categoryRequest) input() services.CategoryInput {
	return services.CategoryInput{
		Name: sanitizeInput(req.Name),
		Kind: core.Kind(strings.TrimSpace(req.Type)),
	}
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.deps.Categories.List(r.Context(), auth.CallerID(r.Context()))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	NewJSONResponse().JSON(newCategoryList(cats)).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	cat, err := s.deps.Categories.Create(r.Context(), auth.CallerID(r.Context()), req.input())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).JSON(newCategoryResponse(cat)).Write(w)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	cat, err := s.deps.Categories.Get(r.Context(), auth.CallerID(r.Context()), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	NewJSONResponse().JSON(newCategoryResponse(cat)).Write(w)
}

// handleUpdateCategory serves PUT and PATCH. A partial update starts from
// the stored record so omitted fields keep their value. When the record is
// not readable, Update decides between NotFound and Forbidden.
func (s *Server) handleUpdateCategory(partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		caller := auth.CallerID(ctx)
		id, err := PathID(r, "id")
		if err != nil {
			WriteError(w, r, err)
			return
		}

		var req categoryRequest
		if partial {
			current, err := s.deps.Categories.Get(ctx, caller, id)
			switch {
			case err == nil:
				req = categoryRequest{Name: current.Name, Type: current.Kind.String()}
			case !errors.Is(err, core.ErrNotFound):
				WriteError(w, r, err)
				return
			}
		}
		if err := DecodeJSON(w, r, &req); err != nil {
			WriteError(w, r, err)
			return
		}
		cat, err := s.deps.Categories.Update(ctx, caller, id, req.input())
		if err != nil {
			WriteError(w, r, err)
			return
		}
		NewJSONResponse().JSON(newCategoryResponse(cat)).Write(w)
	}
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if err := s.deps.Categories.Delete(r.Context(), auth.CallerID(r.Context()), id); err != nil {
		WriteError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
