package http

import (
	"fmt"
	"net/http"
	"strings"

	"tracker/internal/auth"
	"tracker/internal/core"
	"tracker/internal/services"
)

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type accessResponse struct {
	Access string `json:"access"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	user, err := s.deps.Accounts.Register(r.Context(), services.RegisterInput{
		Username:  sanitizeInput(req.Username),
		Email:     sanitizeInput(req.Email),
		Password:  req.Password,
		Password2: req.Password2,
		FirstName: sanitizeInput(req.FirstName),
		LastName:  sanitizeInput(req.LastName),
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).JSON(newUserResponse(user)).Write(w)
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		WriteError(w, r, fmt.Errorf("%w: username and password are required.", core.ErrValidation))
		return
	}
	user, err := s.deps.Accounts.Authenticate(r.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	pair, err := s.deps.Issuer.IssuePair(auth.Identity{UserID: user.ID, Username: user.Username})
	if err != nil {
		WriteError(w, r, fmt.Errorf("issue token pair: %w", err))
		return
	}
	NewJSONResponse().JSON(pair).Write(w)
}

func (s *Server) handleTokenRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Refresh) == "" {
		WriteError(w, r, fmt.Errorf("%w: refresh is required.", core.ErrValidation))
		return
	}
	access, err := s.deps.Issuer.Refresh(strings.TrimSpace(req.Refresh))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	NewJSONResponse().JSON(accessResponse{Access: access}).Write(w)
}
