package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"tracker/internal/auth"
	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/ports"
)

const maxUsernameLen = 150

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// RegisterInput is the sign-up form. Password2 must repeat Password.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	Password2 string
	FirstName string
	LastName  string
}

type AccountRepository interface {
	ports.UserStore
	ports.CategoryStore
}

// AccountService handles registration and credential checks. New accounts
// are seeded with the default categories.
type AccountService struct {
	store  AccountRepository
	logger *log.StructuredLogger
}

func NewAccountService(store AccountRepository, logger *log.StructuredLogger) *AccountService {
	return &AccountService{store: store, logger: logger}
}

func (s *AccountService) Register(ctx context.Context, in RegisterInput) (core.User, error) {
	u := core.User{
		Username:  strings.TrimSpace(in.Username),
		Email:     strings.TrimSpace(in.Email),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
	}
	if err := validateRegistration(u, in); err != nil {
		return core.User{}, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return core.User{}, err
	}
	u.PasswordHash = hash

	created, err := s.store.CreateUser(ctx, u)
	if err != nil {
		return core.User{}, conflictAs(err, "A user with that username already exists.")
	}
	seeded, err := SeedDefaultCategories(ctx, s.store, created.ID)
	if err != nil {
		return core.User{}, err
	}
	s.logger.LogUserRegistered(ctx, created.ID, created.Username, seeded)
	return created, nil
}

// Authenticate returns the user matching the credentials. Unknown users and
// wrong passwords produce the same error.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (core.User, error) {
	u, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.User{}, errBadCredentials
		}
		return core.User{}, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return core.User{}, errBadCredentials
	}
	return u, nil
}

func (s *AccountService) User(ctx context.Context, id int64) (core.User, error) {
	if err := requireCaller(id); err != nil {
		return core.User{}, err
	}
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return core.User{}, notFound(err)
	}
	return u, nil
}

var errBadCredentials = fmt.Errorf("%w: No active account found with the given credentials", core.ErrUnauthorized)

func validateRegistration(u core.User, in RegisterInput) error {
	switch {
	case u.Username == "":
		return fmt.Errorf("%w: username is required", core.ErrValidation)
	case len(u.Username) > maxUsernameLen:
		return fmt.Errorf("%w: Ensure username has no more than %d characters.", core.ErrValidation, maxUsernameLen)
	case !usernamePattern.MatchString(u.Username):
		return fmt.Errorf("%w: Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.", core.ErrValidation)
	}
	if u.Email != "" {
		if _, err := mail.ParseAddress(u.Email); err != nil {
			return fmt.Errorf("%w: Enter a valid email address.", core.ErrValidation)
		}
	}
	if in.Password != in.Password2 {
		return fmt.Errorf("%w: Passwords do not match.", core.ErrValidation)
	}
	if len(in.Password) < auth.MinPasswordLength {
		return fmt.Errorf("%w: This password is too short. It must contain at least %d characters.", core.ErrValidation, auth.MinPasswordLength)
	}
	return nil
}
