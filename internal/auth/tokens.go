// Package auth issues and verifies the bearer tokens that identify API
// callers, and hashes account passwords.
package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"tracker/internal/core"
)

// Token types carried in the "typ" claim.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var errInvalidToken = fmt.Errorf("%w: Token is invalid or expired", core.ErrUnauthorized)

// Identity is the authenticated caller.
type Identity struct {
	UserID   int64
	Username string
}

// Pair is the response of a successful login.
type Pair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewIssuer(secret string, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// IssuePair signs a fresh access and refresh token for the user.
func (i *Issuer) IssuePair(id Identity) (Pair, error) {
	access, err := i.sign(id, TypeAccess, i.accessTTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := i.sign(id, TypeRefresh, i.refreshTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Access: access, Refresh: refresh}, nil
}

// Refresh exchanges a valid refresh token for a new access token.
func (i *Issuer) Refresh(refreshToken string) (string, error) {
	id, err := i.Verify(refreshToken, TypeRefresh)
	if err != nil {
		return "", err
	}
	return i.sign(id, TypeAccess, i.accessTTL)
}

func (i *Issuer) sign(id Identity, typ string, ttl time.Duration) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      strconv.FormatInt(id.UserID, 10),
		"username": id.Username,
		"typ":      typ,
		"jti":      uuid.NewString(),
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	})
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, nil
}

// Verify parses tokenString and checks signature, expiry and token type.
// Every failure wraps core.ErrUnauthorized.
func (i *Issuer) Verify(tokenString, wantType string) (Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrInvalidKeyType
		}
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid {
		return Identity{}, errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, errInvalidToken
	}
	if typ, _ := claims["typ"].(string); typ != wantType {
		return Identity{}, fmt.Errorf("%w: Token has wrong type", core.ErrUnauthorized)
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return Identity{}, errInvalidToken
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || userID <= 0 {
		return Identity{}, errInvalidToken
	}
	username, _ := claims["username"].(string)
	return Identity{UserID: userID, Username: username}, nil
}
