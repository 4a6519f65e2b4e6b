package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Authenticator extracts and validates the caller identity for a resolution
// request from a plain HTTP bearer token.
type Authenticator interface {
	Authenticate(r *http.Request) (actor string, err error)
}

var (
	errMissingToken = errors.New("wfapprovald: missing bearer token")
	errInvalidToken = errors.New("wfapprovald: invalid bearer token")
	errExpiredToken = errors.New("wfapprovald: bearer token has expired")
)

// JWTAuth validates HS256 bearer tokens carrying a "sub" or "actor" claim
// naming the external approver/reviewer.
type JWTAuth struct {
	secretKey []byte
}

// NewJWTAuth constructs a JWTAuth validating tokens signed with secretKey.
func NewJWTAuth(secretKey string) *JWTAuth {
	return &JWTAuth{secretKey: []byte(secretKey)}
}

type approverClaims struct {
	Actor string `json:"actor"`
	jwt.RegisteredClaims
}

func (a *JWTAuth) Authenticate(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", errMissingToken
	}
	tokenString := strings.TrimPrefix(header, "Bearer ")

	token, err := jwt.ParseWithClaims(tokenString, &approverClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return a.secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", errExpiredToken
		}
		return "", errInvalidToken
	}

	claims, ok := token.Claims.(*approverClaims)
	if !ok || !token.Valid {
		return "", errInvalidToken
	}

	actor := claims.Actor
	if actor == "" {
		actor = claims.Subject
	}
	if actor == "" {
		return "", errInvalidToken
	}
	return actor, nil
}

// NoAuth allows every request, naming the caller from an "actor" query
// parameter or "anonymous". For local development only.
type NoAuth struct{}

func (NoAuth) Authenticate(r *http.Request) (string, error) {
	if actor := r.URL.Query().Get("actor"); actor != "" {
		return actor, nil
	}
	return "anonymous", nil
}
