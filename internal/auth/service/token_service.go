package service

//go:generate mockgen -destination=../../mocks/mock_token_generator.go -package=mocks github.com/Jawa090/Rush-Management-system-sub000/internal/auth/service TokenGenerator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	autherror "github.com/Jawa090/Rush-Management-system-sub000/internal/errors"
)

type TokenGenerator interface {
	Generate(userID, email, role string) (access, refresh string, refreshExpiresAt time.Time, err error)
	VerifyAccessToken(tokenString string) (*JWTCustomClaims, error)
	VerifyRefreshToken(tokenString string) (*JWTCustomClaims, error)
}

// TokenService signs and verifies the two bearer token classes. Access and
// refresh tokens use independent secrets so that compromise of one class
// does not compromise the other; config.Validate rejects equal secrets at
// startup.
type TokenService struct {
	accessTokenSecret  []byte
	refreshTokenSecret []byte
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
	issuer             string
	audience           string
}

type JWTCustomClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

func NewTokenService(accessSecret, refreshSecret string, accessMinutes, refreshMinutes int, issuer, audience string) *TokenService {
	return &TokenService{
		accessTokenSecret:  []byte(accessSecret),
		refreshTokenSecret: []byte(refreshSecret),
		accessTokenExpiry:  time.Duration(accessMinutes) * time.Minute,
		refreshTokenExpiry: time.Duration(refreshMinutes) * time.Minute,
		issuer:             issuer,
		audience:           audience,
	}
}

// Generate issues an access/refresh pair for the subject. The returned
// time is the refresh token's expiry, which the caller persists on the
// session record.
func (ts *TokenService) Generate(userID, email, role string) (string, string, time.Time, error) {
	now := time.Now()
	refreshExpiresAt := now.Add(ts.refreshTokenExpiry)

	accessClaims := JWTCustomClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.accessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    ts.issuer,
			Audience:  jwt.ClaimStrings{ts.audience},
		},
	}

	refreshClaims := JWTCustomClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(refreshExpiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    ts.issuer,
			Audience:  jwt.ClaimStrings{ts.audience},
		},
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString(ts.accessTokenSecret)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString(ts.refreshTokenSecret)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return accessToken, refreshToken, refreshExpiresAt, nil
}

func (ts *TokenService) GetAccessTokenExpiry() time.Duration {
	return ts.accessTokenExpiry
}

func (ts *TokenService) GetRefreshTokenExpiry() time.Duration {
	return ts.refreshTokenExpiry
}

// VerifyAccessToken parses and validates an access token. It returns
// autherror.ErrTokenExpired when only the expiry failed, so callers can
// tell the client to attempt a refresh, and autherror.ErrTokenInvalid for
// every other defect (bad signature, wrong issuer/audience, malformed).
func (ts *TokenService) VerifyAccessToken(tokenString string) (*JWTCustomClaims, error) {
	return ts.verify(tokenString, ts.accessTokenSecret)
}

// VerifyRefreshToken is VerifyAccessToken against the refresh secret.
func (ts *TokenService) VerifyRefreshToken(tokenString string) (*JWTCustomClaims, error) {
	return ts.verify(tokenString, ts.refreshTokenSecret)
}

func (ts *TokenService) verify(tokenString string, secret []byte) (*JWTCustomClaims, error) {
	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	},
		jwt.WithIssuer(ts.issuer),
		jwt.WithAudience(ts.audience),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, autherror.ErrTokenExpired
		}
		return nil, autherror.ErrTokenInvalid
	}

	if !token.Valid {
		return nil, autherror.ErrTokenInvalid
	}

	return claims, nil
}

// ExtractBearer pulls the token out of an "Authorization: Bearer <token>"
// header value. An absent or malformed header yields "", not an error;
// anonymous requests are a normal case on optional routes.
func ExtractBearer(headerValue string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(headerValue, prefix) {
		return ""
	}

	return strings.TrimSpace(headerValue[len(prefix):])
}
