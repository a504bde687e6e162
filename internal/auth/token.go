package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"go-doc-lifecycle/internal/model"
	"go-doc-lifecycle/pkg/apierror"
)

const TokenTypeAccess = "access"

// TokenValidator verifies HS256 bearer tokens issued by the identity service.
type TokenValidator struct {
	secret []byte
	now    func() time.Time
}

func NewTokenValidator(secret string) (*TokenValidator, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret is required")
	}

	return &TokenValidator{secret: []byte(secret), now: time.Now}, nil
}

func (v *TokenValidator) ValidateToken(tokenString string, expectedType string) (*model.AuthClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apierror.New("UNAUTHORIZED", "invalid token signing method", "", http.StatusUnauthorized)
		}
		return v.secret, nil
	}, jwt.WithTimeFunc(v.now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, apierror.Wrap(model.ErrUnauthorized, "UNAUTHORIZED", "invalid token", "", http.StatusUnauthorized)
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apierror.Wrap(model.ErrUnauthorized, "UNAUTHORIZED", "invalid token claims", "", http.StatusUnauthorized)
	}

	typ, _ := claimsMap["typ"].(string)
	if expectedType != "" && typ != expectedType {
		return nil, apierror.Wrap(model.ErrUnauthorized, "UNAUTHORIZED", "invalid token type", "", http.StatusUnauthorized)
	}

	claims := &model.AuthClaims{Type: typ}
	claims.UserID, _ = claimsMap["sub"].(string)
	claims.Username, _ = claimsMap["username"].(string)
	claims.Role, _ = claimsMap["role"].(string)
	claims.OrganizationID, _ = claimsMap["org"].(string)
	claims.TokenID, _ = claimsMap["jti"].(string)

	if claims.UserID == "" {
		return nil, apierror.Wrap(model.ErrUnauthorized, "UNAUTHORIZED", "invalid token subject", "", http.StatusUnauthorized)
	}

	return claims, nil
}

// IssueToken signs an access token for claims. The service never issues
// tokens to clients; the sweep CLI and tests use this to call the API.
func (v *TokenValidator) IssueToken(claims model.AuthClaims, ttl time.Duration) (string, error) {
	now := v.now().UTC()
	if claims.TokenID == "" {
		claims.TokenID = uuid.NewString()
	}
	if claims.Type == "" {
		claims.Type = TokenTypeAccess
	}

	mapClaims := jwt.MapClaims{
		"sub":      claims.UserID,
		"username": claims.Username,
		"role":     claims.Role,
		"typ":      claims.Type,
		"jti":      claims.TokenID,
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	}
	if claims.OrganizationID != "" {
		mapClaims["org"] = claims.OrganizationID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, mapClaims)
	return token.SignedString(v.secret)
}
