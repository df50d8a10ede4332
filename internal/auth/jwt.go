package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	claimSubject      = "sub"
	claimOperatorID   = "operator_id"
	claimOperatorName = "operator_name"
)

// JWTMiddleware returns a JWT auth middleware configured for HS256 tokens.
func JWTMiddleware(secret string, skipper middleware.Skipper) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(secret),
		SigningMethod: "HS256",
		TokenLookup:   "header:Authorization:Bearer ,query:token",
		Skipper:       skipper,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return jwt.MapClaims{}
		},
	})
}

// Operator identifies the authenticated operator on a request.
type Operator struct {
	ID   string
	Name string
}

// OperatorFromContext extracts the operator identity from JWT claims.
func OperatorFromContext(c echo.Context) (Operator, error) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok || token == nil || !token.Valid {
		return Operator{}, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Operator{}, echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
	}
	op := Operator{
		ID:   claimString(claims, claimOperatorID),
		Name: claimString(claims, claimOperatorName),
	}
	if op.ID == "" {
		op.ID = claimString(claims, claimSubject)
	}
	if op.ID == "" {
		return Operator{}, echo.NewHTTPError(http.StatusUnauthorized, "operator id missing")
	}
	return op, nil
}

// GenerateToken creates a signed JWT for an operator.
func GenerateToken(operatorID, operatorName, secret string, expiresIn time.Duration) (string, time.Time, error) {
	if strings.TrimSpace(operatorID) == "" {
		return "", time.Time{}, fmt.Errorf("operator id is required")
	}
	if strings.TrimSpace(secret) == "" {
		return "", time.Time{}, fmt.Errorf("jwt secret is required")
	}
	if expiresIn <= 0 {
		return "", time.Time{}, fmt.Errorf("jwt expires in must be positive")
	}

	now := time.Now().UTC()
	expiresAt := now.Add(expiresIn)
	claims := jwt.MapClaims{
		claimSubject:      operatorID,
		claimOperatorID:   operatorID,
		claimOperatorName: operatorName,
		"iat":             now.Unix(),
		"exp":             expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func claimString(claims jwt.MapClaims, key string) string {
	raw, ok := claims[key]
	if !ok || raw == nil {
		return ""
	}
	switch v := raw.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(raw)
	}
}
