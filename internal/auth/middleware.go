package auth

import (
	"net/http"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	apperrors "carfix/internal/errors"
	"carfix/internal/model"
)

const contextKey = "user"

// Gate authenticates bearer tokens and authorizes roles.
type Gate struct {
	jwt    *JWTService
	tokens TokenStoreInterface
}

// NewGate creates the auth gate.
func NewGate(jwtService *JWTService, tokens TokenStoreInterface) *Gate {
	return &Gate{jwt: jwtService, tokens: tokens}
}

// Authenticate requires a valid, non-revoked access token and stores its
// claims on the context.
func (g *Gate) Authenticate() echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		SigningKey:    g.jwt.Secret(),
		SigningMethod: jwt.SigningMethodHS256.Alg(),
		ContextKey:    contextKey,
		TokenLookup:   "header:" + echo.HeaderAuthorization + ":Bearer ",
		NewClaimsFunc: func(echo.Context) jwt.Claims {
			return new(Claims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return unauthorized("Access denied. No valid token provided.")
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(func(c echo.Context) error {
			claims := ClaimsFrom(c)
			if claims == nil || claims.ID == "" {
				return unauthorized("Invalid token")
			}
			revoked, _ := g.tokens.IsAccessTokenBlacklisted(c.Request().Context(), claims.ID)
			if revoked {
				return unauthorized("Token has been revoked")
			}
			return next(c)
		})
	}
}

// RequireRole rejects callers whose role is not listed. It must run after
// Authenticate.
func (g *Gate) RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := ClaimsFrom(c)
			if claims == nil {
				return unauthorized("Invalid token")
			}
			if !slices.Contains(roles, claims.Role) {
				return echo.NewHTTPError(http.StatusForbidden, apperrors.ErrorResponse{
					Error: "Access denied. Requires role: " + joinRoles(roles),
					Code:  "FORBIDDEN",
				})
			}
			return next(c)
		}
	}
}

// ClaimsFrom returns the authenticated caller's claims, or nil.
func ClaimsFrom(c echo.Context) *Claims {
	token, ok := c.Get(contextKey).(*jwt.Token)
	if !ok || token == nil {
		return nil
	}
	claims, _ := token.Claims.(*Claims)
	return claims
}

// RawToken returns the bearer token string of the request.
func RawToken(c echo.Context) string {
	token, ok := c.Get(contextKey).(*jwt.Token)
	if !ok || token == nil {
		return ""
	}
	return token.Raw
}

func unauthorized(msg string) error {
	return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
		Error: msg,
		Code:  "UNAUTHORIZED",
	})
}

func joinRoles(roles []model.Role) string {
	s := make([]string, len(roles))
	for i, r := range roles {
		s[i] = string(r)
	}
	return strings.Join(s, " or ")
}
