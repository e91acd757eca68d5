package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carfix/internal/cache"
	"carfix/internal/model"
)

type memTokens struct {
	revoked map[string]bool
}

func (m *memTokens) StoreRefreshToken(context.Context, string, RefreshSession, time.Duration) error {
	return nil
}
func (m *memTokens) GetRefreshToken(context.Context, string) (*RefreshSession, error) {
	return nil, nil
}
func (m *memTokens) DeleteRefreshToken(context.Context, string) error { return nil }
func (m *memTokens) BlacklistAccessToken(_ context.Context, id string, _ time.Duration) error {
	m.revoked[id] = true
	return nil
}
func (m *memTokens) IsAccessTokenBlacklisted(_ context.Context, id string) (bool, error) {
	return m.revoked[id], nil
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("secret")
	token, err := svc.GenerateAccessToken(7, "s@example.com", model.RoleSeller)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "s@example.com", claims.Email)
	assert.Equal(t, model.RoleSeller, claims.Role)
	assert.NotEmpty(t, claims.ID)
	assert.InDelta(t, AccessTokenExpiry.Seconds(), svc.Remaining(claims).Seconds(), 5)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService("secret")

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewJWTService("other").GenerateAccessToken(1, "a@b.c", model.RoleCustomer)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		old := NewJWTService("secret")
		old.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, err := old.GenerateAccessToken(1, "a@b.c", model.RoleCustomer)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.Error(t, err)
	})
}

func TestTokenStore_NilCacheFailsSafe(t *testing.T) {
	store := NewTokenStore((*cache.Client)(nil))
	ctx := context.Background()

	require.NoError(t, store.StoreRefreshToken(ctx, "id", RefreshSession{UserID: 1}, time.Minute))
	_, err := store.GetRefreshToken(ctx, "id")
	assert.Error(t, err)

	revoked, err := store.IsAccessTokenBlacklisted(ctx, "id")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestGate(t *testing.T) {
	svc := NewJWTService("secret")
	tokens := &memTokens{revoked: map[string]bool{}}
	gate := NewGate(svc, tokens)

	e := echo.New()
	ok := func(c echo.Context) error {
		return c.String(http.StatusOK, string(ClaimsFrom(c).Role))
	}
	e.GET("/any", ok, gate.Authenticate())
	e.GET("/seller", ok, gate.Authenticate(), gate.RequireRole(model.RoleSeller))

	sellerToken, err := svc.GenerateAccessToken(1, "s@x.io", model.RoleSeller)
	require.NoError(t, err)
	customerToken, err := svc.GenerateAccessToken(2, "c@x.io", model.RoleCustomer)
	require.NoError(t, err)
	revokedToken, err := svc.GenerateAccessToken(3, "r@x.io", model.RoleSeller)
	require.NoError(t, err)
	claims, err := svc.ValidateToken(revokedToken)
	require.NoError(t, err)
	require.NoError(t, tokens.BlacklistAccessToken(context.Background(), claims.ID, time.Minute))

	tests := []struct {
		name       string
		path       string
		token      string
		wantStatus int
	}{
		{name: "no token", path: "/any", wantStatus: http.StatusUnauthorized},
		{name: "bad token", path: "/any", token: "junk", wantStatus: http.StatusUnauthorized},
		{name: "valid token", path: "/any", token: customerToken, wantStatus: http.StatusOK},
		{name: "revoked token", path: "/any", token: revokedToken, wantStatus: http.StatusUnauthorized},
		{name: "wrong role", path: "/seller", token: customerToken, wantStatus: http.StatusForbidden},
		{name: "right role", path: "/seller", token: sellerToken, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.Header.Set(echo.HeaderAuthorization, "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
