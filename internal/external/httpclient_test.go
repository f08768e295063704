package external

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimtrail/pkg/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func claimNumber(t *testing.T, raw string) domain.ClaimNumber {
	t.Helper()
	n, err := domain.ParseClaimNumber(raw)
	require.NoError(t, err)
	return n
}

func TestHTTPClient_Lookup(t *testing.T) {
	t.Run("decodes a hit and carries the signed assertion", func(t *testing.T) {
		var gotAuth string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			assert.Equal(t, "/v1/claims/lookup", r.URL.Path)

			var req map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "EXP-100", req["claim_number"])

			_ = json.NewEncoder(w).Encode(map[string]any{"found": true, "system_cost": 120.50})
		}))
		defer server.Close()

		client := NewHTTPClient(server.URL, "signing-key", "claimtrail", time.Second, testLogger())
		declared, err := domain.ParseMoney("120.00")
		require.NoError(t, err)

		result, err := client.Lookup(context.Background(), claimNumber(t, "EXP-100"), declared)
		require.NoError(t, err)
		assert.True(t, result.Found)
		assert.Equal(t, "120.50", result.SystemCost.String())

		require.True(t, strings.HasPrefix(gotAuth, "Bearer "))
		token, err := jwt.Parse(strings.TrimPrefix(gotAuth, "Bearer "), func(*jwt.Token) (any, error) {
			return []byte("signing-key"), nil
		})
		require.NoError(t, err)
		issuer, err := token.Claims.GetIssuer()
		require.NoError(t, err)
		assert.Equal(t, "claimtrail", issuer)
	})

	t.Run("server error surfaces as lookup error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := NewHTTPClient(server.URL, "k", "claimtrail", time.Second, testLogger())
		_, err := client.Lookup(context.Background(), claimNumber(t, "EXP-100"), domain.Money{})
		require.Error(t, err)
	})

	t.Run("negative system cost is rejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"found": true, "system_cost": -5.0})
		}))
		defer server.Close()

		client := NewHTTPClient(server.URL, "k", "claimtrail", time.Second, testLogger())
		_, err := client.Lookup(context.Background(), claimNumber(t, "EXP-100"), domain.Money{})
		require.Error(t, err)
	})
}

func TestHTTPClient_Release(t *testing.T) {
	t.Run("reports the portal's answer", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/claims/release", r.URL.Path)
			_ = json.NewEncoder(w).Encode(map[string]any{"released": true})
		}))
		defer server.Close()

		client := NewHTTPClient(server.URL, "k", "claimtrail", time.Second, testLogger())
		cost, err := domain.ParseMoney("10.00")
		require.NoError(t, err)
		assert.True(t, client.Release(context.Background(), claimNumber(t, "EXP-100"), cost))
	})

	t.Run("failure never raises, only reports false", func(t *testing.T) {
		client := NewHTTPClient("http://127.0.0.1:1", "k", "claimtrail", 100*time.Millisecond, testLogger())
		cost, err := domain.ParseMoney("10.00")
		require.NoError(t, err)
		assert.False(t, client.Release(context.Background(), claimNumber(t, "EXP-100"), cost))
	})
}
