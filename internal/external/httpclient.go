package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"claimtrail/internal/rules"
	"claimtrail/pkg/domain"
	"claimtrail/pkg/platform/sentinel"
)

// HTTPClient speaks the external system's JSON contract. Outbound requests
// carry a short-lived HS256 assertion so the portal gateway can attribute
// calls to this service.
type HTTPClient struct {
	baseURL    string
	signingKey []byte
	issuer     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPClient constructs the adapter. Timeouts live here, not in the
// engine: a slow portal shows up as a per-row error, never as a stuck batch.
func NewHTTPClient(baseURL, signingKey, issuer string, timeout time.Duration, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		signingKey: []byte(signingKey),
		issuer:     issuer,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type lookupRequest struct {
	ClaimNumber  string  `json:"claim_number"`
	DeclaredCost float64 `json:"declared_cost"`
}

type lookupResponse struct {
	Found      bool    `json:"found"`
	SystemCost float64 `json:"system_cost"`
}

type releaseRequest struct {
	ClaimNumber string  `json:"claim_number"`
	Cost        float64 `json:"cost"`
}

type releaseResponse struct {
	Released bool `json:"released"`
}

func (c *HTTPClient) Lookup(ctx context.Context, number domain.ClaimNumber, declared domain.Money) (rules.LookupResult, error) {
	var resp lookupResponse
	err := c.post(ctx, "/v1/claims/lookup", lookupRequest{
		ClaimNumber:  number.String(),
		DeclaredCost: declared.Float64(),
	}, &resp)
	if err != nil {
		return rules.LookupResult{}, err
	}

	systemCost, err := domain.MoneyFromFloat(resp.SystemCost)
	if err != nil {
		return rules.LookupResult{}, fmt.Errorf("external system returned unusable cost for %s: %w", number, err)
	}
	return rules.LookupResult{Found: resp.Found, SystemCost: systemCost}, nil
}

func (c *HTTPClient) Release(ctx context.Context, number domain.ClaimNumber, cost domain.Money) bool {
	var resp releaseResponse
	err := c.post(ctx, "/v1/claims/release", releaseRequest{
		ClaimNumber: number.String(),
		Cost:        cost.Float64(),
	}, &resp)
	if err != nil {
		c.logger.WarnContext(ctx, "external release failed",
			"claim_number", number.String(),
			"error", err,
		)
		return false
	}
	return resp.Released
}

func (c *HTTPClient) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode external request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build external request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := c.assertion()
	if err != nil {
		return fmt.Errorf("sign external assertion: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call external system: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("external system %s: %w", resp.Status, sentinel.ErrUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("external system responded %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode external response: %w", err)
	}
	return nil
}

// assertion builds a short-lived signed token identifying this service.
func (c *HTTPClient) assertion() (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    c.issuer,
		Subject:   c.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(2 * time.Minute)),
	})
	return token.SignedString(c.signingKey)
}
