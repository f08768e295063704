package handler

import (
	"strings"

	"claimtrail/pkg/domain"
	dErrors "claimtrail/pkg/domain-errors"
)

// RunRequest is the HTTP request body for POST /v1/revalidations.
type RunRequest struct {
	Tenant    string   `json:"tenant,omitempty"`
	Gradings  []string `json:"gradings,omitempty"`
	MaxClaims int      `json:"max_claims,omitempty"`

	// Parsed values (populated by Validate)
	parsedTenant   *domain.Tenant
	parsedGradings []domain.Grading
}

// Validate validates and parses the request. An empty body is a valid
// global run with the default scope.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *RunRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	if strings.TrimSpace(r.Tenant) != "" {
		tenant, err := domain.ParseTenant(r.Tenant)
		if err != nil {
			return err
		}
		r.parsedTenant = &tenant
	}

	for _, raw := range r.Gradings {
		grading, err := domain.ParseGrading(strings.TrimSpace(raw))
		if err != nil {
			return err
		}
		if grading.IsTerminal() {
			return dErrors.New(dErrors.CodeValidation, "approved claims cannot be revalidated")
		}
		r.parsedGradings = append(r.parsedGradings, grading)
	}

	if r.MaxClaims < 0 {
		return dErrors.New(dErrors.CodeValidation, "max_claims must not be negative")
	}
	return nil
}

// ParsedTenant returns the validated tenant scope, nil for a global run.
func (r *RunRequest) ParsedTenant() *domain.Tenant {
	return r.parsedTenant
}

// ParsedGradings returns the validated eligible set, empty for the default.
func (r *RunRequest) ParsedGradings() []domain.Grading {
	return r.parsedGradings
}
