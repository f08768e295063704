package handler

import (
	"strings"

	"claimtrail/internal/ingest"
	"claimtrail/pkg/domain"
	dErrors "claimtrail/pkg/domain-errors"
)

const maxRowsPerImport = 10000

// ImportRequest is the HTTP request body for POST /v1/imports.
type ImportRequest struct {
	Tenant string     `json:"tenant"`
	Source string     `json:"source"`
	Rows   []RowEntry `json:"rows"`

	// Parsed values (populated by Validate)
	parsedTenant domain.Tenant
}

// RowEntry is one raw import row. Costs travel as strings so the engine
// owns parsing; spreadsheet exports frequently mangle numbers.
type RowEntry struct {
	Number string `json:"number"`
	Cost   string `json:"cost"`
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *ImportRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	tenant, err := domain.ParseTenant(r.Tenant)
	if err != nil {
		return err
	}
	r.parsedTenant = tenant

	r.Source = strings.TrimSpace(r.Source)
	if r.Source == "" {
		return dErrors.New(dErrors.CodeValidation, "source is required")
	}

	if len(r.Rows) == 0 {
		return dErrors.New(dErrors.CodeValidation, "rows must not be empty")
	}
	if len(r.Rows) > maxRowsPerImport {
		return dErrors.Newf(dErrors.CodeValidation, "rows must be at most %d per import", maxRowsPerImport)
	}
	return nil
}

// ParsedTenant returns the validated tenant.
func (r *ImportRequest) ParsedTenant() domain.Tenant {
	return r.parsedTenant
}

// DomainRows converts the wire rows to service inputs. Row-level parsing
// happens in the service so the whole batch shares one policy.
func (r *ImportRequest) DomainRows() []ingest.RowInput {
	rows := make([]ingest.RowInput, 0, len(r.Rows))
	for _, row := range r.Rows {
		rows = append(rows, ingest.RowInput{Number: row.Number, Cost: row.Cost})
	}
	return rows
}
