package domain

import (
	"strings"

	dErrors "claimtrail/pkg/domain-errors"
)

// Claim number normalization bounds.
const (
	claimNumberMinLen = 3
	claimNumberMaxLen = 50
	tenantMaxLen      = 64
)

// ClaimNumber is a normalized claim identifier ("expediente" number).
// Normalization trims surrounding whitespace and upper-cases the input;
// the normalized form is restricted to [A-Z0-9-] and 3..50 characters.
// Two numbers are equal iff their normalized forms match, so the zero-value
// comparison operator is the equality the engine relies on.
type ClaimNumber struct {
	value string
}

// ParseClaimNumber normalizes and validates a raw claim number.
func ParseClaimNumber(raw string) (ClaimNumber, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	if normalized == "" {
		return ClaimNumber{}, dErrors.New(dErrors.CodeInvalidIdentifier, "claim number must not be empty")
	}
	if len(normalized) < claimNumberMinLen {
		return ClaimNumber{}, dErrors.Newf(dErrors.CodeInvalidIdentifier,
			"claim number %q must be at least %d characters", normalized, claimNumberMinLen)
	}
	if len(normalized) > claimNumberMaxLen {
		return ClaimNumber{}, dErrors.Newf(dErrors.CodeInvalidIdentifier,
			"claim number must be at most %d characters", claimNumberMaxLen)
	}
	for _, r := range normalized {
		if !isClaimNumberRune(r) {
			return ClaimNumber{}, dErrors.Newf(dErrors.CodeInvalidIdentifier,
				"claim number %q contains disallowed character %q", normalized, r)
		}
	}
	return ClaimNumber{value: normalized}, nil
}

func isClaimNumberRune(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '-':
		return true
	}
	return false
}

// String returns the normalized form.
func (n ClaimNumber) String() string { return n.value }

// IsZero reports whether the number has not been constructed via parse.
func (n ClaimNumber) IsZero() bool { return n.value == "" }

// Tenant is a normalized tenant label. Claims are scoped by it: the pair
// (tenant, claim number) is unique among live claims.
type Tenant struct {
	value string
}

// ParseTenant normalizes and validates a tenant label.
func ParseTenant(raw string) (Tenant, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return Tenant{}, dErrors.New(dErrors.CodeInvalidInput, "tenant must not be empty")
	}
	if len(normalized) > tenantMaxLen {
		return Tenant{}, dErrors.Newf(dErrors.CodeInvalidInput,
			"tenant must be at most %d characters", tenantMaxLen)
	}
	return Tenant{value: normalized}, nil
}

// String returns the normalized label.
func (t Tenant) String() string { return t.value }

// IsZero reports whether the tenant has not been constructed via parse.
func (t Tenant) IsZero() bool { return t.value == "" }
