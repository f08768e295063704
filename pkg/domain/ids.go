// Package domain holds the value objects shared across services: typed
// record ids, the normalized claim number, monetary amounts, and the
// grading enumeration.
package domain

import (
	"github.com/google/uuid"

	dErrors "claimtrail/pkg/domain-errors"
)

// Typed UUID wrappers. Distinct types keep a claim id from ever being
// passed where a batch id is expected; the compiler enforces it.
type (
	ClaimID   uuid.UUID
	VersionID uuid.UUID
	BatchID   uuid.UUID
	CycleID   uuid.UUID
)

func (id ClaimID) String() string   { return uuid.UUID(id).String() }
func (id VersionID) String() string { return uuid.UUID(id).String() }
func (id BatchID) String() string   { return uuid.UUID(id).String() }
func (id CycleID) String() string   { return uuid.UUID(id).String() }

func (id ClaimID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id BatchID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id CycleID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }

// NewClaimID returns a fresh random claim id.
func NewClaimID() ClaimID { return ClaimID(uuid.New()) }

// NewVersionID returns a fresh random version id.
func NewVersionID() VersionID { return VersionID(uuid.New()) }

// NewBatchID returns a fresh random batch record id.
func NewBatchID() BatchID { return BatchID(uuid.New()) }

// NewCycleID returns a fresh random cycle record id.
func NewCycleID() CycleID { return CycleID(uuid.New()) }

func parseUUID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return parsed, nil
}

// ParseClaimID parses a claim id from its string form.
func ParseClaimID(raw string) (ClaimID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return ClaimID{}, err
	}
	return ClaimID(parsed), nil
}

// ParseBatchID parses a batch record id from its string form.
func ParseBatchID(raw string) (BatchID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return BatchID{}, err
	}
	return BatchID(parsed), nil
}
