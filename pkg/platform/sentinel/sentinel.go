package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and adapters return these
// (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: unique constraint hit (tenant+number already live)
// - ErrUnavailable: external system or resource temporarily unavailable
// - ErrLocked: another writer holds the tenant import lock
//
// For validation errors (bad input, invariant breaks), use pkg/domain-errors.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
	ErrLocked      = errors.New("locked")
)
