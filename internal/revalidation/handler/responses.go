package handler

import (
	"time"

	"claimtrail/internal/revalidation"
)

// CycleResponse is the HTTP shape of one cycle record.
type CycleResponse struct {
	ID            string    `json:"id"`
	Tenant        string    `json:"tenant,omitempty"`
	Processed     int       `json:"processed"`
	NewlyApproved int       `json:"newly_approved"`
	StillRejected int       `json:"still_rejected"`
	StillNotFound int       `json:"still_not_found"`
	CostChanges   int       `json:"cost_changes"`
	ShouldNotify  bool      `json:"should_notify"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	DurationMS    int64     `json:"duration_ms"`
}

// FromRecord converts a cycle record to its HTTP shape.
func FromRecord(record *revalidation.CycleRecord) *CycleResponse {
	out := &CycleResponse{
		ID:            record.ID.String(),
		Processed:     record.Processed,
		NewlyApproved: record.NewlyApproved,
		StillRejected: record.StillRejected,
		StillNotFound: record.StillNotFound,
		CostChanges:   record.CostChanges,
		ShouldNotify:  record.ShouldNotify(),
		StartedAt:     record.StartedAt,
		FinishedAt:    record.FinishedAt,
		DurationMS:    record.Duration().Milliseconds(),
	}
	if record.Tenant != nil {
		out.Tenant = record.Tenant.String()
	}
	return out
}

// ListResponse wraps a page of cycle records.
type ListResponse struct {
	Cycles []*CycleResponse `json:"cycles"`
}

// FromRecords converts a record list to its HTTP shape.
func FromRecords(records []*revalidation.CycleRecord) *ListResponse {
	out := &ListResponse{Cycles: make([]*CycleResponse, 0, len(records))}
	for _, record := range records {
		out.Cycles = append(out.Cycles, FromRecord(record))
	}
	return out
}
