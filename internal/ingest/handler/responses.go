package handler

import (
	"time"

	"claimtrail/internal/ingest"
)

// BatchResponse is the HTTP shape of one batch record.
type BatchResponse struct {
	ID        string    `json:"id"`
	Tenant    string    `json:"tenant"`
	Source    string    `json:"source"`
	Baseline  bool      `json:"baseline"`
	Actor     string    `json:"actor"`
	Total     int       `json:"total"`
	New       int       `json:"new"`
	Updated   int       `json:"updated"`
	Unchanged int       `json:"unchanged"`
	Errored   int       `json:"errored"`
	Approved  int       `json:"approved"`
	Pending   int       `json:"pending"`
	Rejected  int       `json:"rejected"`
	NotFound  int       `json:"not_found"`
	CreatedAt time.Time `json:"created_at"`
}

// FromRecord converts a batch record to its HTTP shape.
func FromRecord(record *ingest.BatchRecord) *BatchResponse {
	return &BatchResponse{
		ID:        record.ID.String(),
		Tenant:    record.Tenant.String(),
		Source:    record.Source,
		Baseline:  record.Baseline,
		Actor:     record.Actor,
		Total:     record.Stats.Total,
		New:       record.Stats.New,
		Updated:   record.Stats.Updated,
		Unchanged: record.Stats.Unchanged,
		Errored:   record.Stats.Errored,
		Approved:  record.Stats.Approved,
		Pending:   record.Stats.Pending,
		Rejected:  record.Stats.Rejected,
		NotFound:  record.Stats.NotFound,
		CreatedAt: record.CreatedAt,
	}
}

// ListResponse wraps a page of batch records.
type ListResponse struct {
	Batches []*BatchResponse `json:"batches"`
}

// FromRecords converts a record list to its HTTP shape.
func FromRecords(records []*ingest.BatchRecord) *ListResponse {
	out := &ListResponse{Batches: make([]*BatchResponse, 0, len(records))}
	for _, record := range records {
		out.Batches = append(out.Batches, FromRecord(record))
	}
	return out
}
