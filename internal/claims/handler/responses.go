package handler

import (
	"time"

	"claimtrail/internal/claims"
)

// ClaimResponse is the HTTP shape of one claim's current state.
type ClaimResponse struct {
	ID           string    `json:"id"`
	Tenant       string    `json:"tenant"`
	Number       string    `json:"number"`
	Cost         string    `json:"cost"`
	Grading      string    `json:"grading"`
	Reason       string    `json:"reason"`
	VersionCount int       `json:"version_count"`
	FirstSeen    time.Time `json:"first_seen"`
	LastUpdated  time.Time `json:"last_updated"`
}

// FromClaim converts a claim to its HTTP shape.
func FromClaim(claim *claims.Claim) *ClaimResponse {
	return &ClaimResponse{
		ID:           claim.ID.String(),
		Tenant:       claim.Tenant.String(),
		Number:       claim.Number.String(),
		Cost:         claim.CurrentCost.String(),
		Grading:      claim.CurrentGrading.String(),
		Reason:       claim.CurrentReason,
		VersionCount: claim.VersionCount(),
		FirstSeen:    claim.FirstSeen,
		LastUpdated:  claim.LastUpdated,
	}
}

// VersionResponse is the HTTP shape of one trail entry.
type VersionResponse struct {
	ID          string    `json:"id"`
	Seq         int       `json:"seq"`
	PrevCost    *string   `json:"prev_cost,omitempty"`
	NewCost     string    `json:"new_cost"`
	PrevGrading *string   `json:"prev_grading,omitempty"`
	NewGrading  string    `json:"new_grading"`
	Reason      string    `json:"reason"`
	Operation   string    `json:"operation"`
	Actor       string    `json:"actor"`
	CreatedAt   time.Time `json:"created_at"`
}

// VersionsResponse wraps a claim's full trail.
type VersionsResponse struct {
	Number   string             `json:"number"`
	Versions []*VersionResponse `json:"versions"`
}

// FromVersions converts a claim's trail to its HTTP shape.
func FromVersions(claim *claims.Claim) *VersionsResponse {
	trail := claim.Versions()
	out := &VersionsResponse{
		Number:   claim.Number.String(),
		Versions: make([]*VersionResponse, 0, len(trail)),
	}
	for _, v := range trail {
		entry := &VersionResponse{
			ID:         v.ID.String(),
			Seq:        v.Seq,
			NewCost:    v.NewCost.String(),
			NewGrading: v.NewGrading.String(),
			Reason:     v.Reason,
			Operation:  string(v.Operation),
			Actor:      string(v.Actor),
			CreatedAt:  v.CreatedAt,
		}
		if v.PrevCost != nil {
			s := v.PrevCost.String()
			entry.PrevCost = &s
		}
		if v.PrevGrading != nil {
			s := v.PrevGrading.String()
			entry.PrevGrading = &s
		}
		out.Versions = append(out.Versions, entry)
	}
	return out
}
