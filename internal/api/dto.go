package api

import (
	"github.com/Shawm69/fbigposter/internal/constitution"
	"github.com/Shawm69/fbigposter/internal/ingest"
	"github.com/Shawm69/fbigposter/internal/models"
	"github.com/Shawm69/fbigposter/internal/service"
)

// AnalyzeRequest is the request body for an on-demand analysis run.
type AnalyzeRequest struct {
	Pipeline     models.Pipeline `json:"pipeline" example:"reel" validate:"required"`
	LookbackDays int             `json:"lookback_days" example:"30"`
}

// UpdatesRequest is the request body for an explicit tactics update batch.
type UpdatesRequest struct {
	Updates []models.TacticsUpdate `json:"updates" validate:"required"`
}

// IngestRequest is the request body for a scraped-metrics batch.
type IngestRequest struct {
	Snapshots []ingest.ScrapedPost `json:"snapshots" validate:"required"`
}

// CheckRequest is the request body for a constitution check.
type CheckRequest struct {
	Caption  string   `json:"caption" validate:"required"`
	Hashtags []string `json:"hashtags"`
}

// CheckResponse reports constitution check results.
type CheckResponse struct {
	Allowed    bool                     `json:"allowed" validate:"required"`
	Violations []constitution.Violation `json:"violations" validate:"required"`
}

// ProposalRequest is the request body for raising an identity proposal.
type ProposalRequest struct {
	Field    string   `json:"field" example:"voice" validate:"required"`
	Value    string   `json:"value" validate:"required"`
	Reason   string   `json:"reason" validate:"required"`
	Evidence string   `json:"evidence" validate:"required"`
	PostIDs  []string `json:"post_ids"`
}

// ResolveRequest is the request body for resolving a proposal.
type ResolveRequest struct {
	Approve bool `json:"approve" validate:"required"`
}

// AnalysisResult is the analysis outcome (aliased from the domain layer).
type AnalysisResult = service.AnalysisResult

// UpdateResult reports an applied tactics batch (aliased from the domain layer).
type UpdateResult = service.UpdateResult

// RecordPostRequest is the request body for recording a published post
// (aliased from the domain layer).
type RecordPostRequest = service.RecordPostRequest

// PostListResponse wraps recent post listings.
type PostListResponse struct {
	Posts []models.PostRecord `json:"posts" validate:"required"`
	Total int                 `json:"total" example:"5" validate:"required"`
}

// ProposalListResponse wraps identity proposal listings.
type ProposalListResponse struct {
	Proposals []models.SoulProposal `json:"proposals" validate:"required"`
}

// ContextResponse wraps an assembled generation brief with its rendered
// markdown form.
type ContextResponse struct {
	Brief    any    `json:"brief" validate:"required"`
	Rendered string `json:"rendered" validate:"required"`
}
