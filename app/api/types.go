package api

import (
	"context"

	"github.com/toutvamal/newsroom/app/database"
	"github.com/toutvamal/newsroom/app/pipeline"
)

// PipelineRunner is the orchestrator surface the API needs.
type PipelineRunner interface {
	Run(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error)
	Retry(ctx context.Context, logID int64, opts pipeline.Options) (*pipeline.Result, error)
}

var _ PipelineRunner = (*pipeline.Orchestrator)(nil)

type Handler struct {
	sourceRepo     database.SourceRepository
	articleRepo    database.ArticleRepository
	journalistRepo database.JournalistRepository
	ledger         database.GenerationLogRepository
	runner         PipelineRunner
}

// GenerateRequest is the body of POST /api/generate. All fields are
// optional; an empty body runs the full aggregate-and-filter pipeline.
type GenerateRequest struct {
	SourceURL         string `json:"source_url"`
	SourceTitle       string `json:"source_title"`
	SourceDescription string `json:"source_description"`
	JournalistID      *int64 `json:"journalist_id"`
	AutoPublish       *bool  `json:"auto_publish"`
	GenerateImage     *bool  `json:"generate_image"`
}
