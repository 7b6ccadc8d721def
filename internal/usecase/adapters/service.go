package adapters

import (
	"context"

	"property-scraper/internal/entity"
)

type SearchService interface {
	Search(ctx context.Context, session *entity.Session, coordinate string, viewport entity.ViewportState) (entity.SearchOutcome, entity.ViewportState)
}

type PipelineService interface {
	Run(ctx context.Context, inputPath, outputPath string) (*entity.RunReport, error)
}
