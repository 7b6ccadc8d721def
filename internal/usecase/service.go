package usecase

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"property-scraper/internal/config"
	"property-scraper/internal/ports"
	"property-scraper/internal/usecase/adapters"
)

type Service struct {
	Search   adapters.SearchService
	Pipeline adapters.PipelineService
}

type Params struct {
	fx.In

	Logger    *zap.Logger
	Config    *config.Config
	Browser   ports.BrowserManager
	Sessions  ports.SessionDriver
	Resolver  ports.MarkerResolver
	Extractor ports.FieldExtractor
}

func NewUsecase(params Params) *Service {
	factory := newServiceFactory(params)
	search := factory.CreateSearchService()

	return &Service{
		Search:   search,
		Pipeline: factory.CreatePipelineService(search),
	}
}
