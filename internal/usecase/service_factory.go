package usecase

import (
	"property-scraper/internal/usecase/adapters"
)

type serviceFactory struct {
	deps Params
}

func newServiceFactory(deps Params) *serviceFactory {
	return &serviceFactory{
		deps: deps,
	}
}

func (f *serviceFactory) CreateSearchService() *Controller {
	return NewController(ControllerParams{
		Config:    f.deps.Config,
		Logger:    f.deps.Logger,
		Browser:   f.deps.Browser,
		Sessions:  f.deps.Sessions,
		Resolver:  f.deps.Resolver,
		Extractor: f.deps.Extractor,
	})
}

func (f *serviceFactory) CreatePipelineService(searcher *Controller) adapters.PipelineService {
	return NewPipeline(PipelineParams{
		Config:   f.deps.Config,
		Logger:   f.deps.Logger,
		Sessions: f.deps.Sessions,
		Searcher: searcher,
	})
}
