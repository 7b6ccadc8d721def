package usecase

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"property-scraper/internal/config"
	"property-scraper/internal/entity"
	"property-scraper/internal/ports"
	"property-scraper/internal/record"
	"property-scraper/internal/session"
	"property-scraper/pkg/apperr"
	"property-scraper/pkg/logg"
	"property-scraper/pkg/tracing"
)

const (
	pipelineName   = "Pipeline"
	pipelineTracer = "usecase.pipeline"
)

// Pipeline runs a whole input file through one authenticated session.
type Pipeline struct {
	logger   *zap.Logger
	tracer   trace.Tracer
	sessions ports.SessionDriver
	searcher ports.CoordinateSearcher
	site     *config.SiteConfig
	timeouts *config.TimeoutsConfig
}

type PipelineParams struct {
	fx.In

	Config   *config.Config
	Logger   *zap.Logger
	Sessions ports.SessionDriver
	Searcher ports.CoordinateSearcher
}

func NewPipeline(params PipelineParams) *Pipeline {
	return &Pipeline{
		logger:   params.Logger.With(zap.String(logg.Layer, pipelineName)),
		tracer:   otel.Tracer(pipelineTracer),
		sessions: params.Sessions,
		searcher: params.Searcher,
		site:     params.Config.SiteConfig,
		timeouts: params.Config.TimeoutsConfig,
	}
}

// Run reads inputPath, searches every coordinate in order and appends one
// row per coordinate to outputPath. A fatal search outcome aborts the run;
// rows written before it stay on disk. The report is returned on every path
// that got past reading the input.
func (p *Pipeline) Run(ctx context.Context, inputPath, outputPath string) (report *entity.RunReport, err error) {
	const op = "Run"

	report = &entity.RunReport{
		RunID:      uuid.New(),
		InputPath:  inputPath,
		OutputPath: outputPath,
		StartedAt:  time.Now(),
	}

	logger := p.logger.With(
		zap.String(logg.Operation, op),
		zap.String(logg.RunID, report.RunID.String()),
		zap.String(logg.Path, inputPath))

	ctx, step := tracing.StartSpan(ctx, p.tracer, logger, op,
		attribute.String("run_id", report.RunID.String()))
	defer func() {
		if report != nil {
			report.FinishedAt = time.Now()
		}
		step.End(err)
	}()

	records, err := record.ReadInputFile(inputPath)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, apperr.Wrap(op, apperr.CodeNoRecords, errors.New("input has no coordinates"), map[string]any{
			apperr.MetaReason: "no_records",
			apperr.MetaStage:  apperr.StageInput,
			apperr.MetaPath:   inputPath,
		})
	}

	logger.Info("Run started", zap.Int("records", len(records)), zap.String("output", outputPath))

	if err = os.Remove(outputPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, apperr.Wrap(op, apperr.CodeOutputFailed, err, map[string]any{
			apperr.MetaReason: "stale_output_not_removed",
			apperr.MetaStage:  apperr.StageOutput,
			apperr.MetaPath:   outputPath,
		})
	}

	writer := record.NewWriter(outputPath)
	defer func() {
		if closeErr := writer.Close(); closeErr != nil {
			logger.Error("Failed to close output", zap.Error(closeErr))
			err = errors.Join(err, closeErr)
		}
	}()

	creds := entity.Credentials{Username: p.site.Username, Password: p.site.Password}

	err = session.With(ctx, p.sessions, creds, func(ctx context.Context, s *entity.Session) error {
		logger.Info("Waiting for the map application to settle", zap.Duration("delay", p.timeouts.PostLoginDelay))

		if err := pause(ctx, p.timeouts.PostLoginDelay); err != nil {
			return err
		}

		return p.process(ctx, logger, s, records, writer, report)
	})
	if err != nil {
		logger.Error("Run aborted",
			zap.Error(err),
			zap.Int("processed", report.Processed),
			zap.Int("total", len(records)))

		return report, err
	}

	logger.Info("Run finished",
		zap.Int("processed", report.Processed),
		zap.Int("found", report.Found),
		zap.Int("not_found", report.NotFound))

	return report, nil
}

func (p *Pipeline) process(ctx context.Context, logger *zap.Logger, s *entity.Session,
	records []entity.InputRecord, writer ports.RecordWriter, report *entity.RunReport) error {
	const op = "process"

	limiter := rate.NewLimiter(rate.Inf, 1)
	if p.timeouts.CoordinateInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(p.timeouts.CoordinateInterval), 1)
	}

	var viewport entity.ViewportState

	for _, in := range records {
		if err := limiter.Wait(ctx); err != nil {
			return apperr.Wrap(op, apperr.CodeCancelled, err, map[string]any{
				apperr.MetaReason:     "rate_wait_interrupted",
				apperr.MetaCoordinate: in.Coordinates,
			})
		}

		rowLogger := logger.With(zap.Int(logg.Row, in.Row), zap.String(logg.Coordinate, in.Coordinates))

		var outcome entity.SearchOutcome
		outcome, viewport = p.searcher.Search(ctx, s, in.Coordinates, viewport)

		switch outcome.Kind {
		case entity.OutcomeFatal:
			return outcome.Err
		case entity.OutcomeNotFound:
			report.NotFound++
		case entity.OutcomeFound:
			if len(outcome.Fields) == 0 {
				report.NotFound++
			} else {
				report.Found++
			}
		}

		out := record.Merge(outcome.Fields, in.Coordinates, in, outcome.Remark)

		if err := writer.Append(out); err != nil {
			return err
		}

		report.Processed++
		rowLogger.Info("Record written", zap.String(logg.Remark, outcome.Remark), zap.String("outcome", string(outcome.Kind)))
	}

	return nil
}
