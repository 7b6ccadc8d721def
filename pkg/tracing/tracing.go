package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Span struct {
	span    trace.Span
	logger  *zap.Logger
	name    string
	started time.Time
}

func StartSpan(ctx context.Context, tracer trace.Tracer, logger *zap.Logger, name string, attrs ...attribute.KeyValue) (context.Context, *Span) {
	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(attrs...))

	return ctx, &Span{
		span:    span,
		logger:  logger,
		name:    name,
		started: time.Now(),
	}
}

// End closes the span and records err on it. Durations go to the debug log.
func (s *Span) End(err error) {
	elapsed := time.Since(s.started)

	if err != nil {
		s.span.SetStatus(codes.Error, err.Error())
		s.span.RecordError(err)
	} else {
		s.span.SetStatus(codes.Ok, "")
	}

	if s.logger != nil {
		s.logger.Debug("span finished",
			zap.String("span", s.name),
			zap.Duration("elapsed", elapsed),
			zap.Bool("failed", err != nil))
	}

	s.span.End()
}

func (s *Span) AddEvent(name string, attrs ...attribute.KeyValue) {
	s.span.AddEvent(name, trace.WithAttributes(attrs...))
}

func (s *Span) SetAttributes(attrs ...attribute.KeyValue) {
	s.span.SetAttributes(attrs...)
}

// Coordinate tags the span with the coordinate being processed.
func (s *Span) Coordinate(coordinate string) {
	s.span.SetAttributes(attribute.String("coordinate", coordinate))
}
