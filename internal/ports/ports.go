package ports

import (
	"context"
	"time"

	"property-scraper/internal/entity"
)

// BrowserManager is the single automation handle of a run.
type BrowserManager interface {
	Launch(ctx context.Context) error
	Close(ctx context.Context) error
	Navigate(ctx context.Context, url string) error
	CurrentURL() string
	WaitForCookie(ctx context.Context, name string, timeout time.Duration) error
	WaitForURLChange(ctx context.Context, from string, timeout time.Duration) error
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error
	Click(ctx context.Context, selector string) error
	ClickAtCoordinates(ctx context.Context, x, y float64) error
	MoveMouse(ctx context.Context, x, y float64) error
	Fill(ctx context.Context, selector, value string) error
	Press(ctx context.Context, selector, key string) error
	BoundingBox(ctx context.Context, selector string) (*entity.BoundingBox, error)
	OuterHTML(ctx context.Context, selector string) (string, error)
	EvaluateJS(ctx context.Context, script string) (interface{}, error)
	Screenshot(ctx context.Context, path string) error
	IsReady() bool
}

type SessionDriver interface {
	Open(ctx context.Context) error
	Authenticate(ctx context.Context, creds entity.Credentials) (*entity.Session, error)
	CheckExpired(session *entity.Session) bool
	Close(ctx context.Context) error
}

// ElementLocator turns the bounding box of a reference element into a click target.
type ElementLocator interface {
	ClickTarget(anchor entity.BoundingBox) entity.Point
}

type MarkerResolver interface {
	Resolve(ctx context.Context, viewport entity.ViewportState) (entity.ViewportState, bool, error)
}

type FieldExtractor interface {
	Extract(markup string) entity.ScrapedFields
}

type CoordinateSearcher interface {
	Search(ctx context.Context, session *entity.Session, coordinate string, viewport entity.ViewportState) (entity.SearchOutcome, entity.ViewportState)
}

type RecordWriter interface {
	Append(record entity.OutputRecord) error
	Close() error
}
