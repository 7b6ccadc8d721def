package entity

import (
	"time"

	"github.com/google/uuid"
)

type AuthState string

const (
	AuthStateUnauthenticated AuthState = "unauthenticated"
	AuthStateAuthenticated   AuthState = "authenticated"
	AuthStateExpired         AuthState = "expired"
)

type Credentials struct {
	Username string
	Password string
}

// Session is the authenticated browser session of one run.
type Session struct {
	ID              uuid.UUID
	State           AuthState
	LoginURL        string
	AuthenticatedAt time.Time
}

type BoundingBox struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

func (b BoundingBox) Center() Point {
	return Point{
		X: b.X + b.Width/2,
		Y: b.Y + b.Height/2,
	}
}

type Point struct {
	X float64
	Y float64
}

// ViewportState is the map geometry measured once per session.
type ViewportState struct {
	Center        Point
	Canvas        BoundingBox
	OverlayHeight float64
	ZoomApplied   bool
	Measured      bool
}

// InputRecord is one row of the input table.
type InputRecord struct {
	Row           int
	Coordinates   string
	PropertyName  string
	Address1      string
	City          string
	State         string
	ZipCode       string
	County        string
	ListedPrice   string
	ListedNOI     string
	ListCAP       string
	BrokerList    string
	OwnerCompany  string
	OwnerAddress1 string
	OwnerCity     string
	OwnerState    string
	OwnerZipCode  string
}

// ScrapedFields maps canonical field names to extracted values.
type ScrapedFields map[string]string

func (f ScrapedFields) Get(key string) string {
	if f == nil {
		return ""
	}

	return f[key]
}

type Column struct {
	Name  string
	Value string
}

type OutputRecord struct {
	Columns []Column
}

func (r OutputRecord) Header() []string {
	names := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		names[i] = c.Name
	}

	return names
}

func (r OutputRecord) Values() []string {
	values := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		values[i] = c.Value
	}

	return values
}

func (r OutputRecord) Get(name string) string {
	for _, c := range r.Columns {
		if c.Name == name {
			return c.Value
		}
	}

	return ""
}

type OutcomeKind string

const (
	OutcomeFound    OutcomeKind = "found"
	OutcomeNotFound OutcomeKind = "not_found"
	OutcomeFatal    OutcomeKind = "fatal"
)

// SearchOutcome is the tagged result of searching one coordinate.
type SearchOutcome struct {
	Kind   OutcomeKind
	Fields ScrapedFields
	Remark string
	Err    error
}

func Found(fields ScrapedFields, remark string) SearchOutcome {
	return SearchOutcome{Kind: OutcomeFound, Fields: fields, Remark: remark}
}

func NotFound(remark string) SearchOutcome {
	return SearchOutcome{Kind: OutcomeNotFound, Fields: ScrapedFields{}, Remark: remark}
}

func Fatal(err error) SearchOutcome {
	return SearchOutcome{Kind: OutcomeFatal, Err: err}
}

type RunReport struct {
	RunID      uuid.UUID
	InputPath  string
	OutputPath string
	Processed  int
	Found      int
	NotFound   int
	StartedAt  time.Time
	FinishedAt time.Time
}
