// Package browsertest provides an in-memory ports.BrowserManager for tests.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"property-scraper/internal/entity"
	"property-scraper/pkg/apperr"
)

// Fake models a page as a set of present selectors, bounding boxes, markup
// and field values. Hooks let a test react to clicks and key presses the way
// the real application would. It is not safe for concurrent use.
type Fake struct {
	URL     string
	Present map[string]bool
	Boxes   map[string]entity.BoundingBox
	HTML    map[string]string
	Values  map[string]string
	Cookies map[string]bool
	Eval    map[string]interface{}

	// Errors forces an operation (by method name) to fail.
	Errors map[string]error

	OnNavigate func(f *Fake, url string)
	OnClick    func(f *Fake, selector string)
	OnClickAt  func(f *Fake, x, y float64)
	OnPress    func(f *Fake, selector, key string)

	Calls       []string
	Clicks      []entity.Point
	Moves       []entity.Point
	Screenshots []string
	Launched    bool
	Closed      bool
}

func New() *Fake {
	return &Fake{
		Present: make(map[string]bool),
		Boxes:   make(map[string]entity.BoundingBox),
		HTML:    make(map[string]string),
		Values:  make(map[string]string),
		Cookies: make(map[string]bool),
		Eval:    make(map[string]interface{}),
		Errors:  make(map[string]error),
	}
}

// Count returns how many times the named method was called.
func (f *Fake) Count(method string) int {
	n := 0
	for _, c := range f.Calls {
		if c == method {
			n++
		}
	}

	return n
}

func (f *Fake) record(method string) error {
	f.Calls = append(f.Calls, method)

	return f.Errors[method]
}

func timeout(op, what string) error {
	return apperr.Wrap(op, apperr.CodeTimeout, fmt.Errorf("timed out waiting for %s", what), map[string]any{
		apperr.MetaReason: "fake_timeout",
	})
}

func (f *Fake) Launch(ctx context.Context) error {
	if err := f.record("Launch"); err != nil {
		return err
	}

	f.Launched = true

	return nil
}

func (f *Fake) Close(ctx context.Context) error {
	f.Closed = true

	return f.record("Close")
}

func (f *Fake) Navigate(ctx context.Context, url string) error {
	if err := f.record("Navigate"); err != nil {
		return err
	}

	f.URL = url

	if f.OnNavigate != nil {
		f.OnNavigate(f, url)
	}

	return nil
}

func (f *Fake) CurrentURL() string {
	return f.URL
}

func (f *Fake) WaitForCookie(ctx context.Context, name string, _ time.Duration) error {
	if err := f.record("WaitForCookie"); err != nil {
		return err
	}

	if !f.Cookies[name] {
		return timeout("WaitForCookie", "cookie "+name)
	}

	return nil
}

func (f *Fake) WaitForURLChange(ctx context.Context, from string, _ time.Duration) error {
	if err := f.record("WaitForURLChange"); err != nil {
		return err
	}

	if f.URL == from {
		return timeout("WaitForURLChange", "navigation away from "+from)
	}

	return nil
}

func (f *Fake) WaitForSelector(ctx context.Context, selector string, _ time.Duration) error {
	if err := f.record("WaitForSelector"); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return apperr.Wrap("WaitForSelector", apperr.CodeCancelled, err, nil)
	}

	if !f.Present[selector] {
		return timeout("WaitForSelector", selector)
	}

	return nil
}

func (f *Fake) Click(ctx context.Context, selector string) error {
	if err := f.record("Click"); err != nil {
		return err
	}

	if !f.Present[selector] {
		return apperr.Wrap("Click", apperr.CodeActionFailed, errors.New("element not found"), map[string]any{
			apperr.MetaSelector: selector,
		})
	}

	if f.OnClick != nil {
		f.OnClick(f, selector)
	}

	return nil
}

func (f *Fake) ClickAtCoordinates(ctx context.Context, x, y float64) error {
	if err := f.record("ClickAtCoordinates"); err != nil {
		return err
	}

	f.Clicks = append(f.Clicks, entity.Point{X: x, Y: y})

	if f.OnClickAt != nil {
		f.OnClickAt(f, x, y)
	}

	return nil
}

func (f *Fake) MoveMouse(ctx context.Context, x, y float64) error {
	if err := f.record("MoveMouse"); err != nil {
		return err
	}

	f.Moves = append(f.Moves, entity.Point{X: x, Y: y})

	return nil
}

func (f *Fake) Fill(ctx context.Context, selector, value string) error {
	if err := f.record("Fill"); err != nil {
		return err
	}

	f.Values[selector] = value

	return nil
}

func (f *Fake) Press(ctx context.Context, selector, key string) error {
	if err := f.record("Press"); err != nil {
		return err
	}

	if f.OnPress != nil {
		f.OnPress(f, selector, key)
	}

	return nil
}

func (f *Fake) BoundingBox(ctx context.Context, selector string) (*entity.BoundingBox, error) {
	if err := f.record("BoundingBox"); err != nil {
		return nil, err
	}

	box, ok := f.Boxes[selector]
	if !ok {
		return nil, apperr.NotFoundError("BoundingBox", fmt.Errorf("element not found: %s", selector))
	}

	return &box, nil
}

func (f *Fake) OuterHTML(ctx context.Context, selector string) (string, error) {
	if err := f.record("OuterHTML"); err != nil {
		return "", err
	}

	html, ok := f.HTML[selector]
	if !ok {
		return "", apperr.NotFoundError("OuterHTML", fmt.Errorf("element not found: %s", selector))
	}

	return html, nil
}

func (f *Fake) EvaluateJS(ctx context.Context, script string) (interface{}, error) {
	if err := f.record("EvaluateJS"); err != nil {
		return nil, err
	}

	return f.Eval[script], nil
}

func (f *Fake) Screenshot(ctx context.Context, path string) error {
	if err := f.record("Screenshot"); err != nil {
		return err
	}

	f.Screenshots = append(f.Screenshots, path)

	return nil
}

func (f *Fake) IsReady() bool {
	return f.Launched && !f.Closed
}
