package apperr

import (
	"errors"
	"fmt"
)

const (
	MetaReason     = "reason"
	MetaStage      = "stage"
	MetaField      = "field"
	MetaSelector   = "selector"
	MetaURL        = "url"
	MetaCoordinate = "coordinate"
	MetaPath       = "path"

	StageConfig      = "config"
	StageBrowser     = "browser"
	StageAuth        = "auth"
	StageSearch      = "search"
	StageMarker      = "marker"
	StageExtraction  = "extraction"
	StageNavigation  = "navigation"
	StageInteraction = "interaction"
	StageInput       = "input"
	StageOutput      = "output"

	CodeInternal        = "internal"
	CodeInvalidArgument = "invalid_argument"
	CodeNotFound        = "not_found"
	CodeTimeout         = "timeout"
	CodeCancelled       = "cancelled"
	CodeBrowserNotReady = "browser_not_ready"
	CodeActionFailed    = "action_failed"
	CodeAutomation      = "unexpected_automation"
	CodeNoRecords       = "no_records"
	CodeInvalidInput    = "invalid_input"
	CodeOutputFailed    = "output_failed"

	// Authentication failures. All of them abort the run.
	CodeSessionCookieTimeout  = "session_cookie_timeout"
	CodeLoginRejected         = "login_rejected"
	CodeEntryPointUnavailable = "entry_point_unavailable"
	CodeSessionExpired        = "session_expired"
)

var authCodes = map[string]struct{}{
	CodeSessionCookieTimeout:  {},
	CodeLoginRejected:         {},
	CodeEntryPointUnavailable: {},
	CodeSessionExpired:        {},
}

type Error struct {
	Op       string
	Code     string
	Err      error
	Metadata map[string]any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}

	return e.Op
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Wrap(op, code string, err error, metadata map[string]any) error {
	if metadata == nil {
		metadata = make(map[string]any)
	}

	return &Error{
		Op:       op,
		Code:     code,
		Err:      err,
		Metadata: metadata,
	}
}

func WrapWithReason(op, code string, err error, reason string) error {
	return Wrap(op, code, err, map[string]any{
		MetaReason: reason,
	})
}

func WrapErrorWithReason(op, code, reason string) error {
	return Wrap(op, code, errors.New(reason), map[string]any{
		MetaReason: reason,
	})
}

func InvalidReqError(op, field string, err error) error {
	return Wrap(op, CodeInvalidArgument, err, map[string]any{
		MetaField:  field,
		MetaReason: "invalid_request",
	})
}

func NotFoundError(op string, err error) error {
	return Wrap(op, CodeNotFound, err, map[string]any{
		MetaReason: "not_found",
	})
}

// AuthError builds a failure of the login handshake.
func AuthError(op, code, reason string, err error) error {
	if err == nil {
		err = errors.New(reason)
	}

	return Wrap(op, code, err, map[string]any{
		MetaReason: reason,
		MetaStage:  StageAuth,
	})
}

// CodeOf returns the code of the outermost *Error in the chain, or "".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ""
}

// HasCode reports whether any *Error in the chain carries code.
func HasCode(err error, code string) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}

		if e.Code == code {
			return true
		}

		err = e.Err
	}

	return false
}

func IsAuthError(err error) bool {
	for code := range authCodes {
		if HasCode(err, code) {
			return true
		}
	}

	return false
}

func IsTimeout(err error) bool {
	return HasCode(err, CodeTimeout)
}
