// Package upstream describes failures reported by the collaborators that
// feed the navigator: the position source, the orientation source and the
// address resolver. They are categorized so callers can react with
// errors.Is, and they are plain data so they travel over MQTT as JSON.
package upstream

import (
	"errors"
	"fmt"
)

// Reason is the category of an upstream failure.
type Reason string

const (
	PermissionDenied       Reason = "permission-denied"
	PositionUnavailable    Reason = "position-unavailable"
	Timeout                Reason = "timeout"
	NoMatch                Reason = "no-match"
	TransportError         Reason = "transport-error"
	InvalidCoordinates     Reason = "invalid-coordinates"
	OrientationUnavailable Reason = "orientation-unavailable"
)

// Source names the collaborator that failed.
const (
	SourcePosition    = "position"
	SourceOrientation = "orientation"
	SourceResolver    = "resolver"
)

// Sentinels for errors.Is. Only the reason is compared.
var (
	ErrPermissionDenied       = &Error{Reason: PermissionDenied}
	ErrPositionUnavailable    = &Error{Reason: PositionUnavailable}
	ErrTimeout                = &Error{Reason: Timeout}
	ErrNoMatch                = &Error{Reason: NoMatch}
	ErrTransport              = &Error{Reason: TransportError}
	ErrInvalidCoordinates     = &Error{Reason: InvalidCoordinates}
	ErrOrientationUnavailable = &Error{Reason: OrientationUnavailable}
)

// Error is a categorized failure from an upstream collaborator.
type Error struct {
	Source  string `json:"source"`
	Reason  Reason `json:"reason"`
	Message string `json:"message,omitempty"`
}

// New builds an Error with a formatted message.
func New(source string, reason Reason, format string, args ...any) *Error {
	return &Error{Source: source, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	switch {
	case e.Source == "" && e.Message == "":
		return string(e.Reason)
	case e.Message == "":
		return fmt.Sprintf("%s: %s", e.Source, e.Reason)
	case e.Source == "":
		return fmt.Sprintf("%s: %s", e.Reason, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Source, e.Reason, e.Message)
}

// Is matches any *Error with the same reason.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Reason == e.Reason
}

// Known reports whether r is one of the defined reasons.
func (r Reason) Known() bool {
	switch r {
	case PermissionDenied, PositionUnavailable, Timeout, NoMatch,
		TransportError, InvalidCoordinates, OrientationUnavailable:
		return true
	}
	return false
}

// ReasonOf extracts the reason from err, or "" when err is not an *Error.
func ReasonOf(err error) Reason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}
