// Package apperr defines the failure kinds surfaced by imagegen. Every error
// that reaches the command layer carries exactly one Kind so the CLI can pick a
// message and an exit code without inspecting error strings.
package apperr

import "errors"

// Kind categorizes a failure.
type Kind int

const (
	// KindUnknown is reported for errors that were never classified.
	KindUnknown Kind = iota
	// KindInvalidTemplate indicates an unknown template name.
	KindInvalidTemplate
	// KindMissingRequiredParameter indicates a template parameter was not supplied.
	KindMissingRequiredParameter
	// KindInvalidParameter indicates an out-of-range weight, a malformed aspect ratio or URL.
	KindInvalidParameter
	// KindAuthenticationFailed indicates the API key is absent or was rejected.
	KindAuthenticationFailed
	// KindSubmissionFailed indicates the imagine call failed.
	KindSubmissionFailed
	// KindPollingFailed indicates repeated transient failures while polling.
	KindPollingFailed
	// KindTimedOut indicates the job did not reach a terminal state in time.
	KindTimedOut
	// KindGenerationFailed indicates the remote job finished in a failed state.
	KindGenerationFailed
	// KindDownloadFailed indicates a result URL could not be fetched or written.
	KindDownloadFailed
)

var kindNames = map[Kind]string{
	KindUnknown:                  "Unknown",
	KindInvalidTemplate:          "InvalidTemplate",
	KindMissingRequiredParameter: "MissingRequiredParameter",
	KindInvalidParameter:         "InvalidParameter",
	KindAuthenticationFailed:     "AuthenticationFailed",
	KindSubmissionFailed:         "SubmissionFailed",
	KindPollingFailed:            "PollingFailed",
	KindTimedOut:                 "TimedOut",
	KindGenerationFailed:         "GenerationFailed",
	KindDownloadFailed:           "DownloadFailed",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Error is a classified failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind, so callers can
// write errors.Is(err, &apperr.Error{Kind: apperr.KindTimedOut}).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// New returns an *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap returns an *Error of the given kind wrapping err.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
