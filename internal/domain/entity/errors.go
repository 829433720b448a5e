package entity

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind identifies which engine stage failed.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindProbe
	KindExtraction
	KindEncoding
)

func (k ErrorKind) String() string {
	switch k {
	case KindProbe:
		return "probe"
	case KindExtraction:
		return "extraction"
	case KindEncoding:
		return "encoding"
	}
	return "unknown"
}

var (
	// ErrProbe matches any EngineError of KindProbe.
	ErrProbe = errors.New("probe failed")
	// ErrExtraction matches any EngineError of KindExtraction.
	ErrExtraction = errors.New("frame extraction failed")
	// ErrEncoding matches any EngineError of KindEncoding.
	ErrEncoding = errors.New("encoding failed")

	ErrNoVideoStream = errors.New("no video stream")
	ErrMissingField  = errors.New("missing metadata field")
)

// EngineError is returned for every failed ffmpeg/ffprobe invocation and for
// engine output that could not be interpreted.
type EngineError struct {
	Kind       ErrorKind
	Op         string
	Diagnostic string
	Err        error
}

func NewEngineError(kind ErrorKind, op string, diagnostic []byte, err error) *EngineError {
	return &EngineError{
		Kind:       kind,
		Op:         op,
		Diagnostic: strings.TrimSpace(string(diagnostic)),
		Err:        err,
	}
}

func (e *EngineError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s stage failed", e.Kind)
	if e.Op != "" {
		fmt.Fprintf(&b, " (%s)", e.Op)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Diagnostic != "" {
		fmt.Fprintf(&b, ", output: %s", e.Diagnostic)
	}
	return b.String()
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

func (e *EngineError) Is(target error) bool {
	switch target {
	case ErrProbe:
		return e.Kind == KindProbe
	case ErrExtraction:
		return e.Kind == KindExtraction
	case ErrEncoding:
		return e.Kind == KindEncoding
	}
	return false
}

// KindOf returns the kind of the first EngineError in err's chain.
func KindOf(err error) ErrorKind {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Kind
	}
	return KindUnknown
}

// RetryError is returned for a failed attempt that should be redelivered.
// Attempt counts from 1.
type RetryError struct {
	Attempt     int
	MaxAttempts int
	Err         error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("retryable failure (attempt %d/%d): %v", e.Attempt, e.MaxAttempts, e.Err)
}

func (e *RetryError) Unwrap() error {
	return e.Err
}
