package statefulcontent

import (
	"errors"
	"fmt"
	"time"
)

// Error types.
var (
	// ErrNoContent indicates a fetch succeeded but matched no entries
	ErrNoContent = errors.New("no content")

	// ErrDecode indicates a payload did not match the content schema
	ErrDecode = errors.New("decode failed")

	// ErrFetch indicates a transport, auth or rate-limit failure
	ErrFetch = errors.New("fetch failed")

	// ErrFetcherNotConfigured indicates no fetcher is set up for an API mode
	ErrFetcherNotConfigured = errors.New("fetcher not configured")
)

// DecodeError represents a malformed or schema-mismatched payload.
type DecodeError struct {
	ContentType string
	EntryID     Identifier
	Field       FieldKey
	Err         error
}

func (e *DecodeError) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("decode %s %s: field %s: %v", e.ContentType, e.EntryID, e.Field, e.Err)
	case e.EntryID != "":
		return fmt.Sprintf("decode %s %s: %v", e.ContentType, e.EntryID, e.Err)
	default:
		return fmt.Sprintf("decode payload: %v", e.Err)
	}
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is makes every DecodeError match ErrDecode.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// NoContentError is returned when a lookup by slug matched nothing. Route is
// the deep link path that could not be served, e.g. "courses/intro".
type NoContentError struct {
	ContentType string
	Route       string
}

func (e *NoContentError) Error() string {
	return fmt.Sprintf("no %s found for route %s", e.ContentType, e.Route)
}

// Is makes every NoContentError match ErrNoContent.
func (e *NoContentError) Is(target error) bool {
	return target == ErrNoContent
}

// NewNoCourseError reports a missing course.
func NewNoCourseError(slug string) *NoContentError {
	return &NoContentError{ContentType: ContentTypeCourse, Route: "courses/" + slug}
}

// NewNoLessonsError reports a missing lesson within a course.
func NewNoLessonsError(courseSlug, lessonSlug string) *NoContentError {
	return &NoContentError{ContentType: ContentTypeLesson, Route: "courses/" + courseSlug + "/lessons/" + lessonSlug}
}

// FetchError represents a failed request against a Contentful API.
type FetchError struct {
	Mode        APIMode
	StatusCode  int
	Message     string
	RateLimited bool
	RetryAfter  time.Duration
	Err         error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("%s fetch failed", e.Mode)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" with status %d", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is makes every FetchError match ErrFetch.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// IsContentError reports whether err should be shown to the user as missing
// or malformed content rather than as a transport failure.
func IsContentError(err error) bool {
	return errors.Is(err, ErrNoContent) || errors.Is(err, ErrDecode)
}
