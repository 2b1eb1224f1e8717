// Package errors provides structured error handling for the catalog.
// It defines the error taxonomy shared by the media and point-of-interest
// modules: sentinel errors, a structured CatalogError carrying operation
// context, and HTTP response helpers for the API layer.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies a catalog error
type ErrorType string

const (
	// ErrorTypeNotFound indicates a filter matched nothing where an entity was required
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeValidation indicates a malformed or rejected changeset
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeUpstream indicates a platform provider call failed
	ErrorTypeUpstream ErrorType = "upstream"
	// ErrorTypePartial indicates a bulk operation affected fewer entities than requested
	ErrorTypePartial ErrorType = "partial"
	// ErrorTypeStorage indicates a document store operation failed
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypeInternal indicates an internal error
	ErrorTypeInternal ErrorType = "internal"
)

// Sentinel errors for common scenarios
var (
	// ErrMediaNotFound indicates a media record doesn't exist
	ErrMediaNotFound = errors.New("media not found")

	// ErrPointNotFound indicates a point of interest doesn't exist
	ErrPointNotFound = errors.New("point of interest not found")

	// ErrPointNotReferenced indicates a POI id absent from the media's reference lists
	ErrPointNotReferenced = errors.New("point of interest not referenced by media")

	// ErrProviderNotFound indicates no provider is registered for a platform type
	ErrProviderNotFound = errors.New("platform provider not found")

	// ErrPartialCompletion indicates a bulk operation completed for fewer entities than requested
	ErrPartialCompletion = errors.New("operation completed partially")

	// ErrInvalidInput indicates invalid request parameters
	ErrInvalidInput = errors.New("invalid input")
)

// CatalogError provides structured error information with context
type CatalogError struct {
	Type    ErrorType
	Op      string // operation that failed (e.g. "media.remove", "poi.convert")
	MediaID string
	PointID string
	Err     error
}

// Error implements the error interface
func (e *CatalogError) Error() string {
	switch {
	case e.MediaID != "":
		return fmt.Sprintf("%s error in %s [media=%s]: %v", e.Type, e.Op, e.MediaID, e.Err)
	case e.PointID != "":
		return fmt.Sprintf("%s error in %s [poi=%s]: %v", e.Type, e.Op, e.PointID, e.Err)
	default:
		return fmt.Sprintf("%s error in %s: %v", e.Type, e.Op, e.Err)
	}
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *CatalogError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for sentinel errors
func (e *CatalogError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// New creates a new CatalogError
func New(errType ErrorType, op string, err error) *CatalogError {
	return &CatalogError{
		Type: errType,
		Op:   op,
		Err:  err,
	}
}

// WithMedia adds media context to the error
func (e *CatalogError) WithMedia(mediaID string) *CatalogError {
	e.MediaID = mediaID
	return e
}

// WithPoint adds point-of-interest context to the error
func (e *CatalogError) WithPoint(pointID string) *CatalogError {
	e.PointID = pointID
	return e
}

// Upstream wraps a platform provider failure. The cause stays reachable
// through Unwrap so callers see the provider error verbatim.
func Upstream(op string, err error) *CatalogError {
	return New(ErrorTypeUpstream, op, err)
}

// Partial builds the bulk count-mismatch error.
func Partial(op string, requested, completed int) *CatalogError {
	return New(ErrorTypePartial, op,
		fmt.Errorf("%w: %d of %d", ErrPartialCompletion, completed, requested))
}

// Is re-exports errors.Is for callers that alias this package.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As re-exports errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
