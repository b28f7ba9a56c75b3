// Package errors provides standardized error handling for the matching engine.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	ErrCodeEmbeddingUnavailable ErrorCode = "EMBEDDING_UNAVAILABLE"
	ErrCodeEmbeddingTimeout     ErrorCode = "EMBEDDING_TIMEOUT"

	ErrCodeLexicalIndexFailed ErrorCode = "LEXICAL_INDEX_FAILED"
	ErrCodeEmptyCorpus        ErrorCode = "EMPTY_CORPUS"

	ErrCodeCalibrationNotFitted   ErrorCode = "CALIBRATION_NOT_FITTED"
	ErrCodeCalibrationDataInvalid ErrorCode = "CALIBRATION_DATA_INVALID"

	ErrCodeThresholdConfigMissing ErrorCode = "THRESHOLD_CONFIG_MISSING"

	ErrCodeRegistryInvalid       ErrorCode = "REGISTRY_INVALID"
	ErrCodeAlgorithmNotFound     ErrorCode = "ALGORITHM_NOT_FOUND"
	ErrCodeCacheOperationFailed  ErrorCode = "CACHE_OPERATION_FAILED"
	ErrCodeRepositoryUnavailable ErrorCode = "REPOSITORY_UNAVAILABLE"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewEmbeddingUnavailableError creates a retryable embedding service error.
// Callers are expected to degrade to lexical/structured scoring, not abort.
func NewEmbeddingUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmbeddingUnavailable,
		Message:   "Embedding service unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmbeddingTimeoutError creates a retryable embedding timeout error.
func NewEmbeddingTimeoutError(model string) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmbeddingTimeout,
		Message:   "Embedding request timed out",
		Details:   fmt.Sprintf("model: %s", model),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLexicalIndexFailedError creates a non-retryable index build error.
func NewLexicalIndexFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLexicalIndexFailed,
		Message:   "Lexical index build failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmptyCorpusError creates a non-retryable empty corpus error.
func NewEmptyCorpusError() *StandardError {
	return &StandardError{
		Code:      ErrCodeEmptyCorpus,
		Message:   "No documents to index",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCalibrationDataInvalidError creates a non-retryable training data error.
func NewCalibrationDataInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCalibrationDataInvalid,
		Message:   "Invalid calibration training data",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAlgorithmNotFoundError creates a non-retryable registry lookup error.
func NewAlgorithmNotFoundError(name string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAlgorithmNotFound,
		Message:   "Matching algorithm not found in registry",
		Details:   fmt.Sprintf("algorithm: %s", name),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRegistryInvalidError creates a non-retryable registry validation error.
func NewRegistryInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRegistryInvalid,
		Message:   "Algorithm registry failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Helpers
// ==========================

// IsRetryable reports whether err (or any wrapped StandardError) is retryable.
func IsRetryable(err error) bool {
	var se *StandardError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}

// CodeOf extracts the error code from err, or empty string.
func CodeOf(err error) ErrorCode {
	var se *StandardError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// WithMetadata attaches key/value context to a StandardError.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
	}
	e.Metadata[key] = value
	return e
}
