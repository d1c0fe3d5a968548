// Package errors provides custom error types for the stocksync system.
// These errors enable programmatic error checking across the reconciliation
// engine, the remote catalog client, and the persisted ledger.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the stocksync system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimitExhausted indicates that the remote kept returning 429
	// past the configured attempt ceiling
	ErrRateLimitExhausted = errors.New("rate limit exhausted")

	// ErrRemoteUnavailable indicates that the remote repeatedly failed with
	// a server error or a transient network fault
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// ErrRemoteRejected indicates that the remote rejected the request
	// permanently (a 4xx other than 429); these are never retried
	ErrRemoteRejected = errors.New("remote rejected")

	// ErrMatchAmbiguous indicates more than one container satisfied the
	// open-container predicate but their options could not be determined
	ErrMatchAmbiguous = errors.New("match ambiguous")

	// ErrLedgerInconsistent indicates the ledger references a variant that
	// no longer exists remotely
	ErrLedgerInconsistent = errors.New("ledger inconsistent")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")
)

// APIError represents an error from the remote catalog API.
type APIError struct {
	Operation  string // "find", "create", "update", "bulk_adjust", ...
	StatusCode int
	Message    string
	Endpoint   string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error during %s (status %d): %s", e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *APIError) Is(target error) bool {
	if e.StatusCode == 429 {
		return target == ErrRateLimitExhausted
	}
	if e.StatusCode >= 500 {
		return target == ErrRemoteUnavailable
	}
	if e.StatusCode >= 400 {
		return target == ErrRemoteRejected
	}
	return false
}

// NewAPIError creates a new APIError
func NewAPIError(operation string, statusCode int, message string) *APIError {
	return &APIError{
		Operation:  operation,
		StatusCode: statusCode,
		Message:    message,
	}
}

// FeedError represents an error while reading or mapping a supplier feed.
type FeedError struct {
	Supplier string
	File     string
	Line     int
	Message  string
	Err      error
}

// Error implements the error interface
func (e *FeedError) Error() string {
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("feed error for %s at %s:%d: %s", e.Supplier, e.File, e.Line, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("feed error for %s in %s: %s", e.Supplier, e.File, e.Message)
	}
	return fmt.Sprintf("feed error for %s: %s", e.Supplier, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *FeedError) Unwrap() error {
	return e.Err
}

// NewFeedError creates a new FeedError
func NewFeedError(supplier, file, message string, err error) *FeedError {
	return &FeedError{
		Supplier: supplier,
		File:     file,
		Message:  message,
		Err:      err,
	}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// LedgerError represents an error against the persisted identity ledger.
type LedgerError struct {
	Operation  string // "load", "merge", "persist", "lookup"
	Identifier string
	Message    string
	Err        error
}

// Error implements the error interface
func (e *LedgerError) Error() string {
	if e.Identifier != "" {
		return fmt.Sprintf("ledger error during %s of %s: %s", e.Operation, e.Identifier, e.Message)
	}
	return fmt.Sprintf("ledger error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *LedgerError) Unwrap() error {
	return e.Err
}

// NewLedgerError creates a new LedgerError
func NewLedgerError(operation, identifier string, err error) *LedgerError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &LedgerError{
		Operation:  operation,
		Identifier: identifier,
		Message:    message,
		Err:        err,
	}
}

// StaleEntryError indicates a ledger entry whose remote variant is gone.
type StaleEntryError struct {
	Identifier string
	ProductID  int64
	VariantID  int64
}

// Error implements the error interface
func (e *StaleEntryError) Error() string {
	return fmt.Sprintf("ledger entry for %s references missing variant %d on product %d",
		e.Identifier, e.VariantID, e.ProductID)
}

// Is implements errors.Is support
func (e *StaleEntryError) Is(target error) bool {
	return target == ErrLedgerInconsistent
}

// MatchError represents an ambiguous container match for a style.
type MatchError struct {
	Style      string
	Candidates []int64
	Message    string
}

// Error implements the error interface
func (e *MatchError) Error() string {
	if len(e.Candidates) > 0 {
		return fmt.Sprintf("ambiguous match for style %s across products %v: %s", e.Style, e.Candidates, e.Message)
	}
	return fmt.Sprintf("ambiguous match for style %s: %s", e.Style, e.Message)
}

// Is implements errors.Is support
func (e *MatchError) Is(target error) bool {
	return target == ErrMatchAmbiguous
}

// NewMatchError creates a new MatchError
func NewMatchError(style string, candidates []int64, message string) *MatchError {
	return &MatchError{
		Style:      style,
		Candidates: candidates,
		Message:    message,
	}
}

// SyncError represents an error during a reconciliation run.
type SyncError struct {
	Style string
	Items []string
	Err   error
}

// Error implements the error interface
func (e *SyncError) Error() string {
	if len(e.Items) > 0 {
		return fmt.Sprintf("sync error for style %s (affected items: %v): %v", e.Style, e.Items, e.Err)
	}
	return fmt.Sprintf("sync error for style %s: %v", e.Style, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *SyncError) Unwrap() error {
	return e.Err
}

// NewSyncError creates a new SyncError
func NewSyncError(style string, items []string, err error) *SyncError {
	return &SyncError{
		Style: style,
		Items: items,
		Err:   err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "delete", "open", "close"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRateLimitExhausted checks if an error is a rate limit exhaustion
func IsRateLimitExhausted(err error) bool {
	return errors.Is(err, ErrRateLimitExhausted)
}

// IsRemoteUnavailable checks if an error indicates remote unavailability
func IsRemoteUnavailable(err error) bool {
	return errors.Is(err, ErrRemoteUnavailable)
}

// IsRemoteRejected checks if an error is a permanent remote rejection
func IsRemoteRejected(err error) bool {
	return errors.Is(err, ErrRemoteRejected)
}

// IsLedgerInconsistent checks if an error is a stale ledger reference
func IsLedgerInconsistent(err error) bool {
	return errors.Is(err, ErrLedgerInconsistent)
}

// IsMatchAmbiguous checks if an error is an ambiguous container match
func IsMatchAmbiguous(err error) bool {
	return errors.Is(err, ErrMatchAmbiguous)
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapAPI wraps an error as an APIError
func WrapAPI(operation string, statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return &APIError{
		Operation:  operation,
		StatusCode: statusCode,
		Message:    err.Error(),
		Err:        err,
	}
}

// WrapFeed wraps an error as a FeedError
func WrapFeed(supplier, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewFeedError(supplier, file, err.Error(), err)
}

// WrapLedger wraps an error as a LedgerError
func WrapLedger(operation, identifier string, err error) error {
	if err == nil {
		return nil
	}
	return NewLedgerError(operation, identifier, err)
}
