// Package lazytext provides custom error types for holder resolution and sequence assembly.
package lazytext

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ContractError reports a violated holder contract: an illegal length
// mutation, a production strategy that under-delivered its declared
// minimum, or a mutation of a sealed sequence.
type ContractError struct {
	Op      string
	Message string
}

func (e *ContractError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("contract violation during %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("contract violation: %s", e.Message)
}

// NewContractError creates a new contract error
func NewContractError(op, message string) error {
	return &ContractError{
		Op:      op,
		Message: message,
	}
}

// ProductionError wraps a failure raised by a supplier or stream while a
// holder was being resolved.
type ProductionError struct {
	Holder string
	Cause  error
}

func (e *ProductionError) Error() string {
	if e.Holder != "" {
		return fmt.Sprintf("production failed for %s holder: %v", e.Holder, e.Cause)
	}
	return fmt.Sprintf("production failed: %v", e.Cause)
}

func (e *ProductionError) Unwrap() error {
	return e.Cause
}

// NewProductionError creates a new production error
func NewProductionError(holder string, cause error) error {
	return &ProductionError{
		Holder: holder,
		Cause:  cause,
	}
}

// ScopeError reports that a scope declined an add, remove or resize.
type ScopeError struct {
	Op    string
	Cause error
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("scope rejected %s: %v", e.Op, e.Cause)
}

func (e *ScopeError) Unwrap() error {
	return e.Cause
}

// NewScopeError creates a new scope error
func NewScopeError(op string, cause error) error {
	return &ScopeError{
		Op:    op,
		Cause: cause,
	}
}

// ParseError represents an error while parsing a compose pattern
type ParseError struct {
	Message  string
	Token    string
	Position int
}

func (e *ParseError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("parse error at position %d near '%s': %s", e.Position, e.Token, e.Message)
	}
	return fmt.Sprintf("parse error at position %d: %s", e.Position, e.Message)
}

// NewParseError creates a new parse error
func NewParseError(message, token string, position int) error {
	return &ParseError{
		Message:  message,
		Token:    token,
		Position: position,
	}
}

// MultiError collects multiple errors
type MultiError struct {
	errors []error
}

// NewMultiError creates a new multi-error collector
func NewMultiError() *MultiError {
	return &MultiError{
		errors: make([]error, 0),
	}
}

// Add adds an error to the collection (ignores nil errors)
func (m *MultiError) Add(err error) {
	if err != nil {
		m.errors = append(m.errors, err)
	}
}

// Len returns the number of errors
func (m *MultiError) Len() int {
	return len(m.errors)
}

// Err returns the multi-error or nil if empty
func (m *MultiError) Err() error {
	if len(m.errors) == 0 {
		return nil
	}
	if len(m.errors) == 1 {
		return m.errors[0]
	}
	return m
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (m *MultiError) Unwrap() []error {
	return m.errors
}

func (m *MultiError) Error() string {
	if len(m.errors) == 0 {
		return "no errors"
	}

	if len(m.errors) == 1 {
		return m.errors[0].Error()
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("%d errors occurred:", len(m.errors)))
	for i, err := range m.errors {
		parts = append(parts, fmt.Sprintf("  [%d] %v", i+1, err))
	}
	return strings.Join(parts, "\n")
}

// ContextError adds context to an existing error
type ContextError struct {
	Operation string
	Context   map[string]interface{}
	Cause     error
}

func (e *ContextError) Error() string {
	if len(e.Context) == 0 {
		return fmt.Sprintf("%s: %v", e.Operation, e.Cause)
	}
	// Keys are sorted so the same failure always renders the same way.
	parts := make([]string, 0, len(e.Context))
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, e.Context[k]))
	}
	return fmt.Sprintf("%s [%s]: %v", e.Operation, strings.Join(parts, ", "), e.Cause)
}

func (e *ContextError) Unwrap() error {
	return e.Cause
}

// WithContext wraps an error with additional context
func WithContext(err error, operation string, context map[string]interface{}) error {
	if err == nil {
		return nil
	}
	return &ContextError{
		Operation: operation,
		Context:   context,
		Cause:     err,
	}
}

// RecoverError converts a panic recovery value to an error
func RecoverError(r interface{}) error {
	switch v := r.(type) {
	case error:
		return fmt.Errorf("panic recovered: %w", v)
	case string:
		return fmt.Errorf("panic recovered: %s", v)
	default:
		return fmt.Errorf("panic recovered: %v", v)
	}
}

// IsContractError checks if an error is, or wraps, a contract error
func IsContractError(err error) bool {
	var target *ContractError
	return errors.As(err, &target)
}

// IsProductionError checks if an error is, or wraps, a production error
func IsProductionError(err error) bool {
	var target *ProductionError
	return errors.As(err, &target)
}

// IsScopeError checks if an error is, or wraps, a scope error
func IsScopeError(err error) bool {
	var target *ScopeError
	return errors.As(err, &target)
}

// IsParseError checks if an error is a parse error
func IsParseError(err error) bool {
	var target *ParseError
	return errors.As(err, &target)
}
