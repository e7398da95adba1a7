// Package deploy provides the core types and components for the Fabric
// deployment orchestration engine. It defines the 5-phase deployment workflow:
// Validation -> Planning -> Infrastructure -> Artifacts -> Verification.
package deploy

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorClass represents the classification of a deployment error.
type ErrorClass string

const (
	// ErrorClassConfiguration indicates a configuration failure.
	// Examples: missing layer files, schema violations, invalid composition.
	ErrorClassConfiguration ErrorClass = "configuration"

	// ErrorClassValidation indicates a readiness or prerequisite failure.
	// Always carries a non-empty reason list.
	ErrorClassValidation ErrorClass = "validation"

	// ErrorClassInfrastructure indicates a failed infrastructure tool operation.
	ErrorClassInfrastructure ErrorClass = "infrastructure"

	// ErrorClassArtifact indicates an artifact discovery or content failure.
	ErrorClassArtifact ErrorClass = "artifact"
)

// Error represents a classified deployment error with context.
type Error struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Code is an optional error code for programmatic handling.
	Code string `json:"code,omitempty"`

	// Customer is the customer the error relates to, if applicable.
	Customer string `json:"customer,omitempty"`

	// Environment is the target environment, if applicable.
	Environment string `json:"environment,omitempty"`

	// Reasons lists the individual failures behind this error, such as
	// every missing field found during composition validation.
	Reasons []string `json:"reasons,omitempty"`

	// Err is the underlying error that caused this error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Class, e.Message)
	if e.Customer != "" {
		fmt.Fprintf(&b, " (customer=%s", e.Customer)
		if e.Environment != "" {
			fmt.Fprintf(&b, ", environment=%s", e.Environment)
		}
		b.WriteString(")")
	}
	if len(e.Reasons) > 0 {
		fmt.Fprintf(&b, ": %s", strings.Join(e.Reasons, "; "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error equality checking for errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Class == t.Class && (t.Code == "" || e.Code == t.Code)
}

// NewConfigurationError creates a new configuration error.
func NewConfigurationError(message string, err error) *Error {
	return &Error{Class: ErrorClassConfiguration, Message: message, Err: err}
}

// NewValidationError creates a new validation error carrying its reasons.
func NewValidationError(message string, reasons []string) *Error {
	return &Error{Class: ErrorClassValidation, Message: message, Reasons: reasons}
}

// NewInfrastructureError creates a new infrastructure error.
func NewInfrastructureError(message string, err error) *Error {
	return &Error{Class: ErrorClassInfrastructure, Message: message, Err: err}
}

// NewArtifactError creates a new artifact error.
func NewArtifactError(message string, err error) *Error {
	return &Error{Class: ErrorClassArtifact, Message: message, Err: err}
}

// WithCode adds an error code to an error.
func (e *Error) WithCode(code string) *Error {
	e.Code = code
	return e
}

// WithTarget adds customer/environment context to an error.
func (e *Error) WithTarget(customer, environment string) *Error {
	e.Customer = customer
	e.Environment = environment
	return e
}

// WithReasons adds individual failure reasons to an error.
func (e *Error) WithReasons(reasons ...string) *Error {
	e.Reasons = append(e.Reasons, reasons...)
	return e
}

// IsConfiguration returns true if the error is a configuration error.
func IsConfiguration(err error) bool {
	return hasClass(err, ErrorClassConfiguration)
}

// IsValidation returns true if the error is a validation error.
func IsValidation(err error) bool {
	return hasClass(err, ErrorClassValidation)
}

// IsInfrastructure returns true if the error is an infrastructure error.
func IsInfrastructure(err error) bool {
	return hasClass(err, ErrorClassInfrastructure)
}

// IsArtifact returns true if the error is an artifact error.
func IsArtifact(err error) bool {
	return hasClass(err, ErrorClassArtifact)
}

func hasClass(err error, class ErrorClass) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Class == class
	}
	return false
}

// Common error codes.
const (
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeSchemaViolation    = "SCHEMA_VIOLATION"
	ErrCodeCompositionInvalid = "COMPOSITION_INVALID"
	ErrCodeShapeInvalid       = "SHAPE_INVALID"
	ErrCodePrerequisites      = "PREREQUISITES_UNMET"
	ErrCodeToolFailed         = "TOOL_FAILED"
	ErrCodeDiscoveryFailed    = "DISCOVERY_FAILED"
	ErrCodeInvalidArgument    = "INVALID_ARGUMENT"
)
