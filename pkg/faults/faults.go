// Package faults defines the coded error taxonomy shared across the decision
// pipeline. Services return *Fault values so transport and audit layers can
// translate them without string matching.
//
// Real-time path faults (SIGNAL_*, POLICY_*, BUDGET_EXCEEDED) are never
// propagated to the caller as errors: the orchestrator folds them into a
// conservative decision and records the code as a reason. Only intake
// validation (INVALID_INPUT) and transport-level failures surface directly.
package faults

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a fault class.
type Code string

const (
	CodeInvalidInput        Code = "INVALID_INPUT"
	CodeSignalTimeout       Code = "SIGNAL_TIMEOUT"
	CodeSignalUnavailable   Code = "SIGNAL_UNAVAILABLE"
	CodePolicyInputInvalid  Code = "POLICY_INPUT_INVALID"
	CodeBudgetExceeded      Code = "BUDGET_EXCEEDED"
	CodeSchemaViolation     Code = "SANITIZATION_SCHEMA_VIOLATION"
	CodeAgentTimeout        Code = "AGENT_TIMEOUT"
	CodeAgentFailed         Code = "AGENT_FAILED"
	CodeAuditWriteFailed    Code = "AUDIT_WRITE_FAILED"
	CodeDuplicateSubmission Code = "DUPLICATE_SUBMISSION"
	CodeNotFound            Code = "NOT_FOUND"
	CodeUnauthorized        Code = "UNAUTHORIZED"
	CodeInternal            Code = "INTERNAL"
)

// Fault is a coded error. Wrap an underlying cause with Wrap so errors.Is and
// errors.As keep working through the pipeline.
type Fault struct {
	Code    Code
	Message string
	cause   error
}

func New(code Code, message string) *Fault {
	return &Fault{Code: code, Message: message}
}

func Newf(code Code, format string, args ...any) *Fault {
	return &Fault{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, message string, cause error) *Fault {
	return &Fault{Code: code, Message: message, cause: cause}
}

func (f *Fault) Error() string {
	if f.cause != nil {
		return fmt.Sprintf("%s: %s: %v", f.Code, f.Message, f.cause)
	}
	return fmt.Sprintf("%s: %s", f.Code, f.Message)
}

func (f *Fault) Unwrap() error { return f.cause }

// CodeOf extracts the fault code from an error chain, defaulting to INTERNAL.
func CodeOf(err error) Code {
	var f *Fault
	if errors.As(err, &f) {
		return f.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps fault codes to HTTP status codes for the transport layer.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeDuplicateSubmission:
		return http.StatusConflict
	case CodeBudgetExceeded, CodeSignalTimeout, CodeSignalUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
