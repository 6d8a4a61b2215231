// internal/common/errors/errors.go
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type ErrorCode string

const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	ErrCodeLLMTimeout       ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMOverloaded    ErrorCode = "LLM_OVERLOADED"
	ErrCodeLLMRequestFailed ErrorCode = "LLM_REQUEST_FAILED"

	ErrCodeAgentNoOutput   ErrorCode = "AGENT_NO_OUTPUT"
	ErrCodeIdeaParseFailed ErrorCode = "IDEA_PARSE_FAILED"
	ErrCodeToolFailed      ErrorCode = "TOOL_FAILED"

	ErrCodeSlackDeliveryFailed ErrorCode = "SLACK_DELIVERY_FAILED"
	ErrCodeArchiveFailed       ErrorCode = "ARCHIVE_FAILED"
	ErrCodeAlertFailed         ErrorCode = "ALERT_FAILED"
)

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

func newError(code ErrorCode, message string, cause error, retryable bool) *StandardError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewLLMTimeoutError(err error) *StandardError {
	return newError(ErrCodeLLMTimeout, "Anthropic API timeout", err, true)
}

func NewLLMOverloadedError(err error) *StandardError {
	return newError(ErrCodeLLMOverloaded, "Anthropic API overloaded", err, true)
}

func NewLLMRequestFailedError(err error) *StandardError {
	return newError(ErrCodeLLMRequestFailed, "Anthropic API request failed", err, false)
}

func NewAgentNoOutputError(agent string, iterations int) *StandardError {
	return &StandardError{
		Code:      ErrCodeAgentNoOutput,
		Message:   fmt.Sprintf("%s did not produce output after %d iterations", agent, iterations),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewIdeaParseFailedError(err error) *StandardError {
	return newError(ErrCodeIdeaParseFailed, "Could not parse JSON array from response", err, true)
}

func NewToolFailedError(tool string, err error) *StandardError {
	return newError(ErrCodeToolFailed, fmt.Sprintf("Tool '%s' failed", tool), err, false)
}

func NewSlackDeliveryFailedError(err error) *StandardError {
	return newError(ErrCodeSlackDeliveryFailed, "Slack delivery failed", err, true)
}

func NewArchiveFailedError(err error) *StandardError {
	return newError(ErrCodeArchiveFailed, "Archive write failed", err, true)
}

func NewAlertFailedError(err error) *StandardError {
	return newError(ErrCodeAlertFailed, "Failure alert could not be published", err, false)
}

// As returns the StandardError in err's chain, if any.
func As(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// CodeOf returns the error code carried by err, or INTERNAL_ERROR.
func CodeOf(err error) ErrorCode {
	if stdErr, ok := As(err); ok {
		return stdErr.Code
	}
	return "INTERNAL_ERROR"
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeLLMOverloaded,
		ErrCodeSlackDeliveryFailed,
		ErrCodeArchiveFailed:
		return 3

	case ErrCodeIdeaParseFailed,
		ErrCodeAgentNoOutput:
		return 2

	case ErrCodeLLMTimeout:
		return 1

	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "LLM"):
		return "LLM"
	case strings.HasPrefix(codeStr, "AGENT") || strings.HasPrefix(codeStr, "IDEA") || strings.HasPrefix(codeStr, "TOOL"):
		return "AGENT"
	case strings.HasPrefix(codeStr, "SLACK") || strings.HasPrefix(codeStr, "ALERT"):
		return "DELIVERY"
	case strings.HasPrefix(codeStr, "ARCHIVE"):
		return "DATABASE"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
