// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Content composition errors
const (
	ErrCodeTemplateInvalid       ErrorCode = "TEMPLATE_INVALID"
	ErrCodeProspectNotFound      ErrorCode = "PROSPECT_NOT_FOUND"
	ErrCodeProspectAccessDenied  ErrorCode = "PROSPECT_ACCESS_DENIED"
	ErrCodeGuideNotFound         ErrorCode = "GUIDE_NOT_FOUND"
	ErrCodeGuideContentMissing   ErrorCode = "GUIDE_CONTENT_MISSING"
	ErrCodePDFRenderFailed       ErrorCode = "PDF_RENDER_FAILED"
	ErrCodeAssessmentInvalid     ErrorCode = "ASSESSMENT_INVALID"
	ErrCodeInputValidationFailed ErrorCode = "INPUT_VALIDATION_FAILED"
)

// Lead CRM errors
const (
	ErrCodeLeadNotFound         ErrorCode = "LEAD_NOT_FOUND"
	ErrCodeLeadInvalid          ErrorCode = "LEAD_INVALID"
	ErrCodeSequenceNotFound     ErrorCode = "SEQUENCE_NOT_FOUND"
	ErrCodeSequenceStateInvalid ErrorCode = "SEQUENCE_STATE_INVALID"
)

// Infrastructure errors
const (
	ErrCodeDatabaseError      ErrorCode = "DATABASE_ERROR"
	ErrCodeCacheError         ErrorCode = "CACHE_ERROR"
	ErrCodeSearchError        ErrorCode = "SEARCH_ERROR"
	ErrCodeNotificationFailed ErrorCode = "NOTIFICATION_FAILED"
	ErrCodeCRMSyncFailed      ErrorCode = "CRM_SYNC_FAILED"
	ErrCodeTimeout            ErrorCode = "TIMEOUT"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
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
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithMetadata attaches a metadata key and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
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

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
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

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewTemplateInvalidError reports an industry template that does not satisfy the template schema.
func NewTemplateInvalidError(industry, details string) *StandardError {
	return newError(ErrCodeTemplateInvalid, "Industry template is incomplete",
		fmt.Sprintf("industry: %s, %s", industry, details), false)
}

func NewProspectNotFoundError(slug string) *StandardError {
	return newError(ErrCodeProspectNotFound, "Prospect not found", fmt.Sprintf("slug: %s", slug), false)
}

func NewProspectAccessDeniedError(slug string) *StandardError {
	return newError(ErrCodeProspectAccessDenied, "Prospect page password mismatch", fmt.Sprintf("slug: %s", slug), false)
}

func NewGuideNotFoundError(slug string) *StandardError {
	return newError(ErrCodeGuideNotFound, "No guide found with slug", fmt.Sprintf("slug: %s", slug), false)
}

func NewGuideContentMissingError(slug string) *StandardError {
	return newError(ErrCodeGuideContentMissing, "No content found for guide", fmt.Sprintf("slug: %s", slug), false)
}

// NewPDFRenderFailedError is retryable: browser launches fail transiently.
func NewPDFRenderFailedError(slug string, err error) *StandardError {
	return newError(ErrCodePDFRenderFailed, "PDF rendering failed",
		fmt.Sprintf("slug: %s, error: %v", slug, err), true)
}

func NewAssessmentInvalidError(details string) *StandardError {
	return newError(ErrCodeAssessmentInvalid, "Assessment answers are invalid", details, false)
}

func NewInputValidationError(details string) *StandardError {
	return newError(ErrCodeInputValidationFailed, "Input validation failed", details, false)
}

func NewLeadNotFoundError(leadID string) *StandardError {
	return newError(ErrCodeLeadNotFound, "Lead not found", fmt.Sprintf("leadId: %s", leadID), false)
}

func NewLeadInvalidError(details string) *StandardError {
	return newError(ErrCodeLeadInvalid, "Lead data is invalid", details, false)
}

func NewSequenceNotFoundError(leadID string) *StandardError {
	return newError(ErrCodeSequenceNotFound, "Lead is not enrolled in a sequence", fmt.Sprintf("leadId: %s", leadID), false)
}

func NewSequenceStateError(details string) *StandardError {
	return newError(ErrCodeSequenceStateInvalid, "Sequence cannot make that change", details, false)
}

func NewDatabaseError(operation string, err error) *StandardError {
	return newError(ErrCodeDatabaseError, "Database operation failed",
		fmt.Sprintf("operation: %s, error: %v", operation, err), true)
}

func NewCacheError(operation string, err error) *StandardError {
	return newError(ErrCodeCacheError, "Cache operation failed",
		fmt.Sprintf("operation: %s, error: %v", operation, err), true)
}

func NewSearchError(operation string, err error) *StandardError {
	return newError(ErrCodeSearchError, "Search operation failed",
		fmt.Sprintf("operation: %s, error: %v", operation, err), true)
}

func NewNotificationFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %v", channel, err), true)
}

func NewCRMSyncFailedError(err error) *StandardError {
	return newError(ErrCodeCRMSyncFailed, "CRM sync failed", err.Error(), true)
}

func NewTimeoutError(operation string) *StandardError {
	return newError(ErrCodeTimeout, "Operation timed out", fmt.Sprintf("operation: %s", operation), true)
}

// BPMNErrorMapping maps internal error codes to the error codes modelled in the BPMN processes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeTemplateInvalid:       "TEMPLATE_INVALID",
	ErrCodeProspectNotFound:      "PROSPECT_NOT_FOUND",
	ErrCodeProspectAccessDenied:  "PROSPECT_ACCESS_DENIED",
	ErrCodeGuideNotFound:         "GUIDE_NOT_FOUND",
	ErrCodeGuideContentMissing:   "GUIDE_CONTENT_MISSING",
	ErrCodePDFRenderFailed:       "PDF_RENDER_FAILED",
	ErrCodeAssessmentInvalid:     "ASSESSMENT_INVALID",
	ErrCodeInputValidationFailed: "INPUT_VALIDATION_FAILED",
	ErrCodeLeadNotFound:          "LEAD_NOT_FOUND",
	ErrCodeLeadInvalid:           "LEAD_INVALID",
	ErrCodeSequenceNotFound:      "SEQUENCE_NOT_FOUND",
	ErrCodeSequenceStateInvalid:  "SEQUENCE_STATE_INVALID",
	ErrCodeDatabaseError:         "DATABASE_ERROR",
	ErrCodeCacheError:            "CACHE_ERROR",
	ErrCodeSearchError:           "SEARCH_ERROR",
	ErrCodeNotificationFailed:    "NOTIFICATION_FAILED",
	ErrCodeCRMSyncFailed:         "CRM_SYNC_FAILED",
	ErrCodeTimeout:               "TIMEOUT",
}

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseError,
		ErrCodeSearchError,
		ErrCodeNotificationFailed,
		ErrCodeCRMSyncFailed:
		return 3

	case ErrCodePDFRenderFailed,
		ErrCodeTimeout:
		return 2

	case ErrCodeCacheError:
		return 1

	default:
		return 0 // business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// AsStandardError unwraps err to a *StandardError when one is in the chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given error code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == code
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "TEMPLATE"), strings.HasPrefix(codeStr, "PROSPECT"):
		return "PROSPECT"
	case strings.HasPrefix(codeStr, "GUIDE"), strings.HasPrefix(codeStr, "PDF"):
		return "GUIDE"
	case strings.HasPrefix(codeStr, "LEAD"), strings.HasPrefix(codeStr, "CRM"):
		return "LEAD"
	case strings.HasPrefix(codeStr, "DATABASE"), strings.HasPrefix(codeStr, "CACHE"):
		return "STORAGE"
	case strings.HasPrefix(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.HasPrefix(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case code == ErrCodeTimeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}
