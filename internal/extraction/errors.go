package extraction

import "fmt"

// Error codes surfaced to clients. Every stage failure maps to exactly one
// of these.
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeLLMError        = "LLM_INNER_ERROR"
	CodeInvalidResponse = "INVALID_RESPONSE"
	CodeValidationError = "VALIDATION_ERROR"
	CodeInternalError   = "INTERNAL_ERROR"
)

// StageError is a pipeline stage failure tagged with its client-facing
// error code. Stages return it instead of letting errors cross the
// pipeline boundary untagged.
type StageError struct {
	Code string
	err  error
}

func (e *StageError) Error() string {
	return e.err.Error()
}

func (e *StageError) Unwrap() error {
	return e.err
}

// NewTemplateError tags a prompt template load or render failure.
func NewTemplateError(err error) *StageError {
	return &StageError{Code: CodeInternalError, err: fmt.Errorf("failed to generate prompt: %w", err)}
}

// NewModelError tags an upstream completion failure. Timeouts, auth and
// rate-limit failures all collapse to this one kind.
func NewModelError(err error) *StageError {
	return &StageError{Code: CodeLLMError, err: fmt.Errorf("llm call failed: %w", err)}
}

// NewMalformedResponseError tags a completion payload that is not valid
// JSON even after fence stripping.
func NewMalformedResponseError(err error) *StageError {
	return &StageError{Code: CodeInvalidResponse, err: fmt.Errorf("llm output is not valid json: %w", err)}
}

// NewSchemaValidationError tags a missing required field. No safe default
// exists, so this aborts the pipeline.
func NewSchemaValidationError(field string) *StageError {
	return &StageError{Code: CodeValidationError, err: fmt.Errorf("validation failed on field %q: field is required", field)}
}

// NewInternalError tags anything unexpected.
func NewInternalError(err error) *StageError {
	return &StageError{Code: CodeInternalError, err: fmt.Errorf("unexpected internal error: %w", err)}
}
