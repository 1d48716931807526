// Package v1alpha1 holds the wire types of the form extraction API.
package v1alpha1

import (
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/google/uuid"
)

// FormExtractionRequest is the body of POST /api/v1alpha1/form-extraction.
// Async defaults to true when omitted.
type FormExtractionRequest struct {
	Utterance   string  `json:"utterance" validate:"required,min=1,max=10000"`
	FormCode    string  `json:"form_code" validate:"required,min=1,max=50,form_code"`
	Async       *bool   `json:"async,omitempty"`
	CallbackURL *string `json:"callback_url,omitempty" validate:"omitempty,url"`
}

// IsAsync reports the effective submission mode.
func (r *FormExtractionRequest) IsAsync() bool {
	return r.Async == nil || *r.Async
}

// ExtractionResultReply is the synchronous success reply.
type ExtractionResultReply struct {
	Status string         `json:"status"`
	Result map[string]any `json:"result"`
}

func (e ExtractionResultReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// TaskCreatedReply acknowledges an accepted asynchronous submission.
type TaskCreatedReply struct {
	TaskID    uuid.UUID `json:"task_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (t TaskCreatedReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// TaskStatusReply is the full task view returned by GET
// /api/v1alpha1/form-extraction/{task_id}.
type TaskStatusReply struct {
	TaskID      uuid.UUID      `json:"task_id"`
	Status      string         `json:"status"`
	Result      map[string]any `json:"result,omitempty"`
	Error       *string        `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	ExpiresAt   time.Time      `json:"expires_at"`
}

func (t TaskStatusReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// FormCodesReply lists the registered form codes.
type FormCodesReply struct {
	SupportedFormCodes []string `json:"supported_form_codes"`
	Count              int      `json:"count"`
}

func (f FormCodesReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type HealthReply struct {
	Status string `json:"status"`
}

func (h HealthReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// ErrorReply mirrors the error envelope the pipeline produces, so clients
// see the same shape for transport-level and extraction-level failures.
type ErrorReply struct {
	StatusCode   int    `json:"-"`
	Error        bool   `json:"error"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

func NewErrorReply(statusCode int, code, message string) ErrorReply {
	return ErrorReply{StatusCode: statusCode, Error: true, ErrorCode: code, ErrorMessage: message}
}

func (e ErrorReply) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}
