package service

import (
	"fmt"

	"github.com/google/uuid"
)

type ErrTaskNotFound struct {
	error
}

func NewErrTaskNotFound(id uuid.UUID) *ErrTaskNotFound {
	return &ErrTaskNotFound{fmt.Errorf("task %s not found", id)}
}

type ErrInvalidTaskID struct {
	error
}

func NewErrInvalidTaskID(raw string) *ErrInvalidTaskID {
	return &ErrInvalidTaskID{fmt.Errorf("invalid task id format: %q", raw)}
}

type ErrUnknownFormCode struct {
	error
}

func NewErrUnknownFormCode(code string) *ErrUnknownFormCode {
	return &ErrUnknownFormCode{fmt.Errorf("unknown form_code: %s", code)}
}

type ErrTaskQueueFull struct {
	error
}

func NewErrTaskQueueFull() *ErrTaskQueueFull {
	return &ErrTaskQueueFull{fmt.Errorf("task queue is full")}
}

// ErrExtractionFailed carries the pipeline's client-facing error code
// alongside the message for the synchronous request path.
type ErrExtractionFailed struct {
	error
	Code string
}

func NewErrExtractionFailed(code, message string) *ErrExtractionFailed {
	return &ErrExtractionFailed{fmt.Errorf("%s", message), code}
}
