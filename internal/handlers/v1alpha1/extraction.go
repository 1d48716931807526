package v1alpha1

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	api "github.com/formweave/extraction-planner/api/v1alpha1"
	"github.com/formweave/extraction-planner/internal/extraction"
	"github.com/formweave/extraction-planner/internal/handlers/validator"
	"github.com/formweave/extraction-planner/internal/service"
)

// ExtractionHandler serves the form extraction endpoints.
type ExtractionHandler struct {
	extractionSrv *service.ExtractionService
	taskSrv       *service.TaskService
	validator     *validator.Validator
	logger        *zap.SugaredLogger
}

func NewExtractionHandler(extractionSrv *service.ExtractionService, taskSrv *service.TaskService) *ExtractionHandler {
	return &ExtractionHandler{
		extractionSrv: extractionSrv,
		taskSrv:       taskSrv,
		validator:     validator.NewValidator(validator.NewExtractionValidationRules()...),
		logger:        zap.S().Named("extraction_handler"),
	}
}

// RegisterRoutes mounts the extraction endpoints on the router.
func (h *ExtractionHandler) RegisterRoutes(router chi.Router) {
	router.Post("/form-extraction", h.SubmitExtraction)
	router.Get("/form-extraction/codes", h.ListFormCodes)
	router.Get("/form-extraction/{task_id}", h.GetTask)
}

// SubmitExtraction handles POST /form-extraction. With async unset or
// true the request is queued and the pending task is returned; otherwise
// the pipeline runs inline and the result or error envelope comes back.
func (h *ExtractionHandler) SubmitExtraction(w http.ResponseWriter, r *http.Request) {
	request := api.FormExtractionRequest{}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		_ = render.Render(w, r, api.NewErrorReply(http.StatusBadRequest, extraction.CodeInvalidRequest, "malformed request body"))
		return
	}

	if err := h.validator.Struct(request); err != nil {
		_ = render.Render(w, r, api.NewErrorReply(http.StatusBadRequest, extraction.CodeInvalidRequest, err.Error()))
		return
	}

	if request.IsAsync() {
		h.submitAsync(w, r, request)
		return
	}

	result, err := h.extractionSrv.Extract(r.Context(), request.Utterance, request.FormCode)
	if err != nil {
		h.renderExtractionError(w, r, err)
		return
	}

	_ = render.Render(w, r, api.ExtractionResultReply{Status: "succeeded", Result: result})
}

func (h *ExtractionHandler) submitAsync(w http.ResponseWriter, r *http.Request, request api.FormExtractionRequest) {
	view, err := h.taskSrv.CreateTask(r.Context(), request.Utterance, request.FormCode, request.CallbackURL)
	if err != nil {
		switch err.(type) {
		case *service.ErrUnknownFormCode:
			_ = render.Render(w, r, api.NewErrorReply(http.StatusNotFound, extraction.CodeInvalidRequest, err.Error()))
		case *service.ErrTaskQueueFull:
			_ = render.Render(w, r, api.NewErrorReply(http.StatusServiceUnavailable, extraction.CodeInternalError, err.Error()))
		default:
			h.logger.Errorw("task submission failed", "error", err)
			_ = render.Render(w, r, api.NewErrorReply(http.StatusInternalServerError, extraction.CodeInternalError, "failed to create task"))
		}
		return
	}

	_ = render.Render(w, r, api.TaskCreatedReply{
		TaskID:    view.ID,
		Status:    view.Status,
		CreatedAt: view.CreatedAt,
		ExpiresAt: view.ExpiresAt,
	})
}

// ListFormCodes handles GET /form-extraction/codes.
func (h *ExtractionHandler) ListFormCodes(w http.ResponseWriter, r *http.Request) {
	codes := h.extractionSrv.Codes()
	_ = render.Render(w, r, api.FormCodesReply{SupportedFormCodes: codes, Count: len(codes)})
}

// GetTask handles GET /form-extraction/{task_id}.
func (h *ExtractionHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	view, err := h.taskSrv.GetTask(r.Context(), chi.URLParam(r, "task_id"))
	if err != nil {
		switch err.(type) {
		case *service.ErrInvalidTaskID:
			_ = render.Render(w, r, api.NewErrorReply(http.StatusBadRequest, extraction.CodeInvalidRequest, err.Error()))
		case *service.ErrTaskNotFound:
			_ = render.Render(w, r, api.NewErrorReply(http.StatusNotFound, extraction.CodeInvalidRequest, err.Error()))
		default:
			h.logger.Errorw("task lookup failed", "error", err)
			_ = render.Render(w, r, api.NewErrorReply(http.StatusInternalServerError, extraction.CodeInternalError, "failed to read task"))
		}
		return
	}

	_ = render.Render(w, r, api.TaskStatusReply{
		TaskID:      view.ID,
		Status:      view.Status,
		Result:      view.Result,
		Error:       view.Error,
		CreatedAt:   view.CreatedAt,
		CompletedAt: view.CompletedAt,
		ExpiresAt:   view.ExpiresAt,
	})
}

// Health handles GET /health.
func (h *ExtractionHandler) Health(w http.ResponseWriter, r *http.Request) {
	_ = render.Render(w, r, api.HealthReply{Status: "ok"})
}

func (h *ExtractionHandler) renderExtractionError(w http.ResponseWriter, r *http.Request, err error) {
	var unknownCode *service.ErrUnknownFormCode
	if errors.As(err, &unknownCode) {
		_ = render.Render(w, r, api.NewErrorReply(http.StatusNotFound, extraction.CodeInvalidRequest, err.Error()))
		return
	}

	var failed *service.ErrExtractionFailed
	if errors.As(err, &failed) {
		_ = render.Render(w, r, api.NewErrorReply(statusForCode(failed.Code), failed.Code, failed.Error()))
		return
	}

	h.logger.Errorw("extraction failed unexpectedly", "error", err)
	_ = render.Render(w, r, api.NewErrorReply(http.StatusInternalServerError, extraction.CodeInternalError, "extraction failed"))
}

func statusForCode(code string) int {
	switch code {
	case extraction.CodeInvalidRequest, extraction.CodeValidationError:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
