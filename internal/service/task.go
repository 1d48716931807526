package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/formweave/extraction-planner/internal/store"
	"github.com/formweave/extraction-planner/internal/store/model"
	"github.com/formweave/extraction-planner/internal/worker"
)

const callbackTimeout = 5 * time.Second

// TaskView is the read-time projection of a task record. Status is
// classified as expired when the expiry deadline passed, without touching
// the stored record.
type TaskView struct {
	ID          uuid.UUID
	Status      string
	Result      map[string]any
	Error       *string
	CreatedAt   time.Time
	CompletedAt *time.Time
	ExpiresAt   time.Time
}

// TaskService is the task lifecycle tracker for asynchronous extraction
// requests. Submission stores a pending record and hands the task id to
// the worker pool; the worker owning a task id is its only writer.
type TaskService struct {
	store         store.Store
	extractionSrv *ExtractionService
	pool          *worker.Pool
	ttl           time.Duration
	httpClient    *http.Client
	logger        *zap.SugaredLogger
}

func NewTaskService(s store.Store, extractionSrv *ExtractionService, queueDepth int, ttl time.Duration) (*TaskService, error) {
	srv := &TaskService{
		store:         s,
		extractionSrv: extractionSrv,
		ttl:           ttl,
		httpClient:    &http.Client{Timeout: callbackTimeout},
		logger:        zap.S().Named("task_service"),
	}

	pool, err := worker.NewPool(queueDepth, srv.runTask)
	if err != nil {
		return nil, err
	}
	srv.pool = pool
	return srv, nil
}

// Start launches the background workers.
func (s *TaskService) Start(ctx context.Context, workers int) error {
	return s.pool.Start(ctx, workers)
}

// Stop drains the worker pool.
func (s *TaskService) Stop() {
	s.pool.Stop()
}

// CreateTask stores a pending task and submits it for background
// execution. It returns immediately with the stored view.
func (s *TaskService) CreateTask(ctx context.Context, utterance, formCode string, callbackURL *string) (*TaskView, error) {
	if !s.extractionSrv.IsRegistered(formCode) {
		return nil, NewErrUnknownFormCode(formCode)
	}

	now := time.Now().UTC()
	task, err := s.store.Task().Create(ctx, model.Task{
		ID:          uuid.New(),
		Status:      model.TaskStatusPending,
		Utterance:   utterance,
		FormCode:    formCode,
		CallbackURL: callbackURL,
		ExpiresAt:   now.Add(s.ttl),
	})
	if err != nil {
		s.logger.Errorw("failed to store task", "error", err)
		return nil, err
	}

	if err := s.pool.Submit(task.ID); err != nil {
		s.logger.Errorw("failed to submit task", "task_id", task.ID, "error", err)
		// no worker will ever pick this task up, so the stored row must
		// not stay pending
		s.failUnqueuedTask(ctx, task.ID, err)
		if errors.Is(err, worker.ErrQueueFull) {
			return nil, NewErrTaskQueueFull()
		}
		return nil, err
	}

	s.logger.Infow("task created", "task_id", task.ID, "form_code", formCode)
	return taskToView(task, now), nil
}

// GetTask returns the read-time view of a task.
func (s *TaskService) GetTask(ctx context.Context, rawID string) (*TaskView, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, NewErrInvalidTaskID(rawID)
	}

	task, err := s.store.Task().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrTaskNotFound(id)
		}
		return nil, err
	}

	return taskToView(task, time.Now().UTC()), nil
}

// failUnqueuedTask marks a task the pool rejected as failed so reads do
// not report a pending task that will never run.
func (s *TaskService) failUnqueuedTask(ctx context.Context, taskID uuid.UUID, submitErr error) {
	failed := model.TaskStatusFailed
	now := time.Now().UTC()
	message := fmt.Sprintf("task was not queued: %v", submitErr)
	if _, err := s.store.Task().Update(ctx, taskID, store.TaskPatch{
		Status:      &failed,
		Error:       &message,
		CompletedAt: &now,
	}); err != nil {
		s.logger.Errorw("failed to mark unqueued task failed", "task_id", taskID, "error", err)
	}
}

// runTask executes one stored task on a pool worker: pending -> running,
// then the pipeline, then the terminal transition. The pipeline swallows
// domain failures, so a failed status here reflects the record's error
// pair or an infrastructure fault.
func (s *TaskService) runTask(ctx context.Context, taskID uuid.UUID) {
	task, err := s.store.Task().Get(ctx, taskID)
	if err != nil {
		s.logger.Errorw("task vanished before execution", "task_id", taskID, "error", err)
		return
	}

	running := model.TaskStatusRunning
	if _, err := s.store.Task().Update(ctx, taskID, store.TaskPatch{Status: &running}); err != nil {
		s.logger.Errorw("failed to mark task running", "task_id", taskID, "error", err)
		return
	}

	rec := s.extractionSrv.Run(ctx, task.Utterance, task.FormCode)

	now := time.Now().UTC()
	patch := store.TaskPatch{CompletedAt: &now}
	status := model.TaskStatusSucceeded
	if rec.Failed() {
		status = model.TaskStatusFailed
		message := fmt.Sprintf("%s: %s", rec.ErrorCode, rec.ErrorMessage)
		patch.Error = &message
	} else {
		result, err := json.Marshal(rec.Result)
		if err != nil {
			status = model.TaskStatusFailed
			message := fmt.Sprintf("failed to encode result: %v", err)
			patch.Error = &message
		} else {
			patch.Result = result
		}
	}
	patch.Status = &status

	updated, err := s.store.Task().Update(ctx, taskID, patch)
	if err != nil {
		s.logger.Errorw("failed to store task outcome", "task_id", taskID, "error", err)
		return
	}

	s.logger.Infow("task completed", "task_id", taskID, "status", status)

	if task.CallbackURL != nil && *task.CallbackURL != "" {
		s.notifyCallback(*task.CallbackURL, taskToView(updated, now))
	}
}

// notifyCallback delivers the terminal task view to the caller-provided
// URL. Best effort only: failures are logged, never retried.
func (s *TaskService) notifyCallback(url string, view *TaskView) {
	body, err := json.Marshal(map[string]any{
		"task_id": view.ID,
		"status":  view.Status,
		"result":  view.Result,
		"error":   view.Error,
	})
	if err != nil {
		s.logger.Errorw("failed to encode callback payload", "task_id", view.ID, "error", err)
		return
	}

	resp, err := s.httpClient.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		s.logger.Warnw("callback delivery failed", "task_id", view.ID, "url", url, "error", err)
		return
	}
	defer resp.Body.Close()

	s.logger.Infow("callback delivered", "task_id", view.ID, "status_code", resp.StatusCode)
}

func taskToView(task *model.Task, now time.Time) *TaskView {
	view := &TaskView{
		ID:          task.ID,
		Status:      task.Status,
		Error:       task.Error,
		CreatedAt:   task.CreatedAt,
		CompletedAt: task.CompletedAt,
		ExpiresAt:   task.ExpiresAt,
	}

	if len(task.Result) > 0 {
		if err := json.Unmarshal(task.Result, &view.Result); err != nil {
			zap.S().Named("task_service").Errorw("stored result is unreadable", "task_id", task.ID, "error", err)
		}
	}

	// Expiry is a read-time classification; the stored status and result
	// are left as they are.
	if now.After(task.ExpiresAt) {
		view.Status = model.TaskStatusExpired
	}

	return view
}
