package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/formweave/extraction-planner/internal/store/model"
)

// TaskPatch is a partial task update. Nil fields are left untouched; the
// update is a single statement, so concurrent status transitions on
// distinct fields cannot lose each other.
type TaskPatch struct {
	Status      *string
	Result      []byte
	Error       *string
	CompletedAt *time.Time
}

type Task interface {
	Create(ctx context.Context, task model.Task) (*model.Task, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Task, error)
	Update(ctx context.Context, id uuid.UUID, patch TaskPatch) (*model.Task, error)
	InitialMigration() error
}

type TaskStore struct {
	db *gorm.DB
}

// Make sure we conform to the Task interface
var _ Task = (*TaskStore)(nil)

func NewTaskStore(db *gorm.DB) Task {
	return &TaskStore{db: db}
}

func (s *TaskStore) InitialMigration() error {
	return s.db.AutoMigrate(&model.Task{})
}

func (s *TaskStore) Create(ctx context.Context, task model.Task) (*model.Task, error) {
	result := s.db.WithContext(ctx).Create(&task)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, result.Error
	}
	return &task, nil
}

func (s *TaskStore) Get(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	task := model.Task{ID: id}
	result := s.db.WithContext(ctx).First(&task)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &task, nil
}

func (s *TaskStore) Update(ctx context.Context, id uuid.UUID, patch TaskPatch) (*model.Task, error) {
	task := model.Task{ID: id}
	selectFields := []string{"updated_at"}
	if patch.Status != nil {
		task.Status = *patch.Status
		selectFields = append(selectFields, "status")
	}
	if patch.Result != nil {
		task.Result = patch.Result
		selectFields = append(selectFields, "result")
	}
	if patch.Error != nil {
		task.Error = patch.Error
		selectFields = append(selectFields, "error")
	}
	if patch.CompletedAt != nil {
		task.CompletedAt = patch.CompletedAt
		selectFields = append(selectFields, "completed_at")
	}

	result := s.db.WithContext(ctx).Model(&task).Clauses(clause.Returning{}).Select(selectFields).Updates(&task)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}
	return &task, nil
}
