package store

import (
	"gorm.io/gorm"
)

type Store interface {
	Task() Task
	InitialMigration() error
	Close() error
}

type DataStore struct {
	task Task
	db   *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		task: NewTaskStore(db),
		db:   db,
	}
}

func (s *DataStore) Task() Task {
	return s.task
}

func (s *DataStore) InitialMigration() error {
	return s.task.InitialMigration()
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
