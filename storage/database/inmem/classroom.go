package inmemdb

import (
	"context"

	"github.com/trezcool/darasa/core/classroom"
)

type classRepository struct {
	db *DB
}

func NewClassRepository(db *DB) classroom.Repository {
	return &classRepository{db: db}
}

func (repo *classRepository) GetClass(_ context.Context, id string) (classroom.Class, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if cls, ok := repo.db.classes[id]; ok {
		return cls, nil
	}
	return classroom.Class{}, classroom.ErrNotFound
}

func (repo *classRepository) IsEnrolled(_ context.Context, classID, studentID string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.db.enrollments[classID][studentID], nil
}
