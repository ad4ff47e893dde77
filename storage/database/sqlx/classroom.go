package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/classroom"
)

type classRepository struct {
	db core.DBExecutor
}

func NewClassRepository(db core.DBExecutor) classroom.Repository {
	return &classRepository{db: db}
}

func (repo *classRepository) GetClass(ctx context.Context, id string) (classroom.Class, error) {
	var cls classroom.Class
	err := repo.db.GetContext(ctx, &cls, `SELECT id, org_id, name, educator_id, created_at FROM classes WHERE id = $1`, id)
	if err != nil {
		err = notFound(err, classroom.ErrNotFound)
		if err == classroom.ErrNotFound {
			return classroom.Class{}, err
		}
		return classroom.Class{}, errors.Wrap(err, "selecting class")
	}
	return cls, nil
}

func (repo *classRepository) IsEnrolled(ctx context.Context, classID, studentID string) (bool, error) {
	var enrolled bool
	err := repo.db.GetContext(ctx, &enrolled,
		`SELECT EXISTS (SELECT 1 FROM enrollments WHERE class_id = $1 AND student_id = $2)`, classID, studentID)
	if err != nil {
		if pqCode(err) == invalidTextRepr {
			return false, nil
		}
		return false, errors.Wrap(err, "checking enrollment")
	}
	return enrolled, nil
}
