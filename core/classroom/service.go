package classroom

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/user"
)

var ErrNotFound = errors.New("class not found")

type (
	Repository interface {
		GetClass(ctx context.Context, id string) (Class, error)
		IsEnrolled(ctx context.Context, classID, studentID string) (bool, error)
	}

	Service interface {
		Get(ctx context.Context, id string) (Class, error)
		// CanView reports whether prof may read the class's view of its missions.
		CanView(ctx context.Context, prof user.Profile, classID string) (bool, error)
		// CanManage reports whether prof may customize the class's missions.
		CanManage(ctx context.Context, prof user.Profile, classID string) (bool, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Get(ctx context.Context, id string) (Class, error) {
	if id == "" {
		return Class{}, ErrNotFound
	}
	return svc.repo.GetClass(ctx, id)
}

func (svc *service) CanView(ctx context.Context, prof user.Profile, classID string) (bool, error) {
	cls, err := svc.Get(ctx, classID)
	if err != nil {
		return false, err
	}
	switch {
	case prof.IsAdmin():
		return true, nil
	case prof.IsEducator():
		return ownsOrShares(prof, cls), nil
	case prof.IsStudent():
		enrolled, err := svc.repo.IsEnrolled(ctx, cls.ID, prof.ID)
		if err != nil {
			return false, errors.Wrap(err, "checking enrollment")
		}
		return enrolled, nil
	}
	return false, nil
}

func (svc *service) CanManage(ctx context.Context, prof user.Profile, classID string) (bool, error) {
	cls, err := svc.Get(ctx, classID)
	if err != nil {
		return false, err
	}
	if prof.IsAdmin() {
		return true, nil
	}
	return prof.IsEducator() && ownsOrShares(prof, cls), nil
}

// ownsOrShares: the class's own educator, or any educator of the class's organization.
func ownsOrShares(prof user.Profile, cls Class) bool {
	if cls.EducatorID.Valid && cls.EducatorID.String == prof.ID {
		return true
	}
	return prof.InOrg(cls.OrgID)
}
