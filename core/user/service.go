package user

import (
	"context"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("user profile not found")

type (
	Repository interface {
		GetProfile(ctx context.Context, id string) (Profile, error)
	}

	Service interface {
		GetByID(ctx context.Context, id string) (Profile, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) GetByID(ctx context.Context, id string) (Profile, error) {
	if id == "" {
		return Profile{}, ErrNotFound
	}
	return svc.repo.GetProfile(ctx, id)
}
