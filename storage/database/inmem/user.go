package inmemdb

import (
	"context"

	"github.com/trezcool/darasa/core/user"
)

type profileRepository struct {
	db *DB
}

func NewProfileRepository(db *DB) user.Repository {
	return &profileRepository{db: db}
}

func (repo *profileRepository) GetProfile(_ context.Context, id string) (user.Profile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if prof, ok := repo.db.profiles[id]; ok {
		return prof, nil
	}
	return user.Profile{}, user.ErrNotFound
}
