package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

type profileRepository struct {
	db core.DBExecutor
}

func NewProfileRepository(db core.DBExecutor) user.Repository {
	return &profileRepository{db: db}
}

func (repo *profileRepository) GetProfile(ctx context.Context, id string) (user.Profile, error) {
	var prof user.Profile
	err := repo.db.GetContext(ctx, &prof, `SELECT id, email, full_name, role, org_id FROM user_profiles WHERE id = $1`, id)
	if err != nil {
		err = notFound(err, user.ErrNotFound)
		if err == user.ErrNotFound {
			return user.Profile{}, err
		}
		return user.Profile{}, errors.Wrap(err, "selecting user profile")
	}
	return prof, nil
}
