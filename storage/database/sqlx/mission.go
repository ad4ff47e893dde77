package sqlxrepos

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/mission"
)

const (
	missionColumns = `id, mission_uid, org_id, title, description, order_no, xp_reward, unlocked, difficulty,
		estimated_time, mission_data, assets_bucket, assets_prefix, object_path, created_by, created_at, updated_at`

	customizationColumns = `id, class_id, mission_id, custom_title, custom_description, custom_order, custom_xp_reward,
		custom_unlocked, custom_difficulty, custom_estimated_time, custom_mission_data, updated_by, created_at, updated_at`
)

var (
	// orderable mission columns
	missionOrderings = map[string]bool{
		"order_no": true, "xp_reward": true, "estimated_time": true, "title": true,
		"mission_uid": true, "difficulty": true, "created_at": true, "updated_at": true,
	}
	defaultMissionOrdering = []core.DBOrdering{{Field: "order_no", Ascending: true}, {Field: "mission_uid", Ascending: true}}
)

type missionRepository struct {
	db core.DBExecutor
}

func NewMissionRepository(db core.DBExecutor) mission.Repository {
	return &missionRepository{db: db}
}

func (repo *missionRepository) CreateMission(ctx context.Context, m mission.Mission) (mission.Mission, error) {
	m.ID = uuid.NewString()
	q := `INSERT INTO missions (` + missionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::jsonb, $12, $13, $14, $15, $16, $17)
		RETURNING ` + missionColumns

	var created mission.Mission
	err := repo.db.GetContext(ctx, &created, q,
		m.ID, m.MissionUID, m.OrgID, m.Title, m.Description, m.OrderNo, m.XPReward, m.Unlocked, m.Difficulty,
		m.EstimatedTime, jsonParam(m.MissionData), m.AssetsBucket, m.AssetsPrefix, m.ObjectPath, m.CreatedBy,
		m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		if pqCode(err) == uniqueViolation {
			return mission.Mission{}, mission.ErrMissionUIDExists
		}
		return mission.Mission{}, errors.Wrap(err, "inserting mission")
	}
	return created, nil
}

func (repo *missionRepository) QueryMissions(ctx context.Context, filter *mission.QueryFilter, ordering []core.DBOrdering) ([]mission.Mission, error) {
	if filter == nil {
		filter = &mission.QueryFilter{}
	}

	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !filter.AllOrgs {
		if filter.OrgID != "" {
			where = append(where, "(org_id IS NULL OR org_id::text = "+arg(filter.OrgID)+")")
		} else {
			where = append(where, "org_id IS NULL")
		}
	}
	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		where = append(where, "(title ILIKE "+p+" OR mission_uid ILIKE "+p+")")
	}
	if filter.Difficulty != "" {
		where = append(where, "difficulty = "+arg(filter.Difficulty))
	}

	q := `SELECT ` + missionColumns + ` FROM missions`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY ` + orderBy(ordering)

	missions := make([]mission.Mission, 0)
	if err := repo.db.SelectContext(ctx, &missions, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting missions")
	}
	return missions, nil
}

func (repo *missionRepository) GetMission(ctx context.Context, filter mission.GetFilter) (mission.Mission, error) {
	q := `SELECT ` + missionColumns + ` FROM missions WHERE mission_uid = $1`
	key := filter.MissionUID
	if filter.ID != "" {
		q = `SELECT ` + missionColumns + ` FROM missions WHERE id = $1`
		key = filter.ID
	}

	var m mission.Mission
	if err := repo.db.GetContext(ctx, &m, q, key); err != nil {
		if err = notFound(err, mission.ErrNotFound); err == mission.ErrNotFound {
			return mission.Mission{}, err
		}
		return mission.Mission{}, errors.Wrap(err, "selecting mission")
	}
	return m, nil
}

func (repo *missionRepository) UpdateMission(ctx context.Context, m mission.Mission) (mission.Mission, error) {
	q := `UPDATE missions SET title = $2, description = $3, order_no = $4, xp_reward = $5, unlocked = $6,
			difficulty = $7, estimated_time = $8, mission_data = $9::jsonb, assets_bucket = $10, assets_prefix = $11,
			updated_at = $12
		WHERE id = $1
		RETURNING ` + missionColumns

	var updated mission.Mission
	err := repo.db.GetContext(ctx, &updated, q,
		m.ID, m.Title, m.Description, m.OrderNo, m.XPReward, m.Unlocked, m.Difficulty, m.EstimatedTime,
		jsonParam(m.MissionData), m.AssetsBucket, m.AssetsPrefix, m.UpdatedAt,
	)
	if err != nil {
		if err = notFound(err, mission.ErrNotFound); err == mission.ErrNotFound {
			return mission.Mission{}, err
		}
		return mission.Mission{}, errors.Wrap(err, "updating mission")
	}
	return updated, nil
}

func (repo *missionRepository) UpdateObjectPath(ctx context.Context, id, objectPath string) error {
	res, err := repo.db.ExecContext(ctx, `UPDATE missions SET object_path = $2, updated_at = now() WHERE id = $1`, id, objectPath)
	return affectedOne(res, err, mission.ErrNotFound, "updating object_path")
}

func (repo *missionRepository) DeleteMission(ctx context.Context, id string) error {
	// customizations go with the mission (ON DELETE CASCADE)
	res, err := repo.db.ExecContext(ctx, `DELETE FROM missions WHERE id = $1`, id)
	return affectedOne(res, err, mission.ErrNotFound, "deleting mission")
}

func (repo *missionRepository) GetCustomization(ctx context.Context, classID, missionID string) (mission.Customization, error) {
	q := `SELECT ` + customizationColumns + ` FROM class_mission_customizations WHERE class_id = $1 AND mission_id = $2`

	var c mission.Customization
	if err := repo.db.GetContext(ctx, &c, q, classID, missionID); err != nil {
		if err = notFound(err, mission.ErrCustomizationNotFound); err == mission.ErrCustomizationNotFound {
			return mission.Customization{}, err
		}
		return mission.Customization{}, errors.Wrap(err, "selecting customization")
	}
	return c, nil
}

func (repo *missionRepository) UpsertCustomization(ctx context.Context, c mission.Customization) (mission.Customization, error) {
	q := `INSERT INTO class_mission_customizations (` + customizationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::jsonb, $12, $13, $14)
		ON CONFLICT (class_id, mission_id) DO UPDATE SET
			custom_title = EXCLUDED.custom_title,
			custom_description = EXCLUDED.custom_description,
			custom_order = EXCLUDED.custom_order,
			custom_xp_reward = EXCLUDED.custom_xp_reward,
			custom_unlocked = EXCLUDED.custom_unlocked,
			custom_difficulty = EXCLUDED.custom_difficulty,
			custom_estimated_time = EXCLUDED.custom_estimated_time,
			custom_mission_data = EXCLUDED.custom_mission_data,
			updated_by = EXCLUDED.updated_by,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + customizationColumns

	var saved mission.Customization
	err := repo.db.GetContext(ctx, &saved, q,
		uuid.NewString(), c.ClassID, c.MissionID, c.CustomTitle, c.CustomDescription, c.CustomOrder, c.CustomXPReward,
		c.CustomUnlocked, c.CustomDifficulty, c.CustomEstimatedTime, jsonParam(c.CustomMissionData), c.UpdatedBy,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if code := pqCode(err); code == foreignKeyViolation || code == invalidTextRepr {
			return mission.Customization{}, mission.ErrNotFound
		}
		return mission.Customization{}, errors.Wrap(err, "upserting customization")
	}
	return saved, nil
}

func (repo *missionRepository) DeleteCustomization(ctx context.Context, classID, missionID string) error {
	res, err := repo.db.ExecContext(ctx,
		`DELETE FROM class_mission_customizations WHERE class_id = $1 AND mission_id = $2`, classID, missionID)
	return affectedOne(res, err, mission.ErrCustomizationNotFound, "deleting customization")
}

// jsonParam passes JSON documents as text, pq would send raw bytes as bytea.
func jsonParam(j null.JSON) null.String {
	if !j.Valid {
		return null.String{}
	}
	return null.StringFrom(string(j.JSON))
}

func orderBy(ordering []core.DBOrdering) string {
	clauses := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		if missionOrderings[ord.Field] {
			clauses = append(clauses, ord.String())
		}
	}
	if len(clauses) == 0 {
		for _, ord := range defaultMissionOrdering {
			clauses = append(clauses, ord.String())
		}
	}
	return strings.Join(clauses, ", ")
}
