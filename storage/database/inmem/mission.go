package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/mission"
)

// defaultOrdering matches the SQL repository's.
var defaultOrdering = []core.DBOrdering{{Field: "order_no", Ascending: true}, {Field: "mission_uid", Ascending: true}}

type missionRepository struct {
	db *DB
}

func NewMissionRepository(db *DB) mission.Repository {
	return &missionRepository{db: db}
}

func (repo *missionRepository) CreateMission(_ context.Context, m mission.Mission) (mission.Mission, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, other := range repo.db.missions {
		if other.MissionUID == m.MissionUID {
			return mission.Mission{}, mission.ErrMissionUIDExists
		}
	}
	m.ID = repo.db.nextID()
	repo.db.missions[m.ID] = m
	return m, nil
}

func (repo *missionRepository) QueryMissions(_ context.Context, filter *mission.QueryFilter, ordering []core.DBOrdering) ([]mission.Mission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if filter == nil {
		filter = &mission.QueryFilter{}
	}
	search := strings.ToLower(filter.Search)

	missions := make([]mission.Mission, 0, len(repo.db.missions))
	for _, m := range repo.db.missions {
		if !filter.AllOrgs && !m.IsGlobal() && m.OrgID.String != filter.OrgID {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(m.Title), search) &&
			!strings.Contains(strings.ToLower(m.MissionUID), search) {
			continue
		}
		if filter.Difficulty != "" && m.Difficulty != filter.Difficulty {
			continue
		}
		missions = append(missions, m)
	}

	if len(ordering) == 0 {
		ordering = defaultOrdering
	}
	sort.SliceStable(missions, func(i, j int) bool {
		for _, ord := range ordering {
			c := compareMissions(missions[i], missions[j], ord.Field)
			if c == 0 {
				continue
			}
			return (c < 0) == ord.Ascending
		}
		return false
	})
	return missions, nil
}

func (repo *missionRepository) GetMission(_ context.Context, filter mission.GetFilter) (mission.Mission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if filter.ID != "" {
		if m, ok := repo.db.missions[filter.ID]; ok {
			return m, nil
		}
		return mission.Mission{}, mission.ErrNotFound
	}
	for _, m := range repo.db.missions {
		if filter.MissionUID != "" && m.MissionUID == filter.MissionUID {
			return m, nil
		}
	}
	return mission.Mission{}, mission.ErrNotFound
}

func (repo *missionRepository) UpdateMission(_ context.Context, m mission.Mission) (mission.Mission, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.missions[m.ID]; !ok {
		return mission.Mission{}, mission.ErrNotFound
	}
	repo.db.missions[m.ID] = m
	return m, nil
}

func (repo *missionRepository) UpdateObjectPath(_ context.Context, id, objectPath string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	m, ok := repo.db.missions[id]
	if !ok {
		return mission.ErrNotFound
	}
	m.ObjectPath = null.StringFrom(objectPath)
	repo.db.missions[id] = m
	return nil
}

func (repo *missionRepository) DeleteMission(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.missions[id]; !ok {
		return mission.ErrNotFound
	}
	delete(repo.db.missions, id)
	for key := range repo.db.customizations {
		if key.missionID == id {
			delete(repo.db.customizations, key)
		}
	}
	return nil
}

func (repo *missionRepository) GetCustomization(_ context.Context, classID, missionID string) (mission.Customization, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if c, ok := repo.db.customizations[customizationKey{classID, missionID}]; ok {
		return c, nil
	}
	return mission.Customization{}, mission.ErrCustomizationNotFound
}

func (repo *missionRepository) UpsertCustomization(_ context.Context, c mission.Customization) (mission.Customization, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.missions[c.MissionID]; !ok {
		return mission.Customization{}, mission.ErrNotFound
	}
	key := customizationKey{c.ClassID, c.MissionID}
	if prev, ok := repo.db.customizations[key]; ok {
		c.ID = prev.ID
		c.CreatedAt = prev.CreatedAt
	} else {
		c.ID = repo.db.nextID()
	}
	repo.db.customizations[key] = c
	return c, nil
}

func (repo *missionRepository) DeleteCustomization(_ context.Context, classID, missionID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := customizationKey{classID, missionID}
	if _, ok := repo.db.customizations[key]; !ok {
		return mission.ErrCustomizationNotFound
	}
	delete(repo.db.customizations, key)
	return nil
}

func compareMissions(a, b mission.Mission, field string) int {
	switch field {
	case "order_no":
		return compareInts(a.OrderNo, b.OrderNo)
	case "xp_reward":
		return compareInts(a.XPReward, b.XPReward)
	case "estimated_time":
		return compareInts(a.EstimatedTime, b.EstimatedTime)
	case "title":
		return strings.Compare(a.Title, b.Title)
	case "mission_uid":
		return strings.Compare(a.MissionUID, b.MissionUID)
	case "difficulty":
		return strings.Compare(a.Difficulty, b.Difficulty)
	case "created_at":
		return compareInts(int(a.CreatedAt.Sub(b.CreatedAt)), 0)
	case "updated_at":
		return compareInts(int(a.UpdatedAt.Sub(b.UpdatedAt)), 0)
	}
	return 0
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
