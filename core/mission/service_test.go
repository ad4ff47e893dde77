package mission_test

import (
	"bytes"
	"context"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/mission"
	"github.com/trezcool/darasa/services/logger"
	"github.com/trezcool/darasa/storage/bucket/inmem"
	"github.com/trezcool/darasa/storage/database/inmem"
)

const (
	assetsBucket   = "mission-assets"
	missionsBucket = "missions"
	cdn            = "https://cdn.test"
)

type testEnv struct {
	repo    mission.Repository
	objects *inmembucket.Store
	svc     mission.Service
}

func setup(t *testing.T) testEnv {
	t.Helper()
	db := inmemdb.NewDB()
	repo := inmemdb.NewMissionRepository(db)
	objects := inmembucket.NewStore(cdn)
	svc := mission.NewService(repo, objects, mission.Options{AssetsBucket: assetsBucket, MissionsBucket: missionsBucket})
	return testEnv{repo: repo, objects: objects, svc: svc}
}

func createMission(t *testing.T, svc mission.Service, nm mission.NewMission) mission.Mission {
	t.Helper()
	if nm.Title == "" {
		nm.Title = "Mission " + nm.MissionUID
	}
	m, err := svc.Create(context.Background(), nm)
	if err != nil {
		t.Fatalf("createMission() failed: %v", err)
	}
	return m
}

func uploadBlob(t *testing.T, objects core.ObjectStore, path, data string) {
	t.Helper()
	if err := objects.Upload(context.Background(), missionsBucket, path, []byte(data), "application/json"); err != nil {
		t.Fatalf("uploadBlob() failed: %v", err)
	}
}

func TestService_Create(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	m := createMission(t, env.svc, mission.NewMission{MissionUID: "M001", OrgID: "", MissionData: []byte(`{"a":1}`)})
	assert.NotEmpty(t, m.ID)
	assert.True(t, m.IsGlobal())
	assert.True(t, m.MissionData.Valid)
	assert.False(t, m.ObjectPath.Valid)
	assert.False(t, m.CreatedAt.IsZero())

	_, err := env.svc.Create(ctx, mission.NewMission{MissionUID: "M001", Title: "dup"})
	var verr *core.ValidationError
	if assert.True(t, errors.As(err, &verr)) {
		assert.Equal(t, "mission_uid", verr.Fields[0].Field)
	}
}

func TestService_Find(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	m := createMission(t, env.svc, mission.NewMission{MissionUID: "M001"})

	tests := []struct {
		name    string
		filter  mission.GetFilter
		wantErr error
	}{
		{name: "by id", filter: mission.GetFilter{ID: m.ID}},
		{name: "by mission_uid", filter: mission.GetFilter{MissionUID: " M001 "}},
		{name: "unknown", filter: mission.GetFilter{MissionUID: "M404"}, wantErr: mission.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.svc.Find(ctx, tt.filter)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
				return
			}
			if assert.NoError(t, err) {
				assert.Equal(t, m.ID, got.ID)
			}
		})
	}

	t.Run("no identifier", func(t *testing.T) {
		_, err := env.svc.Find(ctx, mission.GetFilter{ID: "  "})
		var verr *core.ValidationError
		assert.True(t, errors.As(err, &verr))
	})
}

func TestService_UpdateAndDelete(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	m := createMission(t, env.svc, mission.NewMission{MissionUID: "M001", XPReward: 10})

	title := "Renamed"
	got, err := env.svc.Update(ctx, m.ID, mission.UpdateMission{Title: &title})
	if assert.NoError(t, err) {
		assert.Equal(t, "Renamed", got.Title)
		assert.Equal(t, 10, got.XPReward)
		assert.False(t, got.UpdatedAt.Before(m.UpdatedAt))
	}

	_, err = env.svc.Update(ctx, "404", mission.UpdateMission{Title: &title})
	assert.Equal(t, mission.ErrNotFound, errors.Cause(err))

	_, err = env.svc.UpsertCustomization(ctx, "c1", m.ID, mission.CustomizationInput{CustomTitle: null.StringFrom("x")})
	assert.NoError(t, err)

	assert.NoError(t, env.svc.Delete(ctx, m.ID))
	_, err = env.svc.Get(ctx, m.ID)
	assert.Equal(t, mission.ErrNotFound, errors.Cause(err))
	_, err = env.svc.GetCustomization(ctx, "c1", m.ID)
	assert.Equal(t, mission.ErrCustomizationNotFound, errors.Cause(err))

	assert.Equal(t, mission.ErrNotFound, errors.Cause(env.svc.Delete(ctx, m.ID)))
}

func TestService_Effective(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	m := createMission(t, env.svc, mission.NewMission{
		MissionUID:   "M042",
		Title:        "Loops",
		XPReward:     100,
		MissionData:  []byte(`{"missionPageImage": "hero.png", "intro": {"image": "https://x.test/i.png"}}`),
		AssetsPrefix: "M042",
	})

	t.Run("base mission", func(t *testing.T) {
		eff, err := env.svc.Effective(ctx, m.ID, "")
		if assert.NoError(t, err) {
			assert.False(t, eff.HasCustomization)
			assert.Equal(t, "Loops", eff.Title)
			assert.Equal(t, cdn+"/mission-assets/M042/images/hero.png", eff.MissionData["missionPageImage"])
			assert.Equal(t, "https://x.test/i.png", eff.MissionData["intro"].(map[string]interface{})["image"])
		}
	})

	t.Run("class without customization", func(t *testing.T) {
		eff, err := env.svc.Effective(ctx, m.ID, "class-1")
		if assert.NoError(t, err) {
			assert.False(t, eff.HasCustomization)
			assert.Equal(t, 100, eff.XPReward)
		}
	})

	t.Run("customized class", func(t *testing.T) {
		_, err := env.svc.UpsertCustomization(ctx, "class-2", m.ID, mission.CustomizationInput{
			CustomXPReward:    null.IntFrom(7),
			CustomMissionData: null.JSONFrom([]byte(`{"missionPageImage": "custom.png"}`)),
		})
		if !assert.NoError(t, err) {
			return
		}
		eff, err := env.svc.Effective(ctx, m.ID, "class-2")
		if assert.NoError(t, err) {
			assert.True(t, eff.HasCustomization)
			assert.Equal(t, null.StringFrom("class-2"), eff.ClassID)
			assert.Equal(t, 7, eff.XPReward)
			assert.Equal(t, "Loops", eff.Title)
			assert.Equal(t, cdn+"/mission-assets/M042/images/custom.png", eff.MissionData["missionPageImage"])
			_, hasIntro := eff.MissionData["intro"]
			assert.False(t, hasIntro)
		}
	})

	t.Run("custom bucket", func(t *testing.T) {
		bucket := "other"
		_, err := env.svc.Update(ctx, m.ID, mission.UpdateMission{AssetsBucket: &bucket})
		if !assert.NoError(t, err) {
			return
		}
		eff, err := env.svc.Effective(ctx, m.ID, "")
		if assert.NoError(t, err) {
			assert.Equal(t, cdn+"/other/M042/images/hero.png", eff.MissionData["missionPageImage"])
		}
	})

	t.Run("unknown mission", func(t *testing.T) {
		_, err := env.svc.Effective(ctx, "404", "")
		assert.Equal(t, mission.ErrNotFound, errors.Cause(err))
	})
}

func TestService_Effective_StoredBlob(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	m := createMission(t, env.svc, mission.NewMission{MissionUID: "M007", ObjectPath: "missions/M007.json", AssetsPrefix: "M007"})
	uploadBlob(t, env.objects, "missions/M007.json", `{"missionPageImage": "hero.png"}`)

	eff, err := env.svc.Effective(ctx, m.ID, "")
	if assert.NoError(t, err) {
		assert.Equal(t, cdn+"/mission-assets/M007/images/hero.png", eff.MissionData["missionPageImage"])
	}

	// a missing blob leaves the mission without a document
	m2 := createMission(t, env.svc, mission.NewMission{MissionUID: "M008", ObjectPath: "missing.json"})
	eff, err = env.svc.Effective(ctx, m2.ID, "")
	if assert.NoError(t, err) {
		assert.Nil(t, eff.MissionData)
	}
}

func TestService_Effective_UndecodableBlob(t *testing.T) {
	var buf bytes.Buffer
	repo := inmemdb.NewMissionRepository(inmemdb.NewDB())
	objects := inmembucket.NewStore(cdn)
	svc := mission.NewService(repo, objects, mission.Options{
		AssetsBucket:   assetsBucket,
		MissionsBucket: missionsBucket,
		Logger:         logsvc.NewRollbarLogger(log.New(&buf, "", 0), &core.Config{TestMode: true}),
	})
	ctx := context.Background()

	tests := []struct {
		uid  string
		blob string
	}{
		{uid: "M009", blob: `[{"image": "a.png"}]`},
		{uid: "M010", blob: `{"missionPageImage": "hero.png",`},
	}
	for _, tt := range tests {
		t.Run(tt.uid, func(t *testing.T) {
			m := createMission(t, svc, mission.NewMission{MissionUID: tt.uid, ObjectPath: tt.uid + ".json"})
			uploadBlob(t, objects, tt.uid+".json", tt.blob)

			eff, err := svc.Effective(ctx, m.ID, "")
			if assert.NoError(t, err) {
				assert.Nil(t, eff.MissionData)
				assert.Equal(t, tt.uid, eff.MissionUID)
			}
			assert.Contains(t, buf.String(), "[WARN] mission "+tt.uid+": undecodable json blob "+tt.uid+".json")
		})
	}
}

func TestService_UploadAsset(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		up         mission.AssetUpload
		wantBucket string
		wantPath   string
	}{
		{
			name:       "bare name under prefix",
			up:         mission.AssetUpload{Prefix: "M042", FileName: "hero.png", ContentType: "image/png", Data: []byte("png")},
			wantBucket: assetsBucket, wantPath: "M042/images/hero.png",
		},
		{
			name:       "client path is dropped",
			up:         mission.AssetUpload{Prefix: "M042", FileName: `C:\Users\me\step.png`, Data: []byte("png")},
			wantBucket: assetsBucket, wantPath: "M042/images/step.png",
		},
		{
			name:       "custom bucket",
			up:         mission.AssetUpload{Bucket: "extra", FileName: "a.png", Data: []byte("png")},
			wantBucket: "extra", wantPath: "images/a.png",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.svc.UploadAsset(ctx, tt.up)
			if assert.NoError(t, err) {
				assert.Equal(t, tt.wantBucket, got.Bucket)
				assert.Equal(t, tt.wantPath, got.Path)
				assert.Equal(t, cdn+"/"+tt.wantBucket+"/"+tt.wantPath, got.URL)
				assert.True(t, env.objects.Exists(tt.wantBucket, tt.wantPath))
			}
		})
	}

	t.Run("missing file name", func(t *testing.T) {
		_, err := env.svc.UploadAsset(ctx, mission.AssetUpload{FileName: " ", Data: []byte("x")})
		var verr *core.ValidationError
		assert.True(t, errors.As(err, &verr))
	})
}
