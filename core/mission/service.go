package mission

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrNotFound              = errors.New("mission not found")
	ErrCustomizationNotFound = errors.New("mission customization not found")
	ErrMissionUIDExists      = errors.New("a mission with this mission_uid already exists")

	errMissingIdentifier = errors.New("id or mission_uid is required")
	errMissingFileName   = errors.New("file name is required")
)

type (
	Repository interface {
		CreateMission(ctx context.Context, m Mission) (Mission, error)
		// QueryMissions applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Mission.Title or Mission.MissionUID.
		QueryMissions(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Mission, error)
		GetMission(ctx context.Context, filter GetFilter) (Mission, error)
		UpdateMission(ctx context.Context, m Mission) (Mission, error)
		UpdateObjectPath(ctx context.Context, id, objectPath string) error
		// DeleteMission also deletes the mission's class customizations.
		DeleteMission(ctx context.Context, id string) error

		GetCustomization(ctx context.Context, classID, missionID string) (Customization, error)
		UpsertCustomization(ctx context.Context, c Customization) (Customization, error)
		DeleteCustomization(ctx context.Context, classID, missionID string) error
	}

	Service interface {
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Mission, error)
		Get(ctx context.Context, id string) (Mission, error)
		Find(ctx context.Context, filter GetFilter) (Mission, error)
		Create(ctx context.Context, nm NewMission) (Mission, error)
		Update(ctx context.Context, id string, um UpdateMission) (Mission, error)
		Delete(ctx context.Context, id string) error

		// Effective builds the mission as served to classID's readers (base mission when classID is empty).
		Effective(ctx context.Context, missionID, classID string) (EffectiveMission, error)

		GetCustomization(ctx context.Context, classID, missionID string) (Customization, error)
		UpsertCustomization(ctx context.Context, classID, missionID string, ci CustomizationInput) (Customization, error)
		DeleteCustomization(ctx context.Context, classID, missionID string) error

		UploadAsset(ctx context.Context, up AssetUpload) (UploadedAsset, error)
		NormalizeJSONPaths(ctx context.Context) (NormalizeReport, error)
	}

	Options struct {
		AssetsBucket   string      // used by missions without an assets_bucket
		MissionsBucket string      // holds the missions' JSON blobs
		Logger         core.Logger // optional
	}

	service struct {
		repo    Repository
		objects core.ObjectStore
		opts    Options
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, objects core.ObjectStore, opts Options) Service {
	return &service{repo: repo, objects: objects, opts: opts}
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Mission, error) {
	return svc.repo.QueryMissions(ctx, filter, ordering)
}

func (svc *service) Get(ctx context.Context, id string) (Mission, error) {
	if id == "" {
		return Mission{}, ErrNotFound
	}
	return svc.repo.GetMission(ctx, GetFilter{ID: id})
}

func (svc *service) Find(ctx context.Context, filter GetFilter) (Mission, error) {
	filter.ID = core.CleanString(filter.ID)
	filter.MissionUID = core.CleanString(filter.MissionUID)
	if filter.IsEmpty() {
		return Mission{}, core.NewValidationError(errMissingIdentifier)
	}
	return svc.repo.GetMission(ctx, filter)
}

func (svc *service) Create(ctx context.Context, nm NewMission) (Mission, error) {
	now := time.Now().UTC()
	m := Mission{
		MissionUID:    nm.MissionUID,
		OrgID:         null.NewString(nm.OrgID, nm.OrgID != ""),
		Title:         nm.Title,
		Description:   nm.Description,
		OrderNo:       nm.OrderNo,
		XPReward:      nm.XPReward,
		Unlocked:      nm.Unlocked,
		Difficulty:    nm.Difficulty,
		EstimatedTime: nm.EstimatedTime,
		MissionData:   jsonFromRaw(nm.MissionData),
		AssetsBucket:  null.NewString(nm.AssetsBucket, nm.AssetsBucket != ""),
		AssetsPrefix:  null.NewString(nm.AssetsPrefix, nm.AssetsPrefix != ""),
		ObjectPath:    null.NewString(nm.ObjectPath, nm.ObjectPath != ""),
		CreatedBy:     null.NewString(nm.CreatedBy, nm.CreatedBy != ""),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	m, err := svc.repo.CreateMission(ctx, m)
	if err != nil {
		if errors.Cause(err) == ErrMissionUIDExists {
			return Mission{}, core.NewFieldError("mission_uid", err)
		}
		return Mission{}, errors.Wrap(err, "creating mission")
	}
	return m, nil
}

func (svc *service) Update(ctx context.Context, id string, um UpdateMission) (Mission, error) {
	m, err := svc.Get(ctx, id)
	if err != nil {
		return Mission{}, err
	}
	m = um.apply(m)
	m.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateMission(ctx, m)
}

func (svc *service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return core.NewValidationError(errMissingIdentifier)
	}
	return svc.repo.DeleteMission(ctx, id)
}

func (svc *service) Effective(ctx context.Context, missionID, classID string) (EffectiveMission, error) {
	m, err := svc.Get(ctx, missionID)
	if err != nil {
		return EffectiveMission{}, err
	}

	var custom *Customization
	if classID != "" {
		c, err := svc.repo.GetCustomization(ctx, classID, m.ID)
		switch {
		case err == nil:
			custom = &c
		case errors.Cause(err) != ErrCustomizationNotFound:
			return EffectiveMission{}, errors.Wrap(err, "finding customization")
		}
	}

	// missions that do not inline their document keep it in the missions bucket
	if !m.MissionData.Valid && m.ObjectPath.Valid && (custom == nil || !custom.CustomMissionData.Valid) {
		data, err := svc.objects.Download(ctx, svc.opts.MissionsBucket, recordedPath(m.ObjectPath))
		switch {
		case err == nil:
			if _, err := DecodeDocument(data); err != nil {
				// served like a missing blob
				svc.warn(fmt.Sprintf("mission %s: undecodable json blob %s", m.MissionUID, m.ObjectPath.String), err)
				break
			}
			m.MissionData = jsonFromRaw(data)
		case errors.Cause(err) != core.ErrObjectNotFound:
			return EffectiveMission{}, errors.Wrap(err, "downloading mission json")
		}
	}

	eff, err := Overlay(m, custom)
	if err != nil {
		return EffectiveMission{}, err
	}
	eff.MissionData = ResolveAssetPaths(eff.MissionData, svc.assetsBucket(m.AssetsBucket), m.AssetsPrefix.String, svc.objects.PublicURL)
	return eff, nil
}

func (svc *service) GetCustomization(ctx context.Context, classID, missionID string) (Customization, error) {
	return svc.repo.GetCustomization(ctx, classID, missionID)
}

func (svc *service) UpsertCustomization(ctx context.Context, classID, missionID string, ci CustomizationInput) (Customization, error) {
	m, err := svc.Get(ctx, missionID)
	if err != nil {
		return Customization{}, err
	}
	now := time.Now().UTC()
	c := Customization{
		ClassID:             classID,
		MissionID:           m.ID,
		CustomTitle:         ci.CustomTitle,
		CustomDescription:   ci.CustomDescription,
		CustomOrder:         ci.CustomOrder,
		CustomXPReward:      ci.CustomXPReward,
		CustomUnlocked:      ci.CustomUnlocked,
		CustomDifficulty:    ci.CustomDifficulty,
		CustomEstimatedTime: ci.CustomEstimatedTime,
		CustomMissionData:   ci.CustomMissionData,
		UpdatedBy:           null.NewString(ci.UpdatedBy, ci.UpdatedBy != ""),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	c, err = svc.repo.UpsertCustomization(ctx, c)
	return c, errors.Wrap(err, "saving customization")
}

func (svc *service) DeleteCustomization(ctx context.Context, classID, missionID string) error {
	return svc.repo.DeleteCustomization(ctx, classID, missionID)
}

// UploadAsset stores a mission asset where ResolveAssetPaths will look for its file name.
func (svc *service) UploadAsset(ctx context.Context, up AssetUpload) (UploadedAsset, error) {
	name := path.Base(strings.ReplaceAll(core.CleanString(up.FileName), `\`, "/"))
	if name == "" || name == "." || name == "/" {
		return UploadedAsset{}, core.NewFieldError("file", errMissingFileName)
	}

	bucket := svc.assetsBucket(null.StringFrom(core.CleanString(up.Bucket)))
	if err := svc.objects.EnsureBucket(ctx, bucket, true /* public */); err != nil {
		return UploadedAsset{}, errors.Wrapf(err, "ensuring bucket %s", bucket)
	}

	p := StoragePath(up.Prefix, name)
	if err := svc.objects.Upload(ctx, bucket, p, up.Data, up.ContentType); err != nil {
		return UploadedAsset{}, errors.Wrapf(err, "uploading %s", p)
	}
	u, err := svc.objects.PublicURL(bucket, p)
	if err != nil {
		return UploadedAsset{}, errors.Wrap(err, "building public url")
	}
	return UploadedAsset{Bucket: bucket, Path: p, URL: u}, nil
}

func (svc *service) warn(msg string, args ...interface{}) {
	if svc.opts.Logger != nil {
		svc.opts.Logger.Warn(msg, args...)
	}
}

func (svc *service) assetsBucket(b null.String) string {
	if b.Valid && b.String != "" {
		return b.String
	}
	return svc.opts.AssetsBucket
}
