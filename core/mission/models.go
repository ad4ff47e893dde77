package mission

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

var errNotAnObject = errors.New("mission_data must be a JSON object")

// Document is a decoded `mission_data` tree.
type Document map[string]interface{}

// DecodeDocument decodes a `mission_data` value. Empty and `null` values decode to a nil Document.
func DecodeDocument(data []byte) (Document, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	if data[0] != '{' {
		return nil, errNotAnObject
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "decoding mission_data")
	}
	return doc, nil
}

// Mission is a `missions` catalog row. Global missions have no OrgID.
type Mission struct {
	ID            string      `db:"id" json:"id"`
	MissionUID    string      `db:"mission_uid" json:"mission_uid"`
	OrgID         null.String `db:"org_id" json:"org_id"`
	Title         string      `db:"title" json:"title"`
	Description   string      `db:"description" json:"description"`
	OrderNo       int         `db:"order_no" json:"order_no"`
	XPReward      int         `db:"xp_reward" json:"xp_reward"`
	Unlocked      bool        `db:"unlocked" json:"unlocked"`
	Difficulty    string      `db:"difficulty" json:"difficulty"`
	EstimatedTime int         `db:"estimated_time" json:"estimated_time"` // minutes
	MissionData   null.JSON   `db:"mission_data" json:"mission_data"`
	AssetsBucket  null.String `db:"assets_bucket" json:"assets_bucket"`
	AssetsPrefix  null.String `db:"assets_prefix" json:"assets_prefix"`
	ObjectPath    null.String `db:"object_path" json:"object_path"` // JSON blob in the missions bucket
	CreatedBy     null.String `db:"created_by" json:"created_by"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"` // UTC
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"` // UTC
}

func (m Mission) IsGlobal() bool { return !m.OrgID.Valid }

// VisibleTo reports whether prof may read the mission.
func (m Mission) VisibleTo(prof user.Profile) bool {
	return prof.IsAdmin() || m.IsGlobal() || prof.InOrg(m.OrgID)
}

// EditableBy reports whether prof may change or delete the mission.
// Global missions belong to the platform's authors (admins).
func (m Mission) EditableBy(prof user.Profile) bool {
	return prof.IsAdmin() || (prof.IsEducator() && prof.InOrg(m.OrgID))
}

// Customization is a `class_mission_customizations` row, unique per (ClassID, MissionID).
// Null fields keep the base mission's value.
type Customization struct {
	ID                  string      `db:"id" json:"id"`
	ClassID             string      `db:"class_id" json:"class_id"`
	MissionID           string      `db:"mission_id" json:"mission_id"`
	CustomTitle         null.String `db:"custom_title" json:"custom_title"`
	CustomDescription   null.String `db:"custom_description" json:"custom_description"`
	CustomOrder         null.Int    `db:"custom_order" json:"custom_order"`
	CustomXPReward      null.Int    `db:"custom_xp_reward" json:"custom_xp_reward"`
	CustomUnlocked      null.Bool   `db:"custom_unlocked" json:"custom_unlocked"`
	CustomDifficulty    null.String `db:"custom_difficulty" json:"custom_difficulty"`
	CustomEstimatedTime null.Int    `db:"custom_estimated_time" json:"custom_estimated_time"`
	CustomMissionData   null.JSON   `db:"custom_mission_data" json:"custom_mission_data"`
	UpdatedBy           null.String `db:"updated_by" json:"updated_by"`
	CreatedAt           time.Time   `db:"created_at" json:"created_at"` // UTC
	UpdatedAt           time.Time   `db:"updated_at" json:"updated_at"` // UTC
}

// EffectiveMission is what a class's reader is served: the base mission with its class customization
// applied and every known asset reference resolved to a public URL. It is never stored.
type EffectiveMission struct {
	ID               string      `json:"id"`
	MissionUID       string      `json:"mission_uid"`
	OrgID            null.String `json:"org_id"`
	ClassID          null.String `json:"class_id"`
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	OrderNo          int         `json:"order_no"`
	XPReward         int         `json:"xp_reward"`
	Unlocked         bool        `json:"unlocked"`
	Difficulty       string      `json:"difficulty"`
	EstimatedTime    int         `json:"estimated_time"`
	MissionData      Document    `json:"mission_data"`
	AssetsBucket     null.String `json:"assets_bucket"`
	AssetsPrefix     null.String `json:"assets_prefix"`
	HasCustomization bool        `json:"has_customization"`
}

// NewMission contains information needed to create a new Mission.
type NewMission struct {
	MissionUID    string          `json:"mission_uid" validate:"required,max=64,slug"`
	OrgID         string          `json:"org_id" validate:"omitempty,uuid"`
	Title         string          `json:"title" validate:"required,max=200"`
	Description   string          `json:"description"`
	OrderNo       int             `json:"order_no" validate:"min=0"`
	XPReward      int             `json:"xp_reward" validate:"min=0"`
	Unlocked      bool            `json:"unlocked"`
	Difficulty    string          `json:"difficulty" validate:"max=32"`
	EstimatedTime int             `json:"estimated_time" validate:"min=0"`
	MissionData   json.RawMessage `json:"mission_data"`
	AssetsBucket  string          `json:"assets_bucket" validate:"omitempty,max=63,slug"`
	AssetsPrefix  string          `json:"assets_prefix" validate:"omitempty,relpath"`
	ObjectPath    string          `json:"object_path" validate:"omitempty,relpath"`
	CreatedBy     string          `json:"-"`
}

func (nm *NewMission) Validate(validate *validator.Validate) error {
	nm.MissionUID = core.CleanString(nm.MissionUID)
	nm.Title = core.CleanString(nm.Title)
	nm.Description = core.CleanString(nm.Description)
	nm.Difficulty = core.CleanString(nm.Difficulty, true /* lower */)
	nm.AssetsBucket = core.CleanString(nm.AssetsBucket)
	nm.AssetsPrefix = core.CleanString(nm.AssetsPrefix)
	nm.ObjectPath = core.CleanString(nm.ObjectPath)

	if err := validate.Struct(nm); err != nil {
		return err
	}
	return validateDocument("mission_data", nm.MissionData)
}

// UpdateMission defines what information may be provided to modify an existing Mission.
// The mission_uid is the mission's stable key and cannot be changed.
type UpdateMission struct {
	Title         *string         `json:"title" validate:"omitempty,min=1,max=200"`
	Description   *string         `json:"description"`
	OrderNo       *int            `json:"order_no" validate:"omitempty,min=0"`
	XPReward      *int            `json:"xp_reward" validate:"omitempty,min=0"`
	Unlocked      *bool           `json:"unlocked"`
	Difficulty    *string         `json:"difficulty" validate:"omitempty,max=32"`
	EstimatedTime *int            `json:"estimated_time" validate:"omitempty,min=0"`
	MissionData   json.RawMessage `json:"mission_data"`
	AssetsBucket  *string         `json:"assets_bucket" validate:"omitempty,max=63,slug"`
	AssetsPrefix  *string         `json:"assets_prefix" validate:"omitempty,relpath"`
}

func (um *UpdateMission) Validate(validate *validator.Validate) error {
	um.Title = core.CleanStringPtr(um.Title)
	um.Description = core.CleanStringPtr(um.Description)
	um.Difficulty = core.CleanStringPtr(um.Difficulty, true /* lower */)
	um.AssetsBucket = core.CleanStringPtr(um.AssetsBucket)
	um.AssetsPrefix = core.CleanStringPtr(um.AssetsPrefix)

	if err := validate.Struct(um); err != nil {
		return err
	}
	return validateDocument("mission_data", um.MissionData)
}

// apply returns m with the provided fields of um.
func (um UpdateMission) apply(m Mission) Mission {
	if um.Title != nil {
		m.Title = *um.Title
	}
	if um.Description != nil {
		m.Description = *um.Description
	}
	if um.OrderNo != nil {
		m.OrderNo = *um.OrderNo
	}
	if um.XPReward != nil {
		m.XPReward = *um.XPReward
	}
	if um.Unlocked != nil {
		m.Unlocked = *um.Unlocked
	}
	if um.Difficulty != nil {
		m.Difficulty = *um.Difficulty
	}
	if um.EstimatedTime != nil {
		m.EstimatedTime = *um.EstimatedTime
	}
	if len(um.MissionData) > 0 {
		m.MissionData = jsonFromRaw(um.MissionData)
	}
	if um.AssetsBucket != nil {
		m.AssetsBucket = null.NewString(*um.AssetsBucket, *um.AssetsBucket != "")
	}
	if um.AssetsPrefix != nil {
		m.AssetsPrefix = null.NewString(*um.AssetsPrefix, *um.AssetsPrefix != "")
	}
	return m
}

// CustomizationInput is the full set of overrides a class keeps for a mission.
// Saving it replaces the previous overrides; omitted or null fields fall back to the base mission.
type CustomizationInput struct {
	CustomTitle         null.String `json:"custom_title" validate:"omitempty,max=200"`
	CustomDescription   null.String `json:"custom_description"`
	CustomOrder         null.Int    `json:"custom_order" validate:"omitempty,min=0"`
	CustomXPReward      null.Int    `json:"custom_xp_reward" validate:"omitempty,min=0"`
	CustomUnlocked      null.Bool   `json:"custom_unlocked"`
	CustomDifficulty    null.String `json:"custom_difficulty" validate:"omitempty,max=32"`
	CustomEstimatedTime null.Int    `json:"custom_estimated_time" validate:"omitempty,min=0"`
	CustomMissionData   null.JSON   `json:"custom_mission_data"`
	UpdatedBy           string      `json:"-"`
}

func (ci *CustomizationInput) Validate(validate *validator.Validate) error {
	if err := validate.Struct(ci); err != nil {
		return err
	}
	if ci.CustomMissionData.Valid {
		return validateDocument("custom_mission_data", ci.CustomMissionData.JSON)
	}
	return nil
}

// GetFilter selects a single Mission by ID or, when ID is empty, by MissionUID.
type GetFilter struct {
	ID         string `query:"id"`
	MissionUID string `query:"mission_uid"`
}

func (f GetFilter) IsEmpty() bool { return f.ID == "" && f.MissionUID == "" }

type QueryFilter struct {
	Search     string `query:"search"`
	Difficulty string `query:"difficulty"`

	// visibility, always set by the caller
	OrgID   string
	AllOrgs bool
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Difficulty = core.CleanString(qf.Difficulty, true /* lower */)
}

// AssetUpload is a file to store under a mission's asset prefix.
type AssetUpload struct {
	Bucket      string
	Prefix      string
	FileName    string
	ContentType string
	Data        []byte
}

type UploadedAsset struct {
	Bucket string `json:"bucket"`
	Path   string `json:"path"`
	URL    string `json:"url"`
}

func validateDocument(field string, raw []byte) error {
	if _, err := DecodeDocument(raw); err != nil {
		return core.NewFieldError(field, errNotAnObject)
	}
	return nil
}

func jsonFromRaw(raw []byte) null.JSON {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return null.JSON{}
	}
	return null.JSONFrom(raw)
}
