package mission

import (
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

// Overlay applies the class customization c (may be nil) to the base mission m.
// Non-null customization fields win; custom mission data replaces the base document as a whole.
// Asset references are left as stored, see ResolveAssetPaths.
func Overlay(m Mission, c *Customization) (EffectiveMission, error) {
	eff := EffectiveMission{
		ID:            m.ID,
		MissionUID:    m.MissionUID,
		OrgID:         m.OrgID,
		Title:         m.Title,
		Description:   m.Description,
		OrderNo:       m.OrderNo,
		XPReward:      m.XPReward,
		Unlocked:      m.Unlocked,
		Difficulty:    m.Difficulty,
		EstimatedTime: m.EstimatedTime,
		AssetsBucket:  m.AssetsBucket,
		AssetsPrefix:  m.AssetsPrefix,
	}
	data := m.MissionData

	if c != nil {
		eff.HasCustomization = true
		eff.ClassID = null.StringFrom(c.ClassID)

		if c.CustomTitle.Valid {
			eff.Title = c.CustomTitle.String
		}
		if c.CustomDescription.Valid {
			eff.Description = c.CustomDescription.String
		}
		if c.CustomOrder.Valid {
			eff.OrderNo = c.CustomOrder.Int
		}
		if c.CustomXPReward.Valid {
			eff.XPReward = c.CustomXPReward.Int
		}
		if c.CustomUnlocked.Valid {
			eff.Unlocked = c.CustomUnlocked.Bool
		}
		if c.CustomDifficulty.Valid {
			eff.Difficulty = c.CustomDifficulty.String
		}
		if c.CustomEstimatedTime.Valid {
			eff.EstimatedTime = c.CustomEstimatedTime.Int
		}
		if c.CustomMissionData.Valid {
			data = c.CustomMissionData
		}
	}

	if data.Valid {
		doc, err := DecodeDocument(data.JSON)
		if err != nil {
			return EffectiveMission{}, errors.Wrapf(err, "mission %s", m.MissionUID)
		}
		eff.MissionData = doc
	}
	return eff, nil
}
