package mission

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"
)

func baseMission() Mission {
	now := time.Now().UTC()
	return Mission{
		ID:            "m1",
		MissionUID:    "M001",
		Title:         "Hello World",
		Description:   "your first program",
		OrderNo:       1,
		XPReward:      50,
		Unlocked:      false,
		Difficulty:    "easy",
		EstimatedTime: 15,
		MissionData:   null.JSONFrom([]byte(`{"missionPageImage":"hero.png","steps":[{"title":"one"}]}`)),
		AssetsPrefix:  null.StringFrom("M001"),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestOverlay_NoCustomization(t *testing.T) {
	m := baseMission()

	eff, err := Overlay(m, nil)
	if assert.NoError(t, err) {
		assert.False(t, eff.HasCustomization)
		assert.False(t, eff.ClassID.Valid)
		assert.Equal(t, m.ID, eff.ID)
		assert.Equal(t, m.MissionUID, eff.MissionUID)
		assert.Equal(t, m.Title, eff.Title)
		assert.Equal(t, m.Description, eff.Description)
		assert.Equal(t, m.OrderNo, eff.OrderNo)
		assert.Equal(t, m.XPReward, eff.XPReward)
		assert.Equal(t, m.Unlocked, eff.Unlocked)
		assert.Equal(t, m.Difficulty, eff.Difficulty)
		assert.Equal(t, m.EstimatedTime, eff.EstimatedTime)
		assert.Equal(t, m.AssetsPrefix, eff.AssetsPrefix)
		assert.Equal(t, "hero.png", eff.MissionData["missionPageImage"])
	}
}

func TestOverlay_Fields(t *testing.T) {
	m := baseMission()

	tests := []struct {
		name   string
		custom Customization
		check  func(t *testing.T, eff EffectiveMission)
	}{
		{
			name:   "empty customization",
			custom: Customization{ClassID: "c1"},
			check: func(t *testing.T, eff EffectiveMission) {
				assert.Equal(t, m.Title, eff.Title)
				assert.Equal(t, m.XPReward, eff.XPReward)
			},
		},
		{
			name:   "title only",
			custom: Customization{ClassID: "c1", CustomTitle: null.StringFrom("Bonjour")},
			check: func(t *testing.T, eff EffectiveMission) {
				assert.Equal(t, "Bonjour", eff.Title)
				assert.Equal(t, m.Description, eff.Description)
				assert.Equal(t, m.OrderNo, eff.OrderNo)
			},
		},
		{
			name: "zero values still override",
			custom: Customization{
				ClassID:             "c1",
				CustomDescription:   null.StringFrom(""),
				CustomOrder:         null.IntFrom(0),
				CustomXPReward:      null.IntFrom(0),
				CustomEstimatedTime: null.IntFrom(0),
			},
			check: func(t *testing.T, eff EffectiveMission) {
				assert.Equal(t, "", eff.Description)
				assert.Equal(t, 0, eff.OrderNo)
				assert.Equal(t, 0, eff.XPReward)
				assert.Equal(t, 0, eff.EstimatedTime)
				assert.Equal(t, m.Title, eff.Title)
			},
		},
		{
			name: "gameplay fields",
			custom: Customization{
				ClassID:          "c1",
				CustomUnlocked:   null.BoolFrom(true),
				CustomDifficulty: null.StringFrom("hard"),
			},
			check: func(t *testing.T, eff EffectiveMission) {
				assert.True(t, eff.Unlocked)
				assert.Equal(t, "hard", eff.Difficulty)
			},
		},
		{
			name: "mission data replaced as a whole",
			custom: Customization{
				ClassID:           "c1",
				CustomMissionData: null.JSONFrom([]byte(`{"intro":{"text":"custom"}}`)),
			},
			check: func(t *testing.T, eff EffectiveMission) {
				_, hasImage := eff.MissionData["missionPageImage"]
				_, hasSteps := eff.MissionData["steps"]
				assert.False(t, hasImage)
				assert.False(t, hasSteps)
				assert.Equal(t, map[string]interface{}{"text": "custom"}, eff.MissionData["intro"])
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			custom := tt.custom
			eff, err := Overlay(m, &custom)
			if assert.NoError(t, err) {
				assert.True(t, eff.HasCustomization)
				assert.Equal(t, null.StringFrom("c1"), eff.ClassID)
				tt.check(t, eff)
			}
		})
	}
}

func TestOverlay_InvalidDocument(t *testing.T) {
	m := baseMission()
	m.MissionData = null.JSONFrom([]byte(`["not", "an", "object"]`))

	_, err := Overlay(m, nil)
	assert.Error(t, err)
}

func TestOverlay_NullDocument(t *testing.T) {
	m := baseMission()
	m.MissionData = null.JSON{}

	eff, err := Overlay(m, nil)
	if assert.NoError(t, err) {
		assert.Nil(t, eff.MissionData)
	}
}
