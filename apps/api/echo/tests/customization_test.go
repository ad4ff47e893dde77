package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/mission"
)

func Test_customizationApi(t *testing.T) {
	env := setup(t)
	cat := seedCatalog(t, env)
	path := "/v1/classes/" + env.class.ID + "/missions/" + cat.global.ID + "/customization"
	body := []byte(`{"custom_title": "Fractions (6A)", "custom_unlocked": true, "custom_mission_data": {"missionPageImage": "custom.png"}}`)

	runHTTPTests(t, env, []httpTest{
		{name: "Role required", method: http.MethodPut, path: path, body: body, token: studentToken, wantCode: 403, wantData: marchallObj(t, errForbidden)},
		{name: "Class manager required", method: http.MethodPut, path: path, body: body, token: outsiderToken, wantCode: 403, wantData: marchallObj(t, errForbidden)},
		{name: "Unknown class", method: http.MethodPut, path: "/v1/classes/nope/missions/" + cat.global.ID + "/customization", body: body, token: adminToken, wantCode: 404, wantData: marchallObj(t, errNotFound)},
		{name: "Unknown mission", method: http.MethodPut, path: "/v1/classes/" + env.class.ID + "/missions/nope/customization", body: body, token: adminToken, wantCode: 404, wantData: marchallObj(t, errNotFound)},
		{name: "Mission outside class catalog", path: "/v1/classes/" + env.class.ID + "/missions/" + cat.other.ID + "/customization", token: adminToken, wantCode: 404, wantData: marchallObj(t, errNotFound)},
		{name: "Not customized yet", path: path, token: educatorToken, wantCode: 404, wantData: marchallObj(t, httpErr{Error: "mission customization not found"})},
		{name: "Invalid custom_mission_data", method: http.MethodPut, path: path, body: []byte(`{"custom_mission_data": [1]}`), token: educatorToken, wantCode: 400, wantData: []byte(`{"custom_mission_data": "mission_data must be a JSON object"}`)},
	})

	t.Run("Save and read back", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, path, colleagueToken, body)
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		var saved mission.Customization
		unmarshal(t, rec.Body.Bytes(), &saved)
		assert.Equal(t, null.StringFrom("Fractions (6A)"), saved.CustomTitle)
		assert.Equal(t, null.StringFrom(env.colleague.ID), saved.UpdatedBy)

		req, rec = newAuthRequest(http.MethodGet, path, educatorToken)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: 200, wantData: marchallObj(t, saved)}, rec)

		eff := env.effective(t, cat.global.ID, env.class.ID)
		assert.Equal(t, "Fractions (6A)", eff.Title)
		assert.True(t, eff.Unlocked)
		assert.Equal(t, cdn+"/mission-assets/images/custom.png", eff.MissionData["missionPageImage"])
	})

	t.Run("Saving replaces previous overrides", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, path, educatorToken, []byte(`{"custom_order": 4}`))
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		eff := env.effective(t, cat.global.ID, env.class.ID)
		assert.Equal(t, cat.global.Title, eff.Title)
		assert.Equal(t, 4, eff.OrderNo)
		assert.False(t, eff.Unlocked)
	})

	t.Run("Delete", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, path, adminToken)
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		req, rec = newAuthRequest(http.MethodDelete, path, adminToken)
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		assert.False(t, env.effective(t, cat.global.ID, env.class.ID).HasCustomization)
	})
}
