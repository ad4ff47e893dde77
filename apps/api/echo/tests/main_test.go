package tests

import (
	"context"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/classroom"
	"github.com/trezcool/darasa/core/mission"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/services/logger"
	"github.com/trezcool/darasa/storage/bucket/inmem"
	"github.com/trezcool/darasa/storage/database/inmem"
	"github.com/trezcool/darasa/tests"
)

const (
	org1 = "11111111-1111-1111-1111-111111111111"
	org2 = "22222222-2222-2222-2222-222222222222"
	cdn  = "https://cdn.test"

	// tokens
	adminToken     = "admin-token"
	educatorToken  = "educator-token"
	colleagueToken = "colleague-token"
	outsiderToken  = "outsider-token"
	studentToken   = "student-token"
	strangerToken  = "stranger-token"
	lonerToken     = "loner-token" // educator without organization
	noProfileToken = "no-profile-token"
)

var (
	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errBadToken     = httpErr{Error: "invalid or expired token"}
	errNoProfile    = httpErr{Error: "user profile not found"}
	errForbidden    = httpErr{Error: "permission denied"}
	errNotFound     = httpErr{Error: "not found"}
)

type testEnv struct {
	app        echoapi.Server
	db         *inmemdb.DB
	objects    *inmembucket.Store
	missionSvc mission.Service

	admin, educator, colleague, outsider, student, stranger user.Profile
	class, otherOrgClass                                    classroom.Class
}

func setup(t *testing.T) *testEnv {
	conf := testutil.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), conf)

	// set up DB & repos
	db := inmemdb.NewDB()
	objects := inmembucket.NewStore(cdn)

	// set up services
	missionSvc := mission.NewService(inmemdb.NewMissionRepository(db), objects, mission.Options{
		AssetsBucket:   conf.Storage.AssetsBucket,
		MissionsBucket: conf.Storage.MissionsBucket,
	})
	validate, translator := testutil.NewValidator()

	env := &testEnv{db: db, objects: objects, missionSvc: missionSvc}
	env.admin = db.AddProfile(user.Profile{ID: "admin", Email: "admin@test.cd", Role: user.RoleAdmin})
	env.educator = db.AddProfile(user.Profile{ID: "educator", Email: "edu@test.cd", Role: user.RoleEducator, OrgID: null.StringFrom(org1)})
	env.colleague = db.AddProfile(user.Profile{ID: "colleague", Role: user.RoleEducator, OrgID: null.StringFrom(org1)})
	env.outsider = db.AddProfile(user.Profile{ID: "outsider", Role: user.RoleEducator, OrgID: null.StringFrom(org2)})
	env.student = db.AddProfile(user.Profile{ID: "student", Role: user.RoleStudent, OrgID: null.StringFrom(org1)})
	env.stranger = db.AddProfile(user.Profile{ID: "stranger", Role: user.RoleStudent, OrgID: null.StringFrom(org1)})
	db.AddProfile(user.Profile{ID: "loner", Role: user.RoleEducator})

	env.class = db.AddClass(classroom.Class{ID: "class-1", Name: "6A", OrgID: null.StringFrom(org1), EducatorID: null.StringFrom(env.educator.ID)})
	env.otherOrgClass = db.AddClass(classroom.Class{ID: "class-2", Name: "6B", OrgID: null.StringFrom(org2), EducatorID: null.StringFrom(env.outsider.ID)})
	db.Enroll(env.class.ID, env.student.ID)

	verifier := testutil.StaticVerifier{
		adminToken:     core.Identity{ID: "admin"},
		educatorToken:  core.Identity{ID: "educator"},
		colleagueToken: core.Identity{ID: "colleague"},
		outsiderToken:  core.Identity{ID: "outsider"},
		studentToken:   core.Identity{ID: "student"},
		strangerToken:  core.Identity{ID: "stranger"},
		lonerToken:     core.Identity{ID: "loner"},
		noProfileToken: core.Identity{ID: "ghost"},
	}

	// set up server
	env.app = echoapi.NewServer(echoapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		Verifier:   verifier,
		UserSvc:    user.NewService(inmemdb.NewProfileRepository(db)),
		ClassSvc:   classroom.NewService(inmemdb.NewClassRepository(db)),
		MissionSvc: missionSvc,
		Validate:   validate,
		Translator: translator,
	})
	t.Cleanup(func() { _ = env.app.Shutdown(context.Background()) })
	return env
}

func (env *testEnv) effective(t *testing.T, missionID, classID string) mission.EffectiveMission {
	eff, err := env.missionSvc.Effective(context.Background(), missionID, classID)
	if err != nil {
		t.Fatalf("effective() failed: %v", err)
	}
	return eff
}

func TestHome(t *testing.T) {
	env := setup(t)
	req, rec := newRequest("/")
	env.app.ServeHTTP(rec, req)
	if rec.Code != 200 || rec.Body.String() != "Welcome to Darasa API!" {
		t.Errorf("failed! code = %v; body %q", rec.Code, rec.Body.String())
	}
}

func TestAuth(t *testing.T) {
	env := setup(t)
	runHTTPTests(t, env, []httpTest{
		{name: "Auth required", path: "/v1/missions", wantCode: 401, wantData: marchallObj(t, errMissingToken)},
		{name: "Invalid token", path: "/v1/missions", token: "nope", wantCode: 401, wantData: marchallObj(t, errBadToken)},
		{name: "Profile required", path: "/v1/missions", token: noProfileToken, wantCode: 403, wantData: marchallObj(t, errNoProfile)},
		{name: "Unknown route", path: "/v1/nope", token: adminToken, wantCode: 404, wantData: marchallObj(t, httpErr{Error: "Not Found"})},
	})
}

func newRequest(path string) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(http.MethodGet, path, "")
}
