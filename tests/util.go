package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/mission"
	"github.com/trezcool/darasa/storage/database"
)

// StaticVerifier accepts the tokens it maps to an identity.
type StaticVerifier map[string]core.Identity

var _ core.AuthVerifier = StaticVerifier(nil)

func (v StaticVerifier) Verify(_ context.Context, token string) (core.Identity, error) {
	if ident, ok := v[token]; ok {
		return ident, nil
	}
	return core.Identity{}, errors.Wrap(core.ErrInvalidToken, "unknown test token")
}

// NewConfig returns the configuration used by tests: in-memory storage, no request logs.
func NewConfig() *core.Config {
	return &core.Config{
		Env:      "TEST",
		AppName:  "Darasa",
		Build:    "test",
		TestMode: true,
		Server: core.ServerConfig{
			Address:         ":0",
			ShutdownTimeout: time.Second,
			DisableReqLogs:  true,
			MaxUploadBytes:  1 << 20,
		},
		Database: core.DatabaseConfig{Engine: core.DatabaseMemory},
		Auth:     core.AuthConfig{Mode: core.AuthModeJWT},
		Storage: core.StorageConfig{
			Backend:        core.StorageMemory,
			AssetsBucket:   "mission-assets",
			MissionsBucket: "missions",
		},
	}
}

func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	return validate, translator
}

func CreateMission(t *testing.T, svc mission.Service, nm mission.NewMission) mission.Mission {
	t.Helper()
	if nm.Title == "" {
		nm.Title = "Mission " + nm.MissionUID
	}
	m, err := svc.Create(context.Background(), nm)
	if err != nil {
		t.Fatalf("CreateMission() failed: %v", err)
	}
	return m
}

// OpenDB connects to the database of TEST_DATABASE_URL, migrates and empties it.
// Tests are skipped when TEST_DATABASE_URL is not set.
func OpenDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("OpenDB() failed: %v", err)
	}
	if err = database.Migrate(db); err != nil {
		t.Fatalf("OpenDB() failed: %v", err)
	}
	ResetDB(t, db)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func ResetDB(t *testing.T, db *sqlx.DB) {
	t.Helper()
	q := `TRUNCATE class_mission_customizations, missions, enrollments, classes, user_profiles, organizations CASCADE`
	if _, err := db.Exec(q); err != nil {
		t.Fatalf("ResetDB() failed: %v", err)
	}
}
