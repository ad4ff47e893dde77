// Package shared wires the dependencies common to the apps.
package shared

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/classroom"
	"github.com/trezcool/darasa/core/mission"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/services/auth"
	"github.com/trezcool/darasa/services/baas"
	"github.com/trezcool/darasa/services/logger"
	"github.com/trezcool/darasa/storage/bucket/gcs"
	"github.com/trezcool/darasa/storage/bucket/inmem"
	"github.com/trezcool/darasa/storage/bucket/supabase"
	"github.com/trezcool/darasa/storage/database"
	"github.com/trezcool/darasa/storage/database/inmem"
	"github.com/trezcool/darasa/storage/database/sqlx"
)

type Repositories struct {
	DB       *sqlx.DB // nil with the memory engine
	Profiles user.Repository
	Classes  classroom.Repository
	Missions mission.Repository
}

func (r Repositories) Close() error {
	if r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

// NewLogger returns a logger writing to stdout, reporting to Rollbar outside of debug mode.
func NewLogger(conf *core.Config, prefix string) *logsvc.RollbarLogger {
	return newLogger(conf, prefix, os.Stdout)
}

func newLogger(conf *core.Config, prefix string, w io.Writer) *logsvc.RollbarLogger {
	logger := logsvc.NewRollbarLogger(
		log.New(w, prefix+" : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)
	return logger
}

// NewValidator returns the validator and its english translator.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	return validate, translator
}

// OpenRepositories opens the configured database engine. Postgres databases are migrated up.
func OpenRepositories(ctx context.Context, conf *core.Config) (Repositories, error) {
	switch conf.Database.Engine {
	case core.DatabaseMemory:
		db := inmemdb.NewDB()
		return Repositories{
			Profiles: inmemdb.NewProfileRepository(db),
			Classes:  inmemdb.NewClassRepository(db),
			Missions: inmemdb.NewMissionRepository(db),
		}, nil
	case core.DatabasePostgres:
		db, err := database.Open(ctx, conf)
		if err != nil {
			return Repositories{}, errors.Wrap(err, "opening database")
		}
		if err = database.Migrate(db); err != nil {
			_ = db.Close()
			return Repositories{}, errors.Wrap(err, "migrating database")
		}
		return Repositories{
			DB:       db,
			Profiles: sqlxrepos.NewProfileRepository(db),
			Classes:  sqlxrepos.NewClassRepository(db),
			Missions: sqlxrepos.NewMissionRepository(db),
		}, nil
	default:
		return Repositories{}, fmt.Errorf("unknown database engine %q", conf.Database.Engine)
	}
}

// NewObjectStore returns the configured storage backend and the func releasing it.
func NewObjectStore(ctx context.Context, conf *core.Config) (core.ObjectStore, func() error, error) {
	noop := func() error { return nil }
	switch conf.Storage.Backend {
	case core.StorageMemory:
		return inmembucket.NewStore(conf.Storage.CDNDomain), noop, nil
	case core.StorageSupabase:
		return supabasebucket.NewStore(baas.NewClient(conf.BaaS)), noop, nil
	case core.StorageGCS:
		store, err := gcsbucket.NewStore(ctx, conf.Storage)
		if err != nil {
			return nil, noop, errors.Wrap(err, "creating gcs client")
		}
		return store, store.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown storage backend %q", conf.Storage.Backend)
	}
}

// NewVerifier returns the access token verifier of the configured auth mode.
func NewVerifier(conf *core.Config) (core.AuthVerifier, error) {
	switch conf.Auth.Mode {
	case core.AuthModeJWT:
		return authsvc.NewJWTVerifier(conf.BaaS.JWTSecret, conf.Auth.Audience), nil
	case core.AuthModeRemote:
		return authsvc.NewRemoteVerifier(baas.NewClient(conf.BaaS)), nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", conf.Auth.Mode)
	}
}

func MissionOptions(conf *core.Config, logger core.Logger) mission.Options {
	return mission.Options{
		AssetsBucket:   conf.Storage.AssetsBucket,
		MissionsBucket: conf.Storage.MissionsBucket,
		Logger:         logger,
	}
}
