package core

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Auth modes
const (
	AuthModeJWT    = "jwt"    // verify BaaS access tokens locally with the project JWT secret
	AuthModeRemote = "remote" // ask the BaaS auth API who owns the token
)

// Database engines
const (
	DatabasePostgres = "postgres"
	DatabaseMemory   = "memory" // seedless, for local tryouts
)

// Storage backends
const (
	StorageSupabase = "supabase"
	StorageGCS      = "gcs"
	StorageMemory   = "memory"
)

type (
	Config struct {
		Env          string
		Build        string
		AppName      string
		Debug        bool
		TestMode     bool
		RollbarToken string

		Server   ServerConfig
		Database DatabaseConfig
		BaaS     BaaSConfig
		Auth     AuthConfig
		Storage  StorageConfig
	}

	ServerConfig struct {
		Host            string
		Address         string
		DebugHost       string
		ShutdownTimeout time.Duration
		DisableReqLogs  bool
		MaxUploadBytes  int64
	}

	DatabaseConfig struct {
		Engine     string
		Host       string
		Port       string
		Name       string
		User       string
		Password   string
		DisableTLS bool
	}

	BaaSConfig struct {
		URL        string
		AnonKey    string
		ServiceKey string
		JWTSecret  string
		Timeout    time.Duration
	}

	AuthConfig struct {
		Mode     string
		Audience string
	}

	StorageConfig struct {
		Backend        string
		AssetsBucket   string
		MissionsBucket string
		CDNDomain      string
		GCS            GCSConfig
	}

	GCSConfig struct {
		ProjectID       string
		CredentialsFile string
	}
)

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// NewConfig reads the configuration from the environment.
// ENV selects the environment (DEV by default) and is used as the prefix of every variable,
// eg. `DEV_DATABASE_HOST`. `config/.env.<env>` is loaded first when it exists.
func NewConfig() (*Config, error) {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "Darasa")
	v.SetDefault("build", "develop")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.disableReqLogs", false)
	v.SetDefault("server.maxUploadBytes", int64(10<<20))

	v.SetDefault("database.engine", DatabasePostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "postgres")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.disableTLS", false)

	v.SetDefault("baas.url", "http://localhost:54321")
	v.SetDefault("baas.anonKey", "")
	v.SetDefault("baas.serviceKey", "")
	v.SetDefault("baas.jwtSecret", "")
	v.SetDefault("baas.timeout", 15*time.Second)

	v.SetDefault("auth.mode", AuthModeJWT)
	v.SetDefault("auth.audience", "authenticated")

	v.SetDefault("storage.backend", StorageSupabase)
	v.SetDefault("storage.assetsBucket", "mission-assets")
	v.SetDefault("storage.missionsBucket", "missions")
	v.SetDefault("storage.cdnDomain", "")
	v.SetDefault("storage.gcs.projectID", "")
	v.SetDefault("storage.gcs.credentialsFile", "")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "getting working directory")
	}
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err = os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}
	v.AutomaticEnv()

	conf := &Config{
		Env:          env,
		Build:        v.GetString("build"),
		AppName:      v.GetString("appName"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		RollbarToken: v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Address:         v.GetString("server.address"),
			DebugHost:       v.GetString("server.debugHost"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			DisableReqLogs:  v.GetBool("server.disableReqLogs"),
			MaxUploadBytes:  v.GetInt64("server.maxUploadBytes"),
		},
		Database: DatabaseConfig{
			Engine:     strings.ToLower(v.GetString("database.engine")),
			Host:       v.GetString("database.host"),
			Port:       v.GetString("database.port"),
			Name:       v.GetString("database.name"),
			User:       v.GetString("database.user"),
			Password:   v.GetString("database.password"),
			DisableTLS: v.GetBool("database.disableTLS"),
		},
		BaaS: BaaSConfig{
			URL:        strings.TrimRight(v.GetString("baas.url"), "/"),
			AnonKey:    v.GetString("baas.anonKey"),
			ServiceKey: v.GetString("baas.serviceKey"),
			JWTSecret:  v.GetString("baas.jwtSecret"),
			Timeout:    v.GetDuration("baas.timeout"),
		},
		Auth: AuthConfig{
			Mode:     strings.ToLower(v.GetString("auth.mode")),
			Audience: v.GetString("auth.audience"),
		},
		Storage: StorageConfig{
			Backend:        strings.ToLower(v.GetString("storage.backend")),
			AssetsBucket:   v.GetString("storage.assetsBucket"),
			MissionsBucket: v.GetString("storage.missionsBucket"),
			CDNDomain:      v.GetString("storage.cdnDomain"),
			GCS: GCSConfig{
				ProjectID:       v.GetString("storage.gcs.projectID"),
				CredentialsFile: v.GetString("storage.gcs.credentialsFile"),
			},
		},
	}
	if err = conf.check(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *Config) check() error {
	switch c.Auth.Mode {
	case AuthModeJWT:
		if c.BaaS.JWTSecret == "" && !c.Debug {
			return errors.New("config: baas.jwtSecret is required when auth.mode is jwt")
		}
	case AuthModeRemote:
	default:
		return fmt.Errorf("config: unknown auth.mode %q", c.Auth.Mode)
	}

	switch c.Database.Engine {
	case DatabasePostgres, DatabaseMemory:
	default:
		return fmt.Errorf("config: unknown database.engine %q", c.Database.Engine)
	}

	switch c.Storage.Backend {
	case StorageSupabase, StorageGCS, StorageMemory:
	default:
		return fmt.Errorf("config: unknown storage.backend %q", c.Storage.Backend)
	}
	if c.Storage.AssetsBucket == "" || c.Storage.MissionsBucket == "" {
		return errors.New("config: storage buckets must not be empty")
	}
	return nil
}
