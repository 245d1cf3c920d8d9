package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverSQLite = "sqlite"
	DriverPure   = "sqlite-pure"

	envPrefix = "MISSIONS"
)

// Config keeps runtime settings for the planner.
type Config struct {
	LogLevel string
	// ActorID is written to UserId, CreateId and UpdateId of every mission
	// this process touches.
	ActorID  int64
	Database Database
	Telegram Telegram
	Report   Report
}

type Database struct {
	Path   string
	Driver string
}

type Telegram struct {
	Token   string
	OwnerID int64
}

// Report controls the digest schedule. Interval wins over Time when set.
type Report struct {
	Time     string
	Interval time.Duration
}

// Load reads configuration from an optional YAML file and MISSIONS_* environment
// variables on top of the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("read config %q: %w", path, err)
			}
		}
	}

	cfg := Config{
		LogLevel: strings.ToUpper(strings.TrimSpace(v.GetString("log_level"))),
		ActorID:  v.GetInt64("actor_id"),
		Database: Database{
			Path:   strings.TrimSpace(v.GetString("db.path")),
			Driver: strings.ToLower(strings.TrimSpace(v.GetString("db.driver"))),
		},
		Telegram: Telegram{
			Token:   strings.TrimSpace(v.GetString("telegram.token")),
			OwnerID: v.GetInt64("telegram.owner_id"),
		},
		Report: Report{
			Time:     strings.TrimSpace(v.GetString("report.time")),
			Interval: v.GetDuration("report.interval"),
		},
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = DefaultDBPath()
	}

	switch cfg.Database.Driver {
	case DriverSQLite, DriverPure:
	default:
		return cfg, fmt.Errorf("unknown db.driver %q", cfg.Database.Driver)
	}

	if cfg.ActorID <= 0 {
		return cfg, fmt.Errorf("actor_id must be positive, got %d", cfg.ActorID)
	}

	if cfg.Report.Interval < 0 {
		cfg.Report.Interval = 0
	}

	return cfg, nil
}

// RequireTelegram reports whether the bot front-end can start.
func (c Config) RequireTelegram() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token (%s_TELEGRAM_TOKEN) is required", envPrefix)
	}
	if c.Telegram.OwnerID == 0 {
		return fmt.Errorf("telegram.owner_id (%s_TELEGRAM_OWNER_ID) is required", envPrefix)
	}
	return nil
}

// DefaultDBPath is db/missions.db next to the executable.
func DefaultDBPath() string {
	exe, err := os.Executable()
	if err != nil {
		return filepath.Join("db", "missions.db")
	}
	return filepath.Join(filepath.Dir(exe), "db", "missions.db")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "INFO")
	v.SetDefault("actor_id", 123)
	v.SetDefault("db.path", "")
	v.SetDefault("db.driver", DriverSQLite)
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.owner_id", 0)
	v.SetDefault("report.time", "09:00")
	v.SetDefault("report.interval", "0s")
}
