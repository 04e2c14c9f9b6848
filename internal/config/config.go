package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/antlu/giveaway-assistant/internal/giveaway"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	Nick            string
	Pass            string
	ClientID        string
	ClientSecret    string
	UserAccessToken string
	RefreshToken    string
	Channels        []string

	DBPath        string
	ArchivePath   string
	ScanInterval  time.Duration
	SweepInterval time.Duration
	Retention     time.Duration
	SnowflakeNode int64

	LogLevel string
	Env      string
}

func Default() Config {
	return Config{
		DBPath:        "giveaways.sqlite3",
		ScanInterval:  time.Minute,
		SweepInterval: time.Minute,
		Retention:     time.Duration(giveaway.DefaultRetention) * time.Second,
		SnowflakeNode: 1,
		LogLevel:      "info",
		Env:           "development",
	}
}

func Load() Config {
	cfg := Default()
	if raw := os.Getenv("GA_NICK"); raw != "" {
		cfg.Nick = raw
	}
	if raw := os.Getenv("GA_PASS"); raw != "" {
		cfg.Pass = raw
	}
	if raw := os.Getenv("GA_CLIENT_ID"); raw != "" {
		cfg.ClientID = raw
	}
	if raw := os.Getenv("GA_CLIENT_SECRET"); raw != "" {
		cfg.ClientSecret = raw
	}
	if raw := os.Getenv("GA_USER_ACCESS_TOKEN"); raw != "" {
		cfg.UserAccessToken = raw
	}
	if raw := os.Getenv("GA_REFRESH_TOKEN"); raw != "" {
		cfg.RefreshToken = raw
	}
	if raw := os.Getenv("GA_CHANNELS"); raw != "" {
		cfg.Channels = splitChannels(raw)
	}
	if raw := os.Getenv("GA_DB_PATH"); raw != "" {
		cfg.DBPath = raw
	}
	if raw := os.Getenv("GA_ARCHIVE_PATH"); raw != "" {
		cfg.ArchivePath = raw
	}
	if raw := os.Getenv("GA_SCAN_INTERVAL"); raw != "" {
		if value, err := time.ParseDuration(raw); err == nil && value > 0 {
			cfg.ScanInterval = value
		}
	}
	if raw := os.Getenv("GA_SWEEP_INTERVAL"); raw != "" {
		if value, err := time.ParseDuration(raw); err == nil && value > 0 {
			cfg.SweepInterval = value
		}
	}
	if raw := os.Getenv("GA_RETENTION"); raw != "" {
		if value, err := time.ParseDuration(raw); err == nil && value >= time.Second {
			cfg.Retention = value
		}
	}
	if raw := os.Getenv("GA_SNOWFLAKE_NODE"); raw != "" {
		if value, err := strconv.ParseInt(raw, 10, 64); err == nil && value >= 0 && value <= 1023 {
			cfg.SnowflakeNode = value
		}
	}
	if raw := os.Getenv("GA_LOG_LEVEL"); raw != "" {
		cfg.LogLevel = raw
	}
	if raw := os.Getenv("GA_ENV"); raw != "" {
		cfg.Env = raw
	}
	return cfg
}

// RetentionSeconds is the retention window as used by the sweep.
func (c Config) RetentionSeconds() int64 {
	return int64(c.Retention / time.Second)
}

// Validate checks the settings needed to connect to Twitch.
func (c Config) Validate() error {
	var errs []error
	if c.Nick == "" {
		errs = append(errs, errors.New("GA_NICK is not set"))
	}
	if c.Pass == "" {
		errs = append(errs, errors.New("GA_PASS is not set"))
	}
	if c.ClientID == "" {
		errs = append(errs, errors.New("GA_CLIENT_ID is not set"))
	}
	if c.UserAccessToken == "" && c.ClientSecret == "" {
		errs = append(errs, errors.New("GA_USER_ACCESS_TOKEN or GA_CLIENT_SECRET must be set"))
	}
	if c.RefreshToken != "" && c.ClientSecret == "" {
		errs = append(errs, errors.New("GA_REFRESH_TOKEN needs GA_CLIENT_SECRET"))
	}
	if len(c.Channels) == 0 {
		errs = append(errs, errors.New("GA_CHANNELS is empty"))
	}
	return errors.Join(errs...)
}

func splitChannels(raw string) []string {
	channels := []string{}
	for _, name := range strings.Split(raw, ",") {
		name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "#"))
		if name != "" {
			channels = append(channels, name)
		}
	}
	return channels
}
