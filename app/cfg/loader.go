package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./botsieve.db" description:"Path to the SQLite database file"`

	// Application configuration
	SettingsFile   string `long:"settings-file" env:"SETTINGS_FILE" default:"./settings.yml" description:"Path to the settings YAML file (endpoint, feature gates)"`
	Port           string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount    int    `long:"worker-count" env:"WORKER_COUNT" default:"3" description:"Number of background workers for task processing"`
	SeenKeyLimit   int    `long:"seen-key-limit" env:"SEEN_KEY_LIMIT" default:"10000" description:"Maximum number of tracked comment keys before oldest-first eviction"`
	SweepInterval  int    `long:"sweep-interval" env:"SWEEP_INTERVAL" default:"24" description:"Annotation retention sweep interval in hours"`
	RetentionDays  int    `long:"retention-days" env:"RETENTION_DAYS" default:"30" description:"Annotation retention window in days"`
	ReplayFeedFile string `long:"replay-feed" env:"REPLAY_FEED" description:"Optional RSS/Atom file of comments to replay into the stream at startup"`
	APIAccessKey   string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Bot Sieve/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:         raw.DBPath,
		SettingsFile:   raw.SettingsFile,
		Port:           raw.Port,
		WorkerCount:    raw.WorkerCount,
		SeenKeyLimit:   raw.SeenKeyLimit,
		SweepInterval:  raw.SweepInterval,
		RetentionDays:  raw.RetentionDays,
		ReplayFeedFile: raw.ReplayFeedFile,
		APIAccessKey:   raw.APIAccessKey,
		UserAgent:      raw.UserAgent,
		Timezone:       raw.Timezone,
		Debug:          raw.Debug,
		Version:        GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
