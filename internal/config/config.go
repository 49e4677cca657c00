package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone  = "UTC"
	configPathEnv    = "JOBRADAR_CONFIG"
	databaseDSNEnv   = "DATABASE_DSN"
	reedAPIKeyEnv    = "REED_API_KEY"
	adzunaAppIDEnv   = "ADZUNA_ID"
	adzunaAPIKeyEnv  = "ADZUNA_API_KEY"
	joobleAPIKeyEnv  = "JOOBLE_API_KEY"
	predictorKeyEnv  = "PREDICTOR_API_KEY"
	predictorURLEnv  = "PREDICTOR_URL"
	logLevelEnv      = "LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Sources   SourcesConfig   `yaml:"sources"`
	Search    SearchConfig    `yaml:"search"`
	Filters   FilterConfig    `yaml:"filters"`
	Geo       GeoConfig       `yaml:"geo"`
	Predictor PredictorConfig `yaml:"predictor"`
	Export    ExportConfig    `yaml:"export"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DatabaseConfig describes Postgres connection details.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// SchedulerConfig defines when the pipeline should run. An empty cron
// expression means a single run and exit.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// SourcesConfig groups per-API credentials and switches.
type SourcesConfig struct {
	Reed     ReedConfig     `yaml:"reed"`
	Adzuna   AdzunaConfig   `yaml:"adzuna"`
	Jooble   JoobleConfig   `yaml:"jooble"`
	Remotive RemotiveConfig `yaml:"remotive"`
}

// ReedConfig wires the Reed API key.
type ReedConfig struct {
	APIKey string `yaml:"apiKey"`
}

// AdzunaConfig wires Adzuna credentials and the market country code.
type AdzunaConfig struct {
	AppID   string `yaml:"appId"`
	APIKey  string `yaml:"apiKey"`
	Country string `yaml:"country"`
}

// JoobleConfig wires the Jooble API key.
type JoobleConfig struct {
	APIKey string `yaml:"apiKey"`
}

// RemotiveConfig toggles the credential-free Remotive source. Enabled is a
// pointer so an explicit false in the file is distinguishable from an absent
// key and can override the on-by-default behavior.
type RemotiveConfig struct {
	Enabled *bool `yaml:"enabled"`
}

// IsEnabled treats an unset toggle as on.
func (r RemotiveConfig) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// SearchConfig lists the query/location grid a run covers.
type SearchConfig struct {
	Queries   []string `yaml:"queries"`
	Locations []string `yaml:"locations"`
}

// FilterConfig holds the content exclusion list applied after batch dedup.
type FilterConfig struct {
	ExcludeKeywords []string `yaml:"excludeKeywords"`
}

// GeoConfig describes the coordinate-resolution chain.
type GeoConfig struct {
	PostcodeTablePath string `yaml:"postcodeTablePath"`
	NominatimURL      string `yaml:"nominatimUrl"`
	UserAgent         string `yaml:"userAgent"`
	ChainFallback     bool   `yaml:"chainFallback"`
}

// PredictorConfig defines how to reach the salary-prediction service.
type PredictorConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"apiKey"`
}

// ExportConfig points the CSV audit export at a directory.
type ExportConfig struct {
	Dir string `yaml:"dir"`
}

// LoggingConfig controls slog verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(reedAPIKeyEnv); v != "" {
		c.Sources.Reed.APIKey = v
	}
	if v := os.Getenv(adzunaAppIDEnv); v != "" {
		c.Sources.Adzuna.AppID = v
	}
	if v := os.Getenv(adzunaAPIKeyEnv); v != "" {
		c.Sources.Adzuna.APIKey = v
	}
	if v := os.Getenv(joobleAPIKeyEnv); v != "" {
		c.Sources.Jooble.APIKey = v
	}

	if v := os.Getenv(predictorURLEnv); v != "" {
		c.Predictor.URL = v
	}
	if v := os.Getenv(predictorKeyEnv); v != "" {
		c.Predictor.APIKey = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Sources.Reed.APIKey != "" {
		base.Sources.Reed = override.Sources.Reed
	}
	if override.Sources.Adzuna.AppID != "" || override.Sources.Adzuna.APIKey != "" {
		base.Sources.Adzuna = override.Sources.Adzuna
	}
	if override.Sources.Jooble.APIKey != "" {
		base.Sources.Jooble = override.Sources.Jooble
	}
	if override.Sources.Remotive.Enabled != nil {
		base.Sources.Remotive = override.Sources.Remotive
	}

	if len(override.Search.Queries) > 0 {
		base.Search.Queries = override.Search.Queries
	}
	if len(override.Search.Locations) > 0 {
		base.Search.Locations = override.Search.Locations
	}

	if len(override.Filters.ExcludeKeywords) > 0 {
		base.Filters = override.Filters
	}

	if override.Geo.PostcodeTablePath != "" {
		base.Geo.PostcodeTablePath = override.Geo.PostcodeTablePath
	}
	if override.Geo.NominatimURL != "" {
		base.Geo.NominatimURL = override.Geo.NominatimURL
	}
	if override.Geo.UserAgent != "" {
		base.Geo.UserAgent = override.Geo.UserAgent
	}
	if override.Geo.ChainFallback {
		base.Geo.ChainFallback = true
	}

	if override.Predictor.URL != "" {
		base.Predictor.URL = override.Predictor.URL
	}
	if override.Predictor.APIKey != "" {
		base.Predictor.APIKey = override.Predictor.APIKey
	}

	if override.Export.Dir != "" {
		base.Export = override.Export
	}

	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Database:  DatabaseConfig{DSN: ""},
		Scheduler: SchedulerConfig{CronExpression: "", Timezone: defaultTimezone, location: tz},
		Sources: SourcesConfig{
			Adzuna: AdzunaConfig{Country: "gb"},
		},
		Search: SearchConfig{
			Queries:   []string{"data analyst", "data science", "GIS"},
			Locations: []string{"England", "Scotland", "Wales", "Northern Ireland", "remote"},
		},
		Filters: FilterConfig{ExcludeKeywords: []string{"barista"}},
		Geo: GeoConfig{
			PostcodeTablePath: "support_data/ukpostcodes.csv",
			UserAgent:         "JobRadar/1.0",
		},
		Export:  ExportConfig{Dir: "tmp_outputs"},
		Logging: LoggingConfig{Level: "info"},
	}
}
