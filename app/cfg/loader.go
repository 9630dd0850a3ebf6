package cfg

import (
	"cmp"
	"fmt"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./newsroom.db" description:"SQLite database file path"`

	// Application configuration
	SourcesFile       string `long:"sources-file" env:"SOURCES_FILE" default:"./sources.yml" description:"YAML file listing RSS sources to register"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	SiteURL           string `long:"site-url" env:"SITE_URL" default:"https://toutvamal.fr" description:"Public site URL, used to snapshot rendered pages"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"3" description:"Number of background workers"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"60" description:"Scheduler tick interval in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Generation configuration
	OpenRouterAPIKey string `long:"openrouter-api-key" env:"OPENROUTER_API_KEY" description:"OpenRouter API key (required for generation)"`
	OpenRouterModel  string `long:"openrouter-model" env:"OPENROUTER_MODEL" default:"openai/gpt-5.2" description:"OpenRouter model for content generation"`
	ReplicateAPIKey  string `long:"replicate-api-key" env:"REPLICATE_API_KEY" description:"Replicate API key (optional, disables images when empty)"`
	ReplicateModel   string `long:"replicate-model" env:"REPLICATE_MODEL" default:"google/gemini-3-pro-image" description:"Replicate model for image generation"`
	ImagesDir        string `long:"images-dir" env:"IMAGES_DIR" default:"./images/articles" description:"Directory for generated article images"`
	StaticDir        string `long:"static-dir" env:"STATIC_DIR" default:"./static" description:"Directory for static HTML snapshots"`
	GenerateCount    int    `long:"generate-count" env:"GENERATE_COUNT" default:"1" description:"Articles to generate per scheduled batch (max 3)"`
	GenerateCooldown int    `long:"generate-cooldown" env:"GENERATE_COOLDOWN" default:"1800" description:"Minimum seconds between scheduled batches"`
	GenerateInterval int    `long:"generate-interval" env:"GENERATE_INTERVAL" default:"10800" description:"Seconds between scheduled batch attempts"`
	AutoPublish      bool   `long:"auto-publish" env:"AUTO_PUBLISH" description:"Publish generated articles immediately instead of drafting"`
	GenerateImages   bool   `long:"generate-images" env:"GENERATE_IMAGES" description:"Generate article images via Replicate"`
	LogRetentionDays int    `long:"log-retention-days" env:"LOG_RETENTION_DAYS" default:"90" description:"Days to keep generation log entries"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"ToutVaMal Newsroom/1.0" description:"User agent string for HTTP requests"`
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

	// Scheduled batches stay small regardless of configuration.
	if raw.GenerateCount > 3 {
		raw.GenerateCount = 3
	}
	if raw.GenerateCount < 1 {
		raw.GenerateCount = 1
	}

	cfg := &Cfg{
		DBPath:            raw.DBPath,
		SourcesFile:       raw.SourcesFile,
		Port:              raw.Port,
		SiteURL:           raw.SiteURL,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		APIAccessKey:      raw.APIAccessKey,
		OpenRouterAPIKey:  raw.OpenRouterAPIKey,
		OpenRouterModel:   raw.OpenRouterModel,
		ReplicateAPIKey:   raw.ReplicateAPIKey,
		ReplicateModel:    raw.ReplicateModel,
		ImagesDir:         raw.ImagesDir,
		StaticDir:         raw.StaticDir,
		GenerateCount:     raw.GenerateCount,
		GenerateCooldown:  raw.GenerateCooldown,
		GenerateInterval:  raw.GenerateInterval,
		AutoPublish:       raw.AutoPublish,
		GenerateImages:    raw.GenerateImages,
		LogRetentionDays:  raw.LogRetentionDays,
		UserAgent:         raw.UserAgent,
		Debug:             raw.Debug,
		Version:           GetVersion(),
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
