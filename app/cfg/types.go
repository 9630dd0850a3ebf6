package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	SourcesFile       string
	Port              string
	SiteURL           string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string

	// Generation configuration
	OpenRouterAPIKey string
	OpenRouterModel  string
	ReplicateAPIKey  string
	ReplicateModel   string
	ImagesDir        string
	StaticDir        string
	GenerateCount    int
	GenerateCooldown int
	GenerateInterval int
	AutoPublish      bool
	GenerateImages   bool
	LogRetentionDays int

	// Application metadata
	UserAgent string
	Debug     bool
	Version   string
}
