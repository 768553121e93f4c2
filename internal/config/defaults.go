package config

const (
	defaultPublicDir          = "public"
	defaultOutputDir          = "public/models/raw"
	defaultManifestPath       = "public/models/manifest.json"
	defaultOptimizedDir       = "public/models/optimized"
	defaultCacheDir           = "~/.cache/garden"
	defaultLogDir             = "~/.local/share/garden/logs"
	defaultDatasetBaseURL     = "https://huggingface.co/datasets/allenai/objaverse/resolve/main"
	defaultDatasetUserAgent   = "garden/dev"
	defaultDatasetTimeout     = 300
	defaultPoolSize           = 50
	defaultTargetSize         = 30
	defaultExtension          = "glb"
	defaultMinFreeGiB         = 2
	defaultServerBind         = ":8000"
	defaultServerRoot         = "."
	defaultServerNotFoundPage = "404.html"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// DefaultTargetTags lists the tags a model must carry (any one of them) to be
// considered for the garden scene.
func DefaultTargetTags() []string {
	return []string{"nature", "abstract", "organic", "floral", "geometric", "plant", "flower"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			PublicDir:    defaultPublicDir,
			OutputDir:    defaultOutputDir,
			ManifestPath: defaultManifestPath,
			OptimizedDir: defaultOptimizedDir,
			CacheDir:     defaultCacheDir,
			LogDir:       defaultLogDir,
		},
		Dataset: Dataset{
			BaseURL:        defaultDatasetBaseURL,
			UserAgent:      defaultDatasetUserAgent,
			RequestTimeout: defaultDatasetTimeout,
		},
		Curation: Curation{
			PoolSize:   defaultPoolSize,
			TargetSize: defaultTargetSize,
			TargetTags: DefaultTargetTags(),
			Extension:  defaultExtension,
			MinFreeGiB: defaultMinFreeGiB,
		},
		Server: Server{
			Bind:         defaultServerBind,
			Root:         defaultServerRoot,
			NotFoundPage: defaultServerNotFoundPage,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
