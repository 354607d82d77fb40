package config

// AppConfig holds runtime configuration loaded from YAML.
type AppConfig struct {
	Port           int      `yaml:"port"`
	Env            string   `yaml:"env"` // "development" | "production"
	DSN            string   `yaml:"dsn"` // MySQL DSN
	RedisURL       string   `yaml:"redis_url"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	JWTSecret      string   `yaml:"jwt_secret"`

	Paths  PathsConfig  `yaml:"paths"`
	Upload UploadConfig `yaml:"upload"`
	AI     AIConfig     `yaml:"ai"`
	TTS    TTSConfig    `yaml:"tts"`
	S3     S3Options    `yaml:"s3"`
}

// PathsConfig overrides runtime directories.
type PathsConfig struct {
	UploadDir string `yaml:"upload_dir"`
	AudioDir  string `yaml:"audio_dir"`
}

// UploadConfig bounds what the upload pipeline accepts.
type UploadConfig struct {
	MaxSizeMB int `yaml:"max_size_mb"`
}

// AIProvider describes one configured LLM provider.
type AIProvider struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Type         string `yaml:"type"` // openai | openai-compatible | anthropic | openrouter
	APIKey       string `yaml:"api_key"`
	Endpoint     string `yaml:"endpoint"`
	DefaultModel string `yaml:"default_model"`
	Enabled      bool   `yaml:"enabled"`
}

// AIModelAssignment pins a feature to a provider and/or model.
type AIModelAssignment struct {
	ProviderID string `yaml:"provider_id"`
	Model      string `yaml:"model"`
}

// AIConfig groups provider definitions and per-feature assignments.
type AIConfig struct {
	Providers      []AIProvider       `yaml:"providers"`
	SummaryModel   *AIModelAssignment `yaml:"summary_model"`
	FactModel      *AIModelAssignment `yaml:"fact_model"`
	PodcastModel   *AIModelAssignment `yaml:"podcast_model"`
	RefineModel    *AIModelAssignment `yaml:"refine_model"`
	EmbeddingModel string             `yaml:"embedding_model"`
}

// TTSConfig configures podcast audio synthesis. The endpoint speaks the
// openai-compatible /v1/audio/speech shape.
type TTSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	Voice    string `yaml:"voice"`
}

// S3Options configures the optional mirror of stored PDFs.
type S3Options struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Endpoint        string `yaml:"endpoint"`
	PathStyleAccess bool   `yaml:"path_style_access"`
	CustomDomain    string `yaml:"custom_domain"`
	PathTemplate    string `yaml:"path_template"`
}
