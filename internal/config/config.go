package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort         = 5001
	defaultEnv          = "development"
	defaultDSN          = "root:password@tcp(127.0.0.1:3306)/pdfsight?charset=utf8mb4&parseTime=True&loc=Local"
	defaultRedisURL     = "redis://localhost:6379/0"
	defaultMaxUploadMB  = 50
	defaultEmbedModel   = "text-embedding-3-small"
	defaultTTSModel     = "tts-1"
	defaultTTSVoice     = "alloy"
	defaultS3PathTmpl   = "uploads/{Y}/{m}/{filename}"
	envUploadDir        = "PDFSIGHT_UPLOAD_DIR"
	envAudioDirOverride = "PDFSIGHT_AUDIO_DIR"
)

// Load reads and normalizes the YAML config at path. A missing file is
// not an error: defaults apply, so the server can boot bare.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}

	if strings.TrimSpace(path) != "" {
		f, err := os.Open(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("open config: %w", err)
			}
		} else {
			defer f.Close()
			dec := yaml.NewDecoder(f)
			dec.KnownFields(true)
			if err := dec.Decode(cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.normalize()
	return cfg, nil
}

func (c *AppConfig) normalize() {
	if c.Port <= 0 {
		c.Port = defaultPort
	}
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	if c.Env == "" {
		c.Env = defaultEnv
	}
	if strings.TrimSpace(c.DSN) == "" {
		c.DSN = defaultDSN
	}
	if strings.TrimSpace(c.RedisURL) == "" {
		c.RedisURL = defaultRedisURL
	}
	if c.Upload.MaxSizeMB <= 0 {
		c.Upload.MaxSizeMB = defaultMaxUploadMB
	}
	if strings.TrimSpace(c.AI.EmbeddingModel) == "" {
		c.AI.EmbeddingModel = defaultEmbedModel
	}
	if strings.TrimSpace(c.TTS.Model) == "" {
		c.TTS.Model = defaultTTSModel
	}
	if strings.TrimSpace(c.TTS.Voice) == "" {
		c.TTS.Voice = defaultTTSVoice
	}
	if strings.TrimSpace(c.S3.PathTemplate) == "" {
		c.S3.PathTemplate = defaultS3PathTmpl
	}
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// UploadDir resolves the directory stored PDFs live in.
func (c *AppConfig) UploadDir() string {
	if dir := strings.TrimSpace(os.Getenv(envUploadDir)); dir != "" {
		return ResolveRuntimePath(dir, "")
	}
	return ResolveRuntimePath(c.Paths.UploadDir, "uploads")
}

// AudioDir resolves the directory generated podcast audio lives in.
func (c *AppConfig) AudioDir() string {
	if dir := strings.TrimSpace(os.Getenv(envAudioDirOverride)); dir != "" {
		return ResolveRuntimePath(dir, "")
	}
	return ResolveRuntimePath(c.Paths.AudioDir, "uploads/audio")
}

// MaxUploadBytes returns the accepted upload size cap in bytes.
func (c *AppConfig) MaxUploadBytes() int64 {
	return int64(c.Upload.MaxSizeMB) * 1024 * 1024
}
