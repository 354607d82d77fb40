package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("missing config must not error: %v", err)
	}
	if cfg.Port != defaultPort {
		t.Fatalf("port = %d, want %d", cfg.Port, defaultPort)
	}
	if !cfg.IsDev() {
		t.Fatal("default env must be development")
	}
	if cfg.Upload.MaxSizeMB != defaultMaxUploadMB {
		t.Fatalf("max upload = %d, want %d", cfg.Upload.MaxSizeMB, defaultMaxUploadMB)
	}
	if cfg.MaxUploadBytes() != int64(defaultMaxUploadMB)*1024*1024 {
		t.Fatalf("MaxUploadBytes = %d", cfg.MaxUploadBytes())
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := `
port: 8080
env: Production
jwt_secret: s3cret
upload:
  max_size_mb: 10
ai:
  providers:
    - id: main
      type: openai
      api_key: sk-test
      default_model: gpt-4o-mini
      enabled: true
  summary_model:
    provider_id: main
tts:
  enabled: true
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 8080 {
		t.Fatalf("port = %d", cfg.Port)
	}
	if cfg.IsDev() {
		t.Fatal("env production must not be dev")
	}
	if len(cfg.AI.Providers) != 1 || cfg.AI.Providers[0].ID != "main" {
		t.Fatalf("providers = %+v", cfg.AI.Providers)
	}
	if cfg.AI.SummaryModel == nil || cfg.AI.SummaryModel.ProviderID != "main" {
		t.Fatalf("summary assignment = %+v", cfg.AI.SummaryModel)
	}
	if cfg.TTS.Model != defaultTTSModel || cfg.TTS.Voice != defaultTTSVoice {
		t.Fatalf("tts defaults not applied: %+v", cfg.TTS)
	}
	if cfg.AI.EmbeddingModel != defaultEmbedModel {
		t.Fatalf("embedding model default not applied: %q", cfg.AI.EmbeddingModel)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("bogus_key: true\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("unknown config keys must be rejected")
	}
}

func TestUploadDirEnvOverride(t *testing.T) {
	t.Setenv(envUploadDir, "/tmp/custom-uploads")
	cfg := &AppConfig{}
	cfg.normalize()
	if got := cfg.UploadDir(); got != "/tmp/custom-uploads" {
		t.Fatalf("UploadDir = %q", got)
	}
}
