package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	appcfg "github.com/ShreyankGopal/Adobe-Hacks/internal/config"
)

// synthesizeSpeech renders a podcast script to an MP3 through an
// openai-compatible /v1/audio/speech endpoint and returns the URL path
// the file is served under.
func synthesizeSpeech(ctx context.Context, cfg appcfg.TTSConfig, audioDir, script string) (string, error) {
	if !cfg.Enabled {
		return "", nil
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return "", fmt.Errorf("tts api key is empty")
	}

	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		endpoint = "https://api.openai.com"
	}
	endpoint = strings.TrimSuffix(endpoint, "/v1")

	body, _ := json.Marshal(map[string]string{
		"model":           cfg.Model,
		"voice":           cfg.Voice,
		"input":           script,
		"response_format": "mp3",
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/v1/audio/speech", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(cfg.APIKey))
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 120 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("tts error: %s", strings.TrimSpace(string(msg)))
	}

	if err := os.MkdirAll(audioDir, 0o755); err != nil {
		return "", fmt.Errorf("audio dir: %w", err)
	}

	filename := fmt.Sprintf("podcast_%d.mp3", time.Now().Unix())
	path := filepath.Join(audioDir, filename)
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write audio: %w", err)
	}
	return "/uploads/audio/" + filename, nil
}
