package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openaiclient "github.com/openai/openai-go/v2"
	openaioption "github.com/openai/openai-go/v2/option"

	appcfg "github.com/ShreyankGopal/Adobe-Hacks/internal/config"
)

// Embed computes embeddings for texts with the configured embedding
// model. Anthropic providers have no embedding endpoint, so the first
// enabled openai-flavored provider is used.
func (s *Service) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	provider := s.embeddingProvider()
	if provider == nil {
		return nil, errors.New("no embedding-capable AI provider configured")
	}

	opts := []openaioption.RequestOption{
		openaioption.WithAPIKey(strings.TrimSpace(provider.APIKey)),
	}
	if normalized := normalizeOpenAIBaseURL(provider.Endpoint); normalized != "" {
		opts = append(opts, openaioption.WithBaseURL(normalized))
	}
	client := openaiclient.NewClient(opts...)

	resp, err := client.Embeddings.New(ctx, openaiclient.EmbeddingNewParams{
		Input: openaiclient.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openaiclient.EmbeddingModel(s.cfg.EmbeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings: got %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	out := make([][]float64, len(resp.Data))
	for _, item := range resp.Data {
		idx := int(item.Index)
		if idx < 0 || idx >= len(out) {
			return nil, fmt.Errorf("embeddings: index %d out of range", idx)
		}
		out[idx] = item.Embedding
	}
	return out, nil
}

func (s *Service) embeddingProvider() *appcfg.AIProvider {
	for _, provider := range s.cfg.Providers {
		if !provider.Enabled || isAnthropicType(provider.Type) {
			continue
		}
		if strings.TrimSpace(provider.APIKey) == "" {
			continue
		}
		p := provider
		return &p
	}
	return nil
}
