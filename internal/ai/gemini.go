package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"matchchat/internal/models"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	DefaultGeminiModel = "gemini-2.5-flash"
	defaultTemperature = 0.3
)

var errEmptyResponse = errors.New("empty response from AI")

// GeminiClient talks to the Gemini API. The underlying client is created on
// first use so a missing key only fails the call that needs it.
type GeminiClient struct {
	apiKey    string
	modelName string

	mu     sync.Mutex
	client *genai.Client
}

func NewGeminiClient(apiKey, modelName string) *GeminiClient {
	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	return &GeminiClient{apiKey: apiKey, modelName: modelName}
}

func (g *GeminiClient) Generate(ctx context.Context, prompt models.Prompt, cfg models.GenerationConfig) (string, error) {
	client, err := g.ensureClient()
	if err != nil {
		return "", err
	}

	model := client.GenerativeModel(g.modelName)
	if prompt.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(prompt.System)}}
	}
	applyGenerationConfig(model, cfg)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt.Render()))
	if err != nil {
		return "", err
	}
	return responseText(resp)
}

func applyGenerationConfig(model *genai.GenerativeModel, cfg models.GenerationConfig) {
	if cfg.Temperature != nil {
		model.SetTemperature(*cfg.Temperature)
	} else {
		model.SetTemperature(defaultTemperature)
	}
	if cfg.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(cfg.MaxOutputTokens)
	}
}

func (g *GeminiClient) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client == nil {
		return nil
	}
	err := g.client.Close()
	g.client = nil
	return err
}

func (g *GeminiClient) ensureClient() (*genai.Client, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("%w: GEMINI_KEY", models.ErrConfiguration)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		return g.client, nil
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(g.apiKey))
	if err != nil {
		return nil, err
	}
	g.client = client
	return client, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errEmptyResponse
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", errEmptyResponse
	}
	return out, nil
}
