package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"matchchat/internal/models"
)

const DefaultSerperURL = "https://google.serper.dev"

// SerperClient queries the Serper Google search API.
type SerperClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewSerperClient(apiKey, baseURL string, timeout time.Duration) *SerperClient {
	if baseURL == "" {
		baseURL = DefaultSerperURL
	}
	return &SerperClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type serperRequest struct {
	Query    string `json:"q"`
	Country  string `json:"gl"`
	Language string `json:"hl"`
	Num      int    `json:"num"`
}

type serperResponse struct {
	AnswerBox *struct {
		Title   string `json:"title"`
		Answer  string `json:"answer"`
		Snippet string `json:"snippet"`
	} `json:"answerBox"`
	KnowledgeGraph *struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Website     string `json:"website"`
	} `json:"knowledgeGraph"`
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

// Search returns up to limit results: the answer box and knowledge graph
// first when present, then organic results in rank order.
func (c *SerperClient) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: SERPER_API_KEY", models.ErrConfiguration)
	}

	body, err := json.Marshal(serperRequest{Query: query, Country: "us", Language: "en", Num: limit})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrSearch, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", models.ErrSearch, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", models.ErrSearch, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var sr serperResponse
	if err := json.Unmarshal(respBody, &sr); err != nil {
		return nil, fmt.Errorf("%w: unmarshal response: %w", models.ErrSearch, err)
	}

	var out []models.SearchResult
	if sr.AnswerBox != nil {
		text := sr.AnswerBox.Answer
		if text == "" {
			text = sr.AnswerBox.Snippet
		}
		if text != "" {
			out = append(out, models.SearchResult{Title: sr.AnswerBox.Title, Text: text})
		}
	}
	if sr.KnowledgeGraph != nil && sr.KnowledgeGraph.Description != "" {
		out = append(out, models.SearchResult{
			Title: sr.KnowledgeGraph.Title,
			Text:  sr.KnowledgeGraph.Description,
			URL:   sr.KnowledgeGraph.Website,
		})
	}
	for _, o := range sr.Organic {
		if o.Snippet == "" {
			continue
		}
		out = append(out, models.SearchResult{Title: o.Title, Text: o.Snippet, URL: o.Link})
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
