package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"matchchat/internal/models"
)

const (
	DefaultWikipediaURL = "https://en.wikipedia.org"
	wikipediaUserAgent  = "matchchat/1.0 (football match assistant)"
	wikipediaExtract    = 600
)

// WikipediaClient searches Wikipedia through the MediaWiki action API and
// returns the plain-text intro of each hit.
type WikipediaClient struct {
	baseURL string
	client  *http.Client
}

func NewWikipediaClient(baseURL string, timeout time.Duration) *WikipediaClient {
	if baseURL == "" {
		baseURL = DefaultWikipediaURL
	}
	return &WikipediaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type wikipediaResponse struct {
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
	Query struct {
		Pages []struct {
			Title   string `json:"title"`
			Index   int    `json:"index"`
			Extract string `json:"extract"`
			FullURL string `json:"fullurl"`
		} `json:"pages"`
	} `json:"query"`
}

// Search returns up to limit article intros in search rank order.
func (c *WikipediaClient) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}
	params := url.Values{
		"action":        {"query"},
		"format":        {"json"},
		"formatversion": {"2"},
		"generator":     {"search"},
		"gsrsearch":     {query},
		"gsrlimit":      {strconv.Itoa(limit)},
		"prop":          {"extracts|info"},
		"inprop":        {"url"},
		"exintro":       {"1"},
		"explaintext":   {"1"},
		"exlimit":       {strconv.Itoa(limit)},
		"exchars":       {strconv.Itoa(wikipediaExtract)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/w/api.php?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", wikipediaUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: wikipedia: %w", models.ErrSearch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: wikipedia: read response: %w", models.ErrSearch, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: wikipedia: status %d: %s", models.ErrSearch, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var wr wikipediaResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		return nil, fmt.Errorf("%w: wikipedia: unmarshal response: %w", models.ErrSearch, err)
	}
	if wr.Error != nil {
		return nil, fmt.Errorf("%w: wikipedia: %s: %s", models.ErrSearch, wr.Error.Code, wr.Error.Info)
	}

	pages := wr.Query.Pages
	sort.SliceStable(pages, func(i, j int) bool {
		return pages[i].Index < pages[j].Index
	})

	out := make([]models.SearchResult, 0, len(pages))
	for _, p := range pages {
		text := strings.TrimSpace(p.Extract)
		if text == "" {
			continue
		}
		out = append(out, models.SearchResult{Title: p.Title, Text: text, URL: p.FullURL})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
