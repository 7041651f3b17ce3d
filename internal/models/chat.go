package models

import (
	"strings"
	"time"
)

type Provenance string

const (
	SourceStructured Provenance = "structured-data"
	SourceWeb        Provenance = "web-search"
)

// Snippet is a bounded excerpt used to ground a prompt.
type Snippet struct {
	Title     string     `json:"title"`
	Text      string     `json:"text"`
	Source    Provenance `json:"source"`
	Facet     string     `json:"facet,omitempty"`
	Relevance float64    `json:"relevance"`
	Rationale string     `json:"rationale,omitempty"`
	Tokens    int        `json:"tokens,omitempty"`
	// Order is the index of the first event the snippet was built from,
	// or the result position for web snippets.
	Order int    `json:"order"`
	URL   string `json:"url,omitempty"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Snippets  []Snippet `json:"snippets,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type SearchResult struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	URL   string `json:"url,omitempty"`
}

type PromptSection struct {
	Name string
	Body string
}

// Prompt is what the language model receives. Sections are rendered in order
// after the system instructions.
type Prompt struct {
	System   string
	Sections []PromptSection
}

// Render flattens the sections into a single markdown document.
func (p Prompt) Render() string {
	var sb strings.Builder
	for i, s := range p.Sections {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("## ")
		sb.WriteString(s.Name)
		sb.WriteString("\n")
		sb.WriteString(strings.TrimSpace(s.Body))
	}
	return sb.String()
}

// GenerationConfig tunes one generation. A nil Temperature leaves the
// model default in place.
type GenerationConfig struct {
	MaxOutputTokens int32
	Temperature     *float32
}

type Answer struct {
	Text     string    `json:"text"`
	Snippets []Snippet `json:"snippets,omitempty"`
}
