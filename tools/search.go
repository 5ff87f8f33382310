package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"
)

const (
	braveEndpoint     = "https://api.search.brave.com/res/v1/web/search"
	searchMaxResults  = 3
	searchSnippetMax  = 240
	searchHTTPTimeout = 10 * time.Second
)

// SearchTool queries the Brave web search API and formats the top results
// as numbered snippets. Repeated queries are served from a small TTL cache
// so bursts of identical questions do not hammer the API.
type SearchTool struct {
	apiKey     string
	httpClient *http.Client

	mu    sync.Mutex
	cache map[string]cacheEntry
	ttl   time.Duration
}

type cacheEntry struct {
	value   string
	expires time.Time
}

// NewSearchTool creates the search capability. ttl bounds cache entries;
// zero or negative means the 300s default.
func NewSearchTool(apiKey string, ttl time.Duration) *SearchTool {
	if ttl <= 0 {
		ttl = 300 * time.Second
	}
	return &SearchTool{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: searchHTTPTimeout},
		cache:      make(map[string]cacheEntry),
		ttl:        ttl,
	}
}

func (s *SearchTool) Name() string {
	return NameSearch
}

func (s *SearchTool) Description() string {
	return "Realiza una búsqueda en internet para obtener datos variados (noticias, clima, precios, definiciones)."
}

func (s *SearchTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "La consulta de búsqueda optimizada.",
			},
		},
		"required": []string{"query"},
	}
}

func (s *SearchTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	query, _ := args["query"].(string)
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("query is required")
	}

	if cached, ok := s.cacheGet(query); ok {
		log.Printf("[search] cache hit: %q", query)
		return cached, nil
	}

	results, err := s.braveSearch(ctx, query)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		text := "No se encontraron resultados claros."
		s.cacheSet(query, text)
		return text, nil
	}

	formatted := formatResults(results)
	s.cacheSet(query, formatted)
	return formatted, nil
}

type searchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

type braveResponse struct {
	Web struct {
		Results []searchResult `json:"results"`
	} `json:"web"`
}

func (s *SearchTool) braveSearch(ctx context.Context, query string) ([]searchResult, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("brave: API key not configured")
	}

	params := url.Values{
		"q":     {query},
		"count": {"5"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, braveEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("brave: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "HappyBot/1.0")
	req.Header.Set("X-Subscription-Token", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("brave: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("brave: HTTP %d: %s", resp.StatusCode, string(body))
	}

	var br braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
		return nil, fmt.Errorf("brave: decode response: %w", err)
	}

	results := br.Web.Results
	if len(results) > searchMaxResults {
		results = results[:searchMaxResults]
	}
	return results, nil
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

func formatResults(results []searchResult) string {
	entries := make([]string, 0, len(results))
	for i, r := range results {
		title := stripHTML(r.Title)
		if title == "" {
			title = "Sin título"
		}
		snippet := stripHTML(r.Description)
		if runes := []rune(snippet); len(runes) > searchSnippetMax {
			snippet = strings.TrimSpace(string(runes[:searchSnippetMax-3])) + "..."
		}
		source := strings.TrimPrefix(strings.TrimPrefix(r.URL, "https://"), "http://")
		if source == "" {
			source = "fuente desconocida"
		}

		entry := fmt.Sprintf("%d. %s", i+1, title)
		if snippet != "" {
			entry += " — " + snippet
		}
		entry += fmt.Sprintf(" (%s)", source)
		if r.URL != "" {
			entry += "\n   Enlace: " + r.URL
		}
		entries = append(entries, entry)
	}
	return strings.Join(entries, "\n\n")
}

func stripHTML(s string) string {
	s = tagRe.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

func (s *SearchTool) cacheGet(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.cache[key]
	if !ok {
		return "", false
	}
	if time.Now().After(entry.expires) {
		delete(s.cache, key)
		return "", false
	}
	return entry.value, true
}

func (s *SearchTool) cacheSet(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[key] = cacheEntry{value: value, expires: time.Now().Add(s.ttl)}
}
