package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// timezoneMap resolves colloquial location names (substring match) to IANA
// zones. Unmapped locations fall back to a web search.
var timezoneMap = map[string]string{
	"venezuela":      "America/Caracas",
	"caracas":        "America/Caracas",
	"argentina":      "America/Argentina/Buenos_Aires",
	"buenos aires":   "America/Argentina/Buenos_Aires",
	"chile":          "America/Santiago",
	"santiago":       "America/Santiago",
	"colombia":       "America/Bogota",
	"bogota":         "America/Bogota",
	"españa":         "Europe/Madrid",
	"madrid":         "Europe/Madrid",
	"mexico":         "America/Mexico_City",
	"cdmx":           "America/Mexico_City",
	"peru":           "America/Lima",
	"lima":           "America/Lima",
	"miami":          "America/New_York",
	"new york":       "America/New_York",
	"estados unidos": "America/New_York",
}

// TimeTool reports the exact date and time for a location using timeapi.io,
// with worldtimeapi.org as fallback.
type TimeTool struct {
	defaultLocation string
	httpClient      *http.Client

	// search handles locations with no timezone mapping. Optional; when
	// nil, unmapped lookups report the failure instead.
	search Tool
}

// NewTimeTool creates the time capability. search may be nil.
func NewTimeTool(defaultLocation string, search Tool) *TimeTool {
	if defaultLocation == "" {
		defaultLocation = "Caracas"
	}
	return &TimeTool{
		defaultLocation: defaultLocation,
		httpClient:      &http.Client{Timeout: 10 * time.Second},
		search:          search,
	}
}

func (t *TimeTool) Name() string {
	return NameTime
}

func (t *TimeTool) Description() string {
	return "Obtiene la hora y fecha EXACTA de una ubicación usando una API de tiempo confiable. Úsalo SIEMPRE para preguntas de 'qué hora es', 'fecha de hoy', 'hora en [país]'."
}

func (t *TimeTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"location": map[string]any{
				"type":        "string",
				"description": "El lugar del que se quiere saber la hora (ej: 'Venezuela', 'Madrid', 'Buenos Aires', 'Tokyo').",
			},
		},
		"required": []string{"location"},
	}
}

func (t *TimeTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	location, _ := args["location"].(string)
	tz, ok := t.resolveZone(location)
	if !ok {
		// No mapping; let a web search answer instead of guessing.
		if t.search != nil {
			log.Printf("[time] no zone for %q, falling back to search", location)
			return t.search.Execute(ctx, map[string]any{
				"query": fmt.Sprintf("current time in %s timeanddate.com", location),
			})
		}
		return "", fmt.Errorf("no timezone mapping for %q", location)
	}

	result, err := t.queryTimeAPI(ctx, tz)
	if err == nil {
		return result, nil
	}
	log.Printf("[time] timeapi.io failed (%v), trying worldtimeapi", err)

	result, err2 := t.queryWorldTimeAPI(ctx, tz)
	if err2 != nil {
		return "", fmt.Errorf("time lookup failed: %v / %v", err, err2)
	}
	return result, nil
}

// resolveZone maps a location string to an IANA zone. Vague inputs like
// "mi ubicación" resolve to the configured default location.
func (t *TimeTool) resolveZone(location string) (string, bool) {
	loc := strings.ToLower(strings.TrimSpace(location))
	if loc == "" || strings.Contains(loc, "mi ubic") {
		loc = strings.ToLower(t.defaultLocation)
	}

	if tz, ok := timezoneMap[loc]; ok {
		return tz, true
	}
	for key, tz := range timezoneMap {
		if strings.Contains(loc, key) {
			return tz, true
		}
	}
	// Accept explicit IANA zone strings as-is.
	if strings.Contains(location, "/") {
		return location, true
	}
	return "", false
}

func (t *TimeTool) queryTimeAPI(ctx context.Context, tz string) (string, error) {
	reqURL := "https://timeapi.io/api/Time/current/zone?timeZone=" + url.QueryEscape(tz)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("timeapi.io HTTP %d", resp.StatusCode)
	}

	var data struct {
		Date     string `json:"date"`
		Time     string `json:"time"`
		DateTime string `json:"dateTime"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", err
	}

	if data.Date != "" && data.Time != "" {
		return fmt.Sprintf("Fecha: %s Hora: %s (zona: %s)", data.Date, data.Time, tz), nil
	}
	if data.DateTime != "" {
		return fmt.Sprintf("%s (zona: %s)", data.DateTime, tz), nil
	}
	return "", fmt.Errorf("timeapi.io returned no usable fields")
}

func (t *TimeTool) queryWorldTimeAPI(ctx context.Context, tz string) (string, error) {
	reqURL := "http://worldtimeapi.org/api/timezone/" + url.PathEscape(tz)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return "", fmt.Errorf("worldtimeapi HTTP %d: %s", resp.StatusCode, string(body))
	}

	var data struct {
		DateTime string `json:"datetime"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", err
	}
	if data.DateTime == "" {
		return "", fmt.Errorf("worldtimeapi returned no datetime")
	}

	parsed, err := time.Parse(time.RFC3339, data.DateTime)
	if err != nil {
		return fmt.Sprintf("%s (zona: %s)", data.DateTime, tz), nil
	}
	return fmt.Sprintf("Fecha: %s Hora: %s (zona: %s)",
		parsed.Format("2006-01-02"), parsed.Format("15:04:05"), tz), nil
}
