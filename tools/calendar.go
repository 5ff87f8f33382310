package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// CalendarTool reads upcoming events from the user's Google Calendar.
// Optional extension capability; the bot works without it.
type CalendarTool struct {
	config    *oauth2.Config
	tokenFile string

	mu      sync.RWMutex
	service *calendar.Service
}

// NewCalendarTool creates the calendar capability with OAuth credentials.
func NewCalendarTool(clientID, clientSecret, redirectURL, tokenFile string) *CalendarTool {
	return &CalendarTool{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{calendar.CalendarReadonlyScope},
			Endpoint:     google.Endpoint,
		},
		tokenFile: tokenFile,
	}
}

// Init loads a stored token and builds the calendar service. Returns an
// auth URL when the user still needs to authenticate, empty string when
// ready.
func (c *CalendarTool) Init(ctx context.Context) (authURL string, err error) {
	if c.config.ClientID == "" || c.config.ClientSecret == "" {
		return "", fmt.Errorf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required")
	}

	token, err := c.tokenFromFile()
	if err != nil {
		return c.config.AuthCodeURL("state-token", oauth2.AccessTypeOffline), nil
	}

	return "", c.buildService(ctx, token)
}

// CompleteAuth finishes the OAuth flow with the authorization code.
func (c *CalendarTool) CompleteAuth(ctx context.Context, authCode string) error {
	token, err := c.config.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("exchanging auth code: %w", err)
	}
	if err := c.saveToken(token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	return c.buildService(ctx, token)
}

func (c *CalendarTool) buildService(ctx context.Context, token *oauth2.Token) error {
	client := c.config.Client(ctx, token)
	service, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return fmt.Errorf("creating calendar service: %w", err)
	}

	c.mu.Lock()
	c.service = service
	c.mu.Unlock()
	return nil
}

func (c *CalendarTool) Name() string {
	return NameCalendar
}

func (c *CalendarTool) Description() string {
	return "Consulta los próximos eventos del calendario Google del usuario. Se puede indicar cuántos eventos (por defecto 10) y cuántos días hacia adelante (por defecto 7)."
}

func (c *CalendarTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"max_results": map[string]any{
				"type":        "integer",
				"description": "Máximo de eventos a devolver (por defecto 10, máximo 50).",
			},
			"days_ahead": map[string]any{
				"type":        "integer",
				"description": "Cuántos días hacia adelante buscar (por defecto 7).",
			},
		},
		"required": []string{},
	}
}

func (c *CalendarTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	c.mu.RLock()
	service := c.service
	c.mu.RUnlock()

	if service == nil {
		return "El calendario no está conectado. Usa /auth para conectar tu Google Calendar.", nil
	}

	maxResults := int64(10)
	if v, ok := args["max_results"].(float64); ok && v > 0 {
		maxResults = int64(v)
		if maxResults > 50 {
			maxResults = 50
		}
	}
	daysAhead := 7
	if v, ok := args["days_ahead"].(float64); ok && v > 0 {
		daysAhead = int(v)
	}

	now := time.Now()
	events, err := service.Events.List("primary").
		Context(ctx).
		ShowDeleted(false).
		SingleEvents(true).
		TimeMin(now.Format(time.RFC3339)).
		TimeMax(now.AddDate(0, 0, daysAhead).Format(time.RFC3339)).
		MaxResults(maxResults).
		OrderBy("startTime").
		Do()
	if err != nil {
		return "", fmt.Errorf("retrieving events: %w", err)
	}

	if len(events.Items) == 0 {
		return "No hay eventos próximos en el calendario.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Próximos %d eventos:\n", len(events.Items))
	for _, item := range events.Items {
		start := item.Start.DateTime
		if start == "" {
			start = item.Start.Date // all-day event
		}
		when := start
		if t, err := time.Parse(time.RFC3339, start); err == nil {
			when = t.Format("Mon 2 Jan, 3:04 PM")
		}
		fmt.Fprintf(&sb, "• %s - %s\n", when, item.Summary)
		if item.Location != "" {
			fmt.Fprintf(&sb, "  (%s)\n", item.Location)
		}
	}
	return sb.String(), nil
}

func (c *CalendarTool) tokenFromFile() (*oauth2.Token, error) {
	f, err := os.Open(c.tokenFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(token)
	return token, err
}

func (c *CalendarTool) saveToken(token *oauth2.Token) error {
	f, err := os.Create(c.tokenFile)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
