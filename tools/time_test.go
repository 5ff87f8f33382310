package tools

import (
	"context"
	"strings"
	"testing"
)

func TestResolveZone(t *testing.T) {
	tool := NewTimeTool("Caracas", nil)

	cases := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"Venezuela", "America/Caracas", true},
		{"madrid", "Europe/Madrid", true},
		{"la ciudad de buenos aires", "America/Argentina/Buenos_Aires", true},
		{"", "America/Caracas", true},
		{"mi ubicación", "America/Caracas", true},
		{"Asia/Tokyo", "Asia/Tokyo", true},
		{"Marte", "", false},
	}
	for _, tc := range cases {
		got, ok := tool.resolveZone(tc.in)
		if ok != tc.wantOK || got != tc.want {
			t.Errorf("resolveZone(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestTimeUnmappedFallsBackToSearch(t *testing.T) {
	var query string
	search := &stubTool{name: NameSearch, fn: func(_ context.Context, args map[string]any) (string, error) {
		query, _ = args["query"].(string)
		return "resultado de búsqueda", nil
	}}

	tool := NewTimeTool("Caracas", search)
	got, err := tool.Execute(context.Background(), map[string]any{"location": "Marte"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "resultado de búsqueda" {
		t.Errorf("got %q", got)
	}
	if !strings.Contains(query, "Marte") {
		t.Errorf("search query = %q", query)
	}
}

func TestTimeUnmappedWithoutSearch(t *testing.T) {
	tool := NewTimeTool("Caracas", nil)
	if _, err := tool.Execute(context.Background(), map[string]any{"location": "Marte"}); err == nil {
		t.Error("expected error without a search fallback")
	}
}

type stubTool struct {
	name string
	fn   func(ctx context.Context, args map[string]any) (string, error)
}

func (s *stubTool) Name() string               { return s.name }
func (s *stubTool) Description() string        { return "stub" }
func (s *stubTool) Parameters() map[string]any { return map[string]any{"type": "object"} }
func (s *stubTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	return s.fn(ctx, args)
}
