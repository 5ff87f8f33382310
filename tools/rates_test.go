package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNormalizeNumber(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"36,58", "36.58"},
		{"1.234,56", "1234.56"},
		{"1,234.56", "1234.56"},
		{"1.234.567,89", "1234567.89"},
		{"1234567.89", "1234567.89"},
		{"Bs. 36,58", "36.58"},
		{"  70911.61 USD ", "70911.61"},
		{"", ""},
		{"sin números", ""},
	}
	for _, tc := range cases {
		if got := normalizeNumber(tc.in); got != tc.want {
			t.Errorf("normalizeNumber(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestExtractPageTextSkipsScripts(t *testing.T) {
	page := []byte(`<html><head><script>var dolar = 999;</script>
	<style>.dolar { color: red }</style></head>
	<body><h1>Tipo de Cambio</h1><p>Dólar: <strong>36,58</strong> Bs</p></body></html>`)

	text := extractPageText(page)
	if strings.Contains(text, "999") {
		t.Errorf("script content leaked: %q", text)
	}
	if !strings.Contains(text, "36,58") {
		t.Errorf("visible text missing: %q", text)
	}
}

func TestBCVRateScrape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><div>Dólar <span>36,5824</span></div></body></html>`)
	}))
	defer srv.Close()

	tool := NewBCVRateTool()
	tool.pageURLs = []string{srv.URL}
	tool.mirrorURLs = nil

	got, err := tool.Execute(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "36.5824") || !strings.Contains(got, "VES") {
		t.Errorf("got %q", got)
	}
}

func TestBCVRateMirrorFallback(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer page.Close()
	mirror := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"USD": {"transferencia": 36.61, "promedio_real": 37.02}, "EUR": {"promedio": 40.10}}`)
	}))
	defer mirror.Close()

	tool := NewBCVRateTool()
	tool.pageURLs = []string{page.URL}
	tool.mirrorURLs = []string{mirror.URL}

	got, err := tool.Execute(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	// A usd-keyed value must beat the euro one.
	if !strings.Contains(got, "36.61") && !strings.Contains(got, "37.02") {
		t.Errorf("got %q", got)
	}
}

func TestBCVRateAllSourcesDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	tool := NewBCVRateTool()
	tool.pageURLs = []string{srv.URL}
	tool.mirrorURLs = []string{srv.URL}

	if _, err := tool.Execute(context.Background(), nil); err == nil {
		t.Error("expected error when every source is down")
	}
}

func TestBinanceP2P(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		fmt.Fprint(w, `{"data": [
			{"adv": {"price": "45.30", "advNo": "123"}, "advertiser": {"nickName": "trader1"}},
			{"adv": {"price": "45.45", "advNo": "456"}, "advertiser": {"nickName": ""}}
		]}`)
	}))
	defer srv.Close()

	tool := NewBinanceP2PTool()
	tool.endpoint = srv.URL

	got, err := tool.Execute(context.Background(), map[string]any{"fiat": "ves"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "1. 45.30 VES — trader1 (id:123)") {
		t.Errorf("got %q", got)
	}
	if !strings.Contains(got, "vendedor") {
		t.Errorf("anonymous seller not defaulted: %q", got)
	}
}

func TestBinanceP2PEmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"data": []}`)
	}))
	defer srv.Close()

	tool := NewBinanceP2PTool()
	tool.endpoint = srv.URL

	if _, err := tool.Execute(context.Background(), nil); err == nil {
		t.Error("expected error on empty offer list")
	}
}
