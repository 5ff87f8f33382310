package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// BCVRateTool extracts the official USD→VES rate from the Venezuelan
// central bank's page, falling back to the DolarToday JSON mirrors when
// the page cannot be parsed.
type BCVRateTool struct {
	httpClient *http.Client
	pageURLs   []string
	mirrorURLs []string
}

// NewBCVRateTool creates the BCV rate capability.
func NewBCVRateTool() *BCVRateTool {
	return &BCVRateTool{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		pageURLs: []string{
			"https://www.bcv.org.ve/",
			"https://bcv.org.ve/",
			"https://www.bcv.gob.ve/",
		},
		mirrorURLs: []string{
			"https://s3.amazonaws.com/dolartoday/data.json",
		},
	}
}

func (b *BCVRateTool) Name() string {
	return NameBCVRate
}

func (b *BCVRateTool) Description() string {
	return "Obtiene la tasa oficial del dólar (USD a VES) publicada por el Banco Central de Venezuela."
}

func (b *BCVRateTool) Parameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
		"required":   []string{},
	}
}

func (b *BCVRateTool) Execute(ctx context.Context, _ map[string]any) (string, error) {
	for _, pageURL := range b.pageURLs {
		rate, err := b.scrapePage(ctx, pageURL)
		if err != nil {
			log.Printf("[rates] bcv %s: %v", pageURL, err)
			continue
		}
		if rate != "" {
			return fmt.Sprintf("%s VES (fuente: %s)", rate, pageURL), nil
		}
	}

	for _, mirrorURL := range b.mirrorURLs {
		rate, err := b.queryMirror(ctx, mirrorURL)
		if err != nil {
			log.Printf("[rates] mirror %s: %v", mirrorURL, err)
			continue
		}
		if rate != "" {
			return fmt.Sprintf("%s VES (fuente: %s)", rate, mirrorURL), nil
		}
	}

	return "", fmt.Errorf("no pude extraer la tasa del BCV ni de fuentes alternativas")
}

// ratePatterns locate a dollar figure near rate-related wording. Tried in
// order; the first capture wins.
var ratePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)d[óo]lar[^\n\r]{0,80}?([0-9]{1,3}(?:[.,][0-9]{3})*(?:[.,][0-9]+))`),
	regexp.MustCompile(`(?i)(?:Tasa|Paridad|Precio|Tipo de cambio)[^\n\r]{0,80}?([0-9]{1,3}(?:[.,][0-9]{3})*(?:[.,][0-9]+))`),
	regexp.MustCompile(`([0-9]{1,3}(?:\.[0-9]{3})*,[0-9]{2})\s*(?:Bs|VES|VEF)`),
	regexp.MustCompile(`(?i)([0-9]{1,3}(?:,[0-9]{3})*\.?[0-9]+)\s*(?:Bs|VES|VEF)`),
}

func (b *BCVRateTool) scrapePage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "HappyBot/1.0")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", err
	}

	text := extractPageText(body)
	for _, re := range ratePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			if n := normalizeNumber(m[1]); n != "" {
				return n, nil
			}
		}
	}
	return "", nil
}

// extractPageText walks the HTML tree collecting visible text, skipping
// script/style subtrees. Falls back to tag stripping on parse failure.
func extractPageText(body []byte) string {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return stripHTML(string(body))
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				sb.WriteString(t)
				sb.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return sb.String()
}

func (b *BCVRateTool) queryMirror(ctx context.Context, mirrorURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mirrorURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "HappyBot/1.0")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}

	best, score := "", -1
	var walk func(v any, path string)
	walk = func(v any, path string) {
		switch val := v.(type) {
		case map[string]any:
			for k, child := range val {
				walk(child, path+"."+strings.ToLower(k))
			}
		case []any:
			for _, child := range val {
				walk(child, path)
			}
		case float64:
			rank := mirrorKeyScore(path)
			if rank > score {
				if n := normalizeNumber(fmt.Sprintf("%v", val)); n != "" {
					best, score = n, rank
				}
			}
		case string:
			rank := mirrorKeyScore(path)
			if rank > score {
				if n := normalizeNumber(val); n != "" {
					best, score = n, rank
				}
			}
		}
	}
	walk(payload, "")

	if best == "" {
		return "", fmt.Errorf("no rate-like value in mirror payload")
	}
	return best, nil
}

// mirrorKeyScore prefers JSON keys that look like an official USD rate.
func mirrorKeyScore(path string) int {
	score := 0
	if strings.Contains(path, "usd") || strings.Contains(path, "dolar") || strings.Contains(path, "dollar") {
		score += 3
	}
	if strings.Contains(path, "transfer") || strings.Contains(path, "promedio") {
		score += 2
	}
	return score
}

var numberRe = regexp.MustCompile(`\d+\.?\d*`)

// normalizeNumber turns "1.234.567,89", "1,234,567.89" or "1234567.89"
// into a dot-decimal string, or "" when no number is present.
func normalizeNumber(raw string) string {
	s := strings.TrimSpace(raw)
	s = regexp.MustCompile(`[^0-9.,]`).ReplaceAllString(s, "")
	if s == "" {
		return ""
	}

	// When a comma is the rightmost separator treat it as the decimal
	// point and the dots as thousands markers.
	if strings.Contains(s, ",") && strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}

	return numberRe.FindString(s)
}

// BinanceP2PTool reports the top USDT sell offers on Binance P2P for a
// fiat currency, the street reference for the parallel rate.
type BinanceP2PTool struct {
	httpClient *http.Client
	endpoint   string
}

// NewBinanceP2PTool creates the Binance P2P rate capability.
func NewBinanceP2PTool() *BinanceP2PTool {
	return &BinanceP2PTool{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		endpoint:   "https://p2p.binance.com/bapi/c2c/v2/friendly/c2c/adv/search",
	}
}

func (b *BinanceP2PTool) Name() string {
	return NameBinanceP2P
}

func (b *BinanceP2PTool) Description() string {
	return "Obtiene los mejores precios de venta de USDT en Binance P2P para una moneda fiat (por defecto VES), como referencia del dólar paralelo."
}

func (b *BinanceP2PTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"fiat": map[string]any{
				"type":        "string",
				"description": "Código de la moneda fiat (ej: 'VES', 'ARS', 'COP'). Por defecto VES.",
			},
		},
		"required": []string{},
	}
}

type binanceOffer struct {
	Adv struct {
		Price string `json:"price"`
		AdvNo string `json:"advNo"`
	} `json:"adv"`
	Advertiser struct {
		NickName string `json:"nickName"`
	} `json:"advertiser"`
}

func (b *BinanceP2PTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	fiat, _ := args["fiat"].(string)
	fiat = strings.ToUpper(strings.TrimSpace(fiat))
	if fiat == "" {
		fiat = "VES"
	}

	reqBody, err := json.Marshal(map[string]any{
		"page":      1,
		"rows":      3,
		"payTypes":  []string{},
		"asset":     "USDT",
		"fiat":      fiat,
		"tradeType": "SELL",
	})
	if err != nil {
		return "", fmt.Errorf("binance p2p: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("binance p2p: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "HappyBot/1.0")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("binance p2p: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("binance p2p: HTTP %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Data []binanceOffer `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("binance p2p: decode response: %w", err)
	}
	if len(payload.Data) == 0 {
		return "", fmt.Errorf("binance p2p: sin datos en respuesta")
	}

	lines := make([]string, 0, len(payload.Data))
	for i, offer := range payload.Data {
		nick := offer.Advertiser.NickName
		if nick == "" {
			nick = "vendedor"
		}
		line := fmt.Sprintf("%d. %s %s — %s", i+1, offer.Adv.Price, fiat, nick)
		if offer.Adv.AdvNo != "" {
			line += fmt.Sprintf(" (id:%s)", offer.Adv.AdvNo)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}
