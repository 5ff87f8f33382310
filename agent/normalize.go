package agent

import (
	"encoding/json"
	"regexp"
	"strings"

	"happybot/llm"
	"happybot/tools"
)

// RawKey is the sentinel field holding unparseable tool arguments so the
// raw text survives normalization instead of being discarded.
const RawKey = "_raw"

// Invocation is a normalized tool call: canonical capability name plus a
// best-effort argument object.
type Invocation struct {
	Name string
	Args map[string]any
}

// synonymRules map the free-form names models emit onto canonical
// capability names. Evaluated in order against the lower-cased requested
// name; first match wins; unmatched names pass through unchanged so the
// orchestrator reports an unknown capability instead of dropping the call.
var synonymRules = []struct {
	re        *regexp.Regexp
	canonical string
}{
	{regexp.MustCompile(`bcv|oficial`), tools.NameBCVRate},
	{regexp.MustCompile(`binance|p2p|paralelo`), tools.NameBinanceP2P},
	{regexp.MustCompile(`calendar|agenda|evento`), tools.NameCalendar},
	{regexp.MustCompile(`transcri|speech|voz`), tools.NameTranscribe},
	{regexp.MustCompile(`search|web|google|brave|bing|duckduckgo|buscar`), tools.NameSearch},
	{regexp.MustCompile(`time|hora|date|fecha|timezone|clock`), tools.NameTime},
	{regexp.MustCompile(`price|precio|bitcoin|btc`), tools.NameSearch},
}

// argAlternates lists, per capability, the alternate field names a
// required argument may arrive under, in priority order. RawKey last so a
// non-JSON payload still lands in the right slot.
var argAlternates = map[string]struct {
	required string
	aliases  []string
}{
	tools.NameSearch:     {"query", []string{"q", "term", "text", "prompt", "search", "consulta", RawKey}},
	tools.NameTime:       {"location", []string{"locationName", "city", "zone", "place", "lugar", RawKey}},
	tools.NameTranscribe: {"file_path", []string{"path", "file", "audio", RawKey}},
}

// Normalize maps a raw invocation request onto a canonical capability name
// and a best-effort argument object. It never fails: malformed JSON is
// wrapped under RawKey and missing required fields are backfilled from
// common alternates.
func Normalize(tc llm.ToolCall) Invocation {
	name := canonicalName(tc.Name)
	args := parseArgs(tc.Arguments)

	if alt, ok := argAlternates[name]; ok {
		if !hasText(args, alt.required) {
			for _, alias := range alt.aliases {
				if hasText(args, alias) {
					args[alt.required] = strings.TrimSpace(args[alias].(string))
					break
				}
			}
		}
	}

	return Invocation{Name: name, Args: args}
}

// RequiredArg returns the argument a capability cannot run without, or ""
// when every argument is optional.
func RequiredArg(name string) string {
	if alt, ok := argAlternates[name]; ok {
		return alt.required
	}
	return ""
}

func canonicalName(raw string) string {
	lower := strings.ToLower(strings.TrimSpace(raw))
	for _, rule := range synonymRules {
		if rule.re.MatchString(lower) {
			return rule.canonical
		}
	}
	return raw
}

func parseArgs(raw string) map[string]any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return map[string]any{}
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(trimmed), &args); err != nil || args == nil {
		return map[string]any{RawKey: raw}
	}
	return args
}

func hasText(args map[string]any, key string) bool {
	s, ok := args[key].(string)
	return ok && strings.TrimSpace(s) != ""
}
