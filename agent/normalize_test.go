package agent

import (
	"testing"

	"happybot/llm"
	"happybot/tools"
)

func TestNormalizeSynonyms(t *testing.T) {
	cases := []struct {
		requested string
		want      string
	}{
		{"searchWeb", tools.NameSearch},
		{"buscar_web", tools.NameSearch},
		{"BuscarWeb", tools.NameSearch},
		{"google_search", tools.NameSearch},
		{"duckduckgo", tools.NameSearch},
		{"get_current_bitcoin_price", tools.NameSearch},
		{"precio_dolar", tools.NameSearch},
		{"getGlobalTime", tools.NameTime},
		{"get_time", tools.NameTime},
		{"obtener_fecha", tools.NameTime},
		{"world_clock", tools.NameTime},
		{"tasa_bcv", tools.NameBCVRate},
		{"dolar_oficial", tools.NameBCVRate},
		{"binance_rate", tools.NameBinanceP2P},
		{"dolar_paralelo", tools.NameBinanceP2P},
		{"check_calendar", tools.NameCalendar},
		{"mi_agenda", tools.NameCalendar},
		{"transcribir_audio", tools.NameTranscribe},
		{"speech_to_text", tools.NameTranscribe},
		// Unknown names pass through so the caller can report them.
		{"launch_rocket", "launch_rocket"},
	}

	for _, tc := range cases {
		inv := Normalize(llm.ToolCall{Name: tc.requested, Arguments: "{}"})
		if inv.Name != tc.want {
			t.Errorf("Normalize(%q).Name = %q, want %q", tc.requested, inv.Name, tc.want)
		}
	}
}

func TestNormalizeBadJSON(t *testing.T) {
	raw := "precio del bitcoin hoy"
	inv := Normalize(llm.ToolCall{Name: "searchWeb", Arguments: raw})

	if got, _ := inv.Args[RawKey].(string); got != raw {
		t.Errorf("raw payload not preserved: got %q, want %q", got, raw)
	}
	// The raw sentinel backfills the required argument.
	if got, _ := inv.Args["query"].(string); got != raw {
		t.Errorf("query not backfilled from raw payload: got %q", got)
	}
}

func TestNormalizeArgBackfill(t *testing.T) {
	cases := []struct {
		name string
		args string
		key  string
		want string
	}{
		{"searchWeb", `{"q": "clima caracas"}`, "query", "clima caracas"},
		{"searchWeb", `{"term": "noticias"}`, "query", "noticias"},
		{"searchWeb", `{"consulta": " euro hoy "}`, "query", "euro hoy"},
		{"getGlobalTime", `{"locationName": "Madrid"}`, "location", "Madrid"},
		{"getGlobalTime", `{"city": "Lima"}`, "location", "Lima"},
		{"transcribeAudio", `{"path": "/tmp/a.ogg"}`, "file_path", "/tmp/a.ogg"},
	}

	for _, tc := range cases {
		inv := Normalize(llm.ToolCall{Name: tc.name, Arguments: tc.args})
		if got, _ := inv.Args[tc.key].(string); got != tc.want {
			t.Errorf("Normalize(%s, %s): args[%q] = %q, want %q",
				tc.name, tc.args, tc.key, got, tc.want)
		}
	}
}

func TestNormalizeKeepsExistingRequired(t *testing.T) {
	inv := Normalize(llm.ToolCall{
		Name:      "searchWeb",
		Arguments: `{"query": "ya presente", "q": "alternativa"}`,
	})
	if got, _ := inv.Args["query"].(string); got != "ya presente" {
		t.Errorf("present required arg overwritten: got %q", got)
	}
}

func TestNormalizeEmptyArguments(t *testing.T) {
	inv := Normalize(llm.ToolCall{Name: "searchWeb", Arguments: "  "})
	if inv.Args == nil {
		t.Fatal("args must never be nil")
	}
	if len(inv.Args) != 0 {
		t.Errorf("empty arguments should yield empty args, got %v", inv.Args)
	}
}

func TestRequiredArg(t *testing.T) {
	if got := RequiredArg(tools.NameSearch); got != "query" {
		t.Errorf("RequiredArg(search) = %q", got)
	}
	if got := RequiredArg(tools.NameBCVRate); got != "" {
		t.Errorf("RequiredArg(bcv) = %q, want none", got)
	}
}
