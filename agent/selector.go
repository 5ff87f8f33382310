package agent

import (
	"strings"

	"happybot/tools"
)

// Mode gates which capabilities a turn may expose. Fixed per deployment.
type Mode string

const (
	// ModeAuto exposes tools whenever the utterance matches the broad
	// lexical signals for timely real-world facts.
	ModeAuto Mode = "auto"
	// ModeAsk only reacts to explicit search verbs, and asks the user
	// for confirmation instead of exposing the search tool directly.
	ModeAsk Mode = "ask"
	// ModeManual never exposes any tool.
	ModeManual Mode = "manual"
)

// Selection is the outcome of per-turn tool selection.
type Selection struct {
	Exposed              []string
	RequiresConfirmation bool
}

// Lexical trigger sets. Deliberately heuristic rather than semantic: a
// false negative just means the model answers from its own knowledge,
// while a false positive costs one extra round trip.
var (
	searchSignals = []string{
		"precio", "price", "cuánto", "cuanto", "noticia", "news",
		"clima", "weather", "tiempo en", "hoy", "today", "ahora", "now",
		"actual", "último", "ultimo", "última", "ultima", "latest",
		"reciente", "bitcoin", "btc", "dólar", "dolar", "euro",
		"tasa", "cotización", "cotizacion", "bolsa", "resultado",
	}
	timeSignals = []string{
		"hora", "fecha", "qué día", "que dia", "what time", "date",
	}
	calendarSignals = []string{
		"calendario", "calendar", "agenda", "evento", "reunión", "reunion", "cita",
	}
	askVerbs = []string{
		"busca", "buscar", "búscame", "buscame", "search", "look up", "investiga",
	}
)

// SelectTools decides which capabilities the model sees this turn. Pure
// function of the latest utterance and the operating mode.
func SelectTools(text string, mode Mode) Selection {
	if mode == ModeManual {
		return Selection{}
	}

	lower := strings.ToLower(text)
	var sel Selection

	switch mode {
	case ModeAsk:
		if matchesAny(lower, askVerbs) {
			sel.RequiresConfirmation = true
		}
	default: // ModeAuto
		if matchesAny(lower, searchSignals) || matchesAny(lower, askVerbs) {
			sel.Exposed = append(sel.Exposed,
				tools.NameSearch, tools.NameBCVRate, tools.NameBinanceP2P)
		}
	}

	// Time lookup is passive; both auto and ask expose it directly.
	if matchesAny(lower, timeSignals) {
		sel.Exposed = append(sel.Exposed, tools.NameTime)
	}
	if matchesAny(lower, calendarSignals) {
		sel.Exposed = append(sel.Exposed, tools.NameCalendar)
	}

	return sel
}

func matchesAny(text string, signals []string) bool {
	for _, s := range signals {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}
