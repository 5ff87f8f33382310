// Package format post-processes assistant replies before delivery.
package format

import (
	"regexp"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Options controls how a reply is shaped.
type Options struct {
	// PersonaPrefix prepends "<emoji> <name>: " to the reply.
	PersonaPrefix bool
	PersonaName   string
	PersonaEmoji  string

	// Focus reduces the reply to its first paragraph (or first non-empty
	// line), used when a raw tool result is surfaced directly.
	Focus bool

	// MaxChars truncates the reply with a "..." marker. Zero means the
	// default of 800.
	MaxChars int
}

// Reply normalizes whitespace, optionally focuses on the first paragraph,
// truncates, and optionally tags the persona. It is a pure transform and
// idempotent: formatting already-formatted text yields no further change
// beyond the stable length bound.
func Reply(text string, opts Options) string {
	maxChars := opts.MaxChars
	if maxChars <= 0 {
		maxChars = 800
	}

	out := strings.TrimSpace(text)

	if opts.Focus {
		paragraphs := regexp.MustCompile(`\n\n+`).Split(out, 2)
		first := strings.TrimSpace(paragraphs[0])
		for _, line := range strings.Split(first, "\n") {
			if l := strings.TrimSpace(line); l != "" {
				first = l
				break
			}
		}
		out = first
	}

	out = whitespaceRe.ReplaceAllString(out, " ")

	// Prefix before truncating so the length bound holds for the final
	// string and reformatting is a no-op.
	if opts.PersonaPrefix && !strings.HasPrefix(out, opts.PersonaEmoji+" "+opts.PersonaName+": ") {
		out = opts.PersonaEmoji + " " + opts.PersonaName + ": " + out
	}

	if runes := []rune(out); len(runes) > maxChars {
		if maxChars > 3 {
			out = strings.TrimSpace(string(runes[:maxChars-3])) + "..."
		} else {
			// No room for the marker; hard cut so the bound still holds.
			out = string(runes[:maxChars])
		}
	}

	return out
}
