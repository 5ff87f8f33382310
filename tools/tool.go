// Package tools provides the capability contract and implementations for
// the agent.
package tools

import "context"

// Canonical names of the built-in capabilities. The normalizer in the
// agent package maps model-invented synonyms onto these.
const (
	NameSearch     = "searchWeb"
	NameTime       = "getGlobalTime"
	NameBCVRate    = "getBCVRate"
	NameBinanceP2P = "getBinanceP2PRate"
	NameCalendar   = "getCalendarEvents"
	NameTranscribe = "transcribeAudio"
)

// Tool defines the interface that all capabilities must implement.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description for the LLM.
	Description() string

	// Parameters returns the JSON schema for the tool's parameters.
	Parameters() map[string]any

	// Execute runs the tool with the given arguments and returns a
	// human-readable result. It must return errors, never panic; the
	// context carries cancellation and timeouts.
	Execute(ctx context.Context, args map[string]any) (string, error)
}
