package persona

import (
	"strings"
	"testing"

	"happybot/llm"
)

func TestSystemMessage(t *testing.T) {
	p := New("Rubi", "🤖✨")
	msg := p.SystemMessage(`Estás hablando con "Ana".`)

	if msg.Role != llm.RoleSystem || msg.Name != "personality" {
		t.Errorf("unexpected envelope: role=%q name=%q", msg.Role, msg.Name)
	}
	if !strings.Contains(msg.Content, "Rubi") {
		t.Error("persona name missing from prompt")
	}
	if !strings.Contains(msg.Content, "Ana") {
		t.Error("user context missing from prompt")
	}
}

func TestApplyIdempotent(t *testing.T) {
	p := New("", "")
	msgs := []llm.Message{{Role: llm.RoleUser, Content: "hola"}}

	once := p.Apply(msgs, "")
	if len(once) != 2 || once[0].Name != "personality" {
		t.Fatalf("persona not prepended: %+v", once)
	}
	twice := p.Apply(once, "")
	if len(twice) != len(once) {
		t.Errorf("persona duplicated: %d messages", len(twice))
	}
}

func TestNewDefaults(t *testing.T) {
	p := New("", "")
	if meta := p.Meta(); meta.Name != "Rubi" || meta.Emoji == "" {
		t.Errorf("defaults not applied: %+v", meta)
	}
}
