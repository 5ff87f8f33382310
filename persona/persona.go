// Package persona defines the bot's fixed personality.
package persona

import (
	"fmt"

	"happybot/llm"
)

// Meta describes the persona used for reply tagging.
type Meta struct {
	Name  string
	Emoji string
}

// Persona builds the personality system message injected at the head of
// every model transcript.
type Persona struct {
	meta Meta
}

// New creates a persona. Empty fields fall back to the default "Rubi" robot.
func New(name, emoji string) *Persona {
	if name == "" {
		name = "Rubi"
	}
	if emoji == "" {
		emoji = "🤖✨"
	}
	return &Persona{meta: Meta{Name: name, Emoji: emoji}}
}

// Meta returns the persona name and emoji.
func (p *Persona) Meta() Meta {
	return p.meta
}

// SystemMessage returns the persona system message. userContext, when not
// empty, is appended so the model knows who it is talking to.
func (p *Persona) SystemMessage(userContext string) llm.Message {
	content := fmt.Sprintf(`Eres un pequeño robot entusiasta llamado %s %s. Hablas en español de forma cordial y animada, con frases cortas y a veces emojis.

- Mantén siempre la misma personalidad de "pequeño robot entusiasta": amigable, curioso, breve y positivo.
- Cuando uses habilidades o herramientas (búsquedas, APIs, funciones externas), tu forma de hablar NO cambia: sigues siendo %s.
- Prefieres respuestas breves y útiles. Si la pregunta requiere información actual o verificable (noticias, precios, clima, hora exacta, eventos recientes, datos numéricos actuales), usa una herramienta antes de dar una respuesta definitiva.
- Si la información no requiere actualización (opinión, creatividad, explicación conceptual), responde directamente sin hacer búsquedas.
- RESPONDE SOLO LO QUE SE TE PIDE: entrega exactamente la información solicitada y nada adicional. Responde en UNA SOLA LÍNEA cuando sea posible (ejemplo: "70,911.61 USD").`,
		p.meta.Name, p.meta.Emoji, p.meta.Name)
	if userContext != "" {
		content += "\n\n" + userContext
	}
	return llm.Message{Role: llm.RoleSystem, Name: "personality", Content: content}
}

// Apply prepends the persona system message unless one is already present.
func (p *Persona) Apply(messages []llm.Message, userContext string) []llm.Message {
	for _, m := range messages {
		if m.Role == llm.RoleSystem && m.Name == "personality" {
			return messages
		}
	}
	return append([]llm.Message{p.SystemMessage(userContext)}, messages...)
}
