package agent

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"happybot/format"
	"happybot/llm"
	"happybot/persona"
	"happybot/tools"
)

// maxDepth bounds the tool-call loop. Reaching it is not an error: the
// most recent transcript content is surfaced instead of failing outright.
const maxDepth = 5

// Canned user-facing failure lines. Failures never surface as errors to
// the transport; they terminate in one of these.
const (
	replyCrashed     = "Lo siento, me he mareado un poco. ¿Me lo repites?"
	replyModelFailed = "Lo siento, tuve un problema procesando tu solicitud."
	replyOutOfIdeas  = "Lo siento, me he quedado sin ideas. 🌀"
	replyDeclined    = "Está bien, no haré la búsqueda. Dime si necesitas otra cosa. 🙌"
	replyConfirm     = "¿Quieres que lo busque en internet? (sí/no)"
)

// Agent owns turn processing: the confirmation handshake, tool selection,
// the bounded model/tool loop, and reply formatting.
type Agent struct {
	completer llm.Completer
	registry  *tools.Registry
	persona   *persona.Persona
	mode      Mode
	maxChars  int
}

// New creates an agent. mode is read once per process lifetime.
func New(completer llm.Completer, registry *tools.Registry, p *persona.Persona, mode Mode) *Agent {
	return &Agent{
		completer: completer,
		registry:  registry,
		persona:   p,
		mode:      mode,
		maxChars:  800,
	}
}

// HandleTurn processes one inbound user message to completion and returns
// the reply text. userContext describes who is talking (may be empty);
// activity, when non-nil, is invoked before each slow external call so the
// transport can show a typing indicator. No error ever crosses this
// boundary: every failure terminates in a short textual reply, and the
// transcript is left in whatever state it reached.
func (a *Agent) HandleTurn(ctx context.Context, s *Session, userText, userContext string, activity func()) (reply string) {
	s.Lock()
	defer s.Unlock()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[agent] panic in turn for session %d: %v", s.ID, r)
			reply = replyCrashed
		}
	}()

	// A pending confirmation short-circuits normal processing.
	if action, ok := s.Marker(); ok {
		switch {
		case isAffirmative(userText):
			s.RemoveMarker()
			s.Append(llm.Message{Role: llm.RoleUser, Content: userText})
			if activity != nil {
				activity()
			}
			result := a.invoke(ctx, action.Tool, action.Args)
			reply = a.format(result, true)
			s.Append(llm.Message{Role: llm.RoleAssistant, Content: reply})
			return reply
		case isNegative(userText):
			s.RemoveMarker()
			s.Append(llm.Message{Role: llm.RoleUser, Content: userText})
			s.Append(llm.Message{Role: llm.RoleAssistant, Content: replyDeclined})
			return replyDeclined
		default:
			// Ambiguous: keep the (bounded) marker, process normally.
			s.BumpMarker()
		}
	}

	s.Append(llm.Message{Role: llm.RoleUser, Content: userText})

	sel := SelectTools(userText, a.mode)
	if sel.RequiresConfirmation {
		if s.InstallMarker(PendingAction{
			Tool: tools.NameSearch,
			Args: map[string]any{"query": userText},
		}) {
			s.Append(llm.Message{Role: llm.RoleAssistant, Content: replyConfirm})
			return replyConfirm
		}
		// An older marker pends; it wins, and this turn proceeds normally.
	}

	return a.run(ctx, s, sel.Exposed, userContext, activity)
}

// run is the bounded orchestration loop: ask the model, execute whatever
// invocations it requests in the order received, feed the results back,
// repeat until a plain answer or the depth limit.
func (a *Agent) run(ctx context.Context, s *Session, exposed []string, userContext string, activity func()) string {
	defs := a.registry.Definitions(exposed)

	for depth := 0; depth < maxDepth; depth++ {
		if activity != nil {
			activity()
		}
		msgs := a.persona.Apply(s.ModelMessages(), userContext)
		resp, err := a.completer.Complete(ctx, msgs, defs)
		if err != nil {
			log.Printf("[agent] model call failed at depth %d: %v", depth, err)
			return replyModelFailed
		}

		if len(resp.ToolCalls) == 0 {
			s.Append(llm.Message{Role: llm.RoleAssistant, Content: resp.Content})
			return a.format(resp.Content, false)
		}

		// Some models omit correlation IDs; synthesize them so every
		// tool result can still be tied to its invocation.
		for i := range resp.ToolCalls {
			if resp.ToolCalls[i].ID == "" {
				resp.ToolCalls[i].ID = uuid.NewString()
			}
		}
		s.Append(*resp)

		for _, tc := range resp.ToolCalls {
			log.Printf("[agent] tool call: %s(%s)", tc.Name, tc.Arguments)
			if activity != nil {
				activity()
			}
			inv := Normalize(tc)
			content := a.invoke(ctx, inv.Name, inv.Args)
			s.Append(llm.Message{
				Role:       llm.RoleTool,
				Name:       inv.Name,
				ToolCallID: tc.ID,
				Content:    content,
			})
		}
	}

	log.Printf("[agent] max depth reached for session %d", s.ID)
	if last := s.LastContent(); last != "" {
		return a.format(last, false)
	}
	return replyOutOfIdeas
}

// invoke executes one normalized invocation. Failures of any kind come
// back as a human-readable string, never an error: one bad invocation must
// not abort the rest of the batch.
func (a *Agent) invoke(ctx context.Context, name string, args map[string]any) string {
	tool, ok := a.registry.Get(name)
	if !ok {
		return fmt.Sprintf("Error: herramienta desconocida %q.", name)
	}

	if req := RequiredArg(name); req != "" {
		if v, _ := args[req].(string); strings.TrimSpace(v) == "" {
			return fmt.Sprintf("Error: argumentos inválidos para %s (falta %q).", name, req)
		}
	}

	result, err := tool.Execute(ctx, args)
	if err != nil {
		log.Printf("[agent] %s failed: %v", name, err)
		return fmt.Sprintf("Error ejecutando %s: %v", name, err)
	}
	return result
}

// format shapes a reply for delivery. focus reduces a raw tool result to
// its leading line and tags it with the persona, so it reads as the bot
// speaking; model-composed answers already do and keep their full
// (bounded) text.
func (a *Agent) format(text string, focus bool) string {
	if strings.TrimSpace(text) == "" {
		return replyOutOfIdeas
	}
	meta := a.persona.Meta()
	return format.Reply(text, format.Options{
		PersonaPrefix: focus,
		PersonaName:   meta.Name,
		PersonaEmoji:  meta.Emoji,
		Focus:         focus,
		MaxChars:      a.maxChars,
	})
}
