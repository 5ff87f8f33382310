package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"happybot/agent"
	"happybot/config"
	"happybot/llm"
	"happybot/persona"
	"happybot/store"
	"happybot/tools"
)

// Onboarding states, driven by the /start flow.
const (
	stateWaitingName     = "WAITING_NAME"
	stateWaitingFunction = "WAITING_FUNCTION"
)

type bot struct {
	api      *tgbotapi.BotAPI
	agent    *agent.Agent
	sessions *agent.Sessions
	llm      *llm.Client
	profiles store.ProfileStore
	calendar *tools.CalendarTool
	stt      *tools.TranscribeTool
	cfg      *config.Config

	mu        sync.Mutex
	userState map[int64]string
	userDraft map[int64]*store.Profile
}

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "happybot.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.TelegramToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN environment variable is required")
	}

	// Set up context with cancellation for graceful shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Shutting down...")
		cancel()
	}()

	profiles, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("profile store: %v", err)
	}
	defer profiles.Close()

	client := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.VisionModel)
	p := persona.New(cfg.PersonaName, cfg.PersonaEmoji)

	// Set up the capability registry.
	registry := tools.NewRegistry()
	search := tools.NewSearchTool(cfg.BraveAPIKey, time.Duration(cfg.SearchCacheTTL)*time.Second)
	registry.Register(search)
	registry.Register(tools.NewTimeTool(cfg.DefaultLocation, search))
	registry.Register(tools.NewBCVRateTool())
	registry.Register(tools.NewBinanceP2PTool())

	var stt *tools.TranscribeTool
	if cfg.STTCommand != "" {
		stt = tools.NewTranscribeTool(cfg.STTCommand)
		registry.Register(stt)
	}

	var calendarTool *tools.CalendarTool
	if cfg.GoogleClientID != "" && cfg.GoogleSecret != "" {
		calendarTool = tools.NewCalendarTool(
			cfg.GoogleClientID, cfg.GoogleSecret, cfg.GoogleRedirectURL, cfg.GoogleTokenFile)
		if authURL, err := calendarTool.Init(ctx); err != nil {
			log.Printf("Calendar init warning: %v", err)
		} else if authURL != "" {
			log.Printf("Calendar needs authentication. Use /auth command in the bot.")
		} else {
			log.Printf("Calendar authenticated successfully")
		}
		registry.Register(calendarTool)
	}

	chatAgent := agent.New(client, registry, p, agent.Mode(cfg.SearchMode))

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Authorized on account %s", api.Self.UserName)
	log.Printf("Mode: %s, registered tools: %v", cfg.SearchMode, registry.Names())

	b := &bot{
		api:       api,
		agent:     chatAgent,
		sessions:  agent.NewSessions(),
		llm:       client,
		profiles:  profiles,
		calendar:  calendarTool,
		stt:       stt,
		cfg:       cfg,
		userState: make(map[int64]string),
		userDraft: make(map[int64]*store.Profile),
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			log.Println("Bot stopped")
			return
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	log.Printf("[%s] %s", message.From.UserName, message.Text)

	var reply string
	switch {
	case message.Command() != "":
		reply = b.handleCommand(ctx, message)
	case message.Photo != nil:
		reply = b.handlePhoto(ctx, message)
	case message.Voice != nil || message.Audio != nil:
		reply = b.handleAudio(ctx, message)
	case message.Text != "":
		reply = b.handleText(ctx, message)
	default:
		reply = "No estoy seguro de cómo procesar este tipo de archivo aún. Prueba enviándome un mensaje de texto o una imagen."
	}

	if reply == "" {
		return
	}
	b.send(message, reply)
}

func (b *bot) handleCommand(ctx context.Context, message *tgbotapi.Message) string {
	switch message.Command() {
	case "start":
		return b.handleStart(ctx, message)

	case "help":
		return "Comandos disponibles:\n" +
			"/start - Iniciar el bot\n" +
			"/help - Mostrar esta ayuda\n" +
			"/auth - Conectar Google Calendar\n" +
			"/authcode <código> - Completar la autenticación\n\n" +
			"O simplemente pregúntame cosas como:\n" +
			"• \"¿Qué hora es en Madrid?\"\n" +
			"• \"¿Cuál es el precio del bitcoin?\"\n" +
			"• \"¿Cómo está la tasa del dólar?\""

	case "auth":
		if b.calendar == nil {
			return "⚠️ El calendario no está configurado en este despliegue."
		}
		authURL, err := b.calendar.Init(ctx)
		if err != nil {
			return "⚠️ " + err.Error()
		}
		if authURL == "" {
			return "✅ ¡Google Calendar ya está conectado!"
		}
		return "🔐 Para conectar Google Calendar:\n\n" +
			"1. Abre este enlace:\n" + authURL + "\n\n" +
			"2. Inicia sesión y autoriza el acceso\n\n" +
			"3. Copia el código que recibas\n\n" +
			"4. Envía: /authcode TU_CODIGO"

	case "authcode":
		if b.calendar == nil {
			return "⚠️ El calendario no está configurado en este despliegue."
		}
		code := strings.TrimSpace(message.CommandArguments())
		if code == "" {
			return "Envía el código de autorización: /authcode TU_CODIGO"
		}
		if err := b.calendar.CompleteAuth(ctx, code); err != nil {
			return "❌ Autenticación fallida: " + err.Error()
		}
		return "✅ ¡Google Calendar conectado! Prueba preguntando \"¿qué hay en mi agenda?\""

	default:
		return "Comando desconocido. Prueba /help"
	}
}

func (b *bot) handleStart(ctx context.Context, message *tgbotapi.Message) string {
	telegramID := message.From.ID
	profile, err := b.profiles.Get(ctx, telegramID)
	if err != nil {
		log.Printf("Start error: %v", err)
		return "Error verificando usuario."
	}

	switch {
	case profile == nil:
		b.setState(telegramID, stateWaitingName, &store.Profile{
			TelegramID: telegramID,
			Username:   message.From.UserName,
		})
		return "¡Hola! Soy tu asistente de inteligencia artificial. Para empezar, ¿quién eres?"
	case profile.Name == "":
		b.setState(telegramID, stateWaitingName, profile)
		return "Hola. ¿Quién eres?"
	case profile.Role == "":
		b.setState(telegramID, stateWaitingFunction, profile)
		return fmt.Sprintf("Hola %s. ¿Cuál es tu función?", profile.Name)
	default:
		return fmt.Sprintf("Hola de nuevo %s. Soy tu asistente. ¿En qué te puedo ayudar hoy?\n\nPuedes enviarme una imagen o preguntarme cualquier cosa.", profile.Name)
	}
}

func (b *bot) handleText(ctx context.Context, message *tgbotapi.Message) string {
	telegramID := message.From.ID
	text := message.Text

	// Onboarding intercepts ordinary text until the profile is complete.
	if state, draft := b.getState(telegramID); state != "" {
		switch state {
		case stateWaitingName:
			draft.Name = text
			b.setState(telegramID, stateWaitingFunction, draft)
			return fmt.Sprintf("Entendido, %s. Ahora dime, ¿cuál es tu función?", text)
		case stateWaitingFunction:
			draft.Role = text
			if err := b.profiles.Save(ctx, draft); err != nil {
				log.Printf("Save error: %v", err)
				return "Error guardando datos en la base de datos."
			}
			b.clearState(telegramID)
			return "¡Perfecto! Todo guardado. Ahora estoy listo para ayudarte."
		}
	}

	userContext := "El usuario ya se ha identificado."
	if profile, err := b.profiles.Get(ctx, telegramID); err != nil {
		log.Printf("Context fetch error: %v", err)
	} else if profile != nil && profile.Complete() {
		userContext = fmt.Sprintf("Estás hablando con %q. Su función es %q.", profile.Name, profile.Role)
	}

	session := b.sessions.Get(message.Chat.ID)
	return b.agent.HandleTurn(ctx, session, text, userContext, func() {
		b.typing(message.Chat.ID)
	})
}

func (b *bot) handlePhoto(ctx context.Context, message *tgbotapi.Message) string {
	photos := message.Photo
	fileID := photos[len(photos)-1].FileID

	fileURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		log.Printf("Photo error: %v", err)
		return "Error procesando la imagen."
	}

	prompt := message.Caption
	if prompt == "" {
		prompt = "Analiza esta imagen en detalle para identificar problemas o extraer información clave."
	}
	if profile, err := b.profiles.Get(ctx, message.From.ID); err == nil && profile != nil && profile.Complete() {
		prompt += fmt.Sprintf(" El usuario se llama %q.", profile.Name)
	}

	b.typing(message.Chat.ID)
	analysis, err := b.llm.AnalyzeImage(ctx, fileURL, prompt)
	if err != nil {
		log.Printf("Vision error: %v", err)
		return "No pude analizar la imagen correctamente. Intenta con otra o asegúrate de que el texto sea legible."
	}

	// Keep the exchange in the transcript so follow-up questions work.
	session := b.sessions.Get(message.Chat.ID)
	session.Lock()
	session.Append(llm.Message{Role: llm.RoleUser, Content: "[El usuario envió una imagen]"})
	session.Append(llm.Message{Role: llm.RoleAssistant, Content: "[Análisis de imagen]: " + analysis})
	session.Unlock()

	return analysis
}

func (b *bot) handleAudio(ctx context.Context, message *tgbotapi.Message) string {
	if b.stt == nil {
		return "Por el momento solo puedo procesar texto e imágenes. Muy pronto podré entender tus notas de voz. ¡Envíame un texto o una foto!"
	}

	fileID := ""
	if message.Voice != nil {
		fileID = message.Voice.FileID
	} else if message.Audio != nil {
		fileID = message.Audio.FileID
	}

	b.typing(message.Chat.ID)
	audioPath, err := b.downloadFile(ctx, fileID)
	if err != nil {
		log.Printf("Audio download error: %v", err)
		return "No pude descargar el audio. ¿Puedes intentarlo de nuevo?"
	}
	defer os.Remove(audioPath)

	transcript, err := b.stt.Execute(ctx, map[string]any{"file_path": audioPath})
	if err != nil {
		log.Printf("Transcription error: %v", err)
		return "No pude transcribir el audio. ¿Puedes enviarme un texto?"
	}
	log.Printf("[stt] transcript: %s", transcript)

	// Process the transcript as if it had been typed.
	msg := *message
	msg.Text = transcript
	return b.handleText(ctx, &msg)
}

func (b *bot) downloadFile(ctx context.Context, fileID string) (string, error) {
	fileURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d downloading file", resp.StatusCode)
	}

	f, err := os.CreateTemp("", "happybot-audio-*"+filepath.Ext(fileURL))
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// send delivers the reply as Markdown, falling back to plain text when
// Telegram rejects the markup.
func (b *bot) send(message *tgbotapi.Message, reply string) {
	msg := tgbotapi.NewMessage(message.Chat.ID, reply)
	msg.ReplyToMessageID = message.MessageID
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Markdown reply failed, falling back to plain text: %v", err)
		msg.ParseMode = ""
		if _, err := b.api.Send(msg); err != nil {
			log.Printf("Error sending message: %v", err)
		}
	}
}

func (b *bot) typing(chatID int64) {
	action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	if _, err := b.api.Request(action); err != nil {
		log.Printf("Error sending chat action: %v", err)
	}
}

func (b *bot) setState(telegramID int64, state string, draft *store.Profile) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.userState[telegramID] = state
	b.userDraft[telegramID] = draft
}

func (b *bot) getState(telegramID int64) (string, *store.Profile) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.userState[telegramID], b.userDraft[telegramID]
}

func (b *bot) clearState(telegramID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.userState, telegramID)
	delete(b.userDraft, telegramID)
}
