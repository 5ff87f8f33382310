// Package config provides configuration management for the bot.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	TelegramToken string `yaml:"telegram_token"`

	// LLM provider (OpenAI-compatible endpoint, NVIDIA NIM by default).
	LLMBaseURL  string `yaml:"llm_base_url"`
	LLMAPIKey   string `yaml:"llm_api_key"`
	LLMModel    string `yaml:"llm_model"`
	VisionModel string `yaml:"vision_model"`

	BraveAPIKey    string `yaml:"brave_api_key"`
	SearchCacheTTL int    `yaml:"search_cache_ttl"` // seconds

	// SearchMode gates how tools are exposed per turn: auto, ask or manual.
	// Read once at startup; it is not part of the conversational protocol.
	SearchMode string `yaml:"search_mode"`

	DefaultLocation string `yaml:"default_location"`

	PersonaName  string `yaml:"persona_name"`
	PersonaEmoji string `yaml:"persona_emoji"`

	DBPath string `yaml:"db_path"`

	STTCommand string `yaml:"stt_command"`

	GoogleClientID    string `yaml:"google_client_id"`
	GoogleSecret      string `yaml:"google_client_secret"`
	GoogleRedirectURL string `yaml:"google_redirect_url"`
	GoogleTokenFile   string `yaml:"google_token_file"`
}

// Load reads configuration from an optional YAML file and then from
// environment variables. Environment variables always win so deployments
// can override a checked-in file.
func Load(path string) (*Config, error) {
	cfg := &Config{
		LLMBaseURL:        "https://integrate.api.nvidia.com/v1",
		LLMModel:          "meta/llama-3.1-70b-instruct",
		VisionModel:       "microsoft/phi-4-multimodal-instruct",
		SearchCacheTTL:    300,
		SearchMode:        "auto",
		DefaultLocation:   "Caracas",
		PersonaName:       "Rubi",
		PersonaEmoji:      "🤖✨",
		DBPath:            "happybot.db",
		GoogleRedirectURL: "urn:ietf:wg:oauth:2.0:oob",
		GoogleTokenFile:   "google_token.json",
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	switch cfg.SearchMode {
	case "auto", "ask", "manual":
	default:
		return nil, fmt.Errorf("invalid search_mode %q (valid: auto, ask, manual)", cfg.SearchMode)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	setEnv(&cfg.TelegramToken, "TELEGRAM_BOT_TOKEN")
	setEnv(&cfg.LLMBaseURL, "LLM_BASE_URL")
	setEnv(&cfg.LLMAPIKey, "NVIDIA_NIM_API_KEY")
	setEnv(&cfg.LLMModel, "NVIDIA_MODEL")
	setEnv(&cfg.VisionModel, "VISION_MODEL")
	setEnv(&cfg.BraveAPIKey, "BRAVE_API_KEY")
	setEnv(&cfg.SearchMode, "SEARCH_MODE")
	setEnv(&cfg.DefaultLocation, "DEFAULT_LOCATION")
	setEnv(&cfg.PersonaName, "PERSONA_NAME")
	setEnv(&cfg.PersonaEmoji, "PERSONA_EMOJI")
	setEnv(&cfg.DBPath, "DB_PATH")
	setEnv(&cfg.STTCommand, "STT_COMMAND")
	setEnv(&cfg.GoogleClientID, "GOOGLE_CLIENT_ID")
	setEnv(&cfg.GoogleSecret, "GOOGLE_CLIENT_SECRET")
	setEnv(&cfg.GoogleRedirectURL, "GOOGLE_REDIRECT_URL")
	setEnv(&cfg.GoogleTokenFile, "GOOGLE_TOKEN_FILE")
}

func setEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
