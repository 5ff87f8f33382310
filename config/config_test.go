package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SearchMode != "auto" {
		t.Errorf("SearchMode = %q", cfg.SearchMode)
	}
	if cfg.PersonaName != "Rubi" {
		t.Errorf("PersonaName = %q", cfg.PersonaName)
	}
	if cfg.LLMBaseURL == "" || cfg.VisionModel == "" || cfg.DBPath == "" {
		t.Errorf("defaults missing: %+v", cfg)
	}
	if cfg.SearchCacheTTL != 300 {
		t.Errorf("SearchCacheTTL = %d", cfg.SearchCacheTTL)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "happybot.yaml")
	data := `
telegram_token: tok-123
search_mode: ask
persona_name: Otto
search_cache_ttl: 60
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TelegramToken != "tok-123" {
		t.Errorf("TelegramToken = %q", cfg.TelegramToken)
	}
	if cfg.SearchMode != "ask" {
		t.Errorf("SearchMode = %q", cfg.SearchMode)
	}
	if cfg.PersonaName != "Otto" {
		t.Errorf("PersonaName = %q", cfg.PersonaName)
	}
	if cfg.SearchCacheTTL != 60 {
		t.Errorf("SearchCacheTTL = %d", cfg.SearchCacheTTL)
	}
	// Untouched fields keep their defaults.
	if cfg.DBPath != "happybot.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "happybot.yaml")
	if err := os.WriteFile(path, []byte("search_mode: ask\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SEARCH_MODE", "manual")
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SearchMode != "manual" {
		t.Errorf("SearchMode = %q, env must win", cfg.SearchMode)
	}
	if cfg.TelegramToken != "env-token" {
		t.Errorf("TelegramToken = %q", cfg.TelegramToken)
	}
}

func TestLoadInvalidSearchMode(t *testing.T) {
	t.Setenv("SEARCH_MODE", "always")
	if _, err := Load(""); err == nil {
		t.Error("invalid search_mode accepted")
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "happybot.yaml")
	if err := os.WriteFile(path, []byte("search_mode: [broken\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed YAML accepted")
	}
}
