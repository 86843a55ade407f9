package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var configKeys = []string{
	"VOICECHAT_PROVIDER", "GEMINI_API_KEY", "GEMINI_MODEL", "GEMINI_BASE_URL",
	"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL",
	"VOICECHAT_CONTEXT_MODE", "VOICECHAT_ASSISTANT_NAME",
	"DEEPGRAM_API_KEY", "DEEPGRAM_STT_MODEL", "DEEPGRAM_TTS_MODEL", "VOICECHAT_LANGUAGE",
	"VOICECHAT_MIC_COMMAND", "VOICECHAT_PLAYER_COMMAND", "VOICECHAT_DATA_DIR",
	"VOICECHAT_HTTP_TIMEOUT", "VOICECHAT_SPEECH_RATE", "VOICECHAT_SPEECH_PITCH", "VOICECHAT_SPEECH_VOLUME",
}

// clearEnv unsets every variable Load reads, restoring them after the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Paths.BaseDir != dir {
		t.Errorf("BaseDir = %q, want %q", cfg.Paths.BaseDir, dir)
	}
	if cfg.LLM.Provider != ProviderGemini {
		t.Errorf("Provider = %q, want %q", cfg.LLM.Provider, ProviderGemini)
	}
	if cfg.LLM.GeminiModel != DefaultGeminiModel {
		t.Errorf("GeminiModel = %q", cfg.LLM.GeminiModel)
	}
	if cfg.LLM.GeminiBaseURL != DefaultGeminiBaseURL {
		t.Errorf("GeminiBaseURL = %q", cfg.LLM.GeminiBaseURL)
	}
	if cfg.LLM.ContextMode != ContextHistory {
		t.Errorf("ContextMode = %q", cfg.LLM.ContextMode)
	}
	if cfg.Voice.STTModel != DefaultSTTModel || cfg.Voice.TTSModel != DefaultTTSModel {
		t.Errorf("voice models = %q, %q", cfg.Voice.STTModel, cfg.Voice.TTSModel)
	}
	if cfg.Voice.MicCommand != DefaultMicCommand || cfg.Voice.PlayerCommand != DefaultPlayerCommand {
		t.Errorf("commands = %q, %q", cfg.Voice.MicCommand, cfg.Voice.PlayerCommand)
	}
	if cfg.Voice.Rate != 1 || cfg.Voice.Pitch != 1 || cfg.Voice.Volume != 1 {
		t.Errorf("speech options = %v %v %v, want 1 1 1", cfg.Voice.Rate, cfg.Voice.Pitch, cfg.Voice.Volume)
	}
	if cfg.Voice.Enabled() {
		t.Error("voice should be disabled without DEEPGRAM_API_KEY")
	}
	if cfg.HTTPTimeout != DefaultHTTPTimeout {
		t.Errorf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("VOICECHAT_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", " sk-test ")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("VOICECHAT_CONTEXT_MODE", "inline")
	t.Setenv("VOICECHAT_ASSISTANT_NAME", "Juniper")
	t.Setenv("DEEPGRAM_API_KEY", "dg")
	t.Setenv("VOICECHAT_HTTP_TIMEOUT", "15")
	t.Setenv("VOICECHAT_SPEECH_RATE", "1.25")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LLM.Provider != ProviderOpenAI {
		t.Errorf("Provider = %q, want openai", cfg.LLM.Provider)
	}
	if cfg.LLM.OpenAIAPIKey != "sk-test" {
		t.Errorf("OpenAIAPIKey = %q, want trimmed key", cfg.LLM.OpenAIAPIKey)
	}
	if cfg.Model() != "gpt-4o" {
		t.Errorf("Model() = %q", cfg.Model())
	}
	if cfg.LLM.ContextMode != ContextInline {
		t.Errorf("ContextMode = %q", cfg.LLM.ContextMode)
	}
	if cfg.LLM.AssistantName != "Juniper" {
		t.Errorf("AssistantName = %q", cfg.LLM.AssistantName)
	}
	if !cfg.Voice.Enabled() {
		t.Error("voice should be enabled")
	}
	if cfg.HTTPTimeout != 15*time.Second {
		t.Errorf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
	if cfg.Voice.Rate != 1.25 {
		t.Errorf("Rate = %v", cfg.Voice.Rate)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoad_DataDirDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	content := "GEMINI_API_KEY=from-file\nGEMINI_MODEL=gemini-2.0-flash\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GEMINI_MODEL", "from-env")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LLM.GeminiAPIKey != "from-file" {
		t.Errorf("GeminiAPIKey = %q, want value from .env", cfg.LLM.GeminiAPIKey)
	}
	if cfg.LLM.GeminiModel != "from-env" {
		t.Errorf("GeminiModel = %q, environment should win over .env", cfg.LLM.GeminiModel)
	}
}

func TestLoad_DataDirFromEnvironment(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("VOICECHAT_DATA_DIR", dir)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Paths.BaseDir != dir {
		t.Errorf("BaseDir = %q, want %q", cfg.Paths.BaseDir, dir)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{name: "provider", key: "VOICECHAT_PROVIDER", value: "claude", wantErr: "invalid VOICECHAT_PROVIDER"},
		{name: "context mode", key: "VOICECHAT_CONTEXT_MODE", value: "full", wantErr: "invalid VOICECHAT_CONTEXT_MODE"},
		{name: "timeout not a number", key: "VOICECHAT_HTTP_TIMEOUT", value: "soon", wantErr: "invalid VOICECHAT_HTTP_TIMEOUT"},
		{name: "timeout zero", key: "VOICECHAT_HTTP_TIMEOUT", value: "0", wantErr: "must be positive"},
		{name: "rate not a number", key: "VOICECHAT_SPEECH_RATE", value: "fast", wantErr: "invalid VOICECHAT_SPEECH_RATE"},
		{name: "volume out of range", key: "VOICECHAT_SPEECH_VOLUME", value: "1.5", wantErr: "must be between 0.1 and 1"},
		{name: "volume zero", key: "VOICECHAT_SPEECH_VOLUME", value: "0", wantErr: "must be between 0.1 and 1"},
		{name: "pitch out of range", key: "VOICECHAT_SPEECH_PITCH", value: "-1", wantErr: "must be between 0.1 and 2"},
		{name: "pitch zero", key: "VOICECHAT_SPEECH_PITCH", value: "0", wantErr: "must be between 0.1 and 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load(t.TempDir())
			if err == nil {
				t.Fatal("Load() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		llm     LLMConfig
		wantErr bool
	}{
		{name: "gemini with key", llm: LLMConfig{Provider: ProviderGemini, GeminiAPIKey: "k"}},
		{name: "gemini without key", llm: LLMConfig{Provider: ProviderGemini, OpenAIAPIKey: "k"}, wantErr: true},
		{name: "openai with key", llm: LLMConfig{Provider: ProviderOpenAI, OpenAIAPIKey: "k"}},
		{name: "openai without key", llm: LLMConfig{Provider: ProviderOpenAI, GeminiAPIKey: "k"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{LLM: tt.llm}
			err := cfg.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrMissingAPIKey) {
					t.Errorf("Validate() error = %v, want ErrMissingAPIKey", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
}
