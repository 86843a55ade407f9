// Package config loads runtime settings from .env files and the environment.
// Credentials only ever come from here.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/iksnae/voicechat/internal"
	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	ContextHistory = "history"
	ContextInline  = "inline"

	DefaultGeminiModel   = "gemini-1.5-flash"
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	DefaultOpenAIModel   = "gpt-4o-mini"
	DefaultSTTModel      = "nova-2"
	DefaultTTSModel      = "aura-asteria-en"
	DefaultLanguage      = "en-US"
	DefaultMicCommand    = "arecord"
	DefaultPlayerCommand = "play"
	DefaultHTTPTimeout   = 60 * time.Second
)

// ErrMissingAPIKey is returned by Validate when the selected provider has no key
var ErrMissingAPIKey = errors.New("missing API key")

// Config aggregates every setting of the client
type Config struct {
	Paths       internal.DataPaths
	LLM         LLMConfig
	Voice       VoiceConfig
	HTTPTimeout time.Duration
}

// LLMConfig selects and configures the response generator
type LLMConfig struct {
	Provider      string
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	ContextMode   string
	AssistantName string
}

// VoiceConfig configures speech recognition and synthesis
type VoiceConfig struct {
	DeepgramAPIKey string
	STTModel       string
	TTSModel       string
	Language       string
	MicCommand     string
	PlayerCommand  string
	Rate           float64
	Pitch          float64
	Volume         float64
}

// Enabled reports whether speech services are configured
func (v VoiceConfig) Enabled() bool {
	return v.DeepgramAPIKey != ""
}

// Load reads .env files and the environment. dataDir, when non-empty,
// overrides VOICECHAT_DATA_DIR.
//
// A .env in the working directory is read first so it can point at the data
// directory; the data directory's .env is read next. Variables already set
// in the environment are never overwritten.
func Load(dataDir string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	if dataDir == "" {
		dataDir = getEnvOrDefault("VOICECHAT_DATA_DIR", "")
	}
	paths, err := internal.DetectDataPaths(dataDir)
	if err != nil {
		return nil, err
	}
	if err := loadDotEnv(paths.EnvFilePath()); err != nil {
		return nil, err
	}

	llm, err := loadLLMConfig()
	if err != nil {
		return nil, err
	}

	voice, err := loadVoiceConfig()
	if err != nil {
		return nil, err
	}

	timeout := DefaultHTTPTimeout
	seconds, err := parseOptionalIntEnv("VOICECHAT_HTTP_TIMEOUT")
	if err != nil {
		return nil, err
	}
	if seconds != nil {
		if *seconds <= 0 {
			return nil, fmt.Errorf("invalid VOICECHAT_HTTP_TIMEOUT value %d: must be positive", *seconds)
		}
		timeout = time.Duration(*seconds) * time.Second
	}

	return &Config{Paths: paths, LLM: llm, Voice: voice, HTTPTimeout: timeout}, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	internal.LogDebug("Loaded environment from %s", path)
	return nil
}

func loadLLMConfig() (LLMConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("VOICECHAT_PROVIDER", ProviderGemini))
	if provider != ProviderGemini && provider != ProviderOpenAI {
		return LLMConfig{}, fmt.Errorf("invalid VOICECHAT_PROVIDER value %q: expected %s or %s", provider, ProviderGemini, ProviderOpenAI)
	}

	mode := strings.ToLower(getEnvOrDefault("VOICECHAT_CONTEXT_MODE", ContextHistory))
	if mode != ContextHistory && mode != ContextInline {
		return LLMConfig{}, fmt.Errorf("invalid VOICECHAT_CONTEXT_MODE value %q: expected %s or %s", mode, ContextHistory, ContextInline)
	}

	return LLMConfig{
		Provider:      provider,
		GeminiAPIKey:  strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:   getEnvOrDefault("GEMINI_MODEL", DefaultGeminiModel),
		GeminiBaseURL: getEnvOrDefault("GEMINI_BASE_URL", DefaultGeminiBaseURL),
		OpenAIAPIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:   getEnvOrDefault("OPENAI_MODEL", DefaultOpenAIModel),
		OpenAIBaseURL: getEnvOrDefault("OPENAI_BASE_URL", ""),
		ContextMode:   mode,
		AssistantName: getEnvOrDefault("VOICECHAT_ASSISTANT_NAME", ""),
	}, nil
}

// Zero is rejected for every speech option: the synthesizer treats a zero
// option as unset.
func loadVoiceConfig() (VoiceConfig, error) {
	rate, err := parseFloatEnv("VOICECHAT_SPEECH_RATE", 1, 0.1, 10)
	if err != nil {
		return VoiceConfig{}, err
	}
	pitch, err := parseFloatEnv("VOICECHAT_SPEECH_PITCH", 1, 0.1, 2)
	if err != nil {
		return VoiceConfig{}, err
	}
	volume, err := parseFloatEnv("VOICECHAT_SPEECH_VOLUME", 1, 0.1, 1)
	if err != nil {
		return VoiceConfig{}, err
	}

	return VoiceConfig{
		DeepgramAPIKey: strings.TrimSpace(os.Getenv("DEEPGRAM_API_KEY")),
		STTModel:       getEnvOrDefault("DEEPGRAM_STT_MODEL", DefaultSTTModel),
		TTSModel:       getEnvOrDefault("DEEPGRAM_TTS_MODEL", DefaultTTSModel),
		Language:       getEnvOrDefault("VOICECHAT_LANGUAGE", DefaultLanguage),
		MicCommand:     getEnvOrDefault("VOICECHAT_MIC_COMMAND", DefaultMicCommand),
		PlayerCommand:  getEnvOrDefault("VOICECHAT_PLAYER_COMMAND", DefaultPlayerCommand),
		Rate:           rate,
		Pitch:          pitch,
		Volume:         volume,
	}, nil
}

// Validate checks that the selected provider can be called
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderOpenAI:
		if c.LLM.OpenAIAPIKey == "" {
			return fmt.Errorf("%w: set OPENAI_API_KEY", ErrMissingAPIKey)
		}
	default:
		if c.LLM.GeminiAPIKey == "" {
			return fmt.Errorf("%w: set GEMINI_API_KEY", ErrMissingAPIKey)
		}
	}
	return nil
}

// Model returns the model name of the selected provider
func (c *Config) Model() string {
	if c.LLM.Provider == ProviderOpenAI {
		return c.LLM.OpenAIModel
	}
	return c.LLM.GeminiModel
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

// parseFloatEnv reads a float in [lo, hi], falling back to defaultValue
// when unset
func parseFloatEnv(key string, defaultValue, lo, hi float64) (float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	if val < lo || val > hi {
		return 0, fmt.Errorf("invalid %s value %q: must be between %g and %g", key, value, lo, hi)
	}
	return val, nil
}
