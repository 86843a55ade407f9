package cmd

import (
	"database/sql"
	"fmt"
	"net/http"
	"os"

	"github.com/iksnae/voicechat/internal"
	"github.com/iksnae/voicechat/internal/config"
	"github.com/iksnae/voicechat/internal/llm"
	"github.com/iksnae/voicechat/internal/summarize"
	"github.com/iksnae/voicechat/internal/voice"
)

// app bundles what every command needs: settings and the session store
type app struct {
	cfg   *config.Config
	db    *sql.DB
	store *internal.Store
}

// openApp loads configuration and opens the state database, creating the
// data directory on first use
func openApp() (*app, error) {
	cfg, err := config.Load(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := os.MkdirAll(cfg.Paths.BaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := internal.OpenStateDB(cfg.Paths.StateDBPath())
	if err != nil {
		return nil, err
	}
	internal.LogDebug("Using state database %s", cfg.Paths.StateDBPath())

	return &app{
		cfg:   cfg,
		db:    db,
		store: internal.NewStore(internal.NewStorage(db)),
	}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		internal.LogWarn("Failed to close state database: %v", err)
	}
}

// newGenerator builds the response generator selected by the configuration
func newGenerator(cfg *config.Config) (llm.Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	builder := llm.NewContextBuilder(cfg.LLM.AssistantName, cfg.LLM.ContextMode == config.ContextInline)
	client := &http.Client{Timeout: cfg.HTTPTimeout}

	switch cfg.LLM.Provider {
	case config.ProviderOpenAI:
		return llm.NewOpenAIClient(cfg.LLM.OpenAIAPIKey, cfg.LLM.OpenAIModel, cfg.LLM.OpenAIBaseURL, builder, client), nil
	default:
		return llm.NewGeminiClient(cfg.LLM.GeminiAPIKey, builder,
			llm.WithGeminiModel(cfg.LLM.GeminiModel),
			llm.WithGeminiBaseURL(cfg.LLM.GeminiBaseURL),
			llm.WithHTTPClient(client),
		), nil
	}
}

// newSummarizer wraps gen in a Summarizer
func newSummarizer(gen llm.Generator) *summarize.Summarizer {
	return summarize.New(gen)
}

// newVoiceAdapter wires the speech providers. Capabilities whose credentials
// or local audio programs are missing are left disabled.
func newVoiceAdapter(cfg *config.Config) *voice.Adapter {
	if !cfg.Voice.Enabled() {
		internal.LogDebug("Voice disabled: DEEPGRAM_API_KEY is not set")
		return voice.NewAdapter(nil, nil, nil)
	}

	var (
		mic        voice.Microphone
		recognizer voice.Recognizer
		synth      voice.Synthesizer
	)

	recorder := &voice.CommandMicrophone{Command: cfg.Voice.MicCommand}
	if recorder.Available() {
		mic = recorder
		recognizer = voice.NewDeepgramRecognizer(cfg.Voice.DeepgramAPIKey, cfg.Voice.STTModel, cfg.Voice.Language)
	} else {
		internal.LogDebug("Speech recognition disabled: %s not found", cfg.Voice.MicCommand)
	}

	player := &voice.CommandPlayer{Command: cfg.Voice.PlayerCommand}
	if player.Available() {
		tts := voice.NewDeepgramSynthesizer(cfg.Voice.DeepgramAPIKey, cfg.Voice.TTSModel, player)
		tts.Client = &http.Client{Timeout: cfg.HTTPTimeout}
		synth = tts
	} else {
		internal.LogDebug("Speech synthesis disabled: %s not found", cfg.Voice.PlayerCommand)
	}

	return voice.NewAdapter(mic, recognizer, synth)
}

func speakOptions(cfg *config.Config) voice.SpeakOptions {
	return voice.SpeakOptions{
		Rate:   cfg.Voice.Rate,
		Pitch:  cfg.Voice.Pitch,
		Volume: cfg.Voice.Volume,
	}
}
