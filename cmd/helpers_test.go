package cmd

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/iksnae/voicechat/internal"
	"github.com/iksnae/voicechat/internal/summarize"
	"github.com/spf13/cobra"
)

// resetFlags restores every command flag to its default. Cobra keeps parsed
// values in package variables between Execute calls.
func resetFlags() {
	verbose = false
	logLevel = "info"
	dataDir = ""
	chatVoice, chatSpeak, chatNew = false, false, false
	askSpeak, askNew = false, false
	clearYes, importYes = false, false
	format, outputDir, sessionID, exportAll = "jsonl", "./exports", "", false
	limit, since = 0, ""
	summaryStyle, summaryMax = string(summarize.StyleConcise), summarize.DefaultMaxLength
	summarySpoken, summaryNoPoints, summarySessionID = false, false, ""
	speakVoice, speakListVoices = "", false
	inspectFormat, inspectPreview = "text", 60

	commands := append([]*cobra.Command{rootCmd}, rootCmd.Commands()...)
	for _, c := range commands {
		for _, name := range []string{"help", "version"} {
			if f := c.Flags().Lookup(name); f != nil {
				_ = f.Value.Set("false")
				f.Changed = false
			}
		}
	}
}

// runCommand executes the root command with args and stdin, returning stdout
func runCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)

	err := rootCmd.Execute()
	return stdout.String(), err
}

// isolateEnv clears provider settings so the host environment cannot leak in
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"VOICECHAT_DATA_DIR", "VOICECHAT_PROVIDER", "VOICECHAT_CONTEXT_MODE",
		"GEMINI_API_KEY", "GEMINI_BASE_URL", "GEMINI_MODEL",
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "DEEPGRAM_API_KEY",
		"VOICECHAT_HTTP_TIMEOUT", "VOICECHAT_MIC_COMMAND", "VOICECHAT_PLAYER_COMMAND",
	} {
		t.Setenv(key, "")
	}
}

// fakeGemini serves a fixed reply on every generateContent call
func fakeGemini(t *testing.T, reply string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":`+strconv.Quote(reply)+`}]}}]}`)
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func sampleSessions() []internal.ChatSession {
	first := internal.CreateTestSession("session_1")
	second := internal.CreateTestSessionWithMessages("session_2", internal.CreateTestConversation(4))
	return []internal.ChatSession{*second, *first}
}
