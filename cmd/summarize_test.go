package cmd

import (
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/iksnae/voicechat/internal"
	"github.com/iksnae/voicechat/testutil"
)

func TestSummaryInput(t *testing.T) {
	store := internal.NewStore(internal.NewStorage(testutil.CreateInMemoryDB(t)))
	store.SaveSession("with_reply", internal.CreateTestConversation(4))
	store.SaveSession("no_reply", internal.CreateTestConversation(1))

	tests := []struct {
		name      string
		stdin     string
		args      []string
		sessionID string
		want      string
		wantErr   bool
	}{
		{name: "arguments", args: []string{"some", "long", "text"}, want: "some long text"},
		{name: "stdin", stdin: "  piped text\n", args: []string{"-"}, want: "piped text"},
		{name: "last assistant reply", sessionID: "with_reply", want: "message 3"},
		{name: "session without reply", sessionID: "no_reply", wantErr: true},
		{name: "unknown session", sessionID: "missing", wantErr: true},
		{name: "nothing", args: []string{"  "}, wantErr: true},
		{name: "empty stdin", args: []string{"-"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summarySessionID = tt.sessionID
			t.Cleanup(func() { summarySessionID = "" })

			got, err := summaryInput(strings.NewReader(tt.stdin), tt.args, store)
			if (err != nil) != tt.wantErr {
				t.Fatalf("summaryInput() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("summaryInput() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSummarizeCommand(t *testing.T) {
	isolateEnv(t)
	server, calls := fakeGemini(t, "A short summary.")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("GEMINI_BASE_URL", server.URL)

	dir := t.TempDir()
	testutil.CreateSQLiteFixture(t, filepath.Join(dir, "state.db"))

	out, err := runCommand(t, "", "summarize", "--data-dir", dir, "--session-id", "session_2")
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if strings.TrimSpace(out) != "A short summary." {
		t.Errorf("output = %q", out)
	}
	if atomic.LoadInt32(calls) != 1 {
		t.Errorf("provider called %d times, want 1", atomic.LoadInt32(calls))
	}

	if _, err := runCommand(t, "", "summarize", "--data-dir", dir, "--style", "haiku", "text"); err == nil {
		t.Error("expected error for unknown style")
	}
}
