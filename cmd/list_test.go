package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/voicechat/internal"
	"github.com/iksnae/voicechat/testutil"
)

func TestDisplaySessions(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		sessions []internal.ChatSession
		current  string
		contains []string
	}{
		{
			name:     "empty",
			sessions: []internal.ChatSession{},
			contains: []string{"No sessions found"},
		},
		{
			name:     "sessions with current marker",
			sessions: sampleSessions(),
			current:  "session_1",
			contains: []string{"Found 2 session(s)", "session_2", "* session_1", "Hello, how are you?", "voicechat show <id>"},
		},
		{
			name:     "untitled session",
			sessions: []internal.ChatSession{{ID: "session_x", UpdatedAt: now}},
			contains: []string{internal.DefaultSessionTitle},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			displaySessions(&buf, tt.sessions, tt.current, now)

			out := buf.String()
			for _, want := range tt.contains {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.Local)

	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"zero", time.Time{}, "—"},
		{"same day", now.Add(-2 * time.Hour), "Today 10:00"},
		{"this week", now.Add(-3 * 24 * time.Hour), "Wed 12:00"},
		{"this year", now.Add(-30 * 24 * time.Hour), "May 16 12:00"},
		{"older", now.Add(-400 * 24 * time.Hour), "2023-05-12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := relativeTime(tt.t, now); got != tt.want {
				t.Errorf("relativeTime() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestListCommand(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	testutil.CreateSQLiteFixture(t, filepath.Join(dir, "state.db"))

	out, err := runCommand(t, "", "list", "--data-dir", dir)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	for _, want := range []string{"Found 2 session(s)", "* session_2", "session_1", "What is the weather like?"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestListCommand_EmptyDataDir(t *testing.T) {
	isolateEnv(t)
	testutil.SetDataDir(t)

	out, err := runCommand(t, "", "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "No sessions found") {
		t.Errorf("output = %q, want no sessions", out)
	}
}

func TestListCommand_CorruptRegistry(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()

	db, err := internal.OpenStateDB(filepath.Join(dir, "state.db"))
	if err != nil {
		t.Fatalf("OpenStateDB() error = %v", err)
	}
	testutil.InsertValue(t, db, internal.SessionsKey, "{oops")
	_ = db.Close()

	out, err := runCommand(t, "", "list", "--data-dir", dir)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "No sessions found") {
		t.Errorf("a corrupt registry should list as empty, got:\n%s", out)
	}
}
