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

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  string
	}{
		{
			name:  "short line",
			text:  "hello world",
			width: 80,
			want:  "hello world",
		},
		{
			name:  "wraps on words",
			text:  "the quick brown fox jumps",
			width: 10,
			want:  "the quick\nbrown fox\njumps",
		},
		{
			name:  "keeps existing newlines",
			text:  "line one\nline two",
			width: 80,
			want:  "line one\nline two",
		},
		{
			name:  "overlong word",
			text:  "a supercalifragilistic word",
			width: 8,
			want:  "a\nsupercalifragilistic\nword",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wrapText(tt.text, tt.width); got != tt.want {
				t.Errorf("wrapText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMessagesSince(t *testing.T) {
	messages := internal.CreateTestConversation(4)
	cutoff := messages[2].Timestamp

	got := messagesSince(messages, cutoff)
	if len(got) != 2 {
		t.Fatalf("messagesSince() returned %d messages, want 2", len(got))
	}
	if got[0].Content != "message 2" {
		t.Errorf("first message = %q, want %q", got[0].Content, "message 2")
	}

	if got := messagesSince(messages, cutoff.Add(time.Hour)); len(got) != 0 {
		t.Errorf("messagesSince() after the last message returned %d messages", len(got))
	}
}

func TestShowSession(t *testing.T) {
	messages := internal.CreateTestConversation(4)
	messages[0].IsVoiceMessage = true
	messages[1].Summary = "Short version."
	session := internal.CreateTestSessionWithMessages("session_1", messages)

	tests := []struct {
		name     string
		limit    int
		contains []string
		excludes []string
	}{
		{
			name:     "all messages",
			contains: []string{"session_1", "Messages: 4", "[1/4]", "[4/4]", "(voice)", "Summary: Short version."},
			excludes: []string{"more message"},
		},
		{
			name:     "limited",
			limit:    2,
			contains: []string{"[2/4]", "(2 more message(s))"},
			excludes: []string{"[3/4]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			showSession(&buf, session, session.Messages, tt.limit)

			out := buf.String()
			for _, want := range tt.contains {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(out, unwanted) {
					t.Errorf("output should not contain %q:\n%s", unwanted, out)
				}
			}
		})
	}
}

func TestShowCommand(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	testutil.CreateSQLiteFixture(t, filepath.Join(dir, "state.db"))

	tests := []struct {
		name     string
		args     []string
		wantErr  bool
		contains string
	}{
		{
			name:     "by id",
			args:     []string{"show", "session_1"},
			contains: "Hi there!",
		},
		{
			name:     "current",
			args:     []string{"show", "current"},
			contains: "I can't check live weather.",
		},
		{
			name:     "since",
			args:     []string{"show", "session_2", "--since", "2024-01-02T10:00:01Z"},
			contains: "[1/1]",
		},
		{
			name:    "unknown session",
			args:    []string{"show", "session_9"},
			wantErr: true,
		},
		{
			name:    "bad since",
			args:    []string{"show", "session_1", "--since", "yesterday"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCommand(t, "", append(tt.args, "--data-dir", dir)...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("show error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.contains != "" && !strings.Contains(out, tt.contains) {
				t.Errorf("output missing %q:\n%s", tt.contains, out)
			}
		})
	}
}
