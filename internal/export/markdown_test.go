package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/voicechat/internal"
)

func TestMarkdownExporter_Export(t *testing.T) {
	ts := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		session *internal.ChatSession
		want    []string
		notWant []string
	}{
		{
			name:    "basic session",
			session: internal.CreateTestSession("test1"),
			want: []string{
				"# Hello, how are you?",
				"**Session:** test1",
				"**Messages:** 2",
				"## Messages",
				"**User:**",
				"Hello, how are you?",
				"**Assistant:**",
				"> **Summary:** Doing well.",
			},
		},
		{
			name: "session with timestamp",
			session: internal.CreateTestSessionWithMessages("test2", []internal.ChatMessage{
				{ID: "1", Role: internal.RoleUser, Content: "Hello", Timestamp: ts},
			}),
			want: []string{
				"**User:** (" + ts.Local().Format("2006-01-02 15:04:05") + ")",
			},
		},
		{
			name: "voice message",
			session: internal.CreateTestSessionWithMessages("test3", []internal.ChatMessage{
				{ID: "1", Role: internal.RoleUser, Content: "Turn left", IsVoiceMessage: true},
			}),
			want:    []string{"**User:** _(voice)_"},
			notWant: []string{"**Assistant:**"},
		},
		{
			name:    "untitled session",
			session: &internal.ChatSession{ID: "test4"},
			want: []string{
				"# New Chat",
				"**Session:** test4",
			},
		},
		{
			name:    "empty session",
			session: internal.CreateTestSessionWithMessages("test5", []internal.ChatMessage{}),
			want: []string{
				"# New Chat",
				"**Messages:** 0",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &MarkdownExporter{}

			if err := exporter.Export(tt.session, &buf); err != nil {
				t.Fatalf("MarkdownExporter.Export() error = %v", err)
			}

			output := buf.String()
			for _, wantStr := range tt.want {
				if !strings.Contains(output, wantStr) {
					t.Errorf("Output should contain %q, got:\n%s", wantStr, output)
				}
			}
			for _, notWantStr := range tt.notWant {
				if strings.Contains(output, notWantStr) {
					t.Errorf("Output should not contain %q, got:\n%s", notWantStr, output)
				}
			}
		})
	}
}

func TestMarkdownExporter_Extension(t *testing.T) {
	exporter := &MarkdownExporter{}
	if got := exporter.Extension(); got != "md" {
		t.Errorf("MarkdownExporter.Extension() = %v, want md", got)
	}
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     []string
		notWant  []string
	}{
		{
			name:  "basic text",
			input: "Hello world",
			want:  []string{"Hello world"},
		},
		{
			name:    "markdown bold",
			input:    "This is **bold** text",
			want:     []string{"\\*\\*bold\\*\\*"},
			notWant:  []string{"**bold**"},
		},
		{
			name:    "markdown underline",
			input:    "This is __underlined__ text",
			want:     []string{"\\_\\_underlined\\_\\_"},
			notWant:  []string{"__underlined__"},
		},
		{
			name:  "code block preserved",
			input: "```go\npackage main\n```",
			want:  []string{"```go", "package main", "```"},
		},
		{
			name:    "mixed content",
			input:    "Regular text **bold** and ```code```",
			want:     []string{"\\*\\*bold\\*\\*", "```code```"},
			notWant:  []string{"**bold**"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := escapeMarkdown(tt.input)
			for _, wantStr := range tt.want {
				if !strings.Contains(got, wantStr) {
					t.Errorf("escapeMarkdown() should contain %q, got: %s", wantStr, got)
				}
			}
			for _, notWantStr := range tt.notWant {
				if strings.Contains(got, notWantStr) {
					t.Errorf("escapeMarkdown() should not contain %q, got: %s", notWantStr, got)
				}
			}
		})
	}
}


