package llm

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/voicechat/internal"
)

func history(n int) []internal.ChatMessage {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	messages := make([]internal.ChatMessage, 0, n)
	for i := 0; i < n; i++ {
		role := internal.RoleUser
		if i%2 == 1 {
			role = internal.RoleAssistant
		}
		messages = append(messages, internal.NewMessage(role, fmt.Sprintf("m%d", i), base, int64(i)))
	}
	return messages
}

func TestNewContextBuilder(t *testing.T) {
	tests := []struct {
		name     string
		persona  string
		wantName string
	}{
		{name: "default persona", persona: "", wantName: DefaultAssistantName},
		{name: "custom persona", persona: "Juniper", wantName: "Juniper"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewContextBuilder(tt.persona, false)
			if !strings.HasPrefix(b.SystemPrompt, "You are "+tt.wantName+",") {
				t.Errorf("SystemPrompt starts %q", b.SystemPrompt[:40])
			}
			if b.Window != HistoryWindow {
				t.Errorf("Window = %d, want %d", b.Window, HistoryWindow)
			}
		})
	}
}

func TestContextBuilder_Build(t *testing.T) {
	tests := []struct {
		name       string
		history    int
		wantTurns  int
		wantFirstH string
	}{
		{name: "empty history", history: 0, wantTurns: 2},
		{name: "short history", history: 4, wantTurns: 6, wantFirstH: "m0"},
		{name: "exactly the window", history: 15, wantTurns: 17, wantFirstH: "m0"},
		{name: "history beyond the window", history: 17, wantTurns: 17, wantFirstH: "m2"},
	}

	b := NewContextBuilder("", false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			turns := b.Build(history(tt.history), "now")

			if len(turns) != tt.wantTurns {
				t.Fatalf("Build() returned %d turns, want %d", len(turns), tt.wantTurns)
			}
			if turns[0].Role != TurnUser || !strings.HasPrefix(turns[0].Text, b.SystemPrompt) {
				t.Errorf("first turn should be the system prompt in the user role")
			}
			last := turns[len(turns)-1]
			if last.Role != TurnUser || last.Text != "now" {
				t.Errorf("last turn = %+v, want user/now", last)
			}
			if tt.wantFirstH != "" && turns[1].Text != tt.wantFirstH {
				t.Errorf("first history turn = %q, want %q", turns[1].Text, tt.wantFirstH)
			}
		})
	}
}

func TestContextBuilder_BuildRoleMapping(t *testing.T) {
	b := NewContextBuilder("", false)
	turns := b.Build(history(3), "next")

	want := []TurnRole{TurnUser, TurnUser, TurnModel, TurnUser, TurnUser}
	for i, turn := range turns {
		if turn.Role != want[i] {
			t.Errorf("turns[%d].Role = %q, want %q", i, turn.Role, want[i])
		}
	}
}

func TestContextBuilder_BuildIsPure(t *testing.T) {
	b := NewContextBuilder("", false)
	h := history(20)
	before := h[0].Content

	first := b.Build(h, "x")
	second := b.Build(h, "x")

	if len(first) != len(second) {
		t.Fatal("Build() is not deterministic")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("turn %d differs between calls", i)
		}
	}
	if h[0].Content != before || len(h) != 20 {
		t.Error("Build() modified its input")
	}
}

func TestContextBuilder_BuildInline(t *testing.T) {
	b := NewContextBuilder("", true)

	turns := b.Turns(history(6), "turn left")
	if len(turns) != 1 {
		t.Fatalf("Turns() in inline mode returned %d turns, want 1", len(turns))
	}
	if !strings.HasSuffix(turns[0].Text, "\n\nUser message: turn left") {
		t.Errorf("inline turn = %q", turns[0].Text)
	}
	if turns[0].Role != TurnUser {
		t.Errorf("inline role = %q", turns[0].Role)
	}
}
