package internal

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Role identifies who authored a chat message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const (
	// MaxTitleLength is the longest session title kept verbatim
	MaxTitleLength = 50
	// DefaultSessionTitle is used when a session has no user message
	DefaultSessionTitle = "New Chat"

	titleEllipsis = "..."
)

// ChatMessage is a single turn in a conversation. Messages are never
// modified once appended to a session.
type ChatMessage struct {
	ID             string    `json:"id" yaml:"id"`
	Role           Role      `json:"role" yaml:"role"`
	Content        string    `json:"content" yaml:"content"`
	Timestamp      time.Time `json:"timestamp" yaml:"timestamp"`
	IsVoiceMessage bool      `json:"isVoiceMessage,omitempty" yaml:"is_voice_message,omitempty"`
	Summary        string    `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// ChatSession is one persisted conversation
type ChatSession struct {
	ID        string        `json:"id" yaml:"id"`
	Title     string        `json:"title" yaml:"title"`
	Messages  []ChatMessage `json:"messages" yaml:"messages"`
	CreatedAt time.Time     `json:"createdAt" yaml:"created_at"`
	UpdatedAt time.Time     `json:"updatedAt" yaml:"updated_at"`
}

// NewMessage creates a message stamped with t. The id is the creation time in
// milliseconds, offset by seq so that messages created in the same
// millisecond keep their order.
func NewMessage(role Role, content string, t time.Time, seq int64) ChatMessage {
	return ChatMessage{
		ID:        strconv.FormatInt(t.UnixMilli()+seq, 10),
		Role:      role,
		Content:   content,
		Timestamp: t,
	}
}

// GenerateSessionTitle derives a title from the first user message
func GenerateSessionTitle(messages []ChatMessage) string {
	for _, msg := range messages {
		if msg.Role != RoleUser {
			continue
		}
		return truncateTitle(strings.TrimSpace(msg.Content))
	}
	return DefaultSessionTitle
}

func truncateTitle(content string) string {
	if utf8.RuneCountInString(content) <= MaxTitleLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:MaxTitleLength-len(titleEllipsis)]) + titleEllipsis
}

// LastMessage returns the final message of the session, if any
func (s *ChatSession) LastMessage() (ChatMessage, bool) {
	if len(s.Messages) == 0 {
		return ChatMessage{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}
