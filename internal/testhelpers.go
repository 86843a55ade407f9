package internal

import (
	"fmt"
	"time"
)

// CreateTestSession creates a test session with sample data
func CreateTestSession(id string) *ChatSession {
	now := time.Now()
	return &ChatSession{
		ID:    id,
		Title: "Hello, how are you?",
		Messages: []ChatMessage{
			{
				ID:        fmt.Sprintf("%d", now.UnixMilli()),
				Role:      RoleUser,
				Content:   "Hello, how are you?",
				Timestamp: now,
			},
			{
				ID:        fmt.Sprintf("%d", now.UnixMilli()+1),
				Role:      RoleAssistant,
				Content:   "I'm doing well, thank you!",
				Timestamp: now,
				Summary:   "Doing well.",
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CreateTestSessionWithMessages creates a test session with custom messages
func CreateTestSessionWithMessages(id string, messages []ChatMessage) *ChatSession {
	now := time.Now()
	return &ChatSession{
		ID:        id,
		Title:     GenerateSessionTitle(messages),
		Messages:  messages,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CreateTestConversation creates n alternating user/assistant messages
func CreateTestConversation(n int) []ChatMessage {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	messages := make([]ChatMessage, 0, n)
	for i := 0; i < n; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		messages = append(messages, NewMessage(role, fmt.Sprintf("message %d", i), base.Add(time.Duration(i)*time.Second), 0))
	}
	return messages
}
