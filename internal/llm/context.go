package llm

import (
	"fmt"

	"github.com/iksnae/voicechat/internal"
)

// TurnRole is the provider-side author of a turn
type TurnRole string

const (
	TurnUser  TurnRole = "user"
	TurnModel TurnRole = "model"
)

// HistoryWindow is the number of most recent messages sent with each request
const HistoryWindow = 15

// DefaultAssistantName is the persona name used when none is configured
const DefaultAssistantName = "Voice Assistant"

// Turn is one entry of the provider request context
type Turn struct {
	Role TurnRole
	Text string
}

const personaTemplate = `You are %[1]s, an intelligent and helpful voice-enabled AI assistant with advanced summarization capabilities and persistent memory. You can assist with a wide range of topics including technology, education, lifestyle, business, creativity, and everyday problem solving. Your role is to provide clear, accurate, and concise information, explanations, and advice tailored to the user's level of expertise and context.

As %[1]s, you have the ability to:
- Understand voice input from users
- Provide spoken responses through text-to-speech
- Generate concise summaries of your responses
- Maintain context and memory across conversations
- Remember user preferences, previous discussions, and ongoing topics

Always ask clarifying questions if the user's request is vague or incomplete. Adapt your tone to be friendly, professional, and approachable.

When assisting, provide step-by-step instructions or explanations when appropriate. For complex topics, break down information into easy-to-understand chunks and offer examples. Prioritize helpfulness, correctness, and empathy in all responses.

Remember that your responses may be spoken aloud, so structure them in a way that flows naturally when read by text-to-speech systems.`

const historyDirective = `

IMPORTANT: You have access to the recent conversation history below. Use it to:
1. Reference previous topics and build upon them
2. Avoid repeating information already discussed
3. Maintain conversation continuity and flow
4. Remember user preferences and adapt accordingly`

// ContextBuilder turns stored history into provider turns
type ContextBuilder struct {
	// SystemPrompt is sent as the first turn of every request
	SystemPrompt string
	// Window caps how many history messages are included
	Window int
	// Inline sends only the current message embedded in the system prompt
	Inline bool
}

// NewContextBuilder creates a builder for the named persona
func NewContextBuilder(assistantName string, inline bool) *ContextBuilder {
	if assistantName == "" {
		assistantName = DefaultAssistantName
	}
	return &ContextBuilder{
		SystemPrompt: fmt.Sprintf(personaTemplate, assistantName),
		Window:       HistoryWindow,
		Inline:       inline,
	}
}

// Turns builds the request context in the configured mode
func (b *ContextBuilder) Turns(history []internal.ChatMessage, current string) []Turn {
	if b.Inline {
		return b.BuildInline(current)
	}
	return b.Build(history, current)
}

// Build returns the system turn, at most Window history turns oldest-first,
// and the current message as the final user turn. The provider has no system
// role in its contents, so the system prompt goes out as a user turn.
func (b *ContextBuilder) Build(history []internal.ChatMessage, current string) []Turn {
	recent := history
	if b.Window > 0 && len(recent) > b.Window {
		recent = recent[len(recent)-b.Window:]
	}

	turns := make([]Turn, 0, len(recent)+2)
	turns = append(turns, Turn{Role: TurnUser, Text: b.SystemPrompt + historyDirective})
	for _, msg := range recent {
		turns = append(turns, Turn{Role: turnRole(msg.Role), Text: msg.Content})
	}
	return append(turns, Turn{Role: TurnUser, Text: current})
}

// BuildInline returns a single user turn carrying the system prompt and the
// current message, without history
func (b *ContextBuilder) BuildInline(current string) []Turn {
	return []Turn{{
		Role: TurnUser,
		Text: b.SystemPrompt + "\n\nUser message: " + current,
	}}
}

func turnRole(role internal.Role) TurnRole {
	if role == internal.RoleUser {
		return TurnUser
	}
	return TurnModel
}
