// Package chat drives a conversation: it turns user input into stored turns,
// asks the generator for a reply, attaches a spoken summary and optionally
// plays it back.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iksnae/voicechat/internal"
	"github.com/iksnae/voicechat/internal/llm"
	"github.com/iksnae/voicechat/internal/summarize"
	"github.com/iksnae/voicechat/internal/voice"
)

const (
	connectivityFallback  = "I'm experiencing connectivity issues with my AI service. Please check your internet connection and try again."
	emptyResponseFallback = "I received an empty response from my AI service. Please try rephrasing your question."
)

var (
	// ErrBusy is returned while a previous turn is still being answered
	ErrBusy = errors.New("a message is already being processed")
	// ErrEmptyMessage is returned for blank input; nothing is recorded
	ErrEmptyMessage = errors.New("message is empty")
	// ErrSessionNotFound is returned when switching to an unknown session
	ErrSessionNotFound = errors.New("session not found")
	// ErrNoTranscript is returned when listening ends without a final transcript
	ErrNoTranscript = errors.New("no speech recognized")
)

// SpokenSummarizer condenses a reply into something short enough to read aloud
type SpokenSummarizer interface {
	SpokenSummary(ctx context.Context, text string, opts ...summarize.Option) (string, error)
}

// VoiceIO is the part of the voice adapter the orchestrator drives
type VoiceIO interface {
	RecognitionSupported() bool
	SynthesisSupported() bool
	Subscribe() (<-chan voice.Event, func())
	StartListening(ctx context.Context) error
	StopListening()
	Speak(ctx context.Context, text string, opts voice.SpeakOptions) error
	StopSpeaking()
}

// Reply is the outcome of one turn
type Reply struct {
	User      internal.ChatMessage
	Assistant internal.ChatMessage
	// Err is the generation failure the assistant message stands in for
	Err error
}

// Failed reports whether the assistant message is a fallback
func (r Reply) Failed() bool {
	return r.Err != nil
}

// Orchestrator owns the current session and serialises turns
type Orchestrator struct {
	store      *internal.Store
	gen        llm.Generator
	summarizer SpokenSummarizer
	voice      VoiceIO
	speakOpts  voice.SpeakOptions
	now        func() time.Time

	busy atomic.Bool

	mu        sync.Mutex
	sessionID string
	messages  []internal.ChatMessage
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithSummarizer attaches spoken summaries to assistant messages
func WithSummarizer(s SpokenSummarizer) Option {
	return func(o *Orchestrator) {
		o.summarizer = s
	}
}

// WithVoice enables listening and playback with the given speech options
func WithVoice(v VoiceIO, opts voice.SpeakOptions) Option {
	return func(o *Orchestrator) {
		o.voice = v
		o.speakOpts = opts
	}
}

// WithClock overrides the time source for message ids and timestamps
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// New creates an Orchestrator. Call Resume before the first turn to pick up
// the stored current session.
func New(store *internal.Store, gen llm.Generator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store: store,
		gen:   gen,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Resume restores the current session, allocating one when none is stored,
// and returns its messages
func (o *Orchestrator) Resume() []internal.ChatMessage {
	id, ok := o.store.GetCurrentSessionID()
	if !ok {
		id = o.store.CreateNewSession()
	}
	messages := o.store.CurrentMessages()

	o.mu.Lock()
	defer o.mu.Unlock()
	o.sessionID = id
	o.messages = messages
	return cloneMessages(o.messages)
}

// SessionID returns the id of the active session
func (o *Orchestrator) SessionID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sessionID
}

// Messages returns a copy of the active conversation
func (o *Orchestrator) Messages() []internal.ChatMessage {
	o.mu.Lock()
	defer o.mu.Unlock()
	return cloneMessages(o.messages)
}

// Busy reports whether a turn is in flight
func (o *Orchestrator) Busy() bool {
	return o.busy.Load()
}

// Send records text as a user message, generates the reply and stores both.
// A generation failure is not returned as an error: the reply carries a
// fallback assistant message and the cause in Reply.Err.
func (o *Orchestrator) Send(ctx context.Context, text string, isVoice bool) (Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{}, ErrEmptyMessage
	}
	if !o.busy.CompareAndSwap(false, true) {
		return Reply{}, ErrBusy
	}
	defer o.busy.Store(false)

	o.mu.Lock()
	if o.sessionID == "" || len(o.messages) == 0 {
		o.sessionID = o.store.CreateNewSession()
	}
	sessionID := o.sessionID
	history := cloneMessages(o.messages)

	now := o.now()
	user := internal.NewMessage(internal.RoleUser, text, now, o.seqAfterLast(now))
	user.IsVoiceMessage = isVoice
	o.messages = append(o.messages, user)
	pending := cloneMessages(o.messages)
	o.mu.Unlock()

	o.store.SaveSession(sessionID, pending)

	reply := Reply{User: user}
	content, summary := "", ""
	response, err := o.gen.GenerateResponse(ctx, text, history)
	if err != nil {
		internal.LogError("Error getting response: %v", err)
		reply.Err = err
		content = fallbackMessage(err)
	} else {
		content = response
		summary = o.spokenSummary(ctx, response)
	}

	o.mu.Lock()
	now = o.now()
	reply.Assistant = internal.NewMessage(internal.RoleAssistant, content, now, o.seqAfterLast(now))
	reply.Assistant.Summary = summary
	o.messages = append(o.messages, reply.Assistant)
	final := cloneMessages(o.messages)
	o.mu.Unlock()

	o.store.SaveSession(sessionID, final)
	return reply, nil
}

// seqAfterLast returns the id offset that keeps a message stamped at t
// above the last message id. Caller holds o.mu.
func (o *Orchestrator) seqAfterLast(t time.Time) int64 {
	if len(o.messages) == 0 {
		return 0
	}
	last, err := strconv.ParseInt(o.messages[len(o.messages)-1].ID, 10, 64)
	if err != nil {
		return 0
	}
	if gap := last + 1 - t.UnixMilli(); gap > 0 {
		return gap
	}
	return 0
}

func (o *Orchestrator) spokenSummary(ctx context.Context, response string) string {
	if o.summarizer == nil {
		return ""
	}
	summary, err := o.summarizer.SpokenSummary(ctx, response)
	if err != nil {
		internal.LogWarn("Failed to generate summary: %v", err)
		return ""
	}
	return summary
}

// fallbackMessage is the assistant text recorded when generation fails
func fallbackMessage(err error) string {
	switch {
	case llm.IsAPIError(err):
		return connectivityFallback
	case errors.Is(err, llm.ErrNoResponse):
		return emptyResponseFallback
	default:
		return fmt.Sprintf("I encountered an error: %s. Please try again.", err.Error())
	}
}

// NewChat keeps the current conversation stored and starts a fresh session
func (o *Orchestrator) NewChat() (string, error) {
	if o.busy.Load() {
		return "", ErrBusy
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sessionID != "" && len(o.messages) > 0 {
		o.store.SaveSession(o.sessionID, o.messages)
	}
	o.sessionID = o.store.CreateNewSession()
	o.messages = nil
	return o.sessionID, nil
}

// ClearConversation deletes the current session and starts a fresh one
func (o *Orchestrator) ClearConversation() (string, error) {
	if o.busy.Load() {
		return "", ErrBusy
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sessionID != "" {
		o.store.DeleteSession(o.sessionID)
	}
	o.sessionID = o.store.CreateNewSession()
	o.messages = nil
	return o.sessionID, nil
}

// SwitchSession makes a stored session current
func (o *Orchestrator) SwitchSession(id string) error {
	if o.busy.Load() {
		return ErrBusy
	}
	session, ok := o.store.GetSession(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	o.store.SetCurrentSessionID(id)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.sessionID = id
	o.messages = session.Messages
	return nil
}

// ListenOnce runs one recognition session and sends its final transcript as
// a voice message. onInterim, when set, sees every result before that.
func (o *Orchestrator) ListenOnce(ctx context.Context, onInterim func(voice.Result)) (Reply, error) {
	if o.voice == nil || !o.voice.RecognitionSupported() {
		return Reply{}, voice.ErrRecognitionUnsupported
	}
	if o.busy.Load() {
		return Reply{}, ErrBusy
	}

	transcript, err := o.listen(ctx, onInterim)
	if err != nil {
		return Reply{}, err
	}
	return o.Send(ctx, transcript, true)
}

func (o *Orchestrator) listen(ctx context.Context, onInterim func(voice.Result)) (string, error) {
	events, unsubscribe := o.voice.Subscribe()
	defer unsubscribe()

	if err := o.voice.StartListening(ctx); err != nil {
		return "", err
	}

	var (
		started    bool
		transcript string
		failure    string
	)
	for {
		select {
		case <-ctx.Done():
			o.voice.StopListening()
			return "", ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return "", ErrNoTranscript
			}
			// Events of a session stopped by StartListening precede our start.
			if ev.Kind == voice.EventStart {
				started = true
				continue
			}
			if !started {
				continue
			}

			switch ev.Kind {
			case voice.EventResult:
				if onInterim != nil {
					onInterim(ev.Result)
				}
				if ev.Result.IsFinal && transcript == "" {
					transcript = strings.TrimSpace(ev.Result.Transcript)
				}
			case voice.EventError:
				failure = ev.Message
			case voice.EventEnd:
				if transcript != "" {
					return transcript, nil
				}
				if err := ctx.Err(); err != nil {
					return "", err
				}
				if failure != "" {
					return "", fmt.Errorf("%w: %s", ErrNoTranscript, failure)
				}
				return "", ErrNoTranscript
			}
		}
	}
}

// SpeakReply reads a message aloud, preferring its spoken summary
func (o *Orchestrator) SpeakReply(ctx context.Context, msg internal.ChatMessage) error {
	if o.voice == nil {
		return &voice.SynthesisError{Err: voice.ErrSynthesisUnsupported}
	}
	text := msg.Summary
	if strings.TrimSpace(text) == "" {
		text = msg.Content
	}
	return o.voice.Speak(ctx, text, o.speakOpts)
}

// StopSpeaking interrupts playback started by SpeakReply
func (o *Orchestrator) StopSpeaking() {
	if o.voice != nil {
		o.voice.StopSpeaking()
	}
}

func cloneMessages(messages []internal.ChatMessage) []internal.ChatMessage {
	return append([]internal.ChatMessage(nil), messages...)
}
