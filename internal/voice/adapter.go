// Package voice turns microphone audio into transcripts and assistant text
// into speech. Providers are pluggable; the Adapter owns the listening and
// speaking state and fans recognition events out to subscribers.
package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/iksnae/voicechat/internal"
)

// Result is one recognition hypothesis
type Result struct {
	Transcript string
	Confidence float64
	IsFinal    bool
}

// EventKind identifies a recognition event
type EventKind int

const (
	EventStart EventKind = iota
	EventResult
	EventError
	EventEnd
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventResult:
		return "result"
	case EventError:
		return "error"
	case EventEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers during a listening session
type Event struct {
	Kind    EventKind
	Result  Result // set for EventResult
	Message string // set for EventError
}

// Voice describes a synthesizer voice
type Voice struct {
	Name    string
	Lang    string
	Default bool
}

// SpeakOptions tune a single utterance. Zero values mean 1 (normal).
type SpeakOptions struct {
	Rate   float64
	Pitch  float64
	Volume float64
	Voice  *Voice
}

// Microphone opens a raw audio stream (16-bit little-endian mono PCM).
// Failing to open is treated as a permission failure.
type Microphone interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Recognizer streams audio and sends results until the utterance is final,
// the audio ends or ctx is cancelled. It must not send after returning.
type Recognizer interface {
	Recognize(ctx context.Context, audio io.Reader, results chan<- Result) error
}

// Synthesizer speaks text and blocks until playback finishes
type Synthesizer interface {
	Speak(ctx context.Context, text string, opts SpeakOptions) error
	Voices(ctx context.Context) ([]Voice, error)
}

const subscriberBuffer = 128

// Adapter coordinates one recognition session and one utterance at a time
type Adapter struct {
	mic        Microphone
	recognizer Recognizer
	synth      Synthesizer

	recognitionSupported bool
	synthesisSupported   bool

	mu           sync.Mutex
	listening    bool
	cancelListen context.CancelFunc
	listenDone   chan struct{}
	speaking     bool
	cancelSpeak  context.CancelCauseFunc
	speakDone    chan struct{}
	speakSeq     uint64

	subsMu  sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

// NewAdapter creates an Adapter. Any provider may be nil, which disables the
// corresponding capability.
func NewAdapter(mic Microphone, recognizer Recognizer, synth Synthesizer) *Adapter {
	return &Adapter{
		mic:                  mic,
		recognizer:           recognizer,
		synth:                synth,
		recognitionSupported: mic != nil && recognizer != nil,
		synthesisSupported:   synth != nil,
		subs:                 make(map[int]chan Event),
	}
}

// RecognitionSupported reports whether listening is possible
func (a *Adapter) RecognitionSupported() bool {
	return a.recognitionSupported
}

// SynthesisSupported reports whether speaking is possible
func (a *Adapter) SynthesisSupported() bool {
	return a.synthesisSupported
}

// Subscribe registers an observer. The returned func unsubscribes and closes
// the channel. Events are dropped for subscribers that fall behind.
func (a *Adapter) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	a.subsMu.Lock()
	id := a.nextSub
	a.nextSub++
	a.subs[id] = ch
	a.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			a.subsMu.Lock()
			delete(a.subs, id)
			a.subsMu.Unlock()
			close(ch)
		})
	}
}

func (a *Adapter) publish(ev Event) {
	a.subsMu.Lock()
	defer a.subsMu.Unlock()
	for _, ch := range a.subs {
		select {
		case ch <- ev:
		default:
			internal.LogWarn("Dropping %s event for slow subscriber", ev.Kind)
		}
	}
}

// IsListening reports whether a recognition session is active
func (a *Adapter) IsListening() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listening
}

// IsSpeaking reports whether an utterance is playing
func (a *Adapter) IsSpeaking() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.speaking
}

// StartListening opens the microphone and starts a recognition session. An
// active session is stopped first. Results arrive as events; the session
// ends by itself after the first final result.
func (a *Adapter) StartListening(ctx context.Context) error {
	if !a.recognitionSupported {
		a.publish(Event{Kind: EventError, Message: unsupportedMessage})
		return ErrRecognitionUnsupported
	}

	a.StopListening()

	listenCtx, cancel := context.WithCancel(ctx)
	stream, err := a.mic.Open(listenCtx)
	if err != nil {
		cancel()
		internal.LogError("Microphone permission denied: %v", err)
		a.publish(Event{Kind: EventError, Message: permissionMessage})
		return fmt.Errorf("%w: %v", ErrMicrophonePermission, err)
	}

	done := make(chan struct{})
	a.mu.Lock()
	a.listening = true
	a.cancelListen = cancel
	a.listenDone = done
	a.mu.Unlock()

	a.publish(Event{Kind: EventStart})
	go a.runRecognition(listenCtx, cancel, stream, done)
	return nil
}

func (a *Adapter) runRecognition(ctx context.Context, cancel context.CancelFunc, stream io.ReadCloser, done chan struct{}) {
	defer close(done)
	defer cancel()

	results := make(chan Result)
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.recognizer.Recognize(ctx, stream, results)
		close(results)
	}()

	final := false
	for r := range results {
		if final {
			continue
		}
		a.publish(Event{Kind: EventResult, Result: r})
		if r.IsFinal {
			final = true
			cancel()
		}
	}
	err := <-errCh

	if cerr := stream.Close(); cerr != nil {
		internal.LogDebug("Closing microphone stream: %v", cerr)
	}

	a.mu.Lock()
	if a.listenDone == done {
		a.listening = false
		a.cancelListen = nil
	}
	a.mu.Unlock()

	if err != nil && !final && ctx.Err() == nil {
		internal.LogError("Speech recognition error: %v", err)
		a.publish(Event{Kind: EventError, Message: recognitionMessage(err)})
	}
	a.publish(Event{Kind: EventEnd})
}

func recognitionMessage(err error) string {
	var recErr *RecognitionError
	if errors.As(err, &recErr) {
		return ErrorMessage(recErr.Code)
	}
	return err.Error()
}

// StopListening ends the active session, if any, and waits for it to wind
// down. It is safe to call at any time.
func (a *Adapter) StopListening() {
	a.mu.Lock()
	cancel := a.cancelListen
	done := a.listenDone
	a.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Speak plays text, cancelling any utterance already in flight. It blocks
// until playback completes.
func (a *Adapter) Speak(ctx context.Context, text string, opts SpeakOptions) error {
	if !a.synthesisSupported {
		return &SynthesisError{Err: ErrSynthesisUnsupported}
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	a.StopSpeaking()

	opts = withDefaults(opts)
	if opts.Voice == nil {
		opts.Voice = a.defaultVoice(ctx)
	}

	speakCtx, cancel := context.WithCancelCause(ctx)
	done := make(chan struct{})

	a.mu.Lock()
	a.speakSeq++
	seq := a.speakSeq
	a.speaking = true
	a.cancelSpeak = cancel
	a.speakDone = done
	a.mu.Unlock()

	err := a.synth.Speak(speakCtx, text, opts)

	a.mu.Lock()
	if a.speakSeq == seq {
		a.speaking = false
		a.cancelSpeak = nil
		a.speakDone = nil
	}
	a.mu.Unlock()
	close(done)

	if err == nil {
		cancel(nil)
		return nil
	}
	if errors.Is(context.Cause(speakCtx), ErrSpeechInterrupted) {
		err = ErrSpeechInterrupted
	}
	cancel(nil)

	var synthErr *SynthesisError
	if errors.As(err, &synthErr) {
		return synthErr
	}
	return &SynthesisError{Err: err}
}

// StopSpeaking cancels the utterance in flight and waits for playback to
// stop. It is safe to call at any time.
func (a *Adapter) StopSpeaking() {
	a.mu.Lock()
	cancel := a.cancelSpeak
	done := a.speakDone
	a.speaking = false
	a.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel(ErrSpeechInterrupted)
	<-done
}

// Voices lists the synthesizer's voices
func (a *Adapter) Voices(ctx context.Context) ([]Voice, error) {
	if !a.synthesisSupported {
		return nil, nil
	}
	return a.synth.Voices(ctx)
}

func (a *Adapter) defaultVoice(ctx context.Context) *Voice {
	voices, err := a.synth.Voices(ctx)
	if err != nil {
		internal.LogDebug("Listing voices: %v", err)
		return nil
	}
	return DefaultEnglishVoice(voices)
}

// DefaultEnglishVoice picks the default English voice, or the first English
// voice when none is marked default
func DefaultEnglishVoice(voices []Voice) *Voice {
	var first *Voice
	for i := range voices {
		v := &voices[i]
		if !strings.HasPrefix(strings.ToLower(v.Lang), "en") {
			continue
		}
		if v.Default {
			return v
		}
		if first == nil {
			first = v
		}
	}
	return first
}

func withDefaults(opts SpeakOptions) SpeakOptions {
	if opts.Rate <= 0 {
		opts.Rate = 1
	}
	if opts.Pitch <= 0 {
		opts.Pitch = 1
	}
	if opts.Volume <= 0 {
		opts.Volume = 1
	}
	return opts
}
