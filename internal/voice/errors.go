package voice

import (
	"errors"
	"fmt"
)

// Recognition error codes reported by recognizers
const (
	CodeNotAllowed   = "not-allowed"
	CodeNoSpeech     = "no-speech"
	CodeAudioCapture = "audio-capture"
	CodeNetwork      = "network"
)

const (
	unsupportedMessage = "Speech recognition is not supported on this system"
	permissionMessage  = "Microphone permission is required for voice recognition. Please allow microphone access and try again."
)

var (
	// ErrRecognitionUnsupported is returned when no recognizer or microphone is configured
	ErrRecognitionUnsupported = errors.New("speech recognition not supported")
	// ErrSynthesisUnsupported is returned when no synthesizer is configured
	ErrSynthesisUnsupported = errors.New("speech synthesis not supported")
	// ErrMicrophonePermission is returned when the microphone cannot be opened
	ErrMicrophonePermission = errors.New("microphone permission denied")
	// ErrSpeechInterrupted is reported by a Speak call whose utterance was
	// cancelled by StopSpeaking or a newer Speak
	ErrSpeechInterrupted = errors.New("speech interrupted")
)

// RecognitionError is a recognition failure identified by a short code
type RecognitionError struct {
	Code string
	Err  error
}

func (e *RecognitionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("speech recognition error: %s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("speech recognition error: %s", e.Code)
}

func (e *RecognitionError) Unwrap() error {
	return e.Err
}

// SynthesisError is a playback failure
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("speech synthesis error: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// ErrorMessage maps a recognition error code to text suitable for the user.
// Unknown codes are returned unchanged.
func ErrorMessage(code string) string {
	switch code {
	case CodeNotAllowed:
		return "Microphone permission denied. Please allow microphone access and try again."
	case CodeNoSpeech:
		return "No speech detected. Please try speaking again."
	case CodeAudioCapture:
		return "No microphone found. Please check your microphone connection."
	case CodeNetwork:
		return "Network error. Please check your internet connection."
	default:
		return code
	}
}
