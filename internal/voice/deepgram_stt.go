package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/iksnae/voicechat/internal"
)

const (
	DefaultDeepgramListenURL = "wss://api.deepgram.com"
	DefaultDeepgramSTTModel  = "nova-2"
	DefaultLanguage          = "en-US"

	// SampleRate is the capture rate expected from the microphone
	SampleRate = 16000

	// 100ms of 16-bit mono audio
	audioChunkSize    = SampleRate / 10 * 2
	keepAliveInterval = 8 * time.Second
	closeGracePeriod  = 2 * time.Second
)

// DeepgramRecognizer streams microphone audio to Deepgram's live
// transcription websocket
type DeepgramRecognizer struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string
	Dialer   *websocket.Dialer
}

// NewDeepgramRecognizer creates a recognizer with the default endpoint
func NewDeepgramRecognizer(apiKey, model, language string) *DeepgramRecognizer {
	if model == "" {
		model = DefaultDeepgramSTTModel
	}
	if language == "" {
		language = DefaultLanguage
	}
	return &DeepgramRecognizer{
		APIKey:   apiKey,
		BaseURL:  DefaultDeepgramListenURL,
		Model:    model,
		Language: language,
		Dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

type listenResults struct {
	Type        string `json:"type"`
	IsFinal     bool   `json:"is_final"`
	SpeechFinal bool   `json:"speech_final"`
	Channel     struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
}

type controlMessage struct {
	Type string `json:"type"`
}

func (d *DeepgramRecognizer) listenURL() (string, error) {
	base, err := url.Parse(strings.TrimRight(d.BaseURL, "/") + "/v1/listen")
	if err != nil {
		return "", err
	}

	q := base.Query()
	q.Set("model", d.Model)
	q.Set("language", d.Language)
	q.Set("interim_results", "true")
	q.Set("punctuate", "true")
	q.Set("smart_format", "true")
	q.Set("endpointing", "300")
	q.Set("encoding", "linear16")
	q.Set("sample_rate", fmt.Sprintf("%d", SampleRate))
	q.Set("channels", "1")
	base.RawQuery = q.Encode()
	return base.String(), nil
}

// Recognize implements Recognizer. Finalized segments are accumulated until
// Deepgram marks the end of speech, then sent as one final Result.
func (d *DeepgramRecognizer) Recognize(ctx context.Context, audio io.Reader, results chan<- Result) error {
	wsURL, err := d.listenURL()
	if err != nil {
		return &RecognitionError{Code: CodeNetwork, Err: err}
	}

	headers := http.Header{"Authorization": {"Token " + d.APIKey}}
	conn, resp, err := d.Dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("%w (HTTP %d)", err, resp.StatusCode)
		}
		return &RecognitionError{Code: CodeNetwork, Err: err}
	}
	defer conn.Close()

	writerDone := make(chan struct{})
	stopWriter := make(chan struct{})
	go func() {
		defer close(writerDone)
		d.pumpAudio(ctx, conn, audio, stopWriter)
	}()
	defer func() {
		close(stopWriter)
		_ = conn.Close()
		<-writerDone
	}()

	var (
		segments   []string
		confidence float64
		heard      bool
	)
	emitFinal := func() {
		transcript := strings.TrimSpace(strings.Join(segments, " "))
		results <- Result{Transcript: transcript, Confidence: confidence, IsFinal: true}
	}

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if len(segments) > 0 {
				emitFinal()
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				if heard {
					return nil
				}
				return &RecognitionError{Code: CodeNoSpeech}
			}
			return &RecognitionError{Code: CodeNetwork, Err: err}
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg listenResults
		if err := sonic.Unmarshal(message, &msg); err != nil {
			internal.LogDebug("Ignoring unparseable Deepgram message: %v", err)
			continue
		}
		if msg.Type != "Results" {
			if msg.Type == "UtteranceEnd" && len(segments) > 0 {
				emitFinal()
				return nil
			}
			continue
		}
		if len(msg.Channel.Alternatives) == 0 {
			continue
		}

		alt := msg.Channel.Alternatives[0]
		if alt.Transcript != "" {
			heard = true
		}

		if msg.IsFinal {
			if alt.Transcript != "" {
				segments = append(segments, alt.Transcript)
				confidence = alt.Confidence
			}
			if msg.SpeechFinal && len(segments) > 0 {
				emitFinal()
				return nil
			}
			continue
		}

		if alt.Transcript == "" {
			continue
		}
		interim := strings.TrimSpace(strings.Join(append(append([]string(nil), segments...), alt.Transcript), " "))
		results <- Result{Transcript: interim, Confidence: alt.Confidence}
	}
}

// pumpAudio is the only writer on conn. It forwards audio, keeps the stream
// alive, and asks Deepgram to flush and close when the audio ends or ctx is
// cancelled.
func (d *DeepgramRecognizer) pumpAudio(ctx context.Context, conn *websocket.Conn, audio io.Reader, stop <-chan struct{}) {
	chunks := make(chan []byte, 16)
	readErr := make(chan error, 1)
	go func() {
		for {
			buf := make([]byte, audioChunkSize)
			n, err := audio.Read(buf)
			if n > 0 {
				select {
				case chunks <- buf[:n]:
				case <-stop:
					return
				}
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	closeStream := func() {
		if err := writeControl(conn, "CloseStream"); err != nil {
			internal.LogDebug("Sending CloseStream: %v", err)
		}
		// Deepgram closes the socket once it has flushed the last results.
		select {
		case <-stop:
		case <-time.After(closeGracePeriod):
			_ = conn.Close()
		}
	}

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			closeStream()
			return
		case err := <-readErr:
			if !errors.Is(err, io.EOF) {
				internal.LogDebug("Microphone stream ended: %v", err)
			}
			// Drain what was read before the stream ended.
		drain:
			for {
				select {
				case chunk := <-chunks:
					if err := conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
						return
					}
				default:
					break drain
				}
			}
			closeStream()
			return
		case chunk := <-chunks:
			if err := conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
				internal.LogDebug("Sending audio: %v", err)
				return
			}
		case <-ticker.C:
			if err := writeControl(conn, "KeepAlive"); err != nil {
				return
			}
		}
	}
}

func writeControl(conn *websocket.Conn, kind string) error {
	data, err := sonic.Marshal(controlMessage{Type: kind})
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
