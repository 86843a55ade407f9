package voice

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/iksnae/voicechat/internal"
	"github.com/zaf/g711"
)

const (
	DefaultDeepgramSpeakURL = "https://api.deepgram.com"
	DefaultDeepgramTTSModel = "aura-asteria-en"

	// speechSampleRate is the rate of the μ-law audio requested from Deepgram
	speechSampleRate = 8000
)

// AudioFormat describes signed 16-bit little-endian PCM
type AudioFormat struct {
	SampleRate int
	Channels   int
}

// Player plays PCM audio to completion, applying rate and pitch
type Player interface {
	Play(ctx context.Context, pcm []byte, format AudioFormat, opts SpeakOptions) error
}

// auraVoices are the Deepgram Aura voices offered for selection
var auraVoices = []Voice{
	{Name: "aura-asteria-en", Lang: "en-US"},
	{Name: "aura-luna-en", Lang: "en-US"},
	{Name: "aura-stella-en", Lang: "en-US"},
	{Name: "aura-athena-en", Lang: "en-GB"},
	{Name: "aura-hera-en", Lang: "en-US"},
	{Name: "aura-orion-en", Lang: "en-US"},
	{Name: "aura-arcas-en", Lang: "en-US"},
	{Name: "aura-perseus-en", Lang: "en-US"},
	{Name: "aura-angus-en", Lang: "en-IE"},
	{Name: "aura-orpheus-en", Lang: "en-US"},
	{Name: "aura-helios-en", Lang: "en-GB"},
	{Name: "aura-zeus-en", Lang: "en-US"},
}

// DeepgramSynthesizer renders speech with Deepgram's REST speak endpoint and
// hands the decoded audio to a Player
type DeepgramSynthesizer struct {
	APIKey  string
	BaseURL string
	Model   string
	Client  *http.Client
	Player  Player
}

// NewDeepgramSynthesizer creates a synthesizer with the default endpoint
func NewDeepgramSynthesizer(apiKey, model string, player Player) *DeepgramSynthesizer {
	if model == "" {
		model = DefaultDeepgramTTSModel
	}
	return &DeepgramSynthesizer{
		APIKey:  apiKey,
		BaseURL: DefaultDeepgramSpeakURL,
		Model:   model,
		Client:  &http.Client{Timeout: 60 * time.Second},
		Player:  player,
	}
}

type speakRequest struct {
	Text string `json:"text"`
}

type speakError struct {
	ErrCode string `json:"err_code"`
	ErrMsg  string `json:"err_msg"`
	Message string `json:"message"`
}

// Voices implements Synthesizer. The configured model is the default voice.
func (d *DeepgramSynthesizer) Voices(ctx context.Context) ([]Voice, error) {
	voices := make([]Voice, 0, len(auraVoices)+1)
	found := false
	for _, v := range auraVoices {
		v.Default = v.Name == d.Model
		found = found || v.Default
		voices = append(voices, v)
	}
	if !found {
		voices = append([]Voice{{Name: d.Model, Lang: "en", Default: true}}, voices...)
	}
	return voices, nil
}

// Speak implements Synthesizer
func (d *DeepgramSynthesizer) Speak(ctx context.Context, text string, opts SpeakOptions) error {
	model := d.Model
	if opts.Voice != nil && opts.Voice.Name != "" {
		model = opts.Voice.Name
	}

	ulaw, err := d.synthesize(ctx, text, model)
	if err != nil {
		return err
	}

	pcm := g711.DecodeUlaw(ulaw)
	applyVolume(pcm, opts.Volume)

	internal.LogDebug("Playing %d bytes of speech with %s", len(pcm), model)
	return d.Player.Play(ctx, pcm, AudioFormat{SampleRate: speechSampleRate, Channels: 1}, opts)
}

func (d *DeepgramSynthesizer) synthesize(ctx context.Context, text, model string) ([]byte, error) {
	q := url.Values{}
	q.Set("model", model)
	q.Set("encoding", "mulaw")
	q.Set("sample_rate", fmt.Sprintf("%d", speechSampleRate))
	q.Set("container", "none")
	endpoint := strings.TrimRight(d.BaseURL, "/") + "/v1/speak?" + q.Encode()

	body, err := sonic.Marshal(speakRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+d.APIKey)

	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp speakError
		message := http.StatusText(resp.StatusCode)
		if sonic.Unmarshal(audio, &errResp) == nil {
			switch {
			case errResp.ErrMsg != "":
				message = errResp.ErrMsg
			case errResp.Message != "":
				message = errResp.Message
			}
		}
		return nil, fmt.Errorf("deepgram speak %d: %s", resp.StatusCode, message)
	}
	return audio, nil
}

// applyVolume scales 16-bit little-endian samples in place
func applyVolume(pcm []byte, volume float64) {
	if volume <= 0 || volume == 1 {
		return
	}
	for i := 0; i+1 < len(pcm); i += 2 {
		sample := float64(int16(binary.LittleEndian.Uint16(pcm[i:])))
		scaled := math.Max(math.MinInt16, math.Min(math.MaxInt16, math.Round(sample*volume)))
		binary.LittleEndian.PutUint16(pcm[i:], uint16(int16(scaled)))
	}
}
