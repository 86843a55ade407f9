package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/iksnae/voicechat/internal"
)

// JSONLExporter exports sessions in JSONL format (one message per line)
type JSONLExporter struct{}

// Export exports a session to JSONL format
func (e *JSONLExporter) Export(session *internal.ChatSession, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, msg := range session.Messages {
		obj := map[string]interface{}{
			"session": session.ID,
			"id":      msg.ID,
			"role":    msg.Role,
			"content": msg.Content,
		}

		if !msg.Timestamp.IsZero() {
			obj["timestamp"] = msg.Timestamp.UTC().Format(time.RFC3339Nano)
		}
		if msg.IsVoiceMessage {
			obj["voice"] = true
		}
		if msg.Summary != "" {
			obj["summary"] = msg.Summary
		}

		if err := enc.Encode(obj); err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
