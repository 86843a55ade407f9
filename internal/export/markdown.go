package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iksnae/voicechat/internal"
)

const markdownTimeFormat = "2006-01-02 15:04:05"

// MarkdownExporter exports sessions in Markdown format
type MarkdownExporter struct{}

// Export exports a session to Markdown format
func (e *MarkdownExporter) Export(session *internal.ChatSession, w io.Writer) error {
	title := session.Title
	if title == "" {
		title = internal.DefaultSessionTitle
	}
	_, _ = fmt.Fprintf(w, "# %s\n\n", title)

	_, _ = fmt.Fprintf(w, "**Session:** %s  \n", session.ID)
	if !session.CreatedAt.IsZero() {
		_, _ = fmt.Fprintf(w, "**Created:** %s  \n", formatTime(session.CreatedAt))
	}
	if !session.UpdatedAt.IsZero() {
		_, _ = fmt.Fprintf(w, "**Updated:** %s  \n", formatTime(session.UpdatedAt))
	}
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(session.Messages))

	_, _ = fmt.Fprintf(w, "---\n\n")
	_, _ = fmt.Fprintf(w, "## Messages\n\n")

	for i, msg := range session.Messages {
		header := fmt.Sprintf("**%s:**", roleLabel(msg.Role))
		if !msg.Timestamp.IsZero() {
			header += fmt.Sprintf(" (%s)", formatTime(msg.Timestamp))
		}
		if msg.IsVoiceMessage {
			header += " _(voice)_"
		}

		_, _ = fmt.Fprintf(w, "%s\n\n%s\n\n", header, escapeMarkdown(msg.Content))

		if msg.Summary != "" {
			_, _ = fmt.Fprintf(w, "> **Summary:** %s\n\n", msg.Summary)
		}

		if i < len(session.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

func roleLabel(role internal.Role) string {
	switch role {
	case internal.RoleUser:
		return "User"
	case internal.RoleAssistant:
		return "Assistant"
	default:
		return string(role)
	}
}

func formatTime(t time.Time) string {
	return t.Local().Format(markdownTimeFormat)
}

// escapeMarkdown escapes markdown special characters
func escapeMarkdown(text string) string {
	// Basic escaping - preserve code blocks
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
