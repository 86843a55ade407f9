package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/voicechat/internal"
	"github.com/spf13/cobra"
)

var (
	limit int
	since string
)

var (
	// Styles for show command
	sessionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Padding(0, 1).
				MarginBottom(1)

	sessionMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				MarginBottom(1)

	messageContentStyle = lipgloss.NewStyle().
				Padding(0, 2)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show messages for a specific session",
	Long: `Display the messages of a stored chat session.

Use 'current' as the id to show the active session.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		id := args[0]
		if id == "current" {
			current, ok := a.store.GetCurrentSessionID()
			if !ok {
				return fmt.Errorf("no current session")
			}
			id = current
		}

		session, ok := a.store.GetSession(id)
		if !ok {
			return fmt.Errorf("session not found: %s (use 'voicechat list' to see available sessions)", id)
		}

		messages := session.Messages
		if since != "" {
			sinceTime, err := time.Parse(time.RFC3339, since)
			if err != nil {
				return fmt.Errorf("invalid --since timestamp format (expected RFC3339): %w", err)
			}
			messages = messagesSince(messages, sinceTime)
		}

		showSession(cmd.OutOrStdout(), session, messages, limit)
		return nil
	},
}

// messagesSince keeps messages at or after t
func messagesSince(messages []internal.ChatMessage, t time.Time) []internal.ChatMessage {
	filtered := make([]internal.ChatMessage, 0, len(messages))
	for _, msg := range messages {
		if !msg.Timestamp.Before(t) {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

func showSession(out io.Writer, session *internal.ChatSession, messages []internal.ChatMessage, limit int) {
	displaySessionHeader(out, session)

	total := len(messages)
	if limit > 0 && limit < total {
		messages = messages[:limit]
	}
	for i, msg := range messages {
		displayMessage(out, i+1, msg, total)
	}

	if limit > 0 && limit < total {
		fmt.Fprintln(out, timestampStyle.Render(fmt.Sprintf("... (%d more message(s))", total-limit)))
	}
}

func displaySessionHeader(out io.Writer, session *internal.ChatSession) {
	if session == nil {
		return
	}
	title := session.Title
	if title == "" {
		title = internal.DefaultSessionTitle
	}
	fmt.Fprintln(out, sessionHeaderStyle.Render(fmt.Sprintf("💬 %s", title)))

	var metaParts []string
	metaParts = append(metaParts, fmt.Sprintf("ID: %s", session.ID))
	if !session.CreatedAt.IsZero() {
		metaParts = append(metaParts, fmt.Sprintf("Created: %s", session.CreatedAt.Local().Format("2006-01-02 15:04")))
	}
	metaParts = append(metaParts, fmt.Sprintf("Messages: %d", len(session.Messages)))
	fmt.Fprintln(out, sessionMetaStyle.Render(strings.Join(metaParts, " • ")))
}

func displayMessage(out io.Writer, index int, msg internal.ChatMessage, total int) {
	var label string
	switch msg.Role {
	case internal.RoleUser:
		label = internal.UserStyle.Render("👤 User")
	case internal.RoleAssistant:
		label = internal.AssistantStyle.Render("🤖 Assistant")
	default:
		label = internal.MutedStyle.Render(fmt.Sprintf("🔧 %s", msg.Role))
	}

	header := label + " " + timestampStyle.Render(fmt.Sprintf("[%d/%d]", index, total))
	if !msg.Timestamp.IsZero() {
		header += " " + timestampStyle.Render(msg.Timestamp.Local().Format("15:04:05"))
	}
	if msg.IsVoiceMessage {
		header += " " + internal.MutedStyle.Render("(voice)")
	}
	fmt.Fprintln(out, header)

	content := strings.TrimSpace(msg.Content)
	if content != "" {
		fmt.Fprintln(out, messageContentStyle.Render(wrapText(content, 80)))
	} else {
		fmt.Fprintln(out, messageContentStyle.Foreground(lipgloss.Color("240")).Render("(empty message)"))
	}
	if msg.Summary != "" {
		fmt.Fprintln(out, internal.MutedStyle.Render("  Summary: "+msg.Summary))
	}
	fmt.Fprintln(out)
}

func wrapText(text string, width int) string {
	lines := strings.Split(text, "\n")
	var wrapped []string

	for _, line := range lines {
		if len(line) <= width {
			wrapped = append(wrapped, line)
			continue
		}

		words := strings.Fields(line)
		currentLine := ""
		for _, word := range words {
			if len(currentLine)+len(word)+1 > width {
				if currentLine != "" {
					wrapped = append(wrapped, currentLine)
					currentLine = word
				} else {
					wrapped = append(wrapped, word)
					currentLine = ""
				}
			} else {
				if currentLine == "" {
					currentLine = word
				} else {
					currentLine += " " + word
				}
			}
		}
		if currentLine != "" {
			wrapped = append(wrapped, currentLine)
		}
	}

	return strings.Join(wrapped, "\n")
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Limit number of messages to show")
	showCmd.Flags().StringVar(&since, "since", "", "Show messages since timestamp (RFC3339)")
}
