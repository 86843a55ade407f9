package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/voicechat/internal"
	"github.com/iksnae/voicechat/internal/summarize"
	"github.com/spf13/cobra"
)

var (
	summaryStyle     string
	summaryMax       int
	summarySpoken    bool
	summaryNoPoints  bool
	summarySessionID string
)

// summarizeCmd represents the summarize command
var summarizeCmd = &cobra.Command{
	Use:   "summarize [text]",
	Short: "Summarize text or the last reply of a session",
	Long: `Summarize text with the configured language model.

The text is taken from the arguments, from stdin when the only argument
is "-", or from the last assistant reply of --session-id.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		text, err := summaryInput(cmd.InOrStdin(), args, a.store)
		if err != nil {
			return err
		}

		style, err := summarize.ParseStyle(summaryStyle)
		if err != nil {
			return err
		}

		gen, err := newGenerator(a.cfg)
		if err != nil {
			return err
		}
		s := newSummarizer(gen)

		opts := []summarize.Option{
			summarize.WithStyle(style),
			summarize.WithMaxLength(summaryMax),
			summarize.WithKeyPoints(!summaryNoPoints),
		}

		var summary string
		err = internal.ShowProgress(cmd.Context(), "Summarizing...", func() error {
			var sumErr error
			if summarySpoken {
				summary, sumErr = s.SpokenSummary(cmd.Context(), text, opts...)
			} else {
				summary, sumErr = s.Summarize(cmd.Context(), text, opts...)
			}
			return sumErr
		})
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), summary)
		return nil
	},
}

func summaryInput(in io.Reader, args []string, store *internal.Store) (string, error) {
	if summarySessionID != "" {
		session, ok := store.GetSession(summarySessionID)
		if !ok {
			return "", fmt.Errorf("session not found: %s", summarySessionID)
		}
		for i := len(session.Messages) - 1; i >= 0; i-- {
			if session.Messages[i].Role == internal.RoleAssistant {
				return session.Messages[i].Content, nil
			}
		}
		return "", fmt.Errorf("session %s has no assistant reply", summarySessionID)
	}

	var text string
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(in)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	} else {
		text = strings.Join(args, " ")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("nothing to summarize")
	}
	return text, nil
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
	summarizeCmd.Flags().StringVar(&summaryStyle, "style", string(summarize.StyleConcise), "Summary style (concise, detailed, bullet-points)")
	summarizeCmd.Flags().IntVar(&summaryMax, "max", summarize.DefaultMaxLength, "Approximate maximum number of words")
	summarizeCmd.Flags().BoolVar(&summarySpoken, "spoken", false, "Produce a short summary suitable for speech")
	summarizeCmd.Flags().BoolVar(&summaryNoPoints, "no-key-points", false, "Do not ask for key points")
	summarizeCmd.Flags().StringVar(&summarySessionID, "session-id", "", "Summarize the last reply of this session")
}
