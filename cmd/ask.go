package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/iksnae/voicechat/internal"
	"github.com/iksnae/voicechat/internal/chat"
	"github.com/spf13/cobra"
)

var (
	askSpeak bool
	askNew   bool
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Send one message and print the reply",
	Long: `Send a single message in the current session and print the reply.

The turn is saved like any other, so 'voicechat chat' continues from it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		gen, err := newGenerator(a.cfg)
		if err != nil {
			return err
		}

		opts := []chat.Option{chat.WithSummarizer(newSummarizer(gen))}
		if askSpeak {
			opts = append(opts, chat.WithVoice(newVoiceAdapter(a.cfg), speakOptions(a.cfg)))
		}
		o := chat.New(a.store, gen, opts...)
		o.Resume()
		if askNew {
			if _, err := o.NewChat(); err != nil {
				return err
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		var reply chat.Reply
		err = internal.ShowProgress(ctx, "Thinking...", func() error {
			var sendErr error
			reply, sendErr = o.Send(ctx, strings.Join(args, " "), false)
			return sendErr
		})
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), reply.Assistant.Content)
		if reply.Failed() {
			return fmt.Errorf("no reply: %w", reply.Err)
		}

		if askSpeak {
			if err := o.SpeakReply(ctx, reply.Assistant); err != nil {
				internal.PrintWarning(fmt.Sprintf("Could not speak the reply: %v", err))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().BoolVar(&askSpeak, "speak", false, "Read the reply aloud")
	askCmd.Flags().BoolVar(&askNew, "new", false, "Ask in a new session")
}
