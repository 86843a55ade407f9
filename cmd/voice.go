package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/iksnae/voicechat/internal"
	"github.com/iksnae/voicechat/internal/voice"
	"github.com/spf13/cobra"
)

var (
	speakVoice      string
	speakListVoices bool
)

// speakCmd represents the speak command
var speakCmd = &cobra.Command{
	Use:   "speak [text]",
	Short: "Read text aloud",
	Long: `Read text aloud with the configured speech synthesizer.

Useful to check DEEPGRAM_API_KEY and the audio player.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		adapter := newVoiceAdapter(a.cfg)
		if !adapter.SynthesisSupported() {
			return fmt.Errorf("%w: set DEEPGRAM_API_KEY and install %s", voice.ErrSynthesisUnsupported, a.cfg.Voice.PlayerCommand)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		if speakListVoices {
			voices, err := adapter.Voices(ctx)
			if err != nil {
				return err
			}
			for _, v := range voices {
				marker := " "
				if v.Default {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\t%s\n", marker, v.Name, v.Lang)
			}
			return nil
		}

		text := strings.TrimSpace(strings.Join(args, " "))
		if text == "" {
			return fmt.Errorf("nothing to speak")
		}

		opts := speakOptions(a.cfg)
		if speakVoice != "" {
			opts.Voice = &voice.Voice{Name: speakVoice}
		}
		return adapter.Speak(ctx, text, opts)
	},
}

// listenCmd represents the listen command
var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Transcribe one utterance from the microphone",
	Long: `Listen until the end of one utterance and print the transcript.

Interim results are shown while you speak. Nothing is sent to the
assistant; use 'voicechat chat --voice' for that.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		adapter := newVoiceAdapter(a.cfg)
		if !adapter.RecognitionSupported() {
			return fmt.Errorf("%w: set DEEPGRAM_API_KEY and install %s", voice.ErrRecognitionUnsupported, a.cfg.Voice.MicCommand)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		events, unsubscribe := adapter.Subscribe()
		defer unsubscribe()

		if err := adapter.StartListening(ctx); err != nil {
			return err
		}
		internal.PrintInfo("Listening... speak now")

		out := cmd.OutOrStdout()
		var failure string
		for ev := range events {
			switch ev.Kind {
			case voice.EventResult:
				if ev.Result.IsFinal {
					fmt.Fprintf(out, "\r\033[K%s\n", ev.Result.Transcript)
				} else {
					fmt.Fprintf(out, "\r\033[K%s", internal.MutedStyle.Render(ev.Result.Transcript))
				}
			case voice.EventError:
				failure = ev.Message
			case voice.EventEnd:
				if failure != "" {
					return fmt.Errorf("%s", failure)
				}
				return nil
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(speakCmd)
	rootCmd.AddCommand(listenCmd)
	speakCmd.Flags().StringVar(&speakVoice, "voice", "", "Voice (model) name, see --list-voices")
	speakCmd.Flags().BoolVar(&speakListVoices, "list-voices", false, "List available voices")
}
