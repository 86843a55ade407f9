package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/voicechat/internal"
	"github.com/spf13/cobra"
)

var (
	verbose  bool
	logLevel string
	dataDir  string
	version string = "dev"
	commit  string = "unknown"
	date    string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "voicechat",
	Short: "Talk to a generative AI assistant from the terminal",
	Long: `A voice-enabled chat client for the terminal.

Type or speak your questions; answers come from Gemini (or an
OpenAI-compatible service) and can be read back aloud as short spoken
summaries. Conversations are kept locally, one session per chat.

Features:
  • Interactive chat with typed or spoken input
  • Spoken replies through Deepgram speech synthesis
  • Local session history (up to 50 sessions)
  • Export in multiple formats (JSON, JSONL, YAML, Markdown)
  • Import and export of the full history

Quick Start:
  voicechat chat                     # Start chatting
  voicechat chat --voice --speak     # Speak and listen
  voicechat list                     # List stored sessions
  voicechat export --format md       # Export as Markdown

Configuration is read from the environment and from .env files
(GEMINI_API_KEY, DEEPGRAM_API_KEY, ...). Run 'voicechat healthcheck'
to see what is configured.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		configureLogging(verbose, logLevel)
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// configureLogging applies --log-level and returns the level in effect.
// --verbose always means debug.
func configureLogging(verbose bool, level string) internal.LogLevel {
	applied := internal.ParseLogLevel(level)
	if verbose {
		applied = internal.LogLevelDebug
	}
	internal.SetLogLevel(applied)
	return applied
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (error, warn, info, debug)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory holding the session database and optional .env (default: OS data dir)")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
