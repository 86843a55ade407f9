package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/voicechat/internal"
	"github.com/iksnae/voicechat/internal/config"
	"github.com/iksnae/voicechat/internal/voice"
	"github.com/spf13/cobra"
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

type checkStatus int

const (
	checkOK checkStatus = iota
	checkWarn
	checkFail
)

// healthCheck is the outcome of one step
type healthCheck struct {
	Name    string
	Status  checkStatus
	Summary string
	Details []string
}

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check configuration, storage and voice support",
	Long: `Check the health of voicechat by verifying:
  • Data directory and session database
  • Language model provider configuration
  • Speech recognition and synthesis support

Use --verbose for paths and other details.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, sectionStyle.Render("🔍 Voice Chat Health Check"))
		fmt.Fprintln(out)

		cfg, err := config.Load(dataDir)
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Failed to load configuration:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}

		checks := runHealthChecks(cfg)
		failed := printHealthChecks(out, checks, verbose)

		fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
		fmt.Fprintln(out)
		if failed > 0 {
			fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("❌ Health check failed (%d problem(s))", failed)))
			return fmt.Errorf("health check failed")
		}
		fmt.Fprintln(out, successStyle.Render("✅ Health check passed!"))
		return nil
	},
}

func runHealthChecks(cfg *config.Config) []healthCheck {
	return []healthCheck{
		checkStorage(cfg),
		checkProvider(cfg),
		checkRecognition(cfg),
		checkSynthesis(cfg),
	}
}

func checkStorage(cfg *config.Config) healthCheck {
	check := healthCheck{
		Name:    "Session storage",
		Details: []string{fmt.Sprintf("Data directory: %s", cfg.Paths.BaseDir), fmt.Sprintf("Database: %s", cfg.Paths.StateDBPath())},
	}

	if !cfg.Paths.StateDBExists() {
		check.Status = checkWarn
		check.Summary = "No session database yet (created on first chat)"
		return check
	}

	db, err := internal.OpenStateDB(cfg.Paths.StateDBPath())
	if err != nil {
		check.Status = checkFail
		check.Summary = fmt.Sprintf("Cannot open session database: %v", err)
		return check
	}
	defer db.Close()

	storage := internal.NewStorage(db)
	keys, err := storage.Keys("voicechat-")
	if err != nil {
		check.Status = checkFail
		check.Summary = fmt.Sprintf("Cannot read session database: %v", err)
		return check
	}

	store := internal.NewStore(storage)
	info := store.StorageInfo()
	check.Summary = fmt.Sprintf("%d session(s) stored", len(store.GetAllSessions()))
	check.Details = append(check.Details,
		fmt.Sprintf("Keys: %s", strings.Join(keys, ", ")),
		fmt.Sprintf("History size: %d bytes (%d%% of %d)", info.Used, info.Percentage, info.Total),
	)
	return check
}

func checkProvider(cfg *config.Config) healthCheck {
	check := healthCheck{
		Name:    "Language model",
		Details: []string{fmt.Sprintf("Provider: %s", cfg.LLM.Provider), fmt.Sprintf("Model: %s", cfg.Model()), fmt.Sprintf("Context: %s", cfg.LLM.ContextMode)},
	}
	if err := cfg.Validate(); err != nil {
		check.Status = checkFail
		check.Summary = err.Error()
		return check
	}
	check.Summary = fmt.Sprintf("%s configured (%s)", cfg.LLM.Provider, cfg.Model())
	return check
}

func checkRecognition(cfg *config.Config) healthCheck {
	check := healthCheck{
		Name:    "Speech recognition",
		Details: []string{fmt.Sprintf("Recorder: %s", cfg.Voice.MicCommand), fmt.Sprintf("Model: %s (%s)", cfg.Voice.STTModel, cfg.Voice.Language)},
	}
	switch {
	case !cfg.Voice.Enabled():
		check.Status = checkWarn
		check.Summary = "Disabled: DEEPGRAM_API_KEY is not set"
	case !(&voice.CommandMicrophone{Command: cfg.Voice.MicCommand}).Available():
		check.Status = checkWarn
		check.Summary = fmt.Sprintf("Disabled: %s not found in PATH", cfg.Voice.MicCommand)
	default:
		check.Summary = "Available"
	}
	return check
}

func checkSynthesis(cfg *config.Config) healthCheck {
	check := healthCheck{
		Name:    "Speech synthesis",
		Details: []string{fmt.Sprintf("Player: %s", cfg.Voice.PlayerCommand), fmt.Sprintf("Voice: %s", cfg.Voice.TTSModel)},
	}
	switch {
	case !cfg.Voice.Enabled():
		check.Status = checkWarn
		check.Summary = "Disabled: DEEPGRAM_API_KEY is not set"
	case !(&voice.CommandPlayer{Command: cfg.Voice.PlayerCommand}).Available():
		check.Status = checkWarn
		check.Summary = fmt.Sprintf("Disabled: %s not found in PATH", cfg.Voice.PlayerCommand)
	default:
		check.Summary = "Available"
	}
	return check
}

// printHealthChecks renders checks and returns the number of failures
func printHealthChecks(out io.Writer, checks []healthCheck, details bool) int {
	failed := 0
	for i, check := range checks {
		fmt.Fprintln(out, infoStyle.Render(fmt.Sprintf("Step %d: %s...", i+1, check.Name)))
		switch check.Status {
		case checkOK:
			fmt.Fprintln(out, successStyle.Render("✅ "+check.Summary))
		case checkWarn:
			fmt.Fprintln(out, warningStyle.Render("⚠️  "+check.Summary))
		default:
			failed++
			fmt.Fprintln(out, errorStyle.Render("❌ "+check.Summary))
		}
		if details {
			for _, d := range check.Details {
				fmt.Fprintf(out, "   %s\n", d)
			}
		}
		fmt.Fprintln(out)
	}
	return failed
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
}
