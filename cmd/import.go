package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/voicechat/internal"
	"github.com/spf13/cobra"
)

var importYes bool

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the stored history with an exported one",
	Long: `Replace every stored session with the sessions in an exported history
file (see 'voicechat export --all').

The file must hold a JSON array of sessions, each with an id and a
messages array. Nothing is changed when the file is invalid.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		existing := len(a.store.GetAllSessions())
		if existing > 0 && !importYes {
			ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Replace %d stored session(s)?", existing))
			if err != nil {
				return err
			}
			if !ok {
				internal.PrintInfo("Import cancelled")
				return nil
			}
		}

		if err := a.store.ImportChatHistory(string(data)); err != nil {
			return fmt.Errorf("invalid history file: %w", err)
		}

		internal.PrintSuccess(fmt.Sprintf("Imported %d session(s)", len(a.store.GetAllSessions())))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().BoolVarP(&importYes, "yes", "y", false, "Do not ask for confirmation")
}
