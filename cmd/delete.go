package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/voicechat/internal"
	"github.com/spf13/cobra"
)

var clearYes bool

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a stored session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		id := args[0]
		if _, ok := a.store.GetSession(id); !ok {
			return fmt.Errorf("session not found: %s", id)
		}
		a.store.DeleteSession(id)
		internal.PrintSuccess(fmt.Sprintf("Deleted session %s", id))
		return nil
	},
}

// clearCmd represents the clear command
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		count := len(a.store.GetAllSessions())
		if !clearYes {
			ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete all %d session(s)?", count))
			if err != nil {
				return err
			}
			if !ok {
				internal.PrintInfo("Nothing deleted")
				return nil
			}
		}

		a.store.ClearAllSessions()
		internal.PrintSuccess(fmt.Sprintf("Deleted %d session(s)", count))
		return nil
	},
}

// confirm asks a yes/no question; anything but y or yes is a no
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N] ", question)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(clearCmd)
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "Do not ask for confirmation")
}
