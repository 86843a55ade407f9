package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/iksnae/voicechat/internal"
	"github.com/spf13/cobra"
)

var (
	inspectFormat  string
	inspectPreview int
)

// keyInfo describes one row of the chatKV table
type keyInfo struct {
	Key     string `json:"key"`
	Bytes   int    `json:"bytes"`
	Preview string `json:"preview,omitempty"`
}

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect the raw key-value store",
	Long: `Inspect the raw contents of the session database.

Every key in the chatKV table is listed with the size of its value and a
short preview. Useful when a history will not load or import.

Examples:
  voicechat inspect                          # Table of keys
  voicechat inspect --format json --preview 0 # Sizes only, as JSON`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		pairs, err := internal.QueryChatKV(a.db, "%")
		if err != nil {
			return &internal.StorageError{Key: "*", Op: "inspect", Err: err}
		}

		infos := describeKeys(pairs, inspectPreview)
		switch inspectFormat {
		case "json":
			data, err := json.MarshalIndent(infos, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		case "text":
			displayKeys(cmd.OutOrStdout(), a.cfg.Paths.StateDBPath(), infos)
			return nil
		default:
			return fmt.Errorf("unsupported format: %s (supported: text, json)", inspectFormat)
		}
	},
}

func describeKeys(pairs []internal.KeyValuePair, preview int) []keyInfo {
	infos := make([]keyInfo, 0, len(pairs))
	for _, pair := range pairs {
		infos = append(infos, keyInfo{
			Key:     pair.Key,
			Bytes:   len(pair.Value),
			Preview: previewValue(pair.Value, preview),
		})
	}
	return infos
}

// previewValue returns the first n runes of value on a single line
func previewValue(value string, n int) string {
	if n <= 0 {
		return ""
	}
	value = strings.Join(strings.Fields(value), " ")
	if utf8.RuneCountInString(value) <= n {
		return value
	}
	return string([]rune(value)[:n]) + "..."
}

func displayKeys(out io.Writer, dbPath string, infos []keyInfo) {
	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("🗄  %s", dbPath)))
	fmt.Fprintln(out)

	if len(infos) == 0 {
		fmt.Fprintln(out, idStyle.Render("(no keys stored)"))
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, titleStyle.Render("Key")+"\t"+titleStyle.Render("Bytes")+"\t"+titleStyle.Render("Preview")+"\t")
	for _, info := range infos {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t\n", info.Key, countStyle.Render(fmt.Sprint(info.Bytes)), dateStyle.Render(info.Preview))
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectFormat, "format", "text", "Output format (text, json)")
	inspectCmd.Flags().IntVar(&inspectPreview, "preview", 60, "Number of characters of each value to show (0 to hide)")
}
