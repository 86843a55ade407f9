package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iksnae/voicechat/internal"
	"github.com/iksnae/voicechat/internal/export"
	"github.com/spf13/cobra"
)

const historyFileName = "voicechat-history.json"

var (
	format    string
	outputDir string
	sessionID string
	exportAll bool
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export sessions to file",
	Long: `Export chat sessions to various formats (jsonl, md, yaml, json).

Each session is written to its own file. Use --session-id to export one
session, or --all to write the complete history as a single JSON file
that 'voicechat import' accepts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		if exportAll {
			path := filepath.Join(outputDir, historyFileName)
			if err := os.WriteFile(path, []byte(a.store.ExportChatHistory()), 0644); err != nil {
				return &internal.ExportError{Format: "json", Path: path, Err: err}
			}
			internal.PrintSuccess(fmt.Sprintf("History exported to %s", path))
			return nil
		}

		sessions := a.store.GetAllSessions()
		if sessionID != "" {
			session, ok := a.store.GetSession(sessionID)
			if !ok {
				return fmt.Errorf("session not found: %s (use 'voicechat list' to see available sessions)", sessionID)
			}
			sessions = []internal.ChatSession{*session}
		}

		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		var exported int
		err = internal.ShowProgress(context.Background(), fmt.Sprintf("Exporting %d session(s) to %s", len(sessions), outputDir), func() error {
			exported = exportSessions(sessions, exporter, format, outputDir)
			return nil
		})
		if err != nil {
			return err
		}

		internal.PrintSuccess(fmt.Sprintf("Export complete: %d session(s) exported to %s", exported, outputDir))
		return nil
	},
}

// exportSessions writes one file per session and returns how many were
// written. Failures are logged and skipped.
func exportSessions(sessions []internal.ChatSession, exporter export.Exporter, format, dir string) int {
	exported := 0
	for i := range sessions {
		session := &sessions[i]
		path := filepath.Join(dir, fmt.Sprintf("%s.%s", session.ID, exporter.Extension()))
		if err := exportSession(session, exporter, format, path); err != nil {
			internal.LogError("Failed to export session %s: %v", session.ID, err)
			continue
		}
		exported++
	}
	return exported
}

func exportSession(session *internal.ChatSession, exporter export.Exporter, format, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}

	if err := exporter.Export(session, file); err != nil {
		_ = file.Close()
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}

	if err := file.Close(); err != nil {
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "jsonl", "Export format (jsonl, md, yaml, json)")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", "./exports", "Output directory")
	exportCmd.Flags().StringVar(&sessionID, "session-id", "", "Export a specific session by ID")
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "Export the complete history as one importable JSON file")
}
