package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// SampleRegistryJSON is a two-session registry in the persisted format,
// newest session first
const SampleRegistryJSON = `[
  {
    "id": "session_2",
    "title": "What is the weather like?",
    "messages": [
      {"id": "2000", "role": "user", "content": "What is the weather like?", "timestamp": "2024-01-02T10:00:00.000Z", "isVoiceMessage": true},
      {"id": "2001", "role": "assistant", "content": "I can't check live weather.", "timestamp": "2024-01-02T10:00:02.000Z", "summary": "No live weather."}
    ],
    "createdAt": "2024-01-02T10:00:00.000Z",
    "updatedAt": "2024-01-02T10:00:02.000Z"
  },
  {
    "id": "session_1",
    "title": "Hello",
    "messages": [
      {"id": "1000", "role": "user", "content": "Hello", "timestamp": "2024-01-01T09:00:00.000Z"},
      {"id": "1001", "role": "assistant", "content": "Hi there!", "timestamp": "2024-01-01T09:00:01.000Z"}
    ],
    "createdAt": "2024-01-01T09:00:00.000Z",
    "updatedAt": "2024-01-01T09:00:01.000Z"
  }
]`

// CreateSQLiteFixture creates a state database file holding the sample registry
func CreateSQLiteFixture(t *testing.T, dbPath string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(createChatKV); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}

	insertSQL := "INSERT INTO chatKV (key, value) VALUES (?, ?)"
	if _, err := db.Exec(insertSQL, "voicechat-sessions", SampleRegistryJSON); err != nil {
		t.Fatalf("Failed to insert registry: %v", err)
	}
	if _, err := db.Exec(insertSQL, "voicechat-current-session", "session_2"); err != nil {
		t.Fatalf("Failed to insert current session: %v", err)
	}
}

// WriteImportFile writes an import payload to a temp file and returns its path
func WriteImportFile(t *testing.T, payload string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, []byte(payload), 0644); err != nil {
		t.Fatalf("Failed to write import file: %v", err)
	}
	return path
}
