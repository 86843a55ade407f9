package testutil

import (
	"encoding/json"
	"testing"
)

// SetDataDir points VOICECHAT_DATA_DIR at a fresh temp dir for the test
func SetDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("VOICECHAT_DATA_DIR", dir)
	return dir
}

// JSONUnmarshal unmarshals JSON for testing
func JSONUnmarshal(t *testing.T, data []byte, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}
}
