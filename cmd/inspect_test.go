package cmd

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/iksnae/voicechat/internal"
	"github.com/iksnae/voicechat/testutil"
)

func TestPreviewValue(t *testing.T) {
	tests := []struct {
		name  string
		value string
		n     int
		want  string
	}{
		{"hidden", "anything", 0, ""},
		{"short", "abc", 10, "abc"},
		{"truncated", "abcdefgh", 3, "abc..."},
		{"collapses whitespace", "[\n  {\"id\": 1}\n]", 40, `[ {"id": 1} ]`},
		{"runes", "héllo wörld", 5, "héllo..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := previewValue(tt.value, tt.n); got != tt.want {
				t.Errorf("previewValue() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDescribeKeys(t *testing.T) {
	pairs := []internal.KeyValuePair{
		{Key: "voicechat-current-session", Value: "session_2"},
		{Key: "voicechat-sessions", Value: "[]"},
	}

	infos := describeKeys(pairs, 4)
	if len(infos) != 2 {
		t.Fatalf("describeKeys() returned %d entries", len(infos))
	}
	if infos[0].Bytes != 9 || infos[0].Preview != "sess..." {
		t.Errorf("infos[0] = %+v", infos[0])
	}
	if infos[1].Bytes != 2 || infos[1].Preview != "[]" {
		t.Errorf("infos[1] = %+v", infos[1])
	}
}

func TestInspectCommand(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	testutil.CreateSQLiteFixture(t, filepath.Join(dir, "state.db"))

	out, err := runCommand(t, "", "inspect", "--data-dir", dir)
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	for _, want := range []string{internal.SessionsKey, internal.CurrentSessionKey, "session_2"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, err = runCommand(t, "", "inspect", "--data-dir", dir, "--format", "json", "--preview", "0")
	if err != nil {
		t.Fatalf("inspect --format json failed: %v", err)
	}
	var infos []keyInfo
	testutil.JSONUnmarshal(t, []byte(out), &infos)
	if len(infos) != 2 || infos[0].Preview != "" {
		t.Errorf("json output = %+v", infos)
	}

	if _, err := runCommand(t, "", "inspect", "--data-dir", dir, "--format", "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
