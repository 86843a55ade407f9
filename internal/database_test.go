package internal

import (
	"path/filepath"
	"testing"

	"github.com/iksnae/voicechat/testutil"
)

func TestOpenStateDB(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) string
		wantErr bool
	}{
		{
			name: "existing database",
			setup: func(t *testing.T) string {
				dbPath := filepath.Join(t.TempDir(), "state.db")
				testutil.CreateSQLiteFixture(t, dbPath)
				return dbPath
			},
		},
		{
			name: "creates missing directories",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "nested", "dir", "state.db")
			},
		},
		{
			name: "in-memory",
			setup: func(t *testing.T) string {
				return MemoryDatabase
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := OpenStateDB(tt.setup(t))
			if (err != nil) != tt.wantErr {
				t.Fatalf("OpenStateDB() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			defer db.Close()

			if _, err := db.Exec("INSERT OR REPLACE INTO chatKV (key, value) VALUES ('smoke', 'ok')"); err != nil {
				t.Errorf("chatKV table not usable: %v", err)
			}
		})
	}
}

func TestOpenStateDB_KeepsExistingData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state.db")
	testutil.CreateSQLiteFixture(t, dbPath)

	db, err := OpenStateDB(dbPath)
	if err != nil {
		t.Fatalf("OpenStateDB() error = %v", err)
	}
	defer db.Close()

	pairs, err := QueryChatKV(db, "voicechat-%")
	if err != nil {
		t.Fatalf("QueryChatKV() error = %v", err)
	}
	if len(pairs) != 2 {
		t.Errorf("QueryChatKV() returned %d pairs, want 2", len(pairs))
	}
}

func TestQueryChatKV(t *testing.T) {
	db := testutil.CreateTestDB(t)

	tests := []struct {
		name    string
		pattern string
		want    []string
	}{
		{name: "prefix", pattern: "voicechat-%", want: []string{"voicechat-current-session", "voicechat-sessions"}},
		{name: "exact", pattern: "unrelated", want: []string{"unrelated"}},
		{name: "no match", pattern: "missing%", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pairs, err := QueryChatKV(db, tt.pattern)
			if err != nil {
				t.Fatalf("QueryChatKV() error = %v", err)
			}
			if len(pairs) != len(tt.want) {
				t.Fatalf("QueryChatKV() returned %d pairs, want %d", len(pairs), len(tt.want))
			}
			for i, pair := range pairs {
				if pair.Key != tt.want[i] {
					t.Errorf("pairs[%d].Key = %q, want %q", i, pair.Key, tt.want[i])
				}
			}
		})
	}
}

func TestQueryChatKV_SkipsNullValues(t *testing.T) {
	db := testutil.CreateInMemoryDB(t)
	if _, err := db.Exec("INSERT INTO chatKV (key, value) VALUES ('null-key', NULL)"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	pairs, err := QueryChatKV(db, "%")
	if err != nil {
		t.Fatalf("QueryChatKV() error = %v", err)
	}
	if len(pairs) != 0 {
		t.Errorf("QueryChatKV() returned %d pairs, want 0", len(pairs))
	}
}
