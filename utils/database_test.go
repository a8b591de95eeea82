package utils_test

import (
	"context"
	"path/filepath"
	"testing"

	"todolist/utils"
)

func TestOpenSQLitePragmasOnEveryConnection(t *testing.T) {
	ctx := context.Background()
	db, err := utils.OpenSQLite(ctx, filepath.Join(t.TempDir(), "todo.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	// Released connections are closed, so each round gets a fresh one.
	db.SetMaxIdleConns(0)

	for round := range 3 {
		conn, err := db.Conn(ctx)
		if err != nil {
			t.Fatalf("round %d: Conn() error = %v", round, err)
		}
		tests := []struct {
			pragma string
			want   string
		}{
			{"foreign_keys", "1"},
			{"busy_timeout", "5000"},
			{"journal_mode", "wal"},
		}
		for _, tt := range tests {
			var got string
			if err := conn.QueryRowContext(ctx, "PRAGMA "+tt.pragma).Scan(&got); err != nil {
				t.Fatalf("round %d: PRAGMA %s error = %v", round, tt.pragma, err)
			}
			if got != tt.want {
				t.Errorf("round %d: PRAGMA %s = %q, want %q", round, tt.pragma, got, tt.want)
			}
		}
		conn.Close()
	}
}
