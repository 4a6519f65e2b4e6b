package store_test

import (
	"context"
	"os"
	"testing"

	"github.com/mwillis/wfgraph/graph/hitl/store"
	"github.com/stretchr/testify/require"
)

// TestMySQLStore_Integration validates MySQLStore against a real server.
//
// Prerequisites:
//   - MySQL/MariaDB server running.
//   - TEST_MYSQL_DSN set, e.g. "user:pass@tcp(localhost:3306)/test_db?parseTime=true".
//
// Skipped by default; set TEST_MYSQL_DSN to run.
func TestMySQLStore_Integration(t *testing.T) {
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("set TEST_MYSQL_DSN to run the MySQLStore integration test")
	}

	s, err := store.NewMySQLStore[caseState](dsn)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	key := store.Key{RunID: "mysql-integration-1", NodeName: "gate"}

	_, err = s.RequestApproval(ctx, key, caseState{Value: 1}, "approve?")
	require.NoError(t, err)
	require.NoError(t, s.Approve(ctx, key))

	approved, err := s.IsApproved(ctx, key)
	require.NoError(t, err)
	require.True(t, approved)

	require.NoError(t, s.RemoveApproval(ctx, key))
}
