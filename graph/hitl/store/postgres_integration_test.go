//go:build integration

package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mwillis/wfgraph/graph/hitl/store"
)

// startPostgres runs a throwaway PostgreSQL container and returns a DSN
// for it. The container is terminated via t.Cleanup.
func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "wfgraph_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections"),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	// The log line fires slightly before the server accepts connections.
	time.Sleep(500 * time.Millisecond)

	return fmt.Sprintf("postgres://test:test@%s:%s/wfgraph_test?sslmode=disable", host, port.Port())
}

func TestPostgresStore_Integration(t *testing.T) {
	dsn := startPostgres(t)

	s, err := store.NewPostgresStore[caseState](dsn)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()

	t.Run("approval round trip", func(t *testing.T) {
		key := store.Key{RunID: "pg-integration-1", NodeName: "gate"}

		_, err := s.RequestApproval(ctx, key, caseState{Value: 1}, "approve?")
		require.NoError(t, err)
		require.NoError(t, s.Approve(ctx, key))

		approved, err := s.IsApproved(ctx, key)
		require.NoError(t, err)
		require.True(t, approved)
		require.NoError(t, s.RemoveApproval(ctx, key))
	})

	t.Run("decision validates options", func(t *testing.T) {
		key := store.Key{RunID: "pg-integration-1", NodeName: "route"}

		_, err := s.RequestDecision(ctx, key, caseState{}, "ship?", []string{"ship", "hold"})
		require.NoError(t, err)
		require.ErrorIs(t, s.SetDecision(ctx, key, "cancel"), store.ErrInvalidOption)
		require.NoError(t, s.SetDecision(ctx, key, "hold"))

		record, err := s.GetDecision(ctx, key)
		require.NoError(t, err)
		require.Equal(t, "hold", record.Option)
	})

	t.Run("review round trip", func(t *testing.T) {
		key := store.Key{RunID: "pg-integration-1", NodeName: "review"}

		_, err := s.RequestReview(ctx, key, caseState{Value: 1}, "double check", true)
		require.NoError(t, err)
		require.NoError(t, s.SetReviewedState(ctx, key, caseState{Value: 2}))

		record, err := s.GetReview(ctx, key)
		require.NoError(t, err)
		require.Equal(t, 2, record.ReviewedState.Value)
		require.NoError(t, s.RemoveReview(ctx, key))
	})
}
