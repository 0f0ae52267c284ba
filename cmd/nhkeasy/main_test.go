package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nhkeasy/internal/pipeline"
	"nhkeasy/internal/store"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	return executeWithDSN(t, "", args...)
}

func executeWithDSN(t *testing.T, dsn string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATABASE_URL", dsn)

	var out bytes.Buffer

	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())

	return out.String(), err
}

func TestBackfill_RejectsConflictingRange(t *testing.T) {
	out, err := execute(t, "backfill", "--days", "3", "--start-date", "2025-12-01", "--end-date", "2025-12-02", "--dry-run")
	require.ErrorIs(t, err, pipeline.ErrInvalidRange)

	// The summary is printed even when the run fails
	assert.Contains(t, out, "| State")
	assert.Contains(t, out, "failed")
}

func TestBackfill_RequiresStoreUnlessDryRun(t *testing.T) {
	out, err := execute(t, "backfill", "--days", "1")
	require.ErrorIs(t, err, pipeline.ErrStoreRequired)
	assert.Contains(t, out, "| State")
	assert.Contains(t, out, "failed")
}

func TestBackfill_StoreUnavailablePrintsSummary(t *testing.T) {
	out, err := executeWithDSN(t, "postgres://nhk@localhost:notaport/nhkeasy",
		"backfill", "--start-date", "2025-12-01", "--end-date", "2025-12-02")
	require.ErrorIs(t, err, store.ErrPersistence)

	assert.Contains(t, out, "| State")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "2025-12-01 to 2025-12-02")
}

func TestBackfill_InvalidLogLevel(t *testing.T) {
	_, err := execute(t, "--log-level", "loud", "backfill", "--days", "1", "--dry-run")
	require.Error(t, err)
}

func TestRoot_HasSubcommands(t *testing.T) {
	cmd := newRootCmd()

	for _, name := range []string{"backfill", "serve", "migrate"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
}

func TestMigrate_RequiresDatabase(t *testing.T) {
	_, err := execute(t, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no database configured")
}
