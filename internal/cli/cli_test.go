package cli

import (
	"bytes"
	"context"
	"encoding/csv"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/chart"
	"tally/internal/chart/chartjs"
	"tally/internal/core"
	apphttp "tally/internal/http"
	"tally/internal/log"
)

// setupEnv points the commands at a fresh file backend.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATA_BACKEND", "file")
	t.Setenv("DATA_DIR", dir)
	t.Setenv("STORAGE_KEY", "expenses")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("AMQP_URL", "")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err, "tally %s", strings.Join(args, " "))
	return out
}

func TestAddListScenario(t *testing.T) {
	dir := setupEnv(t)

	out := mustRun(t, "add", "--name", "Coffee", "--amount", "3.50", "--category", "Food", "--date", "2024-01-05")
	assert.Contains(t, out, "Coffee $3.50 [Food] on 2024-01-05")
	mustRun(t, "add", "--name", "Bus", "--amount", "2.00", "--category", "Transport", "--date", "2024-01-10")

	out = mustRun(t, "list")
	assert.Contains(t, out, "Coffee")
	assert.Contains(t, out, "Bus")
	assert.Regexp(t, `TOTAL\s+\$5\.50`, out)
	assert.Regexp(t, `Food\s+\$3\.50`, out)
	assert.Regexp(t, `Transport\s+\$2\.00`, out)

	out = mustRun(t, "list", "--start", "2024-01-06")
	assert.NotContains(t, out, "Coffee")
	assert.Regexp(t, `TOTAL\s+\$2\.00`, out)

	out = mustRun(t, "list", "--sort", "desc")
	assert.Less(t, strings.Index(out, "Bus"), strings.Index(out, "Coffee"))

	// The blob on disk is the JSON array with numeric amounts.
	raw, err := os.ReadFile(filepath.Join(dir, "expenses.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"amount":3.50`)
}

func TestAddValidation(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "add", "--name", "Coffee", "--category", "Food")
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))

	_, err = run(t, "add", "--name", "Coffee", "--amount", "-1", "--category", "Food")
	assert.True(t, core.IsValidation(err))

	out := mustRun(t, "list")
	assert.Regexp(t, `TOTAL\s+\$0\.00`, out)
}

func loadIDs(t *testing.T) []int64 {
	t.Helper()
	out := mustRun(t, "export")
	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	var ids []int64
	for _, rec := range records[1:] {
		id, err := strconv.ParseInt(rec[0], 10, 64)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func TestEditAndDelete(t *testing.T) {
	setupEnv(t)
	mustRun(t, "add", "--name", "Coffee", "--amount", "3.50", "--category", "Food", "--date", "2024-01-05")
	mustRun(t, "add", "--name", "Bus", "--amount", "2.00", "--category", "Transport", "--date", "2024-01-10")
	ids := loadIDs(t)
	require.Len(t, ids, 2)
	coffee := strconv.FormatInt(ids[0], 10)

	out := mustRun(t, "edit", coffee, "--amount", "6.00")
	assert.Contains(t, out, "Updated expense "+coffee)

	out = mustRun(t, "list")
	assert.Regexp(t, `TOTAL\s+\$8\.00`, out)
	assert.Contains(t, out, "2024-01-05")

	_, err := run(t, "edit", "42", "--amount", "1")
	assert.ErrorIs(t, err, core.ErrNotFound)

	out = mustRun(t, "delete", strconv.FormatInt(ids[1], 10))
	assert.Contains(t, out, "Deleted expense")
	out = mustRun(t, "delete", "42")
	assert.Contains(t, out, "No expense with id 42")

	assert.Equal(t, []int64{ids[0]}, loadIDs(t))

	_, err = run(t, "delete", "abc")
	assert.Error(t, err)
}

func TestExportToFile(t *testing.T) {
	dir := setupEnv(t)
	mustRun(t, "add", "--name", "Coffee", "--amount", "3.50", "--category", "Food", "--date", "2024-01-05")

	target := filepath.Join(dir, "out.csv")
	mustRun(t, "export", "-o", target, "--end", "2024-01-31")

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "id,name,amount,category,date", lines[0])
	assert.True(t, strings.HasSuffix(lines[1], ",Coffee,3.50,Food,2024-01-05"))
}

func TestInvalidConfig(t *testing.T) {
	setupEnv(t)
	t.Setenv("DATA_BACKEND", "postgres")

	_, err := run(t, "list")
	assert.ErrorContains(t, err, "invalid data backend")
}

func TestMemoryBackendStartsEmpty(t *testing.T) {
	setupEnv(t)
	t.Setenv("DATA_BACKEND", "memory")
	mustRun(t, "add", "--name", "Coffee", "--amount", "3.50", "--category", "Food")

	// Each invocation gets a fresh in-memory store.
	out := mustRun(t, "list")
	assert.NotContains(t, out, "Coffee")
}

func TestRunServerStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	setupEnv(t)
	cfg, err := LoadAndValidateConfig()
	require.NoError(t, err)
	app, err := OpenApp(context.Background(), cfg, log.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	srv := apphttp.NewServer(addr, apphttp.Deps{
		Store:  app.Store,
		Forms:  app.Forms,
		Lister: app.Lister,
		Charts: chart.NewRenderer(chartjs.NewDrawer()),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServer(ctx, srv, log.Discard(), time.Second) }()

	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
