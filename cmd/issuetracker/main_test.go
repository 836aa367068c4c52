package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"issuetracker/internal/output"
	"issuetracker/internal/storage/sqlite"
	"issuetracker/internal/storage/storagetest"
)

// testEnv sets up an isolated config dir, viper and output for testing.
func testEnv(t *testing.T) (string, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()

	origFunc := configDirFunc
	configDirFunc = func() (string, error) { return dir, nil }
	t.Cleanup(func() { configDirFunc = origFunc })

	viper.Reset()
	setDefaults()
	t.Cleanup(viper.Reset)

	out := &bytes.Buffer{}
	ui = &output.UI{Out: out, ErrOut: out}

	return dir, out
}

func TestSetDefaults(t *testing.T) {
	dir, _ := testEnv(t)

	assert.Equal(t, ":8080", viper.GetString("addr"))
	assert.Equal(t, "sqlite", viper.GetString("storage.driver"))
	assert.Equal(t, filepath.Join(dir, "issues.db"), viper.GetString("storage.sqlite.path"))
	assert.Equal(t, "issuetracker", viper.GetString("storage.mongo.database"))
}

func TestConfigInit_CreatesFile(t *testing.T) {
	dir, out := testEnv(t)
	configForce = false

	require.NoError(t, configInitRun())

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "issuetracker configuration")
	assert.Contains(t, string(data), `driver: "sqlite"`)
	assert.Contains(t, out.String(), "Config file created")
}

func TestConfigInit_RefusesOverwrite(t *testing.T) {
	dir, _ := testEnv(t)

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("existing"), 0644))

	configForce = false
	err := configInitRun()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	configForce = true
	t.Cleanup(func() { configForce = false })
	require.NoError(t, configInitRun())

	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.NotEqual(t, "existing", string(data))
}

func TestConfigShow_Sources(t *testing.T) {
	dir, out := testEnv(t)

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("storage:\n  driver: mongo\n"), 0644))
	t.Setenv("ISSUES_LOG_LEVEL", "debug")

	require.NoError(t, configShowRun())

	s := out.String()
	assert.Contains(t, s, cfgPath)
	assert.Regexp(t, `storage\.driver\s+\S+\s+file`, s)
	assert.Regexp(t, `log\.level\s+\S+\s+env ISSUES_LOG_LEVEL`, s)
	assert.Regexp(t, `addr\s+:8080\s+default`, s)
	assert.Regexp(t, `storage\.mongo\.uri\s+\S+\s+default`, s)
}

func TestConfigShow_NoFile(t *testing.T) {
	_, out := testEnv(t)

	require.NoError(t, configShowRun())
	assert.Contains(t, out.String(), "Config file: (none)")
	assert.Regexp(t, `storage\.driver\s+sqlite\s+default`, out.String())
}

func TestHasKey(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("addr: \":9000\"\nstorage:\n  mongo:\n    uri: mongodb://db\n"), 0644))

	doc, err := loadConfigDoc(cfgPath)
	require.NoError(t, err)

	assert.True(t, hasKey(doc, "addr"))
	assert.True(t, hasKey(doc, "storage.mongo.uri"))
	assert.False(t, hasKey(doc, "storage"))
	assert.False(t, hasKey(doc, "storage.mongo.database"))
	assert.False(t, hasKey(doc, "log.level"))

	missing, err := loadConfigDoc(filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.False(t, hasKey(missing, "addr"))
}

func TestNewLogger_Level(t *testing.T) {
	testEnv(t)
	ctx := context.Background()

	viper.Set("log.level", "warn")
	logger := newLogger(&bytes.Buffer{})
	assert.False(t, logger.Enabled(ctx, slog.LevelInfo))
	assert.True(t, logger.Enabled(ctx, slog.LevelWarn))

	viper.Set("log.level", "bogus")
	logger = newLogger(&bytes.Buffer{})
	assert.True(t, logger.Enabled(ctx, slog.LevelInfo))
	assert.False(t, logger.Enabled(ctx, slog.LevelDebug))
}

func TestNewLogger_JSON(t *testing.T) {
	testEnv(t)
	viper.Set("log.format", "json")

	var buf bytes.Buffer
	newLogger(&buf).Info("hello", slog.String("k", "v"))
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"k":"v"`)
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	testEnv(t)
	viper.Set("storage.driver", "postgres")

	_, err := openStore(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage driver")
}

func TestOpenStore_SQLite(t *testing.T) {
	dir, _ := testEnv(t)

	s, err := openStore(context.Background(), nil)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Ping(context.Background()))
	_, err = os.Stat(filepath.Join(dir, "issues.db"))
	assert.NoError(t, err)
}

func TestIssueListRun(t *testing.T) {
	dir, out := testEnv(t)

	s, err := sqlite.Open(filepath.Join(dir, "issues.db"), nil)
	require.NoError(t, err)
	storagetest.Seed(t, s, "apitest", "Broken login")
	storagetest.Seed(t, s, "apitest", "Slow search")
	storagetest.Seed(t, s, "other", "Not listed")
	require.NoError(t, s.Close())

	require.NoError(t, issueListRun(context.Background(), "apitest", nil))
	assert.Contains(t, out.String(), "Broken login")
	assert.Contains(t, out.String(), "Slow search")
	assert.NotContains(t, out.String(), "Not listed")

	out.Reset()
	require.NoError(t, issueListRun(context.Background(), "apitest", []string{"issue_title=Slow search"}))
	assert.Contains(t, out.String(), "Slow search")
	assert.NotContains(t, out.String(), "Broken login")

	out.Reset()
	require.NoError(t, issueListRun(context.Background(), "empty", nil))
	assert.Contains(t, out.String(), "No issues found")
}

func TestIssueListRun_BadFilters(t *testing.T) {
	testEnv(t)

	err := issueListRun(context.Background(), "apitest", []string{"novalue"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter")

	err = issueListRun(context.Background(), "apitest", []string{"priority=high"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported filter")
}
