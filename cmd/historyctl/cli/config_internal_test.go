package cli

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_LoadConfig_Defaults(t *testing.T) {
	// setup
	v := newViper()

	// act
	cfg, err := loadConfig(v)

	// assert
	require.NoError(t, err)
	assert.Equal(t, Config{
		Backend:         backendSQLite,
		SQLitePath:      defaultSQLite,
		PostgresDSN:     defaultPostgres,
		PostgresAdapter: adapterPGXPool,
		HistoryTable:    defaultHistory,
		LogLevel:        slog.LevelWarn,
		LogFormat:       logFormatText,
	}, cfg)
}

func Test_LoadConfig_When_EnvironmentIsSet_OverridesDefaults(t *testing.T) {
	// setup
	t.Setenv("HISTORYCTL_BACKEND", "postgres")
	t.Setenv("HISTORYCTL_POSTGRES_ADAPTER", "sqlx.db")
	t.Setenv("HISTORYCTL_LOG_LEVEL", "debug")
	v := newViper()

	// act
	cfg, err := loadConfig(v)

	// assert
	require.NoError(t, err)
	assert.Equal(t, backendPostgres, cfg.Backend)
	assert.Equal(t, adapterSQLXDB, cfg.PostgresAdapter)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func Test_ReadConfigFile_ReadsYAML(t *testing.T) {
	// setup
	configFile := filepath.Join(t.TempDir(), "historyctl.yaml")
	yaml := "backend: sqlite\nsqlite:\n  path: /tmp/tasks.db\nhistory:\n  table: task_history\nlog:\n  format: json\n"
	require.NoError(t, os.WriteFile(configFile, []byte(yaml), 0o600))
	v := newViper()

	// act
	require.NoError(t, readConfigFile(v, configFile))
	cfg, err := loadConfig(v)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "/tmp/tasks.db", cfg.SQLitePath)
	assert.Equal(t, "task_history", cfg.HistoryTable)
	assert.Equal(t, logFormatJSON, cfg.LogFormat)
}

func Test_ReadConfigFile_When_ExplicitFileIsMissing_ReturnsError(t *testing.T) {
	// act
	err := readConfigFile(newViper(), filepath.Join(t.TempDir(), "missing.yaml"))

	// assert
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func Test_LoadConfig_InvalidValues(t *testing.T) {
	testCases := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown backend", key: keyBackend, value: "oracle"},
		{name: "unknown adapter", key: keyPostgresAdapter, value: "pgx.conn"},
		{name: "unknown log format", key: keyLogFormat, value: "xml"},
		{name: "unknown log level", key: keyLogLevel, value: "loud"},
		{name: "empty history table", key: keyHistoryTable, value: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// setup
			v := newViper()
			v.Set(tc.key, tc.value)

			// act
			_, err := loadConfig(v)

			// assert
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
