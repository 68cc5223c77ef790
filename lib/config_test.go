package lib

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileConfig(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), ConfigFilePath)
	// define a variable to test upon
	config := DefaultConfig()
	config.LogLevel, config.MemTableSize = "error", "32MB"
	// write to file
	require.NoError(t, config.WriteToFile(filePath))
	// read from file
	got, err := NewConfigFromFile(filePath)
	require.NoError(t, err)
	// compare got vs expected
	require.Equal(t, config, got)
}

func TestLoadOrCreateConfig(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "data")
	// the first load writes the defaults
	c, err := LoadOrCreateConfig(dataDir)
	require.NoError(t, err)
	require.Equal(t, dataDir, c.DataDirPath)
	_, e := os.Stat(filepath.Join(dataDir, ConfigFilePath))
	require.NoError(t, e)
	// later loads read the file back
	c.LogLevel = "warn"
	require.NoError(t, c.WriteToFile(filepath.Join(dataDir, ConfigFilePath)))
	got, err := LoadOrCreateConfig(dataDir)
	require.NoError(t, err)
	require.Equal(t, WarnLevel, got.GetLogLevel())
	// a malformed file is reported
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, ConfigFilePath), []byte("{"), os.ModePerm))
	_, err = LoadOrCreateConfig(dataDir)
	require.Error(t, err)
	require.Equal(t, CodeJSONUnmarshal, err.Code())
}

func TestGetLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		detail   string
		level    string
		expected int32
	}{
		{name: "debug", detail: "abbreviations match", level: "DEBUG", expected: DebugLevel},
		{name: "info", detail: "the default level", level: "info", expected: InfoLevel},
		{name: "warning", detail: "long form matches", level: "warning", expected: WarnLevel},
		{name: "error", detail: "errors only", level: "err", expected: ErrorLevel},
		{name: "unknown", detail: "unknown levels log everything", level: "verbose", expected: DebugLevel},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m := MainConfig{LogLevel: test.level}
			require.Equal(t, test.expected, m.GetLogLevel(), test.detail)
		})
	}
}

func TestInMemoryStoreConfig(t *testing.T) {
	size, err := InMemoryStoreConfig().MemTableBytes()
	require.NoError(t, err)
	require.GreaterOrEqual(t, size, int64(MinMemTableSize))
}

func TestStoreConfigSizes(t *testing.T) {
	tests := []struct {
		name     string
		detail   string
		size     string
		expected int64
		code     ErrorCode
	}{
		{name: "megabytes", detail: "MB is base 2", size: "16MB", expected: 16 << 20},
		{name: "gibibytes", detail: "the iec suffix is accepted", size: "1GiB", expected: 1 << 30},
		{name: "garbage", detail: "a size needs a number", size: "big", code: CodeParseSize},
		{name: "zero", detail: "a size must be positive", size: "0B", code: CodeInvalidArgument},
		{name: "minimum", detail: "the smallest accepted mem table", size: "8MB", expected: MinMemTableSize},
		{name: "too small", detail: "badger rejects mem tables whose batch is below the value threshold", size: "4MB", code: CodeMemTableSize},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := StoreConfig{MemTableSize: test.size}.MemTableBytes()
			if test.code != 0 {
				require.Error(t, err, test.detail)
				require.Equal(t, test.code, err.Code(), test.detail)
				return
			}
			require.NoError(t, err, test.detail)
			require.Equal(t, test.expected, got, test.detail)
		})
	}
}
