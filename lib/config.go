package lib

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/units"
)

/* This file implements logic for 'user controlled' configurations of the prover tooling */

const (
	// FILE NAMES in the 'data directory'
	ConfigFilePath = "config.json" // the file path for the configuration

	// MinMemTableSize keeps badger's largest batch (15% of a mem table) above its 1MiB value threshold
	MinMemTableSize = 8 << 20
)

// Config is the structure of the user configuration options
type Config struct {
	MainConfig    // main options spanning over all modules
	StoreConfig   // persistence options
	MetricsConfig // telemetry options
}

// DefaultConfig() returns a Config with developer set options
func DefaultConfig() Config {
	return Config{
		MainConfig:    DefaultMainConfig(),
		StoreConfig:   DefaultStoreConfig(),
		MetricsConfig: DefaultMetricsConfig(),
	}
}

// MAIN CONFIG BELOW

type MainConfig struct {
	LogLevel string `json:"logLevel"` // any level includes the levels above it: debug < info < warning < error
	NoColor  bool   `json:"noColor"`  // disable colored log output
}

// DefaultMainConfig() sets log level to 'info'
func DefaultMainConfig() MainConfig {
	return MainConfig{
		LogLevel: "info", // everything but debug is the default
	}
}

// GetLogLevel() parses the log string in the config file into a LogLevel Enum
func (m *MainConfig) GetLogLevel() int32 {
	switch {
	case strings.Contains(strings.ToLower(m.LogLevel), "deb"):
		return DebugLevel
	case strings.Contains(strings.ToLower(m.LogLevel), "inf"):
		return InfoLevel
	case strings.Contains(strings.ToLower(m.LogLevel), "war"):
		return WarnLevel
	case strings.Contains(strings.ToLower(m.LogLevel), "err"):
		return ErrorLevel
	default:
		return DebugLevel
	}
}

// STORE CONFIG BELOW

// StoreConfig is user configurations for the key value database that backs the proof generator
type StoreConfig struct {
	DataDirPath      string `json:"dataDirPath"`      // path of the designated folder where the application stores its data
	DBName           string `json:"dbName"`           // name of the database
	InMemory         bool   `json:"inMemory"`         // non-disk database, only for testing
	MemTableSize     string `json:"memTableSize"`     // human readable size of each in-memory table (ex. 16MB)
	ValueLogFileSize string `json:"valueLogFileSize"` // human readable size of each value log file (ex. 64MB)
}

// DefaultStoreConfig() returns the developer recommended store configuration
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		DataDirPath:      DefaultDataDirPath(), // use the default data dir path
		DBName:           "smtkv",              // 'smtkv' database name
		InMemory:         false,                // persist to disk, not memory
		MemTableSize:     "16MB",               // small tables; the tree is written one batch at a time
		ValueLogFileSize: "64MB",               // small value logs; values are small byte strings
	}
}

// InMemoryStoreConfig() returns a store configuration suitable for tests and ephemeral generators
func InMemoryStoreConfig() StoreConfig {
	c := DefaultStoreConfig()
	c.InMemory, c.DataDirPath = true, ""
	c.MemTableSize, c.ValueLogFileSize = "16MB", "8MB"
	return c
}

// MemTableBytes() parses the human readable mem table size and enforces MinMemTableSize
func (s StoreConfig) MemTableBytes() (int64, ErrorI) {
	size, err := parseSize(s.MemTableSize)
	if err != nil {
		return 0, err
	}
	if size < MinMemTableSize {
		return 0, ErrMemTableTooSmall(s.MemTableSize)
	}
	return size, nil
}

// ValueLogFileBytes() parses the human readable value log file size
func (s StoreConfig) ValueLogFileBytes() (int64, ErrorI) { return parseSize(s.ValueLogFileSize) }

// parseSize() converts strings like '16MB' or '1GiB' into a count of bytes
func parseSize(s string) (int64, ErrorI) {
	size, err := units.ParseBase2Bytes(s)
	if err != nil {
		return 0, ErrParseSize(err)
	}
	if size <= 0 {
		return 0, ErrInvalidArgument()
	}
	return int64(size), nil
}

// METRICS CONFIG BELOW

// MetricsConfig represents the configuration for the metrics
type MetricsConfig struct {
	MetricsEnabled bool   `json:"metricsEnabled"` // if the metrics are enabled
	Namespace      string `json:"namespace"`      // the prometheus namespace prefixed to every metric
}

// DefaultMetricsConfig() returns the default metrics configuration
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MetricsEnabled: true,
		Namespace:      "smtkv",
	}
}

// DefaultDataDirPath() is $USERHOME/.smtkv
func DefaultDataDirPath() string {
	// get the user home
	home, err := os.UserHomeDir()
	// if unable to get the user home
	if err != nil {
		// fatal error
		panic(err)
	}
	// exit with full default data directory path
	return filepath.Join(home, ".smtkv")
}

// WriteToFile() saves the Config object to a JSON file
func (c Config) WriteToFile(filepath string) ErrorI {
	configBz, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return ErrJSONMarshal(err)
	}
	if err = os.WriteFile(filepath, configBz, os.ModePerm); err != nil {
		return ErrWriteFile(err)
	}
	return nil
}

// NewConfigFromFile() populates a Config object from a JSON file
func NewConfigFromFile(filepath string) (Config, ErrorI) {
	bz, err := os.ReadFile(filepath)
	if err != nil {
		return Config{}, ErrReadFile(err)
	}
	c := DefaultConfig()
	if err = json.Unmarshal(bz, &c); err != nil {
		return Config{}, ErrJSONUnmarshal(err)
	}
	return c, nil
}

// LoadOrCreateConfig() reads the configuration from the data directory, writing the defaults there if missing
func LoadOrCreateConfig(dataDirPath string) (Config, ErrorI) {
	if err := os.MkdirAll(dataDirPath, os.ModePerm); err != nil {
		return Config{}, ErrWriteFile(err)
	}
	path := filepath.Join(dataDirPath, ConfigFilePath)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		c := DefaultConfig()
		c.DataDirPath = dataDirPath
		if e := c.WriteToFile(path); e != nil {
			return Config{}, e
		}
		return c, nil
	}
	c, err := NewConfigFromFile(path)
	if err != nil {
		return Config{}, err
	}
	// the data directory is always the one the config was loaded from
	c.DataDirPath = dataDirPath
	return c, nil
}
