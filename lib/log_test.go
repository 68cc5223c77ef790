package lib

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	tests := []struct {
		name   string
		detail string
		level  int32
		log    func(l LoggerI)
		prefix string
		logged bool
	}{
		{
			name:   "debug at debug level",
			detail: "debug is the lowest level",
			level:  DebugLevel,
			log:    func(l LoggerI) { l.Debug("arg1 arg2") },
			prefix: "DEBUG:",
			logged: true,
		},
		{
			name:   "debug at info level",
			detail: "debug lines are dropped above the debug level",
			level:  InfoLevel,
			log:    func(l LoggerI) { l.Debugf("arg1 %s", "arg2") },
			prefix: "DEBUG:",
			logged: false,
		},
		{
			name:   "info",
			detail: "info is logged at the info level",
			level:  InfoLevel,
			log:    func(l LoggerI) { l.Infof("arg1 %s", "arg2") },
			prefix: "INFO:",
			logged: true,
		},
		{
			name:   "warn at error level",
			detail: "warn lines are dropped at the error level",
			level:  ErrorLevel,
			log:    func(l LoggerI) { l.Warn("arg1 arg2") },
			prefix: "WARN:",
			logged: false,
		},
		{
			name:   "error",
			detail: "errors are always logged",
			level:  ErrorLevel,
			log:    func(l LoggerI) { l.Errorf("arg1 %s", "arg2") },
			prefix: "ERROR:",
			logged: true,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			buf := bytes.NewBuffer(nil)
			test.log(NewLogger(LoggerConfig{Level: test.level, NoColor: true, Out: buf}))
			require.Equal(t, test.logged, strings.Contains(buf.String(), test.prefix+" arg1 arg2"), test.detail)
		})
	}
}

func TestLoggerWithModule(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	l := NewLogger(LoggerConfig{Level: DebugLevel, NoColor: true, Out: buf})
	l.WithModule("kvstore").Info("created")
	l.Print("plain")
	got := buf.String()
	require.Contains(t, got, "INFO: [kvstore] created")
	require.Contains(t, got, "plain\n")
	// the module does not leak into the parent logger
	require.NotContains(t, got, "[kvstore] plain")
}

func TestLoggerMultiline(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	NewLogger(LoggerConfig{Level: DebugLevel, NoColor: true, Out: buf}).Debug("line1\nline2")
	require.Contains(t, buf.String(), "DEBUG: line1\nline2\n")
}
