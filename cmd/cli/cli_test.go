package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectShell(t *testing.T) {
	tests := []struct {
		name     string
		detail   string
		shell    string
		expected string
	}{
		{name: "bash", detail: "a bash path is detected", shell: "/bin/bash", expected: "bash"},
		{name: "zsh", detail: "a zsh path is detected", shell: "/usr/local/bin/zsh", expected: "zsh"},
		{name: "fish", detail: "fish is detected but has no completion", shell: "/usr/bin/fish", expected: "fish"},
		{name: "unset", detail: "an unset shell is unknown", shell: "", expected: ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Setenv("SHELL", test.shell)
			require.Equal(t, test.expected, detectShell(), test.detail)
		})
	}
}

func TestSkippedInitializeLogger(t *testing.T) {
	// version and completion write through writeToConsole without running initialize()
	require.NotNil(t, l)
	writeToConsole(SoftwareVersion, nil)
	writeToConsole(3, nil)
}
