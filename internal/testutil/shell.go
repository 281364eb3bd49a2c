// Package testutil runs shell snippets under every available POSIX shell.
package testutil

import (
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"mvdan.cc/sh/v3/syntax"
)

// Shells are the interpreters snippets are run under.
var Shells = []string{"sh", "bash"}

// AvailableShells returns the subset of Shells found on PATH, skipping the test when there is none.
func AvailableShells(t *testing.T) []string {
	t.Helper()
	var found []string
	for _, shell := range Shells {
		if _, err := exec.LookPath(shell); err == nil {
			found = append(found, shell)
		}
	}
	if len(found) == 0 {
		t.Skip("no shell (sh or bash) available in test environment")
	}
	return found
}

// RequireCommands skips the test unless every command is on PATH.
func RequireCommands(t *testing.T, commands ...string) {
	t.Helper()
	for _, c := range commands {
		if _, err := exec.LookPath(c); err != nil {
			t.Skipf("command %q not available in test environment", c)
		}
	}
}

func run(shell, script string) (string, error) {
	cmd := exec.Command(shell, "-c", script)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// AssertShellOK runs script under every available shell and fails unless it exits zero.
func AssertShellOK(t *testing.T, script string) {
	t.Helper()
	for _, shell := range AvailableShells(t) {
		out, err := run(shell, script)
		require.NoError(t, err, "shell %s, command %s failed: %s", shell, script, out)
	}
}

// AssertShellErr runs script under every available shell and fails unless it exits non-zero.
func AssertShellErr(t *testing.T, script string) {
	t.Helper()
	for _, shell := range AvailableShells(t) {
		out, err := run(shell, script)
		require.Error(t, err, "shell %s, command %s succeeded: %s", shell, script, out)
	}
}

// AssertSyntax checks script parses as POSIX shell, in Go and with "-n" under every available shell.
func AssertSyntax(t *testing.T, script string) {
	t.Helper()
	_, err := syntax.NewParser(syntax.Variant(syntax.LangPOSIX)).Parse(strings.NewReader(script), "")
	require.NoError(t, err, "script does not parse as POSIX shell:\n%s", script)

	for _, shell := range AvailableShells(t) {
		cmd := exec.Command(shell, "-n")
		cmd.Stdin = strings.NewReader(script)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "shell %s rejected script: %s\n%s", shell, out, script)
	}
}
