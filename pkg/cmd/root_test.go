package cmd

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	stdOutWriter = buf
	t.Cleanup(func() { stdOutWriter = nil })

	command := CreateCommand()
	command.SetErr(new(bytes.Buffer))
	command.SetArgs(append(args, "--configfile", filepath.Join(t.TempDir(), "none.yaml")))
	err := command.Execute()
	return buf.String(), err
}

func TestLookupCommand(t *testing.T) {
	t.Run("without geo database", func(t *testing.T) {
		out, err := runCommand(t, "lookup", "--ip", "192.0.2.1", "--user-agent", "curl/8.5.0", "--accept-language", "de")

		require.NoError(t, err)
		assert.JSONEq(t, `{"ua": "curl/8.5.0", "addr": "192.0.2.1"}`, out)
	})
	t.Run("no input at all", func(t *testing.T) {
		out, err := runCommand(t, "lookup")

		require.NoError(t, err)
		assert.JSONEq(t, `{}`, out)
	})
	t.Run("missing geo database", func(t *testing.T) {
		_, err := runCommand(t, "lookup", "--ip", "192.0.2.1", "--geoip.citydb", filepath.Join(t.TempDir(), "missing.mmdb"))

		assert.ErrorContains(t, err, "unable to open city database")
	})
	t.Run("invalid config", func(t *testing.T) {
		_, err := runCommand(t, "lookup", "--loggerformat", "xml")

		assert.ErrorContains(t, err, "loggerformat must be text or json")
	})
}

func TestPrintConfigCommand(t *testing.T) {
	out, err := runCommand(t, "config", "--address", ":9999", "--storage.redis.password", "secret")

	require.NoError(t, err)
	var printed map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &printed))
	assert.Equal(t, ":9999", printed["Address"])
	assert.NotContains(t, out, "secret")
	assert.Contains(t, out, "(redacted)")
}

func Test_redact(t *testing.T) {
	assert.Empty(t, redact(""))
	assert.Equal(t, "(redacted)", redact("hunter2"))
}
