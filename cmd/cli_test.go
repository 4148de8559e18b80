package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfkpk/authgate/internal/peersim"
)

const testAction = "dev.wfkpk.accountsvc.BIND"

func startTestPeer(t *testing.T) string {
	t.Helper()
	socketPath := filepath.Join(t.TempDir(), "auth.sock")
	peer := peersim.New(peersim.WithAction(testAction))
	require.NoError(t, peer.Listen(socketPath))
	t.Cleanup(func() { _ = peer.Close() })
	return socketPath
}

func executeCLI(t *testing.T, socketPath string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("AUTHGATE_PEER_SOCKET", socketPath)

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := executeCLI(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "dev")
}

func TestLoginThenListShowsAccount(t *testing.T) {
	socketPath := startTestPeer(t)

	_, _, err := executeCLI(t, socketPath, "login", "--name", "Primary", "--email", "a@example.com")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, socketPath, "account", "list", "--json")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(stdout)))
	assert.Contains(t, stdout, "a@example.com")
	assert.Contains(t, stdout, "Primary")
}

func TestLoginRequiresIdentityFlags(t *testing.T) {
	socketPath := startTestPeer(t)

	_, _, err := executeCLI(t, socketPath, "login")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provide --name or --email")
}

func TestSwitchChangesActiveAccount(t *testing.T) {
	socketPath := startTestPeer(t)

	_, _, err := executeCLI(t, socketPath, "login", "--name", "Primary", "--email", "a@example.com")
	require.NoError(t, err)
	_, _, err = executeCLI(t, socketPath, "login", "--name", "Secondary", "--email", "b@example.com")
	require.NoError(t, err)

	_, _, err = executeCLI(t, socketPath, "switch", "b@example.com")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, socketPath, "account", "active")
	require.NoError(t, err)
	assert.Contains(t, stdout, "b@example.com")
}

func TestLogoutRemovesAccount(t *testing.T) {
	socketPath := startTestPeer(t)

	_, _, err := executeCLI(t, socketPath, "login", "--email", "a@example.com")
	require.NoError(t, err)

	_, _, err = executeCLI(t, socketPath, "logout", "a@example.com")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, socketPath, "account", "list", "--json")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "a@example.com")
}

func TestLogoutUnknownIdentifierFails(t *testing.T) {
	socketPath := startTestPeer(t)

	_, _, err := executeCLI(t, socketPath, "logout", "nobody@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected")
}

func TestLoginFromSeedFile(t *testing.T) {
	socketPath := startTestPeer(t)

	seedPath := filepath.Join(t.TempDir(), "seed.toml")
	seed := `version = 1

[[accounts]]
name = "Primary"
email = "a@example.com"

[[accounts]]
name = "Secondary"
email = "b@example.com"
`
	require.NoError(t, os.WriteFile(seedPath, []byte(seed), 0o600))

	stdout, _, err := executeCLI(t, socketPath, "login", "--from-file", seedPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Logged in a@example.com")
	assert.Contains(t, stdout, "Logged in b@example.com")

	stdout, _, err = executeCLI(t, socketPath, "status", "--json")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"accounts": 2`)
	assert.Contains(t, stdout, `"active_account": "a@example.com"`)
}

func TestMutatingCommandFailsWhenServiceMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.sock")

	_, _, err := executeCLI(t, missing, "logout-all")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unavailable")
}

func TestStatusDegradesWhenServiceMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.sock")

	stdout, _, err := executeCLI(t, missing, "status", "--json")
	require.NoError(t, err, "queries degrade instead of failing")

	var report statusReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.False(t, report.Connected)
	assert.Zero(t, report.Accounts)
}
