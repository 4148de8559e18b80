package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfkpk/authgate/internal/peersim"
)

func TestSmokeFlow(t *testing.T) {
	binaryPath := buildBinary(t)

	socketPath := filepath.Join(t.TempDir(), "auth.sock")
	peer := peersim.New(peersim.WithAction("dev.wfkpk.accountsvc.BIND"))
	require.NoError(t, peer.Listen(socketPath))
	t.Cleanup(func() { _ = peer.Close() })

	home := t.TempDir()

	_, stderr, err := runAuthgate(t, binaryPath, home, socketPath,
		"login", "--name", "Primary", "--email", "a@example.com")
	require.NoError(t, err, "stderr: %s", stderr)

	stdout, stderr, err := runAuthgate(t, binaryPath, home, socketPath,
		"account", "list", "--json")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "a@example.com")

	stdout, stderr, err = runAuthgate(t, binaryPath, home, socketPath,
		"account", "active")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "a@example.com")
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "authgate-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/authgate")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build authgate binary: %s", string(output))
	return binaryPath
}

func runAuthgate(t *testing.T, binaryPath, home, socketPath string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(),
		"HOME="+home,
		"AUTHGATE_PEER_SOCKET="+socketPath,
	)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}
