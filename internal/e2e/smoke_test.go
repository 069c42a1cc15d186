package e2e

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)

	portal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/cases/00012345620248260100" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"caseNumber": "0001234-56.2024.8.26.0100",
			"court": "1st Civil Court",
			"class": "Common Civil Procedure",
			"currentStage": {
				"name": "instruction",
				"current": true,
				"documents": [{"id": "doc-1", "title": "Initial Petition", "href": "/docs/doc-1"}]
			}
		}`)
	}))
	t.Cleanup(portal.Close)

	require.NoError(t, writeProfilesFixture(home, portal.URL))

	stdout, stderr, err := runJuris(t, binaryPath, home, "case", "full", "0001234-56.2024.8.26.0100")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "case 0001234-56.2024.8.26.0100")
	assert.Contains(t, stdout, "1st Civil Court")
	assert.Contains(t, stdout, "documents: 1")

	stdout, stderr, err = runJuris(t, binaryPath, home, "version")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "dev")
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "juris-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/juris")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build juris binary: %s", string(output))
	return binaryPath
}

func runJuris(t *testing.T, binaryPath, home string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "HOME="+home)

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

func writeProfilesFixture(home, baseURL string) error {
	configDir := filepath.Join(home, ".juris")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return err
	}

	profiles := fmt.Sprintf(`version = 1
active = "test"

[[profiles]]
name = "test"
base_url = %q
credential = "test-credential"
`, baseURL)

	return os.WriteFile(filepath.Join(configDir, "profiles.toml"), []byte(profiles), 0o600)
}
