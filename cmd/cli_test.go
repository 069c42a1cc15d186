package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPortalCaseJSON = `{
	"caseNumber": "0001234-56.2024.8.26.0100",
	"court": "1st Civil Court",
	"class": "Common Civil Procedure",
	"currentStage": {
		"name": "instruction",
		"current": true,
		"documents": [
			{"id": "doc-1", "title": "Initial Petition", "href": "/docs/00012345620248260100/doc-1"}
		]
	}
}`

func TestProfileAddRequiresCredentialFlag(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home,
		"profile", "add", "prod",
		"--base-url", "https://portal.example.com",
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag(s) \"credential\" not set")
}

func TestProfileAddThenListMarksActive(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home,
		"profile", "add", "prod",
		"--base-url", "https://portal.example.com",
		"--credential", "token-1",
	)
	require.NoError(t, err)

	_, _, err = executeCLI(t, home,
		"profile", "add", "staging",
		"--base-url", "https://staging.example.com",
		"--credential", "token-2",
	)
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "profile", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "* prod  https://portal.example.com")
	assert.Contains(t, stdout, "  staging  https://staging.example.com")
}

func TestProfileUseSwitchesActiveProfile(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "profile", "add", "prod", "--base-url", "https://a", "--credential", "x")
	require.NoError(t, err)
	_, _, err = executeCLI(t, home, "profile", "add", "staging", "--base-url", "https://b", "--credential", "y")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "profile", "use", "staging")
	require.NoError(t, err)
	assert.Contains(t, stdout, "active profile is now \"staging\"")

	stdout, _, err = executeCLI(t, home, "profile", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "* staging")
}

func TestProfileUseUnknownProfileFails(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "profile", "use", "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profile not found")
}

func TestCaseCommandWithoutProfilesFails(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "case", "cover", "00012345620248260100")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no active profile")
}

func TestCaseFullRendersSummary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/cases/00012345620248260100", r.URL.Path)
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		fmt.Fprint(w, testPortalCaseJSON)
	}))
	defer server.Close()

	home := t.TempDir()
	require.NoError(t, writeProfilesFixture(home, server.URL))

	stdout, _, err := executeCLI(t, home, "case", "full", "0001234-56.2024.8.26.0100")
	require.NoError(t, err)
	assert.Contains(t, stdout, "case 0001234-56.2024.8.26.0100")
	assert.Contains(t, stdout, "1st Civil Court")
	assert.Contains(t, stdout, "current:   instruction")
	assert.Contains(t, stdout, "documents: 1")
}

func TestCaseCoverJSONOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/cases/00012345620248260100/cover", r.URL.Path)
		fmt.Fprint(w, `{"caseNumber": "0001234-56.2024.8.26.0100", "court": "1st Civil Court"}`)
	}))
	defer server.Close()

	home := t.TempDir()
	require.NoError(t, writeProfilesFixture(home, server.URL))

	stdout, _, err := executeCLI(t, home, "case", "cover", "00012345620248260100", "--json")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(stdout)))
	assert.Contains(t, stdout, "\"Court\": \"1st Civil Court\"")
}

func TestCasesCommandIsolatesMissingCases(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/cases/search", r.URL.Path)
		fmt.Fprint(w, `{"cases": [{"caseNumber": "00012345620248260100", "court": "1st Civil Court"}]}`)
	}))
	defer server.Close()

	home := t.TempDir()
	require.NoError(t, writeProfilesFixture(home, server.URL))

	stdout, _, err := executeCLI(t, home, "cases", "00012345620248260100", "99999999999999999999")
	require.NoError(t, err)
	assert.Contains(t, stdout, "ok    0001234-56.2024.8.26.0100")
	assert.Contains(t, stdout, "FAIL  9999999-99.9999.9.99.9999")
	assert.Contains(t, stdout, "1 fetched, 1 failed")
}

func TestHealthJSONOutput(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeProfilesFixture(home, "https://portal.example.com"))

	stdout, _, err := executeCLI(t, home, "health", "--json")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(stdout)))
	assert.Contains(t, stdout, "\"RequestsIssued\": 0")
	assert.Contains(t, stdout, "\"Health\"")
}

func TestUnknownCacheBackendFails(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeProfilesFixture(home, "https://portal.example.com"))
	t.Setenv("JURIS_CACHE_BACKEND", "bogus")

	_, _, err := executeCLI(t, home, "case", "cover", "00012345620248260100")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown cache backend \"bogus\"")
}

func TestVersionCommand(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "dev")
}

func executeCLI(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", home)

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeProfilesFixture(home, baseURL string) error {
	configDir := filepath.Join(home, ".juris")
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return err
	}

	profiles := fmt.Sprintf(`version = 1
active = "test"

[[profiles]]
name = "test"
base_url = "%s"
credential = "token-1"
`, baseURL)

	return os.WriteFile(filepath.Join(configDir, "profiles.toml"), []byte(profiles), 0o600)
}
