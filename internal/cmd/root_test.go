package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ezerfernandes/mddoctest/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupDocs writes files under a temp dir together with a config that runs
// blocks with sh, and returns the dir and the config path.
func setupDocs(t *testing.T, files map[string]string) (string, string) {
	t.Helper()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	dir := t.TempDir()

	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	cfg := filepath.Join(dir, "mddoctest.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("runtime: sh -c\nlog_level: error\n"), 0o644))

	return dir, cfg
}

func execute(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer

	code := Execute(args, &stdout, &stderr)

	return code, stdout.String(), stderr.String()
}

const (
	passingDoc = "# Passing\n\n```js\necho hello\n```\n"
	failingDoc = "# Failing\n\n```js\ntrue\n```\n\n```javascript\nexit 1\n```\n"
)

func TestCheckPassingFile(t *testing.T) {
	dir, cfg := setupDocs(t, map[string]string{"a.md": passingDoc})
	file := filepath.Join(dir, "a.md")

	code, stdout, stderr := execute("--config", cfg, "--file", file)

	assert.Equal(t, 0, code)
	assert.Equal(t, "\n1 passed, 0 failed\n\n", stdout)
	assert.Empty(t, stderr)
}

func TestCheckFailingFile(t *testing.T) {
	dir, cfg := setupDocs(t, map[string]string{"b.md": failingDoc})
	file := filepath.Join(dir, "b.md")

	code, stdout, _ := execute("--config", cfg, "--file", file)

	assert.Equal(t, 1, code)
	assert.Equal(t, "\n1 passed, 1 failed\n\nFailed checks:\n- "+file+":7\n", stdout)
}

func TestCheckNoBlocks(t *testing.T) {
	dir, cfg := setupDocs(t, map[string]string{"c.md": "# Shell only\n\n```sh\nexit 1\n```\n"})

	code, stdout, _ := execute("--config", cfg, "--file", filepath.Join(dir, "c.md"))

	assert.Equal(t, 0, code)
	assert.Equal(t, "\n1 passed, 0 failed\n\n", stdout)
}

func TestCheckInertInfoString(t *testing.T) {
	dir, cfg := setupDocs(t, map[string]string{
		"c.md": "# Shell\n\n```console don't run this\n$ ls\n```\n\n```js\necho ok\n```\n",
	})
	file := filepath.Join(dir, "c.md")

	code, stdout, stderr := execute("--config", cfg, "--file", file, "--json")

	assert.Equal(t, 0, code, stderr)

	var rep report.FileReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &rep))
	assert.Equal(t, []report.Entry{{Line: 7, Filename: file}}, rep.Pass)
	assert.Empty(t, rep.Fail)

	code, stdout, _ = execute("list", "--config", cfg, "--file", file)
	require.Equal(t, 0, code)
	assert.Len(t, strings.Split(strings.TrimSpace(stdout), "\n"), 2)
}

func TestCheckJSON(t *testing.T) {
	dir, cfg := setupDocs(t, map[string]string{"b.md": failingDoc})
	file := filepath.Join(dir, "b.md")

	code, stdout, _ := execute("--config", cfg, "--file", file, "--json")
	assert.Equal(t, 1, code)

	var rep report.FileReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &rep))
	assert.Equal(t, []report.Entry{{Line: 3, Filename: file}}, rep.Pass)
	assert.Equal(t, []report.Entry{{Line: 7, Filename: file}}, rep.Fail)
}

func TestCheckSilent(t *testing.T) {
	dir, cfg := setupDocs(t, map[string]string{"b.md": failingDoc})

	code, stdout, stderr := execute("--config", cfg, "--file", filepath.Join(dir, "b.md"), "--silent")

	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Empty(t, stderr)
}

func TestCheckDir(t *testing.T) {
	dir, cfg := setupDocs(t, map[string]string{
		"a.md":              passingDoc,
		"docs/b.md":         failingDoc,
		"docs/notes.txt":    "```js\nexit 1\n```\n",
		"docs/broken.md":    "# \xff\xfe\n",
		"docs/deep/c.md":    "no code\n",
		"node_modules/x.md": "```js\nexit 1\n```\n",
	})

	code, stdout, stderr := execute("--config", cfg, "--dir", dir, "--json")
	assert.Equal(t, 1, code)

	var rep report.FileReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &rep))

	assert.Equal(t, []report.Entry{
		{Line: 3, Filename: filepath.Join(dir, "a.md")},
		{Line: 3, Filename: filepath.Join(dir, "docs", "b.md")},
		{Line: 1, Filename: filepath.Join(dir, "docs", "deep", "c.md")},
	}, rep.Pass)
	assert.Equal(t, []report.Entry{
		{Line: 7, Filename: filepath.Join(dir, "docs", "b.md")},
	}, rep.Fail)

	assert.Contains(t, stderr, "broken.md")
	assert.Contains(t, stderr, "not valid UTF-8")
}

func TestCheckConflictingFlags(t *testing.T) {
	dir, cfg := setupDocs(t, nil)

	marker := filepath.Join(dir, "ran")
	file := filepath.Join(dir, "a.md")
	require.NoError(t, os.WriteFile(file, []byte("```js\ntouch '"+marker+"'\n```\n"), 0o644))

	code, stdout, stderr := execute("--config", cfg, "--file", file, "--dir", dir)
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "either a file or a directory")

	code, stdout, stderr = execute("--config", cfg, "--file", file, "--json", "--silent")
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "--json and --silent")

	assert.NoFileExists(t, marker)

	// the same document does run once the selection is valid
	code, _, _ = execute("--config", cfg, "--file", file, "--silent")
	assert.Equal(t, 0, code)
	assert.FileExists(t, marker)
}

func TestCheckMissingRuntime(t *testing.T) {
	dir, _ := setupDocs(t, map[string]string{"a.md": passingDoc})

	cfg := filepath.Join(dir, "missing.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("runtime: mddoctest-no-such-runtime --eval\n"), 0o644))

	code, stdout, stderr := execute("--config", cfg, "--file", filepath.Join(dir, "a.md"))

	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "cannot start runtime")
}

func TestCheckMissingFile(t *testing.T) {
	dir, cfg := setupDocs(t, nil)

	code, _, stderr := execute("--config", cfg, "--file", filepath.Join(dir, "nope.md"), "--silent")

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "nope.md")
}

func TestCheckMissingConfig(t *testing.T) {
	dir, _ := setupDocs(t, map[string]string{"a.md": passingDoc})

	code, _, stderr := execute("--config", filepath.Join(dir, "absent.yaml"), "--file", filepath.Join(dir, "a.md"))

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "config file")
}

func TestCheckInvalidFlags(t *testing.T) {
	dir, cfg := setupDocs(t, map[string]string{"a.md": passingDoc})
	file := filepath.Join(dir, "a.md")

	code, _, stderr := execute("--config", cfg, "--file", file, "--log-level", "loud")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "invalid log level")

	code, _, stderr = execute("--config", cfg, "--file", file, "--jobs=-2")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "invalid jobs")
}

func TestCheckOutputFile(t *testing.T) {
	dir, cfg := setupDocs(t, map[string]string{"a.md": passingDoc})
	file := filepath.Join(dir, "a.md")

	code, _, _ := execute("--config", cfg, "--file", file, "--silent", "--jobs", "1",
		"--output", filepath.Join(dir, "reports", "run-{run}.json"))
	require.Equal(t, 0, code)

	matches, err := filepath.Glob(filepath.Join(dir, "reports", "run-*.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.NotContains(t, matches[0], "{run}")

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)

	var rep report.FileReport
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.Equal(t, []report.Entry{{Line: 3, Filename: file}}, rep.Pass)
	assert.Empty(t, rep.Fail)
}

func TestCheckDebugOutput(t *testing.T) {
	dir, cfg := setupDocs(t, map[string]string{"a.md": passingDoc})

	code, _, stderr := execute("--config", cfg, "--file", filepath.Join(dir, "a.md"), "--silent", "--log-level", "debug")

	assert.Equal(t, 0, code)
	assert.Contains(t, stderr, "a.md:3 stdout | hello")
}

func TestList(t *testing.T) {
	dir, cfg := setupDocs(t, map[string]string{
		"a.md": passingDoc,
		"b.md": failingDoc,
	})

	code, stdout, stderr := execute("list", "--config", cfg, "--dir", dir)
	require.Equal(t, 0, code, stderr)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"File", "Line", "Lang", "Lines"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{filepath.Join(dir, "a.md"), "3", "js", "3-5"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{filepath.Join(dir, "b.md"), "3", "js", "3-5"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{filepath.Join(dir, "b.md"), "7", "javascript", "7-9"}, strings.Fields(lines[3]))
}

func TestListRejectsFileAndDir(t *testing.T) {
	dir, cfg := setupDocs(t, map[string]string{"a.md": passingDoc})

	code, _, stderr := execute("list", "--config", cfg, "--dir", dir, "--file", filepath.Join(dir, "a.md"))

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "either a file or a directory")
}
