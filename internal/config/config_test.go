package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ezerfernandes/mddoctest/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    config.Options
		wantErr error
		wantDir string
	}{
		{name: "file", opts: config.Options{File: "a.md"}},
		{name: "dir", opts: config.Options{Dir: "docs"}, wantDir: "docs"},
		{name: "default dir", opts: config.Options{}, wantDir: "."},
		{name: "json", opts: config.Options{File: "a.md", JSON: true}},
		{name: "silent", opts: config.Options{File: "a.md", Silent: true}},
		{name: "file and dir", opts: config.Options{File: "a.md", Dir: "docs"}, wantErr: config.ErrFileAndDir},
		{name: "json and silent", opts: config.Options{JSON: true, Silent: true}, wantErr: config.ErrJSONAndSilent},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.opts.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantDir, tt.opts.Dir)
		})
	}
}

func TestLoadConfigMissing(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), config.DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(`
runtime: deno eval
languages: [ts, js]
jobs: 2
env:
  - NODE_ENV=test
`), 0o644))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "deno eval", cfg.Runtime)
	assert.Equal(t, []string{"ts", "js"}, cfg.Languages)
	assert.Equal(t, 2, cfg.Jobs)
	assert.Equal(t, []string{"NODE_ENV=test"}, cfg.Env)
	assert.Equal(t, "utf-8", cfg.Encoding)
	assert.Equal(t, []string{"**.md", "**.markdown"}, cfg.Include)
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("jobs: [1, 2\n"), 0o644))

	_, err := config.LoadConfig(bad)
	require.Error(t, err)

	negative := filepath.Join(dir, "negative.yaml")
	require.NoError(t, os.WriteFile(negative, []byte("jobs: -1\n"), 0o644))

	_, err = config.LoadConfig(negative)
	require.Error(t, err)
}

func TestCommand(t *testing.T) {
	t.Parallel()

	env := map[string]string{"NODE_BIN": "/opt/node/bin/node"}
	getenv := func(name string) string { return env[name] }

	cfg := config.DefaultConfig()

	argv, err := cfg.Command(getenv)
	require.NoError(t, err)
	assert.Equal(t, []string{"node", "--eval"}, argv)

	cfg.Runtime = `$NODE_BIN --no-warnings "--eval"`
	argv, err = cfg.Command(getenv)
	require.NoError(t, err)
	assert.Equal(t, []string{"/opt/node/bin/node", "--no-warnings", "--eval"}, argv)

	cfg.Runtime = "   "
	_, err = cfg.Command(getenv)
	require.ErrorIs(t, err, config.ErrEmptyRuntime)

	cfg.Runtime = `node "--eval`
	_, err = cfg.Command(getenv)
	require.Error(t, err)
}
