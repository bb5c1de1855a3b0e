package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindUserConfig(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  string
		want string
	}{
		{name: "equals form", args: []string{"run", "--config=/tmp/a.yaml"}, want: "/tmp/a.yaml"},
		{name: "separate value", args: []string{"--config", "b.toml", "run"}, want: "b.toml"},
		{name: "dangling flag falls back to env", args: []string{"--config"}, env: "env.json", want: "env.json"},
		{name: "environment", args: []string{"run"}, env: "/etc/mm.yaml", want: "/etc/mm.yaml"},
		{name: "nothing", args: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(ConfigEnv, tt.env)
			assert.Equal(t, tt.want, FindUserConfig(tt.args))
		})
	}
}

func TestConfigCandidatePathsRoutesUserFile(t *testing.T) {
	tests := []struct {
		path                   string
		inJSON, inYAML, inTOML bool
	}{
		{path: "custom.json", inJSON: true},
		{path: "custom.yml", inYAML: true},
		{path: "custom.yaml", inYAML: true},
		{path: "custom.toml", inTOML: true},
		{path: "custom.conf", inJSON: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			j, y, m := ConfigCandidatePaths(tt.path)
			first := func(paths []string) bool { return len(paths) > 0 && paths[0] == tt.path }
			assert.Equal(t, tt.inJSON, first(j))
			assert.Equal(t, tt.inYAML, first(y))
			assert.Equal(t, tt.inTOML, first(m))
		})
	}
}

func TestConfigCandidatePathsIncludesConfigDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("AppData", dir)

	j, y, m := ConfigCandidatePaths("")
	assert.Contains(t, j, filepath.Join(dir, AppName, AppName+".json"))
	assert.Contains(t, y, filepath.Join(dir, AppName, AppName+".yaml"))
	assert.Contains(t, m, filepath.Join(dir, AppName, AppName+".toml"))
}

func TestDefaultConfigPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("AppData", dir)

	p, err := DefaultConfigPath("yml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, AppName, AppName+".yaml"), p)
}
