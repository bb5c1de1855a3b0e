package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stigoleg/multimouse/internal/config"
)

func parse(t *testing.T, args []string, opts ...kong.Option) (*CLI, *kong.Context) {
	t.Helper()
	var cli CLI
	opts = append([]kong.Option{kong.Vars{"version": appVersion}, kong.Exit(func(int) {})}, opts...)
	parser, err := kong.New(&cli, opts...)
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	return &cli, ctx
}

func TestDefaultCommandIsRun(t *testing.T) {
	cli, ctx := parse(t, nil)
	assert.Equal(t, "run", ctx.Command())
	assert.Equal(t, config.DefaultSession(), cli.Run.Session)
	assert.Equal(t, "info", cli.Log.Level)
}

func TestRunFlags(t *testing.T) {
	cli, _ := parse(t, []string{
		"--mode=individual",
		"--tick=10ms",
		"--source=synthetic",
		"--synthetic-mice=5",
		"--audit.dir=/tmp/mm",
		"--audit.max-bytes=2048",
		"--log.level=debug",
		"--headless",
		"--for=1h",
	})

	s := cli.Run.Session
	assert.Equal(t, "individual", s.Mode)
	assert.Equal(t, 10*time.Millisecond, s.Tick)
	assert.Equal(t, 5, s.SyntheticMice)
	assert.Equal(t, "/tmp/mm", s.Audit.Dir)
	assert.Equal(t, int64(2048), s.Audit.MaxBytes)
	assert.True(t, s.Headless)
	assert.Equal(t, "1h", s.For)
	assert.Equal(t, "debug", cli.Log.Level)
	require.NoError(t, s.Validate())
}

func TestRejectsUnknownMode(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, kong.Vars{"version": appVersion}, kong.Exit(func(int) {}))
	require.NoError(t, err)
	_, err = parser.Parse([]string{"--mode=sideways"})
	assert.Error(t, err)
}

func TestSubcommands(t *testing.T) {
	_, ctx := parse(t, []string{"devices", "--all"})
	assert.Equal(t, "devices", ctx.Command())

	cli, ctx := parse(t, []string{"config", "init", "--format=toml"})
	assert.Equal(t, "config init", ctx.Command())
	assert.Equal(t, "toml", cli.Conf.Init.Format)
}

func TestJSONConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "multimouse.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "mode": "individual",
  "smoothing": 0.5,
  "idle_timeout": "3s",
  "audit": {"max_bytes": 4096},
  "log": {"level": "warn"}
}`), 0o644))

	cli, _ := parse(t, []string{"--decay=0.8"}, kong.Configuration(kong.JSON, path))

	s := cli.Run.Session
	assert.Equal(t, "individual", s.Mode)
	assert.Equal(t, 0.5, s.Smoothing)
	assert.Equal(t, 3*time.Second, s.IdleTimeout)
	assert.Equal(t, int64(4096), s.Audit.MaxBytes)
	assert.Equal(t, 0.8, s.Decay)
	assert.Equal(t, "warn", cli.Log.Level)
}

func TestGeneratedJSONTemplateLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "multimouse.json")
	_, err := (&config.InitCommand{Format: "json", Output: path}).Write()
	require.NoError(t, err)

	cli, _ := parse(t, nil, kong.Configuration(kong.JSON, path))
	assert.Equal(t, config.DefaultSession(), cli.Run.Session)
}
