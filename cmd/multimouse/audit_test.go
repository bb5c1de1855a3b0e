package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stigoleg/multimouse/internal/audit"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func stubPrompt(t *testing.T, answers ...string) {
	t.Helper()
	prev := promptPassphrase
	t.Cleanup(func() { promptPassphrase = prev })
	promptPassphrase = func(string) (string, error) {
		require.NotEmpty(t, answers, "unexpected passphrase prompt")
		a := answers[0]
		answers = answers[1:]
		return a, nil
	}
}

func TestAuditExportAndDecrypt(t *testing.T) {
	dir := t.TempDir()
	const lines = "1,MOUSE_INPUT,2779096484,3,4\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, audit.FileName), []byte(lines), 0o600))

	sealed := filepath.Join(t.TempDir(), "audit.enc")
	_, ctx := parse(t, []string{"audit", "export", "--audit.dir=" + dir, "--out=" + sealed, "--passphrase=hunter2"})
	assert.Equal(t, "audit export", ctx.Command())
	require.NoError(t, ctx.Run(discardLogger()))

	data, err := os.ReadFile(sealed)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "MOUSE_INPUT")

	plain := filepath.Join(t.TempDir(), "audit.log")
	stubPrompt(t, "hunter2")
	_, ctx = parse(t, []string{"audit", "decrypt", sealed, "--out=" + plain})
	require.NoError(t, ctx.Run(discardLogger()))

	got, err := os.ReadFile(plain)
	require.NoError(t, err)
	assert.Equal(t, lines, string(got))
}

func TestAuditDecryptWrongPassphraseLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, audit.FileName), []byte("1,MOUSE_INPUT,1,1,1\n"), 0o600))
	sealed := filepath.Join(t.TempDir(), "audit.enc")
	require.NoError(t, audit.Export(audit.ExportOptions{Dir: dir, Out: sealed, Passphrase: "right"}))

	plain := filepath.Join(t.TempDir(), "audit.log")
	_, ctx := parse(t, []string{"audit", "decrypt", sealed, "--out=" + plain, "--passphrase=wrong"})
	assert.ErrorIs(t, ctx.Run(discardLogger()), audit.ErrDecrypt)
	_, err := os.Stat(plain)
	assert.True(t, os.IsNotExist(err))
}

func TestPassphrase(t *testing.T) {
	p, err := passphrase("given", true)
	require.NoError(t, err)
	assert.Equal(t, "given", p)

	stubPrompt(t, "abc", "abc")
	p, err = passphrase("", true)
	require.NoError(t, err)
	assert.Equal(t, "abc", p)

	stubPrompt(t, "abc", "abd")
	_, err = passphrase("", true)
	assert.ErrorIs(t, err, errPassphraseMismatch)

	stubPrompt(t, "")
	_, err = passphrase("", false)
	assert.ErrorIs(t, err, audit.ErrPassphrase)
}
