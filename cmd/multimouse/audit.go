package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/stigoleg/multimouse/internal/audit"
	"github.com/stigoleg/multimouse/internal/config"
)

var errPassphraseMismatch = errors.New("passphrases do not match")

type auditCmd struct {
	Export  auditExportCmd  `cmd:"" help:"Write an encrypted copy of the audit log"`
	Decrypt auditDecryptCmd `cmd:"" help:"Decrypt an exported audit log"`
}

type auditExportCmd struct {
	Dir        string `name:"audit.dir" help:"Audit log directory (defaults to the per-user state directory)" env:"MULTIMOUSE_AUDIT_DIR" type:"path"`
	Out        string `short:"o" required:"" help:"Destination file" type:"path"`
	All        bool   `help:"Include rotated logs, oldest first"`
	Force      bool   `short:"f" help:"Overwrite the destination"`
	Passphrase string `help:"Encryption passphrase; asked for on the terminal when empty" env:"MULTIMOUSE_AUDIT_PASSPHRASE"`
}

// Run is called by Kong for the audit export command.
func (c *auditExportCmd) Run(logger *slog.Logger) error {
	dir, err := config.Audit{Dir: c.Dir}.Directory()
	if err != nil {
		return err
	}
	pass, err := passphrase(c.Passphrase, true)
	if err != nil {
		return err
	}
	err = audit.Export(audit.ExportOptions{
		Dir:        dir,
		Out:        c.Out,
		Passphrase: pass,
		All:        c.All,
		Force:      c.Force,
	})
	if err != nil {
		return err
	}
	logger.Info("audit log exported", "dir", dir, "out", c.Out, "all", c.All)
	return nil
}

type auditDecryptCmd struct {
	In         string `arg:"" help:"Encrypted export" type:"existingfile"`
	Out        string `short:"o" help:"Write the plain log here instead of stdout" type:"path"`
	Passphrase string `help:"Passphrase used for the export; asked for on the terminal when empty" env:"MULTIMOUSE_AUDIT_PASSPHRASE"`
}

// Run is called by Kong for the audit decrypt command.
func (c *auditDecryptCmd) Run(logger *slog.Logger) error {
	pass, err := passphrase(c.Passphrase, false)
	if err != nil {
		return err
	}
	in, err := os.Open(c.In)
	if err != nil {
		return err
	}
	defer in.Close()

	if c.Out == "" {
		return decryptTo(os.Stdout, in, pass)
	}

	out, err := os.OpenFile(c.Out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	err = decryptTo(out, in, pass)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(c.Out)
		return err
	}
	logger.Info("audit export decrypted", "in", c.In, "out", c.Out)
	return nil
}

func decryptTo(dst io.Writer, src io.Reader, pass string) error {
	w := bufio.NewWriter(dst)
	if err := audit.Decrypt(w, bufio.NewReader(src), pass); err != nil {
		return err
	}
	return w.Flush()
}

// promptPassphrase reads a secret from the terminal without echo.
var promptPassphrase = func(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("%w: use --passphrase or MULTIMOUSE_AUDIT_PASSPHRASE", audit.ErrPassphrase)
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	return string(b), err
}

func passphrase(given string, confirm bool) (string, error) {
	if given != "" {
		return given, nil
	}
	p, err := promptPassphrase("Passphrase: ")
	if err != nil {
		return "", err
	}
	if p == "" {
		return "", audit.ErrPassphrase
	}
	if confirm {
		again, err := promptPassphrase("Repeat passphrase: ")
		if err != nil {
			return "", err
		}
		if again != p {
			return "", errPassphraseMismatch
		}
	}
	return p, nil
}
