package audit

import (
	"bufio"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

// Encrypted export layout: the magic, a random salt, then frames of
// [uint32 big-endian length][sealed chunk]. Chunk n is sealed with a nonce
// holding n; the final chunk also carries finalFrame as additional data so
// a truncated export does not decrypt.
const (
	exportMagic = "MMAUDIT1"
	saltSize    = 16
	chunkSize   = 64 * 1024
	maxFrame    = chunkSize + chacha20poly1305.Overhead
)

var finalFrame = []byte("final")

var (
	ErrPassphrase  = errors.New("audit: passphrase is required")
	ErrNotExport   = errors.New("audit: not an encrypted audit export")
	ErrDecrypt     = errors.New("audit: wrong passphrase or damaged export")
	ErrExportExist = errors.New("audit: export destination exists; use --force to overwrite")
	ErrNoLogs      = errors.New("audit: no audit log to export")
)

// scrypt cost parameters. Tests lower scryptN.
var (
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

func deriveKey(passphrase string, salt []byte) ([]byte, error) {
	if passphrase == "" {
		return nil, ErrPassphrase
	}
	key, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("audit: derive key: %w", err)
	}
	return key, nil
}

func frameNonce(n uint64) []byte {
	nonce := make([]byte, chacha20poly1305.NonceSize)
	binary.BigEndian.PutUint64(nonce[4:], n)
	return nonce
}

// Encrypt copies src to dst sealed under a key derived from passphrase.
func Encrypt(dst io.Writer, src io.Reader, passphrase string) error {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("audit: salt: %w", err)
	}
	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return fmt.Errorf("audit: cipher: %w", err)
	}

	if _, err := io.WriteString(dst, exportMagic); err != nil {
		return err
	}
	if _, err := dst.Write(salt); err != nil {
		return err
	}

	in := bufio.NewReaderSize(src, chunkSize)
	chunk := make([]byte, chunkSize)
	var hdr [4]byte
	for n := uint64(0); ; n++ {
		size, err := io.ReadFull(in, chunk)
		last := false
		switch {
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			last = true
		case err != nil:
			return fmt.Errorf("audit: read: %w", err)
		default:
			if _, err := in.Peek(1); errors.Is(err, io.EOF) {
				last = true
			} else if err != nil {
				return fmt.Errorf("audit: read: %w", err)
			}
		}

		var ad []byte
		if last {
			ad = finalFrame
		}
		sealed := aead.Seal(nil, frameNonce(n), chunk[:size], ad)
		binary.BigEndian.PutUint32(hdr[:], uint32(len(sealed)))
		if _, err := dst.Write(hdr[:]); err != nil {
			return err
		}
		if _, err := dst.Write(sealed); err != nil {
			return err
		}
		if last {
			return nil
		}
	}
}

// Decrypt reverses Encrypt. Plaintext is written as each chunk is verified,
// so dst may hold a prefix when a later chunk fails.
func Decrypt(dst io.Writer, src io.Reader, passphrase string) error {
	head := make([]byte, len(exportMagic)+saltSize)
	if _, err := io.ReadFull(src, head); err != nil {
		return fmt.Errorf("%w: %w", ErrNotExport, err)
	}
	if string(head[:len(exportMagic)]) != exportMagic {
		return ErrNotExport
	}
	key, err := deriveKey(passphrase, head[len(exportMagic):])
	if err != nil {
		return err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return fmt.Errorf("audit: cipher: %w", err)
	}

	var hdr [4]byte
	sealed := make([]byte, 0, maxFrame)
	for n := uint64(0); ; n++ {
		if _, err := io.ReadFull(src, hdr[:]); err != nil {
			return fmt.Errorf("%w: truncated at chunk %d", ErrDecrypt, n)
		}
		size := binary.BigEndian.Uint32(hdr[:])
		if size < chacha20poly1305.Overhead || size > maxFrame {
			return fmt.Errorf("%w: bad chunk size %d", ErrDecrypt, size)
		}
		sealed = sealed[:size]
		if _, err := io.ReadFull(src, sealed); err != nil {
			return fmt.Errorf("%w: truncated at chunk %d", ErrDecrypt, n)
		}

		nonce := frameNonce(n)
		last := false
		plain, err := aead.Open(nil, nonce, sealed, nil)
		if err != nil {
			if plain, err = aead.Open(nil, nonce, sealed, finalFrame); err != nil {
				return ErrDecrypt
			}
			last = true
		}
		if _, err := dst.Write(plain); err != nil {
			return err
		}
		if last {
			if _, err := io.ReadFull(src, hdr[:1]); !errors.Is(err, io.EOF) {
				return fmt.Errorf("%w: data after final chunk", ErrDecrypt)
			}
			return nil
		}
	}
}

// LogFiles lists the audit files in dir, oldest first: rotated backups in
// timestamp order, then the active log.
func LogFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("audit: %w", err)
	}
	var backups []string
	active := false
	for _, e := range entries {
		name := e.Name()
		switch {
		case e.IsDir():
		case name == FileName:
			active = true
		case strings.HasPrefix(name, "audit-") && strings.HasSuffix(name, ".log"):
			backups = append(backups, name)
		}
	}
	// audit-STAMP.log precedes audit-STAMP.1.log written in the same second
	slices.SortFunc(backups, func(a, b string) int {
		return strings.Compare(strings.TrimSuffix(a, ".log"), strings.TrimSuffix(b, ".log"))
	})

	out := make([]string, 0, len(backups)+1)
	for _, b := range backups {
		out = append(out, filepath.Join(dir, b))
	}
	if active {
		out = append(out, filepath.Join(dir, FileName))
	}
	return out, nil
}

// ExportOptions select what Export seals and where it goes.
type ExportOptions struct {
	Dir        string
	Out        string
	Passphrase string
	// All includes rotated backups ahead of the active log.
	All   bool
	Force bool
}

// Export writes an encrypted copy of the audit log to opts.Out.
func Export(opts ExportOptions) error {
	if opts.Passphrase == "" {
		return ErrPassphrase
	}
	files, err := LogFiles(opts.Dir)
	if err != nil {
		return err
	}
	if !opts.All && len(files) > 0 {
		files = files[len(files)-1:]
		if filepath.Base(files[0]) != FileName {
			files = nil
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("%w in %s", ErrNoLogs, opts.Dir)
	}

	readers := make([]io.Reader, 0, len(files))
	for _, name := range files {
		f, err := os.Open(name)
		if err != nil {
			return fmt.Errorf("audit: %w", err)
		}
		defer f.Close()
		readers = append(readers, f)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if !opts.Force {
		flags |= os.O_EXCL
	}
	out, err := os.OpenFile(opts.Out, flags, 0o600)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%w: %s", ErrExportExist, opts.Out)
	}
	if err != nil {
		return fmt.Errorf("audit: %w", err)
	}

	w := bufio.NewWriter(out)
	err = Encrypt(w, io.MultiReader(readers...), opts.Passphrase)
	if err == nil {
		err = w.Flush()
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(opts.Out)
		return err
	}
	return nil
}
