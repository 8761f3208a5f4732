// Package sig verifies PGP-signed archive manifests (InRelease) by driving
// gpg as a subprocess and parsing its machine-readable status-fd output. It
// never implements PGP itself.
package sig

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/crypto/openpgp/armor"
)

// Result is the outcome of verifying a signed message.
type Result struct {
	Payload           []byte
	Fingerprints      []string
	PrimaryFingerprints []string
	SignatureIDs      []string
}

// ErrNoValidSignature is returned when requireSignature is set and gpg
// never emitted a VALIDSIG status line.
var ErrNoValidSignature = errors.New("sig: no valid signature found")

// ErrInvalidSignature covers REVKEYSIG/BADSIG/ERRSIG/KEYREVOKED/NO_PUBKEY
// and expired signatures (EXPSIG/EXPKEYSIG).
var ErrInvalidSignature = errors.New("sig: invalid or expired signature")

// ErrFailed covers BADARMOR/NODATA/DECRYPTION_FAILED/ERROR.
var ErrFailed = errors.New("sig: gpg reported a hard failure")

// Reader drives gpg against a fixed set of keyrings.
type Reader struct {
	GPGPath  string // defaults to "gpg" when empty
	Keyrings []string
}

// NewReader constructs a Reader over the given keyring paths.
func NewReader(keyrings []string) *Reader {
	return &Reader{GPGPath: "gpg", Keyrings: keyrings}
}

// Verify runs gpg over raw (an armored or inline-signed message), draining
// stdout/stderr/status-fd concurrently with writing stdin so the child
// cannot deadlock on a full pipe. If requireSignature is true and no
// VALIDSIG line is observed, ErrNoValidSignature is returned.
func (r *Reader) Verify(ctx context.Context, raw []byte, requireSignature bool) (*Result, error) {
	// Cheap pre-flight: if this looks armored, make sure it frames cleanly
	// before spawning gpg at all; a non-PGP blob fails fast without a
	// subprocess round-trip.
	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("-----BEGIN PGP")) {
		if _, err := armor.Decode(bytes.NewReader(raw)); err != nil {
			return nil, errors.Wrap(ErrFailed, err.Error())
		}
	}

	gpgPath := r.GPGPath
	if gpgPath == "" {
		gpgPath = "gpg"
	}
	args := []string{"--status-fd=3", "--no-default-keyring", "--batch", "--no-tty",
		"--trust-model", "always", "--fixed-list-mode"}
	for _, kr := range r.Keyrings {
		args = append(args, "--keyring="+kr)
	}
	args = append(args, "--decrypt", "-")

	cmd := exec.CommandContext(ctx, gpgPath, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Wrap(err, "sig: stdin pipe")
	}
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, errors.Wrap(err, "sig: stdout pipe")
	}
	statusR, statusW, err := os.Pipe()
	if err != nil {
		return nil, errors.Wrap(err, "sig: status pipe")
	}
	cmd.Stdout = stdoutW
	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf
	cmd.ExtraFiles = []*os.File{statusW}

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "sig: start gpg")
	}
	stdoutW.Close()
	statusW.Close()

	var wg sync.WaitGroup
	var payload bytes.Buffer
	var status bytes.Buffer
	wg.Add(2)
	go func() { defer wg.Done(); io.Copy(&payload, stdoutR) }()
	go func() { defer wg.Done(); io.Copy(&status, statusR) }()

	writeErr := writeAll(stdin, raw)
	stdin.Close()

	wg.Wait()
	waitErr := cmd.Wait()

	res, parseErr := parseStatus(status.String())
	res.Payload = payload.Bytes()

	if parseErr != nil {
		return res, parseErr
	}
	if requireSignature && len(res.Fingerprints) == 0 {
		return res, ErrNoValidSignature
	}
	if writeErr != nil {
		return res, errors.Wrap(writeErr, "sig: write stdin")
	}
	if waitErr != nil && parseErr == nil {
		return res, errors.Wrapf(ErrFailed, "gpg: %v: %s", waitErr, stderrBuf.String())
	}
	return res, nil
}

func writeAll(w interface{ Write([]byte) (int, error) }, data []byte) error {
	_, err := w.Write(data)
	return err
}

// parseStatus interprets the recognized [GNUPG:] status-fd token set.
func parseStatus(status string) (*Result, error) {
	res := &Result{}
	var failed error
	for _, line := range strings.Split(status, "\n") {
		line = strings.TrimPrefix(line, "[GNUPG:] ")
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "VALIDSIG":
			if len(fields) >= 2 {
				res.Fingerprints = append(res.Fingerprints, fields[1])
			}
			if len(fields) >= 11 {
				res.PrimaryFingerprints = append(res.PrimaryFingerprints, fields[10])
			} else if len(fields) >= 2 {
				res.PrimaryFingerprints = append(res.PrimaryFingerprints, fields[1])
			}
		case "SIG_ID":
			if len(fields) >= 2 {
				res.SignatureIDs = append(res.SignatureIDs, fields[1])
			}
		case "PLAINTEXT", "GOODSIG", "NOTATION_NAME", "NOTATION_DATA",
			"SIGEXPIRED", "KEYEXPIRED", "POLICY_URL":
			// recognized, ignored
		case "EXPSIG", "EXPKEYSIG", "REVKEYSIG", "BADSIG", "ERRSIG", "KEYREVOKED", "NO_PUBKEY":
			failed = ErrInvalidSignature
		case "BADARMOR", "NODATA", "DECRYPTION_FAILED", "ERROR":
			failed = ErrFailed
		}
	}
	return res, failed
}
