// Package tagfile parses RFC2822-stanzaed Debian index files (Packages,
// Sources, InRelease) and the small derived grammars embedded within them
// (Package-List, Checksums-Sha256).
package tagfile

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"io"
	"strings"

	"github.com/DataDog/zstd"
	"github.com/kjk/lzma"
	"github.com/pkg/errors"
	"github.com/xi2/xz"
)

// Reader exposes a cursor over RFC2822-style stanzas: call NextSection to
// advance, then ReadField to pull values out of the current stanza.
type Reader struct {
	scanner *bufio.Scanner
	fields  map[string]string
	order   []string
}

// NewReader wraps an already-decompressed stream.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(bufio.NewReaderSize(r, 64*1024))}
}

// Open transparently decompresses based on the file extension (.xz, .gz,
// .bz2, .lzma, .zst) and returns a Reader positioned before the first
// stanza. Callers own closing the underlying file if rc is also an
// io.Closer.
func Open(name string, rc io.Reader) (*Reader, error) {
	dr, err := Decompress(name, rc)
	if err != nil {
		return nil, err
	}
	return NewReader(dr), nil
}

// Decompress transparently decompresses rc based on name's extension (.xz,
// .gz, .bz2, .lzma, .zst), returning the raw decompressed byte stream. Used
// directly (without the Reader stanza cursor) by spears's multi-source
// index fusion, which needs the decompressed bytes themselves rather than
// parsed stanzas.
func Decompress(name string, rc io.Reader) (io.Reader, error) {
	switch {
	case strings.HasSuffix(name, ".xz"):
		xr, err := xz.NewReader(rc, 0)
		if err != nil {
			return nil, errors.Wrap(err, "tagfile: open xz stream")
		}
		return xr, nil
	case strings.HasSuffix(name, ".gz"):
		gr, err := gzip.NewReader(rc)
		if err != nil {
			return nil, errors.Wrap(err, "tagfile: open gzip stream")
		}
		return gr, nil
	case strings.HasSuffix(name, ".bz2"):
		return bzip2.NewReader(rc), nil
	case strings.HasSuffix(name, ".lzma"):
		return lzma.NewReader(rc), nil
	case strings.HasSuffix(name, ".zst"):
		return zstd.NewReader(rc), nil
	default:
		return rc, nil
	}
}

// NextSection advances the cursor to the next stanza, returning false at
// EOF. Continuation lines (beginning with a single space) are folded into
// the preceding field's value with the leading space stripped and inner
// newlines preserved.
func (r *Reader) NextSection() bool {
	r.fields = make(map[string]string)
	r.order = nil
	var curField string
	sawAny := false
	for r.scanner.Scan() {
		line := r.scanner.Text()
		if line == "" {
			if sawAny {
				return true
			}
			continue // leading blank lines between stanzas
		}
		sawAny = true
		if (line[0] == ' ' || line[0] == '\t') && curField != "" {
			cont := strings.TrimPrefix(line, " ")
			if cont == "." {
				cont = ""
			}
			r.fields[curField] += "\n" + cont
			continue
		}
		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			continue // malformed line: skip with (implicit) warning
		}
		name := strings.TrimSpace(line[:idx])
		value := strings.TrimPrefix(line[idx+1:], " ")
		curField = name
		r.fields[name] = value
		r.order = append(r.order, name)
	}
	return sawAny
}

// ReadField returns the value of name in the current stanza, or def if
// absent.
func (r *Reader) ReadField(name string, def string) string {
	if v, ok := r.fields[name]; ok {
		return v
	}
	return def
}

// Fields returns the field names present in the current stanza, in the
// order they were seen.
func (r *Reader) Fields() []string {
	return r.order
}

// Err returns any non-EOF error encountered while scanning.
func (r *Reader) Err() error {
	return r.scanner.Err()
}
