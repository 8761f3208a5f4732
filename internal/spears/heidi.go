package spears

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// HeidiEntry is one parsed HeidiResult line. Extra is the line's fourth
// column, whose semantics britney does not document; it is carried here but
// not interpreted, for forward compatibility, even though only the first
// three fields are written to the file dak consumes.
type HeidiEntry struct {
	Package      string
	Version      string
	Architecture string
	Extra        string
}

// postprocessHeidiResult rewrites output/HeidiResult into
// output/heidi/current: each non-blank line must tokenize into exactly four
// whitespace-separated fields. dak's control-suite only understands the
// three-column (package, version, architecture) tuple, so that is what gets
// written to the file; the fourth column is preserved on the returned
// HeidiEntry slice instead of being discarded, for forward compatibility.
func (e *Engine) postprocessHeidiResult(ctx context.Context, migrationID string) (string, []HeidiEntry, error) {
	src := filepath.Join(e.outputDir(migrationID), "HeidiResult")
	in, err := os.Open(src)
	if err != nil {
		return "", nil, errors.Wrap(err, "spears: open HeidiResult")
	}
	defer in.Close()

	heidiDir := filepath.Join(e.outputDir(migrationID), "heidi")
	if err := os.MkdirAll(heidiDir, 0755); err != nil {
		return "", nil, err
	}
	dest := filepath.Join(heidiDir, "current")
	out, err := os.Create(dest)
	if err != nil {
		return "", nil, err
	}
	defer out.Close()

	var entries []HeidiEntry
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 4 {
			if e.Events != nil {
				_ = e.Events.Warning(ctx, "HeidiResult malformed line",
					fmt.Sprintf("expected 4 fields, got %d: %q", len(fields), line))
			}
			continue
		}
		entries = append(entries, HeidiEntry{Package: fields[0], Version: fields[1], Architecture: fields[2], Extra: fields[3]})
		fmt.Fprintf(out, "%s %s %s\n", fields[0], fields[1], fields[2])
	}
	if err := sc.Err(); err != nil {
		return "", nil, errors.Wrap(err, "spears: scan HeidiResult")
	}
	return dest, entries, nil
}
