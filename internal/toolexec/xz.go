package toolexec

import (
	"bytes"
	"context"
	"strconv"
)

// XZ wraps the xz(1) CLI for compression. Decompression of index files is
// handled in-process by internal/tagfile (xi2/xz); this adapter exists only
// because none of the pack's decompression libraries expose an xz encoder,
// and spears's source-fusion step needs to re-compress the
// concatenated, decompressed tagfile stream it produces.
type XZ struct {
	Runner *Runner
	Path   string // defaults to "xz"
	Level  int    // 0 uses xz's own default
}

func (x *XZ) path() string {
	if x.Path != "" {
		return x.Path
	}
	return "xz"
}

// Compress runs `xz -c -T0 [-<level>]` with data piped to stdin, returning the
// compressed bytes read back off stdout.
func (x *XZ) Compress(ctx context.Context, data []byte) ([]byte, error) {
	args := []string{"-c", "-T0"}
	if x.Level > 0 {
		args = append(args, "-"+strconv.Itoa(x.Level))
	}
	res, err := x.Runner.RunWithInput(ctx, "", bytes.NewReader(data), x.path(), args...)
	if err != nil {
		return nil, err
	}
	return []byte(res.Stdout), nil
}
