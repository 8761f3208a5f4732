package tagfile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReaderMultiStanza(t *testing.T) {
	const data = "Package: foo\n" +
		"Version: 1.0\n" +
		"Description: a package\n" +
		" continues here\n" +
		" .\n" +
		" and more\n" +
		"\n" +
		"Package: bar\n" +
		"Version: 2.0\n"

	r := NewReader(strings.NewReader(data))

	require.True(t, r.NextSection())
	require.Equal(t, "foo", r.ReadField("Package", ""))
	require.Equal(t, "1.0", r.ReadField("Version", ""))
	require.Equal(t, "a package\ncontinues here\n\nand more", r.ReadField("Description", ""))

	require.True(t, r.NextSection())
	require.Equal(t, "bar", r.ReadField("Package", ""))
	require.Equal(t, "2.0", r.ReadField("Version", ""))

	require.False(t, r.NextSection())
}

func TestReaderDefault(t *testing.T) {
	r := NewReader(strings.NewReader("Package: foo\n"))
	require.True(t, r.NextSection())
	require.Equal(t, "none", r.ReadField("Missing", "none"))
}
