package sig

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseStatusValidSig(t *testing.T) {
	status := "[GNUPG:] VALIDSIG ABCD1234 2024-01-01 1700000000 0 4 0 1 2 ABCD1234\n" +
		"[GNUPG:] SIG_ID xyz 2024-01-01 1700000000\n" +
		"[GNUPG:] GOODSIG ABCD1234 Example\n"
	res, err := parseStatus(status)
	require.NoError(t, err)
	require.Equal(t, []string{"ABCD1234"}, res.Fingerprints)
	require.Equal(t, []string{"xyz"}, res.SignatureIDs)
}

func TestParseStatusBadSig(t *testing.T) {
	_, err := parseStatus("[GNUPG:] BADSIG ABCD1234 Example\n")
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestParseStatusNoData(t *testing.T) {
	_, err := parseStatus("[GNUPG:] NODATA 1\n")
	require.ErrorIs(t, err, ErrFailed)
}
