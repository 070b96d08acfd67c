package quote

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUnits(t *testing.T) {
	for _, tc := range []struct {
		in       string
		decimals int32
		want     string
	}{
		{"100", 6, "100000000"},
		{"0.5", 6, "500000"},
		{"100.25", 6, "100250000"},
		{"0.00125", 24, "1250000000000000000000"},
		{"1", 0, "1"},
		{"0", 6, "0"},
		{".5", 6, "500000"},
		// excess precision truncates, never rounds up
		{"0.1234567", 6, "123456"},
		{"0.9999999", 6, "999999"},
		{"-1.5", 6, "-1500000"},
	} {
		got, err := ParseUnits(tc.in, tc.decimals)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got.String(), tc.in)
	}
}

func TestParseUnitsRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "abc", "1.2.3", "1,5", "1e6", "."} {
		_, err := ParseUnits(in, 6)
		assert.Error(t, err, in)
	}
}

func TestFormatUnits(t *testing.T) {
	for _, tc := range []struct {
		in       string
		decimals int32
		maxFrac  int
		want     string
	}{
		{"100000000", 6, 6, "100"},
		{"100250000", 6, 6, "100.25"},
		{"500000", 6, 6, "0.5"},
		{"1", 6, 6, "0.000001"},
		{"1250000000000000000000", 24, 6, "0.00125"},
		// truncation only: 0.9999999 at 7 decimals shown with 6
		{"9999999", 7, 6, "0.999999"},
		{"-1500000", 6, 6, "-1.5"},
		{"0", 6, 6, "0"},
	} {
		amount, ok := new(big.Int).SetString(tc.in, 10)
		require.True(t, ok)
		assert.Equal(t, tc.want, FormatUnits(amount, tc.decimals, tc.maxFrac), tc.in)
	}
}

// A fiat decimal converted to origin smallest units and displayed with
// destination decimals loses no more than the declared precision.
func TestRoundTripTruncatesOnly(t *testing.T) {
	amount, err := ParseUnits("100.123456", 6)
	require.NoError(t, err)
	assert.Equal(t, "100.123456", FormatUnits(amount, 6, MaxDisplayDecimals))

	// converting through a higher-precision destination keeps the value
	wide, err := ParseUnits(FormatUnits(amount, 6, MaxDisplayDecimals), 24)
	require.NoError(t, err)
	assert.Equal(t, "100.123456", FormatUnits(wide, 24, MaxDisplayDecimals))
}
