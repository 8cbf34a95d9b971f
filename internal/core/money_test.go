package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1.00", true},
		{"1.0", "1.00", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"1.005", "1.01", true}, // half-up rounding
		{" 2.50 ", "2.50", true},
		{"-1", "-1.00", true},
		{"-1.005", "-1.01", true},
		{"0", "0.00", true},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"1e5", "", false},
		{"", "", false},
		{"-", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if !tc.ok {
			assert.ErrorIs(t, err, ErrInvalidAmount, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.out, FormatMoney(got), "input %q", tc.in)
	}
}

func TestParseOptionalAmount(t *testing.T) {
	got, err := ParseOptionalAmount("  ")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ParseOptionalAmount("0")
	require.NoError(t, err)
	require.NotNil(t, got, "zero is a supplied value, not absent")
	assert.True(t, got.IsZero())

	_, err = ParseOptionalAmount("x")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestParseDistance(t *testing.T) {
	got, err := ParseDistance("12,34")
	require.NoError(t, err)
	assert.Equal(t, "12.3", FormatDistance(*got))

	got, err = ParseDistance("")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = ParseDistance("-4")
	assert.ErrorIs(t, err, ErrInvalidDistance)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "150.50", FormatMoney(decimal.RequireFromString("150.5")))
	assert.Equal(t, "0.00", FormatOptionalMoney(nil))
	assert.Equal(t, "0.0", FormatOptionalDistance(nil))
	assert.Equal(t, "7.0", FormatDistance(decimal.NewFromInt(7)))
	// display rounding happens only here
	assert.Equal(t, "0.01", FormatMoney(decimal.RequireFromString("0.005")))
}
