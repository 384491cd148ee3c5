package core

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"12.34", 1234, true},
		{"1.005", 101, true}, // half-up rounding
		{"12.345", 1234, true},
		{"12.346", 1235, true},
		{" 2.50 ", 250, true},
		{".5", 50, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"0.00", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"  ", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			require.NoError(t, err, "input %q", tc.in)
			require.Equal(t, tc.out, got, "input %q", tc.in)
		} else {
			require.ErrorIs(t, err, ErrInvalidAmount, "input %q", tc.in)
		}
	}
}

func TestMoneyEuros(t *testing.T) {
	require.Equal(t, 12.34, Money{Cents: 1234}.Euros())
	require.Equal(t, 0.01, Money{Cents: 1}.Euros())
}

// Parsing and redisplaying the same amount must not drift, no matter how many
// times the value goes through the cycle.
func TestMoneyRoundTripStability(t *testing.T) {
	display := "12.34"
	for i := 0; i < 1000; i++ {
		cents, err := ParseDecimalToCents(display)
		require.NoError(t, err)
		require.Equal(t, int64(1234), cents)

		display = strconv.FormatFloat(Money{Cents: cents}.Euros(), 'f', 2, 64)
		require.Equal(t, "12.34", display)
	}
}

func TestParseDecimalToCentsOverflow(t *testing.T) {
	huge := fmt.Sprintf("%d", int64(1)<<62)
	_, err := ParseDecimalToCents(huge)
	require.ErrorIs(t, err, ErrInvalidAmount)
}
