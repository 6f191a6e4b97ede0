package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuantity(t *testing.T) {
	cases := map[string]Quantity{
		"125.5":    Quantity(1_255_000),
		"0.12345":  Quantity(1234),
		"-3":       Liters(-3),
		"+7.25":    Quantity(72_500),
		".5":       Quantity(5000),
		"1.5e2":    Liters(150),
		" 40 ":     Liters(40),
	}
	for in, want := range cases {
		got, err := ParseQuantity(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParseQuantity_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "--5", "1.-5", "1.2.3"} {
		_, err := ParseQuantity(in)
		assert.Error(t, err, in)
	}
}

func TestParseQuantity_RejectsOverflow(t *testing.T) {
	for _, in := range []string{"1844674407370956", "922337203685477", "-922337203685477", "9223372036854775807", "1e300"} {
		_, err := ParseQuantity(in)
		assert.Error(t, err, in)
	}

	largest, err := ParseQuantity("922337203685476.9999")
	require.NoError(t, err)
	assert.True(t, largest.IsPositive())
}

func TestQuantity_UnmarshalJSONRejectsOverflow(t *testing.T) {
	var q Quantity
	err := json.Unmarshal([]byte(`"1844674407370956"`), &q)
	require.Error(t, err)
	assert.True(t, q.IsZero())

	require.NoError(t, json.Unmarshal([]byte(`12.5`), &q))
	assert.Equal(t, "12.5000", q.String())
}
