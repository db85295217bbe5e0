package util

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	ref := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)

	got, ok := ParseTime("2024-10-10T10:10:10Z")
	require.True(t, ok)
	assert.True(t, got.Equal(ref))

	got, ok = ParseTime("2024-10-10T12:10:10.5+02:00")
	require.True(t, ok)
	assert.Equal(t, time.UTC, got.Location())
	assert.True(t, got.Equal(ref.Add(500*time.Millisecond)))

	got, ok = ParseTime(strconv.FormatInt(ref.Unix(), 10))
	require.True(t, ok)
	assert.True(t, got.Equal(ref))
}

func TestParseTimeRejects(t *testing.T) {
	for _, s := range []string{"", "yesterday", "0", "-5", "2024-13-01T00:00:00Z"} {
		_, ok := ParseTime(s)
		assert.False(t, ok, s)
	}
}

func TestAlignFromTo(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 3, 10, 700, time.UTC)
	to := time.Date(2024, 1, 1, 6, 7, 59, 0, time.UTC)

	cases := []struct {
		tf       string
		from, to time.Time
	}{
		{"1s", time.Date(2024, 1, 1, 0, 3, 10, 0, time.UTC), to},
		{"1m", time.Date(2024, 1, 1, 0, 3, 0, 0, time.UTC), time.Date(2024, 1, 1, 6, 7, 0, 0, time.UTC)},
		{"5m", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 1, 6, 5, 0, 0, time.UTC)},
		{"1h", time.Date(2024, 1, 1, 0, 3, 0, 0, time.UTC), time.Date(2024, 1, 1, 6, 7, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		f, g := AlignFromTo(from, to, tc.tf)
		assert.True(t, f.Equal(tc.from), tc.tf)
		assert.True(t, g.Equal(tc.to), tc.tf)
	}
}
