package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeframe(t *testing.T) {
	tf, err := ParseTimeframe("")
	require.NoError(t, err)
	assert.Equal(t, TF1m, tf)

	for _, s := range []string{"1s", "1m", "5m"} {
		tf, err := ParseTimeframe(s)
		require.NoError(t, err)
		assert.Equal(t, Timeframe(s), tf)
		assert.True(t, tf.Valid())
	}

	_, err = ParseTimeframe("1h")
	assert.Error(t, err)
	assert.False(t, Timeframe("1h").Valid())
}
