package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSide(t *testing.T) {
	t.Parallel()
	side, err := ParseSide("buy")
	require.NoError(t, err)
	assert.Equal(t, Buy, side)

	side, err = ParseSide("sell")
	require.NoError(t, err)
	assert.Equal(t, Sell, side)

	_, err = ParseSide("short")
	assert.ErrorIs(t, err, ErrUnknownSide)

	_, err = ParseSide("")
	assert.ErrorIs(t, err, ErrUnknownSide)
}

func TestSettlementSide(t *testing.T) {
	t.Parallel()
	assert.Equal(t, SettlementBuy, Buy.Settlement())
	assert.Equal(t, SettlementSell, Sell.Settlement())
}
