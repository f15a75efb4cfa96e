package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCode(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Code("BTC"), NewCode(" btc "))
	assert.True(t, NewCode("").IsEmpty())
}

func TestNewPairFromString(t *testing.T) {
	t.Parallel()
	p, err := NewPairFromString("BTC_ETH")
	require.NoError(t, err)
	assert.Equal(t, Code("BTC"), p.Base)
	assert.Equal(t, Code("ETH"), p.Quote)
	assert.Equal(t, "BTC_ETH", p.String())

	for _, invalid := range []string{"", "BTC", "BTC_", "_ETH", "BTC_ETH_X"} {
		_, err = NewPairFromString(invalid)
		assert.Errorf(t, err, "expected error for %q", invalid)
	}
}
