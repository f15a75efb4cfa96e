package poloniex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLendingCSV(t *testing.T, contents string) *Poloniex {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, lendingHistoryFile), []byte(contents), 0o600))
	return New(Settings{DataDir: dir})
}

const lendingCSVHeader = "Currency,Rate,Amount,Duration,Interest,Fee,Earned,Open,Close\n"

func TestLoadLendingHistoryCSV(t *testing.T) {
	t.Parallel()
	p := writeLendingCSV(t, lendingCSVHeader+
		"BTC,0.00020000,0.5,2.5,0.00025,-0.00003750,0.00021250,2018-01-02 10:00:00,2018-01-04 22:00:00\n"+
		"ETH,0.00010000,10,1,0.001,-0.00015000,0.00085000,2018-02-01 00:00:00,2018-02-02 00:00:00\n")

	history, err := p.LoadLendingHistoryCSV()
	require.NoError(t, err)
	require.Len(t, history, 2)

	first := history[0]
	assert.Equal(t, "BTC", first.Currency)
	assert.True(t, first.Rate.Equal(decimal.RequireFromString("0.0002")))
	assert.True(t, first.Amount.Equal(decimal.RequireFromString("0.5")))
	assert.True(t, first.Fee.Equal(decimal.RequireFromString("-0.0000375")))
	assert.True(t, first.Earned.Equal(decimal.RequireFromString("0.0002125")))
	assert.Equal(t, "2018-01-04", first.Close.Time().Format("2006-01-02"))
	assert.Zero(t, first.ID, "exports carry no loan ids")
}

func TestLoadLendingHistoryCSVMissingFile(t *testing.T) {
	t.Parallel()
	p := New(Settings{DataDir: t.TempDir()})
	_, err := p.LoadLendingHistoryCSV()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadLendingHistoryCSVMalformed(t *testing.T) {
	t.Parallel()
	t.Run("short row", func(t *testing.T) {
		t.Parallel()
		p := writeLendingCSV(t, lendingCSVHeader+"BTC,0.0002,0.5\n")
		_, err := p.LoadLendingHistoryCSV()
		assert.Error(t, err)
	})

	t.Run("bad decimal", func(t *testing.T) {
		t.Parallel()
		p := writeLendingCSV(t, lendingCSVHeader+
			"BTC,abc,0.5,2.5,0.00025,-0.00003750,0.00021250,2018-01-02 10:00:00,2018-01-04 22:00:00\n")
		_, err := p.LoadLendingHistoryCSV()
		assert.Error(t, err)
	})

	t.Run("bad datetime", func(t *testing.T) {
		t.Parallel()
		p := writeLendingCSV(t, lendingCSVHeader+
			"BTC,0.0002,0.5,2.5,0.00025,-0.00003750,0.00021250,January,2018-01-04 22:00:00\n")
		_, err := p.LoadLendingHistoryCSV()
		assert.Error(t, err)
	})
}
