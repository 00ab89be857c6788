package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lt(minutes int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(minutes) * time.Minute)
}

func TestLedgerFIFOOrder(t *testing.T) {
	l := NewLotLedger()
	l.Open(1, 100, lt(0), 0.1)
	l.Open(1, 200, lt(1), 0.2)

	matched, err := l.Close(1, 150, lt(2), 0.15)
	require.NoError(t, err)
	require.Len(t, matched, 1)

	// the 100-priced lot entered first and must be consumed first
	assert.InDelta(t, 100, matched[0].BuyPrice, 1e-12)
	assert.InDelta(t, 50, matched[0].GrossProfit, 1e-12)

	open := l.OpenLots()
	require.Len(t, open, 1)
	assert.InDelta(t, 200, open[0].Price, 1e-12)
	assert.InDelta(t, 1, l.OpenQuantity(), 1e-12)
}

func TestLedgerSellSpansLots(t *testing.T) {
	l := NewLotLedger()
	l.Open(1, 100, lt(0), 1)
	l.Open(2, 110, lt(1), 2)

	matched, err := l.Close(2, 120, lt(2), 3)
	require.NoError(t, err)
	require.Len(t, matched, 2)

	assert.InDelta(t, 1, matched[0].Quantity, 1e-12)
	assert.InDelta(t, 100, matched[0].BuyPrice, 1e-12)
	assert.InDelta(t, 1, matched[1].Quantity, 1e-12)
	assert.InDelta(t, 110, matched[1].BuyPrice, 1e-12)

	// exit commission splits by matched share of the sell quantity
	assert.InDelta(t, 1.5, matched[0].SellCommission, 1e-12)
	assert.InDelta(t, 1.5, matched[1].SellCommission, 1e-12)

	assert.InDelta(t, 1, l.OpenQuantity(), 1e-12)
	assert.Len(t, l.Closed(), 2)
}

func TestLedgerEntryCommissionProratedByOriginalQuantity(t *testing.T) {
	l := NewLotLedger()
	l.Open(2, 100, lt(0), 2)

	first, err := l.Close(1, 110, lt(1), 0.5)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.InDelta(t, 1, first[0].BuyCommission, 1e-12)

	// the second half still prorates against the original 2 units,
	// not the decremented remainder
	second, err := l.Close(1, 110, lt(2), 0.5)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.InDelta(t, 1, second[0].BuyCommission, 1e-12)

	total := 0.0
	for _, cp := range l.Closed() {
		total += cp.BuyCommission
	}
	assert.InDelta(t, 2, total, 1e-12)
	assert.InDelta(t, 0, l.OpenQuantity(), 1e-12)
}

func TestLedgerNetProfit(t *testing.T) {
	l := NewLotLedger()
	l.Open(10, 100, lt(0), 5)

	matched, err := l.Close(10, 110, lt(1), 11)
	require.NoError(t, err)
	require.Len(t, matched, 1)

	cp := matched[0]
	assert.InDelta(t, 100, cp.GrossProfit, 1e-12)
	assert.InDelta(t, 100-5-11, cp.NetProfit, 1e-12)
	assert.True(t, cp.Profitable)
	assert.Equal(t, lt(0), cp.BuyTime)
	assert.Equal(t, lt(1), cp.SellTime)
}

func TestLedgerOversell(t *testing.T) {
	l := NewLotLedger()
	l.Open(1, 100, lt(0), 1)

	matched, err := l.Close(2, 110, lt(1), 2)
	require.Error(t, err)

	// the available unit was still matched before the error surfaced
	require.Len(t, matched, 1)
	assert.InDelta(t, 1, matched[0].Quantity, 1e-12)
	assert.InDelta(t, 0, l.OpenQuantity(), 1e-12)
}

func TestLedgerFloatResidueTolerated(t *testing.T) {
	l := NewLotLedger()
	qty := 0.1 + 0.2 // 0.30000000000000004
	l.Open(qty, 100, lt(0), 0)

	_, err := l.Close(0.3, 110, lt(1), 0)
	require.NoError(t, err)
	assert.Empty(t, l.OpenLots())
}

func TestLedgerCompaction(t *testing.T) {
	l := NewLotLedger()
	for i := 0; i < 200; i++ {
		l.Open(1, 100, lt(i), 0)
	}
	for i := 0; i < 150; i++ {
		_, err := l.Close(1, 110, lt(200+i), 0)
		require.NoError(t, err)
	}

	assert.InDelta(t, 50, l.OpenQuantity(), 1e-9)
	assert.Len(t, l.OpenLots(), 50)
	assert.Len(t, l.Closed(), 150)

	// survivors keep FIFO order through compaction
	open := l.OpenLots()
	for i := 1; i < len(open); i++ {
		assert.True(t, open[i].Time.After(open[i-1].Time))
	}
}
