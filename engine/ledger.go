package engine

import (
	"fmt"
	"math"
	"time"
)

// Lot is a discrete quantity of the asset acquired by one buy,
// tracked until fully matched by later sells.
type Lot struct {
	Quantity   float64 // remaining unmatched quantity
	Original   float64 // quantity at entry, fixed
	Price      float64
	Time       time.Time
	Commission float64 // entry commission for the whole original quantity
}

// ClosedPosition is one realized-P&L record produced by matching a
// sell against part or all of one open lot.
type ClosedPosition struct {
	BuyTime        time.Time
	SellTime       time.Time
	BuyPrice       float64
	SellPrice      float64
	Quantity       float64
	BuyCommission  float64
	SellCommission float64
	GrossProfit    float64
	NetProfit      float64
	Profitable     bool
}

// LotLedger tracks open buy lots in FIFO order and matches sells
// against the oldest lots first. It is backed by a slice with a head
// index rather than a linked list; fully consumed lots are dropped
// lazily when the dead prefix grows large.
type LotLedger struct {
	lots   []Lot
	head   int
	closed []ClosedPosition
}

func NewLotLedger() *LotLedger {
	return &LotLedger{}
}

// Open appends a new lot to the back of the queue.
func (l *LotLedger) Open(quantity, price float64, ts time.Time, commission float64) {
	l.lots = append(l.lots, Lot{
		Quantity:   quantity,
		Original:   quantity,
		Price:      price,
		Time:       ts,
		Commission: commission,
	})
}

// matchEpsilon absorbs float residue when a sell consumes the whole
// inventory; anything larger is a real accounting error.
const matchEpsilon = 1e-9

// Close matches sellQuantity against open lots front-to-back, emitting
// one ClosedPosition per matched lot fragment. Entry commission is
// prorated against the lot's original quantity, exit commission
// against the total sell quantity. Demand left over after the queue
// empties indicates the caller's position accounting has diverged from
// the ledger and is returned as an error.
func (l *LotLedger) Close(sellQuantity, sellPrice float64, ts time.Time, sellCommission float64) ([]ClosedPosition, error) {
	remaining := sellQuantity
	var matched []ClosedPosition

	for remaining > matchEpsilon && l.head < len(l.lots) {
		lot := &l.lots[l.head]

		qty := math.Min(remaining, lot.Quantity)
		gross := (sellPrice - lot.Price) * qty
		buyComm := lot.Commission * (qty / lot.Original)
		sellComm := sellCommission * (qty / sellQuantity)
		net := gross - buyComm - sellComm

		cp := ClosedPosition{
			BuyTime:        lot.Time,
			SellTime:       ts,
			BuyPrice:       lot.Price,
			SellPrice:      sellPrice,
			Quantity:       qty,
			BuyCommission:  buyComm,
			SellCommission: sellComm,
			GrossProfit:    gross,
			NetProfit:      net,
			Profitable:     net > 0,
		}
		matched = append(matched, cp)
		l.closed = append(l.closed, cp)

		lot.Quantity -= qty
		remaining -= qty
		if lot.Quantity <= matchEpsilon {
			l.head++
		}
	}
	l.compact()

	if remaining > matchEpsilon {
		return matched, fmt.Errorf("ledger: sell quantity %.10f exceeds open inventory by %.10f", sellQuantity, remaining)
	}
	return matched, nil
}

// OpenQuantity is the total unmatched quantity across open lots.
func (l *LotLedger) OpenQuantity() float64 {
	sum := 0.0
	for i := l.head; i < len(l.lots); i++ {
		sum += l.lots[i].Quantity
	}
	return sum
}

// OpenLots returns the open lots in FIFO order.
func (l *LotLedger) OpenLots() []Lot {
	return l.lots[l.head:]
}

// Closed returns every ClosedPosition emitted so far, in match order.
func (l *LotLedger) Closed() []ClosedPosition {
	return l.closed
}

func (l *LotLedger) compact() {
	if l.head > 64 && l.head*2 >= len(l.lots) {
		n := copy(l.lots, l.lots[l.head:])
		l.lots = l.lots[:n]
		l.head = 0
	}
}
