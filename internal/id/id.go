// Package id mints run identifiers for the journal. ULIDs sort
// lexicographically by creation time, so newest-first run listings
// come straight from an ORDER BY on the primary key.
package id

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

var gen = newGenerator()

func newGenerator() *generator {
	var seed int64
	if err := binary.Read(cryptorand.Reader, binary.LittleEndian, &seed); err != nil || seed == 0 {
		seed = time.Now().UnixNano()
	}
	// Monotonic entropy keeps IDs minted within one millisecond in
	// strictly increasing order.
	return &generator{
		entropy: ulid.Monotonic(rand.New(rand.NewSource(seed)), 0),
	}
}

// New returns a fresh time-sortable ULID string.
func New() string {
	gen.mu.Lock()
	defer gen.mu.Unlock()

	u, err := ulid.New(ulid.Timestamp(time.Now().UTC()), gen.entropy)
	if err != nil {
		// ulid.New fails only on entropy exhaustion within one tick.
		panic(err)
	}
	return u.String()
}
