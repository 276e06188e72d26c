package util

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"sync/atomic"
	"time"
)

// Seeded randomly so restarts do not re-issue overlapping counters; the
// orders.code unique index stays the hard uniqueness guarantee and checkout
// retries with a fresh code on a collision.
var orderCounter = seedOrderCounter()

func seedOrderCounter() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return time.Now().UTC().UnixNano() % 100000000
	}
	return int64(binary.BigEndian.Uint64(b[:]) % 100000000)
}

// NewOrderCode returns a human-legible, monotonically distinguishable order
// code: ORD-<yyyymmdd>-<counter>.
func NewOrderCode() string {
	n := atomic.AddInt64(&orderCounter, 1)
	return fmt.Sprintf("ORD-%s-%d", time.Now().UTC().Format("20060102"), n)
}
