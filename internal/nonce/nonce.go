// Package nonce produces the request nonces Kraken uses to order private calls.
package nonce

import (
	"strconv"
	"time"
)

// Generator returns the current wall clock in milliseconds since the Unix epoch.
// Two calls within the same millisecond return the same value.
type Generator struct {
	now func() time.Time
}

func New() *Generator {
	return &Generator{now: time.Now}
}

// NewWithClock returns a Generator that reads time from now.
func NewWithClock(now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{now: now}
}

// Next returns the nonce as a number.
func (g *Generator) Next() uint64 {
	ms := g.now().UnixMilli()
	if ms < 0 {
		return 0
	}
	return uint64(ms)
}

// NextString returns the nonce as a base 10 string suitable for a payload.
func (g *Generator) NextString() string {
	return strconv.FormatUint(g.Next(), 10)
}

// Fixed returns a Generator that always yields n.
func Fixed(n uint64) *Generator {
	t := time.UnixMilli(int64(n))
	return &Generator{now: func() time.Time { return t }}
}
