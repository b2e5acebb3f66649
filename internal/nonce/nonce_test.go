package nonce

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_Next(t *testing.T) {
	before := uint64(time.Now().UnixMilli())
	got := New().Next()
	after := uint64(time.Now().UnixMilli())

	assert.GreaterOrEqual(t, got, before)
	assert.LessOrEqual(t, got, after)
}

func TestGenerator_NonDecreasing(t *testing.T) {
	g := New()
	prev := g.Next()
	for i := 0; i < 100; i++ {
		next := g.Next()
		assert.GreaterOrEqual(t, next, prev)
		prev = next
	}
}

func TestGenerator_NextString(t *testing.T) {
	g := NewWithClock(func() time.Time { return time.UnixMilli(1616492376594) })

	assert.Equal(t, uint64(1616492376594), g.Next())
	assert.Equal(t, "1616492376594", g.NextString())

	n, err := strconv.ParseUint(New().NextString(), 10, 64)
	require.NoError(t, err)
	assert.Positive(t, n)
}

func TestGenerator_SameMillisecond(t *testing.T) {
	g := NewWithClock(func() time.Time { return time.UnixMilli(42) })

	assert.Equal(t, g.Next(), g.Next())
}

func TestGenerator_PreEpochClock(t *testing.T) {
	g := NewWithClock(func() time.Time { return time.UnixMilli(-5) })

	assert.Equal(t, uint64(0), g.Next())
}

func TestFixed(t *testing.T) {
	g := Fixed(1616492376594)

	assert.Equal(t, "1616492376594", g.NextString())
	assert.Equal(t, "1616492376594", g.NextString())
}

func TestNewWithClock_Nil(t *testing.T) {
	assert.Positive(t, NewWithClock(nil).Next())
}
