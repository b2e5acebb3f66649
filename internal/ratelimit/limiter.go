// Package ratelimit throttles outgoing requests on the client side.
// It only delays calls; it never retries or drops them.
package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Bucket names used by the Kraken client. Public and private endpoints are
// counted separately by the exchange.
const (
	BucketPublic  = "public"
	BucketPrivate = "private"
)

// RateLimiter provides per-bucket token bucket limits.
// A nil *RateLimiter or one built with zero requests never blocks.
type RateLimiter struct {
	buckets  sync.Map
	requests int
	period   time.Duration
	metrics  *Metrics
}

// Metrics tracks statistics about rate limiter usage.
type Metrics struct {
	totalRequests   atomic.Int64
	allowedRequests atomic.Int64
	deniedRequests  atomic.Int64
	bucketCount     atomic.Int32
}

// New creates a RateLimiter allowing requests per period in every bucket.
// requests <= 0 or period <= 0 disables limiting.
func New(requests int, period time.Duration) *RateLimiter {
	if requests <= 0 || period <= 0 {
		requests = 0
	}
	return &RateLimiter{
		requests: requests,
		period:   period,
		metrics:  &Metrics{},
	}
}

// Enabled reports whether the limiter can block.
func (r *RateLimiter) Enabled() bool {
	return r != nil && r.requests > 0
}

// Wait blocks until the named bucket allows a request or ctx is done.
// Buckets are created on demand.
func (r *RateLimiter) Wait(ctx context.Context, bucket string) error {
	if !r.Enabled() {
		return ctx.Err()
	}
	r.metrics.totalRequests.Add(1)
	if err := r.getBucket(bucket).Wait(ctx); err != nil {
		r.metrics.deniedRequests.Add(1)
		return err
	}
	r.metrics.allowedRequests.Add(1)
	return nil
}

// Allow reports whether the named bucket permits a request immediately.
func (r *RateLimiter) Allow(bucket string) bool {
	if !r.Enabled() {
		return true
	}
	r.metrics.totalRequests.Add(1)
	if r.getBucket(bucket).Allow() {
		r.metrics.allowedRequests.Add(1)
		return true
	}
	r.metrics.deniedRequests.Add(1)
	return false
}

func (r *RateLimiter) getBucket(bucket string) *rate.Limiter {
	if v, ok := r.buckets.Load(bucket); ok {
		return v.(*rate.Limiter)
	}

	limiter := rate.NewLimiter(r.limit(), r.requests)
	actual, loaded := r.buckets.LoadOrStore(bucket, limiter)
	if !loaded {
		r.metrics.bucketCount.Add(1)
	}
	return actual.(*rate.Limiter)
}

func (r *RateLimiter) limit() rate.Limit {
	return rate.Limit(float64(r.requests) / r.period.Seconds())
}

// Metrics returns a snapshot of the current rate limiter statistics.
func (r *RateLimiter) Metrics() MetricsSnapshot {
	if r == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		TotalRequests:   r.metrics.totalRequests.Load(),
		AllowedRequests: r.metrics.allowedRequests.Load(),
		DeniedRequests:  r.metrics.deniedRequests.Load(),
		BucketCount:     r.metrics.bucketCount.Load(),
	}
}

// MetricsSnapshot is a point-in-time capture of rate limiter statistics.
type MetricsSnapshot struct {
	TotalRequests   int64
	AllowedRequests int64
	DeniedRequests  int64
	BucketCount     int32
}
