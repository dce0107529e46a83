package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheGetSet(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := New(ctx, true)
	clock := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	etag := c.Set("optimization:7", []byte(`{"a":1}`), time.Minute)
	data, got, ok := c.Get("optimization:7")
	assert.True(t, ok)
	assert.Equal(t, etag, got)
	assert.JSONEq(t, `{"a":1}`, string(data))

	clock = clock.Add(2 * time.Minute)
	_, _, ok = c.Get("optimization:7")
	assert.False(t, ok, "expired")

	c.evict()
	assert.Equal(t, 0, c.Stats()["total_keys"])
}

func TestCacheDisabled(t *testing.T) {
	c := New(context.Background(), false)
	etag := c.Set("k", []byte("v"), time.Minute)
	assert.Equal(t, ComputeETag([]byte("v")), etag)
	_, _, ok := c.Get("k")
	assert.False(t, ok)
	assert.False(t, c.Enabled())
}

func TestInvalidate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := New(ctx, true)
	c.Set("optimization:1", []byte("a"), time.Minute)
	c.Set("optimization:7", []byte("b"), time.Minute)
	c.Set("other", []byte("c"), time.Minute)

	assert.Equal(t, 2, c.Invalidate("optimization:"))
	_, _, ok := c.Get("other")
	assert.True(t, ok)
}

func TestCheckETagMatch(t *testing.T) {
	etag := ComputeETag([]byte("x"))
	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{"*", true},
		{etag, true},
		{`W/"other", ` + etag, true},
		{`W/"other"`, false},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckETagMatch(tt.header, etag))
		})
	}
}
