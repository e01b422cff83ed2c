package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fetchClient struct {
	failing  map[string]bool
	delay    time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
	mu       sync.Mutex
	order    []string
}

func (c *fetchClient) Authenticate(ctx context.Context, ownerID string) (bool, error) {
	return true, nil
}

func (c *fetchClient) Address(ctx context.Context) (string, error) {
	return "owner@example.com", nil
}

func (c *fetchClient) ListMessageIDs(ctx context.Context, maxResults int, query string) ([]string, error) {
	return nil, nil
}

func (c *fetchClient) FetchDetail(ctx context.Context, id string) (*RawMessage, error) {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		peak := c.peak.Load()
		if n <= peak || c.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	if c.delay > 0 {
		time.Sleep(c.delay)
	}

	c.mu.Lock()
	c.order = append(c.order, id)
	c.mu.Unlock()

	if c.failing[id] {
		return nil, errors.New("upstream error")
	}
	return &RawMessage{ID: id, Subject: "subject " + id}, nil
}

func makeIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("m%02d", i)
	}
	return ids
}

func TestBulkFetchSequentialKeepsOrder(t *testing.T) {
	client := &fetchClient{failing: map[string]bool{"m03": true}}
	ids := makeIDs(10)

	msgs := BulkFetch(context.Background(), client, ids, DefaultFetchOptions(), zap.NewNop())

	if len(msgs) != 9 {
		t.Fatalf("got %d messages, want 9", len(msgs))
	}
	for i, want := range []string{"m00", "m01", "m02", "m04"} {
		if msgs[i].ID != want {
			t.Errorf("msgs[%d] = %s, want %s", i, msgs[i].ID, want)
		}
	}
	if p := client.peak.Load(); p != 1 {
		t.Errorf("sequential fetch ran %d at once", p)
	}
}

func TestBulkFetchPooledIsBounded(t *testing.T) {
	client := &fetchClient{
		failing: map[string]bool{"m05": true, "m17": true},
		delay:   5 * time.Millisecond,
	}
	ids := makeIDs(30)

	msgs := BulkFetch(context.Background(), client, ids, FetchOptions{Concurrency: 5, Threshold: 10}, zap.NewNop())

	if len(msgs) != 28 {
		t.Fatalf("got %d messages, want 28", len(msgs))
	}
	if p := client.peak.Load(); p > 5 {
		t.Errorf("peak concurrency %d exceeds pool size 5", p)
	}

	got := make([]string, len(msgs))
	for i, m := range msgs {
		got[i] = m.ID
	}
	sort.Strings(got)
	for _, id := range got {
		if id == "m05" || id == "m17" {
			t.Errorf("failed message %s was not dropped", id)
		}
	}
}

func TestBulkFetchEmpty(t *testing.T) {
	msgs := BulkFetch(context.Background(), &fetchClient{}, nil, DefaultFetchOptions(), zap.NewNop())
	if len(msgs) != 0 {
		t.Errorf("got %d messages", len(msgs))
	}
}
