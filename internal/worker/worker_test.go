package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"yatube/internal/queue"
)

type fakeDeleter struct {
	mu      sync.Mutex
	deleted []string
	err     error
}

func (d *fakeDeleter) Delete(ctx context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.deleted = append(d.deleted, key)
	return nil
}

func (d *fakeDeleter) keys() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.deleted...)
}

// fakeConsumer serves pending messages once, then new messages once, then
// blocks until the context ends.
type fakeConsumer struct {
	mu       sync.Mutex
	pending  []queue.Message
	fresh    []queue.Message
	acked    []string
	groupErr error
}

func (c *fakeConsumer) EnsureGroup(ctx context.Context, stream, group string) error {
	return c.groupErr
}

func (c *fakeConsumer) Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]queue.Message, error) {
	c.mu.Lock()
	msgs := c.fresh
	c.fresh = nil
	c.mu.Unlock()
	if len(msgs) > 0 {
		return msgs, nil
	}
	select {
	case <-ctx.Done():
	case <-time.After(block):
	}
	return nil, nil
}

func (c *fakeConsumer) ReadPending(ctx context.Context, stream, group, consumer string, count int64) ([]queue.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := c.pending
	c.pending = nil
	return msgs, nil
}

func (c *fakeConsumer) Ack(ctx context.Context, stream, group string, ids ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.acked = append(c.acked, ids...)
	return nil
}

func (c *fakeConsumer) ackedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.acked)
}

func TestHandler_HandleEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes discarded image", func(t *testing.T) {
		d := &fakeDeleter{}
		h := NewHandler(d, zap.NewNop())
		if err := h.HandleEvent(ctx, queue.NewImageDiscardedEvent("posts/a.png", 7)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := d.keys(); len(got) != 1 || got[0] != "posts/a.png" {
			t.Errorf("deleted = %v, want [posts/a.png]", got)
		}
	})

	t.Run("delete failure is returned", func(t *testing.T) {
		h := NewHandler(&fakeDeleter{err: errors.New("r2 down")}, zap.NewNop())
		if err := h.HandleEvent(ctx, queue.NewImageDiscardedEvent("posts/a.png", 0)); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		h := NewHandler(&fakeDeleter{}, zap.NewNop())
		if err := h.HandleEvent(ctx, queue.ImageEvent{Type: "post_liked", Key: "x"}); err == nil {
			t.Error("expected error for unknown event type")
		}
	})
}

func TestManager_ProcessesPendingThenNew(t *testing.T) {
	d := &fakeDeleter{}
	c := &fakeConsumer{
		pending: []queue.Message{{ID: "1-0", Event: queue.NewImageDiscardedEvent("posts/old.png", 1)}},
		fresh:   []queue.Message{{ID: "2-0", Event: queue.NewImageDiscardedEvent("posts/new.png", 2)}},
	}
	m := NewManager(c, NewHandler(d, zap.NewNop()), ManagerConfig{WorkerCount: 1, BlockTimeout: 10 * time.Millisecond}, zap.NewNop())

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for c.ackedCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	m.Stop()

	got := d.keys()
	if len(got) != 2 || got[0] != "posts/old.png" || got[1] != "posts/new.png" {
		t.Errorf("deleted = %v, want [posts/old.png posts/new.png]", got)
	}
}

func TestManager_AcksFailedEvents(t *testing.T) {
	c := &fakeConsumer{
		fresh: []queue.Message{{ID: "3-0", Event: queue.NewImageDiscardedEvent("posts/x.png", 0)}},
	}
	m := NewManager(c, NewHandler(&fakeDeleter{err: errors.New("boom")}, zap.NewNop()), ManagerConfig{WorkerCount: 1, BlockTimeout: 10 * time.Millisecond}, zap.NewNop())

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for c.ackedCount() < 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	m.Stop()

	if c.ackedCount() != 1 {
		t.Errorf("acked = %d, want 1", c.ackedCount())
	}
}

func TestManager_StartFailsWithoutGroup(t *testing.T) {
	c := &fakeConsumer{groupErr: errors.New("NOPERM")}
	m := NewManager(c, NewHandler(&fakeDeleter{}, zap.NewNop()), DefaultManagerConfig(), zap.NewNop())
	if err := m.Start(context.Background()); err == nil {
		t.Error("expected error")
	}
}

func TestConsumerNameForWorker(t *testing.T) {
	if got := consumerNameForWorker(12); got != "worker-12" {
		t.Errorf("consumerNameForWorker(12) = %q", got)
	}
}
