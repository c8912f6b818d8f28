package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sahajlabs/mudra/internal/domain/model"
)

func testRequest(requestID, userID string) model.ValidationRequest {
	return model.ValidationRequest{
		RequestID: requestID,
		UserID:    userID,
		SignID:    "letter_a",
		ModuleID:  "isl-demo",
		Language:  "en",
		CreatedAt: time.Now(),
	}
}

func TestInMemoryQueue_FIFOPerUser(t *testing.T) {
	q := NewInMemoryQueue()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if !q.Enqueue(ctx, testRequest(fmt.Sprintf("req-%d", i), "user-1")) {
			t.Fatalf("enqueue %d failed", i)
		}
	}

	for i := 0; i < 5; i++ {
		entry, ok := q.DequeueNext(ctx, "user-1")
		if !ok {
			t.Fatalf("expected entry %d", i)
		}
		if want := fmt.Sprintf("req-%d", i); entry.Request.RequestID != want {
			t.Errorf("expected %s, got %s", want, entry.Request.RequestID)
		}
	}

	if _, ok := q.DequeueNext(ctx, "user-1"); ok {
		t.Error("expected empty queue")
	}
}

func TestInMemoryQueue_UsersAreIndependent(t *testing.T) {
	q := NewInMemoryQueue()
	ctx := context.Background()

	q.Enqueue(ctx, testRequest("a-1", "alice"))
	q.Enqueue(ctx, testRequest("b-1", "bob"))
	q.Enqueue(ctx, testRequest("a-2", "alice"))

	if got := q.Len(ctx, "alice"); got != 2 {
		t.Errorf("expected alice len 2, got %d", got)
	}
	if got := q.Len(ctx, "bob"); got != 1 {
		t.Errorf("expected bob len 1, got %d", got)
	}
	if got := q.TotalLen(ctx); got != 3 {
		t.Errorf("expected total 3, got %d", got)
	}

	entry, ok := q.DequeueNext(ctx, "bob")
	if !ok || entry.Request.RequestID != "b-1" {
		t.Errorf("bob's dequeue should be independent of alice's queue")
	}
}

func TestInMemoryQueue_DropOldestOnOverflow(t *testing.T) {
	var dropped []string
	q := NewInMemoryQueue(
		WithPerUserCapacity(3),
		WithDropHandler(func(req model.ValidationRequest) {
			dropped = append(dropped, req.RequestID)
		}),
	)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		q.Enqueue(ctx, testRequest(fmt.Sprintf("req-%d", i), "user-1"))
	}

	// Capacity 3: req-0 and req-1 are evicted, oldest first.
	if len(dropped) != 2 || dropped[0] != "req-0" || dropped[1] != "req-1" {
		t.Errorf("expected [req-0 req-1] dropped, got %v", dropped)
	}

	entry, ok := q.DequeueNext(ctx, "user-1")
	if !ok || entry.Request.RequestID != "req-2" {
		t.Errorf("oldest surviving entry should be req-2, got %v", entry.Request.RequestID)
	}
	if got := q.Len(ctx, "user-1"); got != 2 {
		t.Errorf("expected 2 remaining, got %d", got)
	}
}

func TestInMemoryQueue_Cancel(t *testing.T) {
	q := NewInMemoryQueue()
	ctx := context.Background()

	q.Enqueue(ctx, testRequest("req-1", "user-1"))
	q.Enqueue(ctx, testRequest("req-2", "user-1"))
	q.Enqueue(ctx, testRequest("req-3", "user-1"))

	if !q.Cancel(ctx, "req-2") {
		t.Fatal("expected cancel of queued request to succeed")
	}
	if q.Cancel(ctx, "req-2") {
		t.Error("second cancel of the same request should fail")
	}
	if q.Cancel(ctx, "unknown") {
		t.Error("cancel of unknown request should fail")
	}

	var order []string
	for {
		entry, ok := q.DequeueNext(ctx, "user-1")
		if !ok {
			break
		}
		order = append(order, entry.Request.RequestID)
	}
	if len(order) != 2 || order[0] != "req-1" || order[1] != "req-3" {
		t.Errorf("expected [req-1 req-3], got %v", order)
	}
}

func TestInMemoryQueue_CancelAfterDispatchFails(t *testing.T) {
	q := NewInMemoryQueue()
	ctx := context.Background()

	q.Enqueue(ctx, testRequest("req-1", "user-1"))
	if _, ok := q.DequeueNext(ctx, "user-1"); !ok {
		t.Fatal("expected dequeue to succeed")
	}

	if q.Cancel(ctx, "req-1") {
		t.Error("dispatched request must not be cancelable")
	}
}

func TestInMemoryQueue_UsersAnnouncement(t *testing.T) {
	q := NewInMemoryQueue()
	ctx := context.Background()

	q.Enqueue(ctx, testRequest("req-1", "alice"))
	q.Enqueue(ctx, testRequest("req-2", "alice"))
	q.Enqueue(ctx, testRequest("req-3", "bob"))

	users := q.Users(ctx)
	seen := map[string]int{}
	for i := 0; i < 2; i++ {
		select {
		case u := <-users:
			seen[u]++
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for user announcement")
		}
	}

	// Each user is announced exactly once, on first enqueue.
	if seen["alice"] != 1 || seen["bob"] != 1 {
		t.Errorf("expected one announcement per user, got %v", seen)
	}
}

func TestInMemoryQueue_ReadySignal(t *testing.T) {
	q := NewInMemoryQueue()
	ctx := context.Background()

	ready := q.Ready("user-1")
	select {
	case <-ready:
		t.Fatal("ready should not fire before an enqueue")
	default:
	}

	q.Enqueue(ctx, testRequest("req-1", "user-1"))
	select {
	case <-ready:
	case <-time.After(time.Second):
		t.Fatal("ready should fire after enqueue")
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue()
	ctx := context.Background()

	q.Enqueue(ctx, testRequest("req-1", "user-1"))
	ready := q.Ready("user-1")

	if err := q.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected IsClosed true")
	}
	if q.Enqueue(ctx, testRequest("req-2", "user-1")) {
		t.Error("enqueue after close should fail")
	}
	if err := q.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}

	// Ready channels are closed; pending drain still works.
	select {
	case _, open := <-ready:
		// A buffered token may be delivered first; the channel must end
		// up closed either way.
		if open {
			if _, open = <-ready; open {
				t.Error("ready channel should be closed after queue close")
			}
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting on closed ready channel")
	}

	if _, ok := q.DequeueNext(ctx, "user-1"); !ok {
		t.Error("entries enqueued before close should still drain")
	}
}

func TestInMemoryQueue_ConcurrentEnqueueDequeue(t *testing.T) {
	q := NewInMemoryQueue(WithPerUserCapacity(10_000))
	ctx := context.Background()

	const users = 8
	const perUser = 200

	var wg sync.WaitGroup
	for u := 0; u < users; u++ {
		wg.Add(1)
		go func(u int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", u)
			for i := 0; i < perUser; i++ {
				q.Enqueue(ctx, testRequest(fmt.Sprintf("u%d-req-%d", u, i), userID))
			}
		}(u)
	}
	wg.Wait()

	for u := 0; u < users; u++ {
		userID := fmt.Sprintf("user-%d", u)
		for i := 0; i < perUser; i++ {
			entry, ok := q.DequeueNext(ctx, userID)
			if !ok {
				t.Fatalf("user %d missing entry %d", u, i)
			}
			if want := fmt.Sprintf("u%d-req-%d", u, i); entry.Request.RequestID != want {
				t.Fatalf("user %d order broken: want %s got %s", u, want, entry.Request.RequestID)
			}
		}
	}
}
