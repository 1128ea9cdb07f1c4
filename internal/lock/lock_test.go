package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

func newManager(t *testing.T, maxRetries int) (*Manager, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	m := NewManager(client, 30*time.Second, maxRetries, time.Millisecond)
	cleanup := func() {
		_ = client.Close()
		mr.Close()
	}
	return m, mr, cleanup
}

func testSlot() model.Slot {
	return model.Slot{TableID: 7, Date: "2026-09-15", Time: "19:00:00"}
}

func TestAcquireRelease(t *testing.T) {
	m, mr, cleanup := newManager(t, 0)
	defer cleanup()
	ctx := context.Background()
	slot := testSlot()

	token, err := m.Acquire(ctx, slot)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if token == "" {
		t.Fatal("acquire returned empty token")
	}
	if got, err := mr.Get(Key(slot)); err != nil || got != token {
		t.Fatalf("lock key holds %q (%v), want token %q", got, err, token)
	}

	ok, err := m.Release(ctx, slot, token)
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if !ok {
		t.Fatal("release reported lock not owned")
	}
	if mr.Exists(Key(slot)) {
		t.Fatal("lock key survived release")
	}
}

func TestAcquireHeldReturnsErrNotAcquired(t *testing.T) {
	m, _, cleanup := newManager(t, 2)
	defer cleanup()
	ctx := context.Background()
	slot := testSlot()

	if _, err := m.Acquire(ctx, slot); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if _, err := m.Acquire(ctx, slot); !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("second acquire err = %v, want ErrNotAcquired", err)
	}
}

func TestReleaseWrongTokenKeepsLock(t *testing.T) {
	m, mr, cleanup := newManager(t, 0)
	defer cleanup()
	ctx := context.Background()
	slot := testSlot()

	token, err := m.Acquire(ctx, slot)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	ok, err := m.Release(ctx, slot, "some-other-token")
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok {
		t.Fatal("release with foreign token reported success")
	}
	if got, err := mr.Get(Key(slot)); err != nil || got != token {
		t.Fatalf("lock key changed to %q (%v), want original token", got, err)
	}
}

func TestReleaseAfterExpiryIsNotAnError(t *testing.T) {
	m, mr, cleanup := newManager(t, 0)
	defer cleanup()
	ctx := context.Background()
	slot := testSlot()

	token, err := m.Acquire(ctx, slot)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	mr.FastForward(time.Minute) // TTL elapses, key is gone

	ok, err := m.Release(ctx, slot, token)
	if err != nil {
		t.Fatalf("release after expiry: %v", err)
	}
	if ok {
		t.Fatal("release reported ownership of an expired lock")
	}
}

func TestExpiryFreesSlotForNextAcquirer(t *testing.T) {
	m, mr, cleanup := newManager(t, 0)
	defer cleanup()
	ctx := context.Background()
	slot := testSlot()

	first, err := m.Acquire(ctx, slot)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	mr.FastForward(time.Minute)

	second, err := m.Acquire(ctx, slot)
	if err != nil {
		t.Fatalf("acquire after expiry: %v", err)
	}
	if second == first {
		t.Fatal("second acquisition reused the first token")
	}
}

func TestAcquireFailsClosedOnBackendError(t *testing.T) {
	m, mr, cleanup := newManager(t, 0)
	defer cleanup()
	mr.Close() // simulate Redis outage

	if _, err := m.Acquire(context.Background(), testSlot()); err == nil {
		t.Fatal("acquire succeeded with Redis down")
	} else if errors.Is(err, ErrNotAcquired) {
		t.Fatal("backend failure reported as contention")
	}
}

func TestAcquireRetriesUntilReleased(t *testing.T) {
	m, _, cleanup := newManager(t, 50)
	defer cleanup()
	ctx := context.Background()
	slot := testSlot()

	token, err := m.Acquire(ctx, slot)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	go func() {
		time.Sleep(5 * time.Millisecond)
		_, _ = m.Release(ctx, slot, token)
	}()
	if _, err := m.Acquire(ctx, slot); err != nil {
		t.Fatalf("acquire while held then released: %v", err)
	}
}

func TestConcurrentAcquireSingleWinner(t *testing.T) {
	m, _, cleanup := newManager(t, 0)
	defer cleanup()
	ctx := context.Background()
	slot := testSlot()

	const workers = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Acquire(ctx, slot); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("winners = %d, want exactly 1", wins)
	}
}

func TestKeyFormat(t *testing.T) {
	got := Key(testSlot())
	want := "table_lock:7:2026-09-15:19:00:00"
	if got != want {
		t.Fatalf("Key = %q, want %q", got, want)
	}
}
