package expiry

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
)

func newScheduler(t *testing.T) (*Scheduler, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cleanup := func() {
		_ = client.Close()
		mr.Close()
	}
	return NewScheduler(client), cleanup
}

func TestScheduleAndPopDue(t *testing.T) {
	s, cleanup := newScheduler(t)
	defer cleanup()
	ctx := context.Background()
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	if err := s.Schedule(ctx, "res-early", now.Add(-time.Minute)); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := s.Schedule(ctx, "res-due", now); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := s.Schedule(ctx, "res-later", now.Add(15*time.Minute)); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	ids, err := s.PopDue(ctx, now, 100)
	if err != nil {
		t.Fatalf("pop due: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("due jobs = %v, want the two past-deadline ids", ids)
	}
	seen := map[string]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	if !seen["res-early"] || !seen["res-due"] {
		t.Fatalf("due jobs = %v, want res-early and res-due", ids)
	}

	// Claimed jobs are removed; a second poll finds nothing until the
	// later deadline passes.
	ids, err = s.PopDue(ctx, now, 100)
	if err != nil {
		t.Fatalf("second pop: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("second pop returned %v, want nothing", ids)
	}
	ids, err = s.PopDue(ctx, now.Add(20*time.Minute), 100)
	if err != nil {
		t.Fatalf("third pop: %v", err)
	}
	if len(ids) != 1 || ids[0] != "res-later" {
		t.Fatalf("third pop = %v, want [res-later]", ids)
	}
}

func TestScheduleSameIDMovesDeadline(t *testing.T) {
	s, cleanup := newScheduler(t)
	defer cleanup()
	ctx := context.Background()
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	if err := s.Schedule(ctx, "res-1", now.Add(time.Minute)); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := s.Schedule(ctx, "res-1", now.Add(time.Hour)); err != nil {
		t.Fatalf("reschedule: %v", err)
	}

	ids, err := s.PopDue(ctx, now.Add(2*time.Minute), 100)
	if err != nil {
		t.Fatalf("pop due: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("pop at old deadline = %v, want nothing (deadline moved)", ids)
	}
	ids, err = s.PopDue(ctx, now.Add(2*time.Hour), 100)
	if err != nil {
		t.Fatalf("pop due: %v", err)
	}
	if len(ids) != 1 || ids[0] != "res-1" {
		t.Fatalf("pop at new deadline = %v, want [res-1]", ids)
	}
}

func TestPopDueRespectsLimit(t *testing.T) {
	s, cleanup := newScheduler(t)
	defer cleanup()
	ctx := context.Background()
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		if err := s.Schedule(ctx, id, now.Add(-time.Minute)); err != nil {
			t.Fatalf("schedule %s: %v", id, err)
		}
	}
	first, err := s.PopDue(ctx, now, 2)
	if err != nil {
		t.Fatalf("pop due: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("first batch = %v, want 2 jobs", first)
	}
	rest, err := s.PopDue(ctx, now, 100)
	if err != nil {
		t.Fatalf("pop due: %v", err)
	}
	if len(first)+len(rest) != 5 {
		t.Fatalf("claimed %d jobs across batches, want 5", len(first)+len(rest))
	}
}

// TestPopDueNoDoubleClaim has two pollers racing over the same jobs; no
// job may be claimed twice.
func TestPopDueNoDoubleClaim(t *testing.T) {
	s, cleanup := newScheduler(t)
	defer cleanup()
	ctx := context.Background()
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	const jobs = 200
	for i := 0; i < jobs; i++ {
		if err := s.Schedule(ctx, "res-"+strconv.Itoa(i), now.Add(-time.Second)); err != nil {
			t.Fatalf("schedule: %v", err)
		}
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	claimed := map[string]int{}
	for worker := 0; worker < 4; worker++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				ids, err := s.PopDue(ctx, now, 10)
				if err != nil {
					t.Errorf("pop due: %v", err)
					return
				}
				if len(ids) == 0 {
					return
				}
				mu.Lock()
				for _, id := range ids {
					claimed[id]++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(claimed) != jobs {
		t.Fatalf("claimed %d distinct jobs, want %d", len(claimed), jobs)
	}
	for id, n := range claimed {
		if n != 1 {
			t.Fatalf("job %s claimed %d times", id, n)
		}
	}
}
