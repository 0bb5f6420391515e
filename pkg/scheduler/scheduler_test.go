package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestVirtual_AdvanceRunsDueTasksInOrder(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	v := NewVirtual(start)

	var order []string
	v.After(200*time.Millisecond, func() { order = append(order, "b") })
	v.After(100*time.Millisecond, func() { order = append(order, "a") })
	v.After(200*time.Millisecond, func() { order = append(order, "c") })
	v.After(time.Second, func() { order = append(order, "late") })

	v.Advance(500 * time.Millisecond)

	want := []string{"a", "b", "c"}
	if len(order) != len(want) {
		t.Fatalf("ran %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
	if got := v.Now().Sub(start); got != 500*time.Millisecond {
		t.Errorf("Now() advanced %v, want 500ms", got)
	}
	if v.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", v.Pending())
	}
}

func TestVirtual_TasksSeeTheirDeadline(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	v := NewVirtual(start)

	var seen []time.Duration
	var tick func()
	tick = func() {
		seen = append(seen, v.Now().Sub(start))
		if len(seen) < 3 {
			v.After(100*time.Millisecond, tick)
		}
	}
	v.After(100*time.Millisecond, tick)
	v.Advance(time.Second)

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond}
	if len(seen) != len(want) {
		t.Fatalf("seen %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("tick %d at %v, want %v", i, seen[i], want[i])
		}
	}
}

func TestVirtual_RunUntilIdle(t *testing.T) {
	v := NewVirtual(time.Time{}.Add(time.Hour))

	count := 0
	var again func()
	again = func() {
		count++
		v.After(time.Second, again)
	}
	v.After(time.Second, again)

	if ran := v.RunUntilIdle(5); ran != 5 {
		t.Errorf("RunUntilIdle(5) = %d, want 5", ran)
	}
	if count != 5 {
		t.Errorf("count = %d, want 5", count)
	}
	if v.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", v.Pending())
	}
}

func TestVirtual_AfterDoesNotRunSynchronously(t *testing.T) {
	v := NewVirtual(time.Now())
	ran := false
	v.After(0, func() { ran = true })
	if ran {
		t.Fatal("After ran fn synchronously")
	}
	v.Advance(0)
	if !ran {
		t.Error("zero delay task did not run on Advance(0)")
	}
}

func TestVirtual_ZeroStartHonorsDeadlines(t *testing.T) {
	v := NewVirtual(time.Time{})

	ran := false
	v.After(time.Second, func() { ran = true })
	v.Advance(0)
	if ran {
		t.Fatal("task due in 1s ran on Advance(0)")
	}
	if v.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", v.Pending())
	}

	v.Advance(time.Second)
	if !ran {
		t.Error("task did not run once due")
	}
	if !v.Now().Equal(time.Time{}.Add(time.Second)) {
		t.Errorf("Now() = %v, want zero time + 1s", v.Now())
	}
}

func TestLoop_PostAndAfter(t *testing.T) {
	l := NewLoop(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()

	var goroutineCheck int32
	done := make(chan struct{})
	l.Post(func() {
		atomic.AddInt32(&goroutineCheck, 1)
		l.After(10*time.Millisecond, func() {
			atomic.AddInt32(&goroutineCheck, 1)
			close(done)
		})
	})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("deferred work did not run")
	}
	if got := atomic.LoadInt32(&goroutineCheck); got != 2 {
		t.Errorf("ran %d tasks, want 2", got)
	}

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestLoop_StopCancelsTimers(t *testing.T) {
	l := NewLoop(0)
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(context.Background()) }()

	var fired int32
	l.After(50*time.Millisecond, func() { atomic.StoreInt32(&fired, 1) })
	l.Stop()
	l.Stop()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run() = %v, want nil after Stop", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Stop")
	}

	time.Sleep(100 * time.Millisecond)
	if atomic.LoadInt32(&fired) != 0 {
		t.Error("timer fired after Stop")
	}

	// posting after stop must not block
	l.Post(func() {})
	l.After(time.Millisecond, func() {})
}

func TestSystemClock(t *testing.T) {
	before := time.Now()
	now := SystemClock{}.Now()
	if now.Before(before) {
		t.Errorf("SystemClock.Now() = %v, before %v", now, before)
	}
}
