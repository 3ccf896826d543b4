package preview

import (
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-rimepatch/document"
	"github.com/goliatone/go-rimepatch/tree"
)

type recorder struct {
	mu    sync.Mutex
	texts []string
}

func (r *recorder) publish(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

func pageSize(n int) *tree.Mapping {
	return tree.MappingFromAny(map[string]any{"menu/page_size": n})
}

func TestTimerRestartsOnSchedule(t *testing.T) {
	clock := NewManualClock()
	timer := NewTimer(clock)
	var fired []string

	timer.Schedule(func() { fired = append(fired, "first") }, 100*time.Millisecond)
	clock.Advance(60 * time.Millisecond)
	timer.Schedule(func() { fired = append(fired, "second") }, 100*time.Millisecond)
	clock.Advance(60 * time.Millisecond)
	if len(fired) != 0 {
		t.Fatalf("expected restart to postpone the callback, fired %v", fired)
	}
	clock.Advance(40 * time.Millisecond)
	if len(fired) != 1 || fired[0] != "second" {
		t.Fatalf("expected only the latest callback, got %v", fired)
	}
	if timer.Pending() {
		t.Fatalf("expected nothing pending after firing")
	}
}

func TestTimerCancel(t *testing.T) {
	clock := NewManualClock()
	timer := NewTimer(clock)
	ran := false
	timer.Schedule(func() { ran = true }, time.Millisecond)
	timer.Cancel()
	clock.Advance(time.Second)
	if ran {
		t.Fatalf("cancelled callback ran")
	}
	timer.Cancel()
}

// stubbornClock ignores Stop, like a runtime timer that already fired.
type stubbornClock struct {
	fns []func()
}

type stubbornStopper struct{}

func (stubbornStopper) Stop() bool { return false }

func (c *stubbornClock) AfterFunc(_ time.Duration, f func()) Stopper {
	c.fns = append(c.fns, f)
	return stubbornStopper{}
}

func TestTimerDropsSupersededCallbacks(t *testing.T) {
	clock := &stubbornClock{}
	timer := NewTimer(clock)
	var fired []int
	for i := 0; i < 3; i++ {
		timer.Schedule(func() { fired = append(fired, i) }, time.Millisecond)
	}
	for _, fn := range clock.fns {
		fn()
	}
	if len(fired) != 1 || fired[0] != 2 {
		t.Fatalf("expected only the latest generation to run, got %v", fired)
	}
}

func TestSchedulerCollapsesBursts(t *testing.T) {
	clock := NewManualClock()
	rec := &recorder{}
	s := NewScheduler(rec.publish, WithClock(clock))

	for i := 1; i <= 5; i++ {
		s.Notify(pageSize(i))
		clock.Advance(20 * time.Millisecond)
	}
	if got := rec.snapshot(); len(got) != 0 {
		t.Fatalf("expected no preview during the burst, got %v", got)
	}
	if s.Latest() != document.EmptyText {
		t.Fatalf("expected sentinel before the first preview, got %q", s.Latest())
	}

	clock.Advance(DefaultDelay)
	got := rec.snapshot()
	if len(got) != 1 {
		t.Fatalf("expected exactly one preview, got %d", len(got))
	}
	want, _ := document.Serialize(pageSize(5))
	if got[0] != want || s.Latest() != want {
		t.Fatalf("expected preview of the final patch %q, got %q", want, got[0])
	}
}

func TestSchedulerSnapshotsPatch(t *testing.T) {
	clock := NewManualClock()
	rec := &recorder{}
	s := NewScheduler(rec.publish, WithClock(clock), WithDelay(10*time.Millisecond))

	patch := pageSize(3)
	s.Notify(patch)
	patch.Put("menu/page_size", tree.Int(8))
	clock.Advance(10 * time.Millisecond)

	want, _ := document.Serialize(pageSize(3))
	if got := rec.snapshot(); len(got) != 1 || got[0] != want {
		t.Fatalf("expected preview of the notified snapshot, got %v", got)
	}
}

func TestSchedulerClose(t *testing.T) {
	clock := NewManualClock()
	rec := &recorder{}
	s := NewScheduler(rec.publish, WithClock(clock))

	s.Notify(pageSize(4))
	s.Close()
	s.Notify(pageSize(5))
	clock.Advance(time.Second)

	if got := rec.snapshot(); len(got) != 0 {
		t.Fatalf("expected no preview after close, got %v", got)
	}
	if s.Pending() {
		t.Fatalf("expected nothing pending after close")
	}
	if clock.Pending() != 0 {
		t.Fatalf("expected clock timers stopped, %d remain", clock.Pending())
	}
}

func TestSchedulerEmptyPatchPublishesSentinel(t *testing.T) {
	clock := NewManualClock()
	rec := &recorder{}
	s := NewScheduler(rec.publish, WithClock(clock))
	s.Notify(tree.NewMapping())
	clock.Advance(DefaultDelay)
	if got := rec.snapshot(); len(got) != 1 || got[0] != document.EmptyText {
		t.Fatalf("expected sentinel preview, got %v", got)
	}
}

func TestSchedulerWithRealClock(t *testing.T) {
	done := make(chan string, 1)
	s := NewScheduler(func(text string) { done <- text }, WithDelay(5*time.Millisecond))
	defer s.Close()
	s.Notify(pageSize(6))
	select {
	case text := <-done:
		want, _ := document.Serialize(pageSize(6))
		if text != want {
			t.Fatalf("unexpected preview %q", text)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("preview was never published")
	}
}
