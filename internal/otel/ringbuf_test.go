package otel

import (
	"sync"
	"testing"
)

func counts(events []Event) []int {
	out := make([]int, len(events))
	for i, e := range events {
		out[i] = e.Count
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRingOrdering(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		pushes int
		last   int
		want   []int
	}{
		{"partial snapshot", 8, 5, 0, []int{0, 1, 2, 3, 4}},
		{"wrapped snapshot", 4, 8, 0, []int{4, 5, 6, 7}},
		{"last of full", 8, 8, 3, []int{5, 6, 7}},
		{"last across wrap", 4, 6, 2, []int{4, 5}},
		{"last more than count", 8, 2, 100, []int{0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRingBuffer(tt.size)
			for i := 0; i < tt.pushes; i++ {
				r.Push(Event{Kind: KindEnrichStart, Count: i})
			}
			var got []Event
			if tt.last == 0 {
				got = r.Snapshot()
			} else {
				got = r.Last(tt.last)
			}
			if !equalInts(counts(got), tt.want) {
				t.Errorf("got %v, want %v", counts(got), tt.want)
			}
		})
	}
}

func TestRingEmptyAndNegative(t *testing.T) {
	r := NewRingBuffer(8)
	if r.Snapshot() != nil {
		t.Error("empty Snapshot should be nil")
	}
	r.Push(Event{Kind: KindStartup})
	if r.Last(0) != nil || r.Last(-1) != nil {
		t.Error("Last(<=0) should be nil")
	}
}

func TestRingStats(t *testing.T) {
	r := NewRingBuffer(16)
	for _, k := range []EventKind{KindEnrichStart, KindEnrichStart, KindEnrichComplete, KindEnrichFallback} {
		r.Push(Event{Kind: k})
	}
	stats := r.Stats()
	if stats[KindEnrichStart] != 2 || stats[KindEnrichComplete] != 1 || stats[KindEnrichFallback] != 1 {
		t.Errorf("Stats() = %v", stats)
	}
}

func TestRingLenAndCap(t *testing.T) {
	r := NewRingBuffer(4)
	for i := 0; i < 10; i++ {
		r.Push(Event{Kind: KindEnrichStart})
	}
	if r.Len() != 4 || r.Cap() != 4 {
		t.Errorf("Len=%d Cap=%d, want 4/4", r.Len(), r.Cap())
	}
	if NewRingBuffer(0).Cap() != DefaultRingSize {
		t.Errorf("zero size should default to %d", DefaultRingSize)
	}
}

func TestRingCopiesExtra(t *testing.T) {
	r := NewRingBuffer(4)
	extra := map[string]any{"key": "original"}
	r.Push(Event{Kind: KindStartup, Extra: extra})
	extra["key"] = "mutated"

	if got := r.Snapshot()[0].Extra["key"]; got != "original" {
		t.Errorf("extra aliased: %v", got)
	}
}

func TestRingConcurrentAccess(t *testing.T) {
	r := NewRingBuffer(256)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Push(Event{Kind: KindEnrichStart})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = r.Snapshot()
				_ = r.Last(10)
				_ = r.Stats()
			}
		}()
	}
	wg.Wait()
}

func TestRingFedByLogger(t *testing.T) {
	r := NewRingBuffer(16)
	l := NewNullLogger()
	l.SetRingBuffer(r)

	l.Emit(Event{Kind: KindStartup})
	l.Emit(Event{Kind: KindShutdown})
	l.Close()

	last := r.Last(2)
	if len(last) != 2 || last[0].Kind != KindStartup || last[1].Kind != KindShutdown {
		t.Errorf("ring = %+v", last)
	}
}
