package resilience

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestSingleFlight_DeduplicatesConcurrentCalls(t *testing.T) {
	t.Parallel()

	var g SingleFlight
	var executions atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	shared := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			val, err, _ := g.Do("links", func() (any, error) {
				executions.Add(1)
				<-release
				return "https://s/1", nil
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if val == "https://s/1" {
				// Every caller observes the one shared result.
				_ = shared
			}
		}()
	}
	close(release)
	wg.Wait()

	if got := executions.Load(); got != 1 {
		t.Fatalf("expected one execution, got %d", got)
	}
}

func TestSingleFlight_SequentialCallsRunIndependently(t *testing.T) {
	t.Parallel()

	var g SingleFlight
	count := 0
	for i := 0; i < 3; i++ {
		_, _, shared := g.Do("key", func() (any, error) {
			count++
			return nil, nil
		})
		if shared {
			t.Fatal("sequential call must not be marked shared")
		}
	}
	if count != 3 {
		t.Fatalf("unexpected execution count: got=%d want=%d", count, 3)
	}
}
