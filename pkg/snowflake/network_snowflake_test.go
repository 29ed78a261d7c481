package snowflake

import (
	"sync"
	"testing"
	"time"
)

func TestNewGenerator(t *testing.T) {
	tests := []struct {
		node    int64
		wantErr bool
	}{
		{0, false},
		{MaxNode, false},
		{-1, true},
		{MaxNode + 1, true},
	}
	for _, tt := range tests {
		if _, err := NewGenerator(tt.node); (err != nil) != tt.wantErr {
			t.Errorf("NewGenerator(%d) error = %v, wantErr %v", tt.node, err, tt.wantErr)
		}
	}
}

func TestGenerate_IncreasingAcrossGoroutines(t *testing.T) {
	gen, err := NewGenerator(7)
	if err != nil {
		t.Fatal(err)
	}

	const workers, perWorker = 8, 2000
	var (
		mu  sync.Mutex
		ids = make(map[int64]struct{}, workers*perWorker)
		wg  sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var prev int64
			for i := 0; i < perWorker; i++ {
				id, err := gen.Generate()
				if err != nil {
					t.Errorf("Generate() error = %v", err)
					return
				}
				if id <= prev {
					t.Errorf("id %d not greater than %d", id, prev)
					return
				}
				prev = id
				mu.Lock()
				ids[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(ids) != workers*perWorker {
		t.Errorf("unique ids = %d, want %d", len(ids), workers*perWorker)
	}
}

func TestGenerate_Components(t *testing.T) {
	gen, _ := NewGenerator(42)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	gen.now = func() int64 { return fixed.UnixMilli() }

	id, err := gen.Generate()
	if err != nil {
		t.Fatal(err)
	}
	if got := Time(id); !got.Equal(fixed) {
		t.Errorf("Time() = %v, want %v", got, fixed)
	}
	if got := Node(id); got != 42 {
		t.Errorf("Node() = %d, want 42", got)
	}
}

func TestGenerate_ClockStepBack(t *testing.T) {
	gen, _ := NewGenerator(1)
	clock := time.Now().UnixMilli()
	gen.now = func() int64 { return clock }

	if _, err := gen.Generate(); err != nil {
		t.Fatal(err)
	}

	clock -= 1000
	if _, err := gen.Generate(); err != ErrClockMovedBack {
		t.Errorf("err = %v, want ErrClockMovedBack", err)
	}
}
