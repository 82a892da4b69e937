package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jsvm/jsvm/src/internal/config"
	"github.com/jsvm/jsvm/src/internal/errs"
)

func TestAcquireRelease(t *testing.T) {
	paths := config.NewPaths(t.TempDir())

	lk, err := Acquire(context.Background(), paths)
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	lk.Release()
	lk.Release()

	// The lock can be taken again once released
	lk, err = Acquire(context.Background(), paths)
	if err != nil {
		t.Fatalf("second Acquire() error: %v", err)
	}
	lk.Release()
}

func TestAcquireSerializes(t *testing.T) {
	paths := config.NewPaths(t.TempDir())

	var inside int32
	var maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lk, err := Acquire(context.Background(), paths)
			if err != nil {
				t.Errorf("Acquire() error: %v", err)
				return
			}
			defer lk.Release()

			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Errorf("max holders = %d, want 1", maxInside)
	}
}

func TestAcquireCanceled(t *testing.T) {
	paths := config.NewPaths(t.TempDir())

	held, err := Acquire(context.Background(), paths)
	if err != nil {
		t.Fatal(err)
	}
	defer held.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = Acquire(ctx, paths)
	if err == nil {
		t.Fatal("Acquire() should fail when the context ends first")
	}
	if errs.KindOf(err) != errs.Interrupted {
		t.Errorf("KindOf() = %v, want Interrupted", errs.KindOf(err))
	}
}
