package batch

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestPool_Run_AllSucceed(t *testing.T) {
	p := NewPool(2, nil)
	var mu sync.Mutex
	var seen []string

	results, stats := p.Run(context.Background(), []string{"a.lmn", "b.lmn", "c.lmn"}, func(path string) error {
		mu.Lock()
		seen = append(seen, path)
		mu.Unlock()
		return nil
	})

	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("unexpected error for %s: %v", r.Job.Path, r.Err)
		}
	}
	if stats.Completed != 3 || stats.Failed != 0 {
		t.Fatalf("stats = %+v, want 3 completed, 0 failed", stats)
	}
	if len(seen) != 3 {
		t.Fatalf("compileOne called %d times, want 3", len(seen))
	}
}

func TestPool_Run_PartialFailure(t *testing.T) {
	p := NewPool(1, nil)
	wantErr := errors.New("boom")

	results, stats := p.Run(context.Background(), []string{"ok.lmn", "bad.lmn"}, func(path string) error {
		if path == "bad.lmn" {
			return wantErr
		}
		return nil
	})

	if stats.Completed != 1 || stats.Failed != 1 {
		t.Fatalf("stats = %+v, want 1 completed, 1 failed", stats)
	}
	var gotErr error
	for _, r := range results {
		if r.Job.Path == "bad.lmn" {
			gotErr = r.Err
		}
	}
	if gotErr != wantErr {
		t.Fatalf("bad.lmn error = %v, want %v", gotErr, wantErr)
	}
}

func TestPool_Run_CancelledContextSkipsDispatch(t *testing.T) {
	p := NewPool(1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var called bool
	results, _ := p.Run(ctx, []string{"never.lmn"}, func(path string) error {
		called = true
		return nil
	})

	if called {
		t.Fatal("compileOne should not run once the context is already cancelled")
	}
	if results[0].Err != context.Canceled {
		t.Fatalf("results[0].Err = %v, want context.Canceled", results[0].Err)
	}
}
