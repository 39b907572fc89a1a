package main

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestStartWorkers_WaitReturnsAfterLoopsExit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var finished atomic.Int32
	loop := func(ctx context.Context) {
		<-ctx.Done()
		// work still in flight after cancel
		time.Sleep(20 * time.Millisecond)
		finished.Add(1)
	}
	wg := startWorkers(ctx, loop, loop)

	cancel()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("workers did not stop")
	}
	if got := finished.Load(); got != 2 {
		t.Fatalf("Wait returned with %d of 2 loops finished", got)
	}
}
