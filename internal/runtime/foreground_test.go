package runtime_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"github.com/aretw0/reflex/internal/runtime"
)

func TestForeground_FIFO(t *testing.T) {
	defer goleak.VerifyNone(t)

	fg := runtime.NewForeground(8, nil)
	ctx, cancel := context.WithCancel(context.Background())

	var (
		mu    sync.Mutex
		order []int
		wg    sync.WaitGroup
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		fg.Dispatch(ctx, func(context.Context) {
			defer wg.Done()
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}

	done := make(chan struct{})
	go func() {
		fg.Run(ctx)
		close(done)
	}()

	wg.Wait()
	cancel()
	<-done

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestForeground_DropsWhenFull(t *testing.T) {
	fg := runtime.NewForeground(1, nil)
	ctx := context.Background()

	fg.Dispatch(ctx, func(context.Context) {})
	fg.Dispatch(ctx, func(context.Context) {})
	assert.Equal(t, 1, fg.Pending())
}

func TestForeground_DiscardsOnStop(t *testing.T) {
	fg := runtime.NewForeground(4, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fg.Dispatch(ctx, func(context.Context) {})

	done := make(chan struct{})
	go func() {
		fg.Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
	assert.Zero(t, fg.Pending())
}
