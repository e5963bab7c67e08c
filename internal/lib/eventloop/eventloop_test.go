package eventloop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startLoop(t *testing.T) (*Loop, context.CancelFunc) {
	t.Helper()
	l := New(8)
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	t.Cleanup(cancel)
	return l, cancel
}

func TestLoop_DoReturnsResult(t *testing.T) {
	l, _ := startLoop(t)

	want := errors.New("boom")
	err := l.Do(context.Background(), func() error { return want })
	assert.ErrorIs(t, err, want)

	err = l.Do(context.Background(), func() error { return nil })
	assert.NoError(t, err)
}

func TestLoop_SerializesTasks(t *testing.T) {
	l, _ := startLoop(t)

	counter := 0
	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Do(context.Background(), func() error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()

	var got int
	require.NoError(t, l.Do(context.Background(), func() error {
		got = counter
		return nil
	}))
	assert.Equal(t, 100, got)
}

func TestLoop_PostKeepsOrder(t *testing.T) {
	l, _ := startLoop(t)

	var order []int
	for i := range 5 {
		l.Post(func() { order = append(order, i) })
	}
	var got []int
	require.NoError(t, l.Do(context.Background(), func() error {
		got = append(got, order...)
		return nil
	}))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestLoop_Stopped(t *testing.T) {
	l, cancel := startLoop(t)
	cancel()
	<-l.Done()

	err := l.Do(context.Background(), func() error { return nil })
	assert.ErrorIs(t, err, ErrStopped)

	done := make(chan struct{})
	go func() {
		l.Post(func() {})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Post blocked on a stopped loop")
	}
}
