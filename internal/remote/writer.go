package remote

import (
	"context"
	"sync"
	"time"
)

// WriteFunc записывает значение по пути в удалённое хранилище.
type WriteFunc func(ctx context.Context, path string, value []byte) error

type pendingWrite struct {
	path  string
	value []byte
}

// Writer выполняет записи по одной в порядке постановки. Более старая
// запись никогда не попадает в хранилище после более новой.
type Writer struct {
	write    WriteFunc
	timeout  time.Duration
	onResult func(path string, err error)

	mu      sync.Mutex
	queue   []pendingWrite
	running bool
	pending sync.WaitGroup
}

// NewWriter создаёт очередь записей. onResult вызывается после каждой
// записи из горутины очереди и может быть nil.
func NewWriter(write WriteFunc, timeout time.Duration, onResult func(path string, err error)) *Writer {
	if onResult == nil {
		onResult = func(string, error) {}
	}
	return &Writer{write: write, timeout: timeout, onResult: onResult}
}

// Enqueue ставит запись в очередь и не ждёт её выполнения.
func (w *Writer) Enqueue(path string, value []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending.Add(1)
	w.queue = append(w.queue, pendingWrite{path: path, value: value})
	if !w.running {
		w.running = true
		go w.drain()
	}
}

// Wait дожидается выполнения всех поставленных записей.
func (w *Writer) Wait() {
	w.pending.Wait()
}

func (w *Writer) drain() {
	for {
		w.mu.Lock()
		if len(w.queue) == 0 {
			w.running = false
			w.mu.Unlock()
			return
		}
		next := w.queue[0]
		w.queue = w.queue[1:]
		w.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		err := w.write(ctx, next.path, next.value)
		cancel()
		w.onResult(next.path, err)
		w.pending.Done()
	}
}
