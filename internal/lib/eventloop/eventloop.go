// Package eventloop реализует однопоточную очередь событий сессии.
//
// Все изменения состояния (коллекции участников и журнала) выполняются
// замыканиями в одной горутине. Колбэки удалённого хранилища и таймеры
// ставят работу через Post, обработчики запросов — через Do и ждут результат.
// Так ни одна мутация не перемежается с заменой снимка.
package eventloop

import (
	"context"
	"errors"
	"fmt"
)

// ErrStopped возвращается, если цикл уже остановлен.
var ErrStopped = errors.New("event loop stopped")

// Loop — очередь замыканий, исполняемых по порядку в одной горутине.
type Loop struct {
	queue chan func()
	done  chan struct{}
}

// New создаёт цикл с буфером очереди size.
func New(size int) *Loop {
	if size <= 0 {
		size = 64
	}
	return &Loop{
		queue: make(chan func(), size),
		done:  make(chan struct{}),
	}
}

// Run исполняет задачи до отмены ctx. Вызывается ровно один раз.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case fn := <-l.queue:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// Post ставит задачу в очередь без ожидания выполнения. Если цикл
// остановлен, задача отбрасывается.
func (l *Loop) Post(fn func()) {
	select {
	case l.queue <- fn:
	case <-l.done:
	}
}

// Do выполняет fn в цикле и возвращает её ошибку.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	const op = "eventloop.Do"
	result := make(chan error, 1)
	task := func() { result <- fn() }

	select {
	case l.queue <- task:
	case <-l.done:
		return fmt.Errorf("%s: %w", op, ErrStopped)
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	}

	select {
	case err := <-result:
		return err
	case <-l.done:
		return fmt.Errorf("%s: %w", op, ErrStopped)
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	}
}

// Done закрывается после остановки цикла.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
