// Package dispatch реализует массовую отправку с разбиением на пачки.
//
// Элементы делятся на последовательные пачки размером не больше BatchSize.
// Внутри пачки отправки выполняются параллельно, пачки идут строго по очереди
// с паузой DelayBetweenBatches между ними. Ошибка отдельного элемента только
// учитывается в итогах и не прерывает рассылку.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"
)

// Options параметры запуска рассылки.
type Options struct {
	BatchSize           int           // Размер пачки, значения меньше 1 считаются равными 1
	DelayBetweenBatches time.Duration // Пауза между пачками, отрицательные значения считаются нулем
	MaxRetries          int           // Повторы одного элемента после первой неудачи
	InitialBackoff      time.Duration // Первая пауза перед повтором
}

func (o Options) normalize() Options {
	if o.BatchSize < 1 {
		o.BatchSize = 1
	}
	if o.DelayBetweenBatches < 0 {
		o.DelayBetweenBatches = 0
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = 200 * time.Millisecond
	}
	return o
}

// SendFunc отправляет один элемент.
type SendFunc[T any] func(ctx context.Context, item T) error

// Failure элемент, который не удалось отправить, и последняя ошибка.
type Failure[T any] struct {
	Item T
	Err  error
}

// Result итоги рассылки. Failures можно передать в повторный запуск.
type Result[T any] struct {
	Success  int
	Failed   int
	Canceled int // Элементы, до которых не дошла очередь из-за отмены контекста
	Batches  int // Число запущенных пачек
	Failures []Failure[T]
}

// Retry возвращает элементы, которые стоит отправить повторно.
func (r Result[T]) Retry() []T {
	items := make([]T, 0, len(r.Failures))
	for _, f := range r.Failures {
		items = append(items, f.Item)
	}
	return items
}

// Dispatcher выполняет рассылку через переданную функцию отправки.
type Dispatcher[T any] struct {
	send     SendFunc[T]
	onResult func(item T, err error)
}

// New создает Dispatcher. onResult вызывается для каждого отправленного или
// не отправленного элемента и может быть nil.
func New[T any](send SendFunc[T], onResult func(item T, err error)) *Dispatcher[T] {
	return &Dispatcher[T]{
		send:     send,
		onResult: onResult,
	}
}

// Batches число пачек для n элементов.
func Batches(n, batchSize int) int {
	if n <= 0 {
		return 0
	}
	if batchSize < 1 {
		batchSize = 1
	}
	return (n + batchSize - 1) / batchSize
}

// Dispatch отправляет items и всегда возвращает итоги.
// Отмена ctx останавливает рассылку перед следующей пачкой или во время паузы.
func (d *Dispatcher[T]) Dispatch(ctx context.Context, items []T, opts Options) Result[T] {
	opts = opts.normalize()
	var res Result[T]

	for start := 0; start < len(items); start += opts.BatchSize {
		if start > 0 && !wait(ctx, opts.DelayBetweenBatches) {
			res.Canceled += len(items) - start
			break
		}
		if ctx.Err() != nil {
			res.Canceled += len(items) - start
			break
		}

		end := min(start+opts.BatchSize, len(items))
		d.runBatch(ctx, items[start:end], opts, &res)
		res.Batches++
	}
	return res
}

func (d *Dispatcher[T]) runBatch(ctx context.Context, batch []T, opts Options, res *Result[T]) {
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, item := range batch {
		g.Go(func() error {
			err := d.sendWithRetry(ctx, item, opts)

			mu.Lock()
			if err != nil {
				res.Failed++
				res.Failures = append(res.Failures, Failure[T]{Item: item, Err: err})
			} else {
				res.Success++
			}
			mu.Unlock()

			if d.onResult != nil {
				d.onResult(item, err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (d *Dispatcher[T]) sendWithRetry(ctx context.Context, item T, opts Options) error {
	if opts.MaxRetries == 0 {
		err := d.safeSend(ctx, item)
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return perm.Err
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = opts.InitialBackoff
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(opts.MaxRetries)), ctx)

	return backoff.Retry(func() error {
		return d.safeSend(ctx, item)
	}, policy)
}

// Permanent помечает ошибку элемента, после которой повторы не выполняются.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// safeSend превращает панику отправителя в ошибку элемента.
func (d *Dispatcher[T]) safeSend(ctx context.Context, item T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dispatch: send panicked: %v", r)
		}
	}()
	return d.send(ctx, item)
}

func wait(ctx context.Context, d time.Duration) bool {
	if d == 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
