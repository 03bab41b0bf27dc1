package ingest

import (
	"context"
)

// FlushFunc persists one batch. n is the 1-based batch number.
type FlushFunc[T any] func(ctx context.Context, n int, batch []T) error

// Batcher groups records and hands them to a FlushFunc once size is reached.
// Records sharing a key inside one pending batch collapse onto the latest one.
type Batcher[T any] struct {
	size    int
	key     func(T) string
	flush   FlushFunc[T]
	items   []T
	index   map[string]int
	batches int
}

func NewBatcher[T any](size int, key func(T) string, flush func(ctx context.Context, n int, batch []T) error) *Batcher[T] {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return &Batcher[T]{
		size:  size,
		key:   key,
		flush: flush,
		items: make([]T, 0, size),
		index: make(map[string]int, size),
	}
}

// Add queues item and flushes when the batch is full. replaced is true when the item
// overwrote a pending record with the same key.
func (b *Batcher[T]) Add(ctx context.Context, item T) (replaced bool, err error) {
	k := b.key(item)
	if i, ok := b.index[k]; ok {
		b.items[i] = item
		return true, nil
	}

	b.index[k] = len(b.items)
	b.items = append(b.items, item)
	if len(b.items) >= b.size {
		return false, b.Flush(ctx)
	}
	return false, nil
}

// Flush writes whatever is pending. It is a no-op on an empty batch.
func (b *Batcher[T]) Flush(ctx context.Context) error {
	if len(b.items) == 0 {
		return nil
	}
	b.batches++
	err := b.flush(ctx, b.batches, b.items)

	b.items = make([]T, 0, b.size)
	clear(b.index)
	return err
}

// Batches is the number of flushes attempted so far.
func (b *Batcher[T]) Batches() int {
	return b.batches
}

func (b *Batcher[T]) Pending() int {
	return len(b.items)
}
