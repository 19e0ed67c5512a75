// Package notify delivers values to a callback on a dedicated goroutine.
package notify

import "sync"

// Dispatcher hands posted values to its deliver function one at a time, in the order they
// were posted. Posting never blocks: values wait in an unbounded queue until delivered.
type Dispatcher[T any] struct {
	deliver func(T)
	onPanic func(any)

	mu     sync.Mutex
	queue  []T
	closed bool
	wake   chan struct{}
	wg     sync.WaitGroup
}

// New starts a dispatcher. onPanic, if set, receives the value recovered from a panicking deliver;
// the dispatcher keeps running either way.
func New[T any](deliver func(T), onPanic func(any)) *Dispatcher[T] {
	d := &Dispatcher[T]{
		deliver: deliver,
		onPanic: onPanic,
		wake:    make(chan struct{}, 1),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Post queues v for delivery. It reports false once the dispatcher is closed.
func (d *Dispatcher[T]) Post(v T) bool {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return false
	}
	d.queue = append(d.queue, v)
	d.mu.Unlock()

	d.signal()
	return true
}

// Close stops accepting values, delivers what is already queued and waits for the goroutine to exit.
func (d *Dispatcher[T]) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	d.signal()
	d.wg.Wait()
}

func (d *Dispatcher[T]) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *Dispatcher[T]) run() {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		batch := d.queue
		d.queue = nil
		closed := d.closed
		d.mu.Unlock()

		for _, v := range batch {
			d.safeDeliver(v)
		}

		if len(batch) == 0 {
			if closed {
				return
			}
			<-d.wake
		}
	}
}

func (d *Dispatcher[T]) safeDeliver(v T) {
	defer func() {
		if r := recover(); r != nil && d.onPanic != nil {
			d.onPanic(r)
		}
	}()
	d.deliver(v)
}
