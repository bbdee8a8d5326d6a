// Copyright (c) 2026 GeoHistory. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package explorer

import (
	"sync"
	"time"
)

// Debouncer forwards only the last value of a burst, once the input has been
// quiet for the full delay.
//
// Every Push cancels the pending timer and arms a new one. A sequence number
// guards the window where a timer has already fired but lost the race with a
// newer Push: that timer never emits.
type Debouncer[T any] struct {
	mu      sync.Mutex
	delay   time.Duration
	emit    func(T)
	timer   *time.Timer
	seq     uint64
	stopped bool
}

// NewDebouncer returns a Debouncer calling emit on its own goroutine.
func NewDebouncer[T any](delay time.Duration, emit func(T)) *Debouncer[T] {
	return &Debouncer[T]{delay: delay, emit: emit}
}

// Push records value as the latest input and restarts the quiet period.
func (debouncer *Debouncer[T]) Push(value T) {
	debouncer.mu.Lock()
	defer debouncer.mu.Unlock()

	if debouncer.stopped {
		return
	}
	if debouncer.timer != nil {
		debouncer.timer.Stop()
	}

	debouncer.seq++
	armed := debouncer.seq
	debouncer.timer = time.AfterFunc(debouncer.delay, func() {
		debouncer.fire(armed, value)
	})
}

func (debouncer *Debouncer[T]) fire(armed uint64, value T) {
	debouncer.mu.Lock()
	live := !debouncer.stopped && debouncer.seq == armed
	debouncer.mu.Unlock()

	if live {
		debouncer.emit(value)
	}
}

// Stop cancels any pending emission. Later pushes are ignored.
func (debouncer *Debouncer[T]) Stop() {
	debouncer.mu.Lock()
	defer debouncer.mu.Unlock()

	debouncer.stopped = true
	if debouncer.timer != nil {
		debouncer.timer.Stop()
		debouncer.timer = nil
	}
}
