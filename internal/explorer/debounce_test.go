// Copyright (c) 2026 GeoHistory. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package explorer_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/geohistory/internal/explorer"
)

type emissions struct {
	mu     sync.Mutex
	values []int
}

func (e *emissions) add(value int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.values = append(e.values, value)
}

func (e *emissions) get() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]int(nil), e.values...)
}

/*
TestDebouncer_EmitsLastOfBurst verifies that a burst yields a single, final value.
*/
func TestDebouncer_EmitsLastOfBurst(t *testing.T) {
	got := &emissions{}
	debouncer := explorer.NewDebouncer(40*time.Millisecond, got.add)
	t.Cleanup(debouncer.Stop)

	for i := 1; i <= 5; i++ {
		debouncer.Push(i)
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return len(got.get()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, []int{5}, got.get())
}

/*
TestDebouncer_SeparateBursts verifies that quiet periods split emissions.
*/
func TestDebouncer_SeparateBursts(t *testing.T) {
	got := &emissions{}
	debouncer := explorer.NewDebouncer(20*time.Millisecond, got.add)
	t.Cleanup(debouncer.Stop)

	debouncer.Push(1)
	require.Eventually(t, func() bool { return len(got.get()) == 1 }, time.Second, 5*time.Millisecond)

	debouncer.Push(2)
	require.Eventually(t, func() bool { return len(got.get()) == 2 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, []int{1, 2}, got.get())
}

/*
TestDebouncer_StopDropsPending verifies that nothing fires after Stop.
*/
func TestDebouncer_StopDropsPending(t *testing.T) {
	got := &emissions{}
	debouncer := explorer.NewDebouncer(20*time.Millisecond, got.add)

	debouncer.Push(1)
	debouncer.Stop()
	debouncer.Push(2)

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, got.get())
}
