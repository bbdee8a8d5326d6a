// Copyright (c) 2026 GeoHistory. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package explorer

import (
	"time"

	"github.com/taibuivan/geohistory/internal/platform/constants"
)

// # Tour State

// TourState is the complete state of the guided tour.
//
// Invariants: 0 <= Index < Total when Total > 0, and Index == 0 with
// IsPlaying == false when Total == 0. Every transition below preserves them.
type TourState struct {
	IsPlaying bool `json:"is_playing"`
	Index     int  `json:"index"`
	SpeedMs   int  `json:"speed_ms"`
	Loop      bool `json:"loop"`
	Total     int  `json:"total"`
}

// DefaultTourState is the state of a fresh session.
func DefaultTourState() TourState {
	return TourState{SpeedMs: int(constants.DefaultTourSpeed / time.Millisecond), Loop: true}
}

// PlayPause toggles playback. It is a no-op on an empty tour.
func (s TourState) PlayPause() TourState {
	if s.Total == 0 {
		s.IsPlaying = false
		return s
	}
	s.IsPlaying = !s.IsPlaying
	return s
}

// Next stops playback and moves forward, wrapping at the end.
func (s TourState) Next() TourState {
	s.IsPlaying = false
	if s.Total == 0 {
		s.Index = 0
		return s
	}
	s.Index = (s.Index + 1) % s.Total
	return s
}

// Prev stops playback and moves back, wrapping at the start.
func (s TourState) Prev() TourState {
	s.IsPlaying = false
	if s.Total == 0 {
		s.Index = 0
		return s
	}
	s.Index = (s.Index - 1 + s.Total) % s.Total
	return s
}

// Stop halts playback and rewinds to the first event.
func (s TourState) Stop() TourState {
	s.IsPlaying = false
	s.Index = 0
	return s
}

// WithSpeed changes the autoplay interval without touching playback.
func (s TourState) WithSpeed(ms int) TourState {
	s.SpeedMs = ms
	return s
}

// ToggleLoop flips wrap-around at the end of autoplay.
func (s TourState) ToggleLoop() TourState {
	s.Loop = !s.Loop
	return s
}

// Select jumps to index and stops playback. Out-of-range indexes are ignored.
func (s TourState) Select(index int) TourState {
	if index < 0 || index >= s.Total {
		return s
	}
	s.IsPlaying = false
	s.Index = index
	return s
}

// Tick advances autoplay by one step. At the last event it wraps when Loop
// is set and otherwise stops playback in place.
func (s TourState) Tick() TourState {
	if !s.IsPlaying || s.Total == 0 {
		return s
	}

	switch {
	case s.Index < s.Total-1:
		s.Index++
	case s.Loop:
		s.Index = 0
	default:
		s.IsPlaying = false
	}
	return s
}

// Resync adopts a freshly loaded list of total events. Playback survives
// only when the new list is not empty.
func (s TourState) Resync(total int) TourState {
	s.Total = total
	s.Index = 0
	s.IsPlaying = s.IsPlaying && total > 0
	return s
}

// Reset empties the tour but keeps the listener's speed and loop choice.
func (s TourState) Reset() TourState {
	return TourState{SpeedMs: s.SpeedMs, Loop: s.Loop}
}

// governs reports whether moving from s to next must re-arm the autoplay timer.
func (s TourState) governs(next TourState) bool {
	return s.IsPlaying != next.IsPlaying ||
		s.SpeedMs != next.SpeedMs ||
		s.Total != next.Total ||
		s.Loop != next.Loop
}

// # Tour Controller

// TourController owns the tour state and its single autoplay ticker.
//
// It lives on the session loop: Apply and Close must only be called from
// there. Ticks are delivered back into the loop through post; a tick from a
// ticker that has since been replaced is discarded by generation.
type TourController struct {
	state      TourState
	generation uint64
	halt       chan struct{}
	post       func(func()) bool
	onTick     func()
	closed     bool
}

// NewTourController returns a controller in state initial. onTick runs on
// the loop after every applied tick.
func NewTourController(initial TourState, post func(func()) bool, onTick func()) *TourController {
	controller := &TourController{
		state:  initial,
		post:   post,
		onTick: onTick,
	}
	controller.rearm()
	return controller
}

// State returns the current tour state.
func (controller *TourController) State() TourState {
	return controller.state
}

// Apply moves to next, re-arming the ticker when playback, speed, total or
// loop changed.
func (controller *TourController) Apply(next TourState) {
	previous := controller.state
	controller.state = next
	if previous.governs(next) {
		controller.rearm()
	}
}

// Close tears down the ticker. The controller stays usable for reads.
func (controller *TourController) Close() {
	controller.closed = true
	controller.disarm()
}

func (controller *TourController) disarm() {
	controller.generation++
	if controller.halt != nil {
		close(controller.halt)
		controller.halt = nil
	}
}

func (controller *TourController) rearm() {
	controller.disarm()

	state := controller.state
	if controller.closed || !state.IsPlaying || state.Total == 0 || state.SpeedMs <= 0 {
		return
	}

	halt := make(chan struct{})
	controller.halt = halt
	generation := controller.generation
	interval := time.Duration(state.SpeedMs) * time.Millisecond

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-halt:
				return
			case <-ticker.C:
				if !controller.post(func() { controller.tick(generation) }) {
					return
				}
			}
		}
	}()
}

func (controller *TourController) tick(generation uint64) {
	if generation != controller.generation {
		return
	}
	controller.Apply(controller.state.Tick())
	controller.onTick()
}
