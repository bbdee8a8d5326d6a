// Copyright (c) 2026 GeoHistory. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package explorer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/geohistory/internal/explorer"
)

/*
TestTourState_Transitions verifies every transition against its expected state.
*/
func TestTourState_Transitions(t *testing.T) {
	playing := explorer.TourState{IsPlaying: true, Index: 2, SpeedMs: 2000, Loop: true, Total: 3}
	empty := explorer.TourState{SpeedMs: 2000, Loop: true}

	tests := []struct {
		name     string
		got      explorer.TourState
		expected explorer.TourState
	}{
		{"play on empty tour is refused", empty.PlayPause(), empty},
		{"pause", playing.PlayPause(), explorer.TourState{Index: 2, SpeedMs: 2000, Loop: true, Total: 3}},
		{"next wraps and pauses", playing.Next(), explorer.TourState{Index: 0, SpeedMs: 2000, Loop: true, Total: 3}},
		{"prev pauses", playing.Prev(), explorer.TourState{Index: 1, SpeedMs: 2000, Loop: true, Total: 3}},
		{"prev wraps", explorer.TourState{Total: 3}.Prev(), explorer.TourState{Index: 2, Total: 3}},
		{"next on empty", empty.Next(), empty},
		{"stop rewinds", playing.Stop(), explorer.TourState{SpeedMs: 2000, Loop: true, Total: 3}},
		{"speed keeps playback", playing.WithSpeed(500), explorer.TourState{IsPlaying: true, Index: 2, SpeedMs: 500, Loop: true, Total: 3}},
		{"toggle loop", playing.ToggleLoop(), explorer.TourState{IsPlaying: true, Index: 2, SpeedMs: 2000, Total: 3}},
		{"select pauses", playing.Select(0), explorer.TourState{SpeedMs: 2000, Loop: true, Total: 3}},
		{"select out of range is ignored", playing.Select(3), playing},
		{"select negative is ignored", playing.Select(-1), playing},
		{"tick wraps with loop", playing.Tick(), explorer.TourState{IsPlaying: true, Index: 0, SpeedMs: 2000, Loop: true, Total: 3}},
		{"tick stops at end without loop", playing.ToggleLoop().Tick(), explorer.TourState{Index: 2, SpeedMs: 2000, Total: 3}},
		{"tick advances", explorer.TourState{IsPlaying: true, Total: 3}.Tick(), explorer.TourState{IsPlaying: true, Index: 1, Total: 3}},
		{"tick while paused", playing.PlayPause().Tick(), playing.PlayPause()},
		{"resync keeps playback", playing.Resync(5), explorer.TourState{IsPlaying: true, SpeedMs: 2000, Loop: true, Total: 5}},
		{"resync to empty stops", playing.Resync(0), empty},
		{"reset keeps speed and loop", playing.WithSpeed(800).Reset(), explorer.TourState{SpeedMs: 800, Loop: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.got)
		})
	}
}

/*
TestTourState_IndexStaysInRange drives random-ish sequences and checks the
index invariant after every step.
*/
func TestTourState_IndexStaysInRange(t *testing.T) {
	steps := []func(explorer.TourState) explorer.TourState{
		explorer.TourState.PlayPause,
		explorer.TourState.Next,
		explorer.TourState.Prev,
		explorer.TourState.Tick,
		explorer.TourState.Stop,
		explorer.TourState.ToggleLoop,
		func(s explorer.TourState) explorer.TourState { return s.Select(4) },
		func(s explorer.TourState) explorer.TourState { return s.Resync(2) },
		func(s explorer.TourState) explorer.TourState { return s.Resync(0) },
		func(s explorer.TourState) explorer.TourState { return s.Resync(7) },
	}

	state := explorer.DefaultTourState()
	for i := 0; i < 500; i++ {
		state = steps[(i*7+i/3)%len(steps)](state)

		if state.Total == 0 {
			assert.Zero(t, state.Index)
			assert.False(t, state.IsPlaying)
			continue
		}
		assert.GreaterOrEqual(t, state.Index, 0)
		assert.Less(t, state.Index, state.Total)
	}
}
