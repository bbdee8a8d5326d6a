// Copyright (c) 2026 GeoHistory. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package explorer_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/taibuivan/geohistory/internal/catalog"
	"github.com/taibuivan/geohistory/internal/explorer"
)

func receive(t *testing.T, messages <-chan explorer.Message) explorer.Message {
	t.Helper()
	select {
	case message, ok := <-messages:
		require.True(t, ok, "stream closed")
		return message
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return explorer.Message{}
	}
}

/*
TestStream_FansOut verifies that every listener gets every frame, and that
cancelled listeners are released.
*/
func TestStream_FansOut(t *testing.T) {
	stream := explorer.NewStream(8)
	t.Cleanup(stream.Close)

	first := stream.Subscribe(context.Background(), 4)
	ctx, cancel := context.WithCancel(context.Background())
	second := stream.Subscribe(ctx, 4)

	stream.Publish(explorer.Message{Type: explorer.MessageState, Payload: 1})
	assert.Equal(t, 1, receive(t, first).Payload)
	assert.Equal(t, 1, receive(t, second).Payload)

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-second:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	stream.Publish(explorer.Message{Type: explorer.MessageState, Payload: 2})
	assert.Equal(t, 2, receive(t, first).Payload)
}

/*
TestStream_Close verifies that closing ends every listener and later calls are harmless.
*/
func TestStream_Close(t *testing.T) {
	stream := explorer.NewStream(8)
	listener := stream.Subscribe(context.Background(), 4)

	stream.Close()
	stream.Close()

	_, ok := <-listener
	assert.False(t, ok)

	stream.Publish(explorer.Message{Type: explorer.MessageState})
	_, ok = <-stream.Subscribe(context.Background(), 1)
	assert.False(t, ok)
}

/*
TestStreamRenderer verifies the wire shape of map and narration commands.
*/
func TestStreamRenderer(t *testing.T) {
	stream := explorer.NewStream(8)
	t.Cleanup(stream.Close)
	messages := stream.Subscribe(context.Background(), 8)

	viewport := explorer.NewStreamViewport(stream)
	speaker := explorer.NewStreamSpeaker(stream, true)

	viewport.FitBounds(catalog.Bounds{South: 1, West: 2, North: 3, East: 4}, 40)
	viewport.FlyTo(catalog.Point{Lat: 41.9, Lon: 12.5}, 5, 800*time.Millisecond)
	speaker.Speak("Ciao", language.MustParse("it-IT"))
	speaker.Cancel()

	fit := receive(t, messages)
	assert.Equal(t, explorer.MessageMap, fit.Type)
	assert.Equal(t, explorer.MapCommand{
		Action:  "fit_bounds",
		Bounds:  &catalog.Bounds{South: 1, West: 2, North: 3, East: 4},
		Padding: 40,
	}, fit.Payload)

	fly := receive(t, messages)
	assert.Equal(t, explorer.MapCommand{
		Action:     "fly_to",
		Point:      &catalog.Point{Lat: 41.9, Lon: 12.5},
		Zoom:       5,
		DurationMs: 800,
	}, fly.Payload)

	speak := receive(t, messages)
	assert.Equal(t, explorer.MessageNarration, speak.Type)
	assert.Equal(t, explorer.NarrationCommand{Action: "speak", Text: "Ciao", Voice: "it-IT"}, speak.Payload)

	assert.Equal(t, explorer.NarrationCommand{Action: "cancel"}, receive(t, messages).Payload)
	assert.True(t, speaker.Supported())
}
