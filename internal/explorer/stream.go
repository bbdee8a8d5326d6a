// Copyright (c) 2026 GeoHistory. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package explorer

import (
	"context"
	"sync"
	"time"

	"golang.org/x/text/language"

	"github.com/taibuivan/geohistory/internal/catalog"
)

// # Messages

// Message types delivered to renderers.
const (
	MessageState     = "state"
	MessageMap       = "map"
	MessageNarration = "narration"
)

// Message is one frame of a session stream.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// MapCommand instructs the renderer's map.
type MapCommand struct {
	Action     string          `json:"action"`
	Bounds     *catalog.Bounds `json:"bounds,omitempty"`
	Padding    int             `json:"padding,omitempty"`
	Point      *catalog.Point  `json:"point,omitempty"`
	Zoom       float64         `json:"zoom,omitempty"`
	DurationMs int64           `json:"duration_ms,omitempty"`
}

// NarrationCommand instructs the renderer's speech synthesizer.
type NarrationCommand struct {
	Action string `json:"action"`
	Text   string `json:"text,omitempty"`
	Voice  string `json:"voice,omitempty"`
}

// # Stream

// Stream fans out messages of one session to every connected renderer.
//
// All bookkeeping happens on one goroutine; producers never block and slow
// listeners simply miss frames.
type Stream struct {
	publish     chan Message
	subscribe   chan chan Message
	unsubscribe chan chan Message
	quit        chan struct{}
	closed      chan struct{}
	once        sync.Once
}

// NewStream starts a stream whose publish queue holds buffer frames.
func NewStream(buffer int) *Stream {
	stream := &Stream{
		publish:     make(chan Message, buffer),
		subscribe:   make(chan chan Message),
		unsubscribe: make(chan chan Message),
		quit:        make(chan struct{}),
		closed:      make(chan struct{}),
	}

	go stream.run()
	return stream
}

// Publish queues a message for every listener, dropping it when the queue is full.
func (stream *Stream) Publish(message Message) {
	select {
	case <-stream.quit:
	case stream.publish <- message:
	default:
	}
}

// Subscribe registers a listener. The channel closes when ctx ends or the
// stream is closed.
func (stream *Stream) Subscribe(ctx context.Context, buffer int) <-chan Message {
	listener := make(chan Message, buffer)

	select {
	case stream.subscribe <- listener:
	case <-stream.quit:
		close(listener)
		return listener
	}

	go func() {
		select {
		case <-ctx.Done():
			select {
			case stream.unsubscribe <- listener:
			case <-stream.quit:
			}
		case <-stream.quit:
		}
	}()

	return listener
}

// Close disconnects every listener. It is safe to call more than once.
func (stream *Stream) Close() {
	stream.once.Do(func() { close(stream.quit) })
	<-stream.closed
}

func (stream *Stream) run() {
	defer close(stream.closed)
	listeners := make(map[chan Message]struct{})

	for {
		select {
		case listener := <-stream.subscribe:
			listeners[listener] = struct{}{}
		case listener := <-stream.unsubscribe:
			if _, ok := listeners[listener]; ok {
				delete(listeners, listener)
				close(listener)
			}
		case message := <-stream.publish:
			for listener := range listeners {
				select {
				case listener <- message:
				default:
				}
			}
		case <-stream.quit:
			for listener := range listeners {
				close(listener)
			}
			return
		}
	}
}

// # Stream-backed Renderer

// StreamViewport forwards viewport commands to a stream.
type StreamViewport struct {
	stream *Stream
}

// NewStreamViewport returns a [Viewport] publishing to stream.
func NewStreamViewport(stream *Stream) *StreamViewport {
	return &StreamViewport{stream: stream}
}

// FitBounds publishes a fit_bounds command.
func (viewport *StreamViewport) FitBounds(bounds catalog.Bounds, padding int) {
	viewport.stream.Publish(Message{Type: MessageMap, Payload: MapCommand{
		Action:  "fit_bounds",
		Bounds:  &bounds,
		Padding: padding,
	}})
}

// FlyTo publishes a fly_to command.
func (viewport *StreamViewport) FlyTo(point catalog.Point, zoom float64, duration time.Duration) {
	viewport.stream.Publish(Message{Type: MessageMap, Payload: MapCommand{
		Action:     "fly_to",
		Point:      &point,
		Zoom:       zoom,
		DurationMs: duration.Milliseconds(),
	}})
}

// StreamSpeaker forwards speech commands to a stream.
//
// Whether speech works is declared by the renderer when the session is created.
type StreamSpeaker struct {
	stream    *Stream
	supported bool
}

// NewStreamSpeaker returns a [Speaker] publishing to stream.
func NewStreamSpeaker(stream *Stream, supported bool) *StreamSpeaker {
	return &StreamSpeaker{stream: stream, supported: supported}
}

// Supported reports the renderer's declared capability.
func (speaker *StreamSpeaker) Supported() bool { return speaker.supported }

// Speak publishes a speak command.
func (speaker *StreamSpeaker) Speak(text string, voice language.Tag) {
	speaker.send(NarrationCommand{Action: "speak", Text: text, Voice: voice.String()})
}

// Cancel publishes a cancel command.
func (speaker *StreamSpeaker) Cancel() { speaker.send(NarrationCommand{Action: "cancel"}) }

// Pause publishes a pause command.
func (speaker *StreamSpeaker) Pause() { speaker.send(NarrationCommand{Action: "pause"}) }

// Resume publishes a resume command.
func (speaker *StreamSpeaker) Resume() { speaker.send(NarrationCommand{Action: "resume"}) }

func (speaker *StreamSpeaker) send(command NarrationCommand) {
	speaker.stream.Publish(Message{Type: MessageNarration, Payload: command})
}
