// Copyright (c) 2026 GeoHistory. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package explorer coordinates filtering, loading and the narrated tour for one
renderer at a time.

Architecture:

  - Session: Owns every piece of state and mutates it on a single goroutine
    (the loop). Fetches, timers and the autoplay ticker run elsewhere and
    post their results back into the loop.
  - Components: [Debouncer], [OptionsNarrower], [EventSetLoader],
    [TourController], [DetailLoader], [MapSync] and [NarrationController]
    each hold their own slice of state.
  - Delivery: A [Registry] hosts sessions for the HTTP API, and a [Stream]
    carries state, map and narration frames to the renderer.

Every request tied to a changing input is cancelled when the input changes
again, and a cancelled result is never applied.
*/
package explorer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/taibuivan/geohistory/internal/catalog"
	"github.com/taibuivan/geohistory/internal/platform/apperr"
	"github.com/taibuivan/geohistory/internal/platform/constants"
)

// ErrSessionClosed is returned by every command on a closed session.
var ErrSessionClosed = apperr.NotFound("Session")

// inboxSize bounds the loop's pending work.
const inboxSize = 64

// Settings are the behavioural knobs of a new session.
type Settings struct {
	Debounce     time.Duration
	Tour         TourState
	Language     Language
	VoiceEnabled bool
}

// DefaultSettings mirrors a fresh renderer: 250ms debounce, 2s autoplay with
// loop, Italian, voice on.
func DefaultSettings() Settings {
	return Settings{
		Debounce:     constants.DefaultDebounce,
		Tour:         DefaultTourState(),
		Language:     LanguageItalian,
		VoiceEnabled: true,
	}
}

// Deps are the collaborators of a session. Stream is optional.
type Deps struct {
	Repository catalog.Repository
	Viewport   Viewport
	Speaker    Speaker
	Stream     *Stream
	Logger     *slog.Logger
}

// cursor identifies the current tour stop: a position in one specific list.
type cursor struct {
	list  uint64
	index int
}

// Session is one renderer's explorer.
//
// Exported methods are safe for concurrent use; each one runs to completion
// on the loop before returning.
type Session struct {
	id        string
	createdAt time.Time
	logger    *slog.Logger
	stream    *Stream

	inbox     chan func()
	quit      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
	ctx       context.Context
	cancel    context.CancelFunc

	lastActive atomic.Int64
	listeners  atomic.Int32

	// Loop-owned state below.
	language   Language
	filters    catalog.Filters
	debouncer  *Debouncer[catalog.Filters]
	options    *OptionsNarrower
	loader     *EventSetLoader
	tour       *TourController
	detail     *DetailLoader
	mapSync    *MapSync
	narration  *NarrationController
	current    cursor
	hasCurrent bool
	wasPlaying bool
	epoch      uint64
}

// NewSession starts a session and its loop. The initial options fetch is
// issued right away with empty filters.
func NewSession(id string, deps Deps, settings Settings) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	logger := deps.Logger.With(slog.String("session_id", id))

	session := &Session{
		id:        id,
		createdAt: time.Now(),
		logger:    logger,
		stream:    deps.Stream,
		inbox:     make(chan func(), inboxSize),
		quit:      make(chan struct{}),
		stopped:   make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
		language:  settings.Language,
	}

	session.options = NewOptionsNarrower(deps.Repository, logger, session.post, session.publish)
	session.loader = NewEventSetLoader(deps.Repository, logger, session.post, session.onListSettled)
	session.detail = NewDetailLoader(deps.Repository, logger, session.post, session.settle)
	session.tour = NewTourController(settings.Tour.Reset(), session.post, session.settle)
	session.mapSync = NewMapSync(deps.Viewport)
	session.narration = NewNarrationController(deps.Speaker, settings.VoiceEnabled)
	session.debouncer = NewDebouncer(settings.Debounce, func(filters catalog.Filters) {
		session.post(func() {
			session.loader.Load(session.ctx, filters)
			session.settle()
		})
	})

	session.touch()
	go session.run()

	session.post(func() {
		session.options.Refresh(session.ctx, catalog.Filters{})
		session.settle()
	})

	logger.Info("session_started", slog.String("language", string(settings.Language)))
	return session
}

// ID returns the session identifier.
func (session *Session) ID() string { return session.id }

// Done is closed once the session has shut down.
func (session *Session) Done() <-chan struct{} { return session.quit }

// LastActive is the time of the latest command.
func (session *Session) LastActive() time.Time {
	return time.Unix(0, session.lastActive.Load())
}

// Listeners is the number of open streams.
func (session *Session) Listeners() int {
	return int(session.listeners.Load())
}

// # Loop

func (session *Session) run() {
	defer close(session.stopped)

	for {
		select {
		case <-session.quit:
			return
		case work := <-session.inbox:
			session.safely(work)
		}
	}
}

func (session *Session) safely(work func()) {
	defer func() {
		if recovered := recover(); recovered != nil {
			session.logger.Error("session_panic_recovered", slog.Any("panic", recovered))
		}
	}()
	work()
}

// post queues work for the loop. It reports false once the session is closed.
func (session *Session) post(work func()) bool {
	select {
	case <-session.quit:
		return false
	default:
	}

	select {
	case session.inbox <- work:
		return true
	case <-session.quit:
		return false
	}
}

// exec runs work on the loop and waits for it.
func (session *Session) exec(work func()) error {
	session.touch()

	finished := make(chan struct{})
	if !session.post(func() {
		defer close(finished)
		work()
	}) {
		return ErrSessionClosed
	}

	select {
	case <-finished:
		return nil
	case <-session.quit:
		return ErrSessionClosed
	}
}

func (session *Session) touch() {
	session.lastActive.Store(time.Now().UnixNano())
}

// # Reactions

func (session *Session) onListSettled() {
	state := session.tour.State()
	session.tour.Apply(state.Resync(len(session.loader.Events())))
	session.settle()
}

func (session *Session) currentEvent() (catalog.Event, cursor, bool) {
	state := session.tour.State()
	events := session.loader.Events()
	if state.Total == 0 || state.Index >= len(events) {
		return catalog.Event{}, cursor{}, false
	}
	return events[state.Index], cursor{list: session.loader.Generation(), index: state.Index}, true
}

// settle propagates the latest list and tour state to the map, the detail
// loader and the narrator, then publishes the new state.
func (session *Session) settle() {
	state := session.tour.State()

	session.mapSync.SyncMarkers(session.loader.Events())

	event, at, ok := session.currentEvent()
	if ok != session.hasCurrent || at != session.current {
		session.hasCurrent, session.current = ok, at
		if ok {
			if state.IsPlaying {
				session.narration.interrupt()
			}
			session.mapSync.Focus(event)
			session.detail.Follow(session.ctx, &event)
		} else {
			session.detail.Follow(session.ctx, nil)
		}
	}

	if state.IsPlaying && !session.wasPlaying {
		session.epoch++
	}
	session.wasPlaying = state.IsPlaying

	if state.IsPlaying && ok && session.detail.Settled() {
		key := narrationKey{event: at, language: session.language, epoch: session.epoch}
		session.narration.narrate(key, session.language, NarrationText(session.language, event, session.detail.Detail()))
	}

	session.publish()
}

func (session *Session) publish() {
	if session.stream == nil {
		return
	}
	session.stream.Publish(Message{Type: MessageState, Payload: session.snapshot()})
}

func (session *Session) snapshot() Snapshot {
	snapshot := Snapshot{
		ID:          session.id,
		Language:    session.language,
		Filters:     session.filters,
		Options:     session.options.Options(),
		Events:      session.loader.Events(),
		ResultCount: session.loader.ResultTotal(),
		Loading:     session.loader.Loading(),
		Error:       session.loader.Failure(),
		Tour:        session.tour.State(),
		Zoom:        session.mapSync.Zoom(),
		Narration: NarrationState{
			Supported: session.narration.Supported(),
			Enabled:   session.narration.Enabled(),
		},
		DetailLoading: session.detail.Loading(),
	}

	if !session.filters.Active() && !snapshot.Loading && snapshot.Error == "" {
		snapshot.Hint = phrase("filters_hint", session.language)
	}
	if event, at, ok := session.currentEvent(); ok {
		snapshot.Card = NewCard(session.language, at.index, event)
	}
	if detail := session.detail.Detail(); detail != nil {
		snapshot.Detail = NewDetailView(session.language, *detail)
	}
	return snapshot
}

// # Commands

// Snapshot returns the current view.
func (session *Session) Snapshot() (Snapshot, error) {
	var snapshot Snapshot
	err := session.exec(func() { snapshot = session.snapshot() })
	return snapshot, err
}

// SetFilter changes one dimension, clearing its downstream dimensions.
//
// Options are narrowed at once; the event list follows after the debounce.
func (session *Session) SetFilter(dimension catalog.Dimension, value string) error {
	return session.exec(func() {
		next := session.filters.With(dimension, value)
		if next == session.filters {
			return
		}
		session.filters = next
		session.options.Refresh(session.ctx, next)
		session.debouncer.Push(next)
		session.publish()
	})
}

// ResetFilters clears every filter and the tour, keeping speed and loop.
func (session *Session) ResetFilters() error {
	return session.exec(func() {
		session.filters = catalog.Filters{}
		session.debouncer.Push(catalog.Filters{})
		session.tour.Apply(session.tour.State().Reset())
		session.loader.Load(session.ctx, catalog.Filters{})
		session.options.Refresh(session.ctx, catalog.Filters{})
		session.settle()
	})
}

func (session *Session) transition(step func(TourState) TourState) error {
	return session.exec(func() {
		session.tour.Apply(step(session.tour.State()))
		session.settle()
	})
}

// PlayPause toggles autoplay.
func (session *Session) PlayPause() error { return session.transition(TourState.PlayPause) }

// Next moves to the following event and stops autoplay.
func (session *Session) Next() error { return session.transition(TourState.Next) }

// Prev moves to the previous event and stops autoplay.
func (session *Session) Prev() error { return session.transition(TourState.Prev) }

// ToggleLoop flips wrap-around.
func (session *Session) ToggleLoop() error { return session.transition(TourState.ToggleLoop) }

// ChangeSpeed sets the autoplay interval in milliseconds.
func (session *Session) ChangeSpeed(ms int) error {
	return session.transition(func(state TourState) TourState { return state.WithSpeed(ms) })
}

// Select jumps to the event at index, as a marker click does.
func (session *Session) Select(index int) error {
	return session.transition(func(state TourState) TourState { return state.Select(index) })
}

// Stop rewinds the tour, silences the narrator and fits the map to every marker.
func (session *Session) Stop() error {
	return session.exec(func() {
		session.tour.Apply(session.tour.State().Stop())
		session.narration.Stop()
		session.settle()
		session.mapSync.FitAll()
	})
}

// ReportZoom records the renderer's current zoom.
func (session *Session) ReportZoom(zoom float64) error {
	return session.exec(func() {
		session.mapSync.ReportZoom(zoom)
		session.publish()
	})
}

// SetLanguage switches the UI and narration language.
func (session *Session) SetLanguage(language Language) error {
	return session.exec(func() {
		session.language = language
		session.settle()
	})
}

// SetVoice switches automatic narration.
func (session *Session) SetVoice(enabled bool) error {
	return session.exec(func() {
		if enabled && !session.narration.Enabled() {
			session.epoch++
		}
		session.narration.SetEnabled(enabled)
		session.settle()
	})
}

// Speak narrates the current event now, whether or not the tour plays.
func (session *Session) Speak() error {
	return session.exec(func() {
		if event, _, ok := session.currentEvent(); ok {
			session.narration.SpeakNow(session.language, NarrationText(session.language, event, session.detail.Detail()))
		}
	})
}

// PauseVoice suspends narration.
func (session *Session) PauseVoice() error {
	return session.exec(func() { session.narration.Pause() })
}

// ResumeVoice continues narration.
func (session *Session) ResumeVoice() error {
	return session.exec(func() { session.narration.Resume() })
}

// StopVoice cancels narration.
func (session *Session) StopVoice() error {
	return session.exec(func() { session.narration.Stop() })
}

// Subscribe attaches a listener to the session stream until ctx ends.
func (session *Session) Subscribe(ctx context.Context, buffer int) (<-chan Message, error) {
	if session.stream == nil {
		return nil, fmt.Errorf("explorer: session %s has no stream", session.id)
	}

	select {
	case <-session.quit:
		return nil, ErrSessionClosed
	default:
	}

	session.listeners.Add(1)
	messages := session.stream.Subscribe(ctx, buffer)
	go func() {
		<-ctx.Done()
		session.listeners.Add(-1)
		session.touch()
	}()
	return messages, nil
}

// Close stops the ticker, the debouncer and every request, then the loop.
// It is safe to call more than once.
func (session *Session) Close() {
	session.closeOnce.Do(func() {
		session.debouncer.Stop()
		_ = session.exec(func() { session.tour.Close() })

		session.cancel()
		close(session.quit)
		<-session.stopped

		if session.stream != nil {
			session.stream.Close()
		}
		session.logger.Info("session_closed", slog.Duration("lifetime", time.Since(session.createdAt)))
	})
}
