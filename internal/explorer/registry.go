// Copyright (c) 2026 GeoHistory. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package explorer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/taibuivan/geohistory/internal/catalog"
	"github.com/taibuivan/geohistory/internal/platform/apperr"
	"github.com/taibuivan/geohistory/internal/platform/constants"
	"github.com/taibuivan/geohistory/pkg/uuid"
)

// streamBuffer is the per-listener backlog before frames are dropped.
const streamBuffer = 32

// CreateOptions are the renderer's choices when opening a session.
type CreateOptions struct {
	Language        Language
	SpeechSupported bool
	VoiceEnabled    bool
}

// Registry hosts the live sessions of the HTTP API.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	repository  catalog.Repository
	settings    Settings
	idleTimeout time.Duration
	logger      *slog.Logger
}

// NewRegistry returns an empty registry. Sessions idle for longer than
// idleTimeout with no open stream are closed by [Registry.Run].
func NewRegistry(repository catalog.Repository, settings Settings, idleTimeout time.Duration, logger *slog.Logger) *Registry {
	return &Registry{
		sessions:    make(map[string]*Session),
		repository:  repository,
		settings:    settings,
		idleTimeout: idleTimeout,
		logger:      logger,
	}
}

// Create opens a session whose map and voice commands go to its stream.
func (registry *Registry) Create(options CreateOptions) *Session {
	stream := NewStream(streamBuffer)

	settings := registry.settings
	if options.Language != "" {
		settings.Language = options.Language
	}
	settings.VoiceEnabled = options.VoiceEnabled

	session := NewSession(uuid.New(), Deps{
		Repository: registry.repository,
		Viewport:   NewStreamViewport(stream),
		Speaker:    NewStreamSpeaker(stream, options.SpeechSupported),
		Stream:     stream,
		Logger:     registry.logger,
	}, settings)

	registry.mu.Lock()
	registry.sessions[session.ID()] = session
	registry.mu.Unlock()

	return session
}

// Get finds a live session.
func (registry *Registry) Get(id string) (*Session, error) {
	registry.mu.RLock()
	session, ok := registry.sessions[id]
	registry.mu.RUnlock()

	if !ok {
		return nil, apperr.NotFound("Session")
	}
	return session, nil
}

// Remove closes and forgets a session. Unknown ids are ignored.
func (registry *Registry) Remove(id string) {
	registry.mu.Lock()
	session, ok := registry.sessions[id]
	delete(registry.sessions, id)
	registry.mu.Unlock()

	if ok {
		session.Close()
	}
}

// Len is the number of live sessions.
func (registry *Registry) Len() int {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return len(registry.sessions)
}

// Reap closes every session idle since before now minus the idle timeout.
// Sessions with an open stream are never reaped. It returns how many closed.
func (registry *Registry) Reap(now time.Time) int {
	deadline := now.Add(-registry.idleTimeout)

	registry.mu.Lock()
	var idle []*Session
	for id, session := range registry.sessions {
		if session.Listeners() == 0 && session.LastActive().Before(deadline) {
			idle = append(idle, session)
			delete(registry.sessions, id)
		}
	}
	registry.mu.Unlock()

	for _, session := range idle {
		session.Close()
	}
	if len(idle) > 0 {
		registry.logger.Info("idle_sessions_reaped", slog.Int("count", len(idle)))
	}
	return len(idle)
}

// Run reaps idle sessions until ctx is cancelled.
func (registry *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(constants.SessionReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			registry.Reap(now)
		}
	}
}

// CloseAll closes every session. Used on shutdown.
func (registry *Registry) CloseAll() {
	registry.mu.Lock()
	sessions := registry.sessions
	registry.sessions = make(map[string]*Session)
	registry.mu.Unlock()

	var wg sync.WaitGroup
	for _, session := range sessions {
		wg.Add(1)
		go func(session *Session) {
			defer wg.Done()
			session.Close()
		}(session)
	}
	wg.Wait()
}
