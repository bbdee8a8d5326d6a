// Copyright (c) 2026 GeoHistory. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package explorer_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/geohistory/internal/explorer"
	"github.com/taibuivan/geohistory/internal/platform/apperr"
)

func newRegistry(t *testing.T) *explorer.Registry {
	t.Helper()
	registry := explorer.NewRegistry(newFakeRepository(), explorer.DefaultSettings(), time.Minute, discardLogger)
	t.Cleanup(registry.CloseAll)
	return registry
}

/*
TestRegistry_Lifecycle verifies create, lookup and removal.
*/
func TestRegistry_Lifecycle(t *testing.T) {
	registry := newRegistry(t)

	session := registry.Create(explorer.CreateOptions{Language: explorer.LanguageEnglish, VoiceEnabled: true})
	assert.Len(t, session.ID(), 36)

	found, err := registry.Get(session.ID())
	require.NoError(t, err)
	assert.Same(t, session, found)

	snapshot, err := found.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, explorer.LanguageEnglish, snapshot.Language)
	assert.False(t, snapshot.Narration.Supported)
	assert.True(t, snapshot.Narration.Enabled)

	registry.Remove(session.ID())
	_, err = registry.Get(session.ID())
	assert.True(t, apperr.IsNotFound(err))
	assert.ErrorIs(t, session.PlayPause(), explorer.ErrSessionClosed)
	assert.Zero(t, registry.Len())
}

/*
TestRegistry_ReapSkipsStreamingSessions verifies idle reaping.
*/
func TestRegistry_ReapSkipsStreamingSessions(t *testing.T) {
	registry := newRegistry(t)

	idle := registry.Create(explorer.CreateOptions{})
	watched := registry.Create(explorer.CreateOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	_, err := watched.Subscribe(ctx, 4)
	require.NoError(t, err)

	assert.Zero(t, registry.Reap(time.Now()))
	assert.Equal(t, 1, registry.Reap(time.Now().Add(2*time.Minute)))

	_, err = registry.Get(idle.ID())
	assert.Error(t, err)
	_, err = registry.Get(watched.ID())
	assert.NoError(t, err)

	cancel()
	require.Eventually(t, func() bool { return watched.Listeners() == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, registry.Reap(time.Now().Add(2*time.Minute)))
	assert.Zero(t, registry.Len())
}
