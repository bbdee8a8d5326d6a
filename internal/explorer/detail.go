// Copyright (c) 2026 GeoHistory. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package explorer

import (
	"context"
	"log/slog"

	"github.com/taibuivan/geohistory/internal/catalog"
	"github.com/taibuivan/geohistory/internal/platform/apperr"
	"github.com/taibuivan/geohistory/internal/platform/upstreamerr"
)

// DetailLoader keeps the full record of the current event.
//
// Following a new event cancels the previous fetch. A failed fetch leaves
// no detail; it is logged and otherwise ignored.
type DetailLoader struct {
	repository catalog.Repository
	logger     *slog.Logger
	post       func(func()) bool
	onSettled  func()

	inflight flight
	detail   *catalog.EventDetail
	loading  bool
	settled  bool
}

// NewDetailLoader returns a loader with no current event.
func NewDetailLoader(repository catalog.Repository, logger *slog.Logger, post func(func()) bool, onSettled func()) *DetailLoader {
	return &DetailLoader{
		repository: repository,
		logger:     logger,
		post:       post,
		onSettled:  onSettled,
		settled:    true,
	}
}

// Detail returns the loaded record, or nil.
func (loader *DetailLoader) Detail() *catalog.EventDetail { return loader.detail }

// Loading reports whether a fetch is in flight.
func (loader *DetailLoader) Loading() bool { return loader.loading }

// Settled reports whether the fetch for the current event has finished,
// successfully or not.
func (loader *DetailLoader) Settled() bool { return loader.settled }

// Follow switches to event. A nil event clears the detail without a fetch.
func (loader *DetailLoader) Follow(parent context.Context, event *catalog.Event) {
	loader.detail = nil

	if event == nil {
		loader.inflight.abort()
		loader.loading = false
		loader.settled = true
		return
	}

	loader.loading = true
	loader.settled = false
	ctx, seq := loader.inflight.begin(parent)
	id := event.ID

	go func() {
		detail, err := loader.repository.GetEvent(ctx, id)
		loader.post(func() {
			if !loader.inflight.land(seq) {
				return
			}
			loader.loading = false
			loader.settled = true

			if err != nil {
				switch {
				case upstreamerr.IsCanceled(err):
				case apperr.IsNotFound(err):
					// Lists and details can briefly disagree after a backend edit.
					loader.logger.Info("detail_missing", slog.String("event_id", id))
				default:
					loader.logger.Warn("detail_fetch_failed", slog.String("event_id", id), slog.Any("error", err))
				}
				loader.detail = nil
			} else {
				loader.detail = detail
			}
			loader.onSettled()
		})
	}()
}
