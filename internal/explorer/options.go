// Copyright (c) 2026 GeoHistory. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package explorer

import (
	"context"
	"log/slog"

	"github.com/taibuivan/geohistory/internal/catalog"
	"github.com/taibuivan/geohistory/internal/platform/upstreamerr"
)

// OptionsNarrower keeps the facet choices consistent with the current filters.
//
// It reacts to raw filter changes, not debounced ones. A newer refresh
// cancels the previous request; failures keep the previous options.
type OptionsNarrower struct {
	repository catalog.Repository
	logger     *slog.Logger
	post       func(func()) bool
	onUpdate   func()

	inflight flight
	options  catalog.Options
}

// NewOptionsNarrower returns a narrower with empty options.
func NewOptionsNarrower(repository catalog.Repository, logger *slog.Logger, post func(func()) bool, onUpdate func()) *OptionsNarrower {
	return &OptionsNarrower{
		repository: repository,
		logger:     logger,
		post:       post,
		onUpdate:   onUpdate,
		options:    catalog.Options{}.Normalized(),
	}
}

// Options returns the latest applied option set.
func (narrower *OptionsNarrower) Options() catalog.Options {
	return narrower.options
}

// Refresh fetches the options valid under filters.
func (narrower *OptionsNarrower) Refresh(parent context.Context, filters catalog.Filters) {
	ctx, seq := narrower.inflight.begin(parent)

	go func() {
		options, err := narrower.repository.ListOptions(ctx, filters)
		narrower.post(func() {
			if !narrower.inflight.land(seq) {
				return
			}
			if err != nil {
				if !upstreamerr.IsCanceled(err) {
					narrower.logger.Warn("options_fetch_failed",
						slog.String("query", filters.Encode()),
						slog.Any("error", err),
					)
				}
				return
			}
			narrower.options = options.Normalized()
			narrower.onUpdate()
		})
	}()
}

// Abort cancels the outstanding refresh.
func (narrower *OptionsNarrower) Abort() {
	narrower.inflight.abort()
}
