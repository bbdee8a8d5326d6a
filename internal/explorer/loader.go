// Copyright (c) 2026 GeoHistory. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package explorer

import (
	"cmp"
	"context"
	"log/slog"
	"math"
	"slices"

	"github.com/taibuivan/geohistory/internal/catalog"
	"github.com/taibuivan/geohistory/internal/platform/apperr"
	"github.com/taibuivan/geohistory/internal/platform/upstreamerr"
	"github.com/taibuivan/geohistory/pkg/pointer"
	"github.com/taibuivan/geohistory/pkg/slice"
)

// Refine applies the client-side year window to a backend page and orders
// the result by year.
//
// An event spans [from, to] with event_year standing in for a missing end.
// It is kept iff that span overlaps the requested one; a missing request
// bound is open. While any year bound is set, events without a year are
// dropped. Sorting is stable and ascending on year_from, then event_year,
// then 0.
func Refine(items []catalog.Event, filters catalog.Filters) []catalog.Event {
	refined := slices.Clone(items)
	if refined == nil {
		refined = []catalog.Event{}
	}

	if filters.HasYearBound() {
		from, to := filters.YearBounds()
		lower := pointer.Fallback(from, math.MinInt)
		upper := pointer.Fallback(to, math.MaxInt)

		refined = slice.Filter(refined, func(event catalog.Event) bool {
			start, end := event.YearRange()
			if start == nil || end == nil {
				return false
			}
			return *start <= upper && lower <= *end
		})
		if refined == nil {
			refined = []catalog.Event{}
		}
	}

	slices.SortStableFunc(refined, func(a, b catalog.Event) int {
		return cmp.Compare(a.SortYear(), b.SortYear())
	})
	return refined
}

// EventSetLoader owns the current result set.
//
// Input is the debounced filter value. Each load supersedes the previous
// one; a cancelled load is dropped without a trace.
type EventSetLoader struct {
	repository catalog.Repository
	logger     *slog.Logger
	post       func(func()) bool
	onSettled  func()

	inflight    flight
	events      []catalog.Event
	resultTotal int
	loading     bool
	failure     string
	generation  uint64
}

// NewEventSetLoader returns an empty loader. onSettled runs on the loop every
// time the list is replaced or cleared.
func NewEventSetLoader(repository catalog.Repository, logger *slog.Logger, post func(func()) bool, onSettled func()) *EventSetLoader {
	return &EventSetLoader{
		repository: repository,
		logger:     logger,
		post:       post,
		onSettled:  onSettled,
		events:     []catalog.Event{},
	}
}

// Events returns the current, refined list.
func (loader *EventSetLoader) Events() []catalog.Event { return loader.events }

// ResultTotal is the count reported by the backend for the last load.
func (loader *EventSetLoader) ResultTotal() int { return loader.resultTotal }

// Loading reports whether a load is in flight.
func (loader *EventSetLoader) Loading() bool { return loader.loading }

// Failure is the user-visible error of the last load, or "".
func (loader *EventSetLoader) Failure() string { return loader.failure }

// Generation changes every time the list is replaced, even by an equal one.
func (loader *EventSetLoader) Generation() uint64 { return loader.generation }

// Load brings the list in line with filters.
//
// Without any active filter nothing is fetched: the list is cleared at once.
func (loader *EventSetLoader) Load(parent context.Context, filters catalog.Filters) {
	if !filters.Active() {
		loader.inflight.abort()
		loader.replace([]catalog.Event{}, 0)
		loader.loading = false
		loader.failure = ""
		loader.onSettled()
		return
	}

	loader.loading = true
	loader.failure = ""
	ctx, seq := loader.inflight.begin(parent)

	go func() {
		page, err := loader.repository.ListEvents(ctx, filters)
		loader.post(func() {
			if !loader.inflight.land(seq) {
				return
			}
			loader.loading = false

			if err != nil {
				if upstreamerr.IsCanceled(err) {
					return
				}
				loader.logger.Warn("events_fetch_failed",
					slog.String("query", filters.Encode()),
					slog.Any("error", err),
				)
				loader.failure = "Failed to load events: " + failureCause(err)
				loader.replace([]catalog.Event{}, 0)
				loader.onSettled()
				return
			}

			loader.replace(Refine(page.Items, filters), page.Total)
			loader.onSettled()
		})
	}()
}

// Abort cancels the outstanding load, leaving the list as it is.
func (loader *EventSetLoader) Abort() {
	loader.inflight.abort()
	loader.loading = false
}

func (loader *EventSetLoader) replace(events []catalog.Event, total int) {
	loader.events = events
	loader.resultTotal = total
	loader.generation++
}

// failureCause picks the client-safe message of an application error and
// the raw text of anything else.
func failureCause(err error) string {
	if appErr := apperr.As(err); appErr != nil {
		return appErr.Message
	}
	return err.Error()
}
