// Copyright (c) 2026 GeoHistory. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package explorer

import (
	"math"
	"slices"
	"time"

	"github.com/taibuivan/geohistory/internal/catalog"
	"github.com/taibuivan/geohistory/internal/platform/constants"
	"github.com/taibuivan/geohistory/pkg/slice"
)

// Viewport is the map a session drives. Implementations must not block.
type Viewport interface {
	FitBounds(bounds catalog.Bounds, padding int)
	FlyTo(point catalog.Point, zoom float64, duration time.Duration)
}

// MapSync translates list and index changes into viewport commands.
type MapSync struct {
	viewport Viewport
	zoom     float64
	points   []catalog.Point
}

// NewMapSync returns a MapSync assuming the initial world zoom.
func NewMapSync(viewport Viewport) *MapSync {
	return &MapSync{viewport: viewport, zoom: constants.InitialZoom}
}

// Markers returns the resolvable positions of events, in list order.
func Markers(events []catalog.Event) []catalog.Point {
	located := slice.Filter(events, func(event catalog.Event) bool { return event.Position != nil })
	return slice.Map(located, func(event catalog.Event) catalog.Point { return *event.Position })
}

// SyncMarkers fits the viewport to every marker when the set of positions
// changed by content. An empty set only records the change.
func (mapSync *MapSync) SyncMarkers(events []catalog.Event) {
	points := Markers(events)
	if slices.Equal(points, mapSync.points) {
		return
	}
	mapSync.points = points
	mapSync.FitAll()
}

// FitAll fits the viewport to the current markers, if any.
func (mapSync *MapSync) FitAll() {
	if bounds, ok := catalog.BoundsOf(mapSync.points); ok {
		mapSync.viewport.FitBounds(bounds, constants.FitPadding)
	}
}

// Focus flies to event, never zooming out below the floor. Events without a
// position are skipped.
func (mapSync *MapSync) Focus(event catalog.Event) {
	if event.Position == nil {
		return
	}
	mapSync.viewport.FlyTo(*event.Position, math.Max(mapSync.zoom, constants.FlyMinZoom), constants.FlyDuration)
}

// ReportZoom records the zoom the renderer is showing.
func (mapSync *MapSync) ReportZoom(zoom float64) {
	mapSync.zoom = zoom
}

// Zoom is the last reported zoom.
func (mapSync *MapSync) Zoom() float64 {
	return mapSync.zoom
}
