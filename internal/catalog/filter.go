// Copyright (c) 2026 GeoHistory. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"net/url"
	"strconv"
	"strings"
)

// # Filter Dimensions

// Dimension names one filterable facet of the catalog.
//
// The string value doubles as the wire parameter name understood by the
// events backend.
type Dimension string

const (
	// DimGroupEvent is the thematic group (e.g. "Roman Empire").
	DimGroupEvent Dimension = "group_event"

	// DimContinent is the continent the event happened on.
	DimContinent Dimension = "continent"

	// DimCountry is the modern country of the event location.
	DimCountry Dimension = "country"

	// DimLocation is the city or site.
	DimLocation Dimension = "location"

	// DimYearFrom is the lower year bound. Negative values are BCE.
	DimYearFrom Dimension = "year_from"

	// DimYearTo is the upper year bound. Negative values are BCE.
	DimYearTo Dimension = "year_to"
)

// ParamHasCoords is the fixed constraint sent with every list and options
// request: renderers only ever need events with a resolvable coordinate.
const ParamHasCoords = "has_coords"

// Dimensions lists every dimension in wire order.
var Dimensions = []Dimension{
	DimGroupEvent,
	DimContinent,
	DimCountry,
	DimLocation,
	DimYearFrom,
	DimYearTo,
}

// downstream is the cascade table: changing a key clears every listed
// dimension, in order. Year bounds do not cascade.
var downstream = map[Dimension][]Dimension{
	DimGroupEvent: {DimContinent, DimCountry, DimLocation},
	DimContinent:  {DimCountry, DimLocation},
	DimCountry:    {DimLocation},
}

// ParseDimension resolves a wire name into a [Dimension].
func ParseDimension(name string) (Dimension, bool) {
	for _, dimension := range Dimensions {
		if string(dimension) == name {
			return dimension, true
		}
	}
	return "", false
}

// IsYear reports whether d is one of the year bounds.
func (d Dimension) IsYear() bool {
	return d == DimYearFrom || d == DimYearTo
}

// Downstream returns the dimensions cleared when d changes.
func (d Dimension) Downstream() []Dimension {
	return downstream[d]
}

// # Filters

// Filters is the current selection across every dimension.
//
// The zero value is the empty selection. Years are kept as the numeric
// strings the user typed so that a half-typed value round-trips unchanged.
type Filters struct {
	GroupEvent string `json:"group_event,omitempty"`
	Continent  string `json:"continent,omitempty"`
	Country    string `json:"country,omitempty"`
	Location   string `json:"location,omitempty"`
	YearFrom   string `json:"year_from,omitempty"`
	YearTo     string `json:"year_to,omitempty"`
}

// Get returns the raw value of a dimension.
func (f Filters) Get(dimension Dimension) string {
	switch dimension {
	case DimGroupEvent:
		return f.GroupEvent
	case DimContinent:
		return f.Continent
	case DimCountry:
		return f.Country
	case DimLocation:
		return f.Location
	case DimYearFrom:
		return f.YearFrom
	case DimYearTo:
		return f.YearTo
	}
	return ""
}

func (f *Filters) set(dimension Dimension, value string) {
	switch dimension {
	case DimGroupEvent:
		f.GroupEvent = value
	case DimContinent:
		f.Continent = value
	case DimCountry:
		f.Country = value
	case DimLocation:
		f.Location = value
	case DimYearFrom:
		f.YearFrom = value
	case DimYearTo:
		f.YearTo = value
	}
}

// With returns a copy of f where dimension holds value and every downstream
// dimension is cleared.
//
// A selected value is therefore never left inconsistent with a changed
// upstream choice.
func (f Filters) With(dimension Dimension, value string) Filters {
	next := f
	next.set(dimension, value)
	for _, cleared := range dimension.Downstream() {
		next.set(cleared, "")
	}
	return next
}

// Active reports whether at least one dimension carries a non-blank value.
func (f Filters) Active() bool {
	for _, dimension := range Dimensions {
		if strings.TrimSpace(f.Get(dimension)) != "" {
			return true
		}
	}
	return false
}

// HasYearBound reports whether either year bound is set.
func (f Filters) HasYearBound() bool {
	return strings.TrimSpace(f.YearFrom) != "" || strings.TrimSpace(f.YearTo) != ""
}

// YearBounds returns the parsed year bounds. A nil bound is open.
//
// Values that do not parse as integers are treated as open; the delivery
// layer rejects them before they reach a session.
func (f Filters) YearBounds() (from, to *int) {
	return parseYear(f.YearFrom), parseYear(f.YearTo)
}

func parseYear(raw string) *int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	return &value
}

// # Query Building

// Values renders f as backend query parameters.
//
// Only non-blank dimensions are emitted, under their wire names, plus the
// fixed has_coords=true constraint. A blank value is omitted, never sent empty.
func (f Filters) Values() url.Values {
	values := url.Values{}
	for _, dimension := range Dimensions {
		if value := strings.TrimSpace(f.Get(dimension)); value != "" {
			values.Set(string(dimension), value)
		}
	}
	values.Set(ParamHasCoords, "true")
	return values
}

// Encode renders f as a canonical (key-sorted) query string.
func (f Filters) Encode() string {
	return f.Values().Encode()
}
