// Copyright (c) 2026 GeoHistory. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package catalog defines the contract with the external events backend.

It owns the filter model and its query encoding, the event entities with
their tolerant wire decoding, and the [Repository] implementations that fetch
them (plain HTTP and a Redis read-through cache).

Core Responsibility:

  - Filters: Cascading facet selection and the canonical query string.
  - Entities: Events, details, option sets and list pages.
  - Coordinates: Every coordinate shape the backend emits collapses into a
    single [Point] or nil. Malformed data is never an error.
*/
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// # Geometry

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether p is finite and inside the WGS84 ranges.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// BoundsOf returns the box enclosing every point. It reports false for an
// empty input.
func BoundsOf(points []Point) (Bounds, bool) {
	if len(points) == 0 {
		return Bounds{}, false
	}

	box := Bounds{South: points[0].Lat, North: points[0].Lat, West: points[0].Lon, East: points[0].Lon}
	for _, point := range points[1:] {
		box.South = math.Min(box.South, point.Lat)
		box.North = math.Max(box.North, point.Lat)
		box.West = math.Min(box.West, point.Lon)
		box.East = math.Max(box.East, point.Lon)
	}
	return box, true
}

// # Entities

// Event is one row of an event list.
//
// Position is resolved at decode time; items without a usable coordinate
// keep a nil Position and are simply left off the map.
type Event struct {
	ID           string `json:"id"`
	Title        string `json:"title,omitempty"`
	TitleEN      string `json:"event_en,omitempty"`
	TitleIT      string `json:"event_it,omitempty"`
	EventYear    *int   `json:"event_year,omitempty"`
	YearFrom     *int   `json:"year_from,omitempty"`
	YearTo       *int   `json:"year_to,omitempty"`
	GroupEvent   string `json:"group_event,omitempty"`
	GroupEventEN string `json:"group_event_en,omitempty"`
	GroupEventIT string `json:"group_event_it,omitempty"`
	Continent    string `json:"continent,omitempty"`
	Country      string `json:"country,omitempty"`
	Location     string `json:"location,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
	Position     *Point `json:"position,omitempty"`
}

// YearRange returns the event's own span. Either end falls back to
// event_year, then to the other end. Both are nil when the event carries no
// year at all.
func (e Event) YearRange() (from, to *int) {
	from, to = e.YearFrom, e.YearTo
	if from == nil {
		from = e.EventYear
	}
	if to == nil {
		to = e.EventYear
	}
	if from == nil {
		from = to
	}
	if to == nil {
		to = from
	}
	return from, to
}

// SortYear is the best available year used for ordering.
func (e Event) SortYear() int {
	switch {
	case e.YearFrom != nil:
		return *e.YearFrom
	case e.EventYear != nil:
		return *e.EventYear
	}
	return 0
}

// YearsLabel renders the span as "a–b", or "a" when both ends agree.
func (e Event) YearsLabel() string {
	from, to := e.YearFrom, e.YearTo
	if from == nil {
		from = e.EventYear
	}
	if to == nil {
		to = e.EventYear
	}

	switch {
	case from == nil && to == nil:
		return ""
	case from != nil && to != nil && *from != *to:
		return fmt.Sprintf("%d–%d", *from, *to)
	case from != nil:
		return strconv.Itoa(*from)
	}
	return strconv.Itoa(*to)
}

// EventDetail is the full record behind a single event.
type EventDetail struct {
	Event

	DescriptionEN      string `json:"description_en,omitempty"`
	DescriptionIT      string `json:"description_it,omitempty"`
	DescriptionShortEN string `json:"description_short_en,omitempty"`
	ExactDate          string `json:"exact_date,omitempty"`
	WikipediaEN        string `json:"wikipedia_en,omitempty"`
	WikipediaIT        string `json:"wikipedia_it,omitempty"`
	WikipediaURL       string `json:"wikipedia_url,omitempty"`
}

// Options are the remaining valid choices per facet given the current filters.
type Options struct {
	GroupEvents []string `json:"groupEvents"`
	Continents  []string `json:"continents"`
	Countries   []string `json:"countries"`
	Locations   []string `json:"locations"`
}

// Normalized replaces nil facets with empty slices so they encode as [].
func (o Options) Normalized() Options {
	orEmpty := func(values []string) []string {
		if values == nil {
			return []string{}
		}
		return values
	}
	return Options{
		GroupEvents: orEmpty(o.GroupEvents),
		Continents:  orEmpty(o.Continents),
		Countries:   orEmpty(o.Countries),
		Locations:   orEmpty(o.Locations),
	}
}

// EventPage is one event list response.
//
// Total is the count reported by the backend, which may exceed len(Items)
// when the backend paginates.
type EventPage struct {
	Items []Event `json:"items"`
	Total int     `json:"total"`
}

// # Wire Decoding

// looseString accepts a JSON string or number and keeps its text.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*s = looseString(text)
		return nil
	}
	if data[0] == '{' || data[0] == '[' {
		return nil
	}
	*s = looseString(data)
	return nil
}

// maxYearMagnitude bounds the years accepted from the wire, far beyond any
// dated event and well inside the int range.
const maxYearMagnitude = 1e9

// looseInt accepts a JSON number or numeric string. Anything else decodes
// to "absent" rather than failing the whole payload.
type looseInt struct {
	value *int
}

func (n *looseInt) UnmarshalJSON(data []byte) error {
	n.value = nil

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	number, ok := numericValue(raw)
	if !ok || math.IsInf(number, 0) || math.Abs(number) > maxYearMagnitude {
		return nil
	}
	value := int(math.Trunc(number))
	n.value = &value
	return nil
}

// numericValue converts the JSON representations the backend is known to
// use for numbers into float64.
func numericValue(raw any) (float64, bool) {
	switch typed := raw.(type) {
	case float64:
		return typed, !math.IsNaN(typed)
	case json.Number:
		value, err := typed.Float64()
		return value, err == nil
	case string:
		text := strings.TrimSpace(typed)
		if text == "" {
			return 0, false
		}
		value, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsNaN(value) {
			return 0, false
		}
		return value, true
	}
	return 0, false
}

// wkt matches a well-known-text point: POINT(lon lat).
var wkt = regexp.MustCompile(`(?i)^\s*POINT\s*\(\s*([-+0-9.eE]+)\s+([-+0-9.eE]+)\s*\)\s*$`)

// pointFrom builds a valid point from two loosely typed values.
func pointFrom(lat, lon any) *Point {
	latValue, latOK := numericValue(lat)
	lonValue, lonOK := numericValue(lon)
	if !latOK || !lonOK {
		return nil
	}

	point := Point{Lat: latValue, Lon: lonValue}
	if !point.Valid() {
		return nil
	}
	return &point
}

func firstPresent(object map[string]any, keys ...string) any {
	for _, key := range keys {
		if value, ok := object[key]; ok && value != nil {
			return value
		}
	}
	return nil
}

// resolveCoordinates normalizes one "coordinates" value. The accepted shapes,
// in order: GeoJSON point, lat/lng object, [lat, lon] pair, WKT point string.
func resolveCoordinates(raw json.RawMessage) *Point {
	if len(raw) == 0 {
		return nil
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil
	}

	switch typed := value.(type) {
	case map[string]any:
		if kind, _ := typed["type"].(string); strings.EqualFold(kind, "Point") {
			if pair, ok := typed["coordinates"].([]any); ok && len(pair) >= 2 {
				if point := pointFrom(pair[1], pair[0]); point != nil {
					return point
				}
			}
		}
		lat := firstPresent(typed, "lat", "latitude")
		lon := firstPresent(typed, "lng", "lon", "longitude")
		if lat != nil && lon != nil {
			return pointFrom(lat, lon)
		}
	case []any:
		if len(typed) >= 2 {
			return pointFrom(typed[0], typed[1])
		}
	case string:
		if match := wkt.FindStringSubmatch(typed); match != nil {
			return pointFrom(match[2], match[1])
		}
	}
	return nil
}

// wireEvent mirrors every shape an event row can take on the wire.
type wireEvent struct {
	ID           looseString     `json:"id"`
	Title        string          `json:"title"`
	TitleEN      string          `json:"event_en"`
	TitleIT      string          `json:"event_it"`
	EventYear    looseInt        `json:"event_year"`
	YearFrom     looseInt        `json:"year_from"`
	YearTo       looseInt        `json:"year_to"`
	GroupEvent   string          `json:"group_event"`
	GroupEventEN string          `json:"group_event_en"`
	GroupEventIT string          `json:"group_event_it"`
	Continent    string          `json:"continent"`
	Country      string          `json:"country"`
	Location     string          `json:"location"`
	ImageURL     string          `json:"image_url"`
	Position     json.RawMessage `json:"position"`
	Coordinates  json.RawMessage `json:"coordinates"`
	Latitude     json.RawMessage `json:"latitude"`
	Longitude    json.RawMessage `json:"longitude"`
}

func (wire wireEvent) position() *Point {
	// Our own re-encoded form, as read back from the cache.
	var cached Point
	if len(wire.Position) > 0 && json.Unmarshal(wire.Position, &cached) == nil && cached.Valid() {
		return &cached
	}

	if point := resolveCoordinates(wire.Coordinates); point != nil {
		return point
	}

	var lat, lon any
	if json.Unmarshal(wire.Latitude, &lat) != nil || json.Unmarshal(wire.Longitude, &lon) != nil {
		return nil
	}
	return pointFrom(lat, lon)
}

// UnmarshalJSON decodes an event from any of the backend's row shapes.
//
// Identifiers may be strings or numbers, years may be numbers or numeric
// strings, and coordinates may arrive in several encodings. Only a
// structurally broken document is an error.
func (e *Event) UnmarshalJSON(data []byte) error {
	var wire wireEvent
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*e = Event{
		ID:           string(wire.ID),
		Title:        wire.Title,
		TitleEN:      wire.TitleEN,
		TitleIT:      wire.TitleIT,
		EventYear:    wire.EventYear.value,
		YearFrom:     wire.YearFrom.value,
		YearTo:       wire.YearTo.value,
		GroupEvent:   wire.GroupEvent,
		GroupEventEN: wire.GroupEventEN,
		GroupEventIT: wire.GroupEventIT,
		Continent:    wire.Continent,
		Country:      wire.Country,
		Location:     wire.Location,
		ImageURL:     wire.ImageURL,
		Position:     wire.position(),
	}
	return nil
}

// UnmarshalJSON decodes the shared event fields and the detail-only fields.
func (d *EventDetail) UnmarshalJSON(data []byte) error {
	if err := d.Event.UnmarshalJSON(data); err != nil {
		return err
	}

	var extra struct {
		DescriptionEN      string `json:"description_en"`
		DescriptionIT      string `json:"description_it"`
		DescriptionShortEN string `json:"description_short_en"`
		ExactDate          string `json:"exact_date"`
		WikipediaEN        string `json:"wikipedia_en"`
		WikipediaIT        string `json:"wikipedia_it"`
		WikipediaURL       string `json:"wikipedia_url"`
	}
	if err := json.Unmarshal(data, &extra); err != nil {
		return err
	}

	d.DescriptionEN = extra.DescriptionEN
	d.DescriptionIT = extra.DescriptionIT
	d.DescriptionShortEN = extra.DescriptionShortEN
	d.ExactDate = extra.ExactDate
	d.WikipediaEN = extra.WikipediaEN
	d.WikipediaIT = extra.WikipediaIT
	d.WikipediaURL = extra.WikipediaURL
	return nil
}

// UnmarshalJSON accepts both a bare array of events and an
// {"items": [...], "total": n} envelope. A missing total falls back to the
// number of items.
func (p *EventPage) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []Event
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		p.Items = nonNil(items)
		p.Total = len(p.Items)
		return nil
	}

	var envelope struct {
		Items []Event `json:"items"`
		Total *int    `json:"total"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return err
	}

	p.Items = nonNil(envelope.Items)
	p.Total = len(p.Items)
	if envelope.Total != nil {
		p.Total = *envelope.Total
	}
	return nil
}

func nonNil(items []Event) []Event {
	if items == nil {
		return []Event{}
	}
	return items
}
