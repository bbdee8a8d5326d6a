// Copyright (c) 2026 GeoHistory. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/geohistory/internal/catalog"
	"github.com/taibuivan/geohistory/pkg/pointer"
)

/*
TestEvent_Position verifies every coordinate shape the backend is known to emit.
*/
func TestEvent_Position(t *testing.T) {
	rome := &catalog.Point{Lat: 41.9, Lon: 12.5}

	tests := []struct {
		name    string
		payload string
		want    *catalog.Point
	}{
		{"GeoJSON", `{"id":1,"coordinates":{"type":"Point","coordinates":[12.5,41.9]}}`, rome},
		{"LatLng", `{"id":1,"coordinates":{"lat":"41.9","lng":12.5}}`, rome},
		{"LatitudeLongitude", `{"id":1,"coordinates":{"latitude":41.9,"longitude":12.5}}`, rome},
		{"LatLon", `{"id":1,"coordinates":{"lat":41.9,"lon":"12.5"}}`, rome},
		{"Pair", `{"id":1,"coordinates":[41.9,12.5]}`, rome},
		{"WKT", `{"id":1,"coordinates":"POINT(12.5 41.9)"}`, rome},
		{"WKTLoose", `{"id":1,"coordinates":"point ( 12.5   41.9 )"}`, rome},
		{"TopLevel", `{"id":1,"latitude":41.9,"longitude":"12.5"}`, rome},
		{"FallbackToTopLevel", `{"id":1,"coordinates":{"lat":"abc","lng":1},"latitude":41.9,"longitude":12.5}`, rome},
		{"Cached", `{"id":"1","position":{"lat":41.9,"lon":12.5}}`, rome},
		{"OutOfRange", `{"id":1,"coordinates":{"lat":95,"lng":10}}`, nil},
		{"Garbage", `{"id":1,"coordinates":"somewhere in Italy"}`, nil},
		{"ShortPair", `{"id":1,"coordinates":[41.9]}`, nil},
		{"Nulls", `{"id":1,"coordinates":null,"latitude":null,"longitude":null}`, nil},
		{"Missing", `{"id":1}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var event catalog.Event
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &event))
			assert.Equal(t, tt.want, event.Position)
		})
	}
}

/*
TestEvent_LooseFields verifies numeric identifiers and string-typed years.
*/
func TestEvent_LooseFields(t *testing.T) {
	payload := `{"id":12345678901234567,"event_en":"Fall","year_from":"1500","year_to":null,"event_year":"unknown"}`

	var event catalog.Event
	require.NoError(t, json.Unmarshal([]byte(payload), &event))

	assert.Equal(t, "12345678901234567", event.ID)
	assert.Equal(t, "Fall", event.TitleEN)
	assert.Equal(t, pointer.To(1500), event.YearFrom)
	assert.Nil(t, event.YearTo)
	assert.Nil(t, event.EventYear)
}

/*
TestEvent_YearBounds verifies that huge or non-finite years decode as absent.
*/
func TestEvent_YearBounds(t *testing.T) {
	tests := []struct {
		name string
		year string
		want *int
	}{
		{"deep past", `-13800000`, pointer.To(-13800000)},
		{"fraction truncates", `476.9`, pointer.To(476)},
		{"upper limit", `1e9`, pointer.To(1000000000)},
		{"too large", `1e30`, nil},
		{"too small", `"-1e30"`, nil},
		{"infinite string", `"Inf"`, nil},
		{"not a number", `"NaN"`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var event catalog.Event
			require.NoError(t, json.Unmarshal([]byte(`{"id":1,"year_from":`+tt.year+`}`), &event))
			assert.Equal(t, tt.want, event.YearFrom)
		})
	}
}

/*
TestEvent_YearsLabel verifies the rendered span.
*/
func TestEvent_YearsLabel(t *testing.T) {
	tests := []struct {
		name  string
		event catalog.Event
		want  string
	}{
		{"Range", catalog.Event{YearFrom: pointer.To(1500), YearTo: pointer.To(1600)}, "1500–1600"},
		{"Single", catalog.Event{EventYear: pointer.To(313)}, "313"},
		{"SameEnds", catalog.Event{YearFrom: pointer.To(5), YearTo: pointer.To(5)}, "5"},
		{"OnlyTo", catalog.Event{YearTo: pointer.To(-44)}, "-44"},
		{"None", catalog.Event{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.YearsLabel())
		})
	}
}

/*
TestEvent_YearRange verifies the event_year fallback for either end.
*/
func TestEvent_YearRange(t *testing.T) {
	from, to := catalog.Event{YearFrom: pointer.To(1500)}.YearRange()
	assert.Equal(t, pointer.To(1500), from)
	assert.Equal(t, pointer.To(1500), to)

	from, to = catalog.Event{EventYear: pointer.To(476), YearTo: pointer.To(480)}.YearRange()
	assert.Equal(t, pointer.To(476), from)
	assert.Equal(t, pointer.To(480), to)

	from, to = catalog.Event{}.YearRange()
	assert.Nil(t, from)
	assert.Nil(t, to)
}

/*
TestEventPage_Shapes verifies both list payload shapes.
*/
func TestEventPage_Shapes(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantItems int
		wantTotal int
	}{
		{"BareArray", `[{"id":1},{"id":"2"}]`, 2, 2},
		{"Envelope", `{"items":[{"id":1}],"total":40}`, 1, 40},
		{"EnvelopeWithoutTotal", `{"items":[{"id":1},{"id":2},{"id":3}]}`, 3, 3},
		{"NullItems", `{"items":null}`, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var page catalog.EventPage
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &page))
			assert.Len(t, page.Items, tt.wantItems)
			assert.NotNil(t, page.Items)
			assert.Equal(t, tt.wantTotal, page.Total)
		})
	}
}

/*
TestEventDetail_Decode verifies that detail-only fields survive alongside the shared ones.
*/
func TestEventDetail_Decode(t *testing.T) {
	payload := `{
		"id": 7,
		"event_en": "Fall of Constantinople",
		"event_it": "Caduta di Costantinopoli",
		"description_en": "The city fell.",
		"description_short_en": "Ottoman conquest.",
		"year_from": 1453,
		"exact_date": "1453-05-29",
		"latitude": 41.01,
		"longitude": 28.97,
		"wikipedia_it": "https://it.wikipedia.org/wiki/Caduta_di_Costantinopoli"
	}`

	var detail catalog.EventDetail
	require.NoError(t, json.Unmarshal([]byte(payload), &detail))

	assert.Equal(t, "7", detail.ID)
	assert.Equal(t, "Caduta di Costantinopoli", detail.TitleIT)
	assert.Equal(t, "The city fell.", detail.DescriptionEN)
	assert.Equal(t, "Ottoman conquest.", detail.DescriptionShortEN)
	assert.Equal(t, "1453-05-29", detail.ExactDate)
	assert.Equal(t, &catalog.Point{Lat: 41.01, Lon: 28.97}, detail.Position)

	// The cache stores the re-encoded form; it must decode back to the same detail.
	encoded, err := json.Marshal(detail)
	require.NoError(t, err)

	var cached catalog.EventDetail
	require.NoError(t, json.Unmarshal(encoded, &cached))
	assert.Equal(t, detail, cached)
}

/*
TestBoundsOf verifies the enclosing box and the empty case.
*/
func TestBoundsOf(t *testing.T) {
	_, ok := catalog.BoundsOf(nil)
	assert.False(t, ok)

	box, ok := catalog.BoundsOf([]catalog.Point{{Lat: 41.9, Lon: 12.5}, {Lat: -33.9, Lon: 151.2}, {Lat: 51.5, Lon: -0.1}})
	require.True(t, ok)
	assert.Equal(t, catalog.Bounds{South: -33.9, West: -0.1, North: 51.5, East: 151.2}, box)
}
