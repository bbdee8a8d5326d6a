// Copyright (c) 2026 GeoHistory. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package explorer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/geohistory/internal/catalog"
	"github.com/taibuivan/geohistory/internal/explorer"
	"github.com/taibuivan/geohistory/pkg/pointer"
)

func span(id string, from, to *int) catalog.Event {
	return catalog.Event{ID: id, YearFrom: from, YearTo: to}
}

func single(id string, year int) catalog.Event {
	return catalog.Event{ID: id, EventYear: pointer.To(year)}
}

/*
TestRefine_YearWindow verifies the overlap rule of the client-side year filter.
*/
func TestRefine_YearWindow(t *testing.T) {
	items := []catalog.Event{
		span("punic", pointer.To(-264), pointer.To(-146)),
		single("actium", -31),
		span("empire", pointer.To(-27), pointer.To(476)),
		{ID: "undated"},
		span("open-end", pointer.To(1914), nil),
		single("moon", 1969),
	}

	tests := []struct {
		name     string
		filters  catalog.Filters
		expected []string
	}{
		{
			name:     "no bounds keeps everything, sorted",
			filters:  catalog.Filters{Continent: "Europe"},
			expected: []string{"punic", "actium", "empire", "undated", "open-end", "moon"},
		},
		{
			name:     "lower bound only",
			filters:  catalog.Filters{YearFrom: "0"},
			expected: []string{"empire", "open-end", "moon"},
		},
		{
			name:     "upper bound only",
			filters:  catalog.Filters{YearTo: "-100"},
			expected: []string{"punic"},
		},
		{
			name:     "window overlaps a span",
			filters:  catalog.Filters{YearFrom: "100", YearTo: "200"},
			expected: []string{"empire"},
		},
		{
			name:     "bounds are inclusive",
			filters:  catalog.Filters{YearFrom: "-31", YearTo: "-31"},
			expected: []string{"actium"},
		},
		{
			name:     "unparsable bound is open but still drops undated",
			filters:  catalog.Filters{YearFrom: "soon"},
			expected: []string{"punic", "actium", "empire", "open-end", "moon"},
		},
		{
			name:     "empty window",
			filters:  catalog.Filters{YearFrom: "500", YearTo: "600"},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refined := explorer.Refine(items, tt.filters)
			assert.Equal(t, tt.expected, eventIDs(refined))
		})
	}
}

/*
TestRefine_StableAndPure verifies the sort is stable and the input untouched.
*/
func TestRefine_StableAndPure(t *testing.T) {
	items := []catalog.Event{single("b", 10), single("a", 10), {ID: "c"}, single("d", -5)}
	original := append([]catalog.Event(nil), items...)

	refined := explorer.Refine(items, catalog.Filters{})

	assert.Equal(t, []string{"d", "c", "b", "a"}, eventIDs(refined))
	assert.Equal(t, original, items)
	assert.NotNil(t, explorer.Refine(nil, catalog.Filters{}))
}
