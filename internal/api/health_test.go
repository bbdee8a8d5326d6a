// Copyright (c) 2026 GeoHistory. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/geohistory/internal/api"
)

type readyPayload struct {
	Data struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
		Checks   []struct {
			Name string `json:"name"`
			OK   bool   `json:"ok"`
		} `json:"checks"`
	} `json:"data"`
}

/*
TestReadiness verifies the aggregated dependency report.
*/
func TestReadiness(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name     string
		deps     api.HealthDependencies
		status   int
		expected string
		checks   int
	}{
		{
			name:     "backend only",
			deps:     api.HealthDependencies{CheckBackend: func() error { return nil }},
			status:   http.StatusOK,
			expected: "ready",
			checks:   1,
		},
		{
			name: "cache down",
			deps: api.HealthDependencies{
				CheckBackend: func() error { return nil },
				CheckCache:   func() error { return errors.New("connection refused") },
			},
			status:   http.StatusServiceUnavailable,
			expected: "degraded",
			checks:   2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.deps.ActiveSessions = func() int { return 3 }
			_, readiness := api.NewHealthHandlers(tt.deps, logger)

			recorder := httptest.NewRecorder()
			readiness(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))
			assert.Equal(t, tt.status, recorder.Code)

			var payload readyPayload
			require.NoError(t, json.NewDecoder(recorder.Body).Decode(&payload))
			assert.Equal(t, tt.expected, payload.Data.Status)
			assert.Len(t, payload.Data.Checks, tt.checks)
			assert.Equal(t, 3, payload.Data.Sessions)
		})
	}
}

/*
TestLiveness verifies the liveness probe never depends on anything.
*/
func TestLiveness(t *testing.T) {
	liveness, _ := api.NewHealthHandlers(api.HealthDependencies{}, slog.Default())

	recorder := httptest.NewRecorder()
	liveness(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"data":{"status":"ok"}}`, recorder.Body.String())
}
