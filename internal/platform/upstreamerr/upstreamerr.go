// Copyright (c) 2026 GeoHistory. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package upstreamerr provides a bridge between low-level errors from the
// events backend and higher-level application errors.
package upstreamerr

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/taibuivan/geohistory/internal/platform/apperr"
)

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	Status int
}

// Error renders the status the way it is shown to users ("HTTP 500").
func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.Status)
}

// Wrap inspects a backend error and wraps it into a meaningful [apperr.AppError].
//
// Cancellation passes through untouched so callers can recognise a
// superseded request with [IsCanceled] and drop it silently.
func Wrap(err error, resource string) error {
	if err == nil {
		return nil
	}

	// 1. Supersession is not a failure
	if IsCanceled(err) {
		return err
	}

	// 2. Status mapping
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Status == http.StatusNotFound {
			notFound := apperr.NotFound(resource)
			notFound.Cause = err
			return notFound
		}
		return apperr.BadGateway(statusErr.Error(), err)
	}

	// 3. Deadline from the per-request timeout
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.BadGateway("Events backend timed out", err)
	}

	// 4. Anything else is a transport failure
	return apperr.BadGateway("Events backend unreachable", err)
}

// IsCanceled reports whether err stems from a cancelled context.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
