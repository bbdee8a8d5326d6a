// Copyright (c) 2026 GeoHistory. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package explorer

import "context"

// flight tracks the single in-flight request of one fetch stream.
//
// It is owned by the session loop and needs no locking. Starting a new
// request cancels the previous one, and only the result tagged with the
// current sequence may be applied.
type flight struct {
	seq    uint64
	cancel context.CancelFunc
}

// begin aborts the outstanding request and returns the context and tag for
// the next one.
func (f *flight) begin(parent context.Context) (context.Context, uint64) {
	f.abort()
	ctx, cancel := context.WithCancel(parent)
	f.cancel = cancel
	return ctx, f.seq
}

// abort cancels the outstanding request and invalidates its tag.
func (f *flight) abort() {
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.seq++
}

// land reports whether seq is still current and, if so, releases its context.
func (f *flight) land(seq uint64) bool {
	if seq != f.seq {
		return false
	}
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	return true
}
