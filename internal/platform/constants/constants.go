// Copyright (c) 2026 GeoHistory. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Tour & Map: Speed bounds, viewport padding and zoom floors.
  - Security: JWT issuer and header names.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "geohistory-tour"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is zero because session streams are long-lived.
	// Non-streaming routes are bounded by GlobalRequestTimeout instead.
	DefaultWriteTimeout = 0

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for a non-streaming request.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second

	// StreamHeartbeat is how often an idle session stream sends a comment line.
	StreamHeartbeat = 25 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 50.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 100

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Tour & Map

const (
	// DefaultDebounce is the quiet period before filter input reaches the event loader.
	DefaultDebounce = 250 * time.Millisecond

	// DefaultTourSpeed is the autoplay interval of a fresh session.
	DefaultTourSpeed = 2 * time.Second

	// MinTourSpeedMs and MaxTourSpeedMs bound the speed a client may request.
	MinTourSpeedMs = 500
	MaxTourSpeedMs = 8000

	// FitPadding is the pixel padding used when fitting the map to all markers.
	FitPadding = 40

	// FlyMinZoom is the zoom floor when flying to the current event.
	FlyMinZoom = 4.0

	// InitialZoom is the viewport zoom assumed until the renderer reports one.
	InitialZoom = 2.0

	// FlyDuration is the pan/zoom animation length for the current event.
	FlyDuration = 800 * time.Millisecond

	// DescriptionPreviewChars is the length of the collapsed description.
	DescriptionPreviewChars = 420

	// SessionReapInterval is how often idle sessions are looked for.
	SessionReapInterval = 1 * time.Minute
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in session JWTs.
	AuthIssuer = "geohistory.app"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
	HeaderAuthorization = "Authorization"
)

// # JSON Field Identifiers

const (
	FieldStatus = "status"
	FieldChecks = "checks"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixEvents  = "catalog:events:"
	RedisPrefixOptions = "catalog:options:"
	RedisPrefixEvent   = "catalog:event:"
)
