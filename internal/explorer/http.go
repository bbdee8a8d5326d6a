// Copyright (c) 2026 GeoHistory. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package explorer

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/geohistory/internal/catalog"
	"github.com/taibuivan/geohistory/internal/platform/apperr"
	"github.com/taibuivan/geohistory/internal/platform/constants"
	"github.com/taibuivan/geohistory/internal/platform/middleware"
	requestutil "github.com/taibuivan/geohistory/internal/platform/request"
	"github.com/taibuivan/geohistory/internal/platform/respond"
	"github.com/taibuivan/geohistory/internal/platform/validate"
)

// maxFilterValueLen bounds a single filter value.
const maxFilterValueLen = 200

// maxZoom is the deepest zoom any tile renderer reports.
const maxZoom = 24.0

// TokenIssuer signs the token that binds a renderer to its session.
type TokenIssuer interface {
	GenerateSessionToken(sessionID string, timeToLive time.Duration) (string, error)
}

// Handler exposes sessions over HTTP.
//
// Every route under /{id} requires the session's own bearer token.
type Handler struct {
	registry        *Registry
	tokens          TokenIssuer
	tokenTTL        time.Duration
	defaultLanguage Language
}

// NewHandler constructs a new [Handler].
func NewHandler(registry *Registry, tokens TokenIssuer, tokenTTL time.Duration, defaultLanguage Language) *Handler {
	return &Handler{
		registry:        registry,
		tokens:          tokens,
		tokenTTL:        tokenTTL,
		defaultLanguage: defaultLanguage,
	}
}

// Routes returns a [chi.Router] with the session endpoints.
//
// # Endpoints
//   - POST   /                        : Opens a session and issues its token.
//   - GET    /{id}                    : Current snapshot.
//   - DELETE /{id}                    : Closes the session.
//   - GET    /{id}/stream             : Server-sent state, map and narration frames.
//   - PUT    /{id}/filters/{dimension}: Sets one filter.
//   - POST   /{id}/filters/reset      : Clears every filter.
//   - POST   /{id}/tour/{action}      : play-pause, next, prev, stop, loop.
//   - PUT    /{id}/tour/speed         : Autoplay interval.
//   - PUT    /{id}/tour/index         : Jumps to an event.
//   - PUT    /{id}/viewport           : Reports the map zoom.
//   - PUT    /{id}/language           : UI and narration language.
//   - PUT    /{id}/voice              : Automatic narration on or off.
//   - POST   /{id}/voice/{action}     : speak, pause, resume, stop.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.With(chimw.Timeout(constants.GlobalRequestTimeout)).Post("/", handler.create)

	router.Route("/{id}", func(session chi.Router) {
		session.Use(middleware.RequireSessionOwner("id"))

		// Long-lived: no request timeout.
		session.Get("/stream", handler.stream)

		session.Group(func(command chi.Router) {
			command.Use(chimw.Timeout(constants.GlobalRequestTimeout))

			command.Get("/", handler.snapshot)
			command.Delete("/", handler.close)

			command.Put("/filters/{dimension}", handler.setFilter)
			command.Post("/filters/reset", handler.run((*Session).ResetFilters))

			command.Post("/tour/play-pause", handler.run((*Session).PlayPause))
			command.Post("/tour/next", handler.run((*Session).Next))
			command.Post("/tour/prev", handler.run((*Session).Prev))
			command.Post("/tour/stop", handler.run((*Session).Stop))
			command.Post("/tour/loop", handler.run((*Session).ToggleLoop))
			command.Put("/tour/speed", handler.changeSpeed)
			command.Put("/tour/index", handler.selectIndex)

			command.Put("/viewport", handler.reportZoom)
			command.Put("/language", handler.setLanguage)
			command.Put("/voice", handler.setVoice)

			command.Post("/voice/speak", handler.run((*Session).Speak))
			command.Post("/voice/pause", handler.run((*Session).PauseVoice))
			command.Post("/voice/resume", handler.run((*Session).ResumeVoice))
			command.Post("/voice/stop", handler.run((*Session).StopVoice))
		})
	})

	return router
}

// # Session Lifecycle

type createRequest struct {
	Language *string `json:"lang"`
	Speech   bool    `json:"speech"`
	Voice    *bool   `json:"voice"`
}

type createResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Session   Snapshot  `json:"session"`
}

// create handles POST /api/v1/sessions.
//
// The language comes from the body, else from Accept-Language.
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var input createRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	lang := NegotiateLanguage(request.Header.Get("Accept-Language"), handler.defaultLanguage)
	if input.Language != nil {
		parsed, ok := ParseLanguage(*input.Language)
		validator := &validate.Validator{}
		validator.Custom("lang", !ok, "Must be one of: it, en")
		if err := validator.Err(); err != nil {
			respond.Error(writer, request, err)
			return
		}
		lang = parsed
	}

	voice := true
	if input.Voice != nil {
		voice = *input.Voice
	}

	session := handler.registry.Create(CreateOptions{
		Language:        lang,
		SpeechSupported: input.Speech,
		VoiceEnabled:    voice,
	})

	issuedAt := time.Now()
	token, err := handler.tokens.GenerateSessionToken(session.ID(), handler.tokenTTL)
	if err != nil {
		handler.registry.Remove(session.ID())
		respond.Error(writer, request, apperr.Internal(err))
		return
	}

	snapshot, err := session.Snapshot()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, createResponse{
		Token:     token,
		ExpiresAt: issuedAt.Add(handler.tokenTTL).UTC(),
		Session:   snapshot,
	})
}

func (handler *Handler) session(request *http.Request) (*Session, error) {
	return handler.registry.Get(requestutil.Param(request, "id"))
}

func (handler *Handler) snapshot(writer http.ResponseWriter, request *http.Request) {
	session, err := handler.session(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	handler.reply(writer, request, session, nil)
}

func (handler *Handler) close(writer http.ResponseWriter, request *http.Request) {
	if _, err := handler.session(request); err != nil {
		respond.Error(writer, request, err)
		return
	}
	handler.registry.Remove(requestutil.Param(request, "id"))
	respond.NoContent(writer)
}

// reply answers a command with the session's snapshot after it ran.
func (handler *Handler) reply(writer http.ResponseWriter, request *http.Request, session *Session, err error) {
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	snapshot, err := session.Snapshot()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, snapshot)
}

// run adapts a body-less session command to a handler.
func (handler *Handler) run(command func(*Session) error) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		session, err := handler.session(request)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}
		handler.reply(writer, request, session, command(session))
	}
}

// # Commands With Payloads

type filterRequest struct {
	Value string `json:"value"`
}

// setFilter handles PUT /{id}/filters/{dimension}. An empty value clears it.
func (handler *Handler) setFilter(writer http.ResponseWriter, request *http.Request) {
	session, err := handler.session(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input filterRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	dimension, ok := catalog.ParseDimension(requestutil.Param(request, "dimension"))
	validator := &validate.Validator{}
	validator.Custom("dimension", !ok, "Unknown filter")
	validator.MaxLen("value", input.Value, maxFilterValueLen)
	if dimension.IsYear() {
		validator.Integer("value", input.Value)
	}
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.reply(writer, request, session, session.SetFilter(dimension, input.Value))
}

type speedRequest struct {
	SpeedMs *int `json:"speed_ms"`
}

func (handler *Handler) changeSpeed(writer http.ResponseWriter, request *http.Request) {
	session, err := handler.session(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input speedRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Present("speed_ms", input.SpeedMs != nil)
	if input.SpeedMs != nil {
		validator.Range("speed_ms", *input.SpeedMs, constants.MinTourSpeedMs, constants.MaxTourSpeedMs)
	}
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.reply(writer, request, session, session.ChangeSpeed(*input.SpeedMs))
}

type indexRequest struct {
	Index *int `json:"index"`
}

// selectIndex handles PUT /{id}/tour/index. Indexes past the end are ignored.
func (handler *Handler) selectIndex(writer http.ResponseWriter, request *http.Request) {
	session, err := handler.session(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input indexRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Present("index", input.Index != nil)
	validator.Custom("index", input.Index != nil && *input.Index < 0, "Must not be negative")
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.reply(writer, request, session, session.Select(*input.Index))
}

type viewportRequest struct {
	Zoom *float64 `json:"zoom"`
}

func (handler *Handler) reportZoom(writer http.ResponseWriter, request *http.Request) {
	session, err := handler.session(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input viewportRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Present("zoom", input.Zoom != nil)
	if input.Zoom != nil {
		validator.Between("zoom", *input.Zoom, 0, maxZoom)
	}
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.reply(writer, request, session, session.ReportZoom(*input.Zoom))
}

type languageRequest struct {
	Language string `json:"lang"`
}

func (handler *Handler) setLanguage(writer http.ResponseWriter, request *http.Request) {
	session, err := handler.session(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input languageRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	lang, ok := ParseLanguage(input.Language)
	validator := &validate.Validator{}
	validator.Custom("lang", !ok, "Must be one of: it, en")
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.reply(writer, request, session, session.SetLanguage(lang))
}

type voiceRequest struct {
	Enabled *bool `json:"enabled"`
}

func (handler *Handler) setVoice(writer http.ResponseWriter, request *http.Request) {
	session, err := handler.session(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input voiceRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Present("enabled", input.Enabled != nil)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.reply(writer, request, session, session.SetVoice(*input.Enabled))
}

// # Streaming

// stream handles GET /{id}/stream as server-sent events.
//
// The first frame is the current state. A comment line is written whenever
// the stream is otherwise quiet for a heartbeat interval, so proxies keep
// the connection open.
func (handler *Handler) stream(writer http.ResponseWriter, request *http.Request) {
	session, err := handler.session(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	flusher, ok := writer.(http.Flusher)
	if !ok {
		respond.Error(writer, request, apperr.Internal(errors.New("explorer: response writer cannot flush")))
		return
	}

	ctx := request.Context()
	messages, err := session.Subscribe(ctx, streamBuffer)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	snapshot, err := session.Snapshot()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	header := writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	writer.WriteHeader(http.StatusOK)

	if err := writeFrame(writer, Message{Type: MessageState, Payload: snapshot}); err != nil {
		return
	}
	flusher.Flush()

	heartbeat := time.NewTicker(constants.StreamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(writer, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case message, open := <-messages:
			if !open {
				fmt.Fprint(writer, "event: closed\ndata: {}\n\n")
				flusher.Flush()
				return
			}
			if err := writeFrame(writer, message); err != nil {
				return
			}
			flusher.Flush()
			heartbeat.Reset(constants.StreamHeartbeat)
		}
	}
}

func writeFrame(writer http.ResponseWriter, message Message) error {
	payload, err := json.Marshal(message.Payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(writer, "event: %s\ndata: %s\n\n", message.Type, payload)
	return err
}
