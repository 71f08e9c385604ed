// Package wehttp exposes entity services over HTTP.
package wehttp

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ahmed11551/tasbix09-sub001/es"
)

type HandlerOption[T any] func(service *httpService[T])

func Logger[T any](log *zerolog.Logger) HandlerOption[T] {
	return func(service *httpService[T]) {
		service.log = log
	}
}

func Encoder[T any](encoder ResourceEncoder[T]) HandlerOption[T] {
	return func(service *httpService[T]) {
		service.encoder = encoder
	}
}

// NewRouter serves GET and POST on /{key} for entities of kind. The returned
// router can be extended with further routes before it is mounted.
func NewRouter[T any](kind string, entityService es.Service[T], options ...HandlerOption[T]) chi.Router {
	service := &httpService[T]{kind: kind, service: entityService}
	for _, option := range options {
		option(service)
	}
	if service.log == nil {
		service.log = &log.Logger
	}

	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/{key}", service.getResource())
	r.With(middleware.AllowContentType("application/json")).Post("/{key}", service.executeCommand())

	return r
}

// CommandRequest is the POST body: a command name and its JSON payload.
type CommandRequest struct {
	Command es.CommandName  `json:"command"`
	Payload json.RawMessage `json:"payload"`
}

func (c CommandRequest) Remote() es.RemoteCommand {
	payload := c.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}

	return es.RemoteCommand{Name: c.Command, Payload: es.Data{Encoding: es.JSONEncoding, Data: payload}}
}

type httpService[T any] struct {
	kind    string
	log     *zerolog.Logger
	service es.Service[T]
	encoder ResourceEncoder[T]
}

func (service *httpService[T]) id(r *http.Request) es.StreamID {
	return es.StreamID{Kind: service.kind, Key: chi.URLParam(r, "key")}
}

func (service *httpService[T]) getResource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := service.id(r)

		entity, err := service.service.Load(r.Context(), id)
		if err != nil {
			service.log.Error().Err(err).Str("id", id.String()).Msg("failed to load resource")
			ServiceError(w, r, err)
			return
		}

		if !entity.Initialized() {
			Error(w, r, http.StatusNotFound, "not found")
			return
		}

		service.encode(w, r, &entity)
	}
}

func (service *httpService[T]) executeCommand() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := service.id(r)

		body, err := io.ReadAll(r.Body)
		if err != nil {
			Error(w, r, http.StatusBadRequest, "invalid request body")
			return
		}

		var request CommandRequest
		if err := json.UnmarshalContext(r.Context(), body, &request); err != nil || request.Command == "" {
			service.log.Info().Err(err).Str("id", id.String()).Msg("failed to unmarshal command")
			Error(w, r, http.StatusBadRequest, "invalid request body")
			return
		}

		command := request.Remote()

		entity, err := service.service.Execute(r.Context(), id, command)
		if err != nil {
			event := service.log.Info()
			if StatusOf(err) == http.StatusInternalServerError {
				event = service.log.Error()
			}
			event.Err(err).Str("id", id.String()).Str("command", string(command.Name)).Msg("failed to execute command")

			ServiceError(w, r, err)
			return
		}

		if !entity.Initialized() {
			Error(w, r, http.StatusNotFound, "not found")
			return
		}

		service.encode(w, r, &entity)
	}
}

func (service *httpService[T]) encode(w http.ResponseWriter, r *http.Request, entity *es.Entity[T]) {
	if err := service.encoder.Encode(w, r, entity); err != nil {
		service.log.Error().Err(err).Str("id", entity.ID.String()).Msg("failed to encode resource")
		Error(w, r, http.StatusInternalServerError, "internal error")
	}
}
