package wehttp_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmed11551/tasbix09-sub001/connectors/wehttp"
	"github.com/ahmed11551/tasbix09-sub001/es"
	"github.com/ahmed11551/tasbix09-sub001/stores/sqlite"
	"github.com/ahmed11551/tasbix09-sub001/tally"
)

func newServer(t *testing.T) http.Handler {
	store, err := sqlite.NewEventStore(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := zerolog.Nop()
	service := tally.NewService(store, tally.SystemDependencies())

	return wehttp.NewRouter[tally.Tally](tally.Kind, service, wehttp.Logger[tally.Tally](&logger))
}

func send(handler http.Handler, method string, path string, contentType string, body string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	return recorder
}

func decode(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))

	return body
}

func TestHandler(t *testing.T) {
	handler := newServer(t)

	t.Run("returns not found for new resources", func(t *testing.T) {
		response := send(handler, http.MethodGet, "/user-1.missing", "", "")

		assert.Equal(t, http.StatusNotFound, response.Code)
		assert.Equal(t, float64(http.StatusNotFound), decode(t, response)["status"])
	})

	t.Run("executes commands and renders the resource", func(t *testing.T) {
		response := send(handler, http.MethodPost, "/user-1.morning", "application/json",
			`{"command":"tally:start","payload":{"item":"subhanallah","target":33}}`)
		require.Equal(t, http.StatusOK, response.Code, response.Body.String())

		body := decode(t, response)
		assert.Equal(t, "tally.user-1.morning", body["$id"])
		assert.Equal(t, "tally:tally", body["$type"])
		assert.NotEqual(t, es.InitialRevision.String(), body["$revision"])
		assert.Equal(t, "subhanallah", body["item"])
		assert.Equal(t, float64(33), body["target"])

		loaded := send(handler, http.MethodGet, "/user-1.morning", "", "")
		require.Equal(t, http.StatusOK, loaded.Code)
		assert.Equal(t, body["$revision"], decode(t, loaded)["$revision"])
	})

	t.Run("requires json bodies", func(t *testing.T) {
		response := send(handler, http.MethodPost, "/user-1.morning", "text/plain", "tap")
		assert.Equal(t, http.StatusUnsupportedMediaType, response.Code)
	})

	t.Run("rejects malformed bodies", func(t *testing.T) {
		response := send(handler, http.MethodPost, "/user-1.morning", "application/json", `{"command":`)
		assert.Equal(t, http.StatusBadRequest, response.Code)

		response = send(handler, http.MethodPost, "/user-1.morning", "application/json", `{"payload":{}}`)
		assert.Equal(t, http.StatusBadRequest, response.Code)
	})

	t.Run("maps command errors", func(t *testing.T) {
		tests := []struct {
			name   string
			path   string
			body   string
			status int
		}{
			{"invalid", "/user-2.a", `{"command":"tally:start","payload":{"item":"","count":1}}`, http.StatusBadRequest},
			{"malformed payload", "/user-2.a", `{"command":"tally:start","payload":{"item":7}}`, http.StatusBadRequest},
			{"unknown", "/user-2.a", `{"command":"tally:shake"}`, http.StatusBadRequest},
			{"rejected", "/user-2.b", `{"command":"tally:record","payload":{"count":1,"delta":1,"cause":"tap"}}`, http.StatusUnprocessableEntity},
		}

		for _, test := range tests {
			t.Run(test.name, func(t *testing.T) {
				response := send(handler, http.MethodPost, test.path, "application/json", test.body)
				assert.Equal(t, test.status, response.Code, response.Body.String())
			})
		}
	})
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusConflict, wehttp.StatusOf(pkgerrors.Wrap(es.RevisionConflict, "publish")))
	assert.Equal(t, http.StatusUnprocessableEntity, wehttp.StatusOf(es.Reject(tally.Record{}, "not started")))
	assert.Equal(t, http.StatusBadRequest, wehttp.StatusOf(es.CommandNotFound("tally:shake")))
	assert.Equal(t, http.StatusInternalServerError, wehttp.StatusOf(errors.New("disk full")))
}
