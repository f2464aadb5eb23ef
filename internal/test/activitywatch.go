package test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/etherlabsio/healthcheck/v2"
	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/justinas/alice"

	"github.com/app-sre/awquery/pkg/query"
)

// MockResponse is what the mock query API answers for a single query string.
type MockResponse struct {
	Code        int
	Body        string
	ContentType string
}

// MockResponses maps a query string, as sent in the first element of the
// "query" field, to a canned response.
type MockResponses map[string]MockResponse

func DefaultMockResponses() MockResponses {
	return MockResponses{
		"RETURN = 1;": {
			Code: http.StatusOK,
			Body: `[1]`,
		},
		"events = query_bucket('aw-watcher-window_UNI-qUxy6XHnLkk'); RETURN = events;": {
			Code: http.StatusOK,
			Body: `[[{"id":1,"timestamp":"2024-10-28T09:00:00.000000+00:00","duration":60.0,"data":{"app":"Terminal","title":"awquery"}}]]`,
		},
	}
}

// ActivityWatch returns a handler imitating the parts of the ActivityWatch
// server API a smoke run touches. Access logs are written to w.
func ActivityWatch(responses MockResponses, w io.Writer) http.Handler {
	queryChain := alice.New(
		alice.Constructor(mockRecovery(w)),
		alice.Constructor(mockContentType),
	).Then(mockQuery(responses))

	r := mux.NewRouter()
	r.Handle("/healthcheck", mockHealthcheck(responses)).Methods(http.MethodGet)
	r.Handle("/api/0/info", gorillaHandlers.LoggingHandler(w, mockInfo())).Methods(http.MethodGet)
	r.Handle("/api/0/query/", gorillaHandlers.LoggingHandler(w, queryChain)).Methods(http.MethodPost)

	return r
}

func mockQuery(responses MockResponses) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request query.Request

		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			http.Error(w, "Unable to decode request body", http.StatusBadRequest)
			return
		}
		if len(request.Query) == 0 || len(request.Timeperiods) == 0 {
			http.Error(w, "Request requires query and timeperiods", http.StatusBadRequest)
			return
		}

		response, ok := responses[request.Query[0]]
		if !ok {
			response = MockResponse{
				Code: http.StatusInternalServerError,
				Body: fmt.Sprintf(`{"message": "Unknown query: %s"}`, strings.ReplaceAll(request.Query[0], `"`, `\"`)),
			}
		}

		contentType := response.ContentType
		if contentType == "" {
			contentType = "application/json"
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(response.Code)
		_, _ = io.WriteString(w, response.Body)
	}
}

func mockInfo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"hostname":  "mock",
			"version":   "v0.13.2",
			"testing":   true,
			"device_id": "00000000-0000-0000-0000-000000000000",
		})
	}
}

func mockHealthcheck(responses MockResponses) http.Handler {
	return healthcheck.Handler(
		healthcheck.WithTimeout(5*time.Second),
		healthcheck.WithChecker(
			"responses", healthcheck.CheckerFunc(
				func(ctx context.Context) error {
					if len(responses) == 0 {
						return errors.New("no query responses configured")
					}
					return nil
				},
			),
		),
	)
}

func mockRecovery(w io.Writer) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					err, ok := rec.(error)
					if ok && errors.Is(err, http.ErrAbortHandler) {
						panic(err)
					}

					fmt.Fprintf(w, "Recovered from an error: %s\n", rec)
					http.Error(rw, "An internal error has occurred", http.StatusInternalServerError)
				}
			}()
			h.ServeHTTP(rw, r)
		})
	}
}

func mockContentType(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
			http.Error(w, "Request requires Content-Type: application/json", http.StatusUnsupportedMediaType)
			return
		}
		h.ServeHTTP(w, r)
	})
}
