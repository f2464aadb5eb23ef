package runner

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/app-sre/awquery/internal/test"
	awquery "github.com/app-sre/awquery/pkg"
	"github.com/app-sre/awquery/pkg/env/server"
	"github.com/app-sre/awquery/pkg/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type panicPoster struct {
	calls int
}

func (p *panicPoster) Post(_ context.Context, _ *query.Request) (*query.Response, error) {
	p.calls++
	if p.calls == 1 {
		panic("test")
	}
	return &query.Response{StatusCode: http.StatusOK, Body: []byte(`[1]`)}, nil
}

func TestNew(t *testing.T) {
	t.Parallel()

	cfg := &awquery.Config{}
	actual := New(cfg)

	require.NotNil(t, actual)
	assert.Same(t, cfg, actual.Config)
}

func TestRun(t *testing.T) {
	t.Parallel()

	cases := []struct {
		description string
		responses   test.MockResponses
		closed      bool
		queries     [][]string
		summary     Summary
		body        string
		want        string
		statuses    int
	}{
		{
			"query returning JSON result",
			test.MockResponses{"RETURN = 1;": {Code: http.StatusOK, Body: `{"result": 1}`}},
			false,
			[][]string{{"RETURN = 1;"}},
			Summary{Total: 1, Succeeded: 1},
			"\nTesting query: [\"RETURN = 1;\"]\nStatus code: 200\nSuccess: {\n  \"result\": 1\n}\n",
			`Sending query`,
			1,
		},
		{
			"query rejected with an error",
			test.MockResponses{"RETURN = 1;": {Code: http.StatusBadRequest, Body: `"bad query"`}},
			false,
			[][]string{{"RETURN = 1;"}},
			Summary{Total: 1, Errors: 1},
			"\nTesting query: [\"RETURN = 1;\"]\nStatus code: 400\nError: \"bad query\"\n",
			`WARN	Query returned status code: 400`,
			1,
		},
		{
			"query returning malformed JSON result",
			test.MockResponses{"RETURN = 1;": {Code: http.StatusOK, Body: `[1`}},
			false,
			[][]string{{"RETURN = 1;"}},
			Summary{Total: 1, Exceptions: 1},
			"Status code: 200\nException: unable to decode query response",
			`ERROR	Unable to process query response`,
			1,
		},
		{
			"query result printed as sent",
			test.MockResponses{"RETURN = 1;": {Code: http.StatusOK, Body: `[{"title":"Tom & Jerry <b> – Café","app":"Firefox"}]`}},
			false,
			[][]string{{"RETURN = 1;"}},
			Summary{Total: 1, Succeeded: 1},
			"\nTesting query: [\"RETURN = 1;\"]\nStatus code: 200\nSuccess: [\n  {\n    \"title\": \"Tom & Jerry <b> – Café\",\n    \"app\": \"Firefox\"\n  }\n]\n",
			``,
			1,
		},
		{
			"query result with trailing data",
			test.MockResponses{"RETURN = 1;": {Code: http.StatusOK, Body: `{"a":1} trailing`}},
			false,
			[][]string{{"RETURN = 1;"}},
			Summary{Total: 1, Exceptions: 1},
			"\nTesting query: [\"RETURN = 1;\"]\nStatus code: 200\nException: unable to decode query response: invalid character 't' after top-level value\n",
			`ERROR	Unable to process query response`,
			1,
		},
		{
			"smoke queries in order",
			test.DefaultMockResponses(),
			false,
			query.SmokeQueries(),
			Summary{Total: 2, Succeeded: 2},
			"\nTesting query: [\"RETURN = 1;\"]\nStatus code: 200\nSuccess: [\n  1\n]\n" +
				"\nTesting query: [\"events = query_bucket('aw-watcher-window_UNI-qUxy6XHnLkk'); RETURN = events;\"]\nStatus code: 200\nSuccess: [\n  [\n    {\n      \"id\": 1,\n      \"timestamp\": \"2024-10-28T09:00:00.000000+00:00\",\n      \"duration\": 60.0,\n      \"data\": {",
			``,
			2,
		},
		{
			"failing query does not stop the next one",
			test.MockResponses{"RETURN = 1;": {Code: http.StatusOK, Body: `[1]`}},
			false,
			[][]string{{"RETURN = x;"}, {"RETURN = 1;"}},
			Summary{Total: 2, Succeeded: 1, Errors: 1},
			"Status code: 500\nError: {\"message\": \"Unknown query: RETURN = x;\"}\n\nTesting query: [\"RETURN = 1;\"]\nStatus code: 200\nSuccess: [\n  1\n]\n",
			``,
			2,
		},
		{
			"unreachable endpoint",
			test.DefaultMockResponses(),
			true,
			query.SmokeQueries(),
			Summary{Total: 2, Exceptions: 2},
			"\nTesting query: [\"RETURN = 1;\"]\nException: unable to send query request",
			`ERROR	Unable to run query`,
			0,
		},
		{
			"statements of a variant sent as one query",
			test.MockResponses{"events = query_bucket('test'); RETURN = events;": {Code: http.StatusOK, Body: `[[]]`}},
			false,
			[][]string{{"events = query_bucket('test');", "RETURN = events;"}},
			Summary{Total: 1, Succeeded: 1},
			"\nTesting query: [\"events = query_bucket('test'); RETURN = events;\"]\nStatus code: 200\nSuccess: [\n  []\n]\n",
			`"Timeperiods": ["2024-10-28/2024-10-29"]`,
			1,
		},
		{
			"no queries",
			test.DefaultMockResponses(),
			false,
			[][]string{},
			Summary{},
			``,
			`Running queries	{"Endpoint": "http://127.0.0.1`,
			0,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.description, func(t *testing.T) {
			t.Parallel()

			var body, output bytes.Buffer

			s := httptest.NewServer(test.ActivityWatch(tc.responses, &bytes.Buffer{}))
			defer s.Close()
			if tc.closed {
				s.Close()
			}

			se := &server.Env{Endpoint: s.URL + "/api/0"}
			cfg := &awquery.Config{
				ServerEnv: se,
				Client:    query.NewClient(se.QueryURL()),
				Logger:    test.DummyLogger(&output).Sugar(),
				Output:    &body,
			}
			actual := New(cfg).Run(context.TODO(), query.SmokeTimeperiods(), tc.queries)

			assert.Equal(t, tc.summary, actual)
			assert.Contains(t, body.String(), tc.body)
			assert.Contains(t, output.String(), tc.want)
			assert.Equal(t, len(tc.queries), strings.Count(body.String(), "Testing query: "))
			assert.Equal(t, tc.statuses, strings.Count(body.String(), "Status code: "))
		})
	}
}

func TestRunRecovery(t *testing.T) {
	t.Parallel()

	var body, output bytes.Buffer

	cfg := &awquery.Config{
		Client: &panicPoster{},
		Logger: test.DummyLogger(&output).Sugar(),
		Output: &body,
	}
	actual := New(cfg).Run(context.TODO(), query.SmokeTimeperiods(), [][]string{{"RETURN = 1;"}, {"RETURN = 1;"}})

	assert.Equal(t, Summary{Total: 2, Succeeded: 1, Exceptions: 1}, actual)
	assert.Equal(t, "\nTesting query: [\"RETURN = 1;\"]\nException: test\n\nTesting query: [\"RETURN = 1;\"]\nStatus code: 200\nSuccess: [\n  1\n]\n", body.String())
	assert.Contains(t, output.String(), `Recovered from an error: test`)
}

func TestFormatQuery(t *testing.T) {
	t.Parallel()

	cases := []struct {
		description string
		given       []string
		want        string
	}{
		{
			"single statement",
			[]string{"RETURN = 1;"},
			`["RETURN = 1;"]`,
		},
		{
			"statement with quotes and HTML characters",
			[]string{`RETURN = "<a&b>";`},
			`["RETURN = \"<a&b>\";"]`,
		},
		{
			"no statements",
			[]string{},
			`[]`,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.description, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, formatQuery(tc.given))
		})
	}
}
