package query

import "strings"

const periodSeparator = "/"

type Request struct {
	Timeperiods []string `json:"timeperiods"`
	Query       []string `json:"query"`
}

// NewRequest builds a request for the given time periods. Two bare dates are
// treated as the boundaries of a single period, and all statements are
// joined into the one query string the server evaluates.
func NewRequest(timeperiods []string, statements ...string) *Request {
	r := &Request{Query: []string{}}

	if len(timeperiods) == 2 && !strings.Contains(timeperiods[0], periodSeparator) && !strings.Contains(timeperiods[1], periodSeparator) {
		r.Timeperiods = []string{timeperiods[0] + periodSeparator + timeperiods[1]}
	} else {
		r.Timeperiods = append([]string{}, timeperiods...)
	}

	if len(statements) > 0 {
		r.Query = []string{strings.Join(statements, " ")}
	}

	return r
}

// SmokeTimeperiods returns the boundaries of the single day a smoke run
// queries. NewRequest combines them into one period.
func SmokeTimeperiods() []string {
	return []string{
		"2024-10-28",
		"2024-10-29",
	}
}

// SmokeQueries lists the query variants sent by a smoke run, simplest first.
// The statements of each variant are sent as one query string.
func SmokeQueries() [][]string {
	return [][]string{
		{"RETURN = 1;"},
		{"events = query_bucket('aw-watcher-window_UNI-qUxy6XHnLkk');", "RETURN = events;"},
	}
}
