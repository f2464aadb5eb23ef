package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	awquery "github.com/app-sre/awquery/pkg"
	"github.com/app-sre/awquery/pkg/query"
)

type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeError
	outcomeException
)

// Summary counts how each query of a run ended. It is informational only.
type Summary struct {
	Total      int
	Succeeded  int
	Errors     int
	Exceptions int
}

type Runner struct {
	Config *awquery.Config
}

func New(cfg *awquery.Config) *Runner {
	return &Runner{Config: cfg}
}

// Run sends every query in order, each in a fresh request with the given
// time periods, and prints the outcome of each one. A failing query never
// stops the run.
func (r *Runner) Run(ctx context.Context, timeperiods []string, queries [][]string) Summary {
	var summary Summary

	if se := r.Config.ServerEnv; se != nil {
		r.Config.Logger.Debugw("Running queries", "Endpoint", se.QueryURL(), "Queries", len(queries))
	}

	for _, q := range queries {
		summary.Total++

		switch r.run(ctx, query.NewRequest(timeperiods, q...)) {
		case outcomeSuccess:
			summary.Succeeded++
		case outcomeError:
			summary.Errors++
		default:
			summary.Exceptions++
		}
	}

	return summary
}

func (r *Runner) run(ctx context.Context, q *query.Request) (o outcome) {
	cfg := r.Config
	out := cfg.Output

	fmt.Fprintf(out, "\nTesting query: %s\n", formatQuery(q.Query))

	defer func() {
		if rec := recover(); rec != nil {
			cfg.Logger.Errorf("Recovered from an error: %s", rec)
			fmt.Fprintf(out, "Exception: %s\n", rec)
			o = outcomeException
		}
	}()

	cfg.Logger.Debugw("Sending query", "Query", q.Query, "Timeperiods", q.Timeperiods)

	resp, err := cfg.Client.Post(ctx, q)
	if err != nil {
		cfg.Logger.Errorf("Unable to run query: %s", err)
		fmt.Fprintf(out, "Exception: %s\n", err)
		return outcomeException
	}
	fmt.Fprintf(out, "Status code: %d\n", resp.StatusCode)

	if !resp.OK() {
		cfg.Logger.Warnf("Query returned status code: %d", resp.StatusCode)
		fmt.Fprintf(out, "Error: %s\n", resp.Text())
		return outcomeError
	}

	content, err := resp.Indent()
	if err != nil {
		cfg.Logger.Errorf("Unable to process query response: %s", err)
		fmt.Fprintf(out, "Exception: %s\n", err)
		return outcomeException
	}
	fmt.Fprintf(out, "Success: %s\n", content)

	return outcomeSuccess
}

func formatQuery(q []string) string {
	var b bytes.Buffer

	encoder := json.NewEncoder(&b)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(q); err != nil {
		return fmt.Sprintf("%q", q)
	}

	return strings.TrimSuffix(b.String(), "\n")
}
