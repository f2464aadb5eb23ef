package cmd

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	awquery "github.com/app-sre/awquery/pkg"
	"github.com/app-sre/awquery/pkg/env/server"
	"github.com/app-sre/awquery/pkg/query"
	"github.com/app-sre/awquery/pkg/runner"
	"github.com/app-sre/awquery/pkg/version"
)

func Run(logger *zap.SugaredLogger, out io.Writer) error {
	logger.Infof("Starting awquery version: %s", version.Version())

	se := server.NewServerEnv()
	err := se.Populate()
	if err != nil {
		return fmt.Errorf("unable to configure query API endpoint: %w", err)
	}

	timeout := awquery.RequestTimeout()
	logger.Infof("Sending queries to: %s (request timeout: %s)", se.QueryURL(), timeout)

	cfg := &awquery.Config{
		ServerEnv: se,
		Client:    query.NewClient(se.QueryURL(), query.WithTimeout(timeout)),
		Logger:    logger,
		Output:    out,
	}

	summary := runner.New(cfg).Run(context.Background(), query.SmokeTimeperiods(), query.SmokeQueries())
	logger.Infow("Finished running queries",
		"Total", summary.Total,
		"Succeeded", summary.Succeeded,
		"Errors", summary.Errors,
		"Exceptions", summary.Exceptions,
	)

	return nil
}
