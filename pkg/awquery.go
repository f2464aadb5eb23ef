package awquery

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/app-sre/awquery/pkg/env/server"
	"github.com/app-sre/awquery/pkg/query"
)

// Config is shared by everything that takes part in a smoke run.
type Config struct {
	ServerEnv *server.Env
	Client    query.Poster
	Logger    *zap.SugaredLogger
	Output    io.Writer
}

// Production reports whether ENVIRONMENT is set to production.
func Production() bool {
	return strings.ToLower(os.Getenv("ENVIRONMENT")) == "production"
}

// RequestTimeout returns zero, meaning no client-side timeout, unless
// REQUEST_TIMEOUT holds a valid duration.
func RequestTimeout() time.Duration {
	var timeout time.Duration

	if s := os.Getenv("REQUEST_TIMEOUT"); s != "" {
		if d, err := parseDuration(s); err == nil {
			timeout = d
		}
	}

	return timeout
}

func parseDuration(s string) (time.Duration, error) {
	if _, err := strconv.Atoi(s); err == nil {
		s += "s"
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("unable to parse duration: %w", err)
	}
	if d < 0 {
		d = -d
	}

	return d, nil
}
