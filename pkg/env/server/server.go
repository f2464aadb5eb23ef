package server

import (
	"net/url"
	"os"
	"strings"

	"github.com/app-sre/awquery/pkg/env"
)

const DefaultEndpoint = "http://localhost:5600/api/0"

const queryPath = "/query/"

type Env struct {
	Endpoint string
}

func NewServerEnv() *Env {
	return &Env{}
}

// Populate falls back to DefaultEndpoint only when AW_API_BASE is not set at
// all; a set but blank value is an error.
func (s *Env) Populate() error {
	endpoint, found := os.LookupEnv("AW_API_BASE")
	if !found {
		endpoint = DefaultEndpoint
	}
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return &env.Error{Name: "AW_API_BASE"}
	}

	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return &env.TypeError{Name: "AW_API_BASE"}
	}
	s.Endpoint = strings.TrimRight(endpoint, "/")

	return nil
}

// QueryURL returns the address of the query endpoint. The trailing slash is
// required, the server redirects without it.
func (s *Env) QueryURL() string {
	return s.Endpoint + queryPath
}
