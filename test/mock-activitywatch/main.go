package main

import (
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/app-sre/awquery/internal/test"
)

const (
	readHeaderTimeout = 20 * time.Second
	defaultAddress    = "localhost:5600"
)

// A stand-in for the ActivityWatch server, answering the smoke queries with
// canned results.
func main() {
	address := os.Getenv("MOCK_ADDRESS")
	if address == "" {
		address = defaultAddress
	}
	if _, _, err := net.SplitHostPort(address); err != nil {
		log.Fatalf("Invalid listen address %q: %v", address, err)
	}

	server := &http.Server{
		Addr:              address,
		Handler:           test.ActivityWatch(test.DefaultMockResponses(), os.Stdout),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	log.Printf("Starting mock ActivityWatch server on %s", address)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Mock server failed: %v", err)
	}
}
