package main

import (
	"log"
	"os"

	"go.uber.org/zap"

	awquery "github.com/app-sre/awquery/pkg"
	"github.com/app-sre/awquery/pkg/cmd"
)

func main() {
	newLogger := zap.NewDevelopment
	if awquery.Production() {
		newLogger = zap.NewProduction
	}

	l, err := newLogger()
	if err != nil {
		log.Fatalf("Unable to initialize Zap logger: %s", err)
	}
	defer func() { _ = l.Sync() }()

	logger := l.Sugar()
	if err := cmd.Run(logger, os.Stdout); err != nil {
		logger.Fatalf("Unable to run queries: %s", err)
	}
}
