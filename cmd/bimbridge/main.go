package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/louisbranch/bimbridge/internal/cmd/bimbridge"
	"github.com/louisbranch/bimbridge/internal/platform/config"
)

// main starts the command bridge on stdio or HTTP.
func main() {
	cfg, err := bimbridge.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bimbridge.Run(ctx, cfg); err != nil {
		config.Exitf("bimbridge: %v", err)
	}
}
