package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/heliotrack/heliotrack/pkg/controller"
	"github.com/heliotrack/heliotrack/pkg/log"
	"github.com/heliotrack/heliotrack/pkg/predictor"
	"github.com/heliotrack/heliotrack/pkg/server"
	"github.com/heliotrack/heliotrack/pkg/storage"

	"github.com/levenlabs/go-lflag"
)

func main() {
	// init packages
	p := predictor.Configured()
	c := controller.Configured(p)
	s := storage.Configured()

	// init server
	srv := server.Configured(c, s)

	// parse flags
	lflag.Configure()

	if err := log.ConfigureFromFlags(); err != nil {
		panic(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// if initialization inside lflag.Do failed we already panicked
	defer func() {
		if err := s.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close storage", "error", err)
		}
	}()

	// Run will block until context is canceled or error happens
	if err := srv.Run(ctx); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "server failed", "error", err)
		os.Exit(1)
	}
	log.Ctx(ctx).InfoContext(ctx, "server exited cleanly")
}
