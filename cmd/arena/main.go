package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"arena-shooter/core/internal/app"
	"arena-shooter/core/internal/telemetry"
)

func main() {
	var opts app.Options
	flag.StringVar(&opts.ConfigDir, "config", ".", "directory holding arena.yaml")
	flag.Uint64Var(&opts.MaxTicks, "ticks", 0, "stop after this many ticks (0 runs until the stage clears)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts.Logger = telemetry.WrapLogger(log.Default())
	if _, err := app.Run(ctx, opts); err != nil {
		log.Fatalf("%v", err)
	}
}
