package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/ahmed11551/tasbix09-sub001/support"
)

func run(ctx context.Context) error {
	cfg, err := support.LoadConfig(os.Environ())
	if err != nil {
		return err
	}

	shutdown, err := support.Tracing(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdown()

	s, cleanup, err := server(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	return s.Run(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
