//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"github.com/ahmed11551/tasbix09-sub001/support"
	"github.com/ahmed11551/tasbix09-sub001/tally"
)

func live(ctx context.Context, cfg support.Config) (GatewayHandler, func(), error) {
	panic(wire.Build(
		support.OpenStore,
		support.Logger,
		tally.Set,
		createHandler,
	))
}
