//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"github.com/ahmed11551/tasbix09-sub001/goals"
	"github.com/ahmed11551/tasbix09-sub001/support"
	"github.com/ahmed11551/tasbix09-sub001/tally"
)

func server(ctx context.Context, cfg support.Config) (*Server, func(), error) {
	panic(wire.Build(
		support.OpenStore,
		support.Logger,
		tally.Set,
		goals.Set,
		NewServer,
	))
}
