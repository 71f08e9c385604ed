package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	"github.com/ahmed11551/tasbix09-sub001/support"
)

func main() {
	ctx := context.Background()

	// dynamodb unless the environment says otherwise
	cfg, err := support.LoadConfig(append([]string{"TASBIH_STORE=dynamodb"}, os.Environ()...))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	handler, cleanup, err := live(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure handler")
	}
	defer cleanup()

	lambda.Start(handler)
}
