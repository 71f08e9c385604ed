package main

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/ahmed11551/tasbix09-sub001/connectors/wehttp"
	"github.com/ahmed11551/tasbix09-sub001/tally"
)

type GatewayHandler = func(ctx context.Context, event events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error)

// createHandler serves GET /{user}/{counter} with the tally resource.
func createHandler(service tally.Service, log zerolog.Logger) GatewayHandler {
	encoder := wehttp.ResourceEncoder[tally.Tally]{}

	return func(ctx context.Context, event events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		user := event.PathParameters["user"]
		counter := event.PathParameters["counter"]

		if user == "" || counter == "" {
			return respond(http.StatusBadRequest, wehttp.ErrorResponse{Status: http.StatusBadRequest, Error: "user and counter are required"})
		}

		id := tally.StreamID(user, counter)
		entity, err := service.Load(ctx, id)
		if err != nil {
			log.Error().Err(err).Str("id", id.String()).Msg("failed to load tally")
			status := wehttp.StatusOf(err)
			return respond(status, wehttp.ErrorResponse{Status: status, Error: http.StatusText(status)})
		}

		if !entity.Initialized() {
			return respond(http.StatusNotFound, wehttp.ErrorResponse{Status: http.StatusNotFound, Error: "not found"})
		}

		resource, err := encoder.Resource(&entity)
		if err != nil {
			return events.APIGatewayV2HTTPResponse{}, err
		}

		return respond(http.StatusOK, resource)
	}
}

func respond(status int, body any) (events.APIGatewayV2HTTPResponse, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}

	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(encoded),
	}, nil
}
