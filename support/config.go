// Package support loads configuration and builds the shared infrastructure
// the commands are wired from.
package support

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

const prefix = "TASBIH_"

type Config struct {
	Store           string            `mapstructure:"store" validate:"oneof=sqlite dynamodb esdb jetstream"`
	SQLitePath      string            `mapstructure:"sqlite_path" validate:"required_if=Store sqlite"`
	EventsTable     string            `mapstructure:"dynamodb_events_table_name" validate:"required_if=Store dynamodb"`
	DynamoEndpoint  string            `mapstructure:"dynamodb_endpoint"`
	ESDBConnection  string            `mapstructure:"esdb_connection" validate:"required_if=Store esdb"`
	NatsURL         string            `mapstructure:"nats_url" validate:"required_if=Store jetstream"`
	NatsStream      string            `mapstructure:"nats_stream"`
	Listen          string            `mapstructure:"listen"`
	ShutdownTimeout time.Duration     `mapstructure:"shutdown_timeout"`
	Timezone        string            `mapstructure:"timezone"`
	LogLevel        string            `mapstructure:"log_level"`
	LogPretty       bool              `mapstructure:"log_pretty"`
	Tracing         string            `mapstructure:"tracing" validate:"oneof=none stdout otlp jaeger"`
	OTLPEndpoint    string            `mapstructure:"otlp_endpoint" validate:"required_if=Tracing otlp"`
	OTLPInsecure    bool              `mapstructure:"otlp_insecure"`
	OTLPHeaders     map[string]string `mapstructure:"otlp_headers"`
	JaegerEndpoint  string            `mapstructure:"jaeger_endpoint"`
	ServiceName     string            `mapstructure:"service_name"`
}

func DefaultConfig() Config {
	return Config{
		Store:           "sqlite",
		SQLitePath:      "tasbih.db",
		NatsStream:      "tasbih",
		Listen:          ":9080",
		ShutdownTimeout: 10 * time.Second,
		Timezone:        "UTC",
		LogLevel:        "info",
		Tracing:         "none",
		JaegerEndpoint:  "http://localhost:14268/api/traces",
		ServiceName:     "tasbih",
	}
}

// LoadConfig decodes TASBIH_* variables from environ (os.Environ format) over
// the defaults. DYNAMODB_EVENTS_TABLE_NAME is honoured for the events table.
func LoadConfig(environ []string) (Config, error) {
	values := map[string]any{}
	for _, entry := range environ {
		name, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}

		switch {
		case strings.HasPrefix(name, prefix):
			values[strings.ToLower(strings.TrimPrefix(name, prefix))] = value
		case name == "DYNAMODB_EVENTS_TABLE_NAME":
			if _, set := values["dynamodb_events_table_name"]; !set {
				values["dynamodb_events_table_name"] = value
			}
		}
	}

	cfg := DefaultConfig()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			stringToMapHookFunc(),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &cfg,
	})
	if err != nil {
		return Config{}, err
	}

	if err := decoder.Decode(values); err != nil {
		return Config{}, errors.Wrap(err, "invalid configuration")
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, errors.Wrap(err, "invalid configuration")
	}

	return cfg, nil
}

func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// stringToMapHookFunc decodes "k=v,k2=v2" into a string map.
func stringToMapHookFunc() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf(map[string]string{}) {
			return data, nil
		}

		result := map[string]string{}
		for _, pair := range strings.Split(data.(string), ",") {
			key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
			if !ok || key == "" {
				continue
			}
			result[key] = value
		}

		return result, nil
	}
}
