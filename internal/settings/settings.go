// Package settings owns the persisted connector configuration, including
// the processor's MaxParallelMessages bound.
package settings

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Settings is the persisted configuration document of one connector process.
type Settings struct {
	// MaxParallelMessages bounds how many data message handlers run
	// concurrently. Control messages are always serialized.
	MaxParallelMessages int `mapstructure:"max_parallel_messages" validate:"required,gt=0"`

	LogLevel string `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`

	Venue VenueSettings `mapstructure:"venue"`
	Auth  AuthSettings  `mapstructure:"auth"`
	Sink  SinkSettings  `mapstructure:"sink"`

	// MetricsAddr is the listen address of the Prometheus endpoint; empty
	// disables it.
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// VenueSettings locates the venue endpoints.
type VenueSettings struct {
	RESTURL string `mapstructure:"rest_url" validate:"omitempty,url"`
	WSURL   string `mapstructure:"ws_url" validate:"omitempty,url"`
}

// AuthSettings locates the API key material. Key handling itself lives in
// the venue gateway, not in the core.
type AuthSettings struct {
	KeyName        string `mapstructure:"key_name"`
	PrivateKeyFile string `mapstructure:"private_key_file"`
}

// SinkSettings selects the outbound sink backend.
type SinkSettings struct {
	Backend string `mapstructure:"backend" validate:"required,oneof=channel kafka redis"`

	KafkaBrokers []string `mapstructure:"kafka_brokers"`
	KafkaTopic   string   `mapstructure:"kafka_topic"`

	RedisAddr    string `mapstructure:"redis_addr"`
	RedisChannel string `mapstructure:"redis_channel"`
}

// Default returns the settings used when no file is present.
func Default() Settings {
	return Settings{
		MaxParallelMessages: 5,
		LogLevel:            "info",
		Venue: VenueSettings{
			RESTURL: "https://api.coinbase.com",
			WSURL:   "wss://advanced-trade-ws.coinbase.com",
		},
		Sink: SinkSettings{
			Backend:      "channel",
			KafkaBrokers: []string{"localhost:9092"},
			KafkaTopic:   "venuelink.events",
			RedisAddr:    "localhost:6379",
			RedisChannel: "venuelink.events",
		},
		MetricsAddr: ":9090",
	}
}

// Load reads settings from the given file (or the default search path when
// path is empty), applies environment overrides with the VENUELINK prefix,
// and validates the result.
func Load(path string) (*Settings, error) {
	v := viper.New()
	applyDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("venuelink")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/venuelink")
	}

	v.SetEnvPrefix("VENUELINK")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read settings: %w", err)
		}
		// No file is fine: defaults plus environment apply.
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := validator.New().Struct(&s); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return &s, nil
}

// Save persists the settings document to the given yaml file.
func Save(s *Settings, path string) error {
	if err := validator.New().Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("max_parallel_messages", s.MaxParallelMessages)
	v.Set("log_level", s.LogLevel)
	v.Set("metrics_addr", s.MetricsAddr)
	v.Set("venue.rest_url", s.Venue.RESTURL)
	v.Set("venue.ws_url", s.Venue.WSURL)
	v.Set("auth.key_name", s.Auth.KeyName)
	v.Set("auth.private_key_file", s.Auth.PrivateKeyFile)
	v.Set("sink.backend", s.Sink.Backend)
	v.Set("sink.kafka_brokers", s.Sink.KafkaBrokers)
	v.Set("sink.kafka_topic", s.Sink.KafkaTopic)
	v.Set("sink.redis_addr", s.Sink.RedisAddr)
	v.Set("sink.redis_channel", s.Sink.RedisChannel)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

func applyDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("max_parallel_messages", d.MaxParallelMessages)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("metrics_addr", d.MetricsAddr)
	v.SetDefault("venue.rest_url", d.Venue.RESTURL)
	v.SetDefault("venue.ws_url", d.Venue.WSURL)
	v.SetDefault("sink.backend", d.Sink.Backend)
	v.SetDefault("sink.kafka_brokers", d.Sink.KafkaBrokers)
	v.SetDefault("sink.kafka_topic", d.Sink.KafkaTopic)
	v.SetDefault("sink.redis_addr", d.Sink.RedisAddr)
	v.SetDefault("sink.redis_channel", d.Sink.RedisChannel)
}
