package main

import (
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Args holds the runtime configuration, populated from flags with
// BIDHOUSE_-prefixed environment variables as overrides.
type Args struct {
	Addr           string
	DBDSN          string
	JWTSecret      string
	TokenTTL       time.Duration
	HideEndedItems bool
}

func ParseArgs() Args {
	// server config
	pflag.String("addr", "0.0.0.0:8080", "listen address")

	// store config; an empty DSN selects the in-memory store
	pflag.String("db-dsn", "", "postgres DSN")

	// identity config
	pflag.String("jwt-secret", "", "HMAC signing key for access tokens")
	pflag.Duration("token-ttl", 30*time.Minute, "access token lifetime")

	// listing behavior: when true, active items whose end time has passed
	// are hidden from GET /api/items
	pflag.Bool("hide-ended-items", false, "filter ended items from listings")

	// bind pflag to viper
	pflag.Parse()
	viper.BindPFlags(pflag.CommandLine)
	viper.AutomaticEnv()
	viper.SetEnvPrefix("BIDHOUSE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	return Args{
		Addr:           viper.GetString("addr"),
		DBDSN:          viper.GetString("db-dsn"),
		JWTSecret:      viper.GetString("jwt-secret"),
		TokenTTL:       viper.GetDuration("token-ttl"),
		HideEndedItems: viper.GetBool("hide-ended-items"),
	}
}

func (args Args) Validate() bool {
	return args.Addr != "" && args.JWTSecret != "" && args.TokenTTL > 0
}
