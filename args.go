package main

import (
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"confbid/api"
)

func ParseArgs() Args {
	// server config
	pflag.String("server-url", "0.0.0.0:8080", "")
	pflag.String("log-level", "info", "debug, info, warn or error")
	pflag.String("version", "dev", "")
	pflag.StringSlice("cors-allow-origins", nil, "empty allows all origins")

	// db config
	pflag.String("db-user", "", "")
	pflag.String("db-password", "", "")
	pflag.String("db-host", "", "")
	pflag.Int("db-port", 5432, "")
	pflag.String("db-database", "", "")
	pflag.String("db-schema", "", "")

	// remote store config
	pflag.String("store-url", "", "base url of a remote preference store, overrides the database")
	pflag.String("store-token", "", "")
	pflag.Duration("store-timeout", 10*time.Second, "")
	pflag.String("store-api-secret", "", "hs256 secret protecting /api/bids, empty disables the check")

	// redis config
	pflag.String("redis-addr", "", "")
	pflag.String("redis-password", "", "")
	pflag.Int("redis-db", 15, "")
	pflag.String("redis-key-prefix", "confbid:", "")
	pflag.Duration("redis-lock-expiry", 8*time.Second, "")

	// redis stream keys
	pflag.String("redis-stream-key-for-bid-events", "confbid-bid-events", "")

	// bind pflag to viper
	pflag.Parse()
	viper.BindPFlags(pflag.CommandLine)
	viper.AutomaticEnv()
	viper.SetEnvPrefix("CONFBID")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	// initial arguments
	return Args{
		ServerURL: viper.GetString("server-url"),
		LogLevel:  viper.GetString("log-level"),
		ServerConfig: api.ServerConfig{
			Version: viper.GetString("version"),
			DB: api.DBConfig{
				User:     viper.GetString("db-user"),
				Password: viper.GetString("db-password"),
				Host:     viper.GetString("db-host"),
				Port:     viper.GetInt("db-port"),
				Database: viper.GetString("db-database"),
				Schema:   viper.GetString("db-schema"),
			},
			Store: api.StoreConfig{
				URL:     viper.GetString("store-url"),
				Token:   viper.GetString("store-token"),
				Timeout: viper.GetDuration("store-timeout"),
			},
			Redis: api.RedisConfig{
				Addr:       viper.GetString("redis-addr"),
				Password:   viper.GetString("redis-password"),
				DB:         viper.GetInt("redis-db"),
				KeyPrefix:  viper.GetString("redis-key-prefix"),
				LockExpiry: viper.GetDuration("redis-lock-expiry"),
				StreamKeys: api.RedisStreamKeys{
					BidEvents: viper.GetString("redis-stream-key-for-bid-events"),
				},
			},
			CORS: api.CORSConfig{
				AllowOrigins: viper.GetStringSlice("cors-allow-origins"),
			},
			Auth: api.AuthConfig{
				StoreSecret: viper.GetString("store-api-secret"),
			},
		},
	}
}

type Args struct {
	ServerURL    string
	LogLevel     string
	ServerConfig api.ServerConfig
}

// Validate 至少要有資料庫或遠端儲存端其中之一
func (args Args) Validate() bool {
	return args.ServerURL != "" && (args.ServerConfig.DB.Enabled() || args.ServerConfig.Store.URL != "")
}

func (args Args) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(args.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
