package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/gonzalop/csftp"
)

const defaultPort = "21"

const usage = "Usage: csftp [flags] ServerAddress [ServerPort]"

// errUsage is returned when the positional arguments are wrong.
var errUsage = errors.New("expected server address and optional port")

// config holds the resolved startup settings. Flags win over CSFTP_*
// environment variables, which win over flag defaults.
type config struct {
	host           string
	port           string
	timeout        time.Duration
	dialTimeout    time.Duration
	logLevel       slog.Level
	bandwidthLimit int64
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("csftp", pflag.ContinueOnError)
	fs.Duration("timeout", csftp.DefaultTimeout, "read window that ends a server response")
	fs.Duration("dial-timeout", csftp.DefaultDialTimeout, "timeout for opening connections")
	fs.String("log-level", "warn", "log level (debug, info, warn, error)")
	fs.Int64("bandwidth-limit", 0, "retrieval speed limit in bytes per second (0 = unlimited)")
	fs.String("env-file", "", "dotenv file with CSFTP_* settings")
	return fs
}

// loadConfig parses args (without the program name).
func loadConfig(fs *pflag.FlagSet, args []string) (*config, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if envFile, _ := fs.GetString("env-file"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix("csftp")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	pos := fs.Args()
	if len(pos) != 1 && len(pos) != 2 {
		return nil, errUsage
	}

	cfg := &config{
		host:           pos[0],
		port:           defaultPort,
		timeout:        v.GetDuration("timeout"),
		dialTimeout:    v.GetDuration("dial-timeout"),
		bandwidthLimit: v.GetInt64("bandwidth-limit"),
	}

	if len(pos) == 2 {
		if _, err := strconv.ParseUint(pos[1], 10, 16); err != nil {
			return nil, fmt.Errorf("invalid port %q: %w", pos[1], err)
		}
		cfg.port = pos[1]
	}

	if cfg.timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %v", cfg.timeout)
	}

	if err := cfg.logLevel.UnmarshalText([]byte(v.GetString("log-level"))); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	return cfg, nil
}
