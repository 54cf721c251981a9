package main

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

// used when neither an explicit region nor AWS_REGION is set
const DefaultRegion = "us-west-2"

// RegionConfig holds the environment-provided region default.
type RegionConfig struct {
	Region string `env:"AWS_REGION"`
}

func loadRegionConfig(opts env.Options) (RegionConfig, error) {
	var cfg RegionConfig
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return RegionConfig{}, fmt.Errorf("failed to parse region config: %w", err)
	}
	return cfg, nil
}

// Resolve picks the region to use: explicit value, then AWS_REGION, then DefaultRegion.
func (rc RegionConfig) Resolve(explicit string) string {
	if r := strings.TrimSpace(explicit); r != "" {
		return r
	}
	if r := strings.TrimSpace(rc.Region); r != "" {
		return r
	}
	return DefaultRegion
}

type Config struct {
	QueueName string
	Region    string
	LogLevel  zerolog.Level
}

func buildConfig(c *cli.Context) (*Config, error) {
	name := strings.TrimSpace(c.String("dlq-name"))
	if name == "" {
		return nil, fmt.Errorf("dlq-name must not be empty")
	}

	regionCfg, err := loadRegionConfig(env.Options{})
	if err != nil {
		return nil, err
	}

	return &Config{
		QueueName: name,
		Region:    regionCfg.Resolve(""),
		LogLevel:  parseLogLevel(c.String("log-level")),
	}, nil
}

func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
