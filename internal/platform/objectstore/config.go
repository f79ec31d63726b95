package objectstore

import (
	"errors"

	"github.com/lineforge/weekboard/internal/platform/env"
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
	Bucket    string
}

// ConfigFromEnv reads the partition mirror configuration. An empty
// endpoint means publishing is disabled.
func ConfigFromEnv() (Config, error) {
	useSSL, err := env.Bool("WEEKBOARD_S3_USE_SSL", false)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Endpoint:  env.String("WEEKBOARD_S3_ENDPOINT", ""),
		AccessKey: env.String("WEEKBOARD_S3_ACCESS_KEY", ""),
		SecretKey: env.String("WEEKBOARD_S3_SECRET_KEY", ""),
		UseSSL:    useSSL,
		Region:    env.String("WEEKBOARD_S3_REGION", ""),
		Bucket:    env.String("WEEKBOARD_S3_BUCKET", "weekboard-partitions"),
	}, nil
}

// Enabled reports whether a mirror endpoint is configured.
func (c Config) Enabled() bool { return c.Endpoint != "" }

func (c Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("WEEKBOARD_S3_ENDPOINT is required")
	}
	if c.AccessKey == "" {
		return errors.New("WEEKBOARD_S3_ACCESS_KEY is required")
	}
	if c.SecretKey == "" {
		return errors.New("WEEKBOARD_S3_SECRET_KEY is required")
	}
	if c.Bucket == "" {
		return errors.New("WEEKBOARD_S3_BUCKET is required")
	}
	return nil
}
