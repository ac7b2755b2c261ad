package objectstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/runweave-labs/runweave-go/internal/platform/env"
)

type Config struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Region     string
	UseSSL     bool
	BucketLogs string
}

func ConfigFromEnv() (Config, error) {
	useSSL, err := env.Bool("RUNWEAVE_S3_USE_SSL", false)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Endpoint:   env.String("RUNWEAVE_S3_ENDPOINT", "localhost:9000"),
		AccessKey:  env.String("RUNWEAVE_S3_ACCESS_KEY", "runweave"),
		SecretKey:  env.String("RUNWEAVE_S3_SECRET_KEY", "runweaveminio"),
		Region:     env.String("RUNWEAVE_S3_REGION", "us-east-1"),
		UseSSL:     useSSL,
		BucketLogs: env.String("RUNWEAVE_S3_BUCKET_LOGS", "run-logs"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("endpoint is required")
	}
	if strings.TrimSpace(c.AccessKey) == "" {
		return errors.New("access key is required")
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return errors.New("secret key is required")
	}
	if strings.TrimSpace(c.Region) == "" {
		return errors.New("region is required")
	}
	if strings.TrimSpace(c.BucketLogs) == "" {
		return errors.New("logs bucket is required")
	}
	if strings.Contains(c.Endpoint, "://") {
		return fmt.Errorf("endpoint must not include scheme: %q", c.Endpoint)
	}
	return nil
}
