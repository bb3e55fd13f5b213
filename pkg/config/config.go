package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App     AppConfig
	Dataset DatasetConfig
	Server  ServerConfig
}

var validate = validator.New()

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"VENTAS_APP_ENV" required:"true" validate:"oneof=development staging production"`
	Port         string `envconfig:"VENTAS_APP_PORT" required:"true" validate:"numeric"`
	LogLevel     string `envconfig:"VENTAS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VENTAS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DatasetConfig struct {
	// Path points at the sales CSV the service loads on boot and on reload.
	Path string `envconfig:"VENTAS_DATASET_PATH" required:"true"`
	// DateFormat is a Go reference layout. The loader accepts exactly this
	// layout; auto-detection is deliberately not supported.
	DateFormat string `envconfig:"VENTAS_DATASET_DATE_FORMAT" default:"2006-01-02"`
}

type ServerConfig struct {
	MarginLimitDefault int `envconfig:"VENTAS_MARGIN_LIMIT_DEFAULT" default:"10" validate:"gte=1"`
	MarginLimitMax     int `envconfig:"VENTAS_MARGIN_LIMIT_MAX" default:"500" validate:"gtefield=MarginLimitDefault"`
}
