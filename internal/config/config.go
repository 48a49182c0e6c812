package config

import (
	"fmt"
	"time"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	CommonGroundURL    string `env:"COMMONGROUND_URL,required"`
	CommonGroundAPIKey string `env:"COMMONGROUND_API_KEY,required"`
	GatewayURL         string `env:"GATEWAY_URL" envDefault:"https://api.mollie.com"`
	GatewayAPIKey      string `env:"GATEWAY_API_KEY,required"`
	GatewayRedirectURL string `env:"GATEWAY_REDIRECT_URL" envDefault:""`

	JWTSecret string `env:"JWT_SECRET,required"`
	Port      int    `env:"PORT" envDefault:"8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv    string `env:"APP_ENV" envDefault:"production"`

	// TaxRatePct is the jurisdiction's tax-inclusive markup removed from
	// gross gateway payments before crediting, e.g. 21 for 21% BTW.
	TaxRatePct      int64  `env:"TAX_RATE_PCT" envDefault:"21"`
	DefaultCurrency string `env:"DEFAULT_CURRENCY" envDefault:"EUR"`

	ResourceTimeout time.Duration `env:"RESOURCE_TIMEOUT" envDefault:"3s"`
	GatewayTimeout  time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"2s"`
	GatewayMaxRetry time.Duration `env:"GATEWAY_MAX_RETRY" envDefault:"10s"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}
