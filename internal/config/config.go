// Package config loads application configuration: the statutory rate table,
// the hosted model connection, assessment storage, the HTTP server, and
// logging. Everything has a default so the CLI runs with no config file;
// a YAML file and environment variables override.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/tdurojaiye/taxadvisor/internal/tax"
)

// Config holds all application configuration.
type Config struct {
	Rates    RatesConfig    `mapstructure:"rates"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// RatesConfig is the statutory rate table as configured. Rates are fractions
// (0.30 for 30%), amounts are naira. Conversion to exact decimals happens in
// Table.
type RatesConfig struct {
	CITBands                 []BandConfig `mapstructure:"cit_bands"`
	TETRate                  float64      `mapstructure:"tet_rate"`
	VATRate                  float64      `mapstructure:"vat_rate"`
	VATRegistrationThreshold float64      `mapstructure:"vat_registration_threshold"`
	Tolerance                float64      `mapstructure:"tolerance"`
}

// BandConfig is one configured CIT turnover band. UpTo of zero marks the
// open-ended top band.
type BandConfig struct {
	Name string  `mapstructure:"name"`
	UpTo float64 `mapstructure:"up_to"`
	Rate float64 `mapstructure:"rate"`
}

// OpenAIConfig holds the hosted model connection. BaseURL may point at any
// OpenAI-compatible gateway.
type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// DatabaseConfig holds the assessment history store configuration.
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// ServerConfig holds HTTP server configuration for serve mode.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// LoggerConfig holds logger configuration.
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load reads configuration from an optional YAML file and the environment.
// A .env file in the working directory is loaded first so API keys can live
// there. When path is empty, a config.yaml next to the binary or under
// configs/ is used if present; a missing file is not an error. An explicitly
// given path must exist.
func Load(path string) (*Config, error) {
	// Best effort; most setups export the key directly.
	_ = gotenv.Load()

	v := viper.New()
	setDefaults(v)
	bindEnvVars(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults installs the Finance Act statutory rates and sane runtime
// defaults so the tools work out of the box.
func setDefaults(v *viper.Viper) {
	// Statutory rate table: small companies pay no CIT, medium 20%,
	// large 30%; TET 3%; VAT 7.5% with a 25M registration threshold.
	v.SetDefault("rates.cit_bands", []map[string]any{
		{"name": "small", "up_to": 25_000_000, "rate": 0.0},
		{"name": "medium", "up_to": 100_000_000, "rate": 0.20},
		{"name": "large", "up_to": 0, "rate": 0.30},
	})
	v.SetDefault("rates.tet_rate", 0.03)
	v.SetDefault("rates.vat_rate", 0.075)
	v.SetDefault("rates.vat_registration_threshold", 25_000_000)
	v.SetDefault("rates.tolerance", 0.01)

	// OpenAI defaults
	v.SetDefault("openai.model", "gpt-4o")
	v.SetDefault("openai.temperature", 0.3)
	v.SetDefault("openai.max_tokens", 2048)
	v.SetDefault("openai.timeout", 60*time.Second)

	// Database defaults
	v.SetDefault("database.path", "data/taxadvisor.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	// Logger defaults: console on stderr so reports own stdout.
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stderr")
	v.SetDefault("logger.format", "console")
}

// bindEnvVars binds environment variables to configuration keys. Credentials
// never belong in the YAML file.
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("openai.base_url", "OPENAI_BASE_URL")
	_ = v.BindEnv("openai.model", "OPENAI_MODEL")
	_ = v.BindEnv("database.path", "TAXADVISOR_DB_PATH")
	_ = v.BindEnv("logger.level", "TAXADVISOR_LOG_LEVEL")
}

// Validate checks the configuration. The OpenAI key is deliberately not
// required here: plain audits run fully offline, and the advisor client
// demands the key itself when an advisory operation is actually used.
func (c *Config) Validate() error {
	if _, err := c.Rates.Table(); err != nil {
		return err
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.OpenAI.Timeout <= 0 {
		return fmt.Errorf("openai.timeout must be positive")
	}
	return nil
}

// Table converts the configured rates into the engine's rate table,
// validating them the way the engine will.
func (rc RatesConfig) Table() (tax.RateTable, error) {
	table := tax.RateTable{
		TETRate:                  decimal.NewFromFloat(rc.TETRate),
		VATRate:                  decimal.NewFromFloat(rc.VATRate),
		VATRegistrationThreshold: decimal.NewFromFloat(rc.VATRegistrationThreshold),
		Tolerance:                decimal.NewFromFloat(rc.Tolerance),
	}
	for _, b := range rc.CITBands {
		table.CITBands = append(table.CITBands, tax.Band{
			Name: b.Name,
			UpTo: decimal.NewFromFloat(b.UpTo),
			Rate: decimal.NewFromFloat(b.Rate),
		})
	}
	if err := table.Validate(); err != nil {
		return tax.RateTable{}, err
	}
	return table, nil
}
