// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/atlas-express/service-delivery/internal/apperr"
	"github.com/spf13/viper"
)

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN returns the keyword/value connection string used by GORM.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// URL returns the postgres:// connection URL used by golang-migrate.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// ServiceConfig holds all configuration for the delivery service.
type ServiceConfig struct {
	Port   string
	AppEnv string
	DB     DatabaseConfig

	JWTSecret string

	// ORSAPIKey is optional; when empty the OpenRouteService routing tier
	// is skipped entirely.
	ORSAPIKey        string
	OSRMBaseURL      string
	NominatimBaseURL string

	// KafkaBrokers is optional; when empty event publishing is disabled.
	KafkaBrokers []string
}

// Load reads configuration from environment variables.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")

	cfg := &ServiceConfig{
		Port:   v.GetString("PORT"),
		AppEnv: v.GetString("APP_ENV"),
		DB: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		JWTSecret:        v.GetString("JWT_SECRET"),
		ORSAPIKey:        v.GetString("OPENROUTESERVICE_API_KEY"),
		OSRMBaseURL:      v.GetString("OSRM_BASE_URL"),
		NominatimBaseURL: v.GetString("NOMINATIM_BASE_URL"),
	}

	if brokers := v.GetString("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	for _, required := range []struct{ name, value string }{
		{"DB_USER", cfg.DB.User},
		{"DB_PASSWORD", cfg.DB.Password},
		{"DB_NAME", cfg.DB.Name},
		{"JWT_SECRET", cfg.JWTSecret},
	} {
		if required.value == "" {
			return nil, apperr.Config(fmt.Sprintf("environment variable %s is required", required.name))
		}
	}

	return cfg, nil
}
