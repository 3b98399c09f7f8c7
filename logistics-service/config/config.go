package config

import (
	"fmt"

	"github.com/director74/cargo_logistics/logistics-service/internal/entity"
	"github.com/director74/cargo_logistics/pkg/config"
	"github.com/director74/cargo_logistics/pkg/middleware"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config содержит конфигурацию сервиса логистики
type Config struct {
	HTTP     config.HTTPConfig
	Postgres config.PostgresConfig
	RabbitMQ config.RabbitMQConfig
	JWT      config.JWTConfig
	Services ServicesConfig
	Tariff   entity.Tariff
	Storage  StorageConfig
	Events   EventsConfig
	Internal *middleware.InternalAPIConfig
}

// ServicesConfig адреса внешних сервисов. Пустой адрес отключает интеграцию
type ServicesConfig struct {
	FleetURL  string
	GeoURL    string
	GeoAPIKey string
	TariffURL string
}

type StorageConfig struct {
	Driver string
}

// EventsConfig настройки публикации событий жизненного цикла
type EventsConfig struct {
	Exchange        string
	TrackingEnabled bool
}

func NewConfig() (*Config, error) {
	// Загружаем общую конфигурацию
	commonConfig := config.LoadCommonConfig("logistics", "8080")
	jwtConfig := config.LoadJWTConfig("logistics-service")
	internal := middleware.LoadInternalAPIConfig()

	defaults := entity.DefaultTariff()
	cfg := &Config{
		HTTP:     commonConfig.HTTP,
		Postgres: commonConfig.Postgres,
		RabbitMQ: commonConfig.RabbitMQ,
		JWT:      *jwtConfig,
		Services: ServicesConfig{
			FleetURL:  config.GetEnv("FLEET_SERVICE_URL", ""),
			GeoURL:    config.GetEnv("GEO_SERVICE_URL", ""),
			GeoAPIKey: config.GetEnv("GEO_API_KEY", ""),
			TariffURL: config.GetEnv("TARIFF_SERVICE_URL", ""),
		},
		Tariff: entity.Tariff{
			CostPerKm:       config.GetEnvAsFloat("TARIFF_COST_PER_KM", defaults.CostPerKm),
			CostPerTon:      config.GetEnvAsFloat("TARIFF_COST_PER_TON", defaults.CostPerTon),
			CostPerM3:       config.GetEnvAsFloat("TARIFF_COST_PER_M3", defaults.CostPerM3),
			CostPerDwellDay: config.GetEnvAsFloat("TARIFF_COST_PER_DWELL_DAY", defaults.CostPerDwellDay),
		},
		Storage: StorageConfig{
			Driver: config.GetEnv("STORAGE_DRIVER", StorageDriverPostgres),
		},
		Events: EventsConfig{
			Exchange:        config.GetEnv("EVENTS_EXCHANGE", "logistics_events"),
			TrackingEnabled: config.GetEnvAsBool("TRACKING_CONSUMER_ENABLED", true),
		},
		Internal: internal,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет значения, без которых сервис не может стартовать
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("неизвестный STORAGE_DRIVER %q, ожидается %s или %s", c.Storage.Driver, StorageDriverPostgres, StorageDriverMemory)
	}

	t := c.Tariff
	if t.CostPerKm < 0 || t.CostPerTon < 0 || t.CostPerM3 < 0 || t.CostPerDwellDay < 0 {
		return fmt.Errorf("ставки тарифа не могут быть отрицательными: %+v", t)
	}
	return nil
}
