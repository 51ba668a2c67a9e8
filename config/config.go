// Ininicializing common application configuration
package config

import (
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Booking  BookingConfig  `mapstructure:"booking"`
	Device   DeviceConfig   `mapstructure:"device"`
	Worker   WorkerConfig   `mapstructure:"worker"`
}

type ServerConfig struct {
	AppVersion   string `json:"appVersion"`
	Host         string `json:"host" validate:"required"`
	Port         string `json:"port" validate:"required"`
	Timeout      time.Duration
	Idle_timeout time.Duration
	Env          string `json:"environment"`
	Mode         string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// BookingConfig carries fallback policy for tenants that have not set
// their own. Per-tenant values from the tenants table win.
type BookingConfig struct {
	MinBookingMinutes       int           `mapstructure:"min_booking_minutes"`
	MaxBookingHours         int           `mapstructure:"max_booking_hours"`
	GraceWindowMinutes      int           `mapstructure:"grace_window_minutes"`
	GracePeriodMinutes      int           `mapstructure:"grace_period_minutes"`
	FreeCancellationMinutes int           `mapstructure:"free_cancellation_minutes"`
	NoShowPenaltyPercent    float64       `mapstructure:"no_show_penalty_percent"`
	AccessCodeLength        int           `mapstructure:"access_code_length"`
	HoldTTL                 time.Duration `mapstructure:"hold_ttl"`
}

type DeviceConfig struct {
	BridgeURL      string        `mapstructure:"bridge_url"`
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
}

type WorkerConfig struct {
	SweepInterval     time.Duration `mapstructure:"sweep_interval"`
	TelemetryInterval time.Duration `mapstructure:"telemetry_interval"`
	MaxConcurrency    int           `mapstructure:"max_concurrency"`
	BatchSize         int           `mapstructure:"batch_size"`
}

type RedisConfig struct {
	Host     string `json:"host" validate:"required"`
	Port     int    `json:"port" validate:"required"`
	Password string `json:"password"`
	DB       int    `json:"db"`

	MaxRetries   int
	PoolSize     int
	MinIdleConns int
	MaxIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration
}

func LoadConfig() (*viper.Viper, error) {

	viperInstance := viper.New()

	viperInstance.AddConfigPath("./config")
	viperInstance.SetConfigName("config")
	viperInstance.SetConfigType("yaml")

	setDefaults(viperInstance)

	err := viperInstance.ReadInConfig()

	if err != nil {
		return nil, err
	}
	return viperInstance, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {

	var c Config

	err := v.Unmarshal(&c)
	if err != nil {
		log.Fatalf("unable to decode config into struct, %v", err)
		return nil, err
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")

	// Booking policy defaults
	v.SetDefault("booking.min_booking_minutes", 30)
	v.SetDefault("booking.max_booking_hours", 12)
	v.SetDefault("booking.grace_window_minutes", 10)
	v.SetDefault("booking.grace_period_minutes", 15)
	v.SetDefault("booking.free_cancellation_minutes", 1440)
	v.SetDefault("booking.no_show_penalty_percent", 50)
	v.SetDefault("booking.access_code_length", 6)
	v.SetDefault("booking.hold_ttl", 2*time.Minute)

	// Device defaults
	v.SetDefault("device.command_timeout", 3*time.Second)

	// Worker defaults
	v.SetDefault("worker.sweep_interval", time.Minute)
	v.SetDefault("worker.telemetry_interval", time.Minute)
	v.SetDefault("worker.max_concurrency", 8)
	v.SetDefault("worker.batch_size", 100)
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
