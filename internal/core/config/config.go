package config

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"geofence-tracker/internal/features/geofence/domain"

	"github.com/spf13/viper"
)

// AppConfig holds the configuration for the application.
// Tags used:
// - mapstructure: env key read by viper
// - default: value used when the key is missing
// - required: if "true", loading fails when the value is zero
type AppConfig struct {
	// Environment specifies the runtime environment (e.g., development, production).
	Environment string `mapstructure:"APP_ENV" default:"development"`
	// LogLevel defines the logging verbosity (e.g., debug, info, error).
	LogLevel string `mapstructure:"LOG_LEVEL" default:"info"`
	// ServerPort is the port where the server will listen.
	ServerPort int `mapstructure:"SERVER_PORT" default:"8080"`

	Geofence   GeofenceConfig   `mapstructure:",squash"`
	Lifecycle  LifecycleConfig  `mapstructure:",squash"`
	Redis      RedisConfig      `mapstructure:",squash"`
	Database   DatabaseConfig   `mapstructure:",squash"`
	Firebase   FirebaseConfig   `mapstructure:",squash"`
	Booking    BookingConfig    `mapstructure:",squash"`
	RateLimits RateLimitsConfig `mapstructure:",squash"`
}

// GeofenceConfig holds the zone radii in meters.
type GeofenceConfig struct {
	ArrivalRadius     float64 `mapstructure:"GEOFENCE_ARRIVAL_RADIUS_M" default:"200"`
	ParkingRadius     float64 `mapstructure:"GEOFENCE_PARKING_RADIUS_M" default:"300"`
	DepartureRadius   float64 `mapstructure:"GEOFENCE_DEPARTURE_RADIUS_M" default:"500"`
	ExitRadius        float64 `mapstructure:"GEOFENCE_EXIT_RADIUS_M" default:"800"`
	ApproachingRadius float64 `mapstructure:"GEOFENCE_APPROACHING_RADIUS_M" default:"1000"`
}

// Thresholds converts the radii for the classifier.
func (g GeofenceConfig) Thresholds() domain.Thresholds {
	return domain.Thresholds{
		ArrivalRadius:     g.ArrivalRadius,
		ParkingRadius:     g.ParkingRadius,
		DepartureRadius:   g.DepartureRadius,
		ExitRadius:        g.ExitRadius,
		ApproachingRadius: g.ApproachingRadius,
	}
}

// LifecycleConfig controls session expiry.
type LifecycleConfig struct {
	// SessionMaxAge is how long a session may live without being ended.
	SessionMaxAge time.Duration `mapstructure:"SESSION_MAX_AGE" default:"24h"`
	// ReaperSchedule is the cron schedule of the expiry sweep.
	ReaperSchedule string `mapstructure:"REAPER_SCHEDULE" default:"@every 10m"`
}

// RedisConfig holds the live-status cache connection.
type RedisConfig struct {
	URL string `mapstructure:"REDIS_URL" default:"redis://localhost:6379/0"`
	// StatusTTL is how long a published status survives without a new ping.
	StatusTTL time.Duration `mapstructure:"STATUS_TTL" default:"1h"`
}

// DatabaseConfig holds the analytics database. An empty URL logs analytics instead.
type DatabaseConfig struct {
	URL string `mapstructure:"DATABASE_URL"`
}

// FirebaseConfig holds push notification credentials. An empty project logs
// notifications instead of sending them.
type FirebaseConfig struct {
	ProjectID       string `mapstructure:"FIREBASE_PROJECT_ID"`
	CredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`
}

// BookingConfig points at the booking service that performs checkout.
type BookingConfig struct {
	// ServiceURL is the base URL of the booking service.
	ServiceURL string `mapstructure:"BOOKING_SERVICE_URL" required:"true"`
	// Timeout bounds each checkout call.
	Timeout time.Duration `mapstructure:"BOOKING_SERVICE_TIMEOUT" default:"5s"`
}

// RateLimitsConfig throttles location pings per booking.
type RateLimitsConfig struct {
	PingsPerSecond float64 `mapstructure:"LOCATION_PINGS_PER_SECOND" default:"2"`
	PingBurst      int     `mapstructure:"LOCATION_PING_BURST" default:"5"`
}

// Load loads configuration from .env files and environment variables.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.AutomaticEnv()

	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config AppConfig

	if err := processTags(v, &config); err != nil {
		return nil, err
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := validateRequired(&config); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// validate checks cross-field rules the tags cannot express.
func (c *AppConfig) validate() error {
	if err := c.Geofence.Thresholds().Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Lifecycle.SessionMaxAge <= 0 {
		return fmt.Errorf("invalid configuration: SESSION_MAX_AGE must be positive")
	}
	if c.RateLimits.PingsPerSecond <= 0 || c.RateLimits.PingBurst <= 0 {
		return fmt.Errorf("invalid configuration: location ping limits must be positive")
	}
	return nil
}

// processTags walks the struct and registers env bindings and defaults in Viper.
func processTags(v *viper.Viper, config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := processTags(v, val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		key := field.Tag.Get("mapstructure")
		if key == "" {
			continue
		}

		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("binding %s: %w", key, err)
		}

		if def := field.Tag.Get("default"); def != "" {
			v.SetDefault(key, def)
		}
	}
	return nil
}

// validateRequired checks if fields marked as required have non-zero values.
func validateRequired(config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := validateRequired(val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		if field.Tag.Get("required") == "true" && val.Field(i).IsZero() {
			return fmt.Errorf("missing required configuration: %s", field.Tag.Get("mapstructure"))
		}
	}
	return nil
}
