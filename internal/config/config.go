package config

import (
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// SecretString keeps credentials out of logs and formatted output.
type SecretString string

func (s SecretString) String() string { return "***REDACTED***" }

// Unmask returns the raw secret.
func (s SecretString) Unmask() string { return string(s) }

type AppConfig struct {
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json console"`

	// Port for the ops HTTP API; "off" disables it.
	Port string `envconfig:"PORT" default:"8080" validate:"required"`

	Discord  DiscordConfig
	Forecast ForecastConfig
	Schedule ScheduleConfig
	Caption  CaptionConfig
}

type DiscordConfig struct {
	BotToken      SecretString `envconfig:"DISCORD_BOT_TOKEN" validate:"required"`
	ChannelID     string       `envconfig:"DISCORD_CHANNEL_ID" validate:"required,numeric"`
	CommandPrefix string       `envconfig:"DISCORD_COMMAND_PREFIX" default:"!" validate:"required,max=3"`
}

type ForecastConfig struct {
	// Latitude and Longitude are pointers so "unset" can be told apart from 0.
	Latitude  *float64 `envconfig:"LATITUDE" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `envconfig:"LONGITUDE" validate:"omitempty,gte=-180,lte=180"`

	// Used only when coordinates are unset.
	City           string       `envconfig:"LOCATION_CITY"`
	Country        string       `envconfig:"LOCATION_COUNTRY"`
	GeocoderAPIKey SecretString `envconfig:"GEOCODER_API_KEY"`

	Timezone string `envconfig:"FORECAST_TIMEZONE" default:"Europe/Berlin" validate:"required,timezone"`
	Days     int    `envconfig:"FORECAST_DAYS" default:"1" validate:"min=1,max=16"`
	BaseURL  string `envconfig:"OPENMETEO_BASE_URL" default:"https://api.open-meteo.com" validate:"required,url"`

	HTTPTimeout    time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s" validate:"gt=0"`
	MaxRetries     int           `envconfig:"PROVIDER_MAX_RETRIES" default:"5" validate:"min=0,max=10"`
	BackoffInitial time.Duration `envconfig:"PROVIDER_BACKOFF_INITIAL" default:"200ms" validate:"gt=0"`
	BackoffMax     time.Duration `envconfig:"PROVIDER_BACKOFF_MAX" default:"5s"`
	CacheTTL       time.Duration `envconfig:"FORECAST_CACHE_TTL" default:"1h"`
}

type ScheduleConfig struct {
	Hour     int    `envconfig:"SEND_HOUR" default:"19" validate:"min=0,max=23"`
	Minute   int    `envconfig:"SEND_MINUTE" default:"0" validate:"min=0,max=59"`
	Second   int    `envconfig:"SEND_SECOND" default:"0" validate:"min=0,max=59"`
	Timezone string `envconfig:"SCHEDULE_TIMEZONE" default:"UTC" validate:"required,timezone"`

	// ManualCooldown is the minimum spacing of manual fires.
	ManualCooldown time.Duration `envconfig:"MANUAL_COOLDOWN" default:"30s"`
}

type CaptionConfig struct {
	HourOffset int    `envconfig:"CAPTION_HOUR_OFFSET" default:"1" validate:"min=-23,max=23"`
	Timezone   string `envconfig:"CAPTION_TIMEZONE" validate:"omitempty,timezone"`
}

// Defaults used when neither coordinates nor a geocodable city are configured.
const (
	DefaultLatitude  = 48.112
	DefaultLongitude = -1.6743
)

var validate = validator.New()

// Load reads configuration from the environment (and a .env file when
// present), applies defaults and validates the result.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	return process()
}

func process() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if (cfg.Forecast.Latitude == nil) != (cfg.Forecast.Longitude == nil) {
		return nil, fmt.Errorf("invalid configuration: LATITUDE and LONGITUDE must be set together")
	}
	return cfg, nil
}

// NeedsGeocoding reports whether coordinates must be resolved from a city.
func (c ForecastConfig) NeedsGeocoding() bool {
	return c.Latitude == nil && c.City != "" && c.GeocoderAPIKey != ""
}

// Coordinates returns the configured coordinates, or the defaults when unset.
func (c ForecastConfig) Coordinates() (lat, lon float64) {
	if c.Latitude == nil || c.Longitude == nil {
		return DefaultLatitude, DefaultLongitude
	}
	return *c.Latitude, *c.Longitude
}

// Location loads the scheduler reference zone.
func (c ScheduleConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Location loads the caption zone; nil means the clock's own zone is used.
func (c CaptionConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return nil, nil
	}
	return time.LoadLocation(c.Timezone)
}

// HTTPEnabled reports whether the ops HTTP API should be started.
func (c AppConfig) HTTPEnabled() bool {
	return c.Port != "off"
}
