package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/medgrid/resqroute/internal/core/domain"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig      `mapstructure:"server"`
	Database   DatabaseConfig    `mapstructure:"database"`
	NATS       NATSConfig        `mapstructure:"nats"`
	Valkey     ValkeyConfig      `mapstructure:"valkey"`
	Telemetry  TelemetryConfig   `mapstructure:"telemetry"`
	Engine     EngineConfig      `mapstructure:"engine"`
	Sampler    SamplerConfig     `mapstructure:"sampler"`
	City       CityConfig        `mapstructure:"city"`
	Facilities []domain.Facility `mapstructure:"facilities"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// EngineConfig tunes the estimation engine.
type EngineConfig struct {
	BaseSpeedKmh     float64 `mapstructure:"base_speed_kmh"`    // free-flow cruising speed
	ComputeLatencyMs int     `mapstructure:"compute_latency_ms"` // simulated remote-computation delay
	Candidates       int     `mapstructure:"candidates"`         // facilities considered per dispatch
}

// SamplerConfig tunes the recurring traffic sampler.
type SamplerConfig struct {
	IntervalSec int           `mapstructure:"interval_sec"`
	Zones       []TrafficZone `mapstructure:"zones"`
}

// TrafficZone is a named sampling location.
type TrafficZone struct {
	Name string  `mapstructure:"name"`
	Lat  float64 `mapstructure:"lat"`
	Lon  float64 `mapstructure:"lon"`
}

// CityConfig bounds synthetic emergencies in the simulator.
type CityConfig struct {
	Name   string        `mapstructure:"name"`
	Bounds domain.Bounds `mapstructure:"bounds"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "resqroute")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "resqroute")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("engine.base_speed_kmh", 40.0)
	v.SetDefault("engine.compute_latency_ms", 150)
	v.SetDefault("engine.candidates", 3)
	v.SetDefault("sampler.interval_sec", 30)
	v.SetDefault("city.name", "Bengaluru")
	v.SetDefault("city.bounds.north", 13.1986)
	v.SetDefault("city.bounds.south", 12.7340)
	v.SetDefault("city.bounds.east", 77.8431)
	v.SetDefault("city.bounds.west", 77.3910)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: RESQROUTE_DATABASE_HOST -> database.host
	v.SetEnvPrefix("RESQROUTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.Facilities) == 0 {
		cfg.Facilities = DefaultFacilities()
	}
	if len(cfg.Sampler.Zones) == 0 {
		cfg.Sampler.Zones = DefaultZones()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Engine.BaseSpeedKmh <= 0 {
		errs = append(errs, "engine.base_speed_kmh must be positive")
	}
	if c.Engine.Candidates <= 0 {
		errs = append(errs, "engine.candidates must be positive")
	}
	if c.Sampler.IntervalSec <= 0 {
		errs = append(errs, "sampler.interval_sec must be positive")
	}
	for i, f := range c.Facilities {
		if !f.Location.InRange() {
			errs = append(errs, fmt.Sprintf("facilities[%d] (%s): location out of range", i, f.Name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// DefaultFacilities returns the built-in Bengaluru hospital catalog, used
// when no facilities are configured.
func DefaultFacilities() []domain.Facility {
	return []domain.Facility{
		{
			ID: "H001", Name: "Manipal Hospital Whitefield",
			Location: domain.GeoPoint{Lat: 12.9698, Lon: 77.7500},
			Capacity: 200, Specialties: []string{"cardiology", "neurology", "trauma"},
			EmergencyServices: true, TraumaCenter: true, WaitMinutes: 20,
		},
		{
			ID: "H002", Name: "Apollo Hospital Bannerghatta",
			Location: domain.GeoPoint{Lat: 12.9056, Lon: 77.5936},
			Capacity: 300, Specialties: []string{"cardiac surgery", "oncology", "neurosurgery"},
			EmergencyServices: true, TraumaCenter: true, WaitMinutes: 15,
		},
		{
			ID: "H003", Name: "Fortis Hospital Cunningham Road",
			Location: domain.GeoPoint{Lat: 12.9926, Lon: 77.5985},
			Capacity: 150, Specialties: []string{"emergency medicine", "pediatrics"},
			EmergencyServices: true, TraumaCenter: false, WaitMinutes: 30,
		},
		{
			ID: "H004", Name: "Narayana Health City",
			Location: domain.GeoPoint{Lat: 12.8539, Lon: 77.6648},
			Capacity: 500, Specialties: []string{"cardiac surgery", "neurosurgery", "trauma", "pediatrics"},
			EmergencyServices: true, TraumaCenter: true, WaitMinutes: 10,
		},
		{
			ID: "H005", Name: "St. Johns Medical College Hospital",
			Location: domain.GeoPoint{Lat: 12.9279, Lon: 77.6271},
			Capacity: 250, Specialties: []string{"general medicine", "surgery", "pediatrics"},
			EmergencyServices: true, TraumaCenter: false, WaitMinutes: 25,
		},
	}
}

// DefaultZones returns the built-in traffic sampling zones.
func DefaultZones() []TrafficZone {
	return []TrafficZone{
		{Name: "cbd", Lat: 12.9716, Lon: 77.5946},
		{Name: "whitefield", Lat: 12.9698, Lon: 77.7500},
		{Name: "electronic-city", Lat: 12.8399, Lon: 77.6770},
		{Name: "hebbal", Lat: 13.0358, Lon: 77.5970},
	}
}
