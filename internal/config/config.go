package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Log        LogConfig
	Maps       MapsConfig
	Risk       RiskConfig
	Ingest     IngestConfig
	Navigation NavigationConfig
	Traffic    TrafficConfig
	Worker     WorkerConfig
	Metrics    MetricsConfig
}

type ServerConfig struct {
	Host string
	Port int
	Env  string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type LogConfig struct {
	Level string
}

// MapsConfig selects the primary and fallback route providers and carries
// their credentials and retry/quota settings.
type MapsConfig struct {
	Provider         string
	FallbackProvider string
	MapboxToken      string
	MapboxBaseURL    string
	HereAPIKey       string
	HereBaseURL      string
	RequestTimeout   time.Duration
	MaxRetries       int
	QuotaLimit       int
	QuotaWindow      time.Duration
}

type RiskConfig struct {
	FrequencyWeight  float64
	RecencyWeight    float64
	SeverityWeight   float64
	ConfidenceWeight float64
	LookbackDays     int
	RecencyHalfLife  time.Duration
}

type IngestConfig struct {
	MaxReporterDistance float64 // meters
	RateLimitPerHour    int
	CollaborativeExpiry time.Duration
	CorroborationRadius float64 // meters
	CorroborationWindow time.Duration
	RecomputeDebounce   time.Duration
}

type NavigationConfig struct {
	DeviationThreshold   float64 // meters
	TrafficCheckInterval time.Duration
	TrafficDriftPercent  float64
	ManeuverProximity    float64 // meters
}

type TrafficConfig struct {
	SegmentLength float64 // meters
}

type WorkerConfig struct {
	Enabled            bool
	ConsumerGroup      string
	MaxRetries         int
	SweepInterval      time.Duration
	ExpirationInterval time.Duration
}

type MetricsConfig struct {
	Enabled bool
	Port    int
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("API_HOST"),
			Port: viper.GetInt("API_PORT"),
			Env:  viper.GetString("API_ENV"),
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			DBName:          viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxConns:        viper.GetInt("DB_MAX_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: time.Duration(viper.GetInt("DB_CONN_MAX_LIFETIME")) * time.Second,
			ConnMaxIdleTime: time.Duration(viper.GetInt("DB_CONN_MAX_IDLE_TIME")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetInt("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Maps: MapsConfig{
			Provider:         viper.GetString("MAPS_PROVIDER"),
			FallbackProvider: viper.GetString("MAPS_FALLBACK_PROVIDER"),
			MapboxToken:      viper.GetString("MAPBOX_ACCESS_TOKEN"),
			MapboxBaseURL:    viper.GetString("MAPBOX_BASE_URL"),
			HereAPIKey:       viper.GetString("HERE_API_KEY"),
			HereBaseURL:      viper.GetString("HERE_BASE_URL"),
			RequestTimeout:   time.Duration(viper.GetInt("MAPS_REQUEST_TIMEOUT")) * time.Second,
			MaxRetries:       viper.GetInt("MAPS_MAX_RETRIES"),
			QuotaLimit:       viper.GetInt("MAPS_QUOTA_LIMIT"),
			QuotaWindow:      time.Duration(viper.GetInt("MAPS_QUOTA_WINDOW")) * time.Second,
		},
		Risk: RiskConfig{
			FrequencyWeight:  viper.GetFloat64("RISK_FREQUENCY_WEIGHT"),
			RecencyWeight:    viper.GetFloat64("RISK_RECENCY_WEIGHT"),
			SeverityWeight:   viper.GetFloat64("RISK_SEVERITY_WEIGHT"),
			ConfidenceWeight: viper.GetFloat64("RISK_CONFIDENCE_WEIGHT"),
			LookbackDays:     viper.GetInt("RISK_LOOKBACK_DAYS"),
			RecencyHalfLife:  time.Duration(viper.GetInt("RISK_RECENCY_HALF_LIFE_HOURS")) * time.Hour,
		},
		Ingest: IngestConfig{
			MaxReporterDistance: viper.GetFloat64("INGEST_MAX_REPORTER_DISTANCE"),
			RateLimitPerHour:    viper.GetInt("INGEST_RATE_LIMIT_PER_HOUR"),
			CollaborativeExpiry: time.Duration(viper.GetInt("INGEST_COLLABORATIVE_EXPIRY_DAYS")) * 24 * time.Hour,
			CorroborationRadius: viper.GetFloat64("INGEST_CORROBORATION_RADIUS"),
			CorroborationWindow: time.Duration(viper.GetInt("INGEST_CORROBORATION_WINDOW_MINUTES")) * time.Minute,
			RecomputeDebounce:   time.Duration(viper.GetInt("INGEST_RECOMPUTE_DEBOUNCE_SECONDS")) * time.Second,
		},
		Navigation: NavigationConfig{
			DeviationThreshold:   viper.GetFloat64("NAV_DEVIATION_THRESHOLD"),
			TrafficCheckInterval: time.Duration(viper.GetInt("NAV_TRAFFIC_CHECK_INTERVAL")) * time.Second,
			TrafficDriftPercent:  viper.GetFloat64("NAV_TRAFFIC_DRIFT_PERCENT"),
			ManeuverProximity:    viper.GetFloat64("NAV_MANEUVER_PROXIMITY"),
		},
		Traffic: TrafficConfig{
			SegmentLength: viper.GetFloat64("TRAFFIC_SEGMENT_LENGTH"),
		},
		Worker: WorkerConfig{
			Enabled:            viper.GetBool("WORKER_ENABLED"),
			ConsumerGroup:      viper.GetString("WORKER_CONSUMER_GROUP"),
			MaxRetries:         viper.GetInt("WORKER_MAX_RETRIES"),
			SweepInterval:      time.Duration(viper.GetInt("WORKER_SWEEP_INTERVAL_MINUTES")) * time.Minute,
			ExpirationInterval: time.Duration(viper.GetInt("WORKER_EXPIRATION_INTERVAL_MINUTES")) * time.Minute,
		},
		Metrics: MetricsConfig{
			Enabled: viper.GetBool("METRICS_ENABLED"),
			Port:    viper.GetInt("METRICS_PORT"),
		},
	}

	applyDefaults(cfg)

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Maps.Provider == "" {
		cfg.Maps.Provider = "mapbox"
	}
	if cfg.Maps.FallbackProvider == "" {
		cfg.Maps.FallbackProvider = "here"
	}
	if cfg.Maps.MapboxBaseURL == "" {
		cfg.Maps.MapboxBaseURL = "https://api.mapbox.com"
	}
	if cfg.Maps.HereBaseURL == "" {
		cfg.Maps.HereBaseURL = "https://router.hereapi.com"
	}
	if cfg.Maps.RequestTimeout == 0 {
		cfg.Maps.RequestTimeout = 10 * time.Second
	}
	if cfg.Maps.MaxRetries == 0 {
		cfg.Maps.MaxRetries = 3
	}
	if cfg.Maps.QuotaLimit == 0 {
		cfg.Maps.QuotaLimit = 10000
	}
	if cfg.Maps.QuotaWindow == 0 {
		cfg.Maps.QuotaWindow = time.Hour
	}

	if cfg.Risk.FrequencyWeight == 0 {
		cfg.Risk.FrequencyWeight = 0.30
	}
	if cfg.Risk.RecencyWeight == 0 {
		cfg.Risk.RecencyWeight = 0.25
	}
	if cfg.Risk.SeverityWeight == 0 {
		cfg.Risk.SeverityWeight = 0.30
	}
	if cfg.Risk.ConfidenceWeight == 0 {
		cfg.Risk.ConfidenceWeight = 0.15
	}
	if cfg.Risk.LookbackDays == 0 {
		cfg.Risk.LookbackDays = 30
	}
	if cfg.Risk.RecencyHalfLife == 0 {
		cfg.Risk.RecencyHalfLife = 7 * 24 * time.Hour
	}

	if cfg.Ingest.MaxReporterDistance == 0 {
		cfg.Ingest.MaxReporterDistance = 100
	}
	if cfg.Ingest.RateLimitPerHour == 0 {
		cfg.Ingest.RateLimitPerHour = 5
	}
	if cfg.Ingest.CollaborativeExpiry == 0 {
		cfg.Ingest.CollaborativeExpiry = 7 * 24 * time.Hour
	}
	if cfg.Ingest.CorroborationRadius == 0 {
		cfg.Ingest.CorroborationRadius = 500
	}
	if cfg.Ingest.CorroborationWindow == 0 {
		cfg.Ingest.CorroborationWindow = 30 * time.Minute
	}
	if cfg.Ingest.RecomputeDebounce == 0 {
		cfg.Ingest.RecomputeDebounce = 30 * time.Second
	}

	if cfg.Navigation.DeviationThreshold == 0 {
		cfg.Navigation.DeviationThreshold = 30
	}
	if cfg.Navigation.TrafficCheckInterval == 0 {
		cfg.Navigation.TrafficCheckInterval = 60 * time.Second
	}
	if cfg.Navigation.TrafficDriftPercent == 0 {
		cfg.Navigation.TrafficDriftPercent = 10
	}
	if cfg.Navigation.ManeuverProximity == 0 {
		cfg.Navigation.ManeuverProximity = 30
	}

	if cfg.Traffic.SegmentLength == 0 {
		cfg.Traffic.SegmentLength = 5000
	}

	if cfg.Worker.ConsumerGroup == "" {
		cfg.Worker.ConsumerGroup = "risk-recompute-workers"
	}
	if cfg.Worker.MaxRetries == 0 {
		cfg.Worker.MaxRetries = 3
	}
	if cfg.Worker.SweepInterval == 0 {
		cfg.Worker.SweepInterval = 6 * time.Hour
	}
	if cfg.Worker.ExpirationInterval == 0 {
		cfg.Worker.ExpirationInterval = time.Hour
	}

	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9091
	}
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
