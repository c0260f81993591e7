package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	JWT       JWTConfig       `yaml:"jwt"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Cache     CacheConfig     `yaml:"cache"`
	Storage   StorageConfig   `yaml:"storage"`
	Worker    WorkerConfig    `yaml:"worker"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret             string `yaml:"secret"`
	Issuer             string `yaml:"issuer"`
	AccessExpireMins   int    `yaml:"access_expire_mins"`
	RefreshExpireHours int    `yaml:"refresh_expire_hours"`
}

// AccessTTL returns the access token lifetime
func (c JWTConfig) AccessTTL() time.Duration {
	return time.Duration(c.AccessExpireMins) * time.Minute
}

// RefreshTTL returns the refresh token lifetime
func (c JWTConfig) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshExpireHours) * time.Hour
}

type RateLimitConfig struct {
	LoginAttempts int `yaml:"login_attempts"`
	WindowSeconds int `yaml:"window_seconds"`
}

// Window returns the throttle window duration
func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

type CacheConfig struct {
	TTLMinutes int `yaml:"ttl_minutes"`
}

// TTL returns the cached-entry lifetime
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

type StorageConfig struct {
	BannerDir string `yaml:"banner_dir"`
}

type WorkerConfig struct {
	IntervalMinutes int `yaml:"interval_minutes"`
}

// Interval returns the maintenance worker tick interval
func (c WorkerConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// Load loads configuration from file and environment variables. A missing
// file is not an error: the config then comes from env overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	// Load from YAML file
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// no file, env + defaults only
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	// Override with environment variables if present
	cfg.loadFromEnv()
	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) loadFromEnv() {
	// Server
	if v := os.Getenv("FITTRACK_SERVER_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("FITTRACK_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("FITTRACK_SERVER_MODE"); v != "" {
		c.Server.Mode = v
	}

	// Database
	if v := os.Getenv("FITTRACK_DB_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("FITTRACK_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Database.Port = port
		}
	}
	if v := os.Getenv("FITTRACK_DB_USER"); v != "" {
		c.Database.User = v
	}
	if v := os.Getenv("FITTRACK_DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("FITTRACK_DB_NAME"); v != "" {
		c.Database.DBName = v
	}

	// Redis
	if v := os.Getenv("FITTRACK_REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("FITTRACK_REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Redis.Port = port
		}
	}
	if v := os.Getenv("FITTRACK_REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}

	// JWT
	if v := os.Getenv("FITTRACK_JWT_SECRET"); v != "" {
		c.JWT.Secret = v
	}
	if v := os.Getenv("FITTRACK_JWT_ACCESS_EXPIRE_MINS"); v != "" {
		if mins, err := strconv.Atoi(v); err == nil {
			c.JWT.AccessExpireMins = mins
		}
	}
	if v := os.Getenv("FITTRACK_JWT_REFRESH_EXPIRE_HOURS"); v != "" {
		if hours, err := strconv.Atoi(v); err == nil {
			c.JWT.RefreshExpireHours = hours
		}
	}
}

func (c *Config) applyDefaults() {
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "fittrack"
	}
	if c.JWT.AccessExpireMins <= 0 {
		c.JWT.AccessExpireMins = 15
	}
	if c.JWT.RefreshExpireHours <= 0 {
		c.JWT.RefreshExpireHours = 48
	}
	if c.RateLimit.LoginAttempts <= 0 {
		c.RateLimit.LoginAttempts = 5
	}
	if c.RateLimit.WindowSeconds <= 0 {
		c.RateLimit.WindowSeconds = 60
	}
	if c.Cache.TTLMinutes <= 0 {
		c.Cache.TTLMinutes = 60
	}
	if c.Storage.BannerDir == "" {
		c.Storage.BannerDir = "media"
	}
	if c.Worker.IntervalMinutes <= 0 {
		c.Worker.IntervalMinutes = 30
	}
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" port=" + strconv.Itoa(c.Port) +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.DBName +
		" sslmode=" + c.SSLMode
}
