// Package config provides application configuration management.
package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	globalConfig *Config
	once         sync.Once
)

// Config is the application configuration tree.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Razorpay  RazorpayConfig  `mapstructure:"razorpay"`
	UPI       UPIConfig       `mapstructure:"upi"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Business  BusinessConfig  `mapstructure:"business"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Name            string `mapstructure:"name"`
	Mode            string `mapstructure:"mode"`
	Port            int    `mapstructure:"port"`
	ReadTimeout     int    `mapstructure:"read_timeout"`
	WriteTimeout    int    `mapstructure:"write_timeout"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Name            string `mapstructure:"name"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	LogMode         bool   `mapstructure:"log_mode"`
	SlowThreshold   int    `mapstructure:"slow_threshold"`
}

// DSN returns the database connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode, d.Timezone,
	)
}

// Validate checks that the connection essentials are present. Missing
// credentials are a configuration error, never a silent default.
func (d *DatabaseConfig) Validate() error {
	if d.Host == "" || d.Name == "" || d.User == "" || d.Password == "" {
		return ErrDatabaseNotConfigured
	}
	return nil
}

// RedisConfig holds Redis settings.
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	DialTimeout  int    `mapstructure:"dial_timeout"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// Addr returns the Redis address.
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig holds admin token settings.
type JWTConfig struct {
	Secret            string `mapstructure:"secret"`
	AccessTokenExpire int    `mapstructure:"access_token_expire"`
	Issuer            string `mapstructure:"issuer"`
}

// Validate checks that a signing secret is present. There is no
// fallback secret: admin tokens signed with a known value would be
// forgeable.
func (j *JWTConfig) Validate() error {
	if j.Secret == "" {
		return ErrJWTNotConfigured
	}
	return nil
}

// AccessTokenDuration returns the access token lifetime.
func (j *JWTConfig) AccessTokenDuration() time.Duration {
	return time.Duration(j.AccessTokenExpire) * time.Hour
}

// RazorpayConfig holds payment gateway credentials.
//
// The key pair has no defaults: gateway flows must fail closed when the
// credentials are absent (see Validate).
type RazorpayConfig struct {
	KeyID     string `mapstructure:"key_id"`
	KeySecret string `mapstructure:"key_secret"`
	BaseURL   string `mapstructure:"base_url"`
	Timeout   int    `mapstructure:"timeout"`
}

// Configuration errors.
var (
	ErrRazorpayNotConfigured = errors.New("razorpay key id/secret not configured")
	ErrUPINotConfigured      = errors.New("upi merchant id not configured")
	ErrDatabaseNotConfigured = errors.New("database credentials not configured")
	ErrJWTNotConfigured      = errors.New("jwt signing secret not configured")
)

// Validate reports whether the gateway credentials are usable.
func (r *RazorpayConfig) Validate() error {
	if r.KeyID == "" || r.KeySecret == "" {
		return ErrRazorpayNotConfigured
	}
	return nil
}

// Timeout returns the HTTP client timeout for gateway calls.
func (r *RazorpayConfig) TimeoutDuration() time.Duration {
	return time.Duration(r.Timeout) * time.Second
}

// UPIConfig holds the static UPI collect settings for the manual flow.
type UPIConfig struct {
	MerchantID string `mapstructure:"merchant_id"`
	PayeeName  string `mapstructure:"payee_name"`
	Currency   string `mapstructure:"currency"`
}

// Validate reports whether the manual UPI flow is usable.
func (u *UPIConfig) Validate() error {
	if u.MerchantID == "" {
		return ErrUPINotConfigured
	}
	return nil
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
	Caller     bool   `mapstructure:"caller"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// RateLimitConfig holds request throttling settings for public endpoints.
type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Limit   int  `mapstructure:"limit"`
	Window  int  `mapstructure:"window"`
}

// WindowDuration returns the rate limit window.
func (r *RateLimitConfig) WindowDuration() time.Duration {
	return time.Duration(r.Window) * time.Second
}

// CORSConfig holds cross-origin settings.
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// BusinessConfig holds stall-specific settings.
type BusinessConfig struct {
	Coupon CouponConfig `mapstructure:"coupon"`
}

// CouponConfig holds coupon issuance settings.
type CouponConfig struct {
	Price               float64 `mapstructure:"price"`
	GatewayCodeAttempts int     `mapstructure:"gateway_code_attempts"`
	StatsCacheTTL       int     `mapstructure:"stats_cache_ttl"`
	DigestInterval      int     `mapstructure:"digest_interval"`
}

// StatsCacheDuration returns how long dashboard stats stay cached.
func (c *CouponConfig) StatsCacheDuration() time.Duration {
	return time.Duration(c.StatsCacheTTL) * time.Second
}

// DigestIntervalDuration returns the pending-verification digest period.
func (c *CouponConfig) DigestIntervalDuration() time.Duration {
	return time.Duration(c.DigestInterval) * time.Minute
}

// Load reads the configuration file once and caches the result.
func Load(configPath string) (*Config, error) {
	var err error
	once.Do(func() {
		v := viper.New()

		if configPath != "" {
			v.SetConfigFile(configPath)
		} else {
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			v.AddConfigPath("./configs")
			v.AddConfigPath(".")
		}

		v.AutomaticEnv()
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

		setDefaults(v)

		if err = v.ReadInConfig(); err != nil {
			// A missing config file falls back to defaults + env.
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return
			}
			err = nil
		}

		globalConfig = &Config{}
		if err = v.Unmarshal(globalConfig); err != nil {
			return
		}
	})

	return globalConfig, err
}

// Get returns the global configuration.
func Get() *Config {
	if globalConfig == nil {
		globalConfig = &Config{}
		v := viper.New()
		setDefaults(v)
		_ = v.Unmarshal(globalConfig)
	}
	return globalConfig
}

// setDefaults installs default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.name", "waffle-fiesta-backend")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.shutdown_timeout", 10)

	// Database: no defaults for user/password, credentials must come
	// from the config file or environment.
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "waffle_fiesta")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.timezone", "Asia/Kolkata")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("database.log_mode", true)
	v.SetDefault("database.slow_threshold", 200)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 100)
	v.SetDefault("redis.min_idle_conns", 10)
	v.SetDefault("redis.dial_timeout", 5)
	v.SetDefault("redis.read_timeout", 3)
	v.SetDefault("redis.write_timeout", 3)

	// JWT: no default signing secret, tokens minted with a known secret
	// would let anyone forge admin sessions.
	v.SetDefault("jwt.access_token_expire", 12)
	v.SetDefault("jwt.issuer", "waffle-fiesta")

	// Razorpay: no defaults for key_id/key_secret on purpose.
	v.SetDefault("razorpay.base_url", "https://api.razorpay.com")
	v.SetDefault("razorpay.timeout", 15)

	// UPI: no default merchant id on purpose.
	v.SetDefault("upi.payee_name", "WaffleFiesta")
	v.SetDefault("upi.currency", "INR")

	// Logger defaults
	v.SetDefault("logger.level", "debug")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.file_path", "./logs/app.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 10)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.caller", true)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Tracing defaults
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "waffle-fiesta-backend")
	v.SetDefault("tracing.sample_rate", 1.0)

	// Rate limit defaults (public purchase endpoints)
	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.limit", 30)
	v.SetDefault("ratelimit.window", 60)

	// CORS defaults
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"})
	v.SetDefault("cors.exposed_headers", []string{"X-Request-ID"})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 86400)

	// Business defaults
	v.SetDefault("business.coupon.price", 50.0)
	v.SetDefault("business.coupon.gateway_code_attempts", 10)
	v.SetDefault("business.coupon.stats_cache_ttl", 30)
	v.SetDefault("business.coupon.digest_interval", 15)
}

// IsDebug reports whether the server runs in debug mode.
func (c *Config) IsDebug() bool {
	return c.Server.Mode == "debug"
}

// IsRelease reports whether the server runs in release mode.
func (c *Config) IsRelease() bool {
	return c.Server.Mode == "release"
}
