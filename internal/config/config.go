package config

import (
	"sync"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Storage   StorageConfig
	Kafka     KafkaConfig
	Admin     AdminConfig
	Geofence  GeofenceConfig
	Locations LocationConfig
	Log       LogConfig
}

var (
	ConfigInstance *Config
	once           sync.Once
)

type ServerConfig struct {
	Host           string
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	URI          string
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
}

type JWTConfig struct {
	Secret        string
	AccessExpire  time.Duration
	RefreshExpire time.Duration
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type AdminConfig struct {
	Email    string
	Passcode string
}

// GeofenceConfig is the event area a check-in must fall inside.
type GeofenceConfig struct {
	CenterLat float64
	CenterLon float64
	RadiusKM  float64
}

type LocationConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

func LoadConfig() (*Config, error) {
	once.Do(func() {
		viper.SetDefault("BOUNCE_PORT", "8080")
		viper.SetDefault("BOUNCE_READ_TIMEOUT", 30*time.Second)
		viper.SetDefault("BOUNCE_WRITE_TIMEOUT", 30*time.Second)
		viper.SetDefault("BOUNCE_IDLE_TIMEOUT", 60*time.Second)
		viper.SetDefault("BOUNCE_ALLOWED_ORIGINS", []string{"http://localhost:3000"})
		viper.SetDefault("BOUNCE_JWT_SECRET", "secret")
		viper.SetDefault("BOUNCE_JWT_ACCESS_EXPIRE", 30*time.Minute)
		viper.SetDefault("BOUNCE_JWT_REFRESH_EXPIRE", 30*24*time.Hour)
		viper.SetDefault("REDIS_URL", "redis://127.0.0.1:6379/0")
		viper.SetDefault("REDIS_MAX_RETRIES", 3)
		viper.SetDefault("REDIS_POOL_SIZE", 100)
		viper.SetDefault("REDIS_MIN_IDLE_CONNS", 10)
		viper.SetDefault("REDIS_DIAL_TIMEOUT", 5*time.Second)
		viper.SetDefault("REDIS_READ_TIMEOUT", 3*time.Second)
		viper.SetDefault("REDIS_WRITE_TIMEOUT", 3*time.Second)
		viper.SetDefault("POSTGRES_USER", "postgres")
		viper.SetDefault("POSTGRES_PASSWORD", "password")
		viper.SetDefault("POSTGRES_HOST", "localhost")
		viper.SetDefault("POSTGRES_PORT", "5432")
		viper.SetDefault("POSTGRES_DB", "postgres")
		viper.SetDefault("POSTGRES_SSLMODE", "disable")
		viper.SetDefault("MINIO_ENDPOINT", "localhost:9000")
		viper.SetDefault("MINIO_ACCESS_KEY", "minioadmin")
		viper.SetDefault("MINIO_SECRET_KEY", "minioadmin")
		viper.SetDefault("MINIO_BUCKET", "bounce-media")
		viper.SetDefault("MINIO_USE_SSL", false)
		viper.SetDefault("KAFKA_TOPIC", "bounce.activity")
		viper.SetDefault("ADMIN_EMAIL", "")
		viper.SetDefault("ADMIN_PASSCODE", "")
		// Art Basel Miami area by default.
		viper.SetDefault("GEOFENCE_CENTER_LAT", 25.7907)
		viper.SetDefault("GEOFENCE_CENTER_LON", -80.1300)
		viper.SetDefault("GEOFENCE_RADIUS_KM", 15.0)
		viper.SetDefault("LOCATION_TTL", 15*time.Minute)
		viper.SetDefault("LOCATION_CLEANUP_INTERVAL", 5*time.Minute)
		viper.SetDefault("LOG_LEVEL", "info")
		viper.SetDefault("LOG_FORMAT", "text")
		viper.AutomaticEnv()

		ConfigInstance = &Config{
			Server: ServerConfig{
				Host:           viper.GetString("BOUNCE_HOST"),
				Port:           viper.GetString("BOUNCE_PORT"),
				ReadTimeout:    viper.GetDuration("BOUNCE_READ_TIMEOUT"),
				WriteTimeout:   viper.GetDuration("BOUNCE_WRITE_TIMEOUT"),
				IdleTimeout:    viper.GetDuration("BOUNCE_IDLE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("BOUNCE_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("POSTGRES_HOST"),
				Port:     viper.GetString("POSTGRES_PORT"),
				User:     viper.GetString("POSTGRES_USER"),
				Password: viper.GetString("POSTGRES_PASSWORD"),
				DBName:   viper.GetString("POSTGRES_DB"),
				SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
			},
			Redis: RedisConfig{
				URI:          viper.GetString("REDIS_URL"),
				MaxRetries:   viper.GetInt("REDIS_MAX_RETRIES"),
				DialTimeout:  viper.GetDuration("REDIS_DIAL_TIMEOUT"),
				ReadTimeout:  viper.GetDuration("REDIS_READ_TIMEOUT"),
				WriteTimeout: viper.GetDuration("REDIS_WRITE_TIMEOUT"),
				PoolSize:     viper.GetInt("REDIS_POOL_SIZE"),
				MinIdleConns: viper.GetInt("REDIS_MIN_IDLE_CONNS"),
			},
			JWT: JWTConfig{
				Secret:        viper.GetString("BOUNCE_JWT_SECRET"),
				AccessExpire:  viper.GetDuration("BOUNCE_JWT_ACCESS_EXPIRE"),
				RefreshExpire: viper.GetDuration("BOUNCE_JWT_REFRESH_EXPIRE"),
			},
			Storage: StorageConfig{
				Endpoint:  viper.GetString("MINIO_ENDPOINT"),
				AccessKey: viper.GetString("MINIO_ACCESS_KEY"),
				SecretKey: viper.GetString("MINIO_SECRET_KEY"),
				Bucket:    viper.GetString("MINIO_BUCKET"),
				UseSSL:    viper.GetBool("MINIO_USE_SSL"),
			},
			Kafka: KafkaConfig{
				Brokers: viper.GetStringSlice("KAFKA_BROKERS"),
				Topic:   viper.GetString("KAFKA_TOPIC"),
			},
			Admin: AdminConfig{
				Email:    viper.GetString("ADMIN_EMAIL"),
				Passcode: viper.GetString("ADMIN_PASSCODE"),
			},
			Geofence: GeofenceConfig{
				CenterLat: viper.GetFloat64("GEOFENCE_CENTER_LAT"),
				CenterLon: viper.GetFloat64("GEOFENCE_CENTER_LON"),
				RadiusKM:  viper.GetFloat64("GEOFENCE_RADIUS_KM"),
			},
			Locations: LocationConfig{
				TTL:             viper.GetDuration("LOCATION_TTL"),
				CleanupInterval: viper.GetDuration("LOCATION_CLEANUP_INTERVAL"),
			},
			Log: LogConfig{
				Level:  viper.GetString("LOG_LEVEL"),
				Format: viper.GetString("LOG_FORMAT"),
			},
		}
	})

	return ConfigInstance, nil
}
