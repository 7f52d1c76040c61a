package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/spatial-summarize/internal/domain"
	"github.com/spatial-summarize/internal/overlay"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Log      LogConfig
	Worker   WorkerConfig
	Summary  SummaryConfig
}

type ServerConfig struct {
	Host        string
	Port        int
	Env         string
	BodyLimit   int
	CORSOrigins string
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
	AutoMigrate     bool
	MigrationsPath  string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CacheConfig struct {
	SummaryCacheTTL time.Duration
	LayerCacheTTL   time.Duration
}

type LogConfig struct {
	Level string
}

type WorkerConfig struct {
	Enabled           bool
	ConsumerGroup     string
	StreamReadTimeout time.Duration
	BatchSize         int
	MaxRetries        int
}

// SummaryConfig - параметры движка суммирования
type SummaryConfig struct {
	EqualAreaCRS   string
	Precision      int
	DefaultJoin    string
	MaxFeatures    int
	ParallelReduce bool
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return fromViper(), nil
}

func fromViper() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:        viper.GetString("API_HOST"),
			Port:        viper.GetInt("API_PORT"),
			Env:         viper.GetString("API_ENV"),
			BodyLimit:   viper.GetInt("API_BODY_LIMIT_MB"),
			CORSOrigins: viper.GetString("API_CORS_ORIGINS"),
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
			AutoMigrate:     viper.GetBool("DB_AUTO_MIGRATE"),
			MigrationsPath:  viper.GetString("DB_MIGRATIONS_PATH"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetInt("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Cache: CacheConfig{
			SummaryCacheTTL: time.Duration(viper.GetInt("SUMMARY_CACHE_TTL")) * time.Second,
			LayerCacheTTL:   time.Duration(viper.GetInt("LAYER_CACHE_TTL")) * time.Second,
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Worker: WorkerConfig{
			Enabled:           viper.GetBool("WORKER_ENABLED"),
			ConsumerGroup:     viper.GetString("WORKER_CONSUMER_GROUP"),
			StreamReadTimeout: time.Duration(viper.GetInt("WORKER_STREAM_READ_TIMEOUT")) * time.Millisecond,
			BatchSize:         viper.GetInt("WORKER_BATCH_SIZE"),
			MaxRetries:        viper.GetInt("WORKER_MAX_RETRIES"),
		},
		Summary: SummaryConfig{
			EqualAreaCRS:   viper.GetString("SUMMARY_EQUAL_AREA_CRS"),
			Precision:      viper.GetInt("SUMMARY_PRECISION"),
			DefaultJoin:    viper.GetString("SUMMARY_DEFAULT_JOIN"),
			MaxFeatures:    viper.GetInt("SUMMARY_MAX_FEATURES"),
			ParallelReduce: viper.GetBool("SUMMARY_PARALLEL_REDUCE"),
		},
	}

	cfg.applyDefaults()
	return cfg
}

// Set default values if not provided
func (c *Config) applyDefaults() {
	if c.Server.BodyLimit == 0 {
		c.Server.BodyLimit = 50
	}
	if c.Database.MigrationsPath == "" {
		c.Database.MigrationsPath = "migrations"
	}
	if c.Cache.SummaryCacheTTL == 0 {
		c.Cache.SummaryCacheTTL = time.Hour
	}
	if c.Cache.LayerCacheTTL == 0 {
		c.Cache.LayerCacheTTL = 10 * time.Minute
	}
	if c.Worker.ConsumerGroup == "" {
		c.Worker.ConsumerGroup = "summary-workers"
	}
	if c.Worker.StreamReadTimeout == 0 {
		c.Worker.StreamReadTimeout = 5000 * time.Millisecond
	}
	if c.Worker.BatchSize == 0 {
		c.Worker.BatchSize = 10
	}
	if c.Worker.MaxRetries == 0 {
		c.Worker.MaxRetries = 3
	}
	if c.Summary.EqualAreaCRS == "" {
		c.Summary.EqualAreaCRS = "EPSG:6933"
	}
	// SUMMARY_PRECISION=0 допустим только явно
	if !viper.IsSet("SUMMARY_PRECISION") {
		c.Summary.Precision = 2
	}
	if c.Summary.DefaultJoin == "" {
		c.Summary.DefaultJoin = "inner"
	}
	if c.Summary.MaxFeatures == 0 {
		c.Summary.MaxFeatures = 50000
	}
}

// Engine переводит настройки суммирования в конфигурацию движка
func (s SummaryConfig) Engine() overlay.Config {
	cfg := overlay.DefaultConfig()
	if s.EqualAreaCRS != "" {
		cfg.EqualAreaCRS = s.EqualAreaCRS
	}
	cfg.Precision = s.Precision
	if join := domain.JoinType(s.DefaultJoin); join.IsValid() {
		cfg.DefaultJoin = join
	}
	cfg.ParallelReduce = s.ParallelReduce
	return cfg
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetDatabaseDSN() string {
	return c.Database.DSN()
}

// DSN собирает строку подключения в формате key=value
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.DBName,
		d.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
