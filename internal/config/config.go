package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"

	"rewardhub/internal/logger"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	MySQL   MySQLConfig   `mapstructure:"mysql"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Store   StoreConfig   `mapstructure:"store"`
	Session SessionConfig `mapstructure:"session"`
	Sync    SyncConfig    `mapstructure:"sync"`
}

type ServerConfig struct {
	Port     int   `mapstructure:"port"`
	WorkerID int64 `mapstructure:"worker_id"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

func (c MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Enabled bool             `mapstructure:"enabled"`
	Brokers []string         `mapstructure:"brokers"`
	Topic   KafkaTopicConfig `mapstructure:"topic"`
}

type KafkaTopicConfig struct {
	SyncEvents string `mapstructure:"sync_events"`
}

const (
	DriverMySQL  = "mysql"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// StoreConfig selects the remote record store.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

type SessionConfig struct {
	Driver        string        `mapstructure:"driver"`
	KeyPrefix     string        `mapstructure:"key_prefix"`
	ResetInterval time.Duration `mapstructure:"reset_interval"`
	ResetLockTTL  time.Duration `mapstructure:"reset_lock_ttl"`
}

type SyncConfig struct {
	QueueSize    int           `mapstructure:"queue_size"`
	ApplyTimeout time.Duration `mapstructure:"apply_timeout"`
	DrainTimeout time.Duration `mapstructure:"drain_timeout"`
}

var GlobalConfig *Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.worker_id", 1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("mysql.host", "localhost")
	v.SetDefault("mysql.port", 3306)
	v.SetDefault("mysql.user", "root")
	v.SetDefault("mysql.database", "rewardhub")
	v.SetDefault("mysql.max_open_conns", 50)
	v.SetDefault("mysql.max_idle_conns", 10)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic.sync_events", "rewardhub_sync_events")

	v.SetDefault("store.driver", DriverMySQL)

	v.SetDefault("session.driver", DriverRedis)
	v.SetDefault("session.key_prefix", "rewardhub:")
	v.SetDefault("session.reset_interval", time.Minute)
	v.SetDefault("session.reset_lock_ttl", 30*time.Second)

	v.SetDefault("sync.queue_size", 1024)
	v.SetDefault("sync.apply_timeout", 5*time.Second)
	v.SetDefault("sync.drain_timeout", 5*time.Second)
}

// Load reads the YAML file at configPath. Any key can be overridden from the
// environment as REWARDHUB_<SECTION>_<KEY>, e.g. REWARDHUB_MYSQL_HOST. A
// missing file is not an error; defaults and environment still apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("REWARDHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config: %w", err)
			}
			logger.Warn("config file not found, using defaults", "path", configPath)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig is Load for process startup: it exits on error and sets
// GlobalConfig.
func LoadConfig(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	GlobalConfig = cfg
	return cfg
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMySQL, DriverMemory:
	default:
		return fmt.Errorf("store.driver: unsupported %q", c.Store.Driver)
	}
	switch c.Session.Driver {
	case DriverRedis, DriverMemory:
	default:
		return fmt.Errorf("session.driver: unsupported %q", c.Session.Driver)
	}
	if c.Sync.QueueSize <= 0 {
		return fmt.Errorf("sync.queue_size must be positive, got %d", c.Sync.QueueSize)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers must not be empty when kafka is enabled")
	}
	return nil
}
