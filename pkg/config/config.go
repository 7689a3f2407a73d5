package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. ESHOP_MONGODB_URI.
const EnvPrefix = "ESHOP"

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	MongoDB MongoDBConfig `mapstructure:"mongodb"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Etcd    EtcdConfig    `mapstructure:"etcd"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Upload  UploadConfig  `mapstructure:"upload"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Name      string `mapstructure:"name"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	APIPrefix string `mapstructure:"api_prefix"`
	Mode      string `mapstructure:"mode"`
}

type MongoDBConfig struct {
	URI             string        `mapstructure:"uri"`
	Database        string        `mapstructure:"database"`
	AuditCollection string        `mapstructure:"audit_collection"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	PoolSize int           `mapstructure:"pool_size"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type EtcdConfig struct {
	Endpoints   []string      `mapstructure:"endpoints"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	Prefix      string        `mapstructure:"prefix"`
	LeaseTTL    int64         `mapstructure:"lease_ttl"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type AuthConfig struct {
	Secret      string        `mapstructure:"secret"`
	TokenExpiry time.Duration `mapstructure:"token_expiry"`
	BcryptCost  int           `mapstructure:"bcrypt_cost"`
}

type UploadConfig struct {
	Dir      string `mapstructure:"dir"`
	MaxFiles int    `mapstructure:"max_files"`
}

type LogConfig struct {
	Level       string   `mapstructure:"level"`
	Encoding    string   `mapstructure:"encoding"`
	OutputPaths []string `mapstructure:"output_paths"`
}

// Load reads the YAML file at configPath, then applies variables from an
// optional .env file and the process environment. An empty configPath
// skips the file and uses defaults plus environment.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "eshop-api")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.api_prefix", "/api/v1")
	v.SetDefault("server.mode", "release")

	v.SetDefault("mongodb.uri", "mongodb://localhost:27017")
	v.SetDefault("mongodb.database", "eshop")
	v.SetDefault("mongodb.audit_collection", "audit_logs")
	v.SetDefault("mongodb.connect_timeout", 10*time.Second)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.ttl", 30*time.Minute)

	v.SetDefault("etcd.endpoints", []string{})
	v.SetDefault("etcd.dial_timeout", 5*time.Second)
	v.SetDefault("etcd.prefix", "/services/")
	v.SetDefault("etcd.lease_ttl", 30)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "eshop.orders")

	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.token_expiry", 24*time.Hour)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("upload.dir", "public/uploads")
	v.SetDefault("upload.max_files", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("log.output_paths", []string{"stdout"})
}

// Validate reports settings the service cannot start without.
func (c *Config) Validate() error {
	if c.Auth.Secret == "" {
		return errors.New("auth.secret is required")
	}
	if c.MongoDB.URI == "" || c.MongoDB.Database == "" {
		return errors.New("mongodb.uri and mongodb.database are required")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	return nil
}

func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
