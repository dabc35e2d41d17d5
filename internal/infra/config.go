package infra

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config — корневая структура конфигурации консоли.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Node     NodeConfig     `mapstructure:"node"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Limits   LimitsConfig   `mapstructure:"limits"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig описывает HTTP, gRPC (health) и endpoint метрик.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	GRPCPort     int           `mapstructure:"grpc_port"`
	MetricsAddr  string        `mapstructure:"metrics_addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// NodeConfig — адреса и идентификаторы внешней ноды блокчейна.
// Пустой GraphQLEndpoint означает Disconnected, пустые ChainID/ApplicationID
// ломают только путь записи.
type NodeConfig struct {
	RPCEndpoint     string        `mapstructure:"rpc_endpoint"`
	GraphQLEndpoint string        `mapstructure:"graphql_endpoint"`
	ApplicationID   string        `mapstructure:"application_id"`
	ChainID         string        `mapstructure:"chain_id"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// DatabaseConfig — журнал операций в PostgreSQL. Пустой URL отключает запись в БД.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int    `mapstructure:"max_conns"`
}

// RedisConfig — флаг онбординга и сигнал обновления дашборда.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig — опциональная защита маршрутов записи RS256-токеном.
type AuthConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	PublicKeyPath    string        `mapstructure:"public_key_path"`
	PrivateKeyPath   string        `mapstructure:"private_key_path"`
	TokenTTL         time.Duration `mapstructure:"token_ttl"`
	OperatorUsername string        `mapstructure:"operator_username"`
	OperatorPassword string        `mapstructure:"operator_password_hash"` // bcrypt
	PublicKey        []byte
	PrivateKey       []byte
}

// SyncConfig настраивает контроллеры поверхностей.
type SyncConfig struct {
	DashboardInterval time.Duration `mapstructure:"dashboard_interval"`
	TransactionsLimit int           `mapstructure:"transactions_limit"`
}

// LimitsConfig — ограничитель входящих операций записи.
type LimitsConfig struct {
	WriteRPS   float64 `mapstructure:"write_rps"`
	WriteBurst int     `mapstructure:"write_burst"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// legacyEnv — имена переменных, под которыми настройки ноды жили в .env дашборда.
var legacyEnv = map[string]string{
	"node.rpc_endpoint":     "LINERA_RPC_ENDPOINT",
	"node.graphql_endpoint": "NEXT_PUBLIC_LINERA_GRAPHQL_ENDPOINT",
	"node.application_id":   "LINERA_APPLICATION_ID",
	"node.chain_id":         "LINERA_CHAIN_ID",
}

// LoadConfig инициализирует конфигурацию, объединяя .env, файл и ENV.
func LoadConfig() (*Config, error) {
	// .env не обязателен
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	// NODE_CHAIN_ID=... перекроет node.chain_id
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, env := range legacyEnv {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Если файла нет — работаем на ENV и дефолтах
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	cfg.Auth.PublicKey = loadKeyResource(cfg.Auth.PublicKeyPath, "AUTH_PUBLIC_KEY_DATA")
	cfg.Auth.PrivateKey = loadKeyResource(cfg.Auth.PrivateKeyPath, "AUTH_PRIVATE_KEY_DATA")

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.grpc_port", 50052)
	v.SetDefault("server.metrics_addr", ":9090")
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 20*time.Second)
	v.SetDefault("node.rpc_endpoint", "http://localhost:8080")
	v.SetDefault("node.timeout", 15*time.Second)
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("sync.dashboard_interval", 5*time.Second)
	v.SetDefault("sync.transactions_limit", 10)
	v.SetDefault("limits.write_rps", 5)
	v.SetDefault("limits.write_burst", 10)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
}

// loadKeyResource: PEM прямо из ENV (Docker/K8s) или из файла по пути из конфига.
func loadKeyResource(path string, envDataKey string) []byte {
	if data := os.Getenv(envDataKey); data != "" {
		return []byte(data)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			return data
		}
	}
	return nil
}
