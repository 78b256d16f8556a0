package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	xhttp "CryptoSignal/pkg/http"
	"CryptoSignal/pkg/logger"
	"CryptoSignal/pkg/util"
)

type Config struct {
	Environment string        `yaml:"environment" default:"development" validate:"oneof=development staging production test"`
	Server      Server        `yaml:"server"`
	Logger      logger.Config `yaml:"logger"`
	Cache       Cache         `yaml:"cache"`
	Binance     Binance       `yaml:"binance"`
	CoinGecko   CoinGecko     `yaml:"coingecko"`
	Yahoo       Yahoo         `yaml:"yahoo"`
	ClickHouse  ClickHouse    `yaml:"clickhouse"`
	Kafka       Kafka         `yaml:"kafka"`
	Warmup      Warmup        `yaml:"warmup"`
	RateLimit   RateLimit     `yaml:"ratelimit"`
}

type Server struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"5000" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	SlowThreshold   time.Duration `yaml:"slow_threshold" default:"2s"`
	AllowOrigins    []string      `yaml:"allow_origins" default:"[\"*\"]"`
	// PredictTimeout bounds one bundle computation across all timeframes.
	PredictTimeout time.Duration `yaml:"predict_timeout" default:"30s"`
}

type Cache struct {
	Backend string        `yaml:"backend" default:"memory" validate:"oneof=memory redis layered"`
	Epoch   time.Duration `yaml:"epoch" default:"1m" validate:"gte=1s"`
	Memory  struct {
		MaxSize         int           `yaml:"max_size" default:"1000" validate:"gte=1"`
		CleanupInterval time.Duration `yaml:"cleanup_interval" default:"5m"`
		MaxL1TTL        time.Duration `yaml:"max_l1_ttl" default:"1m"`
	} `yaml:"memory"`
	Redis struct {
		Host     string        `yaml:"host" default:"localhost"`
		Port     int           `yaml:"port" default:"6379"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		PoolSize int           `yaml:"pool_size" default:"10"`
		MinIdle  int           `yaml:"min_idle" default:"2"`
		Timeout  time.Duration `yaml:"timeout" default:"3s"`
		Prefix   string        `yaml:"prefix" default:"cryptosignal"`
	} `yaml:"redis"`
	TTL struct {
		Coins          time.Duration `yaml:"coins" default:"1h"`
		Price          time.Duration `yaml:"price" default:"1m"`
		Historical     time.Duration `yaml:"historical" default:"5m"`
		Prediction     time.Duration `yaml:"prediction" default:"1m"`
		Bundle         time.Duration `yaml:"bundle" default:"2m"`
		Analysis       time.Duration `yaml:"analysis" default:"5m"`
		Recommendation time.Duration `yaml:"recommendation" default:"1m"`
	} `yaml:"ttl"`
}

type Binance struct {
	Enabled bool          `yaml:"enabled" default:"true"`
	BaseURL string        `yaml:"base_url" default:"https://api.binance.com/api/v3" validate:"omitempty,url"`
	Timeout time.Duration `yaml:"timeout" default:"10s"`
	Retries int           `yaml:"retries" default:"2" validate:"gte=0,lte=10"`
}

type CoinGecko struct {
	Enabled bool          `yaml:"enabled" default:"true"`
	BaseURL string        `yaml:"base_url" default:"https://api.coingecko.com/api/v3" validate:"omitempty,url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout" default:"10s"`
}

type Yahoo struct {
	Enabled bool `yaml:"enabled"`
}

type ClickHouse struct {
	Enabled          bool          `yaml:"enabled"`
	Host             string        `yaml:"host" default:"localhost" validate:"required_if=Enabled true"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"cryptosignal"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	Table            string        `yaml:"table" default:"bars"`
	UseHTTP          bool          `yaml:"use_http"`
	AsyncInsert      bool          `yaml:"async_insert"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	// ServeReads puts the archive behind the upstream sources as a last resort.
	ServeReads bool `yaml:"serve_reads" default:"true"`
}

type Kafka struct {
	Enabled      bool          `yaml:"enabled"`
	Brokers      []string      `yaml:"brokers" validate:"required_if=Enabled true"`
	Topic        string        `yaml:"topic" default:"cryptosignal.predictions"`
	DigestTopic  string        `yaml:"digest_topic"`
	ClientID     string        `yaml:"client_id" default:"cryptosignal"`
	RequiredAcks int           `yaml:"required_acks" default:"1" validate:"oneof=-1 0 1"`
	Compression  string        `yaml:"compression" default:"snappy" validate:"oneof=none gzip snappy lz4 zstd"`
	MaxAttempts  int           `yaml:"max_attempts" default:"3"`
	BatchSize    int           `yaml:"batch_size" default:"50"`
	Linger       time.Duration `yaml:"linger" default:"200ms"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	Async        bool          `yaml:"async"`
}

type Warmup struct {
	Enabled bool          `yaml:"enabled"`
	Spec    string        `yaml:"spec" default:"0 */5 * * * *"`
	Coins   []string      `yaml:"coins" default:"[\"bitcoin\",\"ethereum\"]"`
	Timeout time.Duration `yaml:"timeout" default:"2m"`
	// Distributed routes warm-up through the Redis job queue shared by all replicas.
	Distributed bool          `yaml:"distributed"`
	Workers     int           `yaml:"workers" default:"2" validate:"gte=1"`
	RetryLimit  int           `yaml:"retry_limit" default:"2" validate:"gte=0"`
	RetryDelay  time.Duration `yaml:"retry_delay" default:"30s"`
}

type RateLimit struct {
	Capacity     int     `yaml:"capacity" default:"20" validate:"gte=1"`
	RefillPerSec float64 `yaml:"refill_per_sec" default:"5" validate:"gt=0"`
}

// Default returns a config carrying only default values.
func Default() *Config {
	c, err := read("")
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads a YAML file over the defaults; a missing file yields defaults.
// Defaults go first so explicit false or zero values in the file survive.
func Load(path string) (*Config, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads .env (if present), the YAML file, then applies environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	c, err := read(path)
	if err != nil {
		return nil, err
	}
	c.loadFromEnv()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func read(path string) (*Config, error) {
	c := &Config{}
	if err := defaults.Set(c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if path == "" {
		return c, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

func (c *Config) loadFromEnv() {
	if v := os.Getenv("APP_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logger.Level = v
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Cache.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Cache.Redis.Password = v
	}
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		c.CoinGecko.APIKey = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
		c.ClickHouse.Enabled = true
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitCSV(v)
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("WARMUP_COINS"); v != "" {
		c.Warmup.Coins = util.SplitCSV(v)
	}
	if v := os.Getenv("WARMUP_ENABLED"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			c.Warmup.Enabled = on
		}
	}
}

// Validate checks struct tags plus rules that span sections.
func (c *Config) Validate() error {
	if err := xhttp.Validator().Struct(c); err != nil {
		return err
	}
	if !c.Binance.Enabled && !c.CoinGecko.Enabled && !c.Yahoo.Enabled && !c.ClickHouse.Enabled {
		return errors.New("at least one market data source must be enabled")
	}
	if c.Warmup.Enabled && len(c.Warmup.Coins) == 0 {
		return errors.New("warmup.coins cannot be empty when warmup is enabled")
	}
	if c.Warmup.Distributed && c.Cache.Backend == "memory" {
		return errors.New("warmup.distributed needs a redis or layered cache backend")
	}
	return nil
}
