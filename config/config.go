package config

import (
	"strings"
	"time"

	"github.com/cloudflare/cfssl/log"
	"github.com/spf13/viper"
	"github.com/ssbcFund/common"
)

type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Client    ClientConfig    `mapstructure:"client"`
	Faucet    FaucetConfig    `mapstructure:"faucet"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

type LogConfig struct {
	Level string `mapstructure:"level"` // debug, info, warning, error, critical, fatal
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	EventKey  string `mapstructure:"event_key"`
	MaxEvents int64  `mapstructure:"max_events"`
}

type ClientConfig struct {
	Addr    string `mapstructure:"addr"`
	TLS     bool   `mapstructure:"tls"`
	SSLHost string `mapstructure:"ssl_host"`
}

type FaucetConfig struct {
	Supply      int64 `mapstructure:"supply"`
	InitBalance int64 `mapstructure:"init_balance"`
}

type SchedulerConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// Load 读取 dir 下的 config.yaml，dir 为空时在 ./config 和当前目录查找。
// 没有配置文件时使用默认值，环境变量 CROWDFUND_<SECTION>_<KEY> 优先级最高。
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if dir != "" {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvPrefix("CROWDFUND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		log.Warningf("config file not found, using defaults: %s", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("db.path", "levelDB/db/path/node")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.event_key", common.EventListKey)
	v.SetDefault("redis.max_events", 10000)
	v.SetDefault("client.addr", ":8080")
	v.SetDefault("client.tls", false)
	v.SetDefault("client.ssl_host", "")
	v.SetDefault("faucet.supply", 1000000000)
	v.SetDefault("faucet.init_balance", common.InitBalance)
	v.SetDefault("scheduler.interval", "10s")
}

// LogLevel 把配置中的级别名转换为 cfssl log 的级别，未知名称按 info 处理
func (c LogConfig) LogLevel() int {
	switch strings.ToLower(c.Level) {
	case "debug":
		return log.LevelDebug
	case "warn", "warning":
		return log.LevelWarning
	case "error":
		return log.LevelError
	case "critical":
		return log.LevelCritical
	case "fatal":
		return log.LevelFatal
	default:
		return log.LevelInfo
	}
}

// Apply 设置全局日志级别
func (c *Config) Apply() {
	log.Level = c.Log.LogLevel()
}
