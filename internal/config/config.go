package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	DB         DBConfig         `mapstructure:"db"`
	CRM        CRMConfig        `mapstructure:"crm"`
	Sink       SinkConfig       `mapstructure:"sink"`
	Sync       SyncConfig       `mapstructure:"sync"`
	Cron       CronConfig       `mapstructure:"cron"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

type CRMConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	TokenURL     string        `mapstructure:"token_url"`
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type SinkConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type SyncConfig struct {
	PageSize       int           `mapstructure:"page_size"`
	OffsetCeiling  int           `mapstructure:"offset_ceiling"`
	FlushThreshold int           `mapstructure:"flush_threshold"`
	RetryAttempts  int           `mapstructure:"retry_attempts"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
}

type CronConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	SyncInterval string `mapstructure:"sync_interval"`
}

type CheckpointConfig struct {
	Persist bool `mapstructure:"persist"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CRMSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("crm.base_url", "https://api.hubapi.com")
	v.SetDefault("crm.token_url", "https://api.hubapi.com/oauth/v1/token")
	v.SetDefault("crm.timeout", "15s")
	v.SetDefault("sink.timeout", "10s")
	v.SetDefault("sync.page_size", 100)
	v.SetDefault("sync.offset_ceiling", 9900)
	v.SetDefault("sync.flush_threshold", 2000)
	v.SetDefault("sync.retry_attempts", 2)
	v.SetDefault("sync.retry_base_delay", "5s")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.sync_interval", "@every 30m")
	v.SetDefault("checkpoint.persist", false)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
